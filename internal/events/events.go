package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/controller"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/logging"
)

// Topics, one per event family.
const (
	TopicState   = "riego/state"
	TopicSession = "riego/session"
	TopicFault   = "riego/fault"
)

const (
	connectTimeout  = 5 * time.Second
	maxConnectRetry = 30 * time.Second
)

// Publisher mirrors controller telemetry onto an MQTT broker. A Publisher
// built from an empty broker URL is disabled and discards everything, so
// callers never need to special-case the no-broker configuration.
type Publisher struct {
	client mqtt.Client
}

// New connects to the broker with exponential backoff. An empty broker URL
// returns a disabled publisher and no error.
func New(broker, clientID string) (*Publisher, error) {
	if broker == "" {
		return &Publisher{}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logging.Warn("MQTT connection lost", zap.Error(err))
		})
	client := mqtt.NewClient(opts)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxConnectRetry
	err := backoff.Retry(func() error {
		token := client.Connect()
		if !token.WaitTimeout(connectTimeout) {
			return fmt.Errorf("connect to %s timed out", broker)
		}
		return token.Error()
	}, bo)
	if err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	logging.Info("MQTT publisher connected", zap.String("broker", broker))
	return &Publisher{client: client}, nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.client != nil {
		p.client.Disconnect(250)
	}
}

// publish is fire-and-forget: the control loop must never block on the
// broker, so no token wait happens here.
func (p *Publisher) publish(topic string, payload interface{}) {
	if p.client == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Event marshal failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	p.client.Publish(topic, 0, false, body)
}

type stateEvent struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Fault string `json:"fault,omitempty"`
	At    string `json:"at"`
}

type sessionEvent struct {
	Event    string `json:"event"`
	Zone     int    `json:"zone"`
	Seq      int    `json:"seq,omitempty"`
	Total    int    `json:"total,omitempty"`
	Sequence bool   `json:"sequence_end,omitempty"`
	At       string `json:"at"`
}

type faultEvent struct {
	Fault  string `json:"fault"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
	At     string `json:"at"`
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// StateChanged implements controller.Observer.
func (p *Publisher) StateChanged(from, to controller.State, fault controller.Fault) {
	ev := stateEvent{From: from.String(), To: to.String(), At: now()}
	if fault != controller.FaultNone {
		ev.Fault = fault.String()
	}
	p.publish(TopicState, ev)
}

// SessionStarted implements controller.Observer.
func (p *Publisher) SessionStarted(zone, seq, total int) {
	p.publish(TopicSession, sessionEvent{Event: "started", Zone: zone, Seq: seq, Total: total, At: now()})
}

// SessionFinished implements controller.Observer.
func (p *Publisher) SessionFinished(zone int, sequenceEnd bool) {
	p.publish(TopicSession, sessionEvent{Event: "finished", Zone: zone, Sequence: sequenceEnd, At: now()})
}

// FaultRaised implements controller.Observer.
func (p *Publisher) FaultRaised(fault controller.Fault, detail string) {
	p.publish(TopicFault, faultEvent{Fault: fault.String(), Code: fault.Code(), Detail: detail, At: now()})
}

// VerificationMismatch implements controller.Observer.
func (p *Publisher) VerificationMismatch(zone int) {
	p.publish(TopicFault, faultEvent{Fault: "verification-mismatch", Code: "", Detail: fmt.Sprintf("zone %d", zone), At: now()})
}
