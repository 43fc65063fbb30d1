package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/controller"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/logging"
)

const (
	writeWait = 10 * time.Second
	// Slow consumers are dropped rather than allowed to back-pressure the
	// broadcast loop.
	clientBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The box serves a trusted local network.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsEvent is the JSON envelope pushed to websocket clients.
type wsEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	At      string      `json:"at"`
}

// Hub fans controller events out to websocket clients. It implements
// controller.Observer; the observer callbacks only enqueue, so the control
// loop never waits on a socket.
type Hub struct {
	mu        sync.Mutex
	clients   map[*websocket.Conn]chan []byte
	broadcast chan []byte
}

// NewHub returns an idle hub; Run starts the broadcast loop.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]chan []byte),
		broadcast: make(chan []byte, clientBuffer),
	}
}

// Run pumps broadcasts to clients until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn, send := range h.clients {
				select {
				case send <- msg:
				default:
					// Client is not draining; cut it loose.
					close(send)
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.clients {
		close(send)
		delete(h.clients, conn)
		_ = conn.Close()
	}
}

func (h *Hub) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	send := make(chan []byte, clientBuffer)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()
	logging.Debug("Websocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	go h.writePump(conn, send)
	go h.readPump(conn)
}

func (h *Hub) writePump(conn *websocket.Conn, send chan []byte) {
	defer conn.Close()
	for msg := range send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.drop(conn)
			return
		}
	}
}

// readPump discards client traffic; the stream is one-way. It exists to
// notice disconnects.
func (h *Hub) readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(conn)
			return
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if send, ok := h.clients[conn]; ok {
		close(send)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
	_ = conn.Close()
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) publish(eventType string, payload interface{}) {
	body, err := json.Marshal(wsEvent{
		Type:    eventType,
		Payload: payload,
		At:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logging.Error("Event marshal failed", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- body:
	default:
		// Broadcast queue full; drop rather than stall the caller.
	}
}

// StateChanged implements controller.Observer.
func (h *Hub) StateChanged(from, to controller.State, fault controller.Fault) {
	h.publish("state", map[string]string{
		"from":  from.String(),
		"to":    to.String(),
		"fault": fault.String(),
	})
}

// SessionStarted implements controller.Observer.
func (h *Hub) SessionStarted(zone, seq, total int) {
	h.publish("session_started", map[string]int{"zone": zone, "seq": seq, "total": total})
}

// SessionFinished implements controller.Observer.
func (h *Hub) SessionFinished(zone int, sequenceEnd bool) {
	h.publish("session_finished", map[string]interface{}{"zone": zone, "sequence_end": sequenceEnd})
}

// FaultRaised implements controller.Observer.
func (h *Hub) FaultRaised(fault controller.Fault, detail string) {
	h.publish("fault", map[string]string{
		"fault":  fault.String(),
		"code":   fault.Code(),
		"detail": detail,
	})
}

// VerificationMismatch implements controller.Observer.
func (h *Hub) VerificationMismatch(zone int) {
	h.publish("verification_mismatch", map[string]int{"zone": zone})
}
