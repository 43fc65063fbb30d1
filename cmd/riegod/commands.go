package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/actuator"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/buttons"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/config"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/controller"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/discovery"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/display"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/events"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/logging"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/panel"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/server"
)

var (
	configDir   string
	endpoint    string
	broker      string
	listenAddr  string
	serviceName string
	logLevel    string
	offline     bool
	strict      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the controller daemon",
	Long: `Start the irrigation controller.

The daemon loads the configuration directory, probes the actuator endpoint
and enters the control loop. The status API is served on the listen address
and announced over mDNS. When the operator requests a device restart from
the panel, the daemon exits non-zero for the supervisor to bring it back.`,
	Example: `  # Run with the default configuration directory
  riegod run

  # Override the actuator endpoint and run in strict verification mode
  riegod run --endpoint http://192.168.1.20:8080 --strict

  # Run disconnected from the actuator
  riegod run --offline --log-level debug`,
	RunE: runDaemon,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the controller behind a terminal front panel",
	Long: `Run the controller with an interactive terminal front panel instead of
the box hardware. Keyboard input maps onto the panel buttons, the selector
and the rotary encoder; the 4-digit display and the LED field are rendered
in the terminal.

Simulated actuator fault flags can be toggled from the panel keys and, when
a listen address is set, via POST /api/simulate.`,
	Example: `  # Simulate against a real actuator endpoint
  riegod simulate --endpoint http://192.168.1.20:8080

  # Fully local, no remote calls
  riegod simulate --offline`,
	RunE: runSimulate,
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find irrigation boxes on the local network",
	Long: `Browse mDNS for irrigation boxes announcing their status API and list
the endpoints found.`,
	RunE: runDiscover,
}

var scanTimeout time.Duration

func init() {
	discoverCmd.Flags().DurationVar(&scanTimeout, "timeout", discovery.DefaultScanTimeout, "How long to wait for answers")

	for _, cmd := range []*cobra.Command{runCmd, simulateCmd} {
		cmd.Flags().StringVar(&configDir, "config-dir", "", "Configuration directory (default: OS config dir)")
		cmd.Flags().StringVar(&endpoint, "endpoint", "", "Actuator endpoint base URL (overrides configuration)")
		cmd.Flags().StringVar(&broker, "broker", "", "MQTT broker URL for telemetry (overrides configuration)")
		cmd.Flags().BoolVar(&offline, "offline", false, "Start in offline mode (no remote actuator calls)")
		cmd.Flags().BoolVar(&strict, "strict", false, "Treat endpoint failures as fatal while online")
		cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error; default: "+logging.LogLevelEnvVar+" env var)")
	}
	runCmd.Flags().StringVar(&listenAddr, "listen", ":8089", "Status API listen address")
	runCmd.Flags().StringVar(&serviceName, "service-name", "riego", "mDNS instance name (empty disables the announce)")
	simulateCmd.Flags().StringVar(&listenAddr, "listen", "", "Status API listen address (empty disables the server)")
}

// noInput is the input device of a box running without its front panel
// attached: no button ever reads closed.
type noInput struct{}

func (noInput) ReadButtonBitmap() uint16 { return 0 }

func loadConfig() (*config.Store, *config.Config, error) {
	dir := configDir
	if dir == "" {
		var err error
		dir, err = config.DefaultDir()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve config directory: %w", err)
		}
	}
	store := config.NewStore(dir)
	cfg := store.Boot()
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if broker != "" {
		cfg.Broker = broker
	}
	return store, cfg, nil
}

func newPublisher(brokerURL, clientID string) *events.Publisher {
	pub, err := events.New(brokerURL, clientID)
	if err != nil {
		logging.Warn("Event publishing disabled", zap.Error(err))
		pub, _ = events.New("", clientID)
	}
	return pub
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}

	store, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	act := actuator.New(cfg.Endpoint)
	act.SetOffline(offline)

	pub := newPublisher(cfg.Broker, "riegod")
	defer pub.Close()

	srvCfg := &server.Config{
		Addr:        listenAddr,
		ServiceName: serviceName,
		Cfg:         cfg,
		Reload: func() error {
			fresh, err := store.Load()
			if err != nil {
				return err
			}
			// Swapped between ticks; the operator quiesces the box before
			// reloading.
			*cfg = *fresh
			return nil
		},
	}
	srv := server.New(srvCfg)

	ctrl := controller.New(controller.Deps{
		Engine:   buttons.NewEngine(noInput{}, buttons.NewPanel()),
		Display:  display.NewLog(),
		Sounder:  display.LogSounder{},
		Actuator: act,
		Store:    store,
		Config:   cfg,
		Observer: controller.MultiObserver{pub, srv.Observer()},
		Strict:   strict,
	})
	srvCfg.Source = ctrl

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(ctx); err != nil {
			logging.Error("Status server failed", zap.Error(err))
		}
	}()

	ctrl.Boot(ctx)
	err = ctrl.Run(ctx)
	switch {
	case errors.Is(err, controller.ErrRestartRequested):
		logging.Info("Restart requested, exiting for supervisor")
		return err
	case errors.Is(err, context.Canceled):
		logging.Info("Shutting down")
		return nil
	}
	return err
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}

	store, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	act := actuator.New(cfg.Endpoint)
	act.SetOffline(offline)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hw := panel.NewHardware()
	ctrl := controller.New(controller.Deps{
		Engine:   buttons.NewEngine(hw, buttons.NewPanel()),
		LEDs:     hw,
		Display:  hw,
		Sounder:  hw,
		Actuator: act,
		Encoder:  hw,
		Store:    store,
		Config:   cfg,
		Strict:   strict,
	})

	if listenAddr != "" {
		srv := server.New(&server.Config{
			Addr:   listenAddr,
			Source: ctrl,
			Cfg:    cfg,
			Sim:    act.Sim(),
		})
		go func() {
			if err := srv.Start(ctx); err != nil {
				logging.Error("Status server failed", zap.Error(err))
			}
		}()
	}

	prog := tea.NewProgram(panel.NewModel(hw, ctrl, act.Sim()), tea.WithAltScreen())

	go func() {
		ctrl.Boot(ctx)
		if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Info("Control loop ended", zap.Error(err))
		}
		prog.Quit()
	}()

	_, err = prog.Run()
	return err
}

func runDiscover(cmd *cobra.Command, args []string) error {
	scanner := discovery.NewScanner()
	scanner.Timeout = scanTimeout

	boxes, err := scanner.Scan(cmd.Context())
	if err != nil {
		return err
	}
	if len(boxes) == 0 {
		fmt.Println("No irrigation boxes found.")
		return nil
	}
	for _, box := range boxes {
		fmt.Println(box)
	}
	return nil
}
