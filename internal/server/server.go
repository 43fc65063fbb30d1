package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/actuator"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/config"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/controller"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/logging"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/version"
)

const shutdownTimeout = 5 * time.Second

// StatusSource provides point-in-time controller state.
type StatusSource interface {
	Snapshot() controller.Snapshot
}

// Config holds the status server configuration.
type Config struct {
	Addr        string // listen address, e.g. ":8089"
	ServiceName string // mDNS instance name, empty disables the announce
	Source      StatusSource
	Cfg         *config.Config
	Sim         *actuator.SimFlags // nil disables POST /api/simulate
	Reload      func() error       // nil disables POST /api/config/reload
}

// Server is the box's HTTP surface.
type Server struct {
	config  *Config
	hub     *Hub
	metrics *Metrics
	httpSrv *http.Server
	mdns    *zeroconf.Server
}

// New assembles the server. Start must be called to listen.
func New(cfg *Config) *Server {
	s := &Server{
		config:  cfg,
		hub:     NewHub(),
		metrics: NewMetrics(prometheus.NewRegistry()),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/config", s.handleConfig)
	mux.HandleFunc("POST /api/config/reload", s.handleReload)
	mux.HandleFunc("POST /api/simulate", s.handleSimulate)
	mux.HandleFunc("GET /ws", s.hub.handleUpgrade)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	s.httpSrv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Observer returns the observer fan-out the daemon wires into the
// controller: websocket broadcast plus metrics.
func (s *Server) Observer() controller.Observer {
	return controller.MultiObserver{s.hub, s.metrics}
}

// Start listens, announces the service over mDNS and serves until the
// context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Addr, err)
	}
	logging.Info("Status server listening", zap.String("addr", s.config.Addr))

	if s.config.ServiceName != "" {
		s.announce(listener.Addr())
	}

	go s.hub.Run(ctx)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpSrv.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) announce(addr net.Addr) {
	port := 80
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = tcp.Port
	}
	mdns, err := zeroconf.Register(
		s.config.ServiceName,
		"_http._tcp",
		"local.",
		port,
		[]string{"path=/api/status", "version=" + version.Version},
		nil,
	)
	if err != nil {
		logging.Warn("mDNS announce failed", zap.Error(err))
		return
	}
	s.mdns = mdns
	logging.Info("Service announced over mDNS",
		zap.String("instance", s.config.ServiceName),
		zap.Int("port", port),
	)
}

// Shutdown stops the announce and drains the HTTP server.
func (s *Server) Shutdown() error {
	if s.mdns != nil {
		s.mdns.Shutdown()
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.config.Source.Snapshot())
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.config.Cfg)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.config.Reload == nil {
		http.Error(w, "reload not available", http.StatusNotImplemented)
		return
	}
	if err := s.config.Reload(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSimulate sets the simulated-fault flags. Development only; the
// daemon leaves Sim nil in normal operation.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if s.config.Sim == nil {
		http.Error(w, "simulation not enabled", http.StatusNotImplemented)
		return
	}
	var flags actuator.SimFlags
	if err := json.NewDecoder(r.Body).Decode(&flags); err != nil {
		http.Error(w, "bad flags: "+err.Error(), http.StatusBadRequest)
		return
	}
	*s.config.Sim = flags
	logging.Warn("Simulated fault flags set",
		zap.Bool("fail_on", flags.FailOn),
		zap.Bool("fail_off", flags.FailOff),
		zap.Bool("verify_on_mismatch", flags.VerifyOnMismatch),
		zap.Bool("verify_off_mismatch", flags.VerifyOffMismatch),
		zap.Bool("pause_resume_error", flags.PauseResumeError),
	)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Response encode failed", zap.Error(err))
	}
}

// ParsePort extracts the port from a listen address for display purposes.
func ParsePort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	port, _ := strconv.Atoi(portStr)
	return port
}
