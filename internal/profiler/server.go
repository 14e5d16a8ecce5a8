// Package profiler serves pprof and a toast state snapshot over HTTP for
// debugging a running demo.
package profiler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/toast/internal/core/notify"
)

// ToastSource exposes the state served at /debug/toasts.
type ToastSource interface {
	SessionID() string
	List() ([]notify.Notification, error)
	History() ([]notify.Retired, error)
}

type Server struct {
	httpServer *http.Server
	listener   net.Listener
	port       int
	logger     zerolog.Logger
}

// Option configures a Server.
type Option func(*Server, *http.ServeMux)

// WithToasts serves src at /debug/toasts.
func WithToasts(src ToastSource) Option {
	return func(_ *Server, mux *http.ServeMux) {
		mux.Handle("/debug/toasts", toastsHandler(src))
	}
}

// WithLogger sets the server logger. Defaults to the global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server, _ *http.ServeMux) { s.logger = l }
}

// New creates a server listening on port once started. Port 0 picks a free
// port.
func New(port int, opts ...Option) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	s := &Server{
		httpServer: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		port:   port,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(s, mux)
	}
	return s
}

func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("localhost:%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	actualPort := listener.Addr().(*net.TCPAddr).Port
	s.logger.Info().Int("port", actualPort).Msg("starting debug server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("debug server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down debug server")
	return s.httpServer.Shutdown(ctx)
}

type toastJSON struct {
	ID          string      `json:"id"`
	Kind        notify.Kind `json:"kind"`
	Message     string      `json:"message"`
	Description string      `json:"description,omitempty"`
	Action      string      `json:"action,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
	Reason      string      `json:"reason,omitempty"`
}

func toJSON(n notify.Notification) toastJSON {
	out := toastJSON{
		ID:          n.ID,
		Kind:        n.Kind,
		Message:     n.Message,
		Description: n.Description,
		CreatedAt:   n.CreatedAt,
	}
	if n.Action != nil {
		out.Action = n.Action.Label
	}
	if !n.Persistent() {
		exp := n.ExpiresAt
		out.ExpiresAt = &exp
	}
	return out
}

func toastsHandler(src ToastSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		active, err := src.List()
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		retired, err := src.History()
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		body := struct {
			SessionID string      `json:"session_id"`
			Active    []toastJSON `json:"active"`
			History   []toastJSON `json:"history"`
		}{
			SessionID: src.SessionID(),
			Active:    make([]toastJSON, 0, len(active)),
			History:   make([]toastJSON, 0, len(retired)),
		}
		for _, n := range active {
			body.Active = append(body.Active, toJSON(n))
		}
		for _, r := range retired {
			item := toJSON(r.Notification)
			item.Reason = string(r.Reason)
			body.History = append(body.History, item)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
}
