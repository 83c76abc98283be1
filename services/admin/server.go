// Package admin serves a small local HTTP API for inspecting and driving
// the panel: device status, a screenshot of the last flushed frame, and
// the same actions the on-screen buttons publish.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hwpanel-go/bus"
	"hwpanel-go/types"
)

const DefaultAddress = "127.0.0.1:8788"

// Publisher is the part of the bus the server drives.
type Publisher interface {
	Publish(a bus.Action)
}

// Snapshotter renders the current frame as PNG.
type Snapshotter interface {
	WritePNG(w io.Writer) error
}

// Options configures the HTTP server.
type Options struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration
}

type Server struct {
	log    zerolog.Logger
	opts   Options
	status func() Status
	pub    Publisher
	shot   Snapshotter // nil when the panel has no framebuffer

	http *http.Server

	mu   sync.Mutex
	addr net.Addr
}

// NewServer builds the server. It does not listen until Start.
func NewServer(log zerolog.Logger, opts Options, status func() Status, pub Publisher, shot Snapshotter) *Server {
	if status == nil {
		panic("admin.NewServer: status is nil")
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddress
	}
	if opts.ReadHeaderTimeout == 0 {
		opts.ReadHeaderTimeout = 2 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 3 * time.Second
	}

	s := &Server{log: log, opts: opts, status: status, pub: pub, shot: shot}
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
	}
	return s
}

// Handler returns the routed API with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/screenshot.png", s.handleScreenshot)
	mux.HandleFunc("POST /api/screen/{id}", s.handleScreen)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	return withLogging(mux, s.log)
}

// Start binds the listener and serves in the background until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("admin server listening")
	go func() {
		if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("admin server stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		_ = s.http.Shutdown(sctx)
	}()
	return nil
}

// Addr is the bound address once Start has succeeded.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.status()
	st.Timestamp = TimeNow().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	if s.shot == nil {
		writeError(w, http.StatusNotImplemented, "no framebuffer on this device")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.shot.WritePNG(w); err != nil {
		s.log.Warn().Err(err).Msg("screenshot failed")
	}
}

var screenActions = map[types.ScreenID]bus.Action{
	types.ScreenBoot:     bus.ActionShowBoot,
	types.ScreenMain:     bus.ActionShowMain,
	types.ScreenSettings: bus.ActionShowSettings,
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	id := types.ParseScreenID(r.PathValue("id"))
	a, ok := screenActions[id]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown screen")
		return
	}
	s.publish(a)
	writeJSON(w, http.StatusAccepted, ActionResponse{Action: a.String()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	// Respond before publishing: reset cancels the process context.
	writeJSON(w, http.StatusAccepted, ActionResponse{Action: bus.ActionResetDevice.String()})
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	s.publish(bus.ActionResetDevice)
}

func (s *Server) publish(a bus.Action) {
	if s.pub == nil {
		return
	}
	s.log.Info().Stringer("action", a).Msg("admin action")
	s.pub.Publish(a)
}

func withLogging(next http.Handler, log zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := TimeNow()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("took", time.Since(start)).
			Msg("admin request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIError{Error: msg, Timestamp: TimeNow().UTC().Format(time.RFC3339)})
}
