package portal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"flow-settings/pkg/metrics"
)

// Requests per minute a single client may make
const defaultRequestLimit = 120

// WebServer serves the remote settings page and its JSON API
type WebServer struct {
	server    *http.Server
	isRunning bool
	mu        sync.RWMutex
	ip        string
	port      int
	store     Store
	log       *zap.Logger
	limit     int
}

// NewWebServer creates a web server bound to ip:port
func NewWebServer(ip string, port int, store Store, log *zap.Logger) *WebServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebServer{
		ip:    ip,
		port:  port,
		store: store,
		log:   log,
		limit: defaultRequestLimit,
	}
}

// Handler builds the router
func (ws *WebServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(ws.countRequests)
	r.Use(httprate.Limit(
		ws.limit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "too many requests")
		}),
	))

	r.Get("/", ws.handleRoot)
	r.Get("/healthz", ws.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/api/settings", func(r chi.Router) {
		r.Get("/", ws.handleGetSettings)
		r.Put("/{key}", ws.handlePutSetting)
	})
	return r
}

// unmatchedRoute labels requests that hit no route
const unmatchedRoute = "unmatched"

// countRequests records every response by route pattern
func (ws *WebServer) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// Client-chosen paths must not become label values
		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordPortalRequest(route, status)
	})
}

// Start starts the HTTP server in the background
func (ws *WebServer) Start() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.isRunning {
		return fmt.Errorf("web server already running")
	}

	addr := net.JoinHostPort(ws.ip, strconv.Itoa(ws.port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	ws.server = &http.Server{
		Addr:         addr,
		Handler:      ws.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	ws.isRunning = true

	go func() {
		ws.log.Info("Starting settings portal", zap.String("addr", addr))
		if err := ws.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ws.log.Error("Portal server error", zap.Error(err))
			ws.mu.Lock()
			ws.isRunning = false
			ws.mu.Unlock()
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server
func (ws *WebServer) Stop() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if !ws.isRunning {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown web server: %w", err)
	}

	ws.isRunning = false
	ws.log.Info("Settings portal stopped")
	return nil
}

// IsRunning returns whether the server is currently running
func (ws *WebServer) IsRunning() bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.isRunning
}
