package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// StatusHandler serves liveness and connection counters for a [Server].
type StatusHandler struct {
	server  *Server
	started time.Time
}

// NewStatusHandler creates a StatusHandler reporting on s.
func NewStatusHandler(s *Server) *StatusHandler {
	return &StatusHandler{server: s, started: time.Now()}
}

// Routes returns the HTTP routes this handler serves.
func (h *StatusHandler) Routes() []string {
	return []string{"/healthz", "/stats"}
}

// ServeHTTP writes "ok" for /healthz and a JSON [StatsSnapshot] for /stats.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/healthz":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	case "/stats":
		body := struct {
			StatsSnapshot
			Uptime string `json:"uptime"`
		}{
			StatsSnapshot: h.server.Stats(),
			Uptime:        time.Since(h.started).Truncate(time.Second).String(),
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			http.Error(w, "failed to encode stats", http.StatusInternalServerError)
		}
	default:
		http.NotFound(w, r)
	}
}

// NewStatusServer builds the HTTP server for the status surface on addr.
func NewStatusServer(addr string, s *Server, logger *log.Logger) *http.Server {
	router := NewBasicRouter()
	router.Use(LoggingMiddleware(logger))
	router.Handler(NewStatusHandler(s))

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
