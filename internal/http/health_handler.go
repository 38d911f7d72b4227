package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	name    string
	version string
	db      Pinger
	redis   Pinger // nil when disabled
	logger  *zap.Logger
}

func NewHealthHandler(name, version string, db, redis Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{name: name, version: version, db: db, redis: redis, logger: logger}
}

type serviceInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
}

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
	Time     string `json:"time"`
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		notFound(w)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, Ok(serviceInfo{Service: h.name, Version: h.version, Docs: "/api/v1"}))
}

// Health returns 503 when the database is unreachable. Redis is reported
// but does not fail the check.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	st := healthStatus{Status: "healthy", Database: "connected", Redis: "disabled", Time: time.Now().UTC().Format(time.RFC3339)}
	code := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("Database health check failed", zap.Error(err))
		st.Status = "unhealthy"
		st.Database = "disconnected"
		code = http.StatusServiceUnavailable
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			h.logger.Warn("Redis health check failed", zap.Error(err))
			st.Redis = "disconnected"
		} else {
			st.Redis = "connected"
		}
	}
	writeJSON(w, code, Ok(st))
}
