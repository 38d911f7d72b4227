package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router wraps http.ServeMux. Sub-paths are dispatched by the handlers.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) RegisterHealthRoutes(h *HealthHandler) {
	r.Handle("/", h.Root)
	r.Handle("/health", h.Health)
}

func (r *Router) RegisterDriverRoutes(h *DriverHandler) {
	r.HandleHandler("/api/v1/drivers", h)
	r.HandleHandler("/api/v1/drivers/", h)
}

func (r *Router) RegisterTripRoutes(h *TripHandler) {
	r.HandleHandler("/api/v1/trips", h)
	r.HandleHandler("/api/v1/trips/", h)
}

func (r *Router) RegisterReadingRoutes(h *ReadingHandler) {
	r.HandleHandler("/api/v1/readings", h)
	r.HandleHandler("/api/v1/readings/", h)
}

func (r *Router) RegisterAlertRoutes(h *AlertHandler) {
	r.HandleHandler("/api/v1/alerts", h)
	r.HandleHandler("/api/v1/alerts/", h)
}

// RegisterLiveRoutes mounts the websocket alert feed.
func (r *Router) RegisterLiveRoutes(ws http.HandlerFunc) {
	r.Handle("/ws/alerts", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		ws(w, req)
	})
}
