package httpapi

import (
	"net/http"

	"github.com/Adrieliyo/risk-advisor-backend/internal/service"

	"go.uber.org/zap"
)

const alertsPrefix = "/api/v1/alerts"

type AlertHandler struct {
	alerts *service.AlertService
	logger *zap.Logger
}

func NewAlertHandler(alerts *service.AlertService, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{alerts: alerts, logger: logger}
}

func (h *AlertHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, alertsPrefix)
	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.ListAlerts(w, r)
		case http.MethodPost:
			h.CreateAlert(w, r)
		default:
			methodNotAllowed(w)
		}
	case 1:
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		if parts[0] == "recent" {
			h.RecentAlerts(w, r)
			return
		}
		h.GetAlert(w, r, parts[0])
	default:
		notFound(w)
	}
}

func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.alerts.ListAlerts(r.Context(), service.ListAlertsRequest{
		TripID: q.Get("trip_id"),
		Skip:   parseInt(q.Get("skip"), 0),
		Limit:  parseInt(q.Get("limit"), 0),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *AlertHandler) RecentAlerts(w http.ResponseWriter, r *http.Request) {
	list, err := h.alerts.RecentAlerts(r.Context(), parseInt(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *AlertHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req service.CreateAlertRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	a, err := h.alerts.CreateManualAlert(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(a))
}

func (h *AlertHandler) GetAlert(w http.ResponseWriter, r *http.Request, id string) {
	a, err := h.alerts.GetAlert(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}
