package httpapi

import (
	"net/http"

	"github.com/Adrieliyo/risk-advisor-backend/internal/service"

	"go.uber.org/zap"
)

const driversPrefix = "/api/v1/drivers"

type DriverHandler struct {
	drivers *service.DriverService
	trips   *service.TripService
	logger  *zap.Logger
}

func NewDriverHandler(drivers *service.DriverService, trips *service.TripService, logger *zap.Logger) *DriverHandler {
	return &DriverHandler{drivers: drivers, trips: trips, logger: logger}
}

func (h *DriverHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, driversPrefix)
	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.ListDrivers(w, r)
		case http.MethodPost:
			h.CreateDriver(w, r)
		default:
			methodNotAllowed(w)
		}
	case 1:
		switch r.Method {
		case http.MethodGet:
			h.GetDriver(w, r, parts[0])
		case http.MethodPut:
			h.UpdateDriver(w, r, parts[0])
		case http.MethodDelete:
			h.DeleteDriver(w, r, parts[0])
		default:
			methodNotAllowed(w)
		}
	case 2:
		if parts[1] != "active-trip" {
			notFound(w)
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.ActiveTrip(w, r, parts[0])
	default:
		notFound(w)
	}
}

func (h *DriverHandler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	drivers, err := h.drivers.ListDrivers(r.Context(), service.ListDriversRequest{
		Active: parseBoolPtr(q.Get("active")),
		Skip:   parseInt(q.Get("skip"), 0),
		Limit:  parseInt(q.Get("limit"), 0),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(drivers))
}

func (h *DriverHandler) CreateDriver(w http.ResponseWriter, r *http.Request) {
	var req service.CreateDriverRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	d, err := h.drivers.CreateDriver(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(d))
}

func (h *DriverHandler) GetDriver(w http.ResponseWriter, r *http.Request, id string) {
	d, err := h.drivers.GetDriver(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(d))
}

func (h *DriverHandler) UpdateDriver(w http.ResponseWriter, r *http.Request, id string) {
	var req service.UpdateDriverRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	d, err := h.drivers.UpdateDriver(r.Context(), id, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(d))
}

func (h *DriverHandler) DeleteDriver(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.drivers.DeleteDriver(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"driver_id": id}))
}

// ActiveTrip answers with a null result when the driver has no open trip.
func (h *DriverHandler) ActiveTrip(w http.ResponseWriter, r *http.Request, id string) {
	t, err := h.trips.ActiveTrip(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(t))
}
