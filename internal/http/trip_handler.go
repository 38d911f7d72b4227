package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Adrieliyo/risk-advisor-backend/internal/service"

	"go.uber.org/zap"
)

const tripsPrefix = "/api/v1/trips"

type TripHandler struct {
	trips    *service.TripService
	readings *service.ReadingService
	logger   *zap.Logger
}

func NewTripHandler(trips *service.TripService, readings *service.ReadingService, logger *zap.Logger) *TripHandler {
	return &TripHandler{trips: trips, readings: readings, logger: logger}
}

type startTripRequest struct {
	DriverID string `json:"driver_id"`
}

type finalizeTripRequest struct {
	EndedAt *time.Time `json:"ended_at"`
}

func (h *TripHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, tripsPrefix)
	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.ListTrips(w, r)
		case http.MethodPost:
			h.StartTrip(w, r)
		default:
			methodNotAllowed(w)
		}
	case 1:
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.GetTrip(w, r, parts[0])
	case 2:
		id := parts[0]
		want := http.MethodGet
		var fn func(http.ResponseWriter, *http.Request, string)
		switch parts[1] {
		case "finalize":
			want, fn = http.MethodPut, h.FinalizeTrip
		case "statistics":
			fn = h.Statistics
		case "latest":
			fn = h.LatestReading
		case "readings":
			fn = h.ListReadings
		case "report":
			fn = h.ExportReport
		default:
			notFound(w)
			return
		}
		if r.Method != want {
			methodNotAllowed(w)
			return
		}
		fn(w, r, id)
	default:
		notFound(w)
	}
}

func (h *TripHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	trips, err := h.trips.ListTrips(r.Context(), service.ListTripsRequest{
		DriverID: q.Get("driver_id"),
		Skip:     parseInt(q.Get("skip"), 0),
		Limit:    parseInt(q.Get("limit"), 0),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(trips))
}

func (h *TripHandler) StartTrip(w http.ResponseWriter, r *http.Request) {
	var req startTripRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	trip, err := h.trips.StartTrip(r.Context(), req.DriverID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(trip))
}

func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request, id string) {
	detail, err := h.trips.GetTripDetail(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(detail))
}

// FinalizeTrip accepts an optional body; without ended_at the trip closes now.
func (h *TripHandler) FinalizeTrip(w http.ResponseWriter, r *http.Request, id string) {
	var req finalizeTripRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	trip, err := h.trips.FinalizeTrip(r.Context(), id, req.EndedAt)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(trip))
}

func (h *TripHandler) Statistics(w http.ResponseWriter, r *http.Request, id string) {
	summary, err := h.trips.Statistics(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(summary))
}

func (h *TripHandler) LatestReading(w http.ResponseWriter, r *http.Request, id string) {
	reading, err := h.trips.LatestReading(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(reading))
}

func (h *TripHandler) ListReadings(w http.ResponseWriter, r *http.Request, id string) {
	q := r.URL.Query()
	list, err := h.readings.ListReadings(r.Context(), id, parseInt(q.Get("skip"), 0), parseInt(q.Get("limit"), 0))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

// ExportReport streams the trip report as an xlsx workbook.
func (h *TripHandler) ExportReport(w http.ResponseWriter, r *http.Request, id string) {
	report, err := h.trips.Report(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	data, err := buildTripReportExcel(report)
	if err != nil {
		h.logger.Error("Failed to build trip report", zap.String("trip_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to build report"))
		return
	}
	filename := fmt.Sprintf("trip_%s_%s.xlsx", id, time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("Failed to write trip report", zap.String("trip_id", id), zap.Error(err))
	}
}
