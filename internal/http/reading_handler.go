package httpapi

import (
	"net/http"

	"github.com/Adrieliyo/risk-advisor-backend/internal/service"

	"go.uber.org/zap"
)

const readingsPrefix = "/api/v1/readings"

type ReadingHandler struct {
	readings *service.ReadingService
	logger   *zap.Logger
}

func NewReadingHandler(readings *service.ReadingService, logger *zap.Logger) *ReadingHandler {
	return &ReadingHandler{readings: readings, logger: logger}
}

func (h *ReadingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, readingsPrefix)
	switch {
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.Ingest(w, r)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.GetReading(w, r, parts[0])
	case len(parts) <= 1:
		methodNotAllowed(w)
	default:
		notFound(w)
	}
}

// Ingest stores a reading and answers with the alerts it raised.
func (h *ReadingHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req service.IngestRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	res, err := h.readings.Ingest(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(res))
}

func (h *ReadingHandler) GetReading(w http.ResponseWriter, r *http.Request, id string) {
	reading, err := h.readings.GetReading(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(reading))
}
