package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"climate-api/internal/models"
	"climate-api/internal/services"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

const apiPrefix = "/api/v1.0"

// Messages for errors not raised by validation
const (
	msgDateRangeUnavailable = "Unable to retrieve date range from database."
	msgNotFound             = "The requested URL was not found on the server. If you entered the URL manually please check your spelling and try again."
	msgMethodNotAllowed     = "The method is not allowed for the requested URL."
)

// ClimateHandler handles the dataset API endpoints
type ClimateHandler struct {
	climateService *services.ClimateService
	statsService   *services.StatisticsService
	exampleStation string
	logger         *logging.StructuredLogger
	metrics        *metrics.Collector
}

// NewClimateHandler creates a new climate handler
func NewClimateHandler(
	climateService *services.ClimateService,
	statsService *services.StatisticsService,
	exampleStation string,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *ClimateHandler {
	return &ClimateHandler{
		climateService: climateService,
		statsService:   statsService,
		exampleStation: exampleStation,
		logger:         logger,
		metrics:        metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// GetMeasurements handles GET /api/v1.0/measurements
func (h *ClimateHandler) GetMeasurements(w http.ResponseWriter, r *http.Request) {
	measurements, err := h.climateService.GetMeasurements(r.Context())
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	h.sendJSON(w, measurements, http.StatusOK)
}

// GetStations handles GET /api/v1.0/stations
func (h *ClimateHandler) GetStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.climateService.GetStations(r.Context())
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	h.sendJSON(w, stations, http.StatusOK)
}

// GetMeasurementsWithStations handles GET /api/v1.0/measurements_Stations
func (h *ClimateHandler) GetMeasurementsWithStations(w http.ResponseWriter, r *http.Request) {
	rows, err := h.climateService.GetMeasurementsWithStations(r.Context())
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	h.sendJSON(w, rows, http.StatusOK)
}

// GetMeasurementsWithStationsInRange handles GET /api/v1.0/measurements_StationsInRange/{start}/{end}
func (h *ClimateHandler) GetMeasurementsWithStationsInRange(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	rows, err := h.climateService.GetMeasurementsWithStationsInRange(r.Context(), vars["start"], vars["end"])
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	h.sendJSON(w, rows, http.StatusOK)
}

// GetTemperatureStats handles GET /api/v1.0/temp_stats/{start}/{end}
func (h *ClimateHandler) GetTemperatureStats(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	stats, err := h.statsService.GetTemperatureStats(r.Context(), vars["start"], vars["end"])
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	h.sendJSON(w, stats, http.StatusOK)
}

// GetStationTemperatureStats handles GET /api/v1.0/temp_stats_station/{station}/{start}/{end}
func (h *ClimateHandler) GetStationTemperatureStats(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	stats, err := h.statsService.GetStationTemperatureStats(r.Context(), vars["station"], vars["start"], vars["end"])
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	h.sendJSON(w, stats, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *ClimateHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.climateService.HealthCheck(ctx); err != nil {
		h.logger.Error(ctx, "[HEALTH_CHECK_ERROR] Dataset store unreachable", logging.Fields{}, err)
		h.sendJSON(w, map[string]string{
			"status":    "unhealthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}, http.StatusServiceUnavailable)
		return
	}

	h.sendJSON(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// NotFound handles unmatched routes
func (h *ClimateHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.sendError(w, msgNotFound, http.StatusNotFound)
}

// MethodNotAllowed handles routes matched with the wrong method
func (h *ClimateHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.sendError(w, msgMethodNotAllowed, http.StatusMethodNotAllowed)
}

// sendServiceError maps a service error to 400 (validation) or 500 (retrieval)
func (h *ClimateHandler) sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	endpoint := routeTemplate(r)

	var verr *models.ValidationError
	if errors.As(err, &verr) {
		h.metrics.RecordAPIError("validation_error", endpoint)
		h.logger.Debug(ctx, "[API_VALIDATION_ERROR] Request rejected", logging.Fields{
			"endpoint": endpoint,
			"reason":   verr.Reason,
		})
		h.sendError(w, verr.Message, http.StatusBadRequest)
		return
	}

	h.metrics.RecordAPIError("internal_error", endpoint)
	h.logger.Error(ctx, "[API_RETRIEVAL_ERROR] Query failed", logging.Fields{
		"endpoint": endpoint,
	}, err)
	h.sendError(w, err.Error(), http.StatusInternalServerError)
}

// sendJSON sends a JSON response
func (h *ClimateHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn(context.Background(), "[API_ENCODE_ERROR] Failed to write response", logging.Fields{
			"error": err.Error(),
		})
	}
}

// sendError sends an error response
func (h *ClimateHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}, statusCode)
}

// routeTemplate returns the mux path template of the matched route
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// RegisterRoutes registers all dataset API routes
func (h *ClimateHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Index).Methods("GET")

	router.HandleFunc(apiPrefix+"/measurements", h.GetMeasurements).Methods("GET")
	router.HandleFunc(apiPrefix+"/stations", h.GetStations).Methods("GET")
	router.HandleFunc(apiPrefix+"/measurements_Stations", h.GetMeasurementsWithStations).Methods("GET")
	router.HandleFunc(apiPrefix+"/measurements_StationsInRange/{start}/{end}", h.GetMeasurementsWithStationsInRange).Methods("GET")
	router.HandleFunc(apiPrefix+"/temp_stats/{start}/{end}", h.GetTemperatureStats).Methods("GET")
	router.HandleFunc(apiPrefix+"/temp_stats_station/{station}/{start}/{end}", h.GetStationTemperatureStats).Methods("GET")

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc(openAPIPath, OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(h.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(h.MethodNotAllowed)
}
