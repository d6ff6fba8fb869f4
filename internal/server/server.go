// Package server exposes the prediction service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ivy-predictor/internal/common"
	"ivy-predictor/internal/features"
	"ivy-predictor/internal/metrics"
	"ivy-predictor/internal/ml"
	"ivy-predictor/internal/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// History persists served predictions.
type History interface {
	StorePrediction(rec storage.PredictionRecord) (storage.PredictionRecord, error)
	RecentPredictions(limit int) ([]storage.PredictionRecord, error)
}

// Options configures New. History and Metrics may be nil.
type Options struct {
	Port    int
	History History
	Metrics *metrics.MetricsWrapper
}

// Server provides the HTTP API for admission predictions
type Server struct {
	predictor ml.PredictorInterface
	history   History
	metrics   *metrics.MetricsWrapper
	handler   http.Handler
	server    *http.Server
}

// PredictResponse is the body returned by /predict.
type PredictResponse struct {
	Preds []ml.Result `json:"preds"`
}

// HealthResponse is the body returned by /health.
type HealthResponse struct {
	Status      string     `json:"status"`
	Features    int        `json:"features"`
	CatalogSize int        `json:"catalog_size"`
	TrainedAt   *time.Time `json:"trained_at,omitempty"`
}

// New creates the HTTP server. The handler is ready to use; Start binds the
// port.
func New(predictor ml.PredictorInterface, opts Options) *Server {
	s := &Server{
		predictor: predictor,
		history:   opts.History,
		metrics:   opts.Metrics,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/model/info", s.handleModelInfo)
	mux.HandleFunc("/predictions/recent", s.handleRecent)

	var h http.Handler = mux
	if s.metrics != nil {
		h = promhttp.InstrumentHandlerCounter(s.metrics.HTTPRequests(), h)
	}
	s.handler = withRequestID(withLogging(h))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: common.ReadHeaderTimeout,
		ReadTimeout:       common.ReadTimeout,
		WriteTimeout:      common.WriteTimeout,
		IdleTimeout:       common.IdleTimeout,
	}

	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving HTTP requests. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("Starting prediction server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !allowGet(w, r) {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(common.WelcomeMessage))
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	logger := zerolog.Ctx(r.Context())

	vector, err := parseVector(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := s.predictor.Predict(vector)
	switch {
	case err == nil:
	case errors.Is(err, ml.ErrMalformedVector):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ml.ErrClassifierNotReady):
		logger.Error().Err(err).Msg("Prediction requested before the classifier was trained")
		http.Error(w, "classifier not ready", http.StatusServiceUnavailable)
		return
	default:
		logger.Error().Err(err).Msg("Prediction failed")
		http.Error(w, "prediction failed", http.StatusInternalServerError)
		return
	}

	s.record(r.Context(), vector, results)
	writeJSON(w, r, http.StatusOK, PredictResponse{Preds: results})
}

// parseVector reads every predictor from the query string, in column order.
func parseVector(r *http.Request) ([]float64, error) {
	q := r.URL.Query()
	vector := make([]float64, len(features.PredictorColumns))
	for i, name := range features.PredictorColumns {
		raw := q.Get(name)
		if raw == "" {
			return nil, fmt.Errorf("missing query parameter %q", name)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("query parameter %q is not a number: %q", name, raw)
		}
		vector[i] = v
	}
	return vector, nil
}

func (s *Server) record(ctx context.Context, vector []float64, results []ml.Result) {
	if s.history == nil {
		return
	}
	rec := storage.PredictionRecord{
		ID:       requestIDFrom(ctx),
		Vector:   make(map[string]float64, len(vector)),
		Colleges: len(results),
	}
	for i, name := range features.PredictorColumns {
		rec.Vector[name] = vector[i]
	}
	if len(results) > 0 {
		rec.Probability = results[0].Prob
	}

	if _, err := s.history.StorePrediction(rec); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to record prediction")
		if s.metrics != nil {
			s.metrics.HistoryErrorsInc()
		}
		return
	}
	if s.metrics != nil {
		s.metrics.HistoryWritesInc()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	health := HealthResponse{Status: "ok", CatalogSize: s.predictor.CatalogSize()}
	status := http.StatusOK
	if info, err := s.predictor.Info(); err == nil {
		health.Features = len(info.Columns)
		trainedAt := info.TrainedAt
		health.TrainedAt = &trainedAt
	} else {
		health.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, r, status, health)
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	info, err := s.predictor.Info()
	if err != nil {
		http.Error(w, "classifier not ready", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, r, http.StatusOK, info)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	if s.history == nil {
		http.Error(w, "prediction history is disabled", http.StatusNotFound)
		return
	}

	limit := common.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, fmt.Sprintf("invalid limit %q", raw), http.StatusBadRequest)
			return
		}
		limit = min(n, common.MaxHistoryLimit)
	}

	records, err := s.history.RecentPredictions(limit)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to read prediction history")
		http.Error(w, "failed to read prediction history", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []storage.PredictionRecord{}
	}
	writeJSON(w, r, http.StatusOK, records)
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Failed to write response")
	}
}
