// Package chi implements the HTTP API surface.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/inferd/internal/domain"
	"github.com/kailas-cloud/inferd/internal/metrics"
)

// SchemaProvider serves the client-facing input schema.
type SchemaProvider interface {
	Schema() domain.Schema
}

// Predictor runs single-row inference.
type Predictor interface {
	PredictOne(ctx context.Context, row domain.FeatureRow) (domain.Prediction, error)
}

// TextParser extracts a feature row from free text. The second return
// value names the strategy that produced the row.
type TextParser interface {
	Parse(ctx context.Context, text string) (domain.FeatureRow, string)
}

// Pinger checks a dependency for the health endpoint. Optional.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the HTTP handlers for the prediction API.
type Server struct {
	schema    SchemaProvider
	predictor Predictor
	parser    TextParser
	cache     Pinger // nil when caching is disabled
	llm       Pinger // nil when the LLM extractor is disabled
	staticDir string // empty disables static serving
	logger    *zap.Logger
}

// NewServer creates an HTTP API server. cache and llm may be nil; staticDir
// may be empty.
func NewServer(
	schema SchemaProvider,
	predictor Predictor,
	parser TextParser,
	cache Pinger,
	llm Pinger,
	staticDir string,
	logger *zap.Logger,
) *Server {
	return &Server{
		schema:    schema,
		predictor: predictor,
		parser:    parser,
		cache:     cache,
		llm:       llm,
		staticDir: staticDir,
		logger:    logger,
	}
}

// Routes registers all endpoints on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/api/schema", s.GetSchema)
	r.Post("/api/predict", s.Predict)
	r.Post("/api/parse_text", s.ParseText)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	if s.staticDir != "" {
		fs := http.FileServer(http.Dir(s.staticDir))
		r.Handle("/*", fs)
	}
}

type schemaField struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Options []string `json:"options,omitempty"`
}

type schemaResponse struct {
	Fields []schemaField `json:"fields"`
	Note   string        `json:"note"`
}

// GetSchema handles GET /api/schema.
func (s *Server) GetSchema(w http.ResponseWriter, r *http.Request) {
	sch := s.schema.Schema()

	fields := make([]schemaField, len(sch.Fields))
	for i, f := range sch.Fields {
		fields[i] = schemaField{
			Name:    f.Name,
			Type:    string(f.Type),
			Options: f.Options,
		}
	}

	writeJSON(w, http.StatusOK, schemaResponse{Fields: fields, Note: sch.Note})
}

// predictRequest accepts both the wrapped {"features": {...}} form and a
// bare feature map.
type predictRequest struct {
	Features domain.FeatureRow `json:"features"`
}

type predictResponse struct {
	Prediction   any                `json:"prediction"`
	Proba        map[string]float64 `json:"proba,omitempty"`
	UsedFeatures []string           `json:"used_features"`
	ModelName    string             `json:"model_name"`
	Message      string             `json:"message"`
}

// Predict handles POST /api/predict.
func (s *Server) Predict(w http.ResponseWriter, r *http.Request) {
	row, err := decodeFeatureRow(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	start := time.Now()
	pred, err := s.predictor.PredictOne(r.Context(), row)
	if err != nil {
		s.handlePredictError(w, err)
		return
	}

	metrics.PredictionsTotal.WithLabelValues(pred.ModelName, "success").Inc()
	metrics.PredictionDuration.WithLabelValues(pred.ModelName).Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, predictResponse{
		Prediction:   pred.Label,
		Proba:        pred.Proba,
		UsedFeatures: pred.UsedFeatures,
		ModelName:    pred.ModelName,
		Message:      "OK",
	})
}

// decodeFeatureRow reads the request body as {"features": {...}} and falls
// back to a bare map of feature values.
func decodeFeatureRow(r *http.Request) (domain.FeatureRow, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}

	if wrapped, ok := raw["features"]; ok {
		var row domain.FeatureRow
		if err := json.Unmarshal(wrapped, &row); err == nil {
			return row, nil
		}
	}

	row := make(domain.FeatureRow, len(raw))
	for name, val := range raw {
		var v any
		if err := json.Unmarshal(val, &v); err != nil {
			return nil, err
		}
		row[name] = v
	}
	return row, nil
}

func (s *Server) handlePredictError(w http.ResponseWriter, err error) {
	metrics.PredictionsTotal.WithLabelValues("unknown", "error").Inc()

	// every failure carries its message in the detail field, the way the
	// frontend displays prediction errors
	switch {
	case errors.Is(err, domain.ErrNonNumeric), errors.Is(err, domain.ErrNonFinite):
		s.logger.Warn("prediction rejected", zap.Error(err))
	default:
		s.logger.Error("prediction failed", zap.Error(err))
	}
	writeDetail(w, http.StatusInternalServerError, err.Error())
}

type parseTextRequest struct {
	Text string `json:"text"`
}

type parseTextResponse struct {
	Features domain.FeatureRow `json:"features"`
	Message  string            `json:"message"`
}

// ParseText handles POST /api/parse_text. It never fails: an undecodable
// body is treated as empty text and yields the default feature row.
func (s *Server) ParseText(w http.ResponseWriter, r *http.Request) {
	var req parseTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Debug("unreadable parse_text body", zap.Error(err))
	}

	features, source := s.parser.Parse(r.Context(), req.Text)
	metrics.ParseRequestsTotal.WithLabelValues(source).Inc()

	writeJSON(w, http.StatusOK, parseTextResponse{
		Features: features,
		Message:  "Features generate dal testo con successo!",
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"model": "ok"}
	status := "healthy"

	if s.cache != nil {
		if err := s.cache.Ping(r.Context()); err != nil {
			checks["cache"] = "unavailable"
			status = "degraded"
		} else {
			checks["cache"] = "ok"
		}
	}

	if s.llm != nil {
		if err := s.llm.Ping(r.Context()); err != nil {
			checks["llm"] = "unavailable"
			status = "degraded"
		} else {
			checks["llm"] = "ok"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"checks": checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail writes the FastAPI-style {"detail": ...} error body the
// frontend expects.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
