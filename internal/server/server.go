package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ironsheep/fra-claim-ocr/internal/metrics"
	"github.com/ironsheep/fra-claim-ocr/internal/pipeline"
	"github.com/ironsheep/fra-claim-ocr/internal/version"
)

// defaultMaxUpload bounds a request body when no limit is configured.
const defaultMaxUpload = 32 << 20

// Processor runs documents through the extraction pipeline.
type Processor interface {
	Process(ctx context.Context, doc pipeline.Document) pipeline.ExtractionResult
	ProcessBatch(ctx context.Context, docs []pipeline.Document) ([]pipeline.BatchItem, error)
}

// Capabilities records which optional backends were found at start-up.
type Capabilities struct {
	OCREngine bool
	NERModel  bool
}

// Server is the HTTP surface of the service.
type Server struct {
	pipeline  Processor
	caps      Capabilities
	maxUpload int64
	tempDir   string
	logger    *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUpload limits the request body size in bytes.
func WithMaxUpload(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithTempDir stages uploads under dir instead of os.TempDir.
func WithTempDir(dir string) Option {
	return func(s *Server) { s.tempDir = dir }
}

// New creates a server.
func New(p Processor, caps Capabilities, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		pipeline:  p,
		caps:      caps,
		maxUpload: defaultMaxUpload,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the router with the full middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(corsMiddleware)
	r.Use(metrics.Middleware())

	r.Get("/", s.handleHealth)
	r.Get("/health", s.handleHealth)
	r.Post("/ocr", s.handleOCR)
	r.Post("/ocr/batch", s.handleBatch)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// HealthResponse is the body of GET / and GET /health.
type HealthResponse struct {
	Status             string `json:"status"`
	OCREngineAvailable bool   `json:"ocr_engine_available"`
	NERModelAvailable  bool   `json:"ner_model_available"`
	Version            string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:             "healthy",
		OCREngineAvailable: s.caps.OCREngine,
		NERModelAvailable:  s.caps.NERModel,
		Version:            version.Version,
	})
}
