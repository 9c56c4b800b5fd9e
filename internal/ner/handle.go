package ner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// probeTimeout bounds the start-up availability check.
const probeTimeout = 10 * time.Second

// Config selects the model provider.
type Config struct {
	Provider  string // openai or none
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	SkipProbe bool
}

// Handle owns the process-wide recognizer. The first call to Recognizer
// attempts the load; the outcome, available or not, is kept for the process
// lifetime and shared read-only by every request.
type Handle struct {
	cfg    Config
	logger *zap.Logger

	once sync.Once
	rec  Recognizer
}

// NewHandle creates an unloaded handle.
func NewHandle(cfg Config, logger *zap.Logger) *Handle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handle{cfg: cfg, logger: logger}
}

// Recognizer returns the loaded recognizer, loading it on first use.
func (h *Handle) Recognizer(ctx context.Context) Recognizer {
	h.once.Do(func() {
		h.rec = h.load(ctx)
		if u, ok := h.rec.(unavailable); ok {
			h.logger.Warn("ner model unavailable, regex extraction only",
				zap.String("provider", h.cfg.Provider),
				zap.String("reason", u.Reason()),
			)
			return
		}
		h.logger.Info("ner model loaded",
			zap.String("provider", h.rec.Name()),
			zap.String("model", h.cfg.Model),
		)
	})
	return h.rec
}

func (h *Handle) load(ctx context.Context) Recognizer {
	switch h.cfg.Provider {
	case "openai":
	case "", "none":
		return Unavailable("disabled by configuration")
	default:
		return Unavailable("unknown provider " + h.cfg.Provider)
	}

	if h.cfg.APIKey == "" {
		return Unavailable("api key not configured")
	}

	rec := NewOpenAIRecognizer(OpenAIConfig{
		APIKey:  h.cfg.APIKey,
		BaseURL: h.cfg.BaseURL,
		Model:   h.cfg.Model,
		Timeout: h.cfg.Timeout,
		Logger:  h.logger,
	})
	if h.cfg.SkipProbe {
		return rec
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := rec.HealthCheck(probeCtx); err != nil {
		return Unavailable(err.Error())
	}
	return rec
}
