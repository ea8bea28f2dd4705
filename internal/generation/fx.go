package generation

import (
	"github.com/smallbiznis/scoutbase/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("generation",
	fx.Provide(NewGenerator),
)

// NewGenerator picks the OpenAI client when an API key is configured
// and the deterministic template renderer otherwise.
func NewGenerator(cfg config.Config, log *zap.Logger) Generator {
	if cfg.OpenAIAPIKey == "" {
		log.Warn("no generation api key configured, using template fallback")
		return NewTemplateGenerator()
	}
	log.Info("generation client configured", zap.String("model", cfg.ScoutModel))
	return NewOpenAIClient(cfg.OpenAIAPIKey,
		WithBaseURL(cfg.OpenAIBaseURL),
		WithModel(cfg.ScoutModel),
	)
}
