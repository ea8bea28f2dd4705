package embedding

import (
	"github.com/smallbiznis/scoutbase/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("embedding",
	fx.Provide(NewEmbedder),
)

// NewEmbedder picks the OpenAI client when an API key is configured and
// falls back to the deterministic hashing embedder otherwise.
func NewEmbedder(cfg config.Config, log *zap.Logger) Embedder {
	if cfg.OpenAIAPIKey == "" {
		log.Warn("no embedding api key configured, using hashing fallback")
		return NewHashingEmbedder()
	}
	log.Info("embedding client configured", zap.String("model", cfg.EmbeddingModel))
	return NewOpenAIClient(cfg.OpenAIAPIKey,
		WithBaseURL(cfg.OpenAIBaseURL),
		WithModel(cfg.EmbeddingModel),
	)
}
