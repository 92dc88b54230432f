package driven

import (
	"context"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

// ProviderChecker checks that configured model providers answer before the
// settings are relied on. Settings without a provider pass.
type ProviderChecker interface {
	CheckEmbedding(ctx context.Context, settings domain.EmbeddingSettings) error
	CheckLLM(ctx context.Context, settings domain.LLMSettings) error
}
