package knowledge

import "context"

// SourceAdapter is the uniform query contract over one domain collection.
// Implementations bound their own result count and must be safe for
// concurrent use. An error is local to the adapter; callers substitute an
// empty result.
type SourceAdapter interface {
	Type() SourceType
	Search(ctx context.Context, queryText string, filter *Filter) ([]CandidateItem, error)
}

// Generator turns a context bundle and the conversation into reply text.
// It is the single pluggable hand-off to whatever model provider is
// configured; the core never talks to a provider directly.
type Generator interface {
	Generate(ctx context.Context, bundle *ContextBundle, history []Turn, userQuery string) (string, error)
}
