package contract

import (
	"context"

	"dashboard-assistant-be/pkg/knowledge/engine"
)

// ContextCache holds recently gathered chat context per owner and query.
// It is bounded and entries expire; a miss is never an error.
type ContextCache interface {
	Get(ctx context.Context, owner, key string) (*engine.SearchResult, bool)
	Set(ctx context.Context, owner, key string, result *engine.SearchResult)
	// InvalidateOwner drops every entry of one owner
	InvalidateOwner(ctx context.Context, owner string)
}
