// Package cache provides short-lived caching for balance summaries.
//
// Balance reads dominate traffic while the underlying shares change rarely,
// so entries carry a small TTL and every ledger write invalidates the whole
// group. Staleness is bounded by the TTL even if an invalidation is lost.
package cache

import (
	"context"

	"github.com/billbuddy/billbuddy/internal/engine"
)

// BalanceCache caches computed balance summaries per group, member and
// direction. A cache miss or any backend error is reported as ok=false;
// callers fall back to recomputing.
type BalanceCache interface {
	Get(ctx context.Context, groupID, memberID string, dir engine.Direction) (*engine.BalanceSummary, bool)
	Set(ctx context.Context, groupID, memberID string, dir engine.Direction, summary *engine.BalanceSummary)

	// InvalidateGroup drops every cached summary for the group. Called after
	// any write that moves money inside it.
	InvalidateGroup(ctx context.Context, groupID string)

	Close() error
}

func entryField(memberID string, dir engine.Direction) string {
	return memberID + ":" + string(dir)
}
