package subscription

import (
	"context"
)

// Repository defines the storage operations the deactivation job needs.
type Repository interface {
	// ListBounceGroups returns per (address, reason) counts of non-deactivated
	// bounces for active subscriptions, restricted to the given reasons.
	ListBounceGroups(ctx context.Context, reasons []string) ([]BounceGroup, error)
	// Deactivate sets the subscriptions to StatusBounce and flags all of their
	// bounce records as deactivated.
	Deactivate(ctx context.Context, addresses []string) error
}
