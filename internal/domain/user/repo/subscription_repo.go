package repo

import (
	"context"

	"github.com/google/uuid"
)

// SubscriptionRepo reads the subscription edge relation. The account core
// never writes edges; it only aggregates them.
type SubscriptionRepo interface {
	CountSubscribers(ctx context.Context, channelID uuid.UUID) (int64, error)

	CountSubscribedTo(ctx context.Context, subscriberID uuid.UUID) (int64, error)

	IsSubscribed(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error)
}
