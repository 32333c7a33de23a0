package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/streamforge/user-service/internal/domain/user/model"
)

type VideoRepo interface {
	// ListWatchHistory returns the user's watched videos in original watch
	// order, each with its owner summary resolved. Entries whose owner was
	// deleted come back with an empty summary, never an error.
	ListWatchHistory(ctx context.Context, userID uuid.UUID) ([]model.HistoryEntry, error)

	// AppendWatchHistory records a view at the end of the user's history.
	// Re-watching an already listed video keeps its original position.
	AppendWatchHistory(ctx context.Context, userID, videoID uuid.UUID) error
}
