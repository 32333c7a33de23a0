package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/streamforge/user-service/internal/domain/user/model"
)

// ProfileCache is a short-TTL cache for channel profiles. A miss is
// (zero value, false, nil); cache errors never fail the read path.
type ProfileCache interface {
	Get(ctx context.Context, username string, viewerID uuid.UUID) (model.ChannelProfile, bool, error)

	Set(ctx context.Context, username string, viewerID uuid.UUID, p model.ChannelProfile) error
}
