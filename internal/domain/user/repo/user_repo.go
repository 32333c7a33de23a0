package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/streamforge/user-service/internal/domain/user/model"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) (uuid.UUID, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)

	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	GetUserByUsername(ctx context.Context, username string) (model.User, error)

	// UpdateFields patches the given columns only and returns the post-update
	// record. It must not touch the password hash.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (model.User, error)

	// SetRefreshToken overwrites the stored refresh token unconditionally.
	// An empty token clears the session.
	SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error

	// RotateRefreshToken swaps old for new only while the stored token still
	// equals old. Returns ErrStaleToken when another rotation won the race.
	RotateRefreshToken(ctx context.Context, id uuid.UUID, old, new string) error

	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}
