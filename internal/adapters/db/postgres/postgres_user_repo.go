package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"gorm.io/gorm"

	customErrors "github.com/streamforge/user-service/internal/domain/user/errors"
	"github.com/streamforge/user-service/internal/domain/user/model"
)

type PostgresUserRepo struct {
	db *gorm.DB
}

func NewPostgresUserRepo(db *gorm.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func (p *PostgresUserRepo) CreateUser(ctx context.Context, user model.User) (uuid.UUID, error) {
	res := p.db.WithContext(ctx).Create(&user)
	if err := res.Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, customErrors.ErrAlreadyExists
		}
		return uuid.Nil, customErrors.WrapInternal(err, "CreateUser")
	}
	return user.ID, nil
}

func (p *PostgresUserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return p.getOne(ctx, "id = ?", id)
}

func (p *PostgresUserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return p.getOne(ctx, "email = ?", email)
}

func (p *PostgresUserRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return p.getOne(ctx, "username = ?", username)
}

func (p *PostgresUserRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (model.User, error) {
	res := p.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if err := res.Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.User{}, customErrors.ErrAlreadyExists
		}
		return model.User{}, customErrors.WrapInternal(err, "UpdateFields")
	}
	if res.RowsAffected == 0 {
		return model.User{}, customErrors.ErrNotFound
	}

	return p.getOne(ctx, "id = ?", id)
}

func (p *PostgresUserRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Update("refresh_token", token)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "SetRefreshToken")
	}
	// zero rows is fine: clearing an unknown user's session is a no-op
	return nil
}

func (p *PostgresUserRepo) RotateRefreshToken(ctx context.Context, id uuid.UUID, oldToken, newToken string) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND refresh_token = ?", id, oldToken).
		Update("refresh_token", newToken)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "RotateRefreshToken")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrStaleToken
	}
	return nil
}

func (p *PostgresUserRepo) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Update("password_hash", hash)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "SetPasswordHash")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func (p *PostgresUserRepo) getOne(ctx context.Context, query string, arg any) (model.User, error) {
	var u model.User
	res := p.db.WithContext(ctx).Where(query, arg).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "GetUser")
	}

	return u, nil
}
