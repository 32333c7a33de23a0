package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	customErrors "github.com/streamforge/user-service/internal/domain/user/errors"
	"github.com/streamforge/user-service/internal/domain/user/model"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Video{}, &model.Subscription{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// watch_history is not a gorm model; mirror the migration's shape
	if err := db.Exec(`CREATE TABLE watch_history (
		user_id  TEXT NOT NULL,
		video_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (user_id, video_id))`).Error; err != nil {
		t.Fatalf("create watch_history: %v", err)
	}
	return db
}

func seedUser(t *testing.T, repo *PostgresUserRepo, username, email string) model.User {
	t.Helper()
	user := model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		FullName:     "Full " + username,
		PasswordHash: "h",
		Avatar:       "http://cdn/" + username + ".png",
		CreatedAt:    time.Now(),
	}
	if _, err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create %s: %v", username, err)
	}
	return user
}

func TestPostgresUserRepo_CRUD(t *testing.T) {
	repo := NewPostgresUserRepo(setupDB(t))
	ctx := context.Background()
	user := seedUser(t, repo, "alice", "alice@example.com")

	got, err := repo.GetUserByID(ctx, user.ID)
	if err != nil || got.Email != user.Email {
		t.Fatalf("get by id: %v", err)
	}
	got, err = repo.GetUserByEmail(ctx, user.Email)
	if err != nil || got.ID != user.ID {
		t.Fatalf("get by email: %v", err)
	}
	got, err = repo.GetUserByUsername(ctx, user.Username)
	if err != nil || got.ID != user.ID {
		t.Fatalf("get by username: %v", err)
	}
	if _, err := repo.GetUserByUsername(ctx, "ghost"); !customErrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	got, err = repo.UpdateFields(ctx, user.ID, map[string]any{"full_name": "Alice B"})
	if err != nil {
		t.Fatalf("update fields: %v", err)
	}
	if got.FullName != "Alice B" || got.PasswordHash != "h" {
		t.Fatalf("patch must touch only the given columns: %+v", got)
	}
	if _, err := repo.UpdateFields(ctx, uuid.New(), map[string]any{"full_name": "x"}); !customErrors.IsNotFound(err) {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}

	if err := repo.SetPasswordHash(ctx, user.ID, "h2"); err != nil {
		t.Fatalf("set password hash: %v", err)
	}
	got, _ = repo.GetUserByID(ctx, user.ID)
	if got.PasswordHash != "h2" {
		t.Fatalf("hash not persisted: %q", got.PasswordHash)
	}
	if err := repo.SetPasswordHash(ctx, uuid.New(), "h3"); !customErrors.IsNotFound(err) {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}
}

func TestPostgresUserRepo_RotateRefreshToken(t *testing.T) {
	repo := NewPostgresUserRepo(setupDB(t))
	ctx := context.Background()
	user := seedUser(t, repo, "alice", "alice@example.com")

	if err := repo.SetRefreshToken(ctx, user.ID, "t1"); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}
	if err := repo.RotateRefreshToken(ctx, user.ID, "t1", "t2"); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	got, _ := repo.GetUserByID(ctx, user.ID)
	if got.RefreshToken != "t2" {
		t.Fatalf("want t2 stored, got %q", got.RefreshToken)
	}

	// the loser of a concurrent rotation presents the already-swapped token
	if err := repo.RotateRefreshToken(ctx, user.ID, "t1", "t3"); !customErrors.IsStaleToken(err) {
		t.Fatalf("expected stale token, got %v", err)
	}
	got, _ = repo.GetUserByID(ctx, user.ID)
	if got.RefreshToken != "t2" {
		t.Fatalf("failed swap must not overwrite, got %q", got.RefreshToken)
	}

	if err := repo.RotateRefreshToken(ctx, user.ID, "t2", "t3"); err != nil {
		t.Fatalf("rotate with current token: %v", err)
	}
}

func TestPostgresUserRepo_SetRefreshTokenIsIdempotent(t *testing.T) {
	repo := NewPostgresUserRepo(setupDB(t))
	ctx := context.Background()

	// clearing an unknown user's session is a no-op, not an error
	if err := repo.SetRefreshToken(ctx, uuid.New(), ""); err != nil {
		t.Fatalf("clear unknown: %v", err)
	}

	user := seedUser(t, repo, "alice", "alice@example.com")
	if err := repo.SetRefreshToken(ctx, user.ID, ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := repo.SetRefreshToken(ctx, user.ID, ""); err != nil {
		t.Fatalf("clear twice: %v", err)
	}
}
