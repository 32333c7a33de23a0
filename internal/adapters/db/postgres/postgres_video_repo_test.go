package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/streamforge/user-service/internal/domain/user/model"
)

func seedVideo(t *testing.T, db *gorm.DB, ownerID uuid.UUID, title string) model.Video {
	t.Helper()
	video := model.Video{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		VideoFile:   "http://cdn/" + title + ".mp4",
		Thumbnail:   "http://cdn/" + title + ".png",
		Title:       title,
		Duration:    12.5,
		Views:       7,
		IsPublished: true,
	}
	if err := db.Create(&video).Error; err != nil {
		t.Fatalf("create video %s: %v", title, err)
	}
	return video
}

func TestPostgresVideoRepo_HistoryKeepsWatchOrder(t *testing.T) {
	db := setupDB(t)
	users := NewPostgresUserRepo(db)
	repo := NewPostgresVideoRepo(db)
	ctx := context.Background()

	owner := seedUser(t, users, "owner", "owner@example.com")
	watcher := seedUser(t, users, "watcher", "watcher@example.com")

	first := seedVideo(t, db, owner.ID, "first")
	second := seedVideo(t, db, owner.ID, "second")
	third := seedVideo(t, db, owner.ID, "third")

	// watched out of id order on purpose
	for _, v := range []model.Video{second, first, third} {
		if err := repo.AppendWatchHistory(ctx, watcher.ID, v.ID); err != nil {
			t.Fatalf("append %s: %v", v.Title, err)
		}
	}

	entries, err := repo.ListWatchHistory(ctx, watcher.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("want 3 entries, got %d", len(entries))
	}
	for i, want := range []string{"second", "first", "third"} {
		if entries[i].Video.Title != want {
			t.Fatalf("position %d: want %s, got %s", i, want, entries[i].Video.Title)
		}
	}
	if entries[0].Owner.Username != "owner" || entries[0].Owner.FullName != "Full owner" {
		t.Fatalf("owner summary not resolved: %+v", entries[0].Owner)
	}
}

func TestPostgresVideoRepo_RewatchKeepsOriginalPosition(t *testing.T) {
	db := setupDB(t)
	users := NewPostgresUserRepo(db)
	repo := NewPostgresVideoRepo(db)
	ctx := context.Background()

	owner := seedUser(t, users, "owner", "owner@example.com")
	watcher := seedUser(t, users, "watcher", "watcher@example.com")

	first := seedVideo(t, db, owner.ID, "first")
	second := seedVideo(t, db, owner.ID, "second")

	for _, id := range []uuid.UUID{first.ID, second.ID, first.ID} {
		if err := repo.AppendWatchHistory(ctx, watcher.ID, id); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	entries, err := repo.ListWatchHistory(ctx, watcher.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("re-watch must not duplicate, got %d entries", len(entries))
	}
	if entries[0].Video.Title != "first" || entries[1].Video.Title != "second" {
		t.Fatalf("re-watch must keep the original order: %s, %s",
			entries[0].Video.Title, entries[1].Video.Title)
	}
}

func TestPostgresVideoRepo_DanglingOwner(t *testing.T) {
	db := setupDB(t)
	users := NewPostgresUserRepo(db)
	repo := NewPostgresVideoRepo(db)
	ctx := context.Background()

	owner := seedUser(t, users, "owner", "owner@example.com")
	watcher := seedUser(t, users, "watcher", "watcher@example.com")
	video := seedVideo(t, db, owner.ID, "orphaned")

	if err := repo.AppendWatchHistory(ctx, watcher.ID, video.ID); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := db.Exec("DELETE FROM users WHERE id = ?", owner.ID).Error; err != nil {
		t.Fatalf("delete owner: %v", err)
	}

	entries, err := repo.ListWatchHistory(ctx, watcher.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("want 1 entry, got %d", len(entries))
	}
	if entries[0].Video.Title != "orphaned" {
		t.Fatalf("video fields must survive the owner: %+v", entries[0].Video)
	}
	if entries[0].Owner != (model.OwnerSummary{}) {
		t.Fatalf("deleted owner must yield an empty summary: %+v", entries[0].Owner)
	}
}

func TestPostgresVideoRepo_EmptyHistory(t *testing.T) {
	db := setupDB(t)
	users := NewPostgresUserRepo(db)
	repo := NewPostgresVideoRepo(db)

	watcher := seedUser(t, users, "watcher", "watcher@example.com")
	entries, err := repo.ListWatchHistory(context.Background(), watcher.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("want empty history, got %d", len(entries))
	}
}
