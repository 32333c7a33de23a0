package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"gorm.io/gorm"

	customErrors "github.com/streamforge/user-service/internal/domain/user/errors"
	"github.com/streamforge/user-service/internal/domain/user/model"
)

type PostgresVideoRepo struct {
	db *gorm.DB
}

func NewPostgresVideoRepo(db *gorm.DB) *PostgresVideoRepo {
	return &PostgresVideoRepo{db: db}
}

// historyRow flattens one watch-history join result. Owner columns are
// pointers because the owning user may have been deleted.
type historyRow struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	VideoFile     string
	Thumbnail     string
	Title         string
	Description   string
	Duration      float64
	Views         int64
	IsPublished   bool
	CreatedAt     time.Time
	OwnerFullName *string
	OwnerUsername *string
	OwnerAvatar   *string
}

func (p *PostgresVideoRepo) ListWatchHistory(ctx context.Context, userID uuid.UUID) ([]model.HistoryEntry, error) {
	var rows []historyRow
	res := p.db.WithContext(ctx).
		Table("watch_history AS wh").
		Select(`v.id, v.owner_id, v.video_file, v.thumbnail, v.title, v.description,
			v.duration, v.views, v.is_published, v.created_at,
			o.full_name AS owner_full_name, o.username AS owner_username, o.avatar AS owner_avatar`).
		Joins("JOIN videos v ON v.id = wh.video_id").
		Joins("LEFT JOIN users o ON o.id = v.owner_id").
		Where("wh.user_id = ?", userID).
		Order("wh.position").
		Scan(&rows)
	if err := res.Error; err != nil {
		return nil, customErrors.WrapInternal(err, "ListWatchHistory")
	}

	entries := make([]model.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		e := model.HistoryEntry{
			Video: model.Video{
				ID:          r.ID,
				OwnerID:     r.OwnerID,
				VideoFile:   r.VideoFile,
				Thumbnail:   r.Thumbnail,
				Title:       r.Title,
				Description: r.Description,
				Duration:    r.Duration,
				Views:       r.Views,
				IsPublished: r.IsPublished,
				CreatedAt:   r.CreatedAt,
			},
		}
		if r.OwnerUsername != nil {
			e.Owner = model.OwnerSummary{
				FullName: deref(r.OwnerFullName),
				Username: deref(r.OwnerUsername),
				Avatar:   deref(r.OwnerAvatar),
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (p *PostgresVideoRepo) AppendWatchHistory(ctx context.Context, userID, videoID uuid.UUID) error {
	res := p.db.WithContext(ctx).Exec(`
		INSERT INTO watch_history (user_id, video_id, position)
		VALUES (?, ?, COALESCE((SELECT MAX(position) + 1 FROM watch_history WHERE user_id = ?), 0))
		ON CONFLICT (user_id, video_id) DO NOTHING`,
		userID, videoID, userID)
	if err := res.Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return customErrors.ErrNotFound
		}
		return customErrors.WrapInternal(err, "AppendWatchHistory")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
