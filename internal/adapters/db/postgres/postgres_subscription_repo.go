package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	customErrors "github.com/streamforge/user-service/internal/domain/user/errors"
	"github.com/streamforge/user-service/internal/domain/user/model"
)

type PostgresSubscriptionRepo struct {
	db *gorm.DB
}

func NewPostgresSubscriptionRepo(db *gorm.DB) *PostgresSubscriptionRepo {
	return &PostgresSubscriptionRepo{db: db}
}

func (p *PostgresSubscriptionRepo) CountSubscribers(ctx context.Context, channelID uuid.UUID) (int64, error) {
	var n int64
	res := p.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("channel_id = ?", channelID).Count(&n)
	if err := res.Error; err != nil {
		return 0, customErrors.WrapInternal(err, "CountSubscribers")
	}
	return n, nil
}

func (p *PostgresSubscriptionRepo) CountSubscribedTo(ctx context.Context, subscriberID uuid.UUID) (int64, error) {
	var n int64
	res := p.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("subscriber_id = ?", subscriberID).Count(&n)
	if err := res.Error; err != nil {
		return 0, customErrors.WrapInternal(err, "CountSubscribedTo")
	}
	return n, nil
}

func (p *PostgresSubscriptionRepo) IsSubscribed(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	var n int64
	res := p.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).Count(&n)
	if err := res.Error; err != nil {
		return false, customErrors.WrapInternal(err, "IsSubscribed")
	}
	return n > 0, nil
}
