package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the persisted account record. PasswordHash and RefreshToken never
// leave the service layer; outward views are built from the other fields.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	Avatar       string
	CoverImage   string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Video struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	VideoFile   string
	Thumbnail   string
	Title       string
	Description string
	Duration    float64
	Views       int64
	IsPublished bool
	CreatedAt   time.Time
}

// Subscription links a subscriber to a channel; both sides are user ids.
type Subscription struct {
	ID           uuid.UUID
	SubscriberID uuid.UUID
	ChannelID    uuid.UUID
	CreatedAt    time.Time
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	UserID       uuid.UUID
}

// ChannelProfile is the denormalized channel read model.
type ChannelProfile struct {
	FullName                 string
	Username                 string
	SubscribersCount         int64
	ChannelSubscribedToCount int64
	IsSubscribed             bool
	Avatar                   string
	CoverImage               string
	Email                    string
}

// OwnerSummary embeds the video owner's public fields into a history entry.
// All fields are empty when the owner no longer exists.
type OwnerSummary struct {
	FullName string
	Username string
	Avatar   string
}

type HistoryEntry struct {
	Video Video
	Owner OwnerSummary
}
