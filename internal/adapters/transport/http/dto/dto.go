package dto

import "github.com/google/uuid"

// RegisterDTO carries the registration form. The Local* paths point at the
// multipart uploads the handler already spooled to disk.
type RegisterDTO struct {
	FullName string `json:"fullname" form:"fullname" validate:"required"`
	Email    string `json:"email"    form:"email"    validate:"required,email"`
	Username string `json:"username" form:"username" validate:"required,alphanum,min=3,max=20"`
	Password string `json:"password" form:"password" validate:"required,strongpwd"`

	AvatarLocalPath     string `json:"-"`
	CoverImageLocalPath string `json:"-"`
}

type LoginDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,strongpwd"`
}

type UpdateAccountDTO struct {
	FullName string `json:"fullname"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// UserView is the sanitized outward projection of a user; it never carries
// the password hash or the refresh token.
type UserView struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullname"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
}

type ChannelProfileView struct {
	FullName                 string `json:"fullname"`
	Username                 string `json:"username"`
	SubscribersCount         int64  `json:"subscribersCount"`
	ChannelSubscribedToCount int64  `json:"channelSubscribedToCount"`
	IsSubscribed             bool   `json:"isSubscribed"`
	Avatar                   string `json:"avatar"`
	CoverImage               string `json:"coverImage"`
	Email                    string `json:"email"`
}

type OwnerView struct {
	FullName string `json:"fullname"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type HistoryEntryView struct {
	ID        uuid.UUID `json:"id"`
	VideoFile string    `json:"videoFile"`
	Thumbnail string    `json:"thumbnail"`
	Title     string    `json:"title"`
	Duration  float64   `json:"duration"`
	Views     int64     `json:"views"`
	Owner     OwnerView `json:"owner"`
}
