package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/streamforge/user-service/internal/adapters/transport/http/dto"
	customErrors "github.com/streamforge/user-service/internal/domain/user/errors"
	"github.com/streamforge/user-service/internal/domain/user/model"
	"github.com/streamforge/user-service/internal/domain/user/repo"
	"github.com/streamforge/user-service/internal/domain/user/storage"
	"github.com/streamforge/user-service/internal/domain/user/token"
	"github.com/streamforge/user-service/internal/infra/config"
)

var timeNow = time.Now

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type accountService struct {
	userRepo  repo.UserRepo
	subRepo   repo.SubscriptionRepo
	videoRepo repo.VideoRepo
	cache     repo.ProfileCache
	uploader  storage.Uploader
	tokenUtil token.TokenUtil
	cfg       *config.Config
	v         *validator.Validate
}

type Service interface {
	Register(context.Context, dto.RegisterDTO) (model.User, error)
	Login(context.Context, dto.LoginDTO) (model.User, model.TokenPair, error)
	Logout(context.Context, uuid.UUID) error
	Refresh(context.Context, string) (model.TokenPair, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, d dto.ChangePasswordDTO) error
	CurrentUser(context.Context, uuid.UUID) (model.User, error)
	UpdateAccount(ctx context.Context, userID uuid.UUID, d dto.UpdateAccountDTO) (model.User, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, localPath string) (model.User, error)
	UpdateCoverImage(ctx context.Context, userID uuid.UUID, localPath string) (model.User, error)
	ChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (model.ChannelProfile, error)
	WatchHistory(context.Context, uuid.UUID) ([]model.HistoryEntry, error)
	RecordView(ctx context.Context, userID, videoID uuid.UUID) error
}

func New(
	ur repo.UserRepo,
	sr repo.SubscriptionRepo,
	vr repo.VideoRepo,
	cache repo.ProfileCache,
	up storage.Uploader,
	tu token.TokenUtil,
	cfg *config.Config,
	v *validator.Validate,
) Service {
	return &accountService{
		userRepo: ur, subRepo: sr, videoRepo: vr,
		cache: cache, uploader: up, tokenUtil: tu, cfg: cfg, v: v,
	}
}

func (a *accountService) Register(ctx context.Context, d dto.RegisterDTO) (model.User, error) {
	if err := a.v.Struct(d); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(err.Error())
	}

	username := strings.ToLower(strings.TrimSpace(d.Username))

	if _, err := a.userRepo.GetUserByUsername(ctx, username); err == nil {
		return model.User{}, customErrors.ErrAlreadyExists
	} else if !errors.Is(err, customErrors.ErrNotFound) {
		return model.User{}, customErrors.WrapInternal(err, "Register")
	}
	if _, err := a.userRepo.GetUserByEmail(ctx, d.Email); err == nil {
		return model.User{}, customErrors.ErrAlreadyExists
	} else if !errors.Is(err, customErrors.ErrNotFound) {
		return model.User{}, customErrors.WrapInternal(err, "Register")
	}

	if d.AvatarLocalPath == "" {
		return model.User{}, customErrors.NewInvalidArgument("avatar file is required")
	}
	avatarURL, err := a.uploader.Upload(ctx, d.AvatarLocalPath)
	if err != nil || avatarURL == "" {
		return model.User{}, customErrors.NewInvalidArgument("avatar file is required")
	}

	// cover image is optional: a missing file or a failed upload resolves to ""
	coverURL := ""
	if d.CoverImageLocalPath != "" {
		if u, err := a.uploader.Upload(ctx, d.CoverImageLocalPath); err == nil {
			coverURL = u
		}
	}

	passwordHash, err := argon2id.CreateHash(d.Password+a.cfg.PasswordPepper, argonParams)
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, "Register")
	}

	user := model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        d.Email,
		FullName:     d.FullName,
		PasswordHash: passwordHash,
		Avatar:       avatarURL,
		CoverImage:   coverURL,
	}
	if _, err = a.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.User{}, customErrors.ErrAlreadyExists
		}
		return model.User{}, customErrors.WrapInternal(err, "Register")
	}

	// refetch to confirm the written record is retrievable
	created, err := a.userRepo.GetUserByID(ctx, user.ID)
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, "user not retrievable after create")
	}

	return sanitize(created), nil
}

func (a *accountService) Login(ctx context.Context, d dto.LoginDTO) (model.User, model.TokenPair, error) {
	if err := a.v.Struct(d); err != nil {
		return model.User{}, model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}
	if d.Username == "" && d.Email == "" {
		return model.User{}, model.TokenPair{}, customErrors.NewInvalidArgument("username or email is required")
	}

	user, err := a.resolveUser(ctx, d.Username, d.Email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, model.TokenPair{}, customErrors.ErrNotFound
	case err != nil:
		return model.User{}, model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	ok, err := argon2id.ComparePasswordAndHash(d.Password+a.cfg.PasswordPepper, user.PasswordHash)
	if err != nil {
		return model.User{}, model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		return model.User{}, model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	pair, err := a.issueTokens(ctx, user)
	if err != nil {
		return model.User{}, model.TokenPair{}, err
	}

	return sanitize(user), pair, nil
}

func (a *accountService) Logout(ctx context.Context, userID uuid.UUID) error {
	// idempotent: clearing an already-cleared token is a no-op
	if err := a.userRepo.SetRefreshToken(ctx, userID, ""); err != nil {
		return customErrors.WrapInternal(err, "Logout")
	}
	return nil
}

func (a *accountService) Refresh(ctx context.Context, presented string) (model.TokenPair, error) {
	if presented == "" {
		return model.TokenPair{}, customErrors.NewInvalidToken("unauthorized request")
	}

	claims, err := a.tokenUtil.ValidateRefreshToken(presented)
	if err != nil {
		return model.TokenPair{}, customErrors.NewInvalidToken(err.Error())
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}
	user, err := a.userRepo.GetUserByID(ctx, uid)
	if err != nil {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	// reuse of a token already rotated away is the replay signal
	if user.RefreshToken != presented {
		return model.TokenPair{}, customErrors.ErrStaleToken
	}

	accessToken, atExp, err := a.tokenUtil.GenerateAccessToken(user.ID, user.Username, user.Email, user.FullName)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "issue tokens")
	}
	refreshToken, rtExp, err := a.tokenUtil.GenerateRefreshToken(user.ID)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "issue tokens")
	}

	// compare-and-swap: under concurrent refreshes of the same stale token
	// only one caller rotates, the rest fail stale
	if err := a.userRepo.RotateRefreshToken(ctx, user.ID, presented, refreshToken); err != nil {
		if errors.Is(err, customErrors.ErrStaleToken) {
			return model.TokenPair{}, customErrors.ErrStaleToken
		}
		return model.TokenPair{}, customErrors.WrapInternal(err, "issue tokens")
	}

	now := timeNow()
	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessTTL:    atExp.Sub(now),
		RefreshTTL:   rtExp.Sub(now),
		UserID:       user.ID,
	}, nil
}

func (a *accountService) ChangePassword(ctx context.Context, userID uuid.UUID, d dto.ChangePasswordDTO) error {
	if err := a.v.Struct(d); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, customErrors.ErrNotFound) {
			return customErrors.ErrNotFound
		}
		return customErrors.WrapInternal(err, "ChangePassword")
	}

	ok, err := argon2id.ComparePasswordAndHash(d.OldPassword+a.cfg.PasswordPepper, user.PasswordHash)
	if err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}
	if !ok {
		return customErrors.NewInvalidArgument("invalid old password")
	}

	hash, err := argon2id.CreateHash(d.NewPassword+a.cfg.PasswordPepper, argonParams)
	if err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}
	if err := a.userRepo.SetPasswordHash(ctx, userID, hash); err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}
	return nil
}

func (a *accountService) CurrentUser(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := a.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, customErrors.ErrNotFound) {
			return model.User{}, customErrors.ErrNotFound
		}
		return model.User{}, customErrors.WrapInternal(err, "CurrentUser")
	}
	return sanitize(user), nil
}

func (a *accountService) UpdateAccount(ctx context.Context, userID uuid.UUID, d dto.UpdateAccountDTO) (model.User, error) {
	if err := a.v.Struct(d); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(err.Error())
	}
	if d.FullName == "" && d.Email == "" {
		return model.User{}, customErrors.NewInvalidArgument("fullname or email is required")
	}

	fields := map[string]any{}
	if d.FullName != "" {
		fields["full_name"] = d.FullName
	}
	if d.Email != "" {
		fields["email"] = d.Email
	}

	user, err := a.userRepo.UpdateFields(ctx, userID, fields)
	if err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.User{}, customErrors.ErrAlreadyExists
		}
		if errors.Is(err, customErrors.ErrNotFound) {
			return model.User{}, customErrors.ErrNotFound
		}
		return model.User{}, customErrors.WrapInternal(err, "UpdateAccount")
	}
	return sanitize(user), nil
}

func (a *accountService) UpdateAvatar(ctx context.Context, userID uuid.UUID, localPath string) (model.User, error) {
	return a.updateImage(ctx, userID, localPath, "avatar")
}

func (a *accountService) UpdateCoverImage(ctx context.Context, userID uuid.UUID, localPath string) (model.User, error) {
	return a.updateImage(ctx, userID, localPath, "cover_image")
}

func (a *accountService) updateImage(ctx context.Context, userID uuid.UUID, localPath, column string) (model.User, error) {
	if localPath == "" {
		return model.User{}, customErrors.NewInvalidArgument("image file is missing")
	}

	url, err := a.uploader.Upload(ctx, localPath)
	if err != nil || url == "" {
		return model.User{}, customErrors.NewInvalidArgument("error while uploading image")
	}

	user, err := a.userRepo.UpdateFields(ctx, userID, map[string]any{column: url})
	if err != nil {
		if errors.Is(err, customErrors.ErrNotFound) {
			return model.User{}, customErrors.ErrNotFound
		}
		return model.User{}, customErrors.WrapInternal(err, "updateImage")
	}
	return sanitize(user), nil
}

func (a *accountService) ChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (model.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return model.ChannelProfile{}, customErrors.NewInvalidArgument("username is missing")
	}

	if a.cache != nil {
		if p, ok, err := a.cache.Get(ctx, username, viewerID); err == nil && ok {
			return p, nil
		}
	}

	channel, err := a.userRepo.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.ChannelProfile{}, customErrors.ErrNotFound
	case err != nil:
		return model.ChannelProfile{}, customErrors.WrapInternal(err, "ChannelProfile")
	}

	subscribers, err := a.subRepo.CountSubscribers(ctx, channel.ID)
	if err != nil {
		return model.ChannelProfile{}, customErrors.WrapInternal(err, "ChannelProfile")
	}
	subscribedTo, err := a.subRepo.CountSubscribedTo(ctx, channel.ID)
	if err != nil {
		return model.ChannelProfile{}, customErrors.WrapInternal(err, "ChannelProfile")
	}

	isSubscribed := false
	if viewerID != uuid.Nil {
		isSubscribed, err = a.subRepo.IsSubscribed(ctx, viewerID, channel.ID)
		if err != nil {
			return model.ChannelProfile{}, customErrors.WrapInternal(err, "ChannelProfile")
		}
	}

	profile := model.ChannelProfile{
		FullName:                 channel.FullName,
		Username:                 channel.Username,
		SubscribersCount:         subscribers,
		ChannelSubscribedToCount: subscribedTo,
		IsSubscribed:             isSubscribed,
		Avatar:                   channel.Avatar,
		CoverImage:               channel.CoverImage,
		Email:                    channel.Email,
	}

	if a.cache != nil {
		_ = a.cache.Set(ctx, username, viewerID, profile)
	}

	return profile, nil
}

// RecordView appends a watched video to the user's history. Re-watching a
// video already in the list keeps its original position.
func (a *accountService) RecordView(ctx context.Context, userID, videoID uuid.UUID) error {
	if videoID == uuid.Nil {
		return customErrors.NewInvalidArgument("video id is missing")
	}

	err := a.videoRepo.AppendWatchHistory(ctx, userID, videoID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, customErrors.ErrNotFound):
		return customErrors.ErrNotFound
	default:
		return customErrors.WrapInternal(err, "RecordView")
	}
}

func (a *accountService) WatchHistory(ctx context.Context, userID uuid.UUID) ([]model.HistoryEntry, error) {
	entries, err := a.videoRepo.ListWatchHistory(ctx, userID)
	if err != nil {
		return nil, customErrors.WrapInternal(err, "WatchHistory")
	}
	return entries, nil
}

// issueTokens mints both tokens and persists the refresh token as the user's
// single live session. Any downstream failure surfaces as one opaque
// internal error.
func (a *accountService) issueTokens(ctx context.Context, user model.User) (model.TokenPair, error) {
	accessToken, atExp, err := a.tokenUtil.GenerateAccessToken(user.ID, user.Username, user.Email, user.FullName)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "issue tokens")
	}
	refreshToken, rtExp, err := a.tokenUtil.GenerateRefreshToken(user.ID)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "issue tokens")
	}

	if err := a.userRepo.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "issue tokens")
	}

	now := timeNow()
	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessTTL:    atExp.Sub(now),
		RefreshTTL:   rtExp.Sub(now),
		UserID:       user.ID,
	}, nil
}

func (a *accountService) resolveUser(ctx context.Context, username, email string) (model.User, error) {
	if username != "" {
		u, err := a.userRepo.GetUserByUsername(ctx, strings.ToLower(username))
		if err == nil || !errors.Is(err, customErrors.ErrNotFound) {
			return u, err
		}
	}
	if email != "" {
		return a.userRepo.GetUserByEmail(ctx, email)
	}
	return model.User{}, customErrors.ErrNotFound
}

func sanitize(u model.User) model.User {
	u.PasswordHash = ""
	u.RefreshToken = ""
	return u
}
