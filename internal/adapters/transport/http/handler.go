package http

import (
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/streamforge/user-service/internal/adapters/transport/http/dto"
	"github.com/streamforge/user-service/internal/adapters/transport/http/middleware"
	"github.com/streamforge/user-service/internal/app/user/service"
	userErrors "github.com/streamforge/user-service/internal/domain/user/errors"
	"github.com/streamforge/user-service/internal/domain/user/model"
	"github.com/streamforge/user-service/internal/infra/config"
)

type Handler struct {
	svc service.Service
	cfg *config.Config
	log *zap.Logger
}

func NewHandler(svc service.Service, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{svc: svc, cfg: cfg, log: log}
}

func (h *Handler) Register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBind(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if file, err := c.FormFile("avatar"); err == nil {
		path, err := h.spoolUpload(c, file)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		defer os.Remove(path)
		body.AvatarLocalPath = path
	}
	if file, err := c.FormFile("coverImage"); err == nil {
		path, err := h.spoolUpload(c, file)
		if err == nil {
			defer os.Remove(path)
			body.CoverImageLocalPath = path
		}
	}

	user, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"data":    userView(user),
		"message": "user registered successfully",
	})
}

func (h *Handler) Login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, pair, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"user":         userView(user),
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		},
		"message": "user logged in successfully",
	})
}

func (h *Handler) Logout(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized request"})
		return
	}

	if err := h.svc.Logout(c.Request.Context(), uid); err != nil {
		h.handleError(c, err)
		return
	}

	h.clearTokenCookies(c)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{}, "message": "user logged out"})
}

func (h *Handler) Refresh(c *gin.Context) {
	// the token arrives as a cookie from browsers or in the body otherwise
	presented := ""
	if cookie, err := c.Cookie("refresh_token"); err == nil {
		presented = cookie
	}
	if presented == "" {
		var body dto.RefreshDTO
		if err := c.ShouldBindJSON(&body); err == nil {
			presented = body.RefreshToken
		}
	}

	pair, err := h.svc.Refresh(c.Request.Context(), presented)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		},
		"message": "access token refreshed",
	})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized request"})
		return
	}

	var body dto.ChangePasswordDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), uid, body); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{}, "message": "password changed successfully"})
}

func (h *Handler) CurrentUser(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized request"})
		return
	}

	user, err := h.svc.CurrentUser(c.Request.Context(), uid)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": userView(user), "message": "current user fetched successfully"})
}

func (h *Handler) UpdateAccount(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized request"})
		return
	}

	var body dto.UpdateAccountDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.UpdateAccount(c.Request.Context(), uid, body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": userView(user), "message": "account details updated successfully"})
}

func (h *Handler) UpdateAvatar(c *gin.Context) {
	h.updateImage(c, "avatar", func(ctx *gin.Context, uid uuid.UUID, path string) (model.User, error) {
		return h.svc.UpdateAvatar(ctx.Request.Context(), uid, path)
	}, "avatar updated successfully")
}

func (h *Handler) UpdateCoverImage(c *gin.Context) {
	h.updateImage(c, "coverImage", func(ctx *gin.Context, uid uuid.UUID, path string) (model.User, error) {
		return h.svc.UpdateCoverImage(ctx.Request.Context(), uid, path)
	}, "cover image updated successfully")
}

func (h *Handler) updateImage(
	c *gin.Context,
	field string,
	update func(*gin.Context, uuid.UUID, string) (model.User, error),
	message string,
) {
	uid, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized request"})
		return
	}

	path := ""
	if file, err := c.FormFile(field); err == nil {
		p, err := h.spoolUpload(c, file)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		defer os.Remove(p)
		path = p
	}

	user, err := update(c, uid, path)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": userView(user), "message": message})
}

func (h *Handler) ChannelProfile(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized request"})
		return
	}

	profile, err := h.svc.ChannelProfile(c.Request.Context(), c.Param("username"), uid)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":    profileView(profile),
		"message": "user channel fetched successfully",
	})
}

func (h *Handler) RecordView(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized request"})
		return
	}

	videoID, err := uuid.Parse(c.Param("videoId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}

	if err := h.svc.RecordView(c.Request.Context(), uid, videoID); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{}, "message": "video added to watch history"})
}

func (h *Handler) WatchHistory(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized request"})
		return
	}

	entries, err := h.svc.WatchHistory(c.Request.Context(), uid)
	if err != nil {
		h.handleError(c, err)
		return
	}

	views := make([]dto.HistoryEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, historyView(e))
	}
	c.JSON(http.StatusOK, gin.H{
		"data":    views,
		"message": "watch history fetched successfully",
	})
}

func (h *Handler) spoolUpload(c *gin.Context, file *multipart.FileHeader) (string, error) {
	dst := filepath.Join(os.TempDir(), uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		h.log.Error("spool upload", zap.Error(err))
		return "", err
	}
	return dst, nil
}

func (h *Handler) setTokenCookies(c *gin.Context, pair model.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		"access_token",
		pair.AccessToken,
		int(pair.AccessTTL.Seconds()),
		"/",
		h.cfg.CookieDomain,
		true, // secure
		true, // httpOnly
	)

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		"refresh_token",
		pair.RefreshToken,
		int(pair.RefreshTTL.Seconds()),
		"/",
		h.cfg.CookieDomain,
		true,
		true,
	)
}

func (h *Handler) clearTokenCookies(c *gin.Context) {
	c.SetCookie("access_token", "", -1, "/", h.cfg.CookieDomain, true, true)
	c.SetCookie("refresh_token", "", -1, "/", h.cfg.CookieDomain, true, true)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case userErrors.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case userErrors.IsStaleToken(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case userErrors.IsInvalidCredentials(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case userErrors.IsInvalidToken(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case userErrors.IsAlreadyExists(err):
		c.JSON(http.StatusConflict, gin.H{"error": "user with email or username already exists"})
	case userErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func userView(u model.User) dto.UserView {
	return dto.UserView{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
	}
}

func profileView(p model.ChannelProfile) dto.ChannelProfileView {
	return dto.ChannelProfileView{
		FullName:                 p.FullName,
		Username:                 p.Username,
		SubscribersCount:         p.SubscribersCount,
		ChannelSubscribedToCount: p.ChannelSubscribedToCount,
		IsSubscribed:             p.IsSubscribed,
		Avatar:                   p.Avatar,
		CoverImage:               p.CoverImage,
		Email:                    p.Email,
	}
}

func historyView(e model.HistoryEntry) dto.HistoryEntryView {
	return dto.HistoryEntryView{
		ID:        e.Video.ID,
		VideoFile: e.Video.VideoFile,
		Thumbnail: e.Video.Thumbnail,
		Title:     e.Video.Title,
		Duration:  e.Video.Duration,
		Views:     e.Video.Views,
		Owner: dto.OwnerView{
			FullName: e.Owner.FullName,
			Username: e.Owner.Username,
			Avatar:   e.Owner.Avatar,
		},
	}
}
