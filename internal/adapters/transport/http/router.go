package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/streamforge/user-service/internal/adapters/transport/http/middleware"
	"github.com/streamforge/user-service/internal/domain/user/token"
)

func NewRouter(h *Handler, tu token.TokenUtil, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))

	corsConfig := cors.Config{
		AllowOrigins: h.cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: h.cfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	users := router.Group("/api/v1/users")
	users.POST("/register", h.Register)
	users.POST("/login", h.Login)
	users.POST("/refresh-token", h.Refresh)

	secured := users.Group("", middleware.Auth(tu))
	secured.POST("/logout", h.Logout)
	secured.POST("/change-password", h.ChangePassword)
	secured.GET("/current-user", h.CurrentUser)
	secured.PATCH("/update-account", h.UpdateAccount)
	secured.PATCH("/avatar", h.UpdateAvatar)
	secured.PATCH("/cover-image", h.UpdateCoverImage)
	secured.GET("/c/:username", h.ChannelProfile)
	secured.GET("/history", h.WatchHistory)
	secured.POST("/history/:videoId", h.RecordView)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})

	return router
}
