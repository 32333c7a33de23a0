package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	myPostgresRepo "github.com/streamforge/user-service/internal/adapters/db/postgres"
	myRedisCache "github.com/streamforge/user-service/internal/adapters/db/redis"
	s3storage "github.com/streamforge/user-service/internal/adapters/storage/s3"
	myHTTP "github.com/streamforge/user-service/internal/adapters/transport/http"
	appsvc "github.com/streamforge/user-service/internal/app/user/service"
	apptoken "github.com/streamforge/user-service/internal/app/user/token"
	"github.com/streamforge/user-service/internal/infra/config"
	lg "github.com/streamforge/user-service/internal/infra/log"
	"github.com/streamforge/user-service/internal/infra/migrate"
)

func main() {
	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	redisCli := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisCli.Close()

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	uploader, err := s3storage.NewUploader(rootCtx, cfg)
	if err != nil {
		zapLog.Fatal("failed to init uploader", zap.Error(err))
	}

	validate := validator.New()
	err = validate.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		pwd := fl.Field().String()
		if utf8.RuneCountInString(pwd) < 8 {
			return false
		}
		var hasUpper, hasDigit bool
		for _, r := range pwd {
			if unicode.IsUpper(r) {
				hasUpper = true
			}
			if unicode.IsDigit(r) {
				hasDigit = true
			}
		}
		return hasUpper && hasDigit
	})
	if err != nil {
		zapLog.Fatal("failed to register password validator", zap.Error(err))
	}

	userRepo := myPostgresRepo.NewPostgresUserRepo(db)
	subRepo := myPostgresRepo.NewPostgresSubscriptionRepo(db)
	videoRepo := myPostgresRepo.NewPostgresVideoRepo(db)
	profileCache := myRedisCache.NewRedisProfileCache(redisCli)

	tokenUtil, err := apptoken.NewTokenUtil(cfg)
	if err != nil {
		zapLog.Fatal("failed to init token util", zap.Error(err))
	}
	svc := appsvc.New(userRepo, subRepo, videoRepo, profileCache, uploader, tokenUtil, cfg, validate)

	handler := myHTTP.NewHandler(svc, cfg, zapLog)
	router := myHTTP.NewRouter(handler, tokenUtil, zapLog)

	srv := &http.Server{Addr: cfg.HTTPAddress, Handler: router}
	g, _ := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		zapLog.Info("http server listening", zap.String("addr", cfg.HTTPAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("shutdown signal received")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLog.Error("shutdown error", zap.Error(err))
	}
	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
