package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string
	HTTPAddress string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	Issuer             string
	Audience           string

	PasswordPepper string

	CookieDomain     string
	AllowedOrigins   []string
	AllowCredentials bool

	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3PublicURL    string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	for _, key := range []string{
		"DATABASE_URL", "HTTP_ADDRESS",
		"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB",
		"ACCESS_TOKEN_SECRET", "REFRESH_TOKEN_SECRET",
		"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"JWT_ISSUER", "JWT_AUDIENCE", "PASSWORD_PEPPER",
		"COOKIE_DOMAIN", "ALLOWED_ORIGINS", "ALLOW_CREDENTIALS",
		"S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET",
		"S3_REGION", "S3_BASE_ENDPOINT", "S3_PUBLIC_URL",
	} {
		if err := viper.BindEnv(key); err != nil {
			return nil, err
		}
	}

	viper.SetDefault("HTTP_ADDRESS", ":8080")
	viper.SetDefault("ACCESS_TOKEN_TTL", "15m")
	viper.SetDefault("REFRESH_TOKEN_TTL", "240h")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("S3_REGION", "us-east-1")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	for _, key := range []string{
		"DATABASE_URL", "REDIS_ADDRESS",
		"ACCESS_TOKEN_SECRET", "REFRESH_TOKEN_SECRET",
	} {
		if viper.GetString(key) == "" {
			return nil, fmt.Errorf("%s is required", key)
		}
	}

	cfg := &Config{
		DatabaseURL:        viper.GetString("DATABASE_URL"),
		HTTPAddress:        viper.GetString("HTTP_ADDRESS"),
		RedisAddress:       viper.GetString("REDIS_ADDRESS"),
		RedisPassword:      viper.GetString("REDIS_PASSWORD"),
		RedisDB:            viper.GetInt("REDIS_DB"),
		AccessTokenSecret:  viper.GetString("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: viper.GetString("REFRESH_TOKEN_SECRET"),
		AccessTokenTTL:     viper.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:    viper.GetDuration("REFRESH_TOKEN_TTL"),
		Issuer:             viper.GetString("JWT_ISSUER"),
		Audience:           viper.GetString("JWT_AUDIENCE"),
		PasswordPepper:     viper.GetString("PASSWORD_PEPPER"),
		CookieDomain:       viper.GetString("COOKIE_DOMAIN"),
		AllowedOrigins:     viper.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials:   viper.GetBool("ALLOW_CREDENTIALS"),
		S3AccessKey:        viper.GetString("S3_ACCESS_KEY"),
		S3SecretKey:        viper.GetString("S3_SECRET_KEY"),
		S3Bucket:           viper.GetString("S3_BUCKET"),
		S3Region:           viper.GetString("S3_REGION"),
		S3BaseEndpoint:     viper.GetString("S3_BASE_ENDPOINT"),
		S3PublicURL:        viper.GetString("S3_PUBLIC_URL"),
	}

	if cfg.RefreshTokenTTL <= cfg.AccessTokenTTL {
		return nil, fmt.Errorf("REFRESH_TOKEN_TTL must exceed ACCESS_TOKEN_TTL")
	}

	return cfg, nil
}
