package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int
	TokenTTL     time.Duration

	// Параметры по умолчанию для новых сессий.
	DefaultMaxScore int

	// Ограничение частоты ввода счёта, запросов в секунду на сессию.
	ScoreRateLimit float64
	ScoreRateBurst int

	CORSAllowedOrigins []string

	R2 R2Config
}

// R2Config describes the bucket results are published to. Publishing is
// disabled when any field is missing.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.BucketName != "" && c.PublicBaseURL != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	maxScore, err := intEnv("DEFAULT_MAX_SCORE", 15)
	if err != nil {
		return nil, err
	}
	if maxScore <= 0 {
		return nil, fmt.Errorf("DEFAULT_MAX_SCORE must be positive, got %d", maxScore)
	}

	burst, err := intEnv("SCORE_RATE_BURST", 10)
	if err != nil {
		return nil, err
	}

	rateLimit := 5.0
	if v := os.Getenv("SCORE_RATE_LIMIT"); v != "" {
		rateLimit, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SCORE_RATE_LIMIT environment variable: %w", err)
		}
	}
	if rateLimit <= 0 || burst <= 0 {
		return nil, fmt.Errorf("SCORE_RATE_LIMIT and SCORE_RATE_BURST must be positive")
	}

	ttl := 12 * time.Hour
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL environment variable: %w", err)
		}
	}

	origins := []string{"*"}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins = origins[:0]
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	cfg := &Config{
		DatabaseURL:        dbURL,
		JWTSecretKey:       jwtKey,
		ServerPort:         port,
		TokenTTL:           ttl,
		DefaultMaxScore:    maxScore,
		ScoreRateLimit:     rateLimit,
		ScoreRateBurst:     burst,
		CORSAllowedOrigins: origins,
		R2: R2Config{
			AccountID:       os.Getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			BucketName:      os.Getenv("R2_BUCKET_NAME"),
			PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		},
	}

	return cfg, nil
}

func intEnv(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return n, nil
}
