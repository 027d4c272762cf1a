package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// App
	Env string // dev / staging / prod
	// HTTP
	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// Auth / Security
	JWTSecret      string
	JWTIssuer      string
	AccessTokenTTL time.Duration
	BcryptCost     int

	// Verification codes (activation / password reset / admin set-password)
	CodeTTL time.Duration

	// Infrastructure
	DBAddr  string
	DBDebug bool

	RedisAddr     string // optional; rate limiting disabled when empty
	RedisPassword string
	RedisDB       int

	RabbitURL      string // optional; notification events are dropped when empty
	RabbitExchange string

	// Email
	EmailSender string // "smtp" or "fake"
	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	SMTPFrom    string
	SMTPTimeout time.Duration

	// Cover storage (S3-compatible)
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3UsePathStyle bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "dev"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
	}

	// required values
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing required env var: JWT_SECRET")
	}
	cfg.JWTIssuer = getEnv("JWT_ISSUER", "shelfshare")

	// The service cannot operate without its database. Fail fast here to
	// avoid starting in a broken or partially-initialized state.
	cfg.DBAddr = os.Getenv("DB_ADDR")
	if cfg.DBAddr == "" {
		return nil, fmt.Errorf("missing required env var: DB_ADDR")
	}
	cfg.DBDebug = getEnv("DB_DEBUG", "") == "true"

	ttl, err := getDuration("ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.AccessTokenTTL = ttl

	// Expiry window for emailed verification codes.
	ctl, err := getDuration("CODE_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.CodeTTL = ctl

	cost, err := getInt("BCRYPT_COST", 12)
	if err != nil {
		return nil, err
	}
	cfg.BcryptCost = cost

	// Optional infrastructure.
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	rdb, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.RedisDB = rdb

	cfg.RabbitURL = os.Getenv("RABBIT_URL")
	cfg.RabbitExchange = getEnv("RABBIT_EXCHANGE", "shelfshare.notifications")

	// Email transport.
	cfg.EmailSender = getEnv("EMAIL_SENDER", "fake")
	if cfg.EmailSender == "smtp" {
		cfg.SMTPHost = os.Getenv("SMTP_HOST")
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("missing required env var: SMTP_HOST")
		}
		port, err := getInt("SMTP_PORT", 587)
		if err != nil {
			return nil, err
		}
		cfg.SMTPPort = port
		cfg.SMTPUser = os.Getenv("SMTP_USER")
		cfg.SMTPPass = os.Getenv("SMTP_PASS")
		cfg.SMTPFrom = os.Getenv("SMTP_FROM")
		if cfg.SMTPFrom == "" {
			return nil, fmt.Errorf("missing required env var: SMTP_FROM")
		}
		st, err := getDuration("SMTP_TIMEOUT", 10*time.Second)
		if err != nil {
			return nil, err
		}
		cfg.SMTPTimeout = st
	}

	// Cover storage; optional, covers are rejected when unset.
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	if cfg.S3Endpoint != "" {
		cfg.S3Region = getEnv("S3_REGION", "us-east-1")
		cfg.S3AccessKey = os.Getenv("S3_ACCESS_KEY")
		cfg.S3SecretKey = os.Getenv("S3_SECRET_KEY")
		cfg.S3Bucket = getEnv("S3_BUCKET", "book-covers")
		cfg.S3UsePathStyle = getEnv("S3_USE_PATH_STYLE", "true") == "true"
	}

	rt, err := getDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.HTTPReadTimeout = rt

	wt, err := getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.HTTPWriteTimeout = wt

	it, err := getDuration("HTTP_IDLE_TIMEOUT", time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.HTTPIdleTimeout = it

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %q: %w", key, v, err)
	}
	return n, nil
}
