package bootstrap

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/shelfshare/shelfshare/internal/application/auth"
	"github.com/shelfshare/shelfshare/internal/application/catalog"
	"github.com/shelfshare/shelfshare/internal/application/notify"
	"github.com/shelfshare/shelfshare/internal/application/token"
	"github.com/shelfshare/shelfshare/internal/config"
	"github.com/shelfshare/shelfshare/internal/infrastructure/email"
	"github.com/shelfshare/shelfshare/internal/infrastructure/messaging"
	"github.com/shelfshare/shelfshare/internal/infrastructure/postgres"
	"github.com/shelfshare/shelfshare/internal/infrastructure/redis"
	"github.com/shelfshare/shelfshare/internal/infrastructure/security"
	"github.com/shelfshare/shelfshare/internal/infrastructure/storage"
	"github.com/shelfshare/shelfshare/internal/infrastructure/ws"
	"github.com/shelfshare/shelfshare/internal/logger"
	http_handlers "github.com/shelfshare/shelfshare/internal/transport/http/handlers"
	"github.com/shelfshare/shelfshare/internal/transport/http/router"
)

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing.
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB func(dsn string, debug bool) (*sql.DB, error)

	NewRedis func(addr, password string, db int) RedisClient

	NewPublisher func(url, exchange string) (notify.EventPublisher, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

type RedisClient interface {
	Ping(ctx context.Context) error
	Close() error
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	// 1) db + schema
	db, err := deps.NewDB(cfg.DBAddr, cfg.DBDebug)
	if err != nil {
		return nil, nil, err
	}

	cleanupFns := []func(){
		func() { _ = db.Close() },
	}

	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := postgres.Migrate(ctx, db); err != nil {
			runCleanup(cleanupFns)
			return nil, nil, err
		}
		if err := postgres.SeedRoles(ctx, db); err != nil {
			runCleanup(cleanupFns)
			return nil, nil, err
		}
	}

	// 2) repos
	userRepo := postgres.NewUserRepo(db)
	roleRepo := postgres.NewRoleRepo(db)
	codeRepo := postgres.NewCodeRepo(db)
	bookRepo := postgres.NewBookRepo(db)
	loanRepo := postgres.NewLoanRepo(db)
	reservationRepo := postgres.NewReservationRepo(db)
	feedbackRepo := postgres.NewFeedbackRepo(db)
	notificationRepo := postgres.NewNotificationRepo(db)

	// 3) redis (best-effort; rate limiting is disabled without it)
	var redisCli RedisClient
	if deps.NewRedis != nil && cfg.RedisAddr != "" {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := c.Ping(ctx); err != nil {
			logger.Logger.Warn().Err(err).Msg("redis unavailable; rate limiting disabled")
			_ = c.Close()
		} else {
			logger.Logger.Info().Msg("redis connected")
			redisCli = c
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
		}
	}

	// 4) broker (best-effort; notification events are dropped without it)
	var pub notify.EventPublisher = messaging.NoopPublisher{}
	if cfg.RabbitURL != "" {
		p, err := deps.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			if cfg.Env == "dev" {
				logger.Logger.Warn().Err(err).Msg("rabbitmq unavailable; using noop publisher")
			} else {
				runCleanup(cleanupFns)
				return nil, nil, err
			}
		} else {
			pub = p
			if c, ok := p.(interface{ Close() error }); ok {
				cleanupFns = append(cleanupFns, func() { _ = c.Close() })
			}
		}
	}

	// 5) security
	logger.Logger.Info().Str("issuer", cfg.JWTIssuer).Msg("initializing jwt signer")
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	signer := security.NewJWTSigner(cfg.JWTSecret, cfg.JWTIssuer)

	// 6) email transport
	var mailer auth.Mailer
	switch cfg.EmailSender {
	case "smtp":
		mailer = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
			Timeout:  cfg.SMTPTimeout,
		}, logger.Logger)
	default:
		logger.Logger.Warn().Msg("email transport is fake; codes are logged, not sent")
		mailer = email.NewFakeSender(logger.Logger)
	}

	// 7) cover storage
	var covers catalog.CoverStore
	if cfg.S3Endpoint != "" {
		s3Store, err := storage.NewS3CoverStore(storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    cfg.S3UsePathStyle,
		}, logger.Logger)
		if err != nil {
			runCleanup(cleanupFns)
			return nil, nil, err
		}
		covers = s3Store
	} else {
		logger.Logger.Warn().Msg("object storage unset; covers are kept in memory")
		covers = storage.NewMemoryCoverStore()
	}

	// 8) services
	codeStore := token.NewStore(codeRepo, cfg.CodeTTL)

	authSvc := auth.NewService(userRepo, roleRepo, hasher, signer, codeStore, mailer, auth.Config{
		AccessTTL: cfg.AccessTokenTTL,
	})

	hub := ws.NewHub()
	notifySvc := notify.NewService(notificationRepo, hub, pub)
	catalogSvc := catalog.NewService(bookRepo, loanRepo, reservationRepo, feedbackRepo, userRepo, covers, notifySvc)

	// 9) handlers
	routerDeps := router.Deps{
		Health:        http_handlers.NewHealthHandler(db),
		Auth:          http_handlers.NewAuthHandler(authSvc),
		Users:         http_handlers.NewUserHandler(authSvc),
		Books:         http_handlers.NewBookHandler(catalogSvc),
		Notifications: http_handlers.NewNotificationHandler(notifySvc),
		WS:            http_handlers.NewWSHandler(hub, signer),

		Verifier: signer,

		// Without redis the router falls back to a coarse per-IP limit.
		GlobalLimit:  300,
		GlobalWindow: time.Minute,
	}
	if rc, ok := redisCli.(*redis.Client); ok {
		routerDeps.Limiter = redis.NewFixedWindowLimiter(rc)
	}

	mux, err := deps.NewRouter(routerDeps)
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 10) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return srv, cleanup, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      config.NewDB,
		NewRedis: func(addr, password string, db int) RedisClient {
			return redis.New(addr, password, db)
		},
		NewPublisher: func(url, exchange string) (notify.EventPublisher, error) {
			return messaging.NewPublisher(url, exchange, logger.Logger)
		},
		NewRouter: router.New,
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
