package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"backend-discoverudupi/internal/auth"
	"backend-discoverudupi/internal/config"
	"backend-discoverudupi/internal/db"
	"backend-discoverudupi/internal/favorite"
	"backend-discoverudupi/internal/location"
	"backend-discoverudupi/internal/logging"
	"backend-discoverudupi/internal/offline"
	"backend-discoverudupi/internal/profile"
	"backend-discoverudupi/internal/review"
	"backend-discoverudupi/internal/storage"
	"backend-discoverudupi/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const limiterSweepInterval = 10 * time.Minute

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      db.Querier
	Redis   *redis.Client
	Stream  *stream.Hub
	Offline *offline.Proxy
	Log     *zap.Logger

	limiter   *rateLimiter
	done      chan struct{}
	closeOnce sync.Once
}

// NewServer wires every service onto a fiber app. pool and redisClient may be
// nil; routes that need them fail per request, and the offline cache is
// disabled without redis.
func NewServer(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:               "discover-udupi",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})
	app.Use(recover.New())
	app.Use(logging.Middleware(log))

	s := &Server{
		App:     app,
		Cfg:     cfg,
		Redis:   redisClient,
		Stream:  stream.NewHub(redisClient, log),
		Log:     log,
		limiter: newRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
		done:    make(chan struct{}),
	}
	if pool != nil {
		s.DB = pool
	}
	s.Offline = newOfflineProxy(cfg, redisClient, log)
	go s.limiter.sweepEvery(limiterSweepInterval, s.done)

	registerRoutes(s)
	return s
}

// errorHandler renders every error as {"error": message}.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "Internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			msg = fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
}

func newOfflineProxy(cfg config.Config, redisClient *redis.Client, log *zap.Logger) *offline.Proxy {
	if redisClient == nil {
		return nil
	}
	var origin offline.Fetcher
	switch {
	case cfg.StaticOrigin != "":
		origin = offline.NewHTTPFetcher(cfg.StaticOrigin, &http.Client{Timeout: 10 * time.Second})
	case cfg.StaticDir != "":
		origin = offline.NewDirFetcher(cfg.StaticDir)
	default:
		return nil
	}
	return offline.NewProxy(cfg.CacheName, offline.NewRedisCache(redisClient), origin, log.Named("offline"))
}

func newAuthService(s *Server) *auth.Service {
	cfg := s.Cfg
	opts := []auth.Option{
		auth.WithLogger(s.Log.Named("auth")),
		auth.WithEvents(s.Stream),
	}
	if cfg.RequireEmailConfirmation {
		if cfg.SMTPHost == "" {
			s.Log.Warn("email confirmation requested but SMTP_HOST is empty; sign-ups are confirmed immediately")
		} else {
			mailer := auth.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
			opts = append(opts, auth.WithEmailConfirmation(mailer, strings.TrimRight(cfg.APIURL, "/")+"/auth/confirm"))
		}
	}
	if cfg.GoogleClientID != "" {
		opts = append(opts, auth.WithProvider(
			auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)))
	}
	return auth.NewService(cfg.JWTSecret, s.DB, opts...)
}

func newLocationSource(s *Server) location.Source {
	if s.Cfg.LocationSource == "db" {
		return location.NewService(s.DB, s.Log.Named("location"))
	}
	return location.NewStaticSource(location.Catalog())
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	site := strings.TrimRight(s.Cfg.SiteURL, "/")

	auth.RegisterRoutes(s.App.Group("/auth", s.limiter.handler), newAuthService(s), site)

	locations := s.App.Group("/locations")
	location.RegisterRoutes(locations, newLocationSource(s), site)
	review.RegisterRoutes(locations, review.NewService(s.DB, s.Log.Named("review")), jwtMiddleware)

	favorite.RegisterRoutes(s.App.Group("/favorites"), favorite.NewService(s.DB), jwtMiddleware)
	profile.RegisterRoutes(s.App.Group("/profiles"), profile.NewService(s.DB, s.Redis, s.Log.Named("profile")), jwtMiddleware)

	if up, err := newUploader(s.Cfg); err != nil {
		s.Log.Warn("image uploads disabled", zap.Error(err))
	} else {
		storage.RegisterRoutes(s.App.Group("/storage"), storage.NewService(s.DB, up, s.Log.Named("storage")), jwtMiddleware)
	}

	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, jwtMiddleware)

	if s.Offline != nil {
		s.App.Use(offline.Handler(s.Offline))
	}
}

var errUploadsNotConfigured = errors.New("cloudinary credentials not configured")

func newUploader(cfg config.Config) (storage.Uploader, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, errUploadsNotConfigured
	}
	return storage.NewCloudinaryUploader(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
}

// Warm precaches the static assets and drops stale caches. Failures are
// logged; the server keeps running without them.
func (s *Server) Warm(ctx context.Context) {
	if s.Offline == nil {
		return
	}
	if err := s.Offline.Install(ctx); err != nil {
		s.Log.Warn("offline precache failed", zap.Error(err))
		return
	}
	if _, err := s.Offline.Activate(ctx); err != nil {
		s.Log.Warn("offline cache cleanup failed", zap.Error(err))
	}
}

// Close stops background work started by NewServer.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.Stream.Close()
	})
}
