package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lecturer-feedback/internal/auth"
	"lecturer-feedback/internal/config"
	apphttp "lecturer-feedback/internal/http"
	"lecturer-feedback/internal/repository"
	"lecturer-feedback/internal/repository/mongodb"
	"lecturer-feedback/internal/repository/sqlite"
	"lecturer-feedback/internal/service"
	"lecturer-feedback/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	configureLogger(logger, cfg)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, feedback, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer closeStore()

	if err := users.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := feedback.Init(ctx); err != nil {
		logger.Fatalf("init feedback repository: %v", err)
	}

	userService := service.NewUserService(users)
	feedbackService := service.NewFeedbackService(feedback, service.FeedbackOptions{
		RatingsEnabled: cfg.Feedback.Ratings,
		RatingMin:      cfg.Feedback.RatingMin,
		RatingMax:      cfg.Feedback.RatingMax,
	})
	analyticsService := service.NewAnalyticsService(feedback)

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}
	var reportService service.ReportService
	if storageSvc != nil {
		reportService = service.NewReportService(analyticsService, storageSvc, service.ReportOptions{
			Bucket:    cfg.Storage.Bucket,
			KeyPrefix: cfg.Storage.KeyPrefix,
			URLTTL:    cfg.URLTTL(),
		})
	}

	var limiter *apphttp.RateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = apphttp.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		go limiter.Run(ctx, time.Minute)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Deps{
		Users:       userService,
		Feedback:    feedbackService,
		Analytics:   analyticsService,
		Reports:     reportService,
		Tokens:      auth.NewTokenService(cfg.Auth.JWTSecret, cfg.TokenTTL()),
		Logger:      logger,
		Limiter:     limiter,
		RequireAuth: cfg.Feedback.RequireAuth,
		DefaultTop:  cfg.Analytics.Top,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func configureLogger(logger *logrus.Logger, cfg config.Config) {
	if strings.EqualFold(cfg.Log.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

func openStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repository.UserRepository, repository.FeedbackRepository, func(), error) {
	switch cfg.Database.Driver {
	case "mongo":
		client, err := mongodb.Connect(ctx, cfg.Database.URI)
		if err != nil {
			return nil, nil, nil, err
		}
		db := client.Database(cfg.Database.Name)
		logger.Infof("using mongodb database %s", cfg.Database.Name)
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				logger.Warnf("mongodb disconnect: %v", err)
			}
		}
		return mongodb.NewUserRepository(db), mongodb.NewFeedbackRepository(db), closeFn, nil
	default:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Infof("using sqlite database %s", cfg.Database.Path)
		closeFn := func() {
			if err := db.Close(); err != nil {
				logger.Warnf("sqlite close: %v", err)
			}
		}
		return sqlite.NewUserRepository(db), sqlite.NewFeedbackRepository(db), closeFn, nil
	}
}

// buildStorage returns nil when no bucket is configured; report exports are
// disabled in that case.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("storage bucket not set, report exports disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
