// Package main runs the quiz HTTP server with the attempt WebSocket and graceful shutdown.
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quizforge/backend/config"
	"github.com/quizforge/backend/internal/analytics"
	"github.com/quizforge/backend/internal/auth"
	"github.com/quizforge/backend/internal/extractor"
	"github.com/quizforge/backend/internal/generator"
	"github.com/quizforge/backend/internal/metrics"
	"github.com/quizforge/backend/internal/middleware"
	"github.com/quizforge/backend/internal/quizzes"
	"github.com/quizforge/backend/internal/realtime"
	"github.com/quizforge/backend/internal/results"
	"github.com/quizforge/backend/internal/session"
	"github.com/quizforge/backend/internal/worker"
	"github.com/quizforge/backend/pkg/database"
	"github.com/quizforge/backend/pkg/events"
	"github.com/quizforge/backend/pkg/queue"
	"github.com/quizforge/backend/pkg/redis"
	"github.com/quizforge/backend/pkg/response"
	"github.com/quizforge/backend/pkg/storage"
)

// stores groups the persistence layer for the configured driver.
type stores struct {
	users   auth.Store
	quizzes quizzes.Store
	results results.Store
	close   func()
}

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer st.close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()
	jobQueue := queue.NewQueue(rdb.Client, logger)

	artifacts, err := newArtifacts(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("upload storage", zap.Error(err))
	}

	completer, err := newCompleter(ctx, cfg.Generator)
	if err != nil {
		logger.Fatal("question generator", zap.Error(err))
	}
	if c, ok := completer.(io.Closer); ok {
		defer c.Close()
	}
	gen := generator.NewAdapter(generator.NewRetryCompleter(completer, cfg.Generator.MaxAttempts, time.Second, logger), logger)

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQP.URL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			logger.Warn("event publishing disabled", zap.Error(err))
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	// Analytics reads the stores directly so the services below can invalidate it.
	analyticsSvc := analytics.NewService(st.quizzes, st.results, analytics.NewRedisCache(rdb.Client), cfg.Analytics.CacheTTL, logger)

	quizSvc := quizzes.NewService(quizzes.Deps{
		Store:             st.quizzes,
		Generator:         gen,
		Extractor:         extractor.New(cfg.Uploads.MaxBytes),
		Artifacts:         artifacts,
		Cleanup:           jobQueue,
		Events:            publisher,
		Analytics:         analyticsSvc,
		DefaultDifficulty: cfg.Generator.DefaultDifficulty,
		MaxUploadBytes:    cfg.Uploads.MaxBytes,
		Logger:            logger,
	})
	resultSvc := results.NewService(st.results, st.quizzes, results.Options{
		VerifyCorrectness: cfg.Results.VerifyCorrectness,
		Events:            publisher,
		Analytics:         analyticsSvc,
	}, logger)

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	guard := auth.NewGuard(jwtService, st.users, logger)

	authHandler := auth.NewHandler(st.users, jwtService, logger)
	quizHandler := quizzes.NewHandler(quizSvc, logger)
	resultHandler := results.NewHandler(resultSvc, logger)
	attemptHandler := session.NewHandler(st.quizzes, resultSvc, logger)
	analyticsHandler := analytics.NewHandler(analyticsSvc, logger)
	attemptServer := realtime.NewServer(guard, st.quizzes, resultSvc, logger)

	generateLimit := middleware.RateLimit(rdb, "generate", cfg.RateLimit.GenerateLimit, cfg.RateLimit.GenerateWindow, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Auth (public)
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected API
	api := router.Group("/api")
	api.Use(middleware.Auth(guard, logger))
	{
		api.GET("/users/me", authHandler.Me)
		api.PATCH("/users/me", authHandler.UpdateMe)
		api.DELETE("/users/me", authHandler.DeleteMe)

		// Quizzes
		api.GET("/quizzes", quizHandler.List)
		api.POST("/quizzes", generateLimit, quizHandler.Create)
		api.POST("/quizzes/upload", generateLimit, quizHandler.Upload)
		api.POST("/quizzes/ai/generate-quiz", generateLimit, quizHandler.Generate)
		api.GET("/quizzes/:id", quizHandler.GetByID)
		api.PUT("/quizzes/:id", quizHandler.Update)
		api.DELETE("/quizzes/:id", quizHandler.Delete)

		// Results
		api.POST("/quiz-results", resultHandler.Submit)
		api.GET("/quiz-results", resultHandler.List)
		api.GET("/quiz-results/:id", resultHandler.GetByID)

		// Attempts (client holds the attempt between calls)
		api.POST("/attempts/start", attemptHandler.Start)
		api.POST("/attempts/answer", attemptHandler.Answer)
		api.POST("/attempts/tick", attemptHandler.Tick)
		api.POST("/attempts/complete", attemptHandler.Complete)

		api.GET("/analytics/me", analyticsHandler.Me)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws/attempts", attemptServer.ServeAttempt)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background cleanup of upload artifacts whose inline removal failed
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go worker.NewArtifactCleaner(artifacts, jobQueue, logger).Run(workerCtx)
	logger.Info("artifact cleaner started")

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Store.Driver == config.StoreDriverMongo {
		db, err := database.NewMongoDatabase(ctx, cfg.Mongo.URI, cfg.Mongo.Database, logger)
		if err != nil {
			return nil, err
		}
		users := auth.NewMongoRepository(db)
		quizRepo := quizzes.NewMongoRepository(db)
		resultRepo := results.NewMongoRepository(db)
		for _, ix := range []interface{ EnsureIndexes(context.Context) error }{users, quizRepo, resultRepo} {
			if err := ix.EnsureIndexes(ctx); err != nil {
				_ = db.Client().Disconnect(context.Background())
				return nil, err
			}
		}
		return &stores{
			users:   users,
			quizzes: quizRepo,
			results: resultRepo,
			close:   func() { _ = db.Client().Disconnect(context.Background()) },
		}, nil
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, err
	}
	return &stores{
		users:   auth.NewRepository(pool),
		quizzes: quizzes.NewRepository(pool),
		results: results.NewRepository(pool),
		close:   pool.Close,
	}, nil
}

func newArtifacts(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Artifacts, error) {
	if cfg.AWS.UploadsBucket == "" {
		return storage.NewDisk(cfg.Uploads.LocalDir)
	}
	return storage.NewS3(ctx, storage.S3Config{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		UploadsBucket:   cfg.AWS.UploadsBucket,
	}, logger)
}

func newCompleter(ctx context.Context, cfg config.GeneratorConfig) (generator.Completer, error) {
	if cfg.Provider == config.ProviderOpenAI {
		return generator.NewChatCompleter(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout), nil
	}
	return generator.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Timeout)
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
