package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoosight/config"
	"github.com/yoockh/yoosight/internal/api/handlers"
	"github.com/yoockh/yoosight/internal/api/middleware"
	"github.com/yoockh/yoosight/internal/api/routes"
	"github.com/yoockh/yoosight/internal/automation"
	"github.com/yoockh/yoosight/internal/bus"
	"github.com/yoockh/yoosight/internal/cache"
	"github.com/yoockh/yoosight/internal/capture"
	"github.com/yoockh/yoosight/internal/logger"
	"github.com/yoockh/yoosight/internal/overlay"
	"github.com/yoockh/yoosight/internal/providers/llm"
	"github.com/yoockh/yoosight/internal/providers/permission"
	mongorepo "github.com/yoockh/yoosight/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yoosight/internal/repositories/postgres"
	"github.com/yoockh/yoosight/internal/services"
	"github.com/yoockh/yoosight/internal/speech"
	"github.com/yoockh/yoosight/internal/storage"
)

func main() {
	_ = godotenv.Load()

	settings, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config load failed")
	}
	log := logger.New(settings.LogLevel)
	log.WithFields(settings.LogFields()).Info("starting yoosight")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is shared by the event bus and the snapshot cache.
	var rdb *redis.Client
	if settings.RedisURL != "" {
		rdb, err = config.NewRedis(ctx, settings.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("redis init failed")
		}
		defer rdb.Close()
		log.Info("Redis connected")
	}

	var events bus.Bus
	if settings.EventBus == config.EventBusRedis {
		events = bus.NewRedisBus(rdb, settings.EventChannel, log)
	} else {
		events = bus.NewMemoryBus(log)
	}
	defer events.Close()

	// Frames
	local, err := storage.NewLocalFrameStore(settings.FrameDir)
	if err != nil {
		log.WithError(err).Fatal("frame dir init failed")
	}
	var frames storage.FrameStore = local
	if settings.FrameArchiveBucket != "" {
		uploader, err := storage.NewGCSUploader(ctx, settings.FrameArchiveBucket)
		if err != nil {
			log.WithError(err).Fatal("gcs init failed")
		}
		defer uploader.Close()
		frames = storage.NewArchivingFrameStore(local, uploader, "frames", log)
	}

	projector := &capture.FileProjector{Path: settings.CaptureSourceFile}
	captures := capture.NewService(projector, frames, events, capture.WorkerConfig{
		MaxEdge:     settings.FrameMaxEdge,
		JPEGQuality: settings.FrameJPEGQuality,
	}, log)

	// Model
	var provider llm.Provider
	if settings.APIKey != "" {
		provider, err = llm.NewGeminiAPI(ctx, settings.APIKey, settings.Model, settings.Temperature)
	} else {
		provider, err = llm.NewVertexGemini(ctx, settings.VertexProjectID, settings.VertexLocation, settings.Model, settings.Temperature)
	}
	if err != nil {
		log.WithError(err).Fatal("llm init failed")
	}
	defer provider.Close()

	analysis := services.NewAnalysisService(frames, provider, settings.AnalysisTimeout, log)

	// Overlay and feedback
	hub := overlay.NewHub(log)
	var speaker services.Speaker = hub
	if settings.SpeechOutput == config.SpeechOutputLocal {
		speaker = speech.NewCommandSpeaker(settings.TTSCommand, log)
	}
	feedback := services.NewFeedbackService(hub, speaker, hub, settings.SpeechRate, log)

	var permissions services.PermissionRequester
	if settings.PermissionMode == config.PermissionModeAuto {
		permissions = permission.NewAutoGrant(events)
	} else {
		permissions = permission.NewOverlay(hub)
	}

	// History
	var sessions mongorepo.SessionRepository
	if settings.MongoURI != "" {
		mc, err := config.NewMongo(ctx, settings.MongoURI)
		if err != nil {
			log.WithError(err).Fatal("mongo init failed")
		}
		defer mc.Disconnect(context.Background())
		db := mc.Database(settings.MongoDB)
		if err := config.EnsureMongoIndexes(ctx, db); err != nil {
			log.WithError(err).Warn("mongo index setup failed")
		}
		sessions = mongorepo.NewSessionRepo(db)
		log.Info("MongoDB connected")
	}

	var descriptions pgrepo.DescriptionRepo
	if settings.PostgresURI != "" {
		db, err := config.NewPostgres(settings.PostgresURI)
		if err != nil {
			log.WithError(err).Fatal("postgres init failed")
		}
		descriptions = pgrepo.NewDescriptionRepo(db)
		log.Info("PostgreSQL connected")
	}

	var snapshots cache.Cache
	if rdb != nil {
		snapshots = cache.NewRedisCache(rdb, "yoosight:")
	}
	history := services.NewHistoryService(sessions, descriptions, snapshots, log)

	coord := services.NewCoordinator(services.CoordinatorConfig{
		Language:          func() string { return settings.Language },
		PermissionTimeout: settings.PermissionTimeout,
		CaptureTimeout:    settings.CaptureTimeout,
		AnalysisTimeout:   settings.AnalysisTimeout,
	}, services.CoordinatorDeps{
		Events:      events,
		Permissions: permissions,
		Capture:     captures,
		Analysis:    analysis,
		Feedback:    feedback,
		Frames:      frames,
		Log:         log,
	})
	coord.Observe(history.Observe)
	coord.Observe(hub.PublishTransition)

	autoConfirm := automation.NewAutoConfirm(settings.AutoConfirm, settings.ConsentMarker, hub, log)

	coordDone := make(chan error, 1)
	go func() { coordDone <- coord.Run(ctx) }()

	// HTTP
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Session:   handlers.NewSessionHandler(coord, history),
		WS:        handlers.NewWSHandler(hub, coord, autoConfirm, log),
		JWTSecret: settings.OverlayJWTSecret,
	})

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", settings.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server failed")
			stop()
		}
	}()

	var coordErr error
	coordExited := false
	select {
	case <-ctx.Done():
	case coordErr = <-coordDone:
		coordExited = true
		stop()
	}
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown failed")
	}
	if !coordExited {
		coordErr = <-coordDone
	}
	if coordErr != nil {
		log.WithError(coordErr).Error("coordinator stopped with error")
	}

	feedback.Close()
	history.Close()
	hub.Close()
}
