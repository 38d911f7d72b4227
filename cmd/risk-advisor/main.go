package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adrieliyo/risk-advisor-backend/common/database"
	"github.com/Adrieliyo/risk-advisor-backend/common/logger"
	commonmqtt "github.com/Adrieliyo/risk-advisor-backend/common/mqtt"
	commonredis "github.com/Adrieliyo/risk-advisor-backend/common/redis"
	"github.com/Adrieliyo/risk-advisor-backend/internal/config"
	"github.com/Adrieliyo/risk-advisor-backend/internal/consumer"
	httpapi "github.com/Adrieliyo/risk-advisor-backend/internal/http"
	"github.com/Adrieliyo/risk-advisor-backend/internal/lifecycle"
	"github.com/Adrieliyo/risk-advisor-backend/internal/notify"
	"github.com/Adrieliyo/risk-advisor-backend/internal/repository"
	"github.com/Adrieliyo/risk-advisor-backend/internal/service"
	"github.com/Adrieliyo/risk-advisor-backend/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.App.Name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Postgres when enabled and reachable, otherwise in-memory.
	var (
		db   *sql.DB
		repo repository.Store
	)
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			repo = repository.NewPostgresStore(db, log)
			log.Info("Database enabled", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Database))
		} else {
			log.Warn("Database enabled but connection failed, falling back to memory store", zap.Error(err))
		}
	}
	if repo == nil {
		repo = repository.NewMemoryStore()
	}

	var (
		redisClient *redis.Client
		kv          store.KV = store.NoopKV{}
		publishers  []notify.Publisher
	)
	if cfg.RedisEnabled {
		redisClient = commonredis.NewRedisClient(&cfg.Redis)
		if err := commonredis.Ping(ctx, redisClient); err != nil {
			log.Warn("Redis ping failed, continuing without cache", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		} else {
			kv = store.NewRedisKV(redisClient)
			publishers = append(publishers, notify.NewStreamPublisher(redisClient, cfg.Alerts.Stream))
		}
	}

	hub := notify.NewHub(cfg.HTTP.AllowedOrigins, log)
	go hub.Run(ctx)
	publishers = append(publishers, hub)

	if cfg.Alerts.WebhookURL != "" {
		publishers = append(publishers, notify.NewWebhookNotifier(cfg.Alerts.WebhookURL, cfg.Alerts.WebhookMinSeverity, cfg.App.Name, log))
	}
	publisher := notify.NewMultiPublisher(log, publishers...)

	lc := lifecycle.NewManager(repo, log)
	drivers := service.NewDriverService(repo, log)
	trips := service.NewTripService(repo, lc, kv, log)
	readings := service.NewReadingService(repo, lc, cfg.Thresholds, kv, cfg.LatestReadingTTL, publisher, log)
	alerts := service.NewAlertService(repo, log)

	var redisPinger httpapi.Pinger
	if redisClient != nil {
		redisPinger = httpapi.PingFunc(func(ctx context.Context) error { return commonredis.Ping(ctx, redisClient) })
	}

	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes(httpapi.NewHealthHandler(cfg.App.Name, cfg.App.Version, repo, redisPinger, log))
	router.RegisterDriverRoutes(httpapi.NewDriverHandler(drivers, trips, log))
	router.RegisterTripRoutes(httpapi.NewTripHandler(trips, readings, log))
	router.RegisterReadingRoutes(httpapi.NewReadingHandler(readings, log))
	router.RegisterAlertRoutes(httpapi.NewAlertHandler(alerts, log))
	router.RegisterLiveRoutes(hub.ServeWS)

	handler := httpapi.Chain(router,
		httpapi.Recovery(log),
		httpapi.RequestID(),
		httpapi.Logging(log),
		httpapi.CORS(cfg.HTTP.AllowedOrigins),
	)

	var (
		mqttClient *commonmqtt.Client
		mqttCons   *consumer.MQTTConsumer
	)
	if cfg.MQTTEnabled {
		if c, err := commonmqtt.NewClient(&cfg.MQTT, log); err == nil {
			mqttClient = c
			mqttCons = consumer.NewMQTTConsumer(mqttClient, readings, cfg.MQTT.Topic, cfg.MQTT.QoS, log)
			go func() {
				if err := mqttCons.Start(ctx); err != nil {
					log.Error("MQTT consumer stopped", zap.Error(err))
				}
			}()
		} else {
			log.Warn("MQTT enabled but connection failed, HTTP ingestion only", zap.Error(err))
		}
	}

	srv := service.NewServer(cfg.HTTP.Addr, handler, log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	if mqttCons != nil {
		_ = mqttCons.Stop()
	}
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = database.Close(db)
	}
}
