package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
	"github.com/bouramah/GovTrack-sub006/internal/eventbus"
	"github.com/bouramah/GovTrack-sub006/internal/infra/config"
	"github.com/bouramah/GovTrack-sub006/internal/infra/database"
	kafkainfra "github.com/bouramah/GovTrack-sub006/internal/infra/kafka"
	"github.com/bouramah/GovTrack-sub006/internal/infra/logger"
	redisinfra "github.com/bouramah/GovTrack-sub006/internal/infra/redis"
	postgresrepo "github.com/bouramah/GovTrack-sub006/internal/repository/postgres"
	redisrepo "github.com/bouramah/GovTrack-sub006/internal/repository/redis"
	"github.com/bouramah/GovTrack-sub006/internal/transport/http/middleware"
	"github.com/bouramah/GovTrack-sub006/internal/transport/http/routes"
	"github.com/bouramah/GovTrack-sub006/internal/usecase"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if err := domain.ValidateCatalog(); err != nil {
		return nil, fmt.Errorf("validate permission catalog: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	var producer *kafkainfra.Producer
	var publisher port.NotificationPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			publisher = kafkainfra.NewStubPublisher(log)
		} else {
			publisher = kafkainfra.NewNotifier(producer, cfg.App, log)
			log.Info("kafka notifier initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		publisher = kafkainfra.NewStubPublisher(log)
	}

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: "govtrack:rate-limit",
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{
		Registerer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	bus := eventbus.New(log, prometheus.DefaultRegisterer)

	auditRecorder := usecase.NewAuditRecorder(repos.AuditLogs, log)
	authzService := usecase.NewAuthzService(repos.Permissions, repos.Entities, repos.Assignments, log)
	assignmentService := usecase.NewAssignmentService(repos.Assignments, repos.Users, authzService, auditRecorder, log)
	instructionService := usecase.NewInstructionService(repos.Instructions, assignmentService, authzService, auditRecorder, bus, log)
	taskService := usecase.NewTaskService(repos.Tasks, repos.Instructions, assignmentService, authzService, auditRecorder, log)
	lifecycleService := usecase.NewLifecycleService(repos.Lifecycle, repos.Instructions, repos.Tasks, authzService, bus, log)
	discussionService := usecase.NewDiscussionService(repos.Discussions, authzService, bus, log)
	entityService := usecase.NewEntityService(repos.Entities, repos.Users, authzService, auditRecorder, log)
	userService := usecase.NewUserService(repos.Users, repos.Roles, authzService, auditRecorder, log)
	roleService := usecase.NewRoleService(repos.Roles, repos.Permissions, authzService, auditRecorder, log)
	fanOut := usecase.NewNotificationFanOut(repos.Assignments, repos.Instructions, repos.Tasks, repos.Discussions, publisher, log)

	bus.Subscribe(auditRecorder.HandleEvent)
	bus.Subscribe(fanOut.HandleEvent)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Instructions: instructionService,
			Tasks:        taskService,
			Lifecycle:    lifecycleService,
			Assignments:  assignmentService,
			Discussions:  discussionService,
			Entities:     entityService,
			Users:        userService,
			Roles:        roleService,
			Authz:        authzService,
			Audit:        auditRecorder,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting instruction tracking API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
