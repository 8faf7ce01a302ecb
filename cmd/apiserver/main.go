// Command apiserver runs the LeadTrack HTTP API.
//
// It wires PostgreSQL, Redis, MinIO and Kafka into the application services
// and serves the REST interface plus health probes and Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/relayops/leadtrack/internal/application/activity"
	"github.com/relayops/leadtrack/internal/application/directory"
	"github.com/relayops/leadtrack/internal/application/reporting"
	"github.com/relayops/leadtrack/internal/application/tracking"
	"github.com/relayops/leadtrack/internal/config"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/database/postgres"
	"github.com/relayops/leadtrack/internal/infrastructure/database/postgres/repositories"
	"github.com/relayops/leadtrack/internal/infrastructure/database/redis"
	"github.com/relayops/leadtrack/internal/infrastructure/messaging/kafka"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/prometheus"
	"github.com/relayops/leadtrack/internal/infrastructure/storage/minio"
	httpserver "github.com/relayops/leadtrack/internal/interfaces/http"
	"github.com/relayops/leadtrack/internal/interfaces/http/handlers"
	"github.com/relayops/leadtrack/internal/interfaces/http/middleware"
)

const defaultConfigPath = "configs/config.yaml"

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	port := flag.Int("port", 0, "HTTP listen port (overrides config)")
	runMigrations := flag.Bool("migrate", false, "apply pending database migrations before serving")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	log, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log = log.Named("apiserver")

	if err := run(cfg, *runMigrations, log); err != nil {
		log.Fatal("server exited", logging.Err(err))
	}
}

// loadConfig reads the file at path, falling back to environment variables
// when the file does not exist. Both paths apply defaults and validate.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "config file %s not found, using environment\n", path)
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

func run(cfg *config.Config, migrate bool, log logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrate {
		log.Info("applying database migrations", logging.String("path", cfg.Database.MigrationPath))
		if err := postgres.RunMigrations(postgres.MigrationURL(cfg.Database), sourceURL(cfg.Database.MigrationPath)); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}

	conn, err := postgres.NewConnection(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer conn.Close()

	redisCli, err := redis.NewClient(cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisCli.Close()

	minioCli, err := minio.NewClient(cfg.MinIO, log)
	if err != nil {
		return fmt.Errorf("minio: %w", err)
	}
	if err := minioCli.EnsureBuckets(ctx); err != nil {
		return fmt.Errorf("minio buckets: %w", err)
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:                cfg.Kafka.Brokers,
		MaxRetries:             cfg.Kafka.ProducerRetries,
		BatchSize:              cfg.Kafka.BatchSize,
		AllowAutoTopicCreation: cfg.Kafka.AutoCreateTopics,
	}, log)
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	defer producer.Close()

	if cfg.Kafka.AutoCreateTopics {
		if err := ensureTopics(ctx, cfg.Kafka, log); err != nil {
			log.Warn("could not ensure kafka topics", logging.Err(err))
		}
	}
	events := kafka.NewActivityPublisher(producer, kafka.SourceAPI, log)

	var (
		appMetrics     *prometheus.AppMetrics
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, log)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		appMetrics = prometheus.NewAppMetrics(collector)
		metricsHandler = collector.Handler()
	}

	tokens, err := auth.NewTokenService(auth.ServiceConfig{
		Secret:          cfg.Auth.JWTSecret,
		Issuer:          cfg.Auth.Issuer,
		AccessTokenTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	})
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost, cfg.Auth.MinPasswordLen)
	sessions := redis.NewTokenStore(redisCli, log)

	pool := conn.Pool()
	userRepo := repositories.NewUserRepository(pool, log)
	profileRepo := repositories.NewProfileRepository(pool, log)
	leadGenRepo := repositories.NewLeadGenAssignmentRepository(pool, log)
	salesRepo := repositories.NewSalesAssignmentRepository(pool, log)
	targetRepo := repositories.NewTargetRepository(pool, log)
	progressRepo := repositories.NewProgressRepository(pool, log)
	leadRepo := repositories.NewLeadRepository(pool, log)
	reportRepo := repositories.NewReportRepository(pool, log)
	activityRepo := repositories.NewActivityRepository(pool, log)
	storage := minio.NewMinIORepository(minioCli, log)

	dirSvc, err := directory.NewService(directory.Config{
		Users:         userRepo,
		Profiles:      profileRepo,
		LeadGen:       leadGenRepo,
		Sales:         salesRepo,
		Tokens:        tokens,
		Passwords:     hasher,
		Sessions:      sessions,
		Storage:       storage,
		ResumeBucket:  minioCli.ResumeBucket(),
		MaxResumeSize: minioCli.MaxResumeSize(),
		Events:        events,
		Metrics:       appMetrics,
		Logger:        log,
	})
	if err != nil {
		return fmt.Errorf("directory service: %w", err)
	}

	trackSvc, err := tracking.NewService(tracking.Config{
		Targets:  targetRepo,
		Progress: progressRepo,
		Leads:    leadRepo,
		LeadGen:  leadGenRepo,
		Sales:    salesRepo,
		Events:   events,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("tracking service: %w", err)
	}

	actSvc := activity.NewService(activityRepo, log)

	htmlRenderer, err := reporting.NewHTMLRenderer(cfg.Reporting.TemplateDir, cfg.Reporting.WatchTemplates, log)
	if err != nil {
		return fmt.Errorf("html renderer: %w", err)
	}
	reportSvc, err := reporting.NewService(reporting.Config{
		Artifacts: reportRepo,
		Engine:    reporting.NewEngine(progressRepo, targetRepo, leadRepo, userRepo, profileRepo, log),
		Renderers: []reporting.Renderer{
			reporting.NewCSVRenderer(),
			reporting.NewDOCXRenderer(),
			htmlRenderer,
		},
		Storage:           storage,
		ReportBucket:      minioCli.ReportBucket(),
		GenerationTimeout: cfg.Reporting.GenerationTimeout,
		NewLock: func(name string) reporting.Lock {
			return redis.NewMutex(redisCli, name)
		},
		Events:  events,
		Metrics: appMetrics,
		Logger:  log,
	})
	if err != nil {
		return fmt.Errorf("reporting service: %w", err)
	}

	authMW := auth.NewMiddleware(tokens, log,
		auth.WithSkipPaths("/api/v1/auth/login", "/api/v1/auth/refresh"))

	var limiter middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		tb := middleware.NewTokenBucketLimiter(
			float64(cfg.RateLimit.RequestsPerMinute)/60.0,
			cfg.RateLimit.Burst,
			time.Minute,
		)
		defer tb.Stop()
		limiter = tb
	}

	var cors *middleware.CORSConfig
	if cfg.CORS.Enabled {
		cc := middleware.DefaultCORSConfig()
		cc.AllowedOrigins = cfg.CORS.AllowedOrigins
		cc.AllowCredentials = cfg.CORS.AllowCredentials
		if cfg.CORS.MaxAge > 0 {
			cc.MaxAge = cfg.CORS.MaxAge
		}
		cors = &cc
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Auth:        handlers.NewAuthHandler(dirSvc, log),
		Users:       handlers.NewUserHandler(dirSvc, log),
		Profiles:    handlers.NewProfileHandler(dirSvc, minioCli.MaxResumeSize(), log),
		Assignments: handlers.NewAssignmentHandler(dirSvc, log),
		Targets:     handlers.NewTargetHandler(trackSvc, log),
		Progress:    handlers.NewProgressHandler(trackSvc, log),
		Leads:       handlers.NewLeadHandler(trackSvc, log),
		Reports:     handlers.NewReportHandler(reportSvc, log),
		Activity:    handlers.NewActivityHandler(actSvc, log),
		Health: handlers.NewHealthHandler(version, appMetrics,
			handlers.NamedChecker("postgres", conn.HealthCheck),
			handlers.NamedChecker("redis", redisCli.HealthCheck),
			handlers.NamedChecker("minio", minioCli.HealthCheck),
		),

		AuthMiddleware: authMW,
		Enforcer:       auth.NewEnforcer(nil),

		Logger:         log,
		Metrics:        appMetrics,
		MetricsHandler: metricsHandler,
		MetricsPath:    cfg.Metrics.Path,

		RateLimiter: limiter,
		CORS:        cors,
	})

	srv := httpserver.NewServer(cfg.Server, router, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting api server",
			logging.Int("port", cfg.Server.Port),
			logging.String("version", version))
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// ensureTopics creates the activity topics when the broker does not have
// them yet. Failure here is not fatal; the producer can still publish once
// another instance creates them.
func ensureTopics(ctx context.Context, cfg config.KafkaConfig, log logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Brokers, log)
	if err != nil {
		return err
	}
	defer tm.Close()
	return tm.EnsureDefaultTopics(ctx, cfg.NumPartitions, cfg.ReplicationFactor)
}

// sourceURL accepts a plain directory or a full golang-migrate source URL.
func sourceURL(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return "file://" + path
}
