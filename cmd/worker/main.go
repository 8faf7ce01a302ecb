// Command worker consumes activity events from Kafka and persists them as
// audit rows. It is the only writer of the activity trail; the API and CLI
// publish events and read the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relayops/leadtrack/internal/application/activity"
	"github.com/relayops/leadtrack/internal/config"
	"github.com/relayops/leadtrack/internal/infrastructure/database/postgres"
	"github.com/relayops/leadtrack/internal/infrastructure/database/postgres/repositories"
	"github.com/relayops/leadtrack/internal/infrastructure/messaging/kafka"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/prometheus"
)

const defaultConfigPath = "configs/config.yaml"

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	healthPort := flag.Int("health-port", 0, "health endpoint port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *healthPort > 0 {
		cfg.Worker.HealthPort = *healthPort
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
	log = log.Named("worker")

	if err := run(cfg, log); err != nil {
		log.Fatal("worker exited", logging.Err(err))
	}
}

// loadConfig reads the file at path, falling back to environment variables
// when the file does not exist.
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

func run(cfg *config.Config, log logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := postgres.NewConnection(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer conn.Close()

	actSvc := activity.NewService(repositories.NewActivityRepository(conn.Pool(), log), log)

	var (
		appMetrics     *prometheus.AppMetrics
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			Subsystem:            "worker",
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, log)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		appMetrics = prometheus.NewAppMetrics(collector)
		metricsHandler = collector.Handler()
	}

	if cfg.Kafka.AutoCreateTopics {
		if err := ensureTopics(ctx, cfg.Kafka, log); err != nil {
			log.Warn("could not ensure kafka topics", logging.Err(err))
		}
	}

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:         cfg.Kafka.Brokers,
		GroupID:         cfg.Kafka.GroupID,
		Topics:          []string{kafka.TopicActivityEvents},
		AutoOffsetReset: cfg.Kafka.AutoOffsetReset,
		CommitInterval:  cfg.Worker.CommitInterval,
		Concurrency:     cfg.Worker.Concurrency,
		Retry: kafka.RetryConfig{
			MaxRetries:      cfg.Worker.MaxRetries,
			RetryBackoff:    cfg.Worker.RetryBackoff,
			DeadLetterTopic: kafka.TopicActivityDeadLetter,
		},
	}, log)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	defer consumer.Close()

	consumer.Subscribe(kafka.TopicActivityEvents, recordActivity(actSvc, appMetrics, log))

	healthSrv := startHealthServer(cfg.Worker.HealthPort, conn, metricsHandler, cfg.Metrics.Path, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		healthSrv.Shutdown(shutdownCtx)
	}()

	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	log.Info("worker running",
		logging.String("version", version),
		logging.String("group", cfg.Kafka.GroupID),
		logging.Int("health_port", cfg.Worker.HealthPort))

	<-ctx.Done()

	log.Info("shutting down")
	if err := consumer.Close(); err != nil {
		return fmt.Errorf("close consumer: %w", err)
	}
	stats := consumer.GetMetrics()
	log.Info("worker stopped",
		logging.Int64("processed", stats.MessagesProcessed),
		logging.Int64("failed", stats.MessagesFailed),
		logging.Int64("dead_lettered", stats.MessagesDeadLettered))
	return nil
}

// recordActivity maps one consumed activity event onto an audit row. Errors
// propagate to the consumer, which retries and eventually dead-letters.
func recordActivity(svc activity.Service, metrics *prometheus.AppMetrics, log logging.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg *kafka.Message) error {
		start := time.Now()

		env, err := kafka.MessageToEventEnvelope(msg)
		if err != nil {
			prometheus.RecordActivityWrite(metrics, msg.Topic, false, time.Since(start))
			return err
		}
		var payload kafka.ActivityEventPayload
		if err := env.DecodePayload(&payload); err != nil {
			prometheus.RecordActivityWrite(metrics, msg.Topic, false, time.Since(start))
			return err
		}

		_, err = svc.Record(ctx, &activity.RecordInput{
			ActorID:    payload.ActorID,
			Action:     payload.Action,
			EntityType: payload.EntityType,
			EntityID:   payload.EntityID,
			Detail:     payload.Detail,
			OccurredAt: payload.OccurredAt,
		})
		prometheus.RecordActivityWrite(metrics, msg.Topic, err == nil, time.Since(start))
		if err != nil {
			return err
		}

		log.Debug("activity recorded",
			logging.String("event_id", env.EventID),
			logging.String("action", payload.Action))
		return nil
	}
}

// ensureTopics creates the activity topics when the broker does not have
// them yet.
func ensureTopics(ctx context.Context, cfg config.KafkaConfig, log logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Brokers, log)
	if err != nil {
		return err
	}
	defer tm.Close()
	return tm.EnsureDefaultTopics(ctx, cfg.NumPartitions, cfg.ReplicationFactor)
}

// startHealthServer serves the liveness and readiness probes, plus the
// metrics endpoint when metrics are enabled. Readiness checks the database,
// since a worker that cannot write rows should not receive traffic signals.
func startHealthServer(port int, conn *postgres.Connection, metricsHandler http.Handler, metricsPath string, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := conn.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})
	if metricsHandler != nil {
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		mux.Handle(metricsPath, metricsHandler)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	go func() {
		log.Info("health server listening", logging.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server error", logging.Err(err))
		}
	}()
	return srv
}
