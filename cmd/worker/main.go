// Command worker consumes per-engine job queues and drives the
// transcription engines.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"github.com/skillsenselab/scribeq/internal/config"
	"github.com/skillsenselab/scribeq/internal/engines"
	"github.com/skillsenselab/scribeq/internal/jobs"
	"github.com/skillsenselab/scribeq/internal/logger"
	"github.com/skillsenselab/scribeq/internal/observability"
	"github.com/skillsenselab/scribeq/internal/queue"
	"github.com/skillsenselab/scribeq/internal/redis"
	"github.com/skillsenselab/scribeq/internal/storage"
	"github.com/skillsenselab/scribeq/internal/worker"
)

const serviceName = "worker"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		logger.NewDefault(serviceName).Fatal("config load failed", logger.Fields("error", err.Error()))
	}

	log := logger.New(&cfg.Logging, serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := observability.Init(ctx, cfg.Metrics)
	if err != nil {
		log.Fatal("metrics setup failed", logger.Fields("error", err.Error()))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownMetrics(shutdownCtx)
	}()

	metrics, err := observability.NewJobMetrics()
	if err != nil {
		log.Fatal("metrics setup failed", logger.Fields("error", err.Error()))
	}

	redisClient, err := redis.New(cfg.Redis, log)
	if err != nil {
		log.Fatal("redis connect failed", logger.Fields("error", err.Error()))
	}
	defer redisClient.Close() //nolint:errcheck

	conn, err := amqp.Dial(cfg.Queue.URL)
	if err != nil {
		log.Fatal("broker connect failed", logger.Fields("error", err.Error()))
	}
	defer conn.Close() //nolint:errcheck

	uploads, err := storage.NewUploads(cfg.Uploads.Dir)
	if err != nil {
		log.Fatal("upload store setup failed", logger.Fields("error", err.Error()))
	}

	store := jobs.NewRedisStore(redisClient, cfg.Jobs.TerminalTTL)
	registry := engines.NewRegistry(cfg.Engines)
	w := worker.New(store, registry, uploads, metrics, log)

	group, groupCtx := errgroup.WithContext(ctx)
	for _, engine := range cfg.Worker.Engines {
		consumer, err := queue.NewConsumer(conn, cfg.Queue, engine, w, log)
		if err != nil {
			log.Fatal("consumer setup failed", logger.Fields("engine", engine, "error", err.Error()))
		}
		group.Go(func() error {
			defer consumer.Close() //nolint:errcheck
			return consumer.Start(groupCtx)
		})
	}

	log.Info("worker running", logger.Fields("engines", cfg.Worker.Engines))
	if err := group.Wait(); err != nil {
		log.Fatal("worker failed", logger.Fields("error", err.Error()))
	}
	log.Info("worker stopped")
}
