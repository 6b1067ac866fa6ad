// Command api serves the transcription submission and status endpoints.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/skillsenselab/scribeq/internal/config"
	"github.com/skillsenselab/scribeq/internal/engines"
	"github.com/skillsenselab/scribeq/internal/jobs"
	"github.com/skillsenselab/scribeq/internal/logger"
	"github.com/skillsenselab/scribeq/internal/queue"
	"github.com/skillsenselab/scribeq/internal/redis"
	"github.com/skillsenselab/scribeq/internal/server"
	"github.com/skillsenselab/scribeq/internal/storage"
)

const serviceName = "api"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		logger.NewDefault(serviceName).Fatal("config load failed", logger.Fields("error", err.Error()))
	}

	log := logger.New(&cfg.Logging, serviceName)

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

	publisher, err := queue.NewPublisher(conn, cfg.Queue, log)
	if err != nil {
		log.Fatal("publisher setup failed", logger.Fields("error", err.Error()))
	}
	defer publisher.Close() //nolint:errcheck

	uploads, err := storage.NewUploads(cfg.Uploads.Dir)
	if err != nil {
		log.Fatal("upload store setup failed", logger.Fields("error", err.Error()))
	}

	store := jobs.NewRedisStore(redisClient, cfg.Jobs.TerminalTTL)
	registry := engines.NewRegistry(cfg.Engines)
	service := jobs.NewService(store, uploads, publisher, registry, cfg.Uploads.AllowedFormats, log)

	srv := server.New(cfg.Server, service, redisClient, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", logger.Fields("error", err.Error()))
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatal("server failed", logger.Fields("error", err.Error()))
	}
	log.Info("api stopped")
}
