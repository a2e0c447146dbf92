package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"threadwatch.app/scout/common/id"
	"threadwatch.app/scout/common/llm"
	"threadwatch.app/scout/common/logger"
	"threadwatch.app/scout/common/otel"
	"threadwatch.app/scout/core/config"
	"threadwatch.app/scout/core/db"
	"threadwatch.app/scout/internal/approval"
	"threadwatch.app/scout/internal/bot"
	"threadwatch.app/scout/internal/cache"
	"threadwatch.app/scout/internal/delivery"
	"threadwatch.app/scout/internal/engine"
	"threadwatch.app/scout/internal/monitor"
	"threadwatch.app/scout/internal/platform"
	"threadwatch.app/scout/internal/queue"
	"threadwatch.app/scout/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeScout)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "scout daemon starting",
		"env", cfg.Env,
		"poll_interval", cfg.Monitoring.PollInterval,
		"channels", len(cfg.Monitoring.Channels))

	// Different node ID than the server, both may run on one host
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	redisOpts, err := redis.ParseURL(cfg.Cache.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Actions.Stream)

	var events bot.EventRecorder
	if cfg.DB.Enabled() {
		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer database.Close()
		events = store.NewEventLog(database)
		slog.InfoContext(ctx, "database connected, analytics trail enabled")
	} else {
		slog.InfoContext(ctx, "no database configured, analytics trail disabled")
	}

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:      cfg.Actions.Stream,
		Group:       cfg.Actions.Group,
		Consumer:    cfg.Actions.Consumer,
		DLQStream:   cfg.Actions.DLQStream,
		BatchSize:   10,
		Block:       5 * time.Second,
		MaxAttempts: 3,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create action consumer", "error", err)
		os.Exit(1)
	}

	invoker, err := buildInvoker(cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build invoker", "error", err)
		os.Exit(1)
	}

	client := platform.NewClient(cfg.Monitoring, cfg.Notify)
	ranker := monitor.NewRanker(cfg.Monitoring, client)
	eng := engine.New(cfg.Engine, cfg.Quality, invoker)
	approvals := approval.NewStore(cfg.Approval.MaxPending)
	answered := cache.NewAnsweredCache(redisClient, cfg.Cache.AnswerTTLDays)
	notifier := delivery.NewNotifier(client, cfg.Monitoring.OwnerUserID)

	b := bot.New(bot.NewConfig(cfg), ranker, eng, approvals, answered, notifier, consumer, events)

	errCh := make(chan error, 1)
	go func() {
		errCh <- b.Run(ctx)
	}()

	slog.InfoContext(ctx, "scout initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down scout...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		b.Stop()
		close(done)
	}()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case <-done:
		if err := <-errCh; err != nil {
			slog.ErrorContext(ctx, "bot error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "scout shutdown complete")
}

func buildInvoker(cfg config.Config) (engine.Invoker, error) {
	switch cfg.Engine.Backend {
	case "cli":
		return engine.NewCLIInvoker(cfg.Engine.CLIPath), nil
	case "llm":
		client, err := llm.New(llm.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("building llm client: %w", err)
		}
		return engine.NewLLMInvoker(client), nil
	default:
		return nil, fmt.Errorf("unknown engine backend %q", cfg.Engine.Backend)
	}
}

const banner = `
███████╗ ██████╗ ██████╗ ██╗   ██╗████████╗
██╔════╝██╔════╝██╔═══██╗██║   ██║╚══██╔══╝
███████╗██║     ██║   ██║██║   ██║   ██║
╚════██║██║     ██║   ██║██║   ██║   ██║
███████║╚██████╗╚██████╔╝╚██████╔╝   ██║
╚══════╝ ╚═════╝ ╚═════╝  ╚═════╝    ╚═╝
`
