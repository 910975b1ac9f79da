// Package main 异步生成执行器入口（gen-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"autopen-api/internal/config"
	"autopen-api/internal/infrastructure/messaging"
	einoobs "autopen-api/internal/observability/eino"
	"autopen-api/internal/wire"
	"autopen-api/pkg/logger"
	"autopen-api/pkg/tracer"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "gen-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(ctx) }()

	einoobs.Init()

	deps, cleanup, err := wire.InitializeWorker(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize worker", err)
	}
	defer cleanup()

	streamCfg := cfg.Messaging.RedisStream
	backoff := messaging.BackoffConfig{
		Initial:    streamCfg.RetryBackoff.Initial,
		Max:        streamCfg.RetryBackoff.Max,
		Multiplier: streamCfg.RetryBackoff.Multiplier,
	}

	genConsumer := messaging.NewConsumer(deps.RedisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamEbookGen,
		Group:         messaging.ConsumerGroupGenWorker,
		ConsumerName:  hostnameConsumerName(),
		BlockTimeout:  streamCfg.BlockTimeout,
		ClaimInterval: streamCfg.ClaimInterval,
		RetryLimit:    streamCfg.RetryLimit,
		Backoff:       backoff,
	})

	genConsumer.RegisterHandler(messaging.TypeEbookBatchGen, func(ctx context.Context, msg *messaging.Message) error {
		var payload messaging.BatchGenJobMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}
		return deps.BatchRunner.Process(ctx, &payload)
	})

	analysisConsumer := messaging.NewConsumer(deps.RedisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamAnalysis,
		Group:         messaging.ConsumerGroupAnalysisWorker,
		ConsumerName:  hostnameConsumerName(),
		BlockTimeout:  streamCfg.BlockTimeout,
		ClaimInterval: streamCfg.ClaimInterval,
		RetryLimit:    streamCfg.RetryLimit,
		Backoff:       backoff,
	})

	analysisConsumer.RegisterHandler(messaging.TypeBrainDumpAnalysis, func(ctx context.Context, msg *messaging.Message) error {
		var payload messaging.AnalysisJobMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}
		return deps.BrainDump.ProcessAnalysisJob(ctx, &payload)
	})

	if err := genConsumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start gen consumer", err)
	}
	if err := analysisConsumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start analysis consumer", err)
	}

	go genConsumer.MonitorDLQ(ctx, 100)
	go analysisConsumer.MonitorDLQ(ctx, 100)

	log := logger.FromContext(ctx)
	log.Info("gen-worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("gen-worker shutting down")
	analysisConsumer.Stop()
	genConsumer.Stop()
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
