// Package wire 提供依赖注入配置
package wire

import (
	"autopen-api/internal/application/braindump"
	"autopen-api/internal/application/chapter"
	"autopen-api/internal/application/export"
	"autopen-api/internal/config"
	"autopen-api/internal/domain/repository"
	infraingestion "autopen-api/internal/infrastructure/ingestion"
	"autopen-api/internal/infrastructure/messaging"
	"autopen-api/internal/infrastructure/persistence/postgres"
	"autopen-api/internal/infrastructure/persistence/redis"
	"autopen-api/internal/interfaces/http/middleware"
)

// PostgresOnlyDataLayer 仅包含 PostgreSQL 的数据层（用于 bootstrap）
type PostgresOnlyDataLayer struct {
	PgClient    *postgres.Client
	TxManager   *postgres.TxManager
	UserRepo    *postgres.UserRepository
	ProjectRepo *postgres.ProjectRepository
}

// WorkerDeps 异步执行器依赖容器（用于 gen-worker）
type WorkerDeps struct {
	RedisClient *redis.Client
	BatchRunner *chapter.BatchRunner
	BrainDump   *braindump.Service
	JobRepo     repository.JobRepository
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideSessionStore 提供创作会话存储
func ProvideSessionStore(client *redis.Client, cfg *config.Config) *redis.SessionStore {
	return redis.NewSessionStore(client, cfg.Workflow.SessionTTL)
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	return messaging.NewProducer(redisClient.Redis(), int64(maxLen))
}

// ProvideTranscriptClient 提供字幕抓取客户端
func ProvideTranscriptClient(cfg *config.Config) *infraingestion.TranscriptClient {
	return infraingestion.NewTranscriptClient(&cfg.Ingestion)
}

// ProvideLLMConfig 提供 LLM 配置段
func ProvideLLMConfig(cfg *config.Config) *config.LLMConfig {
	return &cfg.LLM
}

// ProvideWorkflowConfig 提供工作流配置段
func ProvideWorkflowConfig(cfg *config.Config) *config.WorkflowConfig {
	return &cfg.Workflow
}

// ProvideIngestionConfig 提供摄取配置段
func ProvideIngestionConfig(cfg *config.Config) *config.IngestionConfig {
	return &cfg.Ingestion
}

// ProvideDocumentRenderer 提供富格式渲染器；当前仅支持 markdown 导出
func ProvideDocumentRenderer() export.DocumentRenderer {
	return nil
}

// ProvideAuthConfig 提供认证配置
func ProvideAuthConfig(cfg *config.Config) middleware.AuthConfig {
	return middleware.AuthConfig{
		Secret:    cfg.Security.JWT.Secret,
		Issuer:    cfg.Security.JWT.Issuer,
		SkipPaths: middleware.DefaultSkipPaths,
		Enabled:   true,
	}
}
