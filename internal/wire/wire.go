//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"autopen-api/internal/application/braindump"
	"autopen-api/internal/application/chapter"
	"autopen-api/internal/application/export"
	appingestion "autopen-api/internal/application/ingestion"
	"autopen-api/internal/application/workflow"
	"autopen-api/internal/config"
	"autopen-api/internal/domain/repository"
	"autopen-api/internal/domain/service"
	infraingestion "autopen-api/internal/infrastructure/ingestion"
	"autopen-api/internal/infrastructure/llm"
	"autopen-api/internal/infrastructure/persistence/postgres"
	"autopen-api/internal/infrastructure/persistence/redis"
	"autopen-api/internal/interfaces/http/handler"
	"autopen-api/internal/interfaces/http/middleware"
	"autopen-api/internal/interfaces/http/router"
	wfchain "autopen-api/internal/workflow/chain"
	workflowport "autopen-api/internal/workflow/port"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		LLMSet,
		IngestionSet,
		ServiceSet,
		RouterSet,
	)
	return nil, nil, nil
}

// InitializeWorker 初始化异步执行器依赖
func InitializeWorker(ctx context.Context, cfg *config.Config) (*WorkerDeps, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		LLMSet,
		IngestionSet,
		ServiceSet,
		wire.Struct(new(WorkerDeps), "*"),
	)
	return nil, nil, nil
}

// InitializePostgresOnly 仅初始化 PostgreSQL 数据层（用于 bootstrap）
func InitializePostgresOnly(ctx context.Context, cfg *config.Config) (*PostgresOnlyDataLayer, func(), error) {
	wire.Build(
		PostgresSet,
		wire.Struct(new(PostgresOnlyDataLayer), "*"),
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewUserRepository,
	postgres.NewProjectRepository,
	postgres.NewBrainDumpRepository,
	postgres.NewIdeaRepository,
	postgres.NewEbookRepository,
	postgres.NewChapterRepository,
	postgres.NewJobRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.UserRepository), new(*postgres.UserRepository)),
	wire.Bind(new(repository.ProjectRepository), new(*postgres.ProjectRepository)),
	wire.Bind(new(repository.BrainDumpRepository), new(*postgres.BrainDumpRepository)),
	wire.Bind(new(repository.IdeaRepository), new(*postgres.IdeaRepository)),
	wire.Bind(new(repository.EbookRepository), new(*postgres.EbookRepository)),
	wire.Bind(new(repository.ChapterRepository), new(*postgres.ChapterRepository)),
	wire.Bind(new(repository.JobRepository), new(*postgres.JobRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewRateLimiter,
	redis.NewCache,
	ProvideSessionStore,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideMessagingProducer,
)

// LLMSet LLM 工厂与工作流链提供者集合
var LLMSet = wire.NewSet(
	llm.NewEinoFactory,
	wire.Bind(new(workflowport.ChatModelFactory), new(*llm.EinoFactory)),
	wfchain.NewAnalysisChain,
	wfchain.NewIdeaChain,
	wfchain.NewStructureChain,
	wfchain.NewChapterChain,
)

// IngestionSet 素材摄取提供者集合
var IngestionSet = wire.NewSet(
	ProvideTranscriptClient,
	wire.Bind(new(service.TranscriptFetcher), new(*infraingestion.TranscriptClient)),
	appingestion.NewFetchRegistry,
	infraingestion.NewPlainTextExtractor,
	wire.Bind(new(service.FileTextExtractor), new(*infraingestion.PlainTextExtractor)),
)

// ServiceSet 应用服务提供者集合
var ServiceSet = wire.NewSet(
	ProvideLLMConfig,
	ProvideWorkflowConfig,
	ProvideIngestionConfig,
	braindump.NewService,
	chapter.NewService,
	chapter.NewBatchRunner,
	workflow.NewMachine,
	workflow.NewResumer,
	ProvideDocumentRenderer,
	export.NewAssembler,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideAuthConfig,
	handler.NewHealthHandler,
	handler.NewAuthHandler,
	handler.NewProjectHandler,
	handler.NewWorkflowHandler,
	handler.NewBrainDumpHandler,
	handler.NewChapterHandler,
	handler.NewStreamHandler,
	handler.NewExportHandler,
	handler.NewJobHandler,
	handler.NewSessionHandler,
	wire.Struct(new(router.RouterHandlers), "*"),
	router.NewWithDeps,
)
