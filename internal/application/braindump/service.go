package braindump

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"autopen-api/internal/application/ingestion"
	"autopen-api/internal/config"
	"autopen-api/internal/domain/entity"
	"autopen-api/internal/domain/repository"
	"autopen-api/internal/domain/service"
	"autopen-api/internal/infrastructure/messaging"
	"autopen-api/internal/workflow/chain"
	apperrors "autopen-api/pkg/errors"
	"autopen-api/pkg/logger"
	"autopen-api/pkg/metrics"
)

var tracer = otel.Tracer("braindump")

// 抓取超时的对外文案，落在 transcript_error 字段
const transcriptTimeoutReason = "transcript fetch timed out"

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
}

// Service 脑暴素材服务：内容保存、附件与链接摄取、LLM 分析编排
type Service struct {
	projects  repository.ProjectRepository
	dumps     repository.BrainDumpRepository
	ideas     repository.IdeaRepository
	jobs      repository.JobRepository
	fetches   *ingestion.FetchRegistry
	extractor service.FileTextExtractor
	producer  *messaging.Producer
	analysis  *chain.AnalysisChain
	ideaGen   *chain.IdeaChain
	llmCfg    *config.LLMConfig
	wfCfg     *config.WorkflowConfig
	ingCfg    *config.IngestionConfig
	now       func() time.Time

	mu      sync.Mutex
	pending map[string]chan struct{}
}

// NewService 创建脑暴素材服务
func NewService(
	projects repository.ProjectRepository,
	dumps repository.BrainDumpRepository,
	ideas repository.IdeaRepository,
	jobs repository.JobRepository,
	fetches *ingestion.FetchRegistry,
	extractor service.FileTextExtractor,
	producer *messaging.Producer,
	analysis *chain.AnalysisChain,
	ideaGen *chain.IdeaChain,
	llmCfg *config.LLMConfig,
	wfCfg *config.WorkflowConfig,
	ingCfg *config.IngestionConfig,
) *Service {
	return &Service{
		projects:  projects,
		dumps:     dumps,
		ideas:     ideas,
		jobs:      jobs,
		fetches:   fetches,
		extractor: extractor,
		producer:  producer,
		analysis:  analysis,
		ideaGen:   ideaGen,
		llmCfg:    llmCfg,
		wfCfg:     wfCfg,
		ingCfg:    ingCfg,
		now:       time.Now,
		pending:   make(map[string]chan struct{}),
	}
}

// GetOrCreate 获取项目的脑暴素材，不存在时创建空素材
func (s *Service) GetOrCreate(ctx context.Context, projectID, ownerID string) (*entity.BrainDump, error) {
	ctx, span := tracer.Start(ctx, "braindump.Service.GetOrCreate")
	defer span.End()

	if _, err := s.projects.GetByIDForOwner(ctx, projectID, ownerID); err != nil {
		return nil, err
	}

	dump, err := s.dumps.GetByProject(ctx, projectID)
	if err == nil {
		return dump, nil
	}
	if !apperrors.IsCode(err, apperrors.CodeBrainDumpNotFound) {
		return nil, err
	}

	dump = entity.NewBrainDump(projectID)
	if err := s.dumps.Create(ctx, dump); err != nil {
		return nil, err
	}
	return dump, nil
}

// SaveContent 保存脑暴原始内容
func (s *Service) SaveContent(ctx context.Context, projectID, ownerID, content string) (*entity.BrainDump, error) {
	ctx, span := tracer.Start(ctx, "braindump.Service.SaveContent")
	defer span.End()

	dump, err := s.GetOrCreate(ctx, projectID, ownerID)
	if err != nil {
		return nil, err
	}

	dump.SaveContent(content)
	if err := s.dumps.Update(ctx, dump); err != nil {
		return nil, err
	}
	return dump, nil
}

// AddFile 附加文件：抽取文本后落库
func (s *Service) AddFile(ctx context.Context, projectID, ownerID, fileName string, data []byte) (*entity.BrainDumpFile, error) {
	ctx, span := tracer.Start(ctx, "braindump.Service.AddFile")
	defer span.End()

	if strings.TrimSpace(fileName) == "" {
		return nil, apperrors.ErrValidationFailed.WithDetail("file name is required")
	}

	dump, err := s.GetOrCreate(ctx, projectID, ownerID)
	if err != nil {
		return nil, err
	}

	extracted, err := s.extractor.Extract(ctx, fileName, data)
	if err != nil {
		return nil, apperrors.ErrInternalError.WithDetail("failed to extract file text").WithError(err)
	}

	file := &entity.BrainDumpFile{
		BrainDumpID:   dump.ID,
		FileName:      fileName,
		FileSize:      int64(len(data)),
		FileType:      classifyFileType(fileName),
		ExtractedText: extracted.Text,
		CreatedAt:     s.now(),
	}
	if err := s.dumps.CreateFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// RemoveFile 移除附件文件
func (s *Service) RemoveFile(ctx context.Context, projectID, ownerID, fileID string) error {
	ctx, span := tracer.Start(ctx, "braindump.Service.RemoveFile")
	defer span.End()

	dump, err := s.GetOrCreate(ctx, projectID, ownerID)
	if err != nil {
		return err
	}

	file, err := s.dumps.GetFileByID(ctx, fileID)
	if err != nil {
		return err
	}
	if file.BrainDumpID != dump.ID {
		return apperrors.ErrNotFound.WithDetail("file does not belong to this project")
	}
	return s.dumps.DeleteFile(ctx, fileID)
}

// AddLink 附加链接：识别类型、创建 loading 记录并在后台抓取字幕。
// 同一视频的并发抓取经由 FetchRegistry 合并。
func (s *Service) AddLink(ctx context.Context, projectID, ownerID, rawURL string) (*entity.BrainDumpLink, error) {
	ctx, span := tracer.Start(ctx, "braindump.Service.AddLink")
	defer span.End()

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, apperrors.ErrValidationFailed.WithDetail("url is required")
	}

	dump, err := s.GetOrCreate(ctx, projectID, ownerID)
	if err != nil {
		return nil, err
	}

	linkType := ingestion.DetectLinkType(rawURL)
	link := entity.NewBrainDumpLink(dump.ID, rawURL, linkType)
	if linkType == entity.LinkTypeYouTube {
		link.ThumbnailURL = ingestion.ThumbnailURL(ingestion.ExtractYouTubeID(rawURL))
	}

	if err := s.dumps.CreateLink(ctx, link); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.pending[link.ID] = done
	s.mu.Unlock()

	// 抓取不依赖请求生命周期，超时由抓取器自身的 deadline 保证
	go s.fetchTranscript(context.WithoutCancel(ctx), link, done)

	return link, nil
}

// fetchTranscript 后台抓取字幕并落库恰好一次的状态转移
func (s *Service) fetchTranscript(ctx context.Context, link *entity.BrainDumpLink, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		delete(s.pending, link.ID)
		s.mu.Unlock()
		close(done)
	}()

	result, err := s.fetches.Fetch(ctx, link.URL, string(link.LinkType))
	if err != nil {
		reason := "transcript fetch failed"
		if apperrors.IsCode(err, apperrors.CodeTranscriptTimeout) {
			reason = transcriptTimeoutReason
		} else if appErr := apperrors.AsAppError(err); appErr != nil && appErr.Detail != "" {
			reason = appErr.Detail
		}
		s.settleLink(ctx, link.ID, func(l *entity.BrainDumpLink) bool {
			return l.MarkFailed(reason)
		})
		return
	}

	s.settleLink(ctx, link.ID, func(l *entity.BrainDumpLink) bool {
		if !l.MarkFetched(result.Transcript) {
			return false
		}
		if l.Title == "" {
			l.Title = result.Title
		}
		if l.ThumbnailURL == "" {
			l.ThumbnailURL = result.ThumbnailURL
		}
		return true
	})
}

// settleLink 读取最新链接状态后应用一次性转移；已离开 loading 则放弃
func (s *Service) settleLink(ctx context.Context, linkID string, apply func(*entity.BrainDumpLink) bool) {
	link, err := s.dumps.GetLinkByID(ctx, linkID)
	if err != nil {
		logger.Warn(ctx, "link vanished before transcript settled", "link_id", linkID, "error", err)
		return
	}
	if !apply(link) {
		return
	}
	if err := s.dumps.UpdateLink(ctx, link); err != nil {
		logger.Error(ctx, "failed to persist transcript result", err, "link_id", linkID)
	}
}

// RemoveLink 移除附件链接
func (s *Service) RemoveLink(ctx context.Context, projectID, ownerID, linkID string) error {
	ctx, span := tracer.Start(ctx, "braindump.Service.RemoveLink")
	defer span.End()

	dump, err := s.GetOrCreate(ctx, projectID, ownerID)
	if err != nil {
		return err
	}

	link, err := s.dumps.GetLinkByID(ctx, linkID)
	if err != nil {
		return err
	}
	if link.BrainDumpID != dump.ID {
		return apperrors.ErrLinkNotFound
	}
	return s.dumps.DeleteLink(ctx, linkID)
}

// waitForTranscripts 等待 loading 链接落定，超时的链接置为终态 failed。
// 等待基于抓取完成信号而非轮询；进程重启后遗留的 loading 链接
// 没有在途抓取，直接按超时处理。
func (s *Service) waitForTranscripts(ctx context.Context, links []*entity.BrainDumpLink, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	g, waitCtx := errgroup.WithContext(waitCtx)
	timedOut := make([]*entity.BrainDumpLink, 0)

	for _, link := range links {
		if !link.IsLoading() {
			continue
		}
		s.mu.Lock()
		done, ok := s.pending[link.ID]
		s.mu.Unlock()
		if !ok {
			timedOut = append(timedOut, link)
			continue
		}
		g.Go(func() error {
			select {
			case <-done:
				return nil
			case <-waitCtx.Done():
				return waitCtx.Err()
			}
		})
	}

	waitErr := g.Wait()

	for _, link := range timedOut {
		s.settleLink(ctx, link.ID, func(l *entity.BrainDumpLink) bool {
			return l.MarkFailed(transcriptTimeoutReason)
		})
		metrics.TranscriptFetchTotal.WithLabelValues(string(link.LinkType), "timeout").Inc()
	}

	if waitErr != nil && ctx.Err() == nil {
		// 等待超时：把仍在 loading 的链接置为 failed，分析继续
		for _, link := range links {
			if !link.IsLoading() {
				continue
			}
			s.settleLink(ctx, link.ID, func(l *entity.BrainDumpLink) bool {
				return l.MarkFailed(transcriptTimeoutReason)
			})
		}
		return nil
	}
	return ctx.Err()
}

func classifyFileType(fileName string) entity.FileType {
	if imageExts[strings.ToLower(filepath.Ext(fileName))] {
		return entity.FileTypeImage
	}
	return entity.FileTypeDocument
}
