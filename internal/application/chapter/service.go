package chapter

import (
	"context"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"autopen-api/internal/config"
	"autopen-api/internal/domain/entity"
	"autopen-api/internal/domain/repository"
	wfchain "autopen-api/internal/workflow/chain"
	wfmodel "autopen-api/internal/workflow/model"
	"autopen-api/internal/workflow/node"
	apperrors "autopen-api/pkg/errors"
	"autopen-api/pkg/logger"
	"autopen-api/pkg/metrics"
)

var tracer = otel.Tracer("chapter")

// 新建手动章节的样板内容
const manualChapterStub = "Write this chapter here."

// AddMode 新增章节模式
type AddMode string

const (
	AddModeManual AddMode = "manual"
	AddModeAI     AddMode = "ai"
)

// Service 章节生成服务：单章生成、批量生成、编辑、增删与进度
type Service struct {
	projects repository.ProjectRepository
	ebooks   repository.EbookRepository
	chapters repository.ChapterRepository
	gen      *wfchain.ChapterChain
	llmCfg   *config.LLMConfig
	locks    *keyedMutex
}

// NewService 创建章节服务
func NewService(
	projects repository.ProjectRepository,
	ebooks repository.EbookRepository,
	chapters repository.ChapterRepository,
	gen *wfchain.ChapterChain,
	llmCfg *config.LLMConfig,
) *Service {
	return &Service{
		projects: projects,
		ebooks:   ebooks,
		chapters: chapters,
		gen:      gen,
		llmCfg:   llmCfg,
		locks:    newKeyedMutex(),
	}
}

// GenerateOptions 生成参数
type GenerateOptions struct {
	Provider string
	Model    string
}

// Generate 生成单章内容。
// 同一章节的并发生成被拒绝；失败时章节回滚到生成前的状态，已有内容不受影响。
func (s *Service) Generate(ctx context.Context, chapterID string, opts *GenerateOptions) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "chapter.Service.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("chapter.id", chapterID))

	if !s.locks.TryLock(chapterID) {
		return nil, apperrors.ErrChapterGenerating
	}
	defer s.locks.Unlock(chapterID)

	ch, err := s.chapters.GetByID(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if ch.IsGenerating() {
		return nil, apperrors.ErrChapterGenerating
	}

	ebook, err := s.ebooks.GetByID(ctx, ch.EbookID)
	if err != nil {
		return nil, err
	}

	ch, err = s.generateLocked(ctx, ebook, ch, opts, "single")
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// generateLocked 生成核心；调用方必须已持有章节锁
func (s *Service) generateLocked(ctx context.Context, ebook *entity.Ebook, ch *entity.Chapter, opts *GenerateOptions, mode string) (*entity.Chapter, error) {
	if opts == nil {
		opts = &GenerateOptions{}
	}
	provider := strings.TrimSpace(opts.Provider)
	if provider == "" {
		provider = s.llmCfg.DefaultProvider
	}

	snap := ch.StartGenerating()
	if err := s.chapters.Update(ctx, ch); err != nil {
		return nil, err
	}

	started := time.Now()
	content, err := s.invokeChain(ctx, ebook, ch, provider, opts.Model)
	metrics.ChapterGenerationDuration.WithLabelValues(mode).Observe(time.Since(started).Seconds())

	if err != nil {
		ch.FailGeneration(snap)
		if uerr := s.chapters.Update(ctx, ch); uerr != nil {
			logger.Error(ctx, "failed to reset chapter after generation failure", uerr, "chapter_id", ch.ID)
		}
		metrics.ChapterGenerationTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	ch.CompleteGeneration(content)
	if err := s.chapters.Update(ctx, ch); err != nil {
		return nil, err
	}

	metrics.ChapterGenerationTotal.WithLabelValues("success").Inc()
	metrics.ChapterWordCount.WithLabelValues(mode).Observe(float64(ch.WordCount))
	logger.Info(ctx, "chapter generated",
		"chapter_id", ch.ID, "ebook_id", ch.EbookID, "words", ch.WordCount)
	return ch, nil
}

// invokeChain 调用模型生成章节正文，前置章节按序作为上下文
func (s *Service) invokeChain(ctx context.Context, ebook *entity.Ebook, ch *entity.Chapter, provider, model string) (string, error) {
	previous, err := s.previousChapters(ctx, ch)
	if err != nil {
		return "", err
	}

	msg, err := s.gen.Invoke(ctx, &wfmodel.ChapterGenerateInput{
		EbookTitle:       ebook.Title,
		EbookDescription: ebook.Description,
		ChapterTitle:     ch.Title,
		ChapterSummary:   ch.Summary,
		PreviousChapters: previous,
		Provider:         provider,
		Model:            model,
	})
	if err != nil {
		return "", node.ClassifyLLMError(err)
	}

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return "", apperrors.ErrLLMEmptyResult.WithDetail("model returned empty chapter content")
	}
	return content, nil
}

// previousChapters 收集该章之前已生成章节的内容，按 order_index 升序
func (s *Service) previousChapters(ctx context.Context, ch *entity.Chapter) ([]wfmodel.PreviousChapter, error) {
	all, err := s.chapters.ListByEbook(ctx, ch.EbookID)
	if err != nil {
		return nil, err
	}
	previous := make([]wfmodel.PreviousChapter, 0, len(all))
	for _, other := range all {
		if other.OrderIndex >= ch.OrderIndex {
			continue
		}
		if !other.IsGenerated() || other.Content == nil {
			continue
		}
		previous = append(previous, wfmodel.PreviousChapter{
			Title:   other.Title,
			Content: *other.Content,
		})
	}
	return previous, nil
}

// BatchResult 批量生成结果
type BatchResult struct {
	Generated []*entity.Chapter
	// FailedChapterID 首个失败章节；批量在此中止
	FailedChapterID string
	Err             error
}

// GenerateAllPending 依 order_index 升序逐章生成全部 pending 章节。
// 首个失败即中止，已完成的章节保持不变。
func (s *Service) GenerateAllPending(ctx context.Context, ebookID string, opts *GenerateOptions) (*BatchResult, error) {
	return s.generateAllPending(ctx, ebookID, opts, nil)
}

// generateAllPending 批量生成核心；progress 非 nil 时上报完成比例
func (s *Service) generateAllPending(ctx context.Context, ebookID string, opts *GenerateOptions, progress func(done, total int)) (*BatchResult, error) {
	ctx, span := tracer.Start(ctx, "chapter.Service.GenerateAllPending")
	defer span.End()

	ebook, err := s.ebooks.GetByID(ctx, ebookID)
	if err != nil {
		return nil, err
	}

	all, err := s.chapters.ListByEbook(ctx, ebookID)
	if err != nil {
		return nil, err
	}

	pending := make([]*entity.Chapter, 0, len(all))
	for _, ch := range all {
		if ch.Status == entity.ChapterStatusPending {
			pending = append(pending, ch)
		}
	}

	result := &BatchResult{}
	for i, ch := range pending {
		if err := ctx.Err(); err != nil {
			result.FailedChapterID = ch.ID
			result.Err = err
			return result, nil
		}

		if !s.locks.TryLock(ch.ID) {
			result.FailedChapterID = ch.ID
			result.Err = apperrors.ErrChapterGenerating
			return result, nil
		}
		generated, err := s.generateLocked(ctx, ebook, ch, opts, "batch")
		s.locks.Unlock(ch.ID)

		if err != nil {
			result.FailedChapterID = ch.ID
			result.Err = err
			return result, nil
		}
		result.Generated = append(result.Generated, generated)
		if progress != nil {
			progress(i+1, len(pending))
		}
	}
	return result, nil
}

// Edit 编辑章节内容：原样保存（允许为空串），状态置为 generated。
// 生成中的章节拒绝编辑。
func (s *Service) Edit(ctx context.Context, chapterID, content string) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "chapter.Service.Edit")
	defer span.End()

	if !s.locks.TryLock(chapterID) {
		return nil, apperrors.ErrChapterGenerating
	}
	defer s.locks.Unlock(chapterID)

	ch, err := s.chapters.GetByID(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if ch.IsGenerating() {
		return nil, apperrors.ErrChapterGenerating
	}

	ch.UpdateContent(content)
	if err := s.chapters.Update(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// AddInput 新增章节输入
type AddInput struct {
	Title string
	Mode  AddMode

	Provider string
	Model    string
}

// Add 新增章节，序号为当前最大序号加一。
// manual 模式立即带样板内容置为 generated；ai 模式创建后立刻生成。
func (s *Service) Add(ctx context.Context, ebookID string, in *AddInput) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "chapter.Service.Add")
	defer span.End()

	if in == nil || strings.TrimSpace(in.Title) == "" {
		return nil, apperrors.ErrValidationFailed.WithDetail("chapter title is required")
	}
	if in.Mode != AddModeManual && in.Mode != AddModeAI {
		return nil, apperrors.ErrValidationFailed.WithDetail("mode must be manual or ai")
	}

	ebook, err := s.ebooks.GetByID(ctx, ebookID)
	if err != nil {
		return nil, err
	}

	next, err := s.chapters.GetNextOrderIndex(ctx, ebookID)
	if err != nil {
		return nil, err
	}

	if in.Mode == AddModeManual {
		ch := entity.NewManualChapter(ebookID, in.Title, manualChapterStub, next)
		if err := s.chapters.Create(ctx, ch); err != nil {
			return nil, err
		}
		return ch, nil
	}

	ch := entity.NewChapter(ebookID, in.Title, "", next)
	if err := s.chapters.Create(ctx, ch); err != nil {
		return nil, err
	}

	if !s.locks.TryLock(ch.ID) {
		return nil, apperrors.ErrChapterGenerating
	}
	defer s.locks.Unlock(ch.ID)
	return s.generateLocked(ctx, ebook, ch, &GenerateOptions{Provider: in.Provider, Model: in.Model}, "single")
}

// Delete 删除章节；电子书的最后一章拒绝删除，余下章节不重排
func (s *Service) Delete(ctx context.Context, chapterID string) error {
	ctx, span := tracer.Start(ctx, "chapter.Service.Delete")
	defer span.End()

	if !s.locks.TryLock(chapterID) {
		return apperrors.ErrChapterGenerating
	}
	defer s.locks.Unlock(chapterID)

	ch, err := s.chapters.GetByID(ctx, chapterID)
	if err != nil {
		return err
	}
	if ch.IsGenerating() {
		return apperrors.ErrChapterGenerating
	}

	total, err := s.chapters.CountByEbook(ctx, ch.EbookID)
	if err != nil {
		return err
	}
	if total <= 1 {
		return apperrors.ErrLastChapter
	}

	return s.chapters.Delete(ctx, chapterID)
}

// Progress 章节生成进度，读取时派生
type Progress struct {
	Total        int64   `json:"total"`
	Completed    int64   `json:"completed"`
	Percent      float64 `json:"percent"`
	AllGenerated bool    `json:"all_generated"`
}

// GetProgress 统计电子书的生成进度
func (s *Service) GetProgress(ctx context.Context, ebookID string) (*Progress, error) {
	ctx, span := tracer.Start(ctx, "chapter.Service.GetProgress")
	defer span.End()

	total, err := s.chapters.CountByEbook(ctx, ebookID)
	if err != nil {
		return nil, err
	}
	completed, err := s.chapters.CountByStatus(ctx, ebookID, entity.ChapterStatusGenerated)
	if err != nil {
		return nil, err
	}

	p := &Progress{Total: total, Completed: completed}
	if total > 0 {
		p.Percent = math.Round(float64(completed) / float64(total) * 100)
		p.AllGenerated = completed == total
	}
	return p, nil
}

// StreamGenerate 以流式方式生成单章。
// 调用方负责消费并关闭返回的 StreamReader，结束后调用 finish
// 落库最终内容；失败结束把章节回滚到生成前的状态。
func (s *Service) StreamGenerate(ctx context.Context, chapterID string, opts *GenerateOptions) (*StreamSession, error) {
	ctx, span := tracer.Start(ctx, "chapter.Service.StreamGenerate")
	defer span.End()

	if !s.locks.TryLock(chapterID) {
		return nil, apperrors.ErrChapterGenerating
	}

	ch, err := s.chapters.GetByID(ctx, chapterID)
	if err != nil {
		s.locks.Unlock(chapterID)
		return nil, err
	}
	if ch.IsGenerating() {
		s.locks.Unlock(chapterID)
		return nil, apperrors.ErrChapterGenerating
	}

	ebook, err := s.ebooks.GetByID(ctx, ch.EbookID)
	if err != nil {
		s.locks.Unlock(chapterID)
		return nil, err
	}

	if opts == nil {
		opts = &GenerateOptions{}
	}
	provider := strings.TrimSpace(opts.Provider)
	if provider == "" {
		provider = s.llmCfg.DefaultProvider
	}

	previous, err := s.previousChapters(ctx, ch)
	if err != nil {
		s.locks.Unlock(chapterID)
		return nil, err
	}

	snap := ch.StartGenerating()
	if err := s.chapters.Update(ctx, ch); err != nil {
		s.locks.Unlock(chapterID)
		return nil, err
	}

	reader, err := s.gen.Stream(ctx, &wfmodel.ChapterGenerateInput{
		EbookTitle:       ebook.Title,
		EbookDescription: ebook.Description,
		ChapterTitle:     ch.Title,
		ChapterSummary:   ch.Summary,
		PreviousChapters: previous,
		Provider:         provider,
		Model:            opts.Model,
	})
	if err != nil {
		ch.FailGeneration(snap)
		if uerr := s.chapters.Update(ctx, ch); uerr != nil {
			logger.Error(ctx, "failed to reset chapter after stream start failure", uerr, "chapter_id", ch.ID)
		}
		s.locks.Unlock(chapterID)
		return nil, node.ClassifyLLMError(err)
	}

	return &StreamSession{
		Reader:   reader,
		svc:      s,
		chapter:  ch,
		snapshot: snap,
	}, nil
}
