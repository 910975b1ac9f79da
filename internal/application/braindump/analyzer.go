package braindump

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"autopen-api/internal/domain/entity"
	wfchain "autopen-api/internal/workflow/chain"
	wfmodel "autopen-api/internal/workflow/model"
	"autopen-api/internal/workflow/node"
	apperrors "autopen-api/pkg/errors"
	"autopen-api/pkg/logger"
	"autopen-api/pkg/metrics"
)

// 强制完成时摘要取原始内容的前若干字符
const forcedSummaryRunes = 500

// AnalyzeOptions 分析参数
type AnalyzeOptions struct {
	Provider string
	Model    string
}

// AnalyzeResult 分析结果：更新后的素材与生成的构思
type AnalyzeResult struct {
	Dump  *entity.BrainDump
	Ideas []*entity.Idea
	// Degraded LLM 分析未按时完成或产出为空，结果由现有内容合成
	Degraded bool
}

// Analyze 同步分析：校验最小内容、等待在途字幕、调用 LLM 产出
// 主题结构与备选构思，并推进项目到构思选择步骤。
//
// 失败语义：最小内容不足与 LLM 认证失败是致命的（回退状态并报错）；
// 其余 LLM 失败与空产出走降级路径（合成结果 + 占位构思）。
// 超过软阈值记录进度，超过硬上限以现有内容强制完成。
func (s *Service) Analyze(ctx context.Context, projectID, ownerID string, opts *AnalyzeOptions) (*AnalyzeResult, error) {
	ctx, span := tracer.Start(ctx, "braindump.Service.Analyze")
	defer span.End()

	project, err := s.projects.GetByIDForOwner(ctx, projectID, ownerID)
	if err != nil {
		return nil, err
	}

	result, err := s.analyzeProject(ctx, project, opts, nil)
	if err != nil {
		metrics.BrainDumpAnalysisTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if result.Degraded {
		metrics.BrainDumpAnalysisTotal.WithLabelValues("degraded").Inc()
	} else {
		metrics.BrainDumpAnalysisTotal.WithLabelValues("success").Inc()
	}
	return result, nil
}

// analyzeProject 分析核心；progress 非 nil 时上报阶段进度（异步任务用）
func (s *Service) analyzeProject(ctx context.Context, project *entity.Project, opts *AnalyzeOptions, progress func(int)) (*AnalyzeResult, error) {
	if opts == nil {
		opts = &AnalyzeOptions{}
	}
	provider := strings.TrimSpace(opts.Provider)
	if provider == "" {
		provider = s.llmCfg.DefaultProvider
	}

	report := func(p int) {
		if progress != nil {
			progress(p)
		}
	}

	dump, err := s.dumps.GetByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	files, err := s.dumps.ListFiles(ctx, dump.ID)
	if err != nil {
		return nil, err
	}
	links, err := s.dumps.ListLinks(ctx, dump.ID)
	if err != nil {
		return nil, err
	}

	if err := s.checkMinimumContent(dump, files, links); err != nil {
		return nil, err
	}
	report(10)

	if err := s.waitForTranscripts(ctx, links, s.transcriptTimeout()); err != nil {
		return nil, err
	}
	// 等待可能改变链接状态，重读拿到落定后的字幕
	links, err = s.dumps.ListLinks(ctx, dump.ID)
	if err != nil {
		return nil, err
	}
	report(30)

	dump.StartAnalysis()
	if err := s.dumps.Update(ctx, dump); err != nil {
		return nil, err
	}

	analyzed, degraded, err := s.runAnalysis(ctx, project, dump, files, links, provider, opts.Model)
	if err != nil {
		dump.RevertToSaved()
		if uerr := s.dumps.Update(ctx, dump); uerr != nil {
			logger.Error(ctx, "failed to revert brain dump after analysis failure", uerr)
		}
		return nil, err
	}
	report(60)

	dump.CompleteAnalysis(analyzed)
	if err := s.dumps.Update(ctx, dump); err != nil {
		return nil, err
	}

	ideas, ideasDegraded, err := s.generateIdeas(ctx, project, analyzed, provider, opts.Model)
	if err != nil {
		return nil, err
	}
	report(90)

	if err := s.replaceIdeas(ctx, project.ID, ideas); err != nil {
		return nil, err
	}

	if err := s.projects.UpdateStep(ctx, project.ID, "idea-selection"); err != nil {
		return nil, err
	}
	metrics.WorkflowTransitionsTotal.WithLabelValues("brain-dump", "idea-selection", "forward").Inc()
	report(100)

	return &AnalyzeResult{
		Dump:     dump,
		Ideas:    ideas,
		Degraded: degraded || ideasDegraded,
	}, nil
}

// checkMinimumContent 最小内容校验：内容非空；无附件时至少 MinWordCount 词
func (s *Service) checkMinimumContent(dump *entity.BrainDump, files []*entity.BrainDumpFile, links []*entity.BrainDumpLink) error {
	if strings.TrimSpace(dump.RawContent) == "" {
		return apperrors.ErrInsufficientContent.WithDetail("brain dump content is empty")
	}

	minWords := s.wfCfg.MinWordCount
	if minWords <= 0 {
		minWords = 50
	}
	if len(files) == 0 && len(links) == 0 && dump.WordCount() < minWords {
		return apperrors.ErrInsufficientContent.WithDetail(
			fmt.Sprintf("need at least %d words without attachments, got %d", minWords, dump.WordCount()))
	}
	return nil
}

// runAnalysis 执行 LLM 分析，受软阈值/硬上限双重计时约束。
// 认证失败致命；其余失败与超时走强制完成，返回 degraded 结果。
func (s *Service) runAnalysis(ctx context.Context, project *entity.Project, dump *entity.BrainDump, files []*entity.BrainDumpFile, links []*entity.BrainDumpLink, provider, model string) (*entity.AnalyzedContent, bool, error) {
	tt := NewTimeoutTracker(s.wfCfg.AnalysisSoftTimeout, s.wfCfg.AnalysisHardTimeout, s.now)

	type chainResult struct {
		out *wfmodel.AnalysisOutput
		err error
	}
	resultCh := make(chan chainResult, 1)

	chainCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		msg, err := s.analysis.Invoke(chainCtx, &wfmodel.AnalysisInput{
			ProjectTitle: project.Title,
			RawContent:   dump.RawContent,
			Attachments:  buildAttachments(files, links),
			Provider:     provider,
			Model:        model,
		})
		if err != nil {
			resultCh <- chainResult{err: node.ClassifyLLMError(err)}
			return
		}
		out, err := wfchain.ParseAnalysisOutput(msg)
		resultCh <- chainResult{out: out, err: err}
	}()

	softTimer := time.NewTimer(tt.SoftRemaining())
	defer softTimer.Stop()
	hardTimer := time.NewTimer(tt.HardRemaining())
	defer hardTimer.Stop()

	for {
		select {
		case res := <-resultCh:
			if res.err != nil {
				if apperrors.IsCode(res.err, apperrors.CodeLLMAuthFailed) {
					return nil, false, res.err
				}
				logger.Warn(ctx, "analysis degraded", "error", res.err, "state", string(tt.State()))
				return forcedAnalyzedContent(dump), true, nil
			}
			return &entity.AnalyzedContent{
				Summary: res.out.Summary,
				Topics:  toEntityTopics(res.out.Topics),
			}, false, nil

		case <-softTimer.C:
			logger.Info(ctx, "analysis still working past soft timeout",
				"project_id", project.ID, "elapsed", s.wfCfg.AnalysisSoftTimeout.String())

		case <-hardTimer.C:
			cancel()
			logger.Warn(ctx, "analysis forced to complete at hard ceiling", "project_id", project.ID)
			return forcedAnalyzedContent(dump), true, nil

		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

// forcedAnalyzedContent 以现有内容合成降级分析结果
func forcedAnalyzedContent(dump *entity.BrainDump) *entity.AnalyzedContent {
	summary := strings.TrimSpace(dump.RawContent)
	runes := []rune(summary)
	if len(runes) > forcedSummaryRunes {
		summary = string(runes[:forcedSummaryRunes])
	}
	return &entity.AnalyzedContent{
		Summary:  summary,
		Topics:   []entity.AnalyzedTopic{},
		Degraded: true,
	}
}

func toEntityTopics(topics []wfmodel.AnalysisTopic) []entity.AnalyzedTopic {
	out := make([]entity.AnalyzedTopic, 0, len(topics))
	for _, t := range topics {
		out = append(out, entity.AnalyzedTopic{Title: t.Title, KeyPoints: t.KeyPoints})
	}
	return out
}

// buildAttachments 汇总文件文本与链接字幕作为分析附件
func buildAttachments(files []*entity.BrainDumpFile, links []*entity.BrainDumpLink) []wfmodel.SourceAttachment {
	attachments := make([]wfmodel.SourceAttachment, 0, len(files)+len(links))
	for _, f := range files {
		if strings.TrimSpace(f.ExtractedText) == "" {
			continue
		}
		attachments = append(attachments, wfmodel.SourceAttachment{
			Name:    f.FileName,
			Content: f.ExtractedText,
		})
	}
	for _, l := range links {
		if l.TranscriptStatus != entity.TranscriptStatusFetched || strings.TrimSpace(l.Transcript) == "" {
			continue
		}
		name := l.Title
		if name == "" {
			name = l.URL
		}
		attachments = append(attachments, wfmodel.SourceAttachment{
			Name:    name,
			Content: l.Transcript,
		})
	}
	return attachments
}

// generateIdeas 生成备选构思；空产出或非致命失败合成占位构思
func (s *Service) generateIdeas(ctx context.Context, project *entity.Project, analyzed *entity.AnalyzedContent, provider, model string) ([]*entity.Idea, bool, error) {
	count := s.wfCfg.IdeaCount
	if count <= 0 {
		count = 3
	}

	msg, err := s.ideaGen.Invoke(ctx, &wfmodel.IdeaGenerateInput{
		ProjectTitle:    project.Title,
		AnalysisSummary: analyzed.Summary,
		Topics:          toModelTopics(analyzed.Topics),
		IdeaCount:       count,
		Provider:        provider,
		Model:           model,
	})
	if err != nil {
		classified := node.ClassifyLLMError(err)
		if apperrors.IsCode(classified, apperrors.CodeLLMAuthFailed) {
			return nil, false, classified
		}
		logger.Warn(ctx, "idea generation degraded, synthesizing placeholders", "error", classified)
		return s.placeholderIdeas(project, analyzed, count), true, nil
	}

	out, err := wfchain.ParseIdeaOutput(msg)
	if err != nil || len(out.Ideas) == 0 {
		logger.Warn(ctx, "idea generation returned no usable ideas", "error", err)
		return s.placeholderIdeas(project, analyzed, count), true, nil
	}

	ideas := make([]*entity.Idea, 0, len(out.Ideas))
	for _, gi := range out.Ideas {
		idea := entity.NewIdea(project.ID, gi.Title, gi.Description)
		idea.SourceData = marshalSourceData(analyzed)
		ideas = append(ideas, idea)
	}
	return ideas, false, nil
}

// placeholderIdeas 占位构思：保证构思选择步骤总有可选项
func (s *Service) placeholderIdeas(project *entity.Project, analyzed *entity.AnalyzedContent, count int) []*entity.Idea {
	ideas := make([]*entity.Idea, 0, count)
	for _, topic := range analyzed.Topics {
		if len(ideas) >= count {
			break
		}
		idea := entity.NewIdea(project.ID, topic.Title,
			"An ebook exploring "+topic.Title+" based on your brain dump.")
		ideas = append(ideas, idea)
	}
	if len(ideas) == 0 {
		idea := entity.NewIdea(project.ID, project.Title+": A Practical Guide",
			"An ebook developed from your brain dump content.")
		ideas = append(ideas, idea)
	}
	return ideas
}

func toModelTopics(topics []entity.AnalyzedTopic) []wfmodel.AnalysisTopic {
	out := make([]wfmodel.AnalysisTopic, 0, len(topics))
	for _, t := range topics {
		out = append(out, wfmodel.AnalysisTopic{Title: t.Title, KeyPoints: t.KeyPoints})
	}
	return out
}

func marshalSourceData(analyzed *entity.AnalyzedContent) json.RawMessage {
	data, err := json.Marshal(analyzed)
	if err != nil {
		return nil
	}
	return data
}

// replaceIdeas 重新分析时以新构思整体替换旧构思
func (s *Service) replaceIdeas(ctx context.Context, projectID string, ideas []*entity.Idea) error {
	if err := s.ideas.DeleteByProject(ctx, projectID); err != nil {
		return err
	}
	return s.ideas.CreateBatch(ctx, ideas)
}

func (s *Service) transcriptTimeout() time.Duration {
	// 字幕等待与单次抓取共用同一个上限
	if s.ingCfg != nil && s.ingCfg.TranscriptTimeout > 0 {
		return s.ingCfg.TranscriptTimeout
	}
	return 30 * time.Second
}
