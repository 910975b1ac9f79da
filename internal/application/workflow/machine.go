package workflow

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"

	"autopen-api/internal/config"
	"autopen-api/internal/domain/entity"
	"autopen-api/internal/domain/repository"
	"autopen-api/internal/workflow/chain"
	wfmodel "autopen-api/internal/workflow/model"
	apperrors "autopen-api/pkg/errors"
	"autopen-api/pkg/logger"
	"autopen-api/pkg/metrics"
)

var tracer = otel.Tracer("workflow")

// Machine 创作流程状态机：解析当前步骤、校验步骤迁移、执行构思确认与定稿
type Machine struct {
	projects  repository.ProjectRepository
	dumps     repository.BrainDumpRepository
	ideas     repository.IdeaRepository
	ebooks    repository.EbookRepository
	chapters  repository.ChapterRepository
	tx        repository.Transactor
	structure *chain.StructureChain
	llmCfg    *config.LLMConfig
	wfCfg     *config.WorkflowConfig
}

// NewMachine 创建流程状态机
func NewMachine(
	projects repository.ProjectRepository,
	dumps repository.BrainDumpRepository,
	ideas repository.IdeaRepository,
	ebooks repository.EbookRepository,
	chapters repository.ChapterRepository,
	tx repository.Transactor,
	structure *chain.StructureChain,
	llmCfg *config.LLMConfig,
	wfCfg *config.WorkflowConfig,
) *Machine {
	return &Machine{
		projects:  projects,
		dumps:     dumps,
		ideas:     ideas,
		ebooks:    ebooks,
		chapters:  chapters,
		tx:        tx,
		structure: structure,
		llmCfg:    llmCfg,
		wfCfg:     wfCfg,
	}
}

// StepState 步骤解析结果
type StepState struct {
	Step    Step
	Project *entity.Project
}

// ResolveStep 解析项目当前步骤并按实体状态自动前进。
// 自动前进规则：已分析的脑暴且存在构思 ⇒ idea-selection；
// 存在电子书 ⇒ ebook-writing；电子书已定稿 ⇒ completed。
// 解析从不返回瞬态步骤。
func (m *Machine) ResolveStep(ctx context.Context, projectID, ownerID string) (*StepState, error) {
	ctx, span := tracer.Start(ctx, "workflow.Machine.ResolveStep")
	defer span.End()

	project, err := m.projects.GetByIDForOwner(ctx, projectID, ownerID)
	if err != nil {
		return nil, err
	}

	current, err := ParseStep(project.CurrentStep)
	if err != nil {
		// 历史数据中的未知步骤回退到入口
		logger.Warn(ctx, "unknown persisted step, resetting to creator", "step", project.CurrentStep)
		current = StepCreator
	}
	current = current.Normalize()

	resolved, err := m.autoAdvance(ctx, project, current)
	if err != nil {
		return nil, err
	}

	if resolved != Step(project.CurrentStep) {
		if err := m.projects.UpdateStep(ctx, project.ID, resolved.String()); err != nil {
			return nil, err
		}
		if stepOrder[resolved] > stepOrder[current] {
			metrics.WorkflowAutoAdvanceTotal.WithLabelValues(current.String(), resolved.String()).Inc()
		}
		project.CurrentStep = resolved.String()
	}

	return &StepState{Step: resolved, Project: project}, nil
}

// autoAdvance 依据实体状态计算项目可驻留的最远步骤
func (m *Machine) autoAdvance(ctx context.Context, project *entity.Project, current Step) (Step, error) {
	resolved := current

	ebook, err := m.ebooks.GetByProject(ctx, project.ID)
	if err != nil && !apperrors.IsCode(err, apperrors.CodeEbookNotFound) {
		return "", err
	}
	if ebook != nil {
		if ebook.IsComplete() {
			return StepCompleted, nil
		}
		if stepOrder[resolved] < stepOrder[StepEbookWriting] {
			resolved = StepEbookWriting
		}
		return resolved, nil
	}

	dump, err := m.dumps.GetByProject(ctx, project.ID)
	if err != nil && !apperrors.IsCode(err, apperrors.CodeBrainDumpNotFound) {
		return "", err
	}
	if dump != nil && dump.IsAnalyzed() {
		ideas, err := m.ideas.ListByProject(ctx, project.ID)
		if err != nil {
			return "", err
		}
		if len(ideas) > 0 && stepOrder[resolved] < stepOrder[StepIdeaSelection] {
			resolved = StepIdeaSelection
		}
	}

	return resolved, nil
}

// Transition 执行显式步骤迁移。
// 后退总是允许且不修改任何实体；前进需要满足目标步骤的门槛。
// completed 只能经由 Finalize 到达。
func (m *Machine) Transition(ctx context.Context, projectID, ownerID string, target Step) (*StepState, error) {
	ctx, span := tracer.Start(ctx, "workflow.Machine.Transition")
	defer span.End()

	if !target.IsValid() {
		return nil, apperrors.ErrValidationFailed.WithDetail("unknown workflow step: " + target.String())
	}
	target = target.Normalize()

	state, err := m.ResolveStep(ctx, projectID, ownerID)
	if err != nil {
		return nil, err
	}
	current := state.Step

	if target == current {
		return state, nil
	}

	if current.IsBackward(target) {
		if err := m.projects.UpdateStep(ctx, projectID, target.String()); err != nil {
			return nil, err
		}
		metrics.WorkflowTransitionsTotal.WithLabelValues(current.String(), target.String(), "backward").Inc()
		state.Step = target
		state.Project.CurrentStep = target.String()
		return state, nil
	}

	if err := m.checkForwardGate(ctx, state.Project, current, target); err != nil {
		metrics.WorkflowTransitionsTotal.WithLabelValues(current.String(), target.String(), "rejected").Inc()
		return nil, err
	}

	if err := m.projects.UpdateStep(ctx, projectID, target.String()); err != nil {
		return nil, err
	}
	metrics.WorkflowTransitionsTotal.WithLabelValues(current.String(), target.String(), "forward").Inc()
	state.Step = target
	state.Project.CurrentStep = target.String()
	return state, nil
}

// checkForwardGate 校验前进迁移的门槛
func (m *Machine) checkForwardGate(ctx context.Context, project *entity.Project, current, target Step) error {
	if target.Normalize() != current.NextOf() {
		return apperrors.ErrStepNotAllowed.WithDetail(
			"cannot skip from " + current.String() + " to " + target.String())
	}

	switch target {
	case StepBrainDump:
		if !project.ValidateTitle() {
			return apperrors.ErrValidationFailed.WithDetail("project title is required")
		}
		return nil

	case StepIdeaSelection:
		dump, err := m.dumps.GetByProject(ctx, project.ID)
		if err != nil {
			return apperrors.ErrStepNotAllowed.WithDetail("brain dump has not been analyzed")
		}
		if !dump.IsAnalyzed() {
			return apperrors.ErrStepNotAllowed.WithDetail("brain dump has not been analyzed")
		}
		return nil

	case StepEbookWriting:
		if _, err := m.ebooks.GetByProject(ctx, project.ID); err != nil {
			return apperrors.ErrStepNotAllowed.WithDetail("no ebook exists; commit an idea first")
		}
		return nil

	case StepEbookPreview:
		ebook, err := m.ebooks.GetByProject(ctx, project.ID)
		if err != nil {
			return apperrors.ErrStepNotAllowed.WithDetail("no ebook exists")
		}
		total, err := m.chapters.CountByEbook(ctx, ebook.ID)
		if err != nil {
			return err
		}
		generated, err := m.chapters.CountByStatus(ctx, ebook.ID, entity.ChapterStatusGenerated)
		if err != nil {
			return err
		}
		if total == 0 || generated < total {
			return apperrors.ErrEbookNotReady
		}
		return nil

	case StepCompleted:
		return apperrors.ErrStepNotAllowed.WithDetail("use finalize to complete the workflow")

	default:
		return apperrors.ErrStepNotAllowed
	}
}

// CommitIdeaInput 构思确认输入：二选一，选中已有构思或提交自定义构思
type CommitIdeaInput struct {
	IdeaID string

	CustomTitle       string
	CustomDescription string

	Provider string
	Model    string
}

// CommitIdea 确认构思：生成电子书结构（标题、描述、章节大纲），
// 在单个事务中创建电子书与全部 pending 章节，并推进到 ebook-writing。
// 结构生成失败时不创建任何实体，也不推进步骤。
func (m *Machine) CommitIdea(ctx context.Context, projectID, ownerID string, in *CommitIdeaInput) (*entity.Ebook, error) {
	ctx, span := tracer.Start(ctx, "workflow.Machine.CommitIdea")
	defer span.End()

	project, err := m.projects.GetByIDForOwner(ctx, projectID, ownerID)
	if err != nil {
		return nil, err
	}

	if existing, err := m.ebooks.GetByProject(ctx, projectID); err == nil && existing != nil {
		return nil, apperrors.ErrConflict.WithDetail("project already has an ebook")
	}

	idea, err := m.resolveIdea(ctx, projectID, in)
	if err != nil {
		return nil, err
	}

	provider := in.Provider
	if strings.TrimSpace(provider) == "" {
		provider = m.llmCfg.DefaultProvider
	}

	chapterCount := m.wfCfg.InitialChapterCount
	if chapterCount <= 0 {
		chapterCount = 5
	}

	out, err := m.generateStructure(ctx, project, idea, provider, in.Model, chapterCount)
	if err != nil {
		return nil, err
	}

	ebook := entity.NewEbook(projectID, idea.ID, out.Title, out.Description)
	err = m.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := m.ebooks.Create(txCtx, ebook); err != nil {
			return err
		}
		for i, outline := range out.Chapters {
			ch := entity.NewChapter(ebook.ID, outline.Title, outline.Summary, i)
			if err := m.chapters.Create(txCtx, ch); err != nil {
				return err
			}
		}
		if err := m.ideas.MarkSelected(txCtx, projectID, idea.ID); err != nil {
			return err
		}
		project.MarkInProgress()
		if err := m.projects.Update(txCtx, project); err != nil {
			return err
		}
		return m.projects.UpdateStep(txCtx, projectID, StepEbookWriting.String())
	})
	if err != nil {
		return nil, err
	}

	metrics.WorkflowTransitionsTotal.WithLabelValues(
		StepIdeaSelection.String(), StepEbookWriting.String(), "forward").Inc()
	logger.Info(ctx, "idea committed, ebook created",
		"project_id", projectID, "ebook_id", ebook.ID, "chapters", len(out.Chapters))
	return ebook, nil
}

func (m *Machine) resolveIdea(ctx context.Context, projectID string, in *CommitIdeaInput) (*entity.Idea, error) {
	if in.IdeaID != "" {
		idea, err := m.ideas.GetByID(ctx, in.IdeaID)
		if err != nil {
			return nil, err
		}
		if idea.ProjectID != projectID {
			return nil, apperrors.ErrIdeaNotFound
		}
		return idea, nil
	}

	idea, err := entity.NewCustomIdea(projectID, in.CustomTitle, in.CustomDescription)
	if err != nil {
		return nil, err
	}
	if err := m.ideas.Create(ctx, idea); err != nil {
		return nil, err
	}
	return idea, nil
}

func (m *Machine) generateStructure(ctx context.Context, project *entity.Project, idea *entity.Idea, provider, model string, chapterCount int) (*wfmodel.StructureGenerateOutput, error) {
	msg, err := m.structure.Invoke(ctx, &wfmodel.StructureGenerateInput{
		ProjectTitle:    project.Title,
		IdeaTitle:       idea.Title,
		IdeaDescription: idea.Description,
		ChapterCount:    chapterCount,
		Provider:        provider,
		Model:           model,
	})
	if err != nil {
		return nil, err
	}
	out, err := chain.ParseStructureOutput(msg)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Title) == "" {
		out.Title = idea.Title
	}
	if strings.TrimSpace(out.Description) == "" {
		out.Description = idea.Description
	}
	if len(out.Chapters) == 0 {
		return nil, apperrors.ErrLLMEmptyResult.WithDetail("structure generation produced no chapters")
	}
	return out, nil
}

// Finalize 定稿：电子书状态置为 complete、项目完成、步骤推进到 completed。
// 幂等：重复调用不改变已定稿时间。
func (m *Machine) Finalize(ctx context.Context, projectID, ownerID string) (*entity.Ebook, error) {
	ctx, span := tracer.Start(ctx, "workflow.Machine.Finalize")
	defer span.End()

	project, err := m.projects.GetByIDForOwner(ctx, projectID, ownerID)
	if err != nil {
		return nil, err
	}

	ebook, err := m.ebooks.GetByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if ebook.IsComplete() {
		return ebook, nil
	}

	total, err := m.chapters.CountByEbook(ctx, ebook.ID)
	if err != nil {
		return nil, err
	}
	generated, err := m.chapters.CountByStatus(ctx, ebook.ID, entity.ChapterStatusGenerated)
	if err != nil {
		return nil, err
	}
	if total == 0 || generated < total {
		return nil, apperrors.ErrEbookNotReady
	}

	ebook.Finalize()
	project.MarkCompleted()

	err = m.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := m.ebooks.Update(txCtx, ebook); err != nil {
			return err
		}
		if err := m.projects.Update(txCtx, project); err != nil {
			return err
		}
		return m.projects.UpdateStep(txCtx, projectID, StepCompleted.String())
	})
	if err != nil {
		return nil, err
	}

	metrics.WorkflowTransitionsTotal.WithLabelValues(
		StepEbookPreview.String(), StepCompleted.String(), "forward").Inc()
	logger.Info(ctx, "workflow finalized", "project_id", projectID, "ebook_id", ebook.ID)
	return ebook, nil
}
