package workflow_test

import (
	"context"
	"testing"

	"autopen-api/internal/application/workflow"
	"autopen-api/internal/config"
	"autopen-api/internal/domain/entity"
	"autopen-api/internal/testsupport"
	"autopen-api/internal/workflow/chain"
	apperrors "autopen-api/pkg/errors"
)

const structureJSON = `{
  "title": "The Maker's Handbook",
  "description": "A hands-on guide.",
  "chapters": [
    {"title": "Getting Started", "summary": "Tools and mindset."},
    {"title": "First Project", "summary": "Build something small."},
    {"title": "Leveling Up", "summary": "Harder techniques."}
  ]
}`

type machineEnv struct {
	machine  *workflow.Machine
	projects *testsupport.MemProjects
	dumps    *testsupport.MemBrainDumps
	ideas    *testsupport.MemIdeas
	ebooks   *testsupport.MemEbooks
	chapters *testsupport.MemChapters
}

func newMachineEnv(t *testing.T, reply string) *machineEnv {
	t.Helper()
	env := &machineEnv{
		projects: testsupport.NewMemProjects(),
		dumps:    testsupport.NewMemBrainDumps(),
		ideas:    testsupport.NewMemIdeas(),
		ebooks:   testsupport.NewMemEbooks(),
		chapters: testsupport.NewMemChapters(),
	}
	factory := testsupport.NewStubFactory(reply)
	env.machine = workflow.NewMachine(
		env.projects, env.dumps, env.ideas, env.ebooks, env.chapters,
		testsupport.NoopTx{}, chain.NewStructureChain(factory),
		&config.LLMConfig{DefaultProvider: "openai"},
		&config.WorkflowConfig{InitialChapterCount: 3},
	)
	return env
}

func (env *machineEnv) seedProject(t *testing.T, step string) *entity.Project {
	t.Helper()
	p := entity.NewProject("owner-1", "My Book", "about things")
	p.CurrentStep = step
	if err := env.projects.Create(context.Background(), p); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return p
}

func TestResolveStepStaysAtPersistedStep(t *testing.T) {
	env := newMachineEnv(t, structureJSON)
	p := env.seedProject(t, "brain-dump")

	state, err := env.machine.ResolveStep(context.Background(), p.ID, "owner-1")
	if err != nil {
		t.Fatalf("ResolveStep: %v", err)
	}
	if state.Step != workflow.StepBrainDump {
		t.Fatalf("step = %q, want brain-dump", state.Step)
	}
}

func TestResolveStepAutoAdvancesToIdeaSelection(t *testing.T) {
	env := newMachineEnv(t, structureJSON)
	p := env.seedProject(t, "brain-dump")

	ctx := context.Background()
	dump := entity.NewBrainDump(p.ID)
	dump.SaveContent("plenty of words here")
	dump.CompleteAnalysis(&entity.AnalyzedContent{Topics: []entity.AnalyzedTopic{{Title: "t"}}})
	if err := env.dumps.Create(ctx, dump); err != nil {
		t.Fatal(err)
	}
	if err := env.ideas.Create(ctx, entity.NewIdea(p.ID, "Idea One", "desc")); err != nil {
		t.Fatal(err)
	}

	state, err := env.machine.ResolveStep(ctx, p.ID, "owner-1")
	if err != nil {
		t.Fatalf("ResolveStep: %v", err)
	}
	if state.Step != workflow.StepIdeaSelection {
		t.Fatalf("step = %q, want idea-selection", state.Step)
	}

	stored, _ := env.projects.GetByID(ctx, p.ID)
	if stored.CurrentStep != "idea-selection" {
		t.Fatalf("persisted step = %q, want idea-selection", stored.CurrentStep)
	}
}

func TestResolveStepNeverReturnsTransientStep(t *testing.T) {
	env := newMachineEnv(t, structureJSON)
	p := env.seedProject(t, "ebook-structure")

	state, err := env.machine.ResolveStep(context.Background(), p.ID, "owner-1")
	if err != nil {
		t.Fatalf("ResolveStep: %v", err)
	}
	if state.Step != workflow.StepEbookWriting {
		t.Fatalf("step = %q, want ebook-writing", state.Step)
	}
}

func TestResolveStepCompletedWhenEbookFinalized(t *testing.T) {
	env := newMachineEnv(t, structureJSON)
	p := env.seedProject(t, "ebook-writing")

	ctx := context.Background()
	ebook := entity.NewEbook(p.ID, "idea-1", "Done Book", "")
	ebook.Finalize()
	if err := env.ebooks.Create(ctx, ebook); err != nil {
		t.Fatal(err)
	}

	state, err := env.machine.ResolveStep(ctx, p.ID, "owner-1")
	if err != nil {
		t.Fatalf("ResolveStep: %v", err)
	}
	if state.Step != workflow.StepCompleted {
		t.Fatalf("step = %q, want completed", state.Step)
	}
}

func TestTransitionBackwardAllowedWithoutMutation(t *testing.T) {
	env := newMachineEnv(t, structureJSON)
	p := env.seedProject(t, "ebook-writing")

	ctx := context.Background()
	ebook := entity.NewEbook(p.ID, "idea-1", "Book", "")
	if err := env.ebooks.Create(ctx, ebook); err != nil {
		t.Fatal(err)
	}

	state, err := env.machine.Transition(ctx, p.ID, "owner-1", workflow.StepBrainDump)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if state.Step != workflow.StepBrainDump {
		t.Fatalf("step = %q, want brain-dump", state.Step)
	}

	// 后退不触碰实体
	if _, err := env.ebooks.GetByID(ctx, ebook.ID); err != nil {
		t.Fatalf("ebook mutated by backward transition: %v", err)
	}
}

func TestTransitionRejectsSkippingSteps(t *testing.T) {
	env := newMachineEnv(t, structureJSON)
	p := env.seedProject(t, "brain-dump")

	_, err := env.machine.Transition(context.Background(), p.ID, "owner-1", workflow.StepEbookPreview)
	if !apperrors.IsCode(err, apperrors.CodeStepNotAllowed) {
		t.Fatalf("expected step-not-allowed, got %v", err)
	}
}

func TestTransitionToPreviewRefusedWithPendingChapters(t *testing.T) {
	env := newMachineEnv(t, structureJSON)
	p := env.seedProject(t, "ebook-writing")

	ctx := context.Background()
	ebook := entity.NewEbook(p.ID, "idea-1", "Book", "")
	if err := env.ebooks.Create(ctx, ebook); err != nil {
		t.Fatal(err)
	}
	for i := range 5 {
		ch := entity.NewChapter(ebook.ID, "Chapter", "s", i)
		if i < 3 {
			ch.CompleteGeneration("content")
		}
		if err := env.chapters.Create(ctx, ch); err != nil {
			t.Fatal(err)
		}
	}

	_, err := env.machine.Transition(ctx, p.ID, "owner-1", workflow.StepEbookPreview)
	if !apperrors.IsCode(err, apperrors.CodeEbookNotReady) {
		t.Fatalf("expected ebook-not-ready, got %v", err)
	}

	stored, _ := env.projects.GetByID(ctx, p.ID)
	if stored.CurrentStep != "ebook-writing" {
		t.Fatalf("persisted step = %q, want ebook-writing", stored.CurrentStep)
	}
}

func TestTransitionToCompletedRequiresFinalize(t *testing.T) {
	env := newMachineEnv(t, structureJSON)
	p := env.seedProject(t, "ebook-preview")

	ctx := context.Background()
	ebook := entity.NewEbook(p.ID, "idea-1", "Book", "")
	if err := env.ebooks.Create(ctx, ebook); err != nil {
		t.Fatal(err)
	}
	ch := entity.NewChapter(ebook.ID, "One", "s", 0)
	ch.CompleteGeneration("content")
	if err := env.chapters.Create(ctx, ch); err != nil {
		t.Fatal(err)
	}

	_, err := env.machine.Transition(ctx, p.ID, "owner-1", workflow.StepCompleted)
	if !apperrors.IsCode(err, apperrors.CodeStepNotAllowed) {
		t.Fatalf("expected step-not-allowed, got %v", err)
	}
}

func TestCommitIdeaCreatesEbookAndPendingChapters(t *testing.T) {
	env := newMachineEnv(t, structureJSON)
	p := env.seedProject(t, "idea-selection")

	ctx := context.Background()
	idea := entity.NewIdea(p.ID, "Idea One", "desc")
	if err := env.ideas.Create(ctx, idea); err != nil {
		t.Fatal(err)
	}

	ebook, err := env.machine.CommitIdea(ctx, p.ID, "owner-1", &workflow.CommitIdeaInput{IdeaID: idea.ID})
	if err != nil {
		t.Fatalf("CommitIdea: %v", err)
	}
	if ebook.Title != "The Maker's Handbook" {
		t.Fatalf("ebook title = %q", ebook.Title)
	}

	chapters, err := env.chapters.ListByEbook(ctx, ebook.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(chapters) != 3 {
		t.Fatalf("chapter count = %d, want 3", len(chapters))
	}
	for i, ch := range chapters {
		if ch.OrderIndex != i {
			t.Fatalf("chapter %d order index = %d", i, ch.OrderIndex)
		}
		if ch.Status != entity.ChapterStatusPending {
			t.Fatalf("chapter %d status = %q, want pending", i, ch.Status)
		}
		if ch.Content != nil {
			t.Fatalf("pending chapter %d has content", i)
		}
	}

	stored, _ := env.projects.GetByID(ctx, p.ID)
	if stored.CurrentStep != "ebook-writing" {
		t.Fatalf("persisted step = %q, want ebook-writing", stored.CurrentStep)
	}

	selected, _ := env.ideas.GetByID(ctx, idea.ID)
	if !selected.Selected {
		t.Fatal("committed idea not marked selected")
	}
}

func TestCommitIdeaRejectsShortCustomIdea(t *testing.T) {
	env := newMachineEnv(t, structureJSON)
	p := env.seedProject(t, "idea-selection")

	_, err := env.machine.CommitIdea(context.Background(), p.ID, "owner-1", &workflow.CommitIdeaInput{
		CustomTitle:       "abc",
		CustomDescription: "long enough description for the check",
	})
	if !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestCommitIdeaRejectsSecondEbook(t *testing.T) {
	env := newMachineEnv(t, structureJSON)
	p := env.seedProject(t, "idea-selection")

	ctx := context.Background()
	if err := env.ebooks.Create(ctx, entity.NewEbook(p.ID, "idea-0", "Existing", "")); err != nil {
		t.Fatal(err)
	}

	_, err := env.machine.CommitIdea(ctx, p.ID, "owner-1", &workflow.CommitIdeaInput{
		CustomTitle:       "A Serious Title",
		CustomDescription: "a description that is long enough to pass validation",
	})
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	env := newMachineEnv(t, structureJSON)
	p := env.seedProject(t, "ebook-preview")

	ctx := context.Background()
	ebook := entity.NewEbook(p.ID, "idea-1", "Book", "")
	if err := env.ebooks.Create(ctx, ebook); err != nil {
		t.Fatal(err)
	}
	ch := entity.NewChapter(ebook.ID, "One", "s", 0)
	ch.CompleteGeneration("content")
	if err := env.chapters.Create(ctx, ch); err != nil {
		t.Fatal(err)
	}

	first, err := env.machine.Finalize(ctx, p.ID, "owner-1")
	if err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	if !first.IsComplete() || first.FinalizedAt == nil {
		t.Fatal("ebook not finalized")
	}

	second, err := env.machine.Finalize(ctx, p.ID, "owner-1")
	if err != nil {
		t.Fatalf("second Finalize: %v", err)
	}
	if !second.FinalizedAt.Equal(*first.FinalizedAt) {
		t.Fatalf("finalized_at changed on repeat: %v vs %v", second.FinalizedAt, first.FinalizedAt)
	}

	stored, _ := env.projects.GetByID(ctx, p.ID)
	if stored.CurrentStep != "completed" {
		t.Fatalf("persisted step = %q, want completed", stored.CurrentStep)
	}
}

func TestFinalizeRefusedWithPendingChapters(t *testing.T) {
	env := newMachineEnv(t, structureJSON)
	p := env.seedProject(t, "ebook-writing")

	ctx := context.Background()
	ebook := entity.NewEbook(p.ID, "idea-1", "Book", "")
	if err := env.ebooks.Create(ctx, ebook); err != nil {
		t.Fatal(err)
	}
	if err := env.chapters.Create(ctx, entity.NewChapter(ebook.ID, "One", "s", 0)); err != nil {
		t.Fatal(err)
	}

	_, err := env.machine.Finalize(ctx, p.ID, "owner-1")
	if !apperrors.IsCode(err, apperrors.CodeEbookNotReady) {
		t.Fatalf("expected ebook-not-ready, got %v", err)
	}
}
