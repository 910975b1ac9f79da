package chapter_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"autopen-api/internal/application/chapter"
	"autopen-api/internal/config"
	"autopen-api/internal/domain/entity"
	"autopen-api/internal/testsupport"
	wfchain "autopen-api/internal/workflow/chain"
	apperrors "autopen-api/pkg/errors"
)

const chapterReply = "The morning the hive arrived, the whole street came out to watch."

type chapterEnv struct {
	svc      *chapter.Service
	projects *testsupport.MemProjects
	ebooks   *testsupport.MemEbooks
	chapters *testsupport.MemChapters
	jobs     *testsupport.MemJobs
	factory  *testsupport.StubFactory
}

func newChapterEnv(t *testing.T, reply string) *chapterEnv {
	t.Helper()
	env := &chapterEnv{
		projects: testsupport.NewMemProjects(),
		ebooks:   testsupport.NewMemEbooks(),
		chapters: testsupport.NewMemChapters(),
		jobs:     testsupport.NewMemJobs(),
		factory:  testsupport.NewStubFactory(reply),
	}
	env.svc = chapter.NewService(
		env.projects, env.ebooks, env.chapters,
		wfchain.NewChapterChain(env.factory),
		&config.LLMConfig{DefaultProvider: "openai"},
	)
	return env
}

func (env *chapterEnv) seedEbook(t *testing.T, titles ...string) (*entity.Ebook, []*entity.Chapter) {
	t.Helper()
	ctx := context.Background()
	ebook := entity.NewEbook("project-1", "idea-1", "Bees in the City", "urban beekeeping")
	if err := env.ebooks.Create(ctx, ebook); err != nil {
		t.Fatalf("seed ebook: %v", err)
	}
	chapters := make([]*entity.Chapter, 0, len(titles))
	for i, title := range titles {
		ch := entity.NewChapter(ebook.ID, title, "", i)
		if err := env.chapters.Create(ctx, ch); err != nil {
			t.Fatalf("seed chapter %d: %v", i, err)
		}
		chapters = append(chapters, ch)
	}
	return ebook, chapters
}

func TestGenerateFillsChapterContent(t *testing.T) {
	env := newChapterEnv(t, chapterReply)
	_, chapters := env.seedEbook(t, "Hive Placement")
	ctx := context.Background()

	ch, err := env.svc.Generate(ctx, chapters[0].ID, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if ch.Status != entity.ChapterStatusGenerated {
		t.Fatalf("status = %q, want generated", ch.Status)
	}
	if ch.Content == nil || *ch.Content != chapterReply {
		t.Fatalf("content = %v", ch.Content)
	}
	if ch.WordCount == 0 {
		t.Fatal("word count must be derived from content")
	}
}

func TestGenerateFailureResetsToPending(t *testing.T) {
	env := newChapterEnv(t, "")
	env.factory.Model.Err = errors.New("upstream exploded")
	_, chapters := env.seedEbook(t, "Hive Placement")
	ctx := context.Background()

	if _, err := env.svc.Generate(ctx, chapters[0].ID, nil); err == nil {
		t.Fatal("expected generation error")
	}

	ch, err := env.chapters.GetByID(ctx, chapters[0].ID)
	if err != nil {
		t.Fatalf("reload chapter: %v", err)
	}
	if ch.Status != entity.ChapterStatusPending {
		t.Fatalf("status = %q, want pending after failure", ch.Status)
	}
	if ch.Content != nil {
		t.Fatal("failed generation must not leave partial content")
	}
}

func TestFailedRegenerateKeepsExistingContent(t *testing.T) {
	env := newChapterEnv(t, chapterReply)
	_, chapters := env.seedEbook(t, "Hive Placement")
	ctx := context.Background()

	if _, err := env.svc.Generate(ctx, chapters[0].ID, nil); err != nil {
		t.Fatalf("first generation: %v", err)
	}

	env.factory.Model.Err = errors.New("upstream exploded")
	if _, err := env.svc.Generate(ctx, chapters[0].ID, nil); err == nil {
		t.Fatal("expected regeneration error")
	}

	ch, err := env.chapters.GetByID(ctx, chapters[0].ID)
	if err != nil {
		t.Fatalf("reload chapter: %v", err)
	}
	if ch.Status != entity.ChapterStatusGenerated {
		t.Fatalf("status = %q, failed regeneration must keep the chapter generated", ch.Status)
	}
	if ch.Content == nil || *ch.Content != chapterReply {
		t.Fatalf("content = %v, failed regeneration must keep prior content", ch.Content)
	}
	if ch.WordCount == 0 {
		t.Fatal("word count must survive a failed regeneration")
	}
}

func TestStreamFinishFailureKeepsExistingContent(t *testing.T) {
	env := newChapterEnv(t, chapterReply)
	_, chapters := env.seedEbook(t, "Hive Placement")
	ctx := context.Background()

	if _, err := env.svc.Generate(ctx, chapters[0].ID, nil); err != nil {
		t.Fatalf("first generation: %v", err)
	}

	session, err := env.svc.StreamGenerate(ctx, chapters[0].ID, nil)
	if err != nil {
		t.Fatalf("StreamGenerate: %v", err)
	}
	session.Reader.Close()

	if err := session.Finish(ctx, "", errors.New("stream broke")); err == nil {
		t.Fatal("expected stream failure")
	}

	ch, err := env.chapters.GetByID(ctx, chapters[0].ID)
	if err != nil {
		t.Fatalf("reload chapter: %v", err)
	}
	if ch.Status != entity.ChapterStatusGenerated {
		t.Fatalf("status = %q, failed stream must keep the chapter generated", ch.Status)
	}
	if ch.Content == nil || *ch.Content != chapterReply {
		t.Fatalf("content = %v, failed stream must keep prior content", ch.Content)
	}
}

func TestGenerateRefusesChapterAlreadyGenerating(t *testing.T) {
	env := newChapterEnv(t, chapterReply)
	_, chapters := env.seedEbook(t, "Hive Placement")
	ctx := context.Background()

	ch := chapters[0]
	ch.StartGenerating()
	if err := env.chapters.Update(ctx, ch); err != nil {
		t.Fatalf("mark generating: %v", err)
	}

	_, err := env.svc.Generate(ctx, ch.ID, nil)
	if !apperrors.IsCode(err, apperrors.CodeChapterGenerating) {
		t.Fatalf("err = %v, want chapter generating", err)
	}
}

func TestGenerateEmptyModelOutputFails(t *testing.T) {
	env := newChapterEnv(t, "   ")
	_, chapters := env.seedEbook(t, "Hive Placement")

	_, err := env.svc.Generate(context.Background(), chapters[0].ID, nil)
	if !apperrors.IsCode(err, apperrors.CodeLLMEmptyResult) {
		t.Fatalf("err = %v, want llm empty result", err)
	}
}

func TestGenerateAllPendingStopsAtFirstFailure(t *testing.T) {
	env := newChapterEnv(t, chapterReply)
	_, chapters := env.seedEbook(t, "One", "Two", "Three")
	ctx := context.Background()

	// 第二章先完成，批量只处理剩余 pending 章节
	chapters[1].CompleteGeneration("already written")
	if err := env.chapters.Update(ctx, chapters[1]); err != nil {
		t.Fatalf("pre-complete chapter: %v", err)
	}

	result, err := env.svc.GenerateAllPending(ctx, chapters[0].EbookID, nil)
	if err != nil {
		t.Fatalf("GenerateAllPending: %v", err)
	}
	if result.Err != nil {
		t.Fatalf("batch failed: %v", result.Err)
	}
	if len(result.Generated) != 2 {
		t.Fatalf("generated %d chapters, want 2", len(result.Generated))
	}

	all, err := env.chapters.ListByEbook(ctx, chapters[0].EbookID)
	if err != nil {
		t.Fatalf("list chapters: %v", err)
	}
	for _, ch := range all {
		if ch.Status != entity.ChapterStatusGenerated {
			t.Fatalf("chapter %q status = %q, want generated", ch.Title, ch.Status)
		}
	}
	if reloaded, _ := env.chapters.GetByID(ctx, chapters[1].ID); *reloaded.Content != "already written" {
		t.Fatal("batch must not touch completed chapters")
	}
}

func TestGenerateAllPendingAbortsOnFailure(t *testing.T) {
	env := newChapterEnv(t, "")
	env.factory.Model.Err = errors.New("upstream exploded")
	_, chapters := env.seedEbook(t, "One", "Two")
	ctx := context.Background()

	result, err := env.svc.GenerateAllPending(ctx, chapters[0].EbookID, nil)
	if err != nil {
		t.Fatalf("GenerateAllPending: %v", err)
	}
	if result.Err == nil {
		t.Fatal("expected a batch failure")
	}
	if result.FailedChapterID != chapters[0].ID {
		t.Fatalf("failed chapter = %s, want the first pending chapter %s", result.FailedChapterID, chapters[0].ID)
	}
	if len(result.Generated) != 0 {
		t.Fatalf("generated %d chapters before failure, want 0", len(result.Generated))
	}

	second, _ := env.chapters.GetByID(ctx, chapters[1].ID)
	if second.Status != entity.ChapterStatusPending {
		t.Fatalf("later chapter status = %q, batch must stop at first failure", second.Status)
	}
}

func TestEditAcceptsEmptyContent(t *testing.T) {
	env := newChapterEnv(t, chapterReply)
	_, chapters := env.seedEbook(t, "Hive Placement")
	ctx := context.Background()

	ch, err := env.svc.Edit(ctx, chapters[0].ID, "")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if ch.Status != entity.ChapterStatusGenerated {
		t.Fatalf("status = %q, want generated", ch.Status)
	}
	if ch.Content == nil || *ch.Content != "" {
		t.Fatalf("content = %v, want empty string preserved", ch.Content)
	}
}

func TestEditRefusedWhileGenerating(t *testing.T) {
	env := newChapterEnv(t, chapterReply)
	_, chapters := env.seedEbook(t, "Hive Placement")
	ctx := context.Background()

	chapters[0].StartGenerating()
	if err := env.chapters.Update(ctx, chapters[0]); err != nil {
		t.Fatalf("mark generating: %v", err)
	}

	_, err := env.svc.Edit(ctx, chapters[0].ID, "new text")
	if !apperrors.IsCode(err, apperrors.CodeChapterGenerating) {
		t.Fatalf("err = %v, want chapter generating", err)
	}
}

func TestAddManualChapterAppendsWithStubContent(t *testing.T) {
	env := newChapterEnv(t, chapterReply)
	ebook, _ := env.seedEbook(t, "One", "Two")
	ctx := context.Background()

	ch, err := env.svc.Add(ctx, ebook.ID, &chapter.AddInput{Title: "Appendix", Mode: chapter.AddModeManual})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if ch.OrderIndex != 2 {
		t.Fatalf("order index = %d, want 2", ch.OrderIndex)
	}
	if ch.Status != entity.ChapterStatusGenerated {
		t.Fatalf("status = %q, manual chapters start generated", ch.Status)
	}
	if ch.Content == nil || *ch.Content == "" {
		t.Fatal("manual chapter must carry stub content")
	}
}

func TestAddAIChapterGeneratesImmediately(t *testing.T) {
	env := newChapterEnv(t, chapterReply)
	ebook, _ := env.seedEbook(t, "One")
	ctx := context.Background()

	ch, err := env.svc.Add(ctx, ebook.ID, &chapter.AddInput{Title: "Two", Mode: chapter.AddModeAI})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if ch.Status != entity.ChapterStatusGenerated {
		t.Fatalf("status = %q, want generated", ch.Status)
	}
	if ch.Content == nil || *ch.Content != chapterReply {
		t.Fatalf("content = %v", ch.Content)
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	env := newChapterEnv(t, chapterReply)
	ebook, _ := env.seedEbook(t, "One")
	ctx := context.Background()

	if _, err := env.svc.Add(ctx, ebook.ID, &chapter.AddInput{Title: "  ", Mode: chapter.AddModeManual}); !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("blank title: err = %v", err)
	}
	if _, err := env.svc.Add(ctx, ebook.ID, &chapter.AddInput{Title: "X", Mode: "magic"}); !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("bad mode: err = %v", err)
	}
}

func TestDeleteRefusesLastChapter(t *testing.T) {
	env := newChapterEnv(t, chapterReply)
	_, chapters := env.seedEbook(t, "Only One")

	err := env.svc.Delete(context.Background(), chapters[0].ID)
	if !apperrors.IsCode(err, apperrors.CodeLastChapter) {
		t.Fatalf("err = %v, want last chapter", err)
	}
}

func TestDeleteKeepsRemainingOrderIndexes(t *testing.T) {
	env := newChapterEnv(t, chapterReply)
	_, chapters := env.seedEbook(t, "One", "Two", "Three")
	ctx := context.Background()

	if err := env.svc.Delete(ctx, chapters[1].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	remaining, err := env.chapters.ListByEbook(ctx, chapters[0].EbookID)
	if err != nil {
		t.Fatalf("list chapters: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("remaining = %d, want 2", len(remaining))
	}
	// 删除不重排：留下 0 和 2
	if remaining[0].OrderIndex != 0 || remaining[1].OrderIndex != 2 {
		t.Fatalf("order indexes = %d,%d, want 0,2", remaining[0].OrderIndex, remaining[1].OrderIndex)
	}
}

func TestGetProgress(t *testing.T) {
	env := newChapterEnv(t, chapterReply)
	_, chapters := env.seedEbook(t, "One", "Two", "Three", "Four")
	ctx := context.Background()

	chapters[0].CompleteGeneration("done")
	if err := env.chapters.Update(ctx, chapters[0]); err != nil {
		t.Fatalf("complete chapter: %v", err)
	}

	p, err := env.svc.GetProgress(ctx, chapters[0].EbookID)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if p.Total != 4 || p.Completed != 1 {
		t.Fatalf("progress = %d/%d, want 1/4", p.Completed, p.Total)
	}
	if p.Percent != 25 {
		t.Fatalf("percent = %v, want 25", p.Percent)
	}
	if p.AllGenerated {
		t.Fatal("AllGenerated must be false with pending chapters")
	}
}

func TestConcurrentGenerateOnlyOneWins(t *testing.T) {
	env := newChapterEnv(t, chapterReply)
	_, chapters := env.seedEbook(t, "Hive Placement")
	ctx := context.Background()

	const workers = 4
	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Generate(ctx, chapters[0].ID, nil)
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	var wins, refusals int
	for err := range errCh {
		switch {
		case err == nil:
			wins++
		case apperrors.IsCode(err, apperrors.CodeChapterGenerating):
			refusals++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins < 1 {
		t.Fatalf("wins = %d, want at least one successful generation", wins)
	}
	if wins+refusals != workers {
		t.Fatalf("wins+refusals = %d, want %d", wins+refusals, workers)
	}
}
