package braindump_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"autopen-api/internal/domain/entity"
	apperrors "autopen-api/pkg/errors"
)

const richContent = "Urban beekeeping turns rooftops and balconies into thriving apiaries. " +
	"This dump collects everything I know about hive placement, seasonal feeding, " +
	"swarm prevention and the legal side of keeping bees inside city limits."

func seedDumpWithContent(t *testing.T, env *braindumpEnv, projectID, content string) *entity.BrainDump {
	t.Helper()
	dump, err := env.svc.SaveContent(context.Background(), projectID, "owner-1", content)
	if err != nil {
		t.Fatalf("seed dump: %v", err)
	}
	return dump
}

func TestAnalyzeProducesTopicsAndIdeas(t *testing.T) {
	env := newBraindumpEnv(t, analysisReply, nil)
	p := env.seedProject(t)
	seedDumpWithContent(t, env, p.ID, richContent)
	ctx := context.Background()

	result, err := env.svc.Analyze(ctx, p.ID, "owner-1", nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Degraded {
		t.Fatal("result should not be degraded")
	}
	if result.Dump.Status != entity.BrainDumpStatusAnalyzed {
		t.Fatalf("dump status = %q, want analyzed", result.Dump.Status)
	}
	if result.Dump.AnalyzedContent == nil || len(result.Dump.AnalyzedContent.Topics) != 2 {
		t.Fatalf("analyzed content = %+v, want 2 topics", result.Dump.AnalyzedContent)
	}
	if len(result.Ideas) != 2 {
		t.Fatalf("ideas = %d, want 2", len(result.Ideas))
	}
	for _, idea := range result.Ideas {
		if len(idea.SourceData) == 0 {
			t.Fatalf("idea %q missing source data snapshot", idea.Title)
		}
	}

	project, err := env.projects.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if project.CurrentStep != "idea-selection" {
		t.Fatalf("project step = %q, want idea-selection", project.CurrentStep)
	}
}

func TestAnalyzeReplacesPreviousIdeas(t *testing.T) {
	env := newBraindumpEnv(t, analysisReply, nil)
	p := env.seedProject(t)
	seedDumpWithContent(t, env, p.ID, richContent)
	ctx := context.Background()

	stale := entity.NewIdea(p.ID, "Old Idea", "left over from a previous run")
	if err := env.ideas.Create(ctx, stale); err != nil {
		t.Fatalf("seed stale idea: %v", err)
	}

	if _, err := env.svc.Analyze(ctx, p.ID, "owner-1", nil); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	ideas, err := env.ideas.ListByProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("list ideas: %v", err)
	}
	for _, idea := range ideas {
		if idea.Title == "Old Idea" {
			t.Fatal("stale idea survived re-analysis")
		}
	}
}

func TestAnalyzeRejectsEmptyContent(t *testing.T) {
	env := newBraindumpEnv(t, analysisReply, nil)
	p := env.seedProject(t)
	seedDumpWithContent(t, env, p.ID, "   ")

	_, err := env.svc.Analyze(context.Background(), p.ID, "owner-1", nil)
	if !apperrors.IsCode(err, apperrors.CodeInsufficientContent) {
		t.Fatalf("err = %v, want insufficient content", err)
	}
}

func TestAnalyzeRejectsShortContentWithoutAttachments(t *testing.T) {
	env := newBraindumpEnv(t, analysisReply, nil)
	p := env.seedProject(t)
	seedDumpWithContent(t, env, p.ID, "just a few words")

	_, err := env.svc.Analyze(context.Background(), p.ID, "owner-1", nil)
	if !apperrors.IsCode(err, apperrors.CodeInsufficientContent) {
		t.Fatalf("err = %v, want insufficient content", err)
	}
}

func TestAnalyzeAllowsShortContentWithAttachment(t *testing.T) {
	env := newBraindumpEnv(t, analysisReply, nil)
	p := env.seedProject(t)
	seedDumpWithContent(t, env, p.ID, "see attached notes")
	ctx := context.Background()

	if _, err := env.svc.AddFile(ctx, p.ID, "owner-1", "notes.txt", []byte("lots of detail")); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	if _, err := env.svc.Analyze(ctx, p.ID, "owner-1", nil); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
}

func TestAnalyzeLLMFailureDegrades(t *testing.T) {
	env := newBraindumpEnv(t, "", nil)
	env.breakModel(t, errors.New("upstream exploded"))
	p := env.seedProject(t)
	seedDumpWithContent(t, env, p.ID, richContent)

	result, err := env.svc.Analyze(context.Background(), p.ID, "owner-1", nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !result.Degraded {
		t.Fatal("expected a degraded result")
	}
	if result.Dump.Status != entity.BrainDumpStatusAnalyzed {
		t.Fatalf("dump status = %q, want analyzed", result.Dump.Status)
	}
	if result.Dump.AnalyzedContent == nil || !result.Dump.AnalyzedContent.Degraded {
		t.Fatal("analyzed content should record the degraded flag")
	}
	if !strings.HasPrefix(richContent, result.Dump.AnalyzedContent.Summary) {
		t.Fatalf("forced summary should be a prefix of the raw content, got %q", result.Dump.AnalyzedContent.Summary)
	}
	if len(result.Ideas) == 0 {
		t.Fatal("degraded analysis must still produce placeholder ideas")
	}
}

func TestAnalyzeAuthFailureIsFatal(t *testing.T) {
	env := newBraindumpEnv(t, "", nil)
	env.breakModel(t, errors.New("401 invalid api key"))
	p := env.seedProject(t)
	seedDumpWithContent(t, env, p.ID, richContent)
	ctx := context.Background()

	_, err := env.svc.Analyze(ctx, p.ID, "owner-1", nil)
	if !apperrors.IsCode(err, apperrors.CodeLLMAuthFailed) {
		t.Fatalf("err = %v, want llm auth failed", err)
	}

	dump, gerr := env.dumps.GetByProject(ctx, p.ID)
	if gerr != nil {
		t.Fatalf("reload dump: %v", gerr)
	}
	if dump.Status != entity.BrainDumpStatusSaved {
		t.Fatalf("dump status = %q, want saved after revert", dump.Status)
	}
	if dump.AnalyzedContent != nil {
		t.Fatal("analyzed content must be cleared on revert")
	}
}

func TestAnalyzeWaitsForPendingTranscript(t *testing.T) {
	gate := make(chan struct{})
	env := newBraindumpEnv(t, analysisReply, &stubFetcher{
		result: &stubTranscript,
		gate:   gate,
	})
	p := env.seedProject(t)
	seedDumpWithContent(t, env, p.ID, richContent)
	ctx := context.Background()

	link, err := env.svc.AddLink(ctx, p.ID, "owner-1", "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("AddLink: %v", err)
	}

	// 释放抓取后分析才能继续
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(gate)
	}()

	if _, err := env.svc.Analyze(ctx, p.ID, "owner-1", nil); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	settled, err := env.dumps.GetLinkByID(ctx, link.ID)
	if err != nil {
		t.Fatalf("reload link: %v", err)
	}
	if settled.TranscriptStatus != entity.TranscriptStatusFetched {
		t.Fatalf("link status = %q, want fetched", settled.TranscriptStatus)
	}
}

func TestAnalyzeMarksOrphanedLoadingLinkFailed(t *testing.T) {
	env := newBraindumpEnv(t, analysisReply, nil)
	p := env.seedProject(t)
	seedDumpWithContent(t, env, p.ID, richContent)
	ctx := context.Background()

	dump, err := env.dumps.GetByProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("reload dump: %v", err)
	}
	// 直接写入 loading 链接，模拟进程重启后没有在途抓取的遗留记录
	orphan := entity.NewBrainDumpLink(dump.ID, "https://example.com/old", entity.LinkTypeWebpage)
	if err := env.dumps.CreateLink(ctx, orphan); err != nil {
		t.Fatalf("seed orphan link: %v", err)
	}

	if _, err := env.svc.Analyze(ctx, p.ID, "owner-1", nil); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	settled, err := env.dumps.GetLinkByID(ctx, orphan.ID)
	if err != nil {
		t.Fatalf("reload link: %v", err)
	}
	if settled.TranscriptStatus != entity.TranscriptStatusFailed {
		t.Fatalf("orphan status = %q, want failed", settled.TranscriptStatus)
	}
	if !strings.Contains(settled.TranscriptError, "timed out") {
		t.Fatalf("orphan error = %q, want a timeout reason", settled.TranscriptError)
	}
}
