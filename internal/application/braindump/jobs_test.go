package braindump_test

import (
	"context"
	"errors"
	"testing"

	"autopen-api/internal/domain/entity"
	"autopen-api/internal/infrastructure/messaging"
)

func TestProcessAnalysisJobCompletes(t *testing.T) {
	env := newBraindumpEnv(t, analysisReply, nil)
	p := env.seedProject(t)
	dump := seedDumpWithContent(t, env, p.ID, richContent)
	ctx := context.Background()

	job := entity.NewGenerationJob(p.ID, entity.JobTypeBrainDumpAnalysis, nil)
	if err := env.jobs.Create(ctx, job); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	err := env.svc.ProcessAnalysisJob(ctx, &messaging.AnalysisJobMessage{
		JobID:       job.ID,
		ProjectID:   p.ID,
		BrainDumpID: dump.ID,
	})
	if err != nil {
		t.Fatalf("ProcessAnalysisJob: %v", err)
	}

	done, err := env.jobs.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if done.Status != entity.JobStatusCompleted {
		t.Fatalf("job status = %q, want completed (error: %s)", done.Status, done.ErrorMessage)
	}
	if done.Progress != 100 {
		t.Fatalf("job progress = %d, want 100", done.Progress)
	}
}

func TestProcessAnalysisJobSkipsFinishedJob(t *testing.T) {
	env := newBraindumpEnv(t, analysisReply, nil)
	p := env.seedProject(t)
	ctx := context.Background()

	job := entity.NewGenerationJob(p.ID, entity.JobTypeBrainDumpAnalysis, nil)
	job.Complete(nil)
	if err := env.jobs.Create(ctx, job); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	err := env.svc.ProcessAnalysisJob(ctx, &messaging.AnalysisJobMessage{
		JobID:     job.ID,
		ProjectID: p.ID,
	})
	if err != nil {
		t.Fatalf("ProcessAnalysisJob: %v", err)
	}

	ideas, err := env.ideas.ListByProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("list ideas: %v", err)
	}
	if len(ideas) != 0 {
		t.Fatalf("completed job must not re-run analysis, got %d ideas", len(ideas))
	}
}

func TestProcessAnalysisJobAuthFailureNotRetried(t *testing.T) {
	env := newBraindumpEnv(t, "", nil)
	env.breakModel(t, errors.New("401 invalid api key"))
	p := env.seedProject(t)
	dump := seedDumpWithContent(t, env, p.ID, richContent)
	ctx := context.Background()

	job := entity.NewGenerationJob(p.ID, entity.JobTypeBrainDumpAnalysis, nil)
	if err := env.jobs.Create(ctx, job); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	err := env.svc.ProcessAnalysisJob(ctx, &messaging.AnalysisJobMessage{
		JobID:       job.ID,
		ProjectID:   p.ID,
		BrainDumpID: dump.ID,
	})
	if err != nil {
		t.Fatalf("auth failure should not be surfaced for retry, got %v", err)
	}

	failed, err := env.jobs.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if failed.Status != entity.JobStatusFailed {
		t.Fatalf("job status = %q, want failed", failed.Status)
	}
	if failed.ErrorMessage == "" {
		t.Fatal("failed job must record an error message")
	}
}
