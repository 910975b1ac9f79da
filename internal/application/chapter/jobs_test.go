package chapter_test

import (
	"context"
	"errors"
	"testing"

	"autopen-api/internal/application/chapter"
	"autopen-api/internal/domain/entity"
	"autopen-api/internal/infrastructure/messaging"
)

func TestBatchRunnerProcessCompletesJob(t *testing.T) {
	env := newChapterEnv(t, chapterReply)
	ebook, _ := env.seedEbook(t, "One", "Two")
	ctx := context.Background()

	runner := chapter.NewBatchRunner(env.svc, env.jobs, env.ebooks, nil)
	job := entity.NewGenerationJob(ebook.ProjectID, entity.JobTypeEbookBatchGen, nil)
	job.EbookID = ebook.ID
	if err := env.jobs.Create(ctx, job); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	err := runner.Process(ctx, &messaging.BatchGenJobMessage{
		JobID:     job.ID,
		ProjectID: ebook.ProjectID,
		EbookID:   ebook.ID,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
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

func TestBatchRunnerProcessSurfacesRetryableFailure(t *testing.T) {
	env := newChapterEnv(t, "")
	env.factory.Model.Err = errors.New("upstream exploded")
	ebook, _ := env.seedEbook(t, "One")
	ctx := context.Background()

	runner := chapter.NewBatchRunner(env.svc, env.jobs, env.ebooks, nil)
	job := entity.NewGenerationJob(ebook.ProjectID, entity.JobTypeEbookBatchGen, nil)
	job.EbookID = ebook.ID
	if err := env.jobs.Create(ctx, job); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	err := runner.Process(ctx, &messaging.BatchGenJobMessage{
		JobID:     job.ID,
		ProjectID: ebook.ProjectID,
		EbookID:   ebook.ID,
	})
	if err == nil {
		t.Fatal("retryable failure must be surfaced for message-level retry")
	}

	failed, gerr := env.jobs.GetByID(ctx, job.ID)
	if gerr != nil {
		t.Fatalf("reload job: %v", gerr)
	}
	if failed.Status != entity.JobStatusFailed {
		t.Fatalf("job status = %q, want failed", failed.Status)
	}
}

func TestBatchRunnerProcessSwallowsAuthFailure(t *testing.T) {
	env := newChapterEnv(t, "")
	env.factory.Model.Err = errors.New("401 invalid api key")
	ebook, _ := env.seedEbook(t, "One")
	ctx := context.Background()

	runner := chapter.NewBatchRunner(env.svc, env.jobs, env.ebooks, nil)
	job := entity.NewGenerationJob(ebook.ProjectID, entity.JobTypeEbookBatchGen, nil)
	job.EbookID = ebook.ID
	if err := env.jobs.Create(ctx, job); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	err := runner.Process(ctx, &messaging.BatchGenJobMessage{
		JobID:     job.ID,
		ProjectID: ebook.ProjectID,
		EbookID:   ebook.ID,
	})
	if err != nil {
		t.Fatalf("auth failure must not be retried, got %v", err)
	}

	failed, gerr := env.jobs.GetByID(ctx, job.ID)
	if gerr != nil {
		t.Fatalf("reload job: %v", gerr)
	}
	if failed.Status != entity.JobStatusFailed {
		t.Fatalf("job status = %q, want failed", failed.Status)
	}
}
