package braindump_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"autopen-api/internal/application/braindump"
	"autopen-api/internal/application/ingestion"
	"autopen-api/internal/config"
	"autopen-api/internal/domain/entity"
	"autopen-api/internal/domain/service"
	"autopen-api/internal/testsupport"
	"autopen-api/internal/workflow/chain"
	apperrors "autopen-api/pkg/errors"
)

// analysisReply 同时满足分析与构思两条链的解析
const analysisReply = `{
  "summary": "Notes about urban beekeeping.",
  "topics": [
    {"title": "Hive Placement", "key_points": ["rooftops", "balconies"]},
    {"title": "Seasonal Care", "key_points": ["winter feeding"]}
  ],
  "ideas": [
    {"title": "Bees in the City", "description": "A starter guide to urban beekeeping."},
    {"title": "The Rooftop Apiary", "description": "Designing hives for small spaces."}
  ]
}`

type stubFetcher struct {
	result *service.TranscriptResult
	err    error
	gate   chan struct{}
	calls  atomic.Int32
}

func (f *stubFetcher) Fetch(ctx context.Context, url, linkType string) (*service.TranscriptResult, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &service.TranscriptResult{Title: "Video", Transcript: "transcript text"}, nil
}

type stubExtractor struct {
	text string
}

func (e *stubExtractor) Extract(ctx context.Context, fileName string, data []byte) (*service.ExtractedFile, error) {
	return &service.ExtractedFile{Text: e.text}, nil
}

var stubTranscript = service.TranscriptResult{Title: "Video", Transcript: "transcript text"}

type braindumpEnv struct {
	svc      *braindump.Service
	projects *testsupport.MemProjects
	dumps    *testsupport.MemBrainDumps
	ideas    *testsupport.MemIdeas
	jobs     *testsupport.MemJobs
	fetcher  *stubFetcher
	factory  *testsupport.StubFactory
}

// breakModel 让桩模型后续调用返回指定错误
func (env *braindumpEnv) breakModel(t *testing.T, err error) {
	t.Helper()
	env.factory.Model.Err = err
}

func newBraindumpEnv(t *testing.T, reply string, fetcher *stubFetcher) *braindumpEnv {
	t.Helper()
	if fetcher == nil {
		fetcher = &stubFetcher{}
	}
	env := &braindumpEnv{
		projects: testsupport.NewMemProjects(),
		dumps:    testsupport.NewMemBrainDumps(),
		ideas:    testsupport.NewMemIdeas(),
		jobs:     testsupport.NewMemJobs(),
		fetcher:  fetcher,
	}
	factory := testsupport.NewStubFactory(reply)
	env.factory = factory
	env.svc = braindump.NewService(
		env.projects, env.dumps, env.ideas, env.jobs,
		ingestion.NewFetchRegistry(fetcher),
		&stubExtractor{text: "extracted notes"},
		nil,
		chain.NewAnalysisChain(factory),
		chain.NewIdeaChain(factory),
		&config.LLMConfig{DefaultProvider: "openai"},
		&config.WorkflowConfig{MinWordCount: 10, IdeaCount: 3},
		&config.IngestionConfig{TranscriptTimeout: 2 * time.Second},
	)
	return env
}

func (env *braindumpEnv) seedProject(t *testing.T) *entity.Project {
	t.Helper()
	p := entity.NewProject("owner-1", "Urban Beekeeping", "bees in cities")
	p.CurrentStep = "brain-dump"
	if err := env.projects.Create(context.Background(), p); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return p
}

// waitForLink 轮询直到链接离开 loading 状态
func (env *braindumpEnv) waitForLink(t *testing.T, linkID string) *entity.BrainDumpLink {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		link, err := env.dumps.GetLinkByID(context.Background(), linkID)
		if err != nil {
			t.Fatalf("get link: %v", err)
		}
		if !link.IsLoading() {
			return link
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("link %s never left loading state", linkID)
	return nil
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	env := newBraindumpEnv(t, analysisReply, nil)
	p := env.seedProject(t)
	ctx := context.Background()

	first, err := env.svc.GetOrCreate(ctx, p.ID, "owner-1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if first.Status != entity.BrainDumpStatusEmpty {
		t.Fatalf("status = %q, want empty", first.Status)
	}

	second, err := env.svc.GetOrCreate(ctx, p.ID, "owner-1")
	if err != nil {
		t.Fatalf("GetOrCreate again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("second call created a new dump: %s != %s", second.ID, first.ID)
	}
}

func TestGetOrCreateRejectsForeignOwner(t *testing.T) {
	env := newBraindumpEnv(t, analysisReply, nil)
	p := env.seedProject(t)

	if _, err := env.svc.GetOrCreate(context.Background(), p.ID, "intruder"); err == nil {
		t.Fatal("expected error for foreign owner")
	}
}

func TestSaveContentUpdatesStatus(t *testing.T) {
	env := newBraindumpEnv(t, analysisReply, nil)
	p := env.seedProject(t)
	ctx := context.Background()

	dump, err := env.svc.SaveContent(ctx, p.ID, "owner-1", "some raw thoughts")
	if err != nil {
		t.Fatalf("SaveContent: %v", err)
	}
	if dump.Status != entity.BrainDumpStatusSaved {
		t.Fatalf("status = %q, want saved", dump.Status)
	}

	dump, err = env.svc.SaveContent(ctx, p.ID, "owner-1", "   ")
	if err != nil {
		t.Fatalf("SaveContent blank: %v", err)
	}
	if dump.Status != entity.BrainDumpStatusEmpty {
		t.Fatalf("status after blank save = %q, want empty", dump.Status)
	}
}

func TestAddFileStoresExtractedText(t *testing.T) {
	env := newBraindumpEnv(t, analysisReply, nil)
	p := env.seedProject(t)
	ctx := context.Background()

	file, err := env.svc.AddFile(ctx, p.ID, "owner-1", "notes.txt", []byte("hello"))
	if err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if file.ExtractedText != "extracted notes" {
		t.Fatalf("extracted text = %q", file.ExtractedText)
	}
	if file.FileType != entity.FileTypeDocument {
		t.Fatalf("file type = %q, want document", file.FileType)
	}

	img, err := env.svc.AddFile(ctx, p.ID, "owner-1", "cover.PNG", []byte{0x89})
	if err != nil {
		t.Fatalf("AddFile image: %v", err)
	}
	if img.FileType != entity.FileTypeImage {
		t.Fatalf("file type = %q, want image", img.FileType)
	}
}

func TestAddLinkFetchesTranscriptInBackground(t *testing.T) {
	env := newBraindumpEnv(t, analysisReply, &stubFetcher{
		result: &service.TranscriptResult{Title: "Beekeeping 101", Transcript: "hello bees"},
	})
	p := env.seedProject(t)

	link, err := env.svc.AddLink(context.Background(), p.ID, "owner-1", "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if link.LinkType != entity.LinkTypeYouTube {
		t.Fatalf("link type = %q, want youtube", link.LinkType)
	}
	if !link.IsLoading() {
		t.Fatalf("new link status = %q, want loading", link.TranscriptStatus)
	}
	if link.ThumbnailURL == "" {
		t.Fatal("expected a thumbnail URL for a youtube link")
	}

	settled := env.waitForLink(t, link.ID)
	if settled.TranscriptStatus != entity.TranscriptStatusFetched {
		t.Fatalf("status = %q, want fetched (error: %s)", settled.TranscriptStatus, settled.TranscriptError)
	}
	if settled.Transcript != "hello bees" {
		t.Fatalf("transcript = %q", settled.Transcript)
	}
	if settled.Title != "Beekeeping 101" {
		t.Fatalf("title = %q", settled.Title)
	}
}

func TestAddLinkFetchTimeoutMarksFailed(t *testing.T) {
	env := newBraindumpEnv(t, analysisReply, &stubFetcher{err: apperrors.ErrTranscriptTimeout})
	p := env.seedProject(t)

	link, err := env.svc.AddLink(context.Background(), p.ID, "owner-1", "https://example.com/article")
	if err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if link.LinkType != entity.LinkTypeWebpage {
		t.Fatalf("link type = %q, want webpage", link.LinkType)
	}

	settled := env.waitForLink(t, link.ID)
	if settled.TranscriptStatus != entity.TranscriptStatusFailed {
		t.Fatalf("status = %q, want failed", settled.TranscriptStatus)
	}
	if !strings.Contains(settled.TranscriptError, "timed out") {
		t.Fatalf("error = %q, want a timeout reason", settled.TranscriptError)
	}
}

func TestRemoveLinkRejectsForeignLink(t *testing.T) {
	env := newBraindumpEnv(t, analysisReply, nil)
	p := env.seedProject(t)
	ctx := context.Background()

	other := entity.NewBrainDumpLink("other-dump", "https://example.com", entity.LinkTypeWebpage)
	if err := env.dumps.CreateLink(ctx, other); err != nil {
		t.Fatalf("seed link: %v", err)
	}

	if _, err := env.svc.GetOrCreate(ctx, p.ID, "owner-1"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	err := env.svc.RemoveLink(ctx, p.ID, "owner-1", other.ID)
	if !apperrors.IsCode(err, apperrors.CodeLinkNotFound) {
		t.Fatalf("err = %v, want link not found", err)
	}
}
