package export_test

import (
	"context"
	"strings"
	"testing"

	"autopen-api/internal/application/export"
	"autopen-api/internal/domain/entity"
	"autopen-api/internal/testsupport"
	apperrors "autopen-api/pkg/errors"
)

type fixedRenderer struct {
	doc *export.Document
	err error
}

func (r *fixedRenderer) Render(ctx context.Context, markdown []byte, format export.Format) (*export.Document, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.doc, nil
}

func seedExportEbook(t *testing.T, ebooks *testsupport.MemEbooks, chapters *testsupport.MemChapters, contents ...string) *entity.Ebook {
	t.Helper()
	ctx := context.Background()
	ebook := entity.NewEbook("project-1", "idea-1", "Bees in the City", "A field guide to urban hives.")
	if err := ebooks.Create(ctx, ebook); err != nil {
		t.Fatalf("seed ebook: %v", err)
	}
	for i, content := range contents {
		ch := entity.NewChapter(ebook.ID, "Chapter "+string(rune('A'+i)), "", i)
		if content != "" {
			ch.CompleteGeneration(content)
		}
		if err := chapters.Create(ctx, ch); err != nil {
			t.Fatalf("seed chapter %d: %v", i, err)
		}
	}
	return ebook
}

func TestExportMarkdownAssemblesChaptersInOrder(t *testing.T) {
	ebooks := testsupport.NewMemEbooks()
	chapters := testsupport.NewMemChapters()
	ebook := seedExportEbook(t, ebooks, chapters, "First chapter body.", "Second chapter body.")

	doc, err := export.NewAssembler(ebooks, chapters, nil, nil).Export(context.Background(), ebook.ID, export.FormatMarkdown)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if doc.FileName != "bees-in-the-city.md" {
		t.Fatalf("file name = %q", doc.FileName)
	}
	if !strings.HasPrefix(doc.ContentType, "text/markdown") {
		t.Fatalf("content type = %q", doc.ContentType)
	}

	text := string(doc.Data)
	if !strings.HasPrefix(text, "# Bees in the City\n") {
		t.Fatalf("missing title heading:\n%s", text)
	}
	if !strings.Contains(text, "A field guide to urban hives.") {
		t.Fatal("missing description")
	}
	first := strings.Index(text, "## Chapter A")
	second := strings.Index(text, "## Chapter B")
	if first < 0 || second < 0 || second < first {
		t.Fatalf("chapters missing or out of order:\n%s", text)
	}
	if !strings.Contains(text, "First chapter body.") || !strings.Contains(text, "Second chapter body.") {
		t.Fatal("chapter bodies missing")
	}
}

func TestExportDefaultsToMarkdown(t *testing.T) {
	ebooks := testsupport.NewMemEbooks()
	chapters := testsupport.NewMemChapters()
	ebook := seedExportEbook(t, ebooks, chapters, "Body.")

	doc, err := export.NewAssembler(ebooks, chapters, nil, nil).Export(context.Background(), ebook.ID, "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.HasSuffix(doc.FileName, ".md") {
		t.Fatalf("file name = %q, want markdown", doc.FileName)
	}
}

func TestExportRejectsPendingChapters(t *testing.T) {
	ebooks := testsupport.NewMemEbooks()
	chapters := testsupport.NewMemChapters()
	ebook := seedExportEbook(t, ebooks, chapters, "Done.", "")

	_, err := export.NewAssembler(ebooks, chapters, nil, nil).Export(context.Background(), ebook.ID, export.FormatMarkdown)
	if !apperrors.IsCode(err, apperrors.CodeEbookNotReady) {
		t.Fatalf("err = %v, want ebook not ready", err)
	}
}

func TestExportRejectsEbookWithoutChapters(t *testing.T) {
	ebooks := testsupport.NewMemEbooks()
	chapters := testsupport.NewMemChapters()
	ebook := seedExportEbook(t, ebooks, chapters)

	_, err := export.NewAssembler(ebooks, chapters, nil, nil).Export(context.Background(), ebook.ID, export.FormatMarkdown)
	if !apperrors.IsCode(err, apperrors.CodeEbookNotReady) {
		t.Fatalf("err = %v, want ebook not ready", err)
	}
}

func TestExportRichFormatsNeedRenderer(t *testing.T) {
	ebooks := testsupport.NewMemEbooks()
	chapters := testsupport.NewMemChapters()
	ebook := seedExportEbook(t, ebooks, chapters, "Body.")
	ctx := context.Background()

	_, err := export.NewAssembler(ebooks, chapters, nil, nil).Export(ctx, ebook.ID, export.FormatPDF)
	if !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("err without renderer = %v, want validation failed", err)
	}

	want := &export.Document{FileName: "book.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}
	doc, err := export.NewAssembler(ebooks, chapters, &fixedRenderer{doc: want}, nil).Export(ctx, ebook.ID, export.FormatPDF)
	if err != nil {
		t.Fatalf("Export with renderer: %v", err)
	}
	if doc != want {
		t.Fatalf("renderer document not passed through: %+v", doc)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	ebooks := testsupport.NewMemEbooks()
	chapters := testsupport.NewMemChapters()
	ebook := seedExportEbook(t, ebooks, chapters, "Body.")

	_, err := export.NewAssembler(ebooks, chapters, nil, nil).Export(context.Background(), ebook.ID, "docx")
	if !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("err = %v, want validation failed", err)
	}
}
