package ingestion_test

import (
	"testing"

	"autopen-api/internal/application/ingestion"
	"autopen-api/internal/domain/entity"
)

func TestExtractYouTubeID(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want string
	}{
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch with extras", "https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"live", "https://www.youtube.com/live/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"mobile", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed with trailing path", "https://www.youtube.com/embed/dQw4w9WgXcQ/extra", "dQw4w9WgXcQ"},
		{"plain webpage", "https://example.com/watch?v=dQw4w9WgXcQ", ""},
		{"bad id length", "https://youtu.be/short", ""},
		{"no id", "https://www.youtube.com/", ""},
		{"not a url", "://", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ingestion.ExtractYouTubeID(tc.url); got != tc.want {
				t.Fatalf("ExtractYouTubeID(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}

func TestDetectLinkType(t *testing.T) {
	if got := ingestion.DetectLinkType("https://youtu.be/dQw4w9WgXcQ"); got != entity.LinkTypeYouTube {
		t.Fatalf("youtube link detected as %q", got)
	}
	if got := ingestion.DetectLinkType("https://example.com/article"); got != entity.LinkTypeWebpage {
		t.Fatalf("webpage link detected as %q", got)
	}
}

func TestContentKeySharedAcrossLinkForms(t *testing.T) {
	a := ingestion.ContentKey("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	b := ingestion.ContentKey("https://youtu.be/dQw4w9WgXcQ")
	if a != b {
		t.Fatalf("same video got different keys: %q vs %q", a, b)
	}
	if a != "yt:dQw4w9WgXcQ" {
		t.Fatalf("key = %q", a)
	}
	if got := ingestion.ContentKey("https://example.com/a"); got != "url:https://example.com/a" {
		t.Fatalf("webpage key = %q", got)
	}
}

func TestThumbnailURL(t *testing.T) {
	if got := ingestion.ThumbnailURL("dQw4w9WgXcQ"); got != "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg" {
		t.Fatalf("thumbnail = %q", got)
	}
	if got := ingestion.ThumbnailURL(""); got != "" {
		t.Fatalf("empty id should yield empty thumbnail, got %q", got)
	}
}
