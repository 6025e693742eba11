package services

import (
	"context"
	"testing"

	"eduvid-backend/internal/models"
)

func TestExtractorRegistry_Defaults(t *testing.T) {
	reg := NewExtractorRegistry(nil)

	for _, sourceType := range []string{models.SourceYouTube, models.SourceText, models.SourceImage} {
		if _, ok := reg.For(sourceType); !ok {
			t.Errorf("no extractor registered for %q", sourceType)
		}
	}

	if _, ok := reg.For("audio"); ok {
		t.Error("unexpected extractor for unknown source type")
	}
}

func TestTextExtractor_Identity(t *testing.T) {
	content, err := textExtractor{}.Extract(context.Background(), "  raw text as-is  ")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if content.Text != "  raw text as-is  " {
		t.Errorf("text = %q, want unmodified input", content.Text)
	}
}

func TestImageExtractor_Placeholder(t *testing.T) {
	content, err := imageExtractor{}.Extract(context.Background(), "ignored.png")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if content.Text != "Image content extracted" {
		t.Errorf("text = %q, want fixed placeholder", content.Text)
	}
}

func TestRegistryRegisterOverrides(t *testing.T) {
	reg := NewExtractorRegistry(nil)
	stub := &stubExtractor{content: &models.ExtractedContent{Text: "custom"}}
	reg.Register(models.SourceImage, stub)

	e, ok := reg.For(models.SourceImage)
	if !ok {
		t.Fatal("image extractor missing after Register")
	}
	content, err := e.Extract(context.Background(), "x")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if content.Text != "custom" {
		t.Errorf("text = %q, want override result", content.Text)
	}
}
