package services

import (
	"context"

	"eduvid-backend/internal/models"
)

// ContentExtractor normalizes one source type into plain extracted text plus
// optional thumbnail metadata.
type ContentExtractor interface {
	Extract(ctx context.Context, rawContent string) (*models.ExtractedContent, error)
}

// ExtractorRegistry maps a source type to its extraction strategy. New
// variants (a real OCR adapter for "image") plug in here without touching
// the orchestrator.
type ExtractorRegistry struct {
	extractors map[string]ContentExtractor
}

func NewExtractorRegistry(youtube *YouTubeService) *ExtractorRegistry {
	return &ExtractorRegistry{
		extractors: map[string]ContentExtractor{
			models.SourceYouTube: youtubeExtractor{service: youtube},
			models.SourceText:    textExtractor{},
			models.SourceImage:   imageExtractor{},
		},
	}
}

// Register replaces the strategy for a source type.
func (r *ExtractorRegistry) Register(sourceType string, e ContentExtractor) {
	r.extractors[sourceType] = e
}

func (r *ExtractorRegistry) For(sourceType string) (ContentExtractor, bool) {
	e, ok := r.extractors[sourceType]
	return e, ok
}

type youtubeExtractor struct {
	service *YouTubeService
}

func (e youtubeExtractor) Extract(ctx context.Context, rawContent string) (*models.ExtractedContent, error) {
	return e.service.Extract(ctx, rawContent)
}

// textExtractor is the identity transform: the raw content is the extracted
// text, no external call.
type textExtractor struct{}

func (textExtractor) Extract(_ context.Context, rawContent string) (*models.ExtractedContent, error) {
	return &models.ExtractedContent{Text: rawContent}, nil
}

// imageExtractor stands in for OCR, which is an external collaborator to be
// added later. It returns a fixed placeholder so the rest of the pipeline
// keeps its shape.
type imageExtractor struct{}

func (imageExtractor) Extract(_ context.Context, _ string) (*models.ExtractedContent, error) {
	return &models.ExtractedContent{Text: "Image content extracted"}, nil
}
