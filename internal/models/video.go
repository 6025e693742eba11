package models

import (
	"time"

	"github.com/google/uuid"
)

// Video lifecycle states. A record is created in StatusProcessing and must
// end in one of the terminal states before the pipeline returns.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusPartial    = "partial"
	StatusFailed     = "failed"
)

// Recognized source types for a processing request.
const (
	SourceYouTube = "youtube"
	SourceText    = "text"
	SourceImage   = "image"
)

type Video struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	Title           string     `json:"title"`
	SourceType      string     `json:"source_type"`    // "youtube" | "text" | "image"
	SourceContent   string     `json:"source_content"` // URL or literal text, immutable after creation
	ThumbnailURL    *string    `json:"thumbnail_url"`
	GeneratedScript *string    `json:"generated_script"`
	AudioURL        *string    `json:"audio_url"`
	Status          string     `json:"status"`
	ErrorMessage    *string    `json:"error_message"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at"`
}

type ProcessContentRequest struct {
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
	Title       string `json:"title,omitempty"`
}

// ProcessContentResponse mirrors the record's final fields plus the
// identifiers the caller needs.
type ProcessContentResponse struct {
	Success          bool   `json:"success"`
	VideoID          string `json:"video_id"`
	ExtractedContent string `json:"extracted_content"`
	GeneratedScript  string `json:"generated_script"`
	AudioURL         string `json:"audio_url"`
	ThumbnailURL     string `json:"thumbnail_url"`
	Status           string `json:"status"`
}

// ExtractedContent is the ephemeral output of the extraction stage. It is
// consumed by the script generator and never persisted as its own entity.
type ExtractedContent struct {
	Text         string `json:"text"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`

	// Passthrough source metadata, populated only on the youtube path.
	VideoID      string `json:"video_id,omitempty"`
	Title        string `json:"title,omitempty"`
	Duration     string `json:"duration,omitempty"`
	ViewCount    uint64 `json:"view_count,omitempty"`
	LikeCount    uint64 `json:"like_count,omitempty"`
	ChannelTitle string `json:"channel_title,omitempty"`
	PublishedAt  string `json:"published_at,omitempty"`
}

// ScriptResult is the ephemeral output of the script generation stage.
type ScriptResult struct {
	ScriptText               string   `json:"script"`
	WordCount                int      `json:"word_count"`
	EstimatedDurationMinutes int      `json:"estimated_duration"`
	SectionHeadings          []string `json:"sections"`
}
