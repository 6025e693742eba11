package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"eduvid-backend/internal/config"
	"eduvid-backend/internal/models"
)

const scriptStyle = "educational"

// Pipeline stage names used in progress updates.
const (
	StageExtraction = "extraction"
	StageScript     = "script"
	StageSynthesis  = "synthesis"
	StageFinalize   = "finalize"
)

// ScriptGenerator is the script generation stage contract.
type ScriptGenerator interface {
	Generate(ctx context.Context, text, topic, style string) (*models.ScriptResult, error)
}

// SpeechSynthesizer is the speech synthesis stage contract.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID, artifactName string) (string, error)
	DefaultVoiceID() string
}

// VideoStore is the persistence boundary for video records. The store is
// expected to serialize writes to a given record id.
type VideoStore interface {
	Create(ctx context.Context, v *models.Video) error
	UpdateSourceMetadata(ctx context.Context, id uuid.UUID, title, thumbnailURL string) error
	UpdateResult(ctx context.Context, id uuid.UUID, script, audioURL, status string) error
	SetFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}

// ProgressFunc receives stage transitions during a pipeline run. May be nil.
type ProgressFunc func(stage, stepName string)

// PipelineResult is the consolidated payload returned to the caller,
// mirroring the record's final fields.
type PipelineResult struct {
	VideoID          uuid.UUID
	ExtractedContent string
	GeneratedScript  string
	AudioURL         string
	ThumbnailURL     string
	Status           string
}

// PipelineService sequences extraction, script generation and speech
// synthesis for one processing request and reconciles their outputs into a
// single persisted record.
type PipelineService struct {
	extractors  *ExtractorRegistry
	generator   ScriptGenerator
	synthesizer SpeechSynthesizer
	store       VideoStore

	stageTimeout  time.Duration
	stageAttempts int

	extractionPolicy config.StagePolicy
	generationPolicy config.StagePolicy
	synthesisPolicy  config.StagePolicy
}

func NewPipelineService(
	extractors *ExtractorRegistry,
	generator ScriptGenerator,
	synthesizer SpeechSynthesizer,
	store VideoStore,
	cfg *config.Config,
) *PipelineService {
	return &PipelineService{
		extractors:       extractors,
		generator:        generator,
		synthesizer:      synthesizer,
		store:            store,
		stageTimeout:     cfg.StageTimeout,
		stageAttempts:    cfg.StageAttempts,
		extractionPolicy: cfg.ExtractionPolicy,
		generationPolicy: cfg.GenerationPolicy,
		synthesisPolicy:  cfg.SynthesisPolicy,
	}
}

// ProcessContent runs the full pipeline for one request. The stages form a
// strict dependency chain (extraction → script → audio), so they run
// sequentially; concurrent invocations for different requests are
// independent.
//
// Persistence writes on the common path: create, an optional metadata update
// when YouTube extraction discovers a title/thumbnail, and the final update.
func (s *PipelineService) ProcessContent(ctx context.Context, userID uuid.UUID, req models.ProcessContentRequest, progress ProgressFunc) (*PipelineResult, error) {
	if userID == uuid.Nil {
		return nil, &UnauthorizedError{Message: "Authorization required"}
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	// Under the strict extraction policy a malformed URL fails the request
	// before any record is created. Under the lenient policies the shape
	// check is deferred to the stage itself, which degrades on failure.
	if req.ContentType == models.SourceYouTube && s.extractionPolicy == config.PolicyStrict {
		if _, err := ParseVideoID(req.Content); err != nil {
			return nil, err
		}
	}

	video := &models.Video{
		UserID:        userID,
		Title:         defaultTitle(req.ContentType, req.Title),
		SourceType:    req.ContentType,
		SourceContent: req.Content,
		Status:        models.StatusProcessing,
	}
	if err := s.store.Create(ctx, video); err != nil {
		return nil, &PersistenceError{Op: "record creation", Err: err}
	}

	degraded := false

	// Stage 1: extraction
	notify(progress, StageExtraction, "Extracting source content")
	extracted, err := s.runExtraction(ctx, req)
	if err != nil {
		switch s.extractionPolicy {
		case config.PolicyStrict:
			s.store.SetFailed(ctx, video.ID, err.Error())
			return nil, err
		case config.PolicyPartial:
			degraded = true
		}
		log.Printf("Pipeline %s: extraction degraded: %v", video.ID, err)
		extracted = &models.ExtractedContent{}
	}

	if req.ContentType == models.SourceYouTube && (extracted.Title != "" || extracted.ThumbnailURL != "") {
		title := video.Title
		if extracted.Title != "" {
			title = extracted.Title
		}
		if err := s.store.UpdateSourceMetadata(ctx, video.ID, title, extracted.ThumbnailURL); err != nil {
			log.Printf("Pipeline %s: failed to save source metadata: %v", video.ID, err)
		} else {
			video.Title = title
		}
	}

	// Stage 2: script generation, on the extracted text with the record
	// title as topic. Runs even when extraction degraded to empty text:
	// the topic label alone is enough to generate from.
	notify(progress, StageScript, "Generating narration script")
	script, err := s.runGeneration(ctx, extracted.Text, video.Title)
	if err != nil {
		switch s.generationPolicy {
		case config.PolicyStrict:
			s.store.SetFailed(ctx, video.ID, err.Error())
			return nil, err
		case config.PolicyPartial:
			degraded = true
		}
		log.Printf("Pipeline %s: script generation degraded: %v", video.ID, err)
		script = &models.ScriptResult{}
	}

	// Stage 3: speech synthesis, only when a script was produced. Audio is
	// supplementary, so the default policy degrades without it.
	audioURL := ""
	if script.ScriptText != "" {
		notify(progress, StageSynthesis, "Synthesizing narration audio")
		audioURL, err = s.runSynthesis(ctx, script.ScriptText, video.ID.String())
		if err != nil {
			switch s.synthesisPolicy {
			case config.PolicyStrict:
				s.store.SetFailed(ctx, video.ID, err.Error())
				return nil, err
			case config.PolicyPartial:
				degraded = true
			}
			log.Printf("Pipeline %s: synthesis degraded: %v", video.ID, err)
			audioURL = ""
		}
	}

	// Stage 4: finalize
	notify(progress, StageFinalize, "Finalizing video record")
	status := models.StatusCompleted
	if degraded {
		status = models.StatusPartial
	}
	if err := s.store.UpdateResult(ctx, video.ID, script.ScriptText, audioURL, status); err != nil {
		return nil, &PersistenceError{Op: "final update", Err: err}
	}

	return &PipelineResult{
		VideoID:          video.ID,
		ExtractedContent: extracted.Text,
		GeneratedScript:  script.ScriptText,
		AudioURL:         audioURL,
		ThumbnailURL:     extracted.ThumbnailURL,
		Status:           status,
	}, nil
}

func (s *PipelineService) runExtraction(ctx context.Context, req models.ProcessContentRequest) (*models.ExtractedContent, error) {
	extractor, ok := s.extractors.For(req.ContentType)
	if !ok {
		return nil, &ValidationError{Fields: map[string]string{"content_type": "Unsupported content type"}}
	}

	var extracted *models.ExtractedContent
	err := s.callStage(ctx, func(ctx context.Context) error {
		var err error
		extracted, err = extractor.Extract(ctx, req.Content)
		return err
	})
	if err != nil {
		return nil, err
	}
	return extracted, nil
}

func (s *PipelineService) runGeneration(ctx context.Context, text, topic string) (*models.ScriptResult, error) {
	var script *models.ScriptResult
	err := s.callStage(ctx, func(ctx context.Context) error {
		var err error
		script, err = s.generator.Generate(ctx, text, topic, scriptStyle)
		return err
	})
	if err != nil {
		return nil, err
	}
	return script, nil
}

func (s *PipelineService) runSynthesis(ctx context.Context, scriptText, artifactName string) (string, error) {
	var audioURL string
	err := s.callStage(ctx, func(ctx context.Context) error {
		var err error
		audioURL, err = s.synthesizer.Synthesize(ctx, scriptText, s.synthesizer.DefaultVoiceID(), artifactName)
		return err
	})
	if err != nil {
		return "", err
	}
	return audioURL, nil
}

// callStage wraps one external call with a per-attempt timeout and a small
// bounded retry with exponential backoff. Deterministic failures (bad input,
// missing upstream resource) are not retried.
func (s *PipelineService) callStage(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := s.stageAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		stageCtx := ctx
		var cancel context.CancelFunc
		if s.stageTimeout > 0 {
			stageCtx, cancel = context.WithTimeout(ctx, s.stageTimeout)
		}
		err := fn(stageCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return nil
		}
		lastErr = err

		var invalidInput *InvalidInputError
		var notFound *NotFoundError
		if errors.As(err, &invalidInput) || errors.As(err, &notFound) {
			return err
		}
	}

	return lastErr
}

func validateRequest(req models.ProcessContentRequest) error {
	fields := make(map[string]string)

	switch req.ContentType {
	case models.SourceYouTube, models.SourceText, models.SourceImage:
	case "":
		fields["content_type"] = "Content type is required"
	default:
		fields["content_type"] = fmt.Sprintf("Unrecognized content type %q", req.ContentType)
	}

	if req.Content == "" {
		fields["content"] = "Content is required"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func defaultTitle(contentType, supplied string) string {
	if supplied != "" {
		return supplied
	}
	switch contentType {
	case models.SourceYouTube:
		return "YouTube Video"
	case models.SourceImage:
		return "Image Lesson"
	default:
		return "Untitled Video"
	}
}

func notify(progress ProgressFunc, stage, stepName string) {
	if progress != nil {
		progress(stage, stepName)
	}
}
