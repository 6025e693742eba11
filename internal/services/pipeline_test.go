package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"eduvid-backend/internal/config"
	"eduvid-backend/internal/models"
)

type stubExtractor struct {
	content *models.ExtractedContent
	err     error
	calls   int
}

func (s *stubExtractor) Extract(_ context.Context, _ string) (*models.ExtractedContent, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.content, nil
}

type stubGenerator struct {
	result *models.ScriptResult
	err    error
	calls  int

	gotText  string
	gotTopic string
	gotStyle string
}

func (s *stubGenerator) Generate(_ context.Context, text, topic, style string) (*models.ScriptResult, error) {
	s.calls++
	s.gotText = text
	s.gotTopic = topic
	s.gotStyle = style
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubSynthesizer struct {
	audioURL string
	err      error
	calls    int
}

func (s *stubSynthesizer) Synthesize(_ context.Context, _, _, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.audioURL, nil
}

func (s *stubSynthesizer) DefaultVoiceID() string { return "voice-test" }

type stubStore struct {
	creates       int
	created       *models.Video
	metadataTitle string
	metadataThumb string
	finalScript   string
	finalAudio    string
	finalStatus   string
	failed        bool
	failMsg       string
}

func (s *stubStore) Create(_ context.Context, v *models.Video) error {
	s.creates++
	v.ID = uuid.New()
	s.created = v
	return nil
}

func (s *stubStore) UpdateSourceMetadata(_ context.Context, _ uuid.UUID, title, thumbnailURL string) error {
	s.metadataTitle = title
	s.metadataThumb = thumbnailURL
	return nil
}

func (s *stubStore) UpdateResult(_ context.Context, _ uuid.UUID, script, audioURL, status string) error {
	s.finalScript = script
	s.finalAudio = audioURL
	s.finalStatus = status
	return nil
}

func (s *stubStore) SetFailed(_ context.Context, _ uuid.UUID, errMsg string) error {
	s.failed = true
	s.failMsg = errMsg
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		StageTimeout:     5 * time.Second,
		StageAttempts:    1,
		ExtractionPolicy: config.PolicyLenient,
		GenerationPolicy: config.PolicyStrict,
		SynthesisPolicy:  config.PolicyLenient,
	}
}

func newTestPipeline(cfg *config.Config, ext ContentExtractor, gen ScriptGenerator, synth SpeechSynthesizer, store VideoStore) *PipelineService {
	reg := &ExtractorRegistry{extractors: map[string]ContentExtractor{
		models.SourceYouTube: ext,
		models.SourceText:    ext,
		models.SourceImage:   ext,
	}}
	return NewPipelineService(reg, gen, synth, store, cfg)
}

func TestProcessContent_TextSource(t *testing.T) {
	ext := &stubExtractor{content: &models.ExtractedContent{Text: "raw lesson text"}}
	gen := &stubGenerator{result: &models.ScriptResult{ScriptText: "generated script"}}
	synth := &stubSynthesizer{audioURL: "/api/v1/files/audio/x.mp3"}
	store := &stubStore{}

	p := newTestPipeline(testConfig(), ext, gen, synth, store)

	result, err := p.ProcessContent(context.Background(), uuid.New(), models.ProcessContentRequest{
		ContentType: models.SourceText,
		Content:     "raw lesson text",
	}, nil)
	if err != nil {
		t.Fatalf("ProcessContent returned error: %v", err)
	}

	if store.creates != 1 {
		t.Errorf("expected exactly one record creation, got %d", store.creates)
	}
	if result.Status != models.StatusCompleted {
		t.Errorf("status = %q, want %q", result.Status, models.StatusCompleted)
	}
	if result.ExtractedContent != "raw lesson text" {
		t.Errorf("extracted content = %q, want identity of input", result.ExtractedContent)
	}
	if result.GeneratedScript != "generated script" {
		t.Errorf("generated script = %q", result.GeneratedScript)
	}
	if result.AudioURL != "/api/v1/files/audio/x.mp3" {
		t.Errorf("audio URL = %q", result.AudioURL)
	}
	if gen.gotText != "raw lesson text" {
		t.Errorf("generator received text %q, want extracted text", gen.gotText)
	}
	if gen.gotStyle != "educational" {
		t.Errorf("generator received style %q, want educational", gen.gotStyle)
	}
	if store.finalStatus != models.StatusCompleted {
		t.Errorf("persisted status = %q, want %q", store.finalStatus, models.StatusCompleted)
	}
}

func TestProcessContent_YouTubeMetadataFlowsToTopic(t *testing.T) {
	ext := &stubExtractor{content: &models.ExtractedContent{
		Text:         "Video Title\n\nVideo description",
		Title:        "Video Title",
		ThumbnailURL: "https://img.example/thumb.jpg",
	}}
	gen := &stubGenerator{result: &models.ScriptResult{ScriptText: "script"}}
	synth := &stubSynthesizer{audioURL: "data:audio/mp3;base64,AAAA"}
	store := &stubStore{}

	p := newTestPipeline(testConfig(), ext, gen, synth, store)

	result, err := p.ProcessContent(context.Background(), uuid.New(), models.ProcessContentRequest{
		ContentType: models.SourceYouTube,
		Content:     "https://www.youtube.com/watch?v=abc123",
	}, nil)
	if err != nil {
		t.Fatalf("ProcessContent returned error: %v", err)
	}

	if store.metadataTitle != "Video Title" {
		t.Errorf("saved metadata title = %q, want extracted title", store.metadataTitle)
	}
	if store.metadataThumb != "https://img.example/thumb.jpg" {
		t.Errorf("saved thumbnail = %q", store.metadataThumb)
	}
	if gen.gotTopic != "Video Title" {
		t.Errorf("generator topic = %q, want extracted title", gen.gotTopic)
	}
	if result.ThumbnailURL != "https://img.example/thumb.jpg" {
		t.Errorf("result thumbnail = %q", result.ThumbnailURL)
	}
}

func TestProcessContent_SynthesisFailureLenient(t *testing.T) {
	ext := &stubExtractor{content: &models.ExtractedContent{Text: "text"}}
	gen := &stubGenerator{result: &models.ScriptResult{ScriptText: "script"}}
	synth := &stubSynthesizer{err: &SynthesisError{Message: "provider down"}}
	store := &stubStore{}

	p := newTestPipeline(testConfig(), ext, gen, synth, store)

	result, err := p.ProcessContent(context.Background(), uuid.New(), models.ProcessContentRequest{
		ContentType: models.SourceText,
		Content:     "text",
	}, nil)
	if err != nil {
		t.Fatalf("ProcessContent returned error: %v", err)
	}

	if result.Status != models.StatusCompleted {
		t.Errorf("status = %q, want %q under lenient synthesis", result.Status, models.StatusCompleted)
	}
	if result.AudioURL != "" {
		t.Errorf("audio URL = %q, want empty after synthesis failure", result.AudioURL)
	}
	if result.GeneratedScript != "script" {
		t.Errorf("script = %q, should survive synthesis failure", result.GeneratedScript)
	}
	if store.failed {
		t.Error("record marked failed, want terminal update instead")
	}
}

func TestProcessContent_SynthesisFailurePartialPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.SynthesisPolicy = config.PolicyPartial

	ext := &stubExtractor{content: &models.ExtractedContent{Text: "text"}}
	gen := &stubGenerator{result: &models.ScriptResult{ScriptText: "script"}}
	synth := &stubSynthesizer{err: &SynthesisError{Message: "provider down"}}
	store := &stubStore{}

	p := newTestPipeline(cfg, ext, gen, synth, store)

	result, err := p.ProcessContent(context.Background(), uuid.New(), models.ProcessContentRequest{
		ContentType: models.SourceText,
		Content:     "text",
	}, nil)
	if err != nil {
		t.Fatalf("ProcessContent returned error: %v", err)
	}

	if result.Status != models.StatusPartial {
		t.Errorf("status = %q, want %q under partial synthesis policy", result.Status, models.StatusPartial)
	}
}

func TestProcessContent_GenerationFailureStrict(t *testing.T) {
	ext := &stubExtractor{content: &models.ExtractedContent{Text: "text"}}
	gen := &stubGenerator{err: &GenerationError{Message: "model unavailable"}}
	synth := &stubSynthesizer{audioURL: "unused"}
	store := &stubStore{}

	p := newTestPipeline(testConfig(), ext, gen, synth, store)

	_, err := p.ProcessContent(context.Background(), uuid.New(), models.ProcessContentRequest{
		ContentType: models.SourceText,
		Content:     "text",
	}, nil)
	if err == nil {
		t.Fatal("ProcessContent succeeded, want generation error")
	}

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Errorf("error = %T, want *GenerationError", err)
	}
	if !store.failed {
		t.Error("record not marked failed after strict generation failure")
	}
	if synth.calls != 0 {
		t.Errorf("synthesis ran %d times after generation failure, want 0", synth.calls)
	}
	if store.finalStatus != "" {
		t.Errorf("final update ran with status %q, want none", store.finalStatus)
	}
}

func TestProcessContent_ExtractionFailureLenient(t *testing.T) {
	ext := &stubExtractor{err: errors.New("network unreachable")}
	gen := &stubGenerator{result: &models.ScriptResult{ScriptText: "script from topic alone"}}
	synth := &stubSynthesizer{audioURL: "data:audio/mp3;base64,AAAA"}
	store := &stubStore{}

	p := newTestPipeline(testConfig(), ext, gen, synth, store)

	result, err := p.ProcessContent(context.Background(), uuid.New(), models.ProcessContentRequest{
		ContentType: models.SourceText,
		Content:     "text",
		Title:       "My Topic",
	}, nil)
	if err != nil {
		t.Fatalf("ProcessContent returned error: %v", err)
	}

	if result.ExtractedContent != "" {
		t.Errorf("extracted content = %q, want empty after degraded extraction", result.ExtractedContent)
	}
	if gen.gotTopic != "My Topic" {
		t.Errorf("generator topic = %q, want supplied title", gen.gotTopic)
	}
	if result.Status != models.StatusCompleted {
		t.Errorf("status = %q, want %q", result.Status, models.StatusCompleted)
	}
}

func TestProcessContent_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		req  models.ProcessContentRequest
	}{
		{"missing content type", models.ProcessContentRequest{Content: "x"}},
		{"missing content", models.ProcessContentRequest{ContentType: models.SourceText}},
		{"unknown content type", models.ProcessContentRequest{ContentType: "audio", Content: "x"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &stubStore{}
			p := newTestPipeline(testConfig(),
				&stubExtractor{content: &models.ExtractedContent{}},
				&stubGenerator{result: &models.ScriptResult{ScriptText: "s"}},
				&stubSynthesizer{audioURL: "a"},
				store,
			)

			_, err := p.ProcessContent(context.Background(), uuid.New(), tc.req, nil)

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if store.creates != 0 {
				t.Errorf("record created for invalid request, creates = %d", store.creates)
			}
		})
	}
}

func TestProcessContent_RequiresUser(t *testing.T) {
	store := &stubStore{}
	p := newTestPipeline(testConfig(),
		&stubExtractor{content: &models.ExtractedContent{}},
		&stubGenerator{result: &models.ScriptResult{ScriptText: "s"}},
		&stubSynthesizer{audioURL: "a"},
		store,
	)

	_, err := p.ProcessContent(context.Background(), uuid.Nil, models.ProcessContentRequest{
		ContentType: models.SourceText,
		Content:     "x",
	}, nil)

	var unauthorized *UnauthorizedError
	if !errors.As(err, &unauthorized) {
		t.Fatalf("error = %v, want *UnauthorizedError", err)
	}
	if store.creates != 0 {
		t.Errorf("record created for anonymous request, creates = %d", store.creates)
	}
}

func TestProcessContent_StrictExtractionRejectsBadURLBeforeCreate(t *testing.T) {
	cfg := testConfig()
	cfg.ExtractionPolicy = config.PolicyStrict

	store := &stubStore{}
	p := newTestPipeline(cfg,
		&stubExtractor{content: &models.ExtractedContent{}},
		&stubGenerator{result: &models.ScriptResult{ScriptText: "s"}},
		&stubSynthesizer{audioURL: "a"},
		store,
	)

	_, err := p.ProcessContent(context.Background(), uuid.New(), models.ProcessContentRequest{
		ContentType: models.SourceYouTube,
		Content:     "not a youtube url",
	}, nil)

	var invalidInput *InvalidInputError
	if !errors.As(err, &invalidInput) {
		t.Fatalf("error = %v, want *InvalidInputError", err)
	}
	if store.creates != 0 {
		t.Errorf("record created before URL validation, creates = %d", store.creates)
	}
}

func TestProcessContent_ProgressOrder(t *testing.T) {
	p := newTestPipeline(testConfig(),
		&stubExtractor{content: &models.ExtractedContent{Text: "t"}},
		&stubGenerator{result: &models.ScriptResult{ScriptText: "s"}},
		&stubSynthesizer{audioURL: "a"},
		&stubStore{},
	)

	var stages []string
	_, err := p.ProcessContent(context.Background(), uuid.New(), models.ProcessContentRequest{
		ContentType: models.SourceText,
		Content:     "t",
	}, func(stage, _ string) {
		stages = append(stages, stage)
	})
	if err != nil {
		t.Fatalf("ProcessContent returned error: %v", err)
	}

	want := []string{StageExtraction, StageScript, StageSynthesis, StageFinalize}
	if len(stages) != len(want) {
		t.Fatalf("got stages %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("stage[%d] = %q, want %q", i, stages[i], want[i])
		}
	}
}

func TestCallStage_RetriesTransientFailure(t *testing.T) {
	cfg := testConfig()
	cfg.StageAttempts = 2
	p := newTestPipeline(cfg, &stubExtractor{}, &stubGenerator{}, &stubSynthesizer{}, &stubStore{})

	calls := 0
	err := p.callStage(context.Background(), func(_ context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("callStage returned error after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("stage ran %d times, want 2", calls)
	}
}

func TestCallStage_NoRetryOnDeterministicFailure(t *testing.T) {
	cfg := testConfig()
	cfg.StageAttempts = 3
	p := newTestPipeline(cfg, &stubExtractor{}, &stubGenerator{}, &stubSynthesizer{}, &stubStore{})

	calls := 0
	err := p.callStage(context.Background(), func(_ context.Context) error {
		calls++
		return &InvalidInputError{Message: "bad input"}
	})
	if err == nil {
		t.Fatal("callStage succeeded, want error")
	}
	if calls != 1 {
		t.Errorf("deterministic failure ran %d times, want 1", calls)
	}
}
