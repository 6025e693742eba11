package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"eduvid-backend/internal/models"
)

// ScriptService turns extracted text plus a topic label into a structured
// narration script via Gemini.
type ScriptService struct {
	client         *genai.Client
	model          *genai.GenerativeModel
	wordsPerMinute int
	rateChan       chan struct{} // Token bucket
}

func NewScriptService(apiKey, modelName string, concurrentReqs, wordsPerMinute int) (*ScriptService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.7)
	model.SetTopP(0.95)

	if wordsPerMinute <= 0 {
		wordsPerMinute = 150
	}

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &ScriptService{
		client:         client,
		model:          model,
		wordsPerMinute: wordsPerMinute,
		rateChan:       rateChan,
	}, nil
}

func (s *ScriptService) Close() {
	s.client.Close()
}

func (s *ScriptService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *ScriptService) releaseRate() {
	s.rateChan <- struct{}{}
}

// Generate runs a single completion call and derives the script metrics.
func (s *ScriptService) Generate(ctx context.Context, text, topic, style string) (*models.ScriptResult, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, &GenerationError{Message: err.Error()}
	}
	defer s.releaseRate()

	prompt := buildScriptPrompt(text, topic, style)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, &GenerationError{Message: fmt.Sprintf("Gemini API error: %v", err)}
	}

	script := strings.TrimSpace(extractText(resp))
	if script == "" {
		return nil, &GenerationError{Message: "model returned empty script"}
	}

	return s.buildResult(script), nil
}

func (s *ScriptService) buildResult(script string) *models.ScriptResult {
	wordCount := len(strings.Fields(script))
	return &models.ScriptResult{
		ScriptText:               script,
		WordCount:                wordCount,
		EstimatedDurationMinutes: EstimateDurationMinutes(wordCount, s.wordsPerMinute),
		SectionHeadings:          ExtractSectionHeadings(script),
	}
}

// EstimateDurationMinutes converts a word count into narration minutes at
// the given reference speaking pace, rounding up.
func EstimateDurationMinutes(wordCount, wordsPerMinute int) int {
	if wordCount <= 0 {
		return 0
	}
	if wordsPerMinute <= 0 {
		wordsPerMinute = 150
	}
	return (wordCount + wordsPerMinute - 1) / wordsPerMinute
}

var sectionLabels = []string{"introduction", "main content", "conclusion", "summary"}

// ExtractSectionHeadings scans script lines for ones beginning with one of
// the requested section labels. Best effort: the model is asked for this
// structure but not guaranteed to produce it, so no match is not an error.
func ExtractSectionHeadings(script string) []string {
	sections := []string{}
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		for _, label := range sectionLabels {
			if strings.HasPrefix(lower, label) {
				sections = append(sections, trimmed)
				break
			}
		}
	}
	return sections
}

func buildScriptPrompt(text, topic, style string) string {
	var b strings.Builder

	b.WriteString("Create an educational video script based on the following:\n\n")
	b.WriteString(fmt.Sprintf("Topic: %s\n", topic))
	b.WriteString(fmt.Sprintf("Content: %s\n", text))
	b.WriteString(fmt.Sprintf("Style: %s\n\n", style))

	b.WriteString(`Please create a structured script with:
1. Introduction (30 seconds) - Hook the viewer and introduce the topic
2. Main content with 3-5 key points - Each point should be clear and educational
3. Examples and explanations - Make concepts easy to understand
4. Summary and conclusion (30 seconds) - Recap key takeaways

Guidelines:
- Keep each section engaging and conversational
- Use simple language that's easy to follow
- Include natural pauses for visual elements
- Make it suitable for a 3-5 minute animated video
- Structure it so it flows well with voice-over narration

Format the response as a clear script with timestamps and sections.
`)

	return b.String()
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
