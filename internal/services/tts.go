package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

type elevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// TTSService synthesizes narration audio through the ElevenLabs API and
// stores the result as an addressable artifact. Callers only ever see the
// reference, never the encoding.
type TTSService struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	modelID        string
	defaultVoiceID string
	storagePath    string
}

func NewTTSService(baseURL, apiKey, modelID, defaultVoiceID, storagePath string) *TTSService {
	return &TTSService{
		httpClient:     &http.Client{Timeout: 120 * time.Second},
		baseURL:        baseURL,
		apiKey:         apiKey,
		modelID:        modelID,
		defaultVoiceID: defaultVoiceID,
		storagePath:    storagePath,
	}
}

// DefaultVoiceID is the voice used when a request does not override it.
func (s *TTSService) DefaultVoiceID() string {
	return s.defaultVoiceID
}

// Synthesize converts script text into audio with the given voice and
// returns an addressable reference: a /files/ path when a storage directory
// is configured, an inline data URL otherwise.
func (s *TTSService) Synthesize(ctx context.Context, text, voiceID, artifactName string) (string, error) {
	if voiceID == "" {
		voiceID = s.defaultVoiceID
	}

	audio, err := s.fetchAudio(ctx, text, voiceID)
	if err != nil {
		return "", err
	}

	if s.storagePath == "" {
		// Known limitation: inline payloads bloat the record. Kept only for
		// storage-less dev setups.
		return "data:audio/mp3;base64," + base64.StdEncoding.EncodeToString(audio), nil
	}

	relPath := filepath.Join("audio", artifactName+".mp3")
	fullPath := filepath.Join(s.storagePath, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", &SynthesisError{Message: fmt.Sprintf("failed to create audio directory: %v", err)}
	}
	if err := os.WriteFile(fullPath, audio, 0o644); err != nil {
		return "", &SynthesisError{Message: fmt.Sprintf("failed to store audio artifact: %v", err)}
	}

	return "/api/v1/files/" + filepath.ToSlash(relPath), nil
}

func (s *TTSService) fetchAudio(ctx context.Context, text, voiceID string) ([]byte, error) {
	reqBody := elevenLabsRequest{
		Text:    text,
		ModelID: s.modelID,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &SynthesisError{Message: fmt.Sprintf("failed to marshal TTS request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+voiceID, bytes.NewReader(payload))
	if err != nil {
		return nil, &SynthesisError{Message: fmt.Sprintf("failed to build TTS request: %v", err)}
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &SynthesisError{Message: fmt.Sprintf("TTS request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SynthesisError{Message: fmt.Sprintf("failed to read TTS response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		msg := parseProviderError(body)
		return nil, &SynthesisError{Message: fmt.Sprintf("TTS provider returned %d: %s", resp.StatusCode, msg)}
	}

	if len(body) == 0 {
		return nil, &SynthesisError{Message: "TTS provider returned empty audio"}
	}

	return body, nil
}

func parseProviderError(body []byte) string {
	var errResp struct {
		Error  string `json:"error"`
		Detail struct {
			Message string `json:"message"`
		} `json:"detail"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Error != "" {
			return errResp.Error
		}
		if errResp.Detail.Message != "" {
			return errResp.Detail.Message
		}
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
