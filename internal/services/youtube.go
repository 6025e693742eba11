package services

import (
	"context"
	"fmt"
	"log"
	urlpkg "net/url"
	"regexp"
	"strings"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"
	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"

	"eduvid-backend/internal/models"
)

// Caps the caption transcript appended to extracted text so a long lecture
// does not blow past the script model's useful context.
const maxTranscriptChars = 12000

// YouTubeService extracts text and metadata for a YouTube source URL. When a
// Data API key is configured it uses the official videos.list endpoint;
// otherwise it falls back to scraping metadata through the kkdai client.
type YouTubeService struct {
	data          *youtubeapi.Service
	ytClient      *yt.Client
	transcriptAPI *ytapi.YouTubeTranscriptApi
}

func NewYouTubeService(ctx context.Context, apiKey string) (*YouTubeService, error) {
	s := &YouTubeService{
		ytClient:      &yt.Client{},
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
	}

	if apiKey != "" {
		data, err := youtubeapi.NewService(ctx, option.WithAPIKey(apiKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create YouTube Data API client: %w", err)
		}
		s.data = data
	} else {
		log.Println("⚠ YOUTUBE_API_KEY not set, using scraper fallback for video metadata")
	}

	return s, nil
}

// Extract resolves a YouTube URL into extracted text plus thumbnail and
// passthrough metadata. The text is title + description, enriched with the
// caption transcript when one is available.
func (s *YouTubeService) Extract(ctx context.Context, sourceURL string) (*models.ExtractedContent, error) {
	videoID, err := ParseVideoID(sourceURL)
	if err != nil {
		return nil, err
	}

	var content *models.ExtractedContent
	if s.data != nil {
		content, err = s.extractViaDataAPI(ctx, videoID)
	} else {
		content, err = s.extractViaScraper(ctx, videoID)
	}
	if err != nil {
		return nil, err
	}

	if transcript := s.fetchTranscript(videoID); transcript != "" {
		content.Text = content.Text + "\n\n" + transcript
	}

	return content, nil
}

func (s *YouTubeService) extractViaDataAPI(ctx context.Context, videoID string) (*models.ExtractedContent, error) {
	call := s.data.Videos.List([]string{"snippet", "contentDetails", "statistics"}).Id(videoID)
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("YouTube Data API request failed for %s: %w", videoID, err)
	}

	if len(resp.Items) == 0 {
		return nil, &NotFoundError{Message: "Video not found"}
	}

	item := resp.Items[0]

	content := &models.ExtractedContent{
		Text:         item.Snippet.Title + "\n\n" + item.Snippet.Description,
		ThumbnailURL: bestThumbnail(item.Snippet.Thumbnails),
		VideoID:      videoID,
		Title:        item.Snippet.Title,
		ChannelTitle: item.Snippet.ChannelTitle,
		PublishedAt:  item.Snippet.PublishedAt,
	}
	if item.ContentDetails != nil {
		content.Duration = item.ContentDetails.Duration
	}
	if item.Statistics != nil {
		content.ViewCount = item.Statistics.ViewCount
		content.LikeCount = item.Statistics.LikeCount
	}

	return content, nil
}

func (s *YouTubeService) extractViaScraper(ctx context.Context, videoID string) (*models.ExtractedContent, error) {
	video, err := s.ytClient.GetVideoContext(ctx, videoID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "unavailable") {
			return nil, &NotFoundError{Message: "Video not found"}
		}
		return nil, fmt.Errorf("failed to fetch YouTube video metadata: %w", err)
	}

	thumbnail := fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", videoID)
	bestWidth := uint(0)
	for _, t := range video.Thumbnails {
		if t.Width > bestWidth {
			bestWidth = t.Width
			thumbnail = t.URL
		}
	}

	return &models.ExtractedContent{
		Text:         video.Title + "\n\n" + video.Description,
		ThumbnailURL: thumbnail,
		VideoID:      videoID,
		Title:        video.Title,
		Duration:     video.Duration.String(),
		ViewCount:    uint64(video.Views),
		ChannelTitle: video.Author,
		PublishedAt:  video.PublishDate.Format("2006-01-02T15:04:05Z"),
	}, nil
}

// fetchTranscript pulls the caption track for a video. Best effort: captions
// are frequently disabled, so any failure yields an empty string.
func (s *YouTubeService) fetchTranscript(videoID string) string {
	transcript, err := s.transcriptAPI.GetTranscript(videoID, []string{"en", "en-US", "en-GB"})
	if err != nil {
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			return ""
		}
	}

	var fullText strings.Builder
	for _, entry := range transcript.Entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		if fullText.Len() > 0 {
			fullText.WriteString(" ")
		}
		fullText.WriteString(text)
		if fullText.Len() >= maxTranscriptChars {
			break
		}
	}

	return strings.TrimSpace(fullText.String())
}

func bestThumbnail(t *youtubeapi.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, candidate := range []*youtubeapi.Thumbnail{t.Maxres, t.Standard, t.High, t.Medium, t.Default} {
		if candidate != nil && candidate.Url != "" {
			return candidate.Url
		}
	}
	return ""
}

var videoIDRegex = regexp.MustCompile(`(?:v=|/v/|youtu\.be/|embed/|shorts/)([A-Za-z0-9_-]+)`)

// ParseVideoID derives the video identifier from a watch or short URL form.
// The result is independent of trailing query parameters. Returns
// InvalidInputError when neither recognized shape matches.
func ParseVideoID(sourceURL string) (string, error) {
	parsed, err := urlpkg.Parse(sourceURL)
	if err == nil {
		host := strings.ToLower(parsed.Host)
		path := strings.Trim(parsed.Path, "/")

		// youtube.com/watch?v=VIDEO_ID, /shorts/, /embed/, /v/
		if strings.Contains(host, "youtube.com") {
			if v := parsed.Query().Get("v"); v != "" {
				return v, nil
			}

			parts := strings.Split(path, "/")
			if len(parts) >= 2 {
				switch parts[0] {
				case "shorts", "embed", "v":
					if parts[1] != "" {
						return parts[1], nil
					}
				}
			}
		}

		// youtu.be/VIDEO_ID
		if strings.Contains(host, "youtu.be") && path != "" {
			return strings.Split(path, "/")[0], nil
		}
	}

	// Fallback for unusual URL forms
	if m := videoIDRegex.FindStringSubmatch(sourceURL); len(m) > 1 {
		return m[1], nil
	}

	return "", &InvalidInputError{Message: "Invalid YouTube URL"}
}
