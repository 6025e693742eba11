package services

import (
	"errors"
	"testing"
)

func TestParseVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch URL with extra params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s&list=PL123", "dQw4w9WgXcQ"},
		{"short URL", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short URL with query", "https://youtu.be/dQw4w9WgXcQ?si=share", "dQw4w9WgXcQ"},
		{"shorts URL", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed URL", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"mobile host", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"no scheme", "youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short non-standard id", "https://www.youtube.com/watch?v=abc123", "abc123"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseVideoID(tc.url)
			if err != nil {
				t.Fatalf("ParseVideoID(%q) returned error: %v", tc.url, err)
			}
			if got != tc.want {
				t.Errorf("ParseVideoID(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}

func TestParseVideoID_Invalid(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"not a URL", "just some text"},
		{"unrelated host", "https://vimeo.com/12345"},
		{"watch without id", "https://www.youtube.com/watch"},
		{"bare host", "https://www.youtube.com/"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseVideoID(tc.url)
			if err == nil {
				t.Fatalf("ParseVideoID(%q) succeeded, want error", tc.url)
			}

			var invalidInput *InvalidInputError
			if !errors.As(err, &invalidInput) {
				t.Errorf("ParseVideoID(%q) error = %T, want *InvalidInputError", tc.url, err)
			}
		})
	}
}
