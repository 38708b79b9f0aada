package videoid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want VideoID
	}{
		{"watch URL", "https://www.youtube.com/watch?v=abc123", "abc123"},
		{"v after other params", "https://www.youtube.com/watch?feature=share&v=abc123", "abc123"},
		{"params after v", "https://www.youtube.com/watch?v=abc123&t=42s", "abc123"},
		{"upper case key", "https://www.youtube.com/watch?V=abc123", "abc123"},
		{"fragment stripped", "https://www.youtube.com/watch?v=abc123#comments", "abc123"},
		{"dashes and underscores", "https://m.youtube.com/watch?v=dQw4w9WgXcQ-_", "dQw4w9WgXcQ-_"},
		{"surrounding whitespace", "  https://www.youtube.com/watch?v=abc123  ", "abc123"},
		{"first v wins", "https://www.youtube.com/watch?v=first&v=second", "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_Invalid(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"no query", "https://www.youtube.com/"},
		{"other params only", "https://www.youtube.com/watch?list=PL123"},
		{"bare identifier", "abc123"},
		{"v without delimiter", "https://example.com/watchv=abc123"},
		{"similar key", "https://www.youtube.com/watch?vid=abc123"},
		{"empty value", "https://www.youtube.com/watch?v=&t=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.url)
			require.Error(t, err)
			assert.Empty(t, got)

			var invalid *InvalidURLError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.url, invalid.URL)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestExtract_CanonicalIDFailsConsistently(t *testing.T) {
	id, err := Extract("https://www.youtube.com/watch?v=abc123")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := Extract(string(id))
		assert.ErrorIs(t, err, ErrInvalidURL)
	}
}

func TestWatchURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", WatchURL("abc123"))

	id, err := Extract(WatchURL("a b"))
	require.NoError(t, err)
	assert.Equal(t, VideoID("a b"), id)
}
