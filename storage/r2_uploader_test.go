package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePublicBaseURL(t *testing.T) {
	u, err := parsePublicBaseURL("https://cdn.example.com/assets")
	require.NoError(t, err)
	assert.Equal(t, "/assets/", u.Path)

	_, err = parsePublicBaseURL("cdn.example.com")
	assert.Error(t, err)
}

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		key  string
		want string
	}{
		{"root base", "https://cdn.example.com", "tournaments/t1/logo.png", "https://cdn.example.com/tournaments/t1/logo.png"},
		{"base with path", "https://cdn.example.com/assets/", "tournaments/t1/logo.png", "https://cdn.example.com/assets/tournaments/t1/logo.png"},
		{"leading slash key", "https://cdn.example.com/assets", "/tournaments/t1/logo.png", "https://cdn.example.com/assets/tournaments/t1/logo.png"},
		{"empty key", "https://cdn.example.com", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := parsePublicBaseURL(tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, publicURL(base, tt.key))
		})
	}
}

func TestNewR2UploaderRequiresAllFields(t *testing.T) {
	_, err := NewR2Uploader(context.Background(), R2Config{AccountID: "acc", BucketName: "logos"})
	assert.Error(t, err)
}
