package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMediaContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"image/png", true},
		{"video/mp4", true},
		{"image/jpeg; charset=binary", true},
		{"application/pdf", false},
		{"text/html", false},
		{"", false},
		{"not a type", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMediaContentType(tt.contentType))
		})
	}
}

func TestExerciseMediaKey(t *testing.T) {
	key := ExerciseMediaKey("abc123", "image/png")

	assert.True(t, strings.HasPrefix(key, "exercises/abc123/image/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.NotEqual(t, key, ExerciseMediaKey("abc123", "image/png"))
}
