package extension

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanCreatePrompt(t *testing.T) {
	tests := []struct {
		name        string
		isPremium   bool
		promptCount int
		allowed     bool
	}{
		{"free under limit", false, 0, true},
		{"free one below limit", false, FreePromptLimit - 1, true},
		{"free at limit", false, FreePromptLimit, false},
		{"free over limit", false, FreePromptLimit + 10, false},
		{"premium at limit", true, FreePromptLimit, true},
		{"premium far past limit", true, 1000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := CanCreatePrompt(tt.isPremium, tt.promptCount)
			assert.Equal(t, tt.allowed, decision.Allowed)
			if !tt.allowed {
				assert.NotEmpty(t, decision.Reason, "denials must carry a reason")
			}
		})
	}
}

func TestCanCreateCategory(t *testing.T) {
	tests := []struct {
		name                string
		isPremium           bool
		customCategoryCount int
		allowed             bool
	}{
		{"free with no custom categories", false, 0, true},
		{"free at limit", false, FreeCustomCategoryLimit, false},
		{"premium at limit", true, FreeCustomCategoryLimit, true},
		{"premium many categories", true, 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := CanCreateCategory(tt.isPremium, tt.customCategoryCount)
			assert.Equal(t, tt.allowed, decision.Allowed)
			if !tt.allowed {
				assert.NotEmpty(t, decision.Reason)
			}
		})
	}
}

func TestUngatedFeatures(t *testing.T) {
	assert.True(t, CanUseFavorites().Allowed)
	assert.True(t, CanCopyPrompt().Allowed)
	assert.True(t, CanViewHistory().Allowed)
}
