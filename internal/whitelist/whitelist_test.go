package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestChecker(t *testing.T) {
	c := NewChecker([]string{" CDC@vit.ac.in ", "@placements.org", "example.com", ""}, zap.NewNop())

	tests := []struct {
		from string
		want bool
	}{
		{"cdc@vit.ac.in", true},
		{"other@vit.ac.in", false},
		{"hr@placements.org", true},
		{"hr@mail.example.com", true},
		{"hr@badexample.com", false},
		{"not-an-address", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Allows(tt.from))
		})
	}
}

func TestEmptyCheckerAllowsEveryone(t *testing.T) {
	c := NewChecker(nil, nil)

	assert.False(t, c.Enabled())
	assert.True(t, c.Allows("anyone@anywhere.com"))
	assert.False(t, c.IsWhitelisted("anyone@anywhere.com"))
}
