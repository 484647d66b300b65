package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  kycStatus  ", "email "},
			expected: []string{"kycStatus", "email"},
		},
		{
			name:     "first occurrence wins",
			input:    []string{"email", "kycStatus", "email", "phoneNumber", "kycStatus"},
			expected: []string{"email", "kycStatus", "phoneNumber"},
		},
		{
			name:     "drops empties",
			input:    []string{"email", "", "  ", "address"},
			expected: []string{"email", "address"},
		},
		{
			name:     "case is significant",
			input:    []string{"Email", "email"},
			expected: []string{"Email", "email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
