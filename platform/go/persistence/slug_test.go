package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		expectSlug  string
		expectError bool
	}{
		{
			name:       "already normalized",
			input:      "102-freddie-freeman",
			expectSlug: "102-freddie-freeman",
		},
		{
			name:       "trims whitespace and lowercases",
			input:      "  C90A-ARI-Austin-Riley ",
			expectSlug: "c90a-ari-austin-riley",
		},
		{
			name:        "empty string",
			input:       "   ",
			expectError: true,
		},
		{
			name:        "invalid characters",
			input:       "102_freddie",
			expectError: true,
		},
		{
			name:        "leading hyphen",
			input:       "-102-freddie",
			expectError: true,
		},
		{
			name:        "consecutive hyphens",
			input:       "102--freddie",
			expectError: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			slug, err := NormalizeSlug(tt.input)
			if tt.expectError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.expectSlug, slug)
		})
	}
}
