package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttributeValidator(t *testing.T) {
	t.Parallel()

	validator := NewAttributeValidator()

	tests := []struct {
		name        string
		payload     string
		expectError bool
	}{
		{
			name:    "full document",
			payload: `{"rarity":"parallel","finish":"refractor","parallelColor":"gold","printRun":50,"serialNumbered":true,"rookie":true,"position":"3B"}`,
		},
		{
			name:    "empty payload is allowed",
			payload: "",
		},
		{
			name:    "empty object",
			payload: `{}`,
		},
		{
			name:        "unknown property rejected",
			payload:     `{"holographic":true}`,
			expectError: true,
		},
		{
			name:        "invalid rarity enum",
			payload:     `{"rarity":"legendary"}`,
			expectError: true,
		},
		{
			name:        "print run below minimum",
			payload:     `{"printRun":0}`,
			expectError: true,
		},
		{
			name:        "malformed json",
			payload:     `{"rarity":`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validator.Validate([]byte(tt.payload))
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
