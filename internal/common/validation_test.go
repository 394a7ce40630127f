package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateCaption(t *testing.T) {
	require.NoError(t, ValidateCaption(""))
	require.NoError(t, ValidateCaption(strings.Repeat("a", 2200)))
	require.ErrorIs(t, ValidateCaption(strings.Repeat("a", 2201)), ErrValidation)
}

func TestValidateCountryCode(t *testing.T) {
	tests := []struct {
		code string
		ok   bool
	}{
		{"JP", true},
		{"BR", true},
		{"jp", false},
		{"JPN", false},
		{"J", false},
		{"", false},
		{"12", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := ValidateCountryCode(tt.code)
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrValidation)
			}
		})
	}
}

func TestValidateMediaPaths(t *testing.T) {
	require.ErrorIs(t, ValidateMediaPaths(nil), ErrValidation)
	require.ErrorIs(t, ValidateMediaPaths([]string{"a.jpg", "  "}), ErrValidation)
	require.NoError(t, ValidateMediaPaths([]string{"a.jpg"}))
}

func TestValidateSearchQuery(t *testing.T) {
	require.ErrorIs(t, ValidateSearchQuery(""), ErrValidation)
	require.ErrorIs(t, ValidateSearchQuery(" a "), ErrValidation)
	require.NoError(t, ValidateSearchQuery("ad"))
}

func TestVisibilityType(t *testing.T) {
	require.True(t, VisibilityPersonal.IsValid())
	require.True(t, VisibilityShared.IsValid())
	require.True(t, VisibilityCollaborative.IsValid())
	require.False(t, VisibilityType("FRIENDS").IsValid())
}

func TestPermissionStatus(t *testing.T) {
	require.True(t, PermissionPending.IsValid())
	require.False(t, PermissionStatus("GRANTED").IsValid())
}
