package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratedPasswordLength(t *testing.T) {
	gen := NewPasswordGenerator(TempPasswordLen)

	password, err := gen.Generate()
	require.NoError(t, err)
	assert.Len(t, password, TempPasswordLen)
}

func TestGeneratorRejectsShortLength(t *testing.T) {
	gen := NewPasswordGenerator(4)

	password, err := gen.Generate()
	require.NoError(t, err)
	assert.Len(t, password, TempPasswordLen)
}

func TestGeneratedPasswordCoversAllClasses(t *testing.T) {
	gen := NewPasswordGenerator(TempPasswordLen)

	for i := 0; i < 20; i++ {
		password, err := gen.Generate()
		require.NoError(t, err)

		assert.True(t, strings.ContainsAny(password, passwordLower), "missing lowercase in %q", password)
		assert.True(t, strings.ContainsAny(password, passwordUpper), "missing uppercase in %q", password)
		assert.True(t, strings.ContainsAny(password, passwordDigits), "missing digit in %q", password)
		assert.True(t, strings.ContainsAny(password, passwordSymbols), "missing symbol in %q", password)
	}
}

func TestGeneratedPasswordsAreUnique(t *testing.T) {
	gen := NewPasswordGenerator(TempPasswordLen)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		password, err := gen.Generate()
		require.NoError(t, err)
		assert.False(t, seen[password], "duplicate password %q", password)
		seen[password] = true
	}
}
