package services

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyFormat = regexp.MustCompile(`^[A-HJ-NP-Z2-9]{5}-[A-HJ-NP-Z2-9]{5}-[A-HJ-NP-Z2-9]{5}$`)

func TestGenerateKeyValue_Format(t *testing.T) {
	for i := 0; i < 50; i++ {
		v, err := GenerateKeyValue()
		require.NoError(t, err)
		assert.Regexp(t, keyFormat, v)
	}
}

func TestGenerateKeyValue_NoLookalikes(t *testing.T) {
	for i := 0; i < 50; i++ {
		v, err := GenerateKeyValue()
		require.NoError(t, err)
		assert.NotContains(t, v, "0")
		assert.NotContains(t, v, "O")
		assert.NotContains(t, v, "1")
		assert.NotContains(t, v, "I")
	}
}

func TestGenerateKeyValue_Distinct(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		v, err := GenerateKeyValue()
		require.NoError(t, err)
		assert.False(t, seen[v], "duplicate key %s", v)
		seen[v] = true
	}
}
