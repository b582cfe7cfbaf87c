package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsString(t *testing.T) {
	assert.True(t, ContainsString([]string{"a", "b"}, "a"))
	assert.False(t, ContainsString([]string{}, "a"))
	assert.False(t, ContainsString([]string{"a", "b"}, "c"))
}

func TestMin(t *testing.T) {
	assert.Equal(t, 1, Min(1, 2))
	assert.Equal(t, -3, Min(-3, 0))
	assert.Equal(t, 5, Min(5, 5))
}

func TestTextToMd5HashIsDeterministic(t *testing.T) {
	first := TextToMd5Hash("https://example.com/a")
	second := TextToMd5Hash("https://example.com/a")
	assert.Equal(t, first, second)
	assert.Len(t, first, 32)
	assert.NotEqual(t, first, TextToMd5Hash("https://example.com/b"))
}

func TestIsProdEnv(t *testing.T) {
	t.Setenv("DAILYDROP_ENV", "prod")
	assert.True(t, IsProdEnv())

	t.Setenv("DAILYDROP_ENV", "dev")
	assert.False(t, IsProdEnv())

	t.Setenv("DAILYDROP_ENV", "")
	assert.False(t, IsProdEnv())
}

func TestRandomAlphabetString(t *testing.T) {
	s := RandomAlphabetString(8)
	assert.Len(t, s, 8)
	for _, r := range s {
		assert.True(t, r >= 'a' && r <= 'z')
	}
}
