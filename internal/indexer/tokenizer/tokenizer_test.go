package tokenizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/errors"
)

func TestWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{}},
		{"only spaces", "    ", []string{}},
		{"single", "cat", []string{"cat"}},
		{"collapse", "white   cat", []string{"white", "cat"}},
		{"trim", "  fancy collar  ", []string{"fancy", "collar"}},
		{"tabs are not delimiters", "a\tb c", []string{"a\tb", "c"}},
		{"punctuation kept", "-dog --x", []string{"-dog", "--x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Words(tt.text))
		})
	}
}

func TestSplitPositions(t *testing.T) {
	tokens := Split(" a  b c")
	require.Len(t, tokens, 3)
	for i, tok := range tokens {
		assert.Equal(t, i, tok.Position)
	}
	assert.Equal(t, "c", tokens[2].Term)
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(""))
	assert.True(t, IsValid("white cat"))
	assert.True(t, IsValid("кот и собака"))
	assert.False(t, IsValid("cat\x12dog"))
	assert.False(t, IsValid("line\n"))
	assert.False(t, IsValid("\x00"))
}

func TestParseStopWords(t *testing.T) {
	sw, err := ParseStopWords("in  the ")
	require.NoError(t, err)
	assert.True(t, sw.Contains("in"))
	assert.True(t, sw.Contains("the"))
	assert.False(t, sw.Contains(""))
	assert.Len(t, sw, 2)

	_, err = ParseStopWords("in\x01the")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidText))
}

func TestNewStopWordsSkipsEmpty(t *testing.T) {
	sw, err := NewStopWords([]string{"", "and", "and"})
	require.NoError(t, err)
	assert.Len(t, sw, 1)

	_, err = NewStopWords([]string{"ok", "bad\x1f"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidText))
}

func TestNilStopWords(t *testing.T) {
	var sw StopWords
	assert.False(t, sw.Contains("anything"))
}
