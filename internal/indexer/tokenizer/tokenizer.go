// Package tokenizer provides text tokenisation for the search engine.
// Text is split on ASCII spaces only; no case folding or stemming is
// applied, so a token matches a query word only when the bytes are equal.
package tokenizer

import (
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/errors"
)

// Token represents a single whitespace-delimited term and its position in
// the original text.
type Token struct {
	Term     string
	Position int
}

// Split breaks text into tokens on ASCII space. Consecutive spaces collapse
// and leading or trailing space is ignored. The returned terms are
// substrings of text and share its backing memory.
func Split(text string) []Token {
	tokens := make([]Token, 0, strings.Count(text, " ")+1)
	pos := 0
	for len(text) > 0 {
		text = strings.TrimLeft(text, " ")
		if text == "" {
			break
		}
		end := strings.IndexByte(text, ' ')
		if end < 0 {
			end = len(text)
		}
		tokens = append(tokens, Token{
			Term:     text[:end],
			Position: pos,
		})
		pos++
		text = text[end:]
	}
	return tokens
}

// Words is Split without positions.
func Words(text string) []string {
	tokens := Split(text)
	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.Term
	}
	return words
}

// IsValid reports whether text is free of control characters (bytes below
// 0x20). Space is the delimiter and is allowed.
func IsValid(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] < ' ' {
			return false
		}
	}
	return true
}

// StopWords is the set of tokens excluded from indexing and from queries.
type StopWords map[string]struct{}

// NewStopWords builds a stop-word set from a collection. Empty words are
// skipped; a word with control characters fails the whole construction.
func NewStopWords(words []string) (StopWords, error) {
	set := make(StopWords, len(words))
	for _, w := range words {
		if !IsValid(w) {
			return nil, apperrors.Invalidf(apperrors.ErrInvalidText, "stop word %q", w)
		}
		if w == "" {
			continue
		}
		set[w] = struct{}{}
	}
	return set, nil
}

// ParseStopWords builds a stop-word set from a space-separated string.
func ParseStopWords(text string) (StopWords, error) {
	if !IsValid(text) {
		return nil, apperrors.Invalidf(apperrors.ErrInvalidText, "stop words %q", text)
	}
	return NewStopWords(Words(text))
}

// Contains reports whether word is a stop word. A nil set contains nothing.
func (s StopWords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}
