package parser

import (
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/errors"
)

// Query holds the deduplicated plus- and minus-words of a raw query, each
// sorted ascending.
type Query struct {
	Plus     []string
	Minus    []string
	RawQuery string
}

// Parse validates and splits a raw query. Words prefixed with a single '-'
// are minus-words; stop words are dropped after the prefix is stripped.
func Parse(query string, stopWords tokenizer.StopWords) (*Query, error) {
	if !tokenizer.IsValid(query) {
		return nil, apperrors.Invalidf(apperrors.ErrInvalidText, "query %q", query)
	}
	plus := make(map[string]struct{})
	minus := make(map[string]struct{})
	for _, word := range tokenizer.Words(query) {
		isMinus := false
		if strings.HasPrefix(word, "-") {
			isMinus = true
			word = word[1:]
			if word == "" {
				return nil, apperrors.Invalidf(apperrors.ErrEmptyMinusWord, "query %q", query)
			}
			if strings.HasPrefix(word, "-") {
				return nil, apperrors.Invalidf(apperrors.ErrDoubleMinusWord, "query %q: word %q", query, word)
			}
		}
		if stopWords.Contains(word) {
			continue
		}
		if isMinus {
			minus[word] = struct{}{}
		} else {
			plus[word] = struct{}{}
		}
	}
	return &Query{
		Plus:     sortedKeys(plus),
		Minus:    sortedKeys(minus),
		RawQuery: query,
	}, nil
}

// Key is a canonical form of the query: equal word sets give equal keys
// regardless of order, repetition, or stop words. Valid words hold no
// control bytes, so the separators cannot appear inside a word.
func (q *Query) Key() string {
	return strings.Join(q.Plus, wordSep) + sectionSep + strings.Join(q.Minus, wordSep)
}

const (
	wordSep    = "\x00"
	sectionSep = "\x01"
)

func sortedKeys(set map[string]struct{}) []string {
	words := make([]string, 0, len(set))
	for w := range set {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
