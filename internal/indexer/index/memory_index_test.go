package index

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/errors"
)

func newTestIndex(t *testing.T, stop string) *MemoryIndex {
	t.Helper()
	sw, err := tokenizer.ParseStopWords(stop)
	require.NoError(t, err)
	return NewMemoryIndex(sw)
}

func TestAddDocumentValidation(t *testing.T) {
	idx := newTestIndex(t, "and")
	require.NoError(t, idx.AddDocument(1, "white cat", StatusActual, nil))

	tests := []struct {
		name string
		id   int
		text string
		want error
	}{
		{"negative id", -1, "dog", apperrors.ErrInvalidID},
		{"duplicate id", 1, "dog", apperrors.ErrDuplicateID},
		{"control char", 2, "big\x02dog", apperrors.ErrInvalidText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := idx.AddDocument(tt.id, tt.text, StatusActual, []int{1})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, 1, idx.DocumentCount())
			assert.False(t, idx.Contains(2))
			_, ok := idx.Postings("dog")
			assert.False(t, ok)
		})
	}
}

func TestTermFrequenciesSumToOne(t *testing.T) {
	idx := newTestIndex(t, "in the")
	texts := []string{
		"cat in the city",
		"a a a b",
		"one",
		"fluffy cat fluffy tail expressive eyes fluffy",
	}
	for i, text := range texts {
		require.NoError(t, idx.AddDocument(i, text, StatusActual, nil))
		sum := 0.0
		for _, tf := range idx.WordFrequencies(i) {
			assert.Greater(t, tf, 0.0)
			assert.LessOrEqual(t, tf, 1.0)
			sum += tf
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "document %d", i)
	}
}

func TestStopWordsAreNotIndexed(t *testing.T) {
	idx := newTestIndex(t, "in the")
	require.NoError(t, idx.AddDocument(42, "cat in the city", StatusActual, []int{1, 2, 3}))

	_, ok := idx.Postings("in")
	assert.False(t, ok)
	freqs := idx.WordFrequencies(42)
	assert.Equal(t, Frequencies{"cat": 0.5, "city": 0.5}, freqs)
	assert.Equal(t, []string{"cat", "city"}, idx.Terms(42))
}

func TestDocumentWithOnlyStopWordsIsLive(t *testing.T) {
	idx := newTestIndex(t, "in the")
	require.NoError(t, idx.AddDocument(5, "in the", StatusBanned, nil))
	assert.True(t, idx.Contains(5))
	assert.Empty(t, idx.WordFrequencies(5))
	rec, ok := idx.Record(5)
	require.True(t, ok)
	assert.Equal(t, StatusBanned, rec.Status)

	assert.True(t, idx.RemoveDocument(5))
	assert.False(t, idx.Contains(5))
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0, AverageRating(nil))
	assert.Equal(t, 2, AverageRating([]int{1, 2, 3}))
	assert.Equal(t, 2, AverageRating([]int{2, 3}))
	assert.Equal(t, -2, AverageRating([]int{-2, -3}))
	assert.Equal(t, -1, AverageRating([]int{-7, 2, 1}))
}

func TestAddRemoveRestoresState(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			idx := newTestIndex(t, "and")
			require.NoError(t, idx.AddDocument(1, "white cat and fancy collar", StatusActual, []int{8}))
			require.NoError(t, idx.AddDocument(3, "white dog expressive eyes", StatusActual, []int{2}))

			terms := idx.TermCount()
			white, _ := idx.Postings("white")
			whiteBefore := len(white)

			require.NoError(t, idx.AddDocument(2, "white parrot unique feathers", StatusIrrelevant, []int{1}))
			if parallel {
				assert.True(t, idx.RemoveDocumentParallel(2))
			} else {
				assert.True(t, idx.RemoveDocument(2))
			}

			assert.Equal(t, []int{1, 3}, idx.DocumentIDs())
			assert.Equal(t, terms, idx.TermCount())
			white, _ = idx.Postings("white")
			assert.Len(t, white, whiteBefore)
			_, ok := idx.Postings("parrot")
			assert.False(t, ok)
			assert.Empty(t, idx.WordFrequencies(2))
			_, ok = idx.Record(2)
			assert.False(t, ok)
			assert.Equal(t, terms, idx.pool.Len())
		})
	}
}

func TestRemoveDocumentParallelManyTerms(t *testing.T) {
	idx := newTestIndex(t, "")
	text := ""
	for i := 0; i < 500; i++ {
		text += fmt.Sprintf("w%d ", i)
	}
	require.NoError(t, idx.AddDocument(7, text, StatusActual, nil))
	require.NoError(t, idx.AddDocument(8, "w1 w2", StatusActual, nil))

	assert.True(t, idx.RemoveDocumentParallel(7))
	assert.Equal(t, 2, idx.TermCount())
	assert.False(t, idx.RemoveDocumentParallel(7))
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	idx := newTestIndex(t, "")
	assert.False(t, idx.RemoveDocument(99))
	assert.Equal(t, 0, idx.DocumentCount())
}

func TestDocumentIDsAscending(t *testing.T) {
	idx := newTestIndex(t, "")
	for _, id := range []int{9, 1, 100, 4} {
		require.NoError(t, idx.AddDocument(id, "x", StatusActual, nil))
	}
	assert.Equal(t, []int{1, 4, 9, 100}, idx.DocumentIDs())
	assert.Equal(t, 4, idx.DocumentCount())
}

func TestWordFrequenciesIsACopy(t *testing.T) {
	idx := newTestIndex(t, "")
	require.NoError(t, idx.AddDocument(1, "a b", StatusActual, nil))
	freqs := idx.WordFrequencies(1)
	freqs["a"] = math.Pi
	assert.Equal(t, 0.5, idx.WordFrequencies(1)["a"])
}

func TestStatusText(t *testing.T) {
	s, err := ParseStatus("banned")
	require.NoError(t, err)
	assert.Equal(t, StatusBanned, s)
	assert.Equal(t, "BANNED", s.String())

	_, err = ParseStatus("gone")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))

	var st Status
	require.NoError(t, st.UnmarshalText([]byte("Irrelevant")))
	assert.Equal(t, StatusIrrelevant, st)
	assert.Equal(t, "Status(9)", Status(9).String())
}

func TestIndexKeysShareStorage(t *testing.T) {
	m := newTestIndex(t, "")
	require.NoError(t, m.AddDocument(1, "fluffy cat", StatusActual, nil))
	require.NoError(t, m.AddDocument(2, "cat tail", StatusActual, nil))

	keyOf := func(keys iter.Seq[string]) *byte {
		for k := range keys {
			if k == "cat" {
				return unsafe.StringData(k)
			}
		}
		t.Fatal("cat not indexed")
		return nil
	}
	forward := keyOf(maps.Keys(m.forward))
	first := keyOf(maps.Keys(m.reverse[1]))
	second := keyOf(maps.Keys(m.reverse[2]))
	assert.True(t, forward == first, "forward and reverse keys must share storage")
	assert.True(t, first == second, "documents must share one token copy")
}
