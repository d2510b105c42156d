package ranker

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/errors"
)

var policies = []Policy{Sequential, Parallel}

type fixture struct {
	idx  *index.MemoryIndex
	stop tokenizer.StopWords
}

func newFixture(t testing.TB, stop string) *fixture {
	t.Helper()
	sw, err := tokenizer.ParseStopWords(stop)
	require.NoError(t, err)
	return &fixture{idx: index.NewMemoryIndex(sw), stop: sw}
}

func (f *fixture) add(t testing.TB, id int, text string, status index.Status, ratings ...int) {
	t.Helper()
	require.NoError(t, f.idx.AddDocument(id, text, status, ratings))
}

func (f *fixture) query(t testing.TB, raw string) *parser.Query {
	t.Helper()
	q, err := parser.Parse(raw, f.stop)
	require.NoError(t, err)
	return q
}

func petFixture(t *testing.T) *fixture {
	f := newFixture(t, "and in on")
	f.add(t, 0, "white cat and fashionable collar", index.StatusActual, 8, -3)
	f.add(t, 1, "fluffy cat fluffy tail", index.StatusActual, 7, 2, 7)
	f.add(t, 2, "groomed dog expressive eyes", index.StatusActual, 5, -12, 2, 1)
	f.add(t, 3, "groomed starling eugene", index.StatusBanned, 9)
	return f
}

func TestFindTopRelevance(t *testing.T) {
	f := petFixture(t)
	r := New(4, 0)
	for _, p := range policies {
		t.Run(p.String(), func(t *testing.T) {
			docs := r.FindTop(f.idx, f.query(t, "fluffy groomed cat"), StatusIs(index.StatusActual), p)
			require.Len(t, docs, 3)

			assert.Equal(t, 1, docs[0].ID)
			assert.InDelta(t, 0.866434, docs[0].Relevance, 1e-6)
			assert.Equal(t, 5, docs[0].Rating)

			assert.Equal(t, 0, docs[1].ID)
			assert.InDelta(t, 0.173287, docs[1].Relevance, 1e-6)
			assert.Equal(t, 2, docs[1].Rating)

			assert.Equal(t, 2, docs[2].ID)
			assert.InDelta(t, 0.173287, docs[2].Relevance, 1e-6)
			assert.Equal(t, -1, docs[2].Rating)
		})
	}
}

func TestFindTopBannedStatus(t *testing.T) {
	f := petFixture(t)
	r := New(4, 0)
	for _, p := range policies {
		docs := r.FindTop(f.idx, f.query(t, "fluffy groomed cat"), StatusIs(index.StatusBanned), p)
		require.Len(t, docs, 1)
		assert.Equal(t, 3, docs[0].ID)
		assert.InDelta(t, 0.231049, docs[0].Relevance, 1e-6)
	}
}

func TestFindTopCustomPredicate(t *testing.T) {
	f := petFixture(t)
	r := New(4, 0)
	even := func(id int, _ index.Status, _ int) bool { return id%2 == 0 }
	for _, p := range policies {
		docs := r.FindTop(f.idx, f.query(t, "fluffy groomed cat"), even, p)
		ids := make([]int, len(docs))
		for i, d := range docs {
			ids[i] = d.ID
		}
		assert.Equal(t, []int{0, 2}, ids)
	}
}

func TestMinusWords(t *testing.T) {
	f := newFixture(t, "and")
	f.add(t, 2, "white cat and fancy collar", index.StatusActual, 1)
	f.add(t, 3, "white dog expressive eyes", index.StatusActual, 1)
	r := New(2, 0)
	for _, p := range policies {
		t.Run(p.String(), func(t *testing.T) {
			docs := r.FindTop(f.idx, f.query(t, "white -dog"), StatusIs(index.StatusActual), p)
			require.NotEmpty(t, docs)
			assert.Equal(t, 2, docs[0].ID)

			docs = r.FindTop(f.idx, f.query(t, "white -cat"), StatusIs(index.StatusActual), p)
			require.NotEmpty(t, docs)
			assert.Equal(t, 3, docs[0].ID)

			docs = r.FindTop(f.idx, f.query(t, "white -cat -dog"), StatusIs(index.StatusActual), p)
			assert.Empty(t, docs)
		})
	}
}

func TestStopWordQueryMatchesNothing(t *testing.T) {
	f := newFixture(t, "in the")
	f.add(t, 42, "cat in the city", index.StatusActual, 1, 2, 3)
	r := New(2, 0)
	for _, p := range policies {
		assert.Empty(t, r.FindTop(f.idx, f.query(t, "in"), StatusIs(index.StatusActual), p))
		docs := r.FindTop(f.idx, f.query(t, "city"), StatusIs(index.StatusActual), p)
		require.Len(t, docs, 1)
		assert.Equal(t, 42, docs[0].ID)
	}
}

func TestEmptyIndex(t *testing.T) {
	f := newFixture(t, "")
	r := New(2, 0)
	for _, p := range policies {
		assert.Empty(t, r.FindTop(f.idx, f.query(t, "anything -else"), StatusIs(index.StatusActual), p))
	}
}

func TestTruncatesAndOrders(t *testing.T) {
	f := newFixture(t, "")
	for id := 0; id < 12; id++ {
		f.add(t, id, "common "+strings.Repeat("filler ", id%4), index.StatusActual, id)
	}
	f.add(t, 100, "rare", index.StatusActual, 0)
	r := New(3, 0)
	for _, p := range policies {
		docs := r.FindTop(f.idx, f.query(t, "common"), StatusIs(index.StatusActual), p)
		require.Len(t, docs, MaxResults)
		assertOrdered(t, docs)
		// Documents with no filler have tf 1; highest ratings among them win.
		assert.Equal(t, 8, docs[0].ID)
		assert.Equal(t, 4, docs[1].ID)
		assert.Equal(t, 0, docs[2].ID)
	}
}

func TestSortEpsilonTieBreak(t *testing.T) {
	docs := []index.Document{
		{ID: 1, Relevance: 0.5, Rating: 1},
		{ID: 2, Relevance: 0.5 + 1e-7, Rating: 9},
		{ID: 3, Relevance: 0.9, Rating: -5},
		{ID: 4, Relevance: 0.5 - 1e-7, Rating: 4},
	}
	Sort(docs)
	ids := []int{docs[0].ID, docs[1].ID, docs[2].ID, docs[3].ID}
	assert.Equal(t, []int{3, 2, 4, 1}, ids)
}

func TestIDF(t *testing.T) {
	assert.InDelta(t, math.Log(2), IDF(4, 2), 1e-12)
	assert.Equal(t, 0.0, IDF(3, 3))
}

func TestParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	vocab := make([]string, 40)
	for i := range vocab {
		vocab[i] = fmt.Sprintf("w%d", i)
	}
	f := newFixture(t, "w0 w1")
	for id := 0; id < 300; id++ {
		n := 1 + rng.Intn(12)
		words := make([]string, n)
		for i := range words {
			words[i] = vocab[rng.Intn(len(vocab))]
		}
		f.add(t, id, strings.Join(words, " "), index.Status(rng.Intn(4)), rng.Intn(21)-10)
	}

	r := New(7, 4)
	for i := 0; i < 50; i++ {
		var parts []string
		for j := 0; j < 1+rng.Intn(6); j++ {
			w := vocab[rng.Intn(len(vocab))]
			if rng.Intn(4) == 0 {
				w = "-" + w
			}
			parts = append(parts, w)
		}
		q := f.query(t, strings.Join(parts, " "))
		seq := r.FindTop(f.idx, q, StatusIs(index.StatusActual), Sequential)
		par := r.FindTop(f.idx, q, StatusIs(index.StatusActual), Parallel)
		require.Equal(t, len(seq), len(par), q.RawQuery)
		for k := range seq {
			assert.Equal(t, seq[k].ID, par[k].ID, q.RawQuery)
			assert.InDelta(t, seq[k].Relevance, par[k].Relevance, 1e-9)
		}
		assertOrdered(t, seq)
		for _, d := range seq {
			rec, ok := f.idx.Record(d.ID)
			require.True(t, ok)
			assert.Equal(t, index.StatusActual, rec.Status)
		}
	}
}

func assertOrdered(t *testing.T, docs []index.Document) {
	t.Helper()
	assert.LessOrEqual(t, len(docs), MaxResults)
	for i := 1; i < len(docs); i++ {
		prev, cur := docs[i-1], docs[i]
		if math.Abs(prev.Relevance-cur.Relevance) < Epsilon {
			assert.GreaterOrEqual(t, prev.Rating, cur.Rating)
		} else {
			assert.Greater(t, prev.Relevance, cur.Relevance)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{"seq": Sequential, "Sequential": Sequential, "par": Parallel, " parallel ": Parallel} {
		got, err := ParsePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePolicy("fast")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}
