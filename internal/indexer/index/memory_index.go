package index

import (
	"log/slog"
	"maps"
	"net/http"
	"sort"

	"github.com/RoaringBitmap/roaring/roaring64"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/intern"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/errors"
)

// removeBatch is the number of tokens one goroutine prunes during a
// parallel removal.
const removeBatch = 64

// MemoryIndex is an in-memory inverted index with a reverse mirror.
//
// MemoryIndex performs no locking. Callers must not overlap a mutation with
// any other call on the same instance; concurrent read-only calls are safe.
type MemoryIndex struct {
	stopWords tokenizer.StopWords
	pool      *intern.Pool
	forward   map[string]Postings
	reverse   map[int]Frequencies
	records   map[int]Record
	live      *roaring64.Bitmap
	logger    *slog.Logger
}

func NewMemoryIndex(stopWords tokenizer.StopWords) *MemoryIndex {
	return &MemoryIndex{
		stopWords: stopWords,
		pool:      intern.New(),
		forward:   make(map[string]Postings),
		reverse:   make(map[int]Frequencies),
		records:   make(map[int]Record),
		live:      roaring64.New(),
		logger:    slog.Default().With("component", "memory-index"),
	}
}

// AddDocument validates and indexes a document. Nothing is mutated unless
// every check passes.
func (m *MemoryIndex) AddDocument(id int, text string, status Status, ratings []int) error {
	if id < 0 {
		return apperrors.Invalidf(apperrors.ErrInvalidID, "document id %d is negative", id)
	}
	if _, exists := m.records[id]; exists {
		return apperrors.Newf(apperrors.ErrDuplicateID, http.StatusConflict, "document id %d", id)
	}
	if !tokenizer.IsValid(text) {
		return apperrors.Invalidf(apperrors.ErrInvalidText, "document %d", id)
	}

	words := m.splitNoStop(text)
	freqs := make(Frequencies, len(words))
	if len(words) > 0 {
		inv := 1.0 / float64(len(words))
		for _, w := range words {
			term := m.pool.Intern(w)
			freqs[term] += inv
		}
	}
	for term, tf := range freqs {
		postings, ok := m.forward[term]
		if !ok {
			postings = make(Postings)
			m.forward[term] = postings
		}
		postings[id] = tf
	}
	m.reverse[id] = freqs
	m.records[id] = Record{Rating: AverageRating(ratings), Status: status}
	m.live.Add(uint64(id))

	m.logger.Debug("document indexed",
		"doc_id", id,
		"token_count", len(words),
		"distinct_terms", len(freqs),
		"status", status.String(),
	)
	return nil
}

// RemoveDocument deletes id from every structure and prunes tokens whose
// posting list becomes empty. It reports whether id was live.
func (m *MemoryIndex) RemoveDocument(id int) bool {
	freqs, ok := m.reverse[id]
	if !ok {
		return false
	}
	for term := range freqs {
		postings := m.forward[term]
		delete(postings, id)
		if len(postings) == 0 {
			delete(m.forward, term)
			m.pool.Release(term)
		}
	}
	m.forget(id)
	return true
}

// RemoveDocumentParallel is RemoveDocument with the per-token deletions
// spread over goroutines. Each goroutine owns a disjoint batch of tokens,
// so every inner posting map has exactly one writer; the outer map is only
// pruned after the group joins.
func (m *MemoryIndex) RemoveDocumentParallel(id int) bool {
	freqs, ok := m.reverse[id]
	if !ok {
		return false
	}
	terms := make([]string, 0, len(freqs))
	for term := range freqs {
		terms = append(terms, term)
	}

	var g errgroup.Group
	emptied := make([][]string, (len(terms)+removeBatch-1)/removeBatch)
	for b := range emptied {
		lo := b * removeBatch
		hi := min(lo+removeBatch, len(terms))
		g.Go(func() error {
			for _, term := range terms[lo:hi] {
				postings := m.forward[term]
				delete(postings, id)
				if len(postings) == 0 {
					emptied[b] = append(emptied[b], term)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, batch := range emptied {
		for _, term := range batch {
			delete(m.forward, term)
			m.pool.Release(term)
		}
	}
	m.forget(id)
	return true
}

func (m *MemoryIndex) forget(id int) {
	delete(m.reverse, id)
	delete(m.records, id)
	m.live.Remove(uint64(id))
	m.logger.Debug("document removed", "doc_id", id)
}

// WordFrequencies returns a copy of the token frequencies of id, or an
// empty map when id is not live.
func (m *MemoryIndex) WordFrequencies(id int) Frequencies {
	freqs, ok := m.reverse[id]
	if !ok {
		return Frequencies{}
	}
	return maps.Clone(freqs)
}

// Terms returns the distinct tokens of id in ascending order.
func (m *MemoryIndex) Terms(id int) []string {
	freqs := m.reverse[id]
	terms := make([]string, 0, len(freqs))
	for term := range freqs {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Postings returns the live posting list for term. The map must be treated
// as read-only.
func (m *MemoryIndex) Postings(term string) (Postings, bool) {
	p, ok := m.forward[term]
	return p, ok
}

// HasPosting reports whether id contains term.
func (m *MemoryIndex) HasPosting(term string, id int) bool {
	_, ok := m.forward[term][id]
	return ok
}

func (m *MemoryIndex) Record(id int) (Record, bool) {
	r, ok := m.records[id]
	return r, ok
}

func (m *MemoryIndex) Contains(id int) bool {
	return m.live.Contains(uint64(id))
}

func (m *MemoryIndex) DocumentCount() int {
	return int(m.live.GetCardinality())
}

// DocumentIDs returns every live id in ascending order.
func (m *MemoryIndex) DocumentIDs() []int {
	ids := make([]int, 0, m.live.GetCardinality())
	it := m.live.Iterator()
	for it.HasNext() {
		ids = append(ids, int(it.Next()))
	}
	return ids
}

func (m *MemoryIndex) TermCount() int {
	return len(m.forward)
}

func (m *MemoryIndex) IsStopWord(word string) bool {
	return m.stopWords.Contains(word)
}

func (m *MemoryIndex) splitNoStop(text string) []string {
	tokens := tokenizer.Split(text)
	words := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if m.stopWords.Contains(t.Term) {
			continue
		}
		words = append(words, t.Term)
	}
	return words
}
