// Package executor is the search server facade. It owns the inverted index,
// guards it with an index-wide readers-writer lock and routes queries to the
// ranker.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/dedup"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/errors"
)

type Options struct {
	// Shards sizes the accumulator used by parallel ranking.
	Shards int
	// Workers caps goroutines per parallel query and per ProcessQueries
	// batch. Zero means GOMAXPROCS.
	Workers int
	// Policy is the mode used by FindTopDocuments and friends.
	Policy ranker.Policy
	// Unsynchronized drops the index-wide lock. The caller then guarantees
	// that no mutation overlaps any other call.
	Unsynchronized bool
}

type Executor struct {
	mu        sync.RWMutex
	locking   bool
	stopWords tokenizer.StopWords
	idx       *index.MemoryIndex
	ranker    *ranker.Ranker
	policy    ranker.Policy
	workers   int
	logger    *slog.Logger
}

func New(stopWords tokenizer.StopWords, opts Options) *Executor {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Executor{
		locking:   !opts.Unsynchronized,
		stopWords: stopWords,
		idx:       index.NewMemoryIndex(stopWords),
		ranker:    ranker.New(opts.Shards, workers),
		policy:    opts.Policy,
		workers:   workers,
		logger:    slog.Default().With("component", "search-executor"),
	}
}

// NewFromText builds an executor from a space-separated stop-word line.
func NewFromText(stopWords string, opts Options) (*Executor, error) {
	sw, err := tokenizer.ParseStopWords(stopWords)
	if err != nil {
		return nil, fmt.Errorf("parsing stop words: %w", err)
	}
	return New(sw, opts), nil
}

// NewFromWords builds an executor from a stop-word collection.
func NewFromWords(stopWords []string, opts Options) (*Executor, error) {
	sw, err := tokenizer.NewStopWords(stopWords)
	if err != nil {
		return nil, fmt.Errorf("building stop words: %w", err)
	}
	return New(sw, opts), nil
}

func (e *Executor) lock() func() {
	if !e.locking {
		return func() {}
	}
	e.mu.Lock()
	return e.mu.Unlock
}

func (e *Executor) rlock() func() {
	if !e.locking {
		return func() {}
	}
	e.mu.RLock()
	return e.mu.RUnlock
}

func (e *Executor) AddDocument(id int, text string, status index.Status, ratings []int) error {
	defer e.lock()()
	return e.idx.AddDocument(id, text, status, ratings)
}

// RemoveDocument deletes id and reports whether it was live. Removing an
// absent id is a no-op.
func (e *Executor) RemoveDocument(policy ranker.Policy, id int) bool {
	defer e.lock()()
	if policy == ranker.Parallel {
		return e.idx.RemoveDocumentParallel(id)
	}
	return e.idx.RemoveDocument(id)
}

// FindTopDocuments ranks documents with status Actual.
func (e *Executor) FindTopDocuments(query string) ([]index.Document, error) {
	return e.FindTopDocumentsWithPolicy(e.policy, query, ranker.StatusIs(index.StatusActual))
}

func (e *Executor) FindTopDocumentsByStatus(query string, status index.Status) ([]index.Document, error) {
	return e.FindTopDocumentsWithPolicy(e.policy, query, ranker.StatusIs(status))
}

func (e *Executor) FindTopDocumentsFunc(query string, pred ranker.Predicate) ([]index.Document, error) {
	return e.FindTopDocumentsWithPolicy(e.policy, query, pred)
}

// FindTopDocumentsWithPolicy is the general form. In parallel mode pred is
// called from several goroutines at once.
func (e *Executor) FindTopDocumentsWithPolicy(policy ranker.Policy, query string, pred ranker.Predicate) ([]index.Document, error) {
	q, err := e.ParseQuery(query)
	if err != nil {
		return nil, err
	}
	return e.FindTopParsed(policy, q, pred), nil
}

// ParseQuery validates query against the executor's stop words.
func (e *Executor) ParseQuery(query string) (*parser.Query, error) {
	return parser.Parse(query, e.stopWords)
}

// FindTopParsed ranks an already parsed query.
func (e *Executor) FindTopParsed(policy ranker.Policy, q *parser.Query, pred ranker.Predicate) []index.Document {
	defer e.rlock()()
	return e.ranker.FindTop(e.idx, q, pred, policy)
}

// Policy is the default ranking mode.
func (e *Executor) Policy() ranker.Policy {
	return e.policy
}

// MatchDocument returns the plus-words of query present in id, in ascending
// order, together with the status of id. A minus-word hit empties the word
// list but still reports the status.
func (e *Executor) MatchDocument(policy ranker.Policy, query string, id int) ([]string, index.Status, error) {
	q, err := parser.Parse(query, e.stopWords)
	if err != nil {
		return nil, 0, err
	}
	defer e.rlock()()
	rec, ok := e.idx.Record(id)
	if !ok {
		return nil, 0, apperrors.Newf(apperrors.ErrUnknownDocument, http.StatusNotFound, "document id %d", id)
	}
	if policy == ranker.Parallel {
		return e.matchParallel(q, id), rec.Status, nil
	}
	for _, w := range q.Minus {
		if e.idx.HasPosting(w, id) {
			return []string{}, rec.Status, nil
		}
	}
	words := make([]string, 0, len(q.Plus))
	for _, w := range q.Plus {
		if e.idx.HasPosting(w, id) {
			words = append(words, w)
		}
	}
	return words, rec.Status, nil
}

func (e *Executor) matchParallel(q *parser.Query, id int) []string {
	var excluded atomic.Bool
	var minus errgroup.Group
	minus.SetLimit(e.workers)
	for _, w := range q.Minus {
		minus.Go(func() error {
			if !excluded.Load() && e.idx.HasPosting(w, id) {
				excluded.Store(true)
			}
			return nil
		})
	}
	_ = minus.Wait()
	if excluded.Load() {
		return []string{}
	}

	hit := make([]bool, len(q.Plus))
	var plus errgroup.Group
	plus.SetLimit(e.workers)
	for i, w := range q.Plus {
		plus.Go(func() error {
			hit[i] = e.idx.HasPosting(w, id)
			return nil
		})
	}
	_ = plus.Wait()

	words := make([]string, 0, len(q.Plus))
	for i, w := range q.Plus {
		if hit[i] {
			words = append(words, w)
		}
	}
	return words
}

// WordFrequencies returns a copy of the term frequencies of id, empty when
// id is not live.
func (e *Executor) WordFrequencies(id int) index.Frequencies {
	defer e.rlock()()
	return e.idx.WordFrequencies(id)
}

// DocumentIDs returns the live ids in ascending order.
func (e *Executor) DocumentIDs() []int {
	defer e.rlock()()
	return e.idx.DocumentIDs()
}

func (e *Executor) DocumentCount() int {
	defer e.rlock()()
	return e.idx.DocumentCount()
}

func (e *Executor) TermCount() int {
	defer e.rlock()()
	return e.idx.TermCount()
}

// RemoveDuplicates removes every document whose token set repeats that of
// a lower id and returns the removed ids in ascending order.
func (e *Executor) RemoveDuplicates() []int {
	defer e.lock()()
	removed := dedup.RemoveDuplicates(e.idx, e.idx)
	if len(removed) > 0 {
		e.logger.Info("duplicates removed", "count", len(removed))
	}
	return removed
}

// ProcessQueries runs FindTopDocuments for every query on a bounded worker
// group. Results keep query order; the first failing query aborts the batch.
func (e *Executor) ProcessQueries(ctx context.Context, queries []string) ([][]index.Document, error) {
	results := make([][]index.Document, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, query := range queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			docs, err := e.FindTopDocuments(query)
			if err != nil {
				return fmt.Errorf("query %d %q: %w", i, query, err)
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.logger.Debug("query batch processed", "queries", len(queries))
	return results, nil
}
