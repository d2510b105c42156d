package ranker

import (
	"log/slog"
	"math"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/accumulator"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/errors"
)

const (
	MaxResults = 5
	Epsilon    = 1e-6
)

// Policy selects how relevance is accumulated.
type Policy int

const (
	Sequential Policy = iota
	Parallel
)

func (p Policy) String() string {
	if p == Parallel {
		return "parallel"
	}
	return "sequential"
}

// ParsePolicy accepts "seq", "sequential", "par" or "parallel".
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "seq", "sequential":
		return Sequential, nil
	case "par", "parallel":
		return Parallel, nil
	}
	return 0, apperrors.Invalidf(apperrors.ErrInvalidArgument, "unknown execution mode %q", name)
}

// Predicate decides whether a document may appear in results.
type Predicate func(id int, status index.Status, rating int) bool

// StatusIs keeps only documents with the given status.
func StatusIs(want index.Status) Predicate {
	return func(_ int, status index.Status, _ int) bool {
		return status == want
	}
}

// Source is the read-only index view used for ranking.
type Source interface {
	DocumentCount() int
	Postings(term string) (index.Postings, bool)
	Record(id int) (index.Record, bool)
}

type Ranker struct {
	shards  int
	workers int
	logger  *slog.Logger
}

// New creates a Ranker. shards sizes the parallel accumulator; workers
// caps the goroutines per query (0 means GOMAXPROCS).
func New(shards, workers int) *Ranker {
	if shards <= 0 {
		shards = accumulator.DefaultShards
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Ranker{
		shards:  shards,
		workers: workers,
		logger:  slog.Default().With("component", "ranker"),
	}
}

// FindTop returns at most MaxResults documents ordered by relevance, ties
// within Epsilon broken by rating.
func (r *Ranker) FindTop(src Source, q *parser.Query, pred Predicate, policy Policy) []index.Document {
	var docs []index.Document
	if policy == Parallel {
		docs = r.findAllParallel(src, q, pred)
	} else {
		docs = r.findAll(src, q, pred)
	}
	Sort(docs)
	if len(docs) > MaxResults {
		docs = docs[:MaxResults]
	}
	r.logger.Debug("query ranked",
		"query", q.RawQuery,
		"policy", policy.String(),
		"plus_terms", len(q.Plus),
		"minus_terms", len(q.Minus),
		"results", len(docs),
	)
	return docs
}

// Sort orders docs by descending relevance, treating relevances within
// Epsilon as equal and ordering those by descending rating. The sort is
// stable, so callers that pass id-ordered input get a deterministic result.
func Sort(docs []index.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if math.Abs(docs[i].Relevance-docs[j].Relevance) < Epsilon {
			return docs[i].Rating > docs[j].Rating
		}
		return docs[i].Relevance > docs[j].Relevance
	})
}

// IDF is ln(N / df). Callers guarantee df > 0.
func IDF(totalDocs, docFreq int) float64 {
	return math.Log(float64(totalDocs) / float64(docFreq))
}

func (r *Ranker) findAll(src Source, q *parser.Query, pred Predicate) []index.Document {
	relevance := make(map[int]float64)
	total := src.DocumentCount()
	for _, term := range q.Plus {
		postings, ok := src.Postings(term)
		if !ok || len(postings) == 0 {
			continue
		}
		idf := IDF(total, len(postings))
		for id, tf := range postings {
			rec, _ := src.Record(id)
			if pred(id, rec.Status, rec.Rating) {
				relevance[id] += tf * idf
			}
		}
	}
	for _, term := range q.Minus {
		postings, ok := src.Postings(term)
		if !ok {
			continue
		}
		for id := range postings {
			delete(relevance, id)
		}
	}

	ids := make([]int, 0, len(relevance))
	for id := range relevance {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	docs := make([]index.Document, 0, len(ids))
	for _, id := range ids {
		rec, _ := src.Record(id)
		docs = append(docs, index.Document{ID: id, Relevance: relevance[id], Rating: rec.Rating})
	}
	return docs
}

// findAllParallel spreads plus-words over a bounded worker group writing
// into a sharded accumulator. Minus-words are erased in a second group that
// starts only after every plus-word task has joined.
func (r *Ranker) findAllParallel(src Source, q *parser.Query, pred Predicate) []index.Document {
	acc := accumulator.New(r.shards)
	total := src.DocumentCount()

	var plus errgroup.Group
	plus.SetLimit(r.workers)
	for _, term := range q.Plus {
		plus.Go(func() error {
			postings, ok := src.Postings(term)
			if !ok || len(postings) == 0 {
				return nil
			}
			idf := IDF(total, len(postings))
			for id, tf := range postings {
				rec, _ := src.Record(id)
				if pred(id, rec.Status, rec.Rating) {
					acc.Increment(id, tf*idf)
				}
			}
			return nil
		})
	}
	_ = plus.Wait()

	var minus errgroup.Group
	minus.SetLimit(r.workers)
	for _, term := range q.Minus {
		minus.Go(func() error {
			postings, ok := src.Postings(term)
			if !ok {
				return nil
			}
			for id := range postings {
				acc.Erase(id)
			}
			return nil
		})
	}
	_ = minus.Wait()

	entries := acc.Snapshot()
	docs := make([]index.Document, 0, len(entries))
	for _, e := range entries {
		rec, _ := src.Record(e.ID)
		docs = append(docs, index.Document{ID: e.ID, Relevance: e.Value, Rating: rec.Rating})
	}
	return docs
}
