// Package merger flattens batched query results.
package merger

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/index"
)

// BatchSearcher runs many queries and returns one result list per query.
type BatchSearcher interface {
	ProcessQueries(ctx context.Context, queries []string) ([][]index.Document, error)
}

// Join concatenates per-query results in query order.
func Join(results [][]index.Document) []index.Document {
	total := 0
	for _, docs := range results {
		total += len(docs)
	}
	joined := make([]index.Document, 0, total)
	for _, docs := range results {
		joined = append(joined, docs...)
	}
	return joined
}

// ProcessQueriesJoined runs the batch and flattens the result.
func ProcessQueriesJoined(ctx context.Context, s BatchSearcher, queries []string) ([]index.Document, error) {
	results, err := s.ProcessQueries(ctx, queries)
	if err != nil {
		return nil, err
	}
	return Join(results), nil
}
