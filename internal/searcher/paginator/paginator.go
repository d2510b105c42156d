// Package paginator splits an already ranked result list into pages.
package paginator

import (
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/errors"
)

// Paginate partitions items into contiguous pages of at most size elements.
// Pages alias items. The last page may be shorter.
func Paginate[T any](items []T, size int) ([][]T, error) {
	if size <= 0 {
		return nil, apperrors.Invalidf(apperrors.ErrInvalidArgument, "page size must be positive, got %d", size)
	}
	pages := make([][]T, 0, (len(items)+size-1)/size)
	for lo := 0; lo < len(items); lo += size {
		hi := min(lo+size, len(items))
		pages = append(pages, items[lo:hi:hi])
	}
	return pages, nil
}
