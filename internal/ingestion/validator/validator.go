// Package validator checks ingest events before they are published, so the
// topic only carries events the index can apply.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/errors"
)

const maxTextLength = 1048576

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// ValidateEvent applies the checks the index would apply on add.
func ValidateEvent(e ingestion.IngestEvent) error {
	errs := make(map[string]string)
	if e.ID < 0 {
		errs["id"] = "must not be negative"
	}
	switch e.Op {
	case ingestion.OpAdd, "":
		if !tokenizer.IsValid(e.Text) {
			errs["text"] = "must not contain control characters"
		} else if len(e.Text) > maxTextLength {
			errs["text"] = fmt.Sprintf("must be at most %d bytes", maxTextLength)
		}
		if e.Status < index.StatusActual || e.Status > index.StatusRemoved {
			errs["status"] = fmt.Sprintf("unknown status %d", int(e.Status))
		}
	case ingestion.OpRemove:
	default:
		errs["op"] = fmt.Sprintf("unknown op %q", e.Op)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
