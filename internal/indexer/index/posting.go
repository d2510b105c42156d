package index

import (
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/errors"
)

// Status is the lifecycle state attached to every indexed document.
type Status int

const (
	StatusActual Status = iota
	StatusIrrelevant
	StatusBanned
	StatusRemoved
)

var statusNames = [...]string{"ACTUAL", "IRRELEVANT", "BANNED", "REMOVED"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// ParseStatus accepts a status name in any case.
func ParseStatus(name string) (Status, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range statusNames {
		if n == upper {
			return Status(i), nil
		}
	}
	return 0, apperrors.Invalidf(apperrors.ErrInvalidArgument, "unknown status %q", name)
}

func (s Status) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(statusNames) {
		return nil, fmt.Errorf("cannot marshal %s", s)
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Document is a ranked-result projection of an indexed document.
type Document struct {
	ID        int     `json:"document_id"`
	Relevance float64 `json:"relevance"`
	Rating    int     `json:"rating"`
}

func (d Document) String() string {
	return fmt.Sprintf("{ document_id = %d, relevance = %.6g, rating = %d }", d.ID, d.Relevance, d.Rating)
}

// Record is the per-document metadata kept alongside the postings.
type Record struct {
	Rating int
	Status Status
}

// Postings maps document id to term frequency for one token.
type Postings map[int]float64

// Frequencies maps token to term frequency for one document.
type Frequencies map[string]float64

// AverageRating is the integer mean of ratings, truncated toward zero.
// An empty slice rates 0.
func AverageRating(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return sum / len(ratings)
}
