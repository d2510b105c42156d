package ingestion

import (
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/errors"
)

type Kind string

const (
	KindAdd    Kind = "ADD"
	KindRemove Kind = "REMOVE"
	KindFind   Kind = "FIND"
	KindMatch  Kind = "MATCH"
	KindWords  Kind = "WORDS"
	KindDedup  Kind = "DEDUP"
	KindPage   Kind = "PAGE"
	KindBatch  Kind = "BATCH"
	KindStats  Kind = "STATS"
)

// Command is one parsed input line. Lines look like
//
//	ADD <id> <status> <r1,r2,...|-> <text>
//	REMOVE <id>
//	FIND [<status>:]<query>
//	MATCH <id> <query>
//	WORDS <id>
//	DEDUP
//	PAGE <size> <query>
//	BATCH <query> | <query> ...
//	STATS
type Command struct {
	Kind     Kind
	ID       int
	Status   index.Status
	Ratings  []int
	Text     string
	Query    string
	Queries  []string
	PageSize int
}

// ParseCommand parses one non-blank line. The keyword is case-insensitive.
func ParseCommand(line string) (Command, error) {
	keyword, rest := cut(strings.TrimSpace(line))
	cmd := Command{Kind: Kind(strings.ToUpper(keyword))}
	var err error
	switch cmd.Kind {
	case KindAdd:
		var idField, statusField, ratingsField string
		idField, rest = cut(rest)
		statusField, rest = cut(rest)
		ratingsField, cmd.Text = cut(rest)
		if cmd.ID, err = parseID(idField); err != nil {
			return Command{}, err
		}
		if cmd.Status, err = index.ParseStatus(statusField); err != nil {
			return Command{}, err
		}
		if cmd.Ratings, err = parseRatings(ratingsField); err != nil {
			return Command{}, err
		}
	case KindRemove, KindWords:
		if cmd.ID, err = parseID(rest); err != nil {
			return Command{}, err
		}
	case KindFind:
		cmd.Status = index.StatusActual
		cmd.Query = rest
		if prefix, query, ok := strings.Cut(rest, ":"); ok && !strings.ContainsAny(prefix, " \t") {
			if cmd.Status, err = index.ParseStatus(prefix); err != nil {
				return Command{}, err
			}
			cmd.Query = strings.TrimSpace(query)
		}
	case KindMatch:
		var idField string
		idField, cmd.Query = cut(rest)
		if cmd.ID, err = parseID(idField); err != nil {
			return Command{}, err
		}
	case KindPage:
		var sizeField string
		sizeField, cmd.Query = cut(rest)
		if cmd.PageSize, err = strconv.Atoi(sizeField); err != nil {
			return Command{}, apperrors.Invalidf(apperrors.ErrInvalidArgument, "page size %q", sizeField)
		}
	case KindBatch:
		for _, q := range strings.Split(rest, "|") {
			cmd.Queries = append(cmd.Queries, strings.TrimSpace(q))
		}
	case KindDedup, KindStats:
	default:
		return Command{}, apperrors.Invalidf(apperrors.ErrInvalidArgument, "unknown command %q", keyword)
	}
	return cmd, nil
}

// Event converts an ADD or REMOVE command to an ingest event.
func (c Command) Event() (IngestEvent, bool) {
	switch c.Kind {
	case KindAdd:
		return IngestEvent{Op: OpAdd, ID: c.ID, Text: c.Text, Status: c.Status, Ratings: c.Ratings}, true
	case KindRemove:
		return IngestEvent{Op: OpRemove, ID: c.ID}, true
	}
	return IngestEvent{}, false
}

func cut(s string) (head, tail string) {
	s = strings.TrimLeft(s, " \t")
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimLeft(s[i+1:], " \t")
	}
	return s, ""
}

func parseID(field string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, apperrors.Invalidf(apperrors.ErrInvalidID, "document id %q", field)
	}
	return id, nil
}

func parseRatings(field string) ([]int, error) {
	if field == "-" || field == "" {
		return nil, nil
	}
	parts := strings.Split(field, ",")
	ratings := make([]int, 0, len(parts))
	for _, p := range parts {
		r, err := strconv.Atoi(p)
		if err != nil {
			return nil, apperrors.Invalidf(apperrors.ErrInvalidArgument, "rating %q", p)
		}
		ratings = append(ratings, r)
	}
	return ratings, nil
}
