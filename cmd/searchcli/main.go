// Command searchcli drives the search engine from stdin. The first line is
// the stop-word list; every following line is one command (see
// ingestion.Command). Results go to stdout, logs to stderr.
//
// Usage:
//
//	go run ./cmd/searchcli [-parallel] < session.txt
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/paginator"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/logger"
)

type options struct {
	policy  ranker.Policy
	window  int
	workers int
}

func main() {
	parallel := flag.Bool("parallel", false, "rank, match and remove in parallel mode")
	window := flag.Int("history", analytics.DefaultWindow, "request history window")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	logger.SetupWriter(os.Stderr, *logLevel, "text")

	opts := options{policy: ranker.Sequential, window: *window}
	if *parallel {
		opts.policy = ranker.Parallel
	}
	if err := run(context.Background(), os.Stdin, os.Stdout, opts); err != nil {
		fmt.Fprintf(os.Stderr, "searchcli: %v\n", err)
		os.Exit(1)
	}
}

// run reads the stop-word line, then executes commands until EOF. A bad
// command prints an error line and the session continues.
func run(ctx context.Context, in io.Reader, out io.Writer, opts options) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	stopWords := ""
	if sc.Scan() {
		stopWords = sc.Text()
	}
	exec, err := executor.NewFromText(stopWords, executor.Options{Policy: opts.policy, Workers: opts.workers})
	if err != nil {
		return err
	}
	history := analytics.NewHistory(opts.window, 0)
	s := &session{exec: exec, history: history, policy: opts.policy, out: out}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, err := ingestion.ParseCommand(line)
		if err == nil {
			err = s.execute(ctx, cmd)
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	return sc.Err()
}

type session struct {
	exec    *executor.Executor
	history *analytics.History
	policy  ranker.Policy
	out     io.Writer
}

func (s *session) execute(ctx context.Context, cmd ingestion.Command) error {
	switch cmd.Kind {
	case ingestion.KindAdd:
		return s.exec.AddDocument(cmd.ID, cmd.Text, cmd.Status, cmd.Ratings)
	case ingestion.KindRemove:
		if !s.exec.RemoveDocument(s.policy, cmd.ID) {
			fmt.Fprintf(s.out, "document %d not found\n", cmd.ID)
		}
	case ingestion.KindFind:
		docs, err := s.find(cmd.Query, cmd.Status)
		if err != nil {
			return err
		}
		s.printDocs(docs)
	case ingestion.KindPage:
		docs, err := s.find(cmd.Query, index.StatusActual)
		if err != nil {
			return err
		}
		pages, err := paginator.Paginate(docs, cmd.PageSize)
		if err != nil {
			return err
		}
		for i, page := range pages {
			fmt.Fprintf(s.out, "page %d\n", i+1)
			s.printDocs(page)
		}
	case ingestion.KindMatch:
		words, status, err := s.exec.MatchDocument(s.policy, cmd.Query, cmd.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "{ document_id = %d, status = %s, words = %s }\n", cmd.ID, status, strings.Join(words, " "))
	case ingestion.KindWords:
		freqs := s.exec.WordFrequencies(cmd.ID)
		words := make([]string, 0, len(freqs))
		for w := range freqs {
			words = append(words, w)
		}
		sort.Strings(words)
		for _, w := range words {
			fmt.Fprintf(s.out, "%s %g\n", w, freqs[w])
		}
	case ingestion.KindDedup:
		for _, id := range s.exec.RemoveDuplicates() {
			fmt.Fprintf(s.out, "found duplicate document id %d\n", id)
		}
	case ingestion.KindBatch:
		docs, err := merger.ProcessQueriesJoined(ctx, s.exec, cmd.Queries)
		if err != nil {
			return err
		}
		s.printDocs(docs)
	case ingestion.KindStats:
		st := s.history.Stats()
		fmt.Fprintf(s.out, "requests = %d, no_result_requests = %d\n", st.Requests, st.NoResultRequests)
	}
	return nil
}

// find ranks query and records the request in the history.
func (s *session) find(query string, status index.Status) ([]index.Document, error) {
	start := time.Now()
	docs, err := s.exec.FindTopDocumentsWithPolicy(s.policy, query, ranker.StatusIs(status))
	if err != nil {
		return nil, err
	}
	event := analytics.NewSearchEvent(query, len(docs))
	event.Status = status.String()
	event.Policy = s.policy.String()
	event.LatencyMs = time.Since(start).Milliseconds()
	s.history.Add(event)
	return docs, nil
}

func (s *session) printDocs(docs []index.Document) {
	if len(docs) == 0 {
		fmt.Fprintln(s.out, "no documents found")
		return
	}
	for _, d := range docs {
		fmt.Fprintln(s.out, d.String())
	}
}
