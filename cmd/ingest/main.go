// Command ingest publishes ADD and REMOVE command lines to the document
// ingest topic, where every search server replays them into its index.
//
// Usage:
//
//	go run ./cmd/ingest [-config configs/development.yaml] [-file docs.txt]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	file := flag.String("file", "", "command file (default stdin)")
	batchSize := flag.Int("batch", 100, "events per Kafka write")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	var in io.Reader = os.Stdin
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			slog.Error("failed to open command file", "file", *file, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	events, err := readEvents(in)
	if err != nil {
		slog.Error("failed to read commands", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
	defer producer.Close()
	slog.Info("kafka producer initialized", "topic", cfg.Kafka.Topics.DocumentIngest)

	pub := publisher.New(producer, *batchSize, resilience.RetryConfig{MaxAttempts: 5})
	res, err := pub.Publish(ctx, events)
	if err != nil {
		slog.Error("publishing failed", "published", res.Published, "error", err)
		os.Exit(1)
	}
	slog.Info("ingest complete", "published", res.Published, "rejected", res.Rejected)
}

// readEvents keeps ADD and REMOVE lines. Blank lines and lines starting
// with '#' are skipped; other commands are logged and ignored.
func readEvents(r io.Reader) ([]ingestion.IngestEvent, error) {
	var events []ingestion.IngestEvent
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		cmd, err := ingestion.ParseCommand(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ev, ok := cmd.Event()
		if !ok {
			slog.Warn("skipping non-ingest command", "line", line, "command", cmd.Kind)
			continue
		}
		events = append(events, ev)
	}
	return events, sc.Err()
}
