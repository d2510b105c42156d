// Command loadtest drives GET /api/v1/search with a fixed query mix and
// reports throughput, latency percentiles and the cache hit ratio.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var queries = []string{
	"fluffy cat",
	"groomed dog -fluffy",
	"white collar",
	"expressive eyes",
	"curly hair -rat",
	"nasty rat",
	"funny pet",
	"starling",
	"cat dog parrot",
	"tail -collar",
}

type stats struct {
	total     atomic.Int64
	failed    atomic.Int64
	cacheHits atomic.Int64
	empty     atomic.Int64

	mu        sync.Mutex
	latencies []time.Duration
	codes     map[int]int
}

func (s *stats) record(d time.Duration, code int, hit, empty bool) {
	s.total.Add(1)
	if code < 200 || code >= 300 {
		s.failed.Add(1)
	}
	if hit {
		s.cacheHits.Add(1)
	}
	if empty {
		s.empty.Add(1)
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.codes[code]++
	s.mu.Unlock()
}

type searchResponse struct {
	Results  []json.RawMessage `json:"results"`
	CacheHit bool              `json:"cache_hit"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	mode := flag.String("mode", "", "ranking mode passed to the server (seq|par)")
	flag.Parse()

	fmt.Println("=== TF-IDF Search Load Test ===")
	fmt.Printf("Target:      %s\n", *baseURL)
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Printf("Duration:    %s\n", *duration)
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()
	s := run(ctx, *baseURL, *mode, *concurrency)
	report(s, *duration)
}

func run(ctx context.Context, baseURL, mode string, concurrency int) *stats {
	s := &stats{codes: make(map[int]int)}
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        concurrency * 2,
			MaxIdleConnsPerHost: concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	var g errgroup.Group
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				params := url.Values{"q": {queries[i%len(queries)]}}
				if mode != "" {
					params.Set("mode", mode)
				}
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/search?"+params.Encode(), nil)
				if err != nil {
					return err
				}
				start := time.Now()
				resp, err := client.Do(req)
				elapsed := time.Since(start)
				if err != nil {
					if ctx.Err() == nil {
						s.record(elapsed, 0, false, false)
					}
					continue
				}
				var body searchResponse
				_ = json.NewDecoder(resp.Body).Decode(&body)
				resp.Body.Close()
				s.record(elapsed, resp.StatusCode, body.CacheHit, len(body.Results) == 0)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "loadtest: %v\n", err)
		os.Exit(1)
	}
	return s
}

func report(s *stats, duration time.Duration) {
	total := s.total.Load()
	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests:  %d\n", total)
	fmt.Printf("Failed:          %d\n", s.failed.Load())
	if total == 0 {
		fmt.Println("WARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
	fmt.Printf("Requests/sec:    %.2f\n", float64(total)/duration.Seconds())
	fmt.Printf("Cache Hit Rate:  %.1f%%\n", float64(s.cacheHits.Load())/float64(total)*100)
	fmt.Printf("Empty Results:   %d\n", s.empty.Load())

	s.mu.Lock()
	defer s.mu.Unlock()
	sort.Slice(s.latencies, func(i, j int) bool { return s.latencies[i] < s.latencies[j] })
	fmt.Println()
	fmt.Println("=== Latency ===")
	fmt.Printf("Min: %s\n", s.latencies[0])
	fmt.Printf("P50: %s\n", percentile(s.latencies, 50))
	fmt.Printf("P95: %s\n", percentile(s.latencies, 95))
	fmt.Printf("P99: %s\n", percentile(s.latencies, 99))
	fmt.Printf("Max: %s\n", s.latencies[len(s.latencies)-1])

	fmt.Println()
	fmt.Println("=== Status Codes ===")
	codes := make([]int, 0, len(s.codes))
	for code := range s.codes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Printf("  %d: %d\n", code, s.codes[code])
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}
