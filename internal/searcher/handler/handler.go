package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/paginator"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/tracing"
)

// Engine is the search server surface the HTTP layer drives.
type Engine interface {
	AddDocument(id int, text string, status index.Status, ratings []int) error
	RemoveDocument(policy ranker.Policy, id int) bool
	ParseQuery(query string) (*parser.Query, error)
	FindTopParsed(policy ranker.Policy, q *parser.Query, pred ranker.Predicate) []index.Document
	MatchDocument(policy ranker.Policy, query string, id int) ([]string, index.Status, error)
	WordFrequencies(id int) index.Frequencies
	RemoveDuplicates() []int
	ProcessQueries(ctx context.Context, queries []string) ([][]index.Document, error)
	Policy() ranker.Policy
	DocumentCount() int
	TermCount() int
}

// Options carries the optional collaborators. Nil fields are skipped.
type Options struct {
	Cache     *cache.QueryCache
	History   *analytics.History
	Collector *analytics.Collector
	Metrics   *metrics.Metrics
	PageSize  int
}

type Handler struct {
	engine    Engine
	cache     *cache.QueryCache
	history   *analytics.History
	collector *analytics.Collector
	metrics   *metrics.Metrics
	pageSize  int
	logger    *slog.Logger
}

func New(engine Engine, opts Options) *Handler {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 2
	}
	return &Handler{
		engine:    engine,
		cache:     opts.Cache,
		history:   opts.History,
		collector: opts.Collector,
		metrics:   opts.Metrics,
		pageSize:  pageSize,
		logger:    slog.Default().With("component", "search-handler"),
	}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/documents", h.AddDocument)
	mux.HandleFunc("DELETE /api/v1/documents/{id}", h.RemoveDocument)
	mux.HandleFunc("GET /api/v1/documents/{id}/words", h.WordFrequencies)
	mux.HandleFunc("GET /api/v1/documents/{id}/match", h.MatchDocument)
	mux.HandleFunc("POST /api/v1/duplicates/remove", h.RemoveDuplicates)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("POST /api/v1/search/batch", h.BatchSearch)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

type AddDocumentRequest struct {
	ID      int          `json:"id"`
	Text    string       `json:"text"`
	Status  index.Status `json:"status"`
	Ratings []int        `json:"ratings"`
}

type MatchResponse struct {
	DocumentID int          `json:"document_id"`
	Words      []string     `json:"words"`
	Status     index.Status `json:"status"`
}

type SearchResponse struct {
	Query     string             `json:"query"`
	Status    index.Status       `json:"status"`
	Mode      string             `json:"mode"`
	Results   []index.Document   `json:"results"`
	Pages     [][]index.Document `json:"pages"`
	CacheHit  bool               `json:"cache_hit"`
	LatencyMs int64              `json:"latency_ms"`
}

type BatchRequest struct {
	Queries []string `json:"queries"`
}

type BatchResponse struct {
	Results [][]index.Document `json:"results"`
	Joined  []index.Document   `json:"joined"`
}

func (h *Handler) AddDocument(w http.ResponseWriter, r *http.Request) {
	var req AddDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.Invalidf(apperrors.ErrInvalidInput, "decoding document: %v", err))
		return
	}
	if err := h.engine.AddDocument(req.ID, req.Text, req.Status, req.Ratings); err != nil {
		h.writeError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.DocsIndexedTotal.WithLabelValues("http").Inc()
	}
	h.afterMutation(r.Context())
	logger.FromContext(r.Context()).Info("document added", "document_id", req.ID, "status", req.Status)
	h.writeJSON(w, http.StatusCreated, map[string]any{"document_id": req.ID, "status": req.Status})
}

func (h *Handler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	policy, err := h.policy(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	// Removing an absent id is a no-op and still succeeds.
	if h.engine.RemoveDocument(policy, id) {
		if h.metrics != nil {
			h.metrics.DocsRemovedTotal.Inc()
		}
		h.afterMutation(r.Context())
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) WordFrequencies(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.WordFrequencies(id))
}

func (h *Handler) MatchDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	policy, err := h.policy(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	words, status, err := h.engine.MatchDocument(policy, r.URL.Query().Get("q"), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, MatchResponse{DocumentID: id, Words: words, Status: status})
}

func (h *Handler) RemoveDuplicates(w http.ResponseWriter, r *http.Request) {
	removed := h.engine.RemoveDuplicates()
	if len(removed) > 0 {
		if h.metrics != nil {
			h.metrics.DuplicatesRemoved.Add(float64(len(removed)))
		}
		h.afterMutation(r.Context())
	}
	if removed == nil {
		removed = []int{}
	}
	h.writeJSON(w, http.StatusOK, map[string][]int{"removed": removed})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := logger.FromContext(r.Context())
	ctx, span := tracing.StartSpan(r.Context(), "search", middleware.GetRequestID(r.Context()))
	defer func() {
		span.End()
		span.Log(log)
	}()
	params := r.URL.Query()

	// An empty or all-stop-word query is valid and ranks nothing.
	raw := params.Get("q")
	q, err := h.engine.ParseQuery(raw)
	if err != nil {
		h.countQuery("invalid")
		h.writeError(w, err)
		return
	}
	status := index.StatusActual
	if s := params.Get("status"); s != "" {
		if status, err = index.ParseStatus(s); err != nil {
			h.countQuery("invalid")
			h.writeError(w, err)
			return
		}
	}
	policy, err := h.policy(r)
	if err != nil {
		h.countQuery("invalid")
		h.writeError(w, err)
		return
	}
	pageSize := h.pageSize
	if s := params.Get("page_size"); s != "" {
		if pageSize, err = strconv.Atoi(s); err != nil {
			h.countQuery("invalid")
			h.writeError(w, apperrors.Invalidf(apperrors.ErrInvalidArgument, "page_size %q is not an integer", s))
			return
		}
	}

	span.SetAttr("plus_words", len(q.Plus))
	span.SetAttr("minus_words", len(q.Minus))
	compute := func() ([]index.Document, error) {
		_, rank := tracing.StartSpan(ctx, "rank", "")
		defer rank.End()
		rank.SetAttr("policy", policy.String())
		return h.engine.FindTopParsed(policy, q, ranker.StatusIs(status)), nil
	}
	var docs []index.Document
	cacheHit := false
	if h.cache != nil {
		docs, cacheHit, err = h.cache.GetOrCompute(ctx, cache.Key{Query: q, Status: status}, compute)
	} else {
		docs, err = compute()
	}
	if err != nil {
		h.countQuery("error")
		log.Error("search execution failed", "query", raw, "error", err)
		h.writeError(w, err)
		return
	}
	if docs == nil {
		docs = []index.Document{}
	}
	pages, err := paginator.Paginate(docs, pageSize)
	if err != nil {
		h.countQuery("invalid")
		h.writeError(w, err)
		return
	}

	latency := time.Since(start)
	h.record(ctx, q, status, policy, len(docs), latency, cacheHit)
	log.Info("search completed",
		"query", raw,
		"status", status,
		"mode", policy,
		"returned", len(docs),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)

	h.writeJSON(w, http.StatusOK, SearchResponse{
		Query:     raw,
		Status:    status,
		Mode:      policy.String(),
		Results:   docs,
		Pages:     pages,
		CacheHit:  cacheHit,
		LatencyMs: latency.Milliseconds(),
	})
}

func (h *Handler) BatchSearch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.Invalidf(apperrors.ErrInvalidInput, "decoding batch: %v", err))
		return
	}
	results, err := h.engine.ProcessQueries(r.Context(), req.Queries)
	if err != nil {
		h.writeError(w, err)
		return
	}
	joined := merger.Join(results)
	if joined == nil {
		joined = []index.Document{}
	}
	h.writeJSON(w, http.StatusOK, BatchResponse{Results: results, Joined: joined})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "caching is disabled"})
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cache invalidation failed"})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) record(ctx context.Context, q *parser.Query, status index.Status, policy ranker.Policy, returned int, latency time.Duration, cacheHit bool) {
	event := analytics.NewSearchEvent(q.RawQuery, returned)
	event.Plus = q.Plus
	event.Minus = q.Minus
	event.Status = status.String()
	event.Policy = policy.String()
	event.LatencyMs = latency.Milliseconds()
	event.CacheHit = cacheHit
	event.RequestID = middleware.GetRequestID(ctx)

	if h.history != nil {
		h.history.Add(event)
	}
	if h.collector != nil {
		h.collector.Track(event)
	}
	if h.metrics == nil {
		return
	}
	if returned == 0 {
		h.countQuery("zero_result")
	} else {
		h.countQuery("hit")
	}
	h.metrics.SearchLatency.WithLabelValues(policy.String()).Observe(latency.Seconds())
	h.metrics.SearchResultsCount.Observe(float64(returned))
	if h.cache != nil {
		if cacheHit {
			h.metrics.CacheHitsTotal.Inc()
		} else {
			h.metrics.CacheMissesTotal.Inc()
		}
	}
	if h.history != nil {
		h.metrics.NoResultRequests.Set(float64(h.history.NoResultRequests()))
	}
}

// afterMutation retires cached results and refreshes the index gauges.
func (h *Handler) afterMutation(ctx context.Context) {
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			h.logger.Warn("cache invalidation after mutation failed", "error", err)
		}
	}
	if h.metrics != nil {
		h.metrics.LiveDocuments.Set(float64(h.engine.DocumentCount()))
		h.metrics.IndexedTerms.Set(float64(h.engine.TermCount()))
	}
}

func (h *Handler) countQuery(resultType string) {
	if h.metrics != nil {
		h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	}
}

func (h *Handler) policy(r *http.Request) (ranker.Policy, error) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		return h.engine.Policy(), nil
	}
	return ranker.ParsePolicy(mode)
}

func pathID(r *http.Request) (int, error) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Invalidf(apperrors.ErrInvalidID, "document id %q", raw)
	}
	return id, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
		message = "internal error"
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
