// Package webhook receives Miniflux push notifications and runs each entry
// through the routing engine.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"newsgate/internal/core/budget"
	"newsgate/internal/core/domain"
	"newsgate/internal/enrich/stagea"
	"newsgate/internal/platform/observability"
	"newsgate/internal/process/router"
	"newsgate/internal/storage"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second

	// Webhook entries arrive before any Stage-A analysis, so they are scored
	// with neutral novelty and unknown desk and content type.
	neutralNovelty = 0.5
)

// minifluxEntry mirrors the entry object Miniflux sends in webhook events.
type minifluxEntry struct {
	URL         string `json:"url" validate:"required,url"`
	Title       string `json:"title" validate:"required"`
	Content     string `json:"content"`
	Author      string `json:"author"`
	PublishedAt string `json:"published_at"`
	FeedID      int64  `json:"feed_id"`
	Feed        struct {
		Title    string `json:"title"`
		SiteURL  string `json:"site_url"`
		Category struct {
			Title string `json:"title"`
		} `json:"category"`
	} `json:"feed"`
}

type minifluxEvent struct {
	EventType string          `json:"event_type"`
	Entry     *minifluxEntry  `json:"entry"`
	Entries   []minifluxEntry `json:"entries"`
}

type decisionSummary struct {
	URL      string `json:"url"`
	Verdict  string `json:"verdict"`
	Tier     string `json:"tier,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Matched  string `json:"matched_url,omitempty"`
	Priority string `json:"priority,omitempty"`
}

type webhookResponse struct {
	Received  int               `json:"received"`
	Routed    int               `json:"routed"`
	Rejected  int               `json:"rejected"`
	Duplicate int               `json:"duplicate"`
	Decisions []decisionSummary `json:"decisions"`
}

// sessionStats accumulates counters since process start for /filtering/stats.
type sessionStats struct {
	mu         sync.Mutex
	startedAt  time.Time
	received   int
	rejected   int
	duplicate  int
	byTier     map[domain.Tier]int
	byReason   map[domain.Reason]int
	routedSeen int
}

func newSessionStats() *sessionStats {
	return &sessionStats{
		startedAt: time.Now(),
		byTier:    map[domain.Tier]int{},
		byReason:  map[domain.Reason]int{},
	}
}

func (s *sessionStats) record(decision domain.RoutingDecision) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.received++

	switch decision.Verdict {
	case domain.VerdictRejected:
		s.rejected++
		s.byReason[decision.Reason]++
	case domain.VerdictDuplicate:
		s.duplicate++
	case domain.VerdictRouted:
		s.routedSeen++
		s.byTier[decision.Tier]++
	}
}

func (s *sessionStats) snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	reduction := 0.0
	if s.received > 0 {
		reduction = float64(s.rejected+s.duplicate) / float64(s.received) * 100
	}

	byTier := make(map[string]int, len(s.byTier))
	for tier, n := range s.byTier {
		byTier[string(tier)] = n
	}

	byReason := make(map[string]int, len(s.byReason))
	for reason, n := range s.byReason {
		byReason[string(reason)] = n
	}

	return map[string]any{
		"since":              s.startedAt.UTC().Format(time.RFC3339),
		"received":           s.received,
		"rejected":           s.rejected,
		"duplicate":          s.duplicate,
		"routed":             s.routedSeen,
		"routed_by_tier":     byTier,
		"rejected_by_reason": byReason,
		"reduction_percent":  reduction,
	}
}

// Server is the HTTP ingestion surface.
type Server struct {
	engine     *router.Engine
	budget     *budget.Manager
	store      *storage.DB
	analyzer   *stagea.Client
	stats      *sessionStats
	validate   *validator.Validate
	addr       string
	configEcho map[string]any
	logger     *zerolog.Logger
}

// NewServer wires the routing engine behind a Miniflux webhook endpoint.
// store and analyzer may be nil when persistence or Stage-A is not configured.
// configEcho is reflected verbatim in the stats response so operators can see
// the active thresholds.
func NewServer(
	engine *router.Engine,
	budgetMgr *budget.Manager,
	store *storage.DB,
	analyzer *stagea.Client,
	addr string,
	configEcho map[string]any,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		engine:     engine,
		budget:     budgetMgr,
		store:      store,
		analyzer:   analyzer,
		stats:      newSessionStats(),
		validate:   validator.New(),
		addr:       addr,
		configEcho: configEcho,
		logger:     logger,
	}
}

// Start serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/webhook/miniflux", s.handleWebhook)
	r.Get("/filtering/stats", s.handleStats)
	r.Get("/budget/status", s.handleBudgetStatus)

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("webhook server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var event minifluxEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.logger.Warn().Err(err).Msg("malformed webhook payload")
		http.Error(w, "malformed payload", http.StatusBadRequest)

		return
	}

	entries := event.Entries
	if event.Entry != nil {
		entries = append(entries, *event.Entry)
	}

	if len(entries) == 0 {
		http.Error(w, "no entries in payload", http.StatusBadRequest)
		return
	}

	resp := webhookResponse{Received: len(entries)}

	for i := range entries {
		entry := &entries[i]
		if err := s.validate.Struct(entry); err != nil {
			s.logger.Warn().Err(err).Str("url", entry.URL).Msg("invalid entry skipped")
			resp.Decisions = append(resp.Decisions, decisionSummary{
				URL:     entry.URL,
				Verdict: string(domain.VerdictRejected),
				Reason:  "invalid entry",
			})
			resp.Rejected++

			continue
		}

		article := entryToArticle(entry)
		observability.ArticlesIngested.WithLabelValues("webhook").Inc()

		decision := s.engine.Route(article, domain.StageAMetadata{Novelty: neutralNovelty})
		s.stats.record(decision)
		s.persist(r.Context(), article, decision)

		summary := decisionSummary{
			URL:     article.URL,
			Verdict: string(decision.Verdict),
			Reason:  string(decision.Reason),
			Matched: decision.MatchedURL,
		}

		switch decision.Verdict {
		case domain.VerdictRejected:
			resp.Rejected++
		case domain.VerdictDuplicate:
			resp.Duplicate++
		case domain.VerdictRouted:
			resp.Routed++
			summary.Tier = string(decision.Tier)

			if decision.Priority != nil {
				summary.Priority = formatComposite(decision.Priority.Composite)
			}

			s.dispatchAnalysis(article.URL, decision.Tier)
		}

		resp.Decisions = append(resp.Decisions, summary)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	snap := s.stats.snapshot()
	if s.configEcho != nil {
		snap["config"] = s.configEcho
	}

	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.budget.Snapshot(time.Now())

	byTier := make(map[string]int, len(snap.CallsByTier))
	for tier, n := range snap.CallsByTier {
		byTier[string(tier)] = n
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":          snap.Date,
		"total_calls":   snap.TotalCalls,
		"calls_by_tier": byTier,
		"spend_cents":   snap.SpendCents,
	})
}

// dispatchAnalysis forwards routed articles to Stage-A off the request path.
// Only medium and full tiers warrant the upstream call.
func (s *Server) dispatchAnalysis(articleURL string, tier domain.Tier) {
	if s.analyzer == nil || !s.analyzer.Enabled() {
		return
	}

	if tier != domain.TierMedium && tier != domain.TierFull {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if _, err := s.analyzer.Analyze(ctx, articleURL, string(tier)); err != nil {
			s.logger.Warn().Err(err).Str("url", articleURL).Msg("stage-a analysis failed")
		}
	}()
}

func (s *Server) persist(ctx context.Context, article domain.Article, decision domain.RoutingDecision) {
	if s.store == nil {
		return
	}

	if err := s.store.SaveDecision(ctx, article, decision); err != nil {
		s.logger.Error().Err(err).Str("url", article.URL).Msg("failed to persist decision")
	}
}

func entryToArticle(entry *minifluxEntry) domain.Article {
	publishedAt := time.Now()
	if entry.PublishedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, entry.PublishedAt); err == nil {
			publishedAt = parsed
		}
	}

	publisher := entry.Feed.Title
	if publisher == "" {
		publisher = entry.Author
	}

	return domain.Article{
		URL:          entry.URL,
		Title:        entry.Title,
		RawBody:      entry.Content,
		Publisher:    publisher,
		PublishedAt:  publishedAt,
		SourceFeedID: strconv.FormatInt(entry.FeedID, 10),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(payload)
}

func formatComposite(v float64) string {
	switch {
	case v >= 0.85:
		return "high"
	case v >= 0.65:
		return "elevated"
	default:
		return "standard"
	}
}
