// Package poller pulls configured RSS and Atom feeds on an interval and runs
// every new item through the routing engine. It is the pull-based counterpart
// to the Miniflux webhook surface.
package poller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"newsgate/internal/core/domain"
	"newsgate/internal/enrich/stagea"
	"newsgate/internal/platform/observability"
	"newsgate/internal/process/router"
	"newsgate/internal/storage"
)

const (
	defaultInterval = 5 * time.Minute

	// Bodies shorter than this are retried with full-page extraction when
	// FetchFullContent is enabled. Feeds often carry a one-line teaser here.
	teaserLengthCutoff = 300

	// Feed items carry no upstream analysis, so they are scored with neutral
	// novelty and unknown desk and content type.
	neutralNovelty = 0.5
)

// Config holds the poller settings.
type Config struct {
	FeedURLs         []string
	Interval         time.Duration
	FetchFullContent bool
	FetchTimeout     time.Duration
}

// Poller fetches feeds and routes their items.
type Poller struct {
	cfg      Config
	parser   *gofeed.Parser
	engine   *router.Engine
	store    *storage.DB
	analyzer *stagea.Client
	seen     map[string]struct{}
	logger   *zerolog.Logger
}

// New creates a feed poller. store and analyzer may be nil.
func New(cfg Config, engine *router.Engine, store *storage.DB, analyzer *stagea.Client, logger *zerolog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}

	return &Poller{
		cfg:      cfg,
		parser:   gofeed.NewParser(),
		engine:   engine,
		store:    store,
		analyzer: analyzer,
		seen:     make(map[string]struct{}),
		logger:   logger,
	}
}

// Run polls all feeds immediately and then once per interval until ctx is
// canceled.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info().
		Int("feeds", len(p.cfg.FeedURLs)).
		Dur("interval", p.cfg.Interval).
		Msg("Starting feed poller")

	p.pollAll(ctx)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Feed poller shutting down")
			return ctx.Err()
		case <-ticker.C:
			p.pollAll(ctx)
		}
	}
}

func (p *Poller) pollAll(ctx context.Context) {
	for _, feedURL := range p.cfg.FeedURLs {
		if ctx.Err() != nil {
			return
		}

		if err := p.pollFeed(ctx, feedURL); err != nil {
			p.logger.Warn().Err(err).Str("feed", feedURL).Msg("Feed poll failed")
		}
	}
}

func (p *Poller) pollFeed(ctx context.Context, feedURL string) error {
	feed, err := p.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	routed := 0

	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}

		key := item.GUID
		if key == "" {
			key = item.Link
		}

		if _, ok := p.seen[key]; ok {
			continue
		}

		p.seen[key] = struct{}{}

		article := p.itemToArticle(ctx, feed, item)
		observability.ArticlesIngested.WithLabelValues("poller").Inc()

		decision := p.engine.Route(article, domain.StageAMetadata{Novelty: neutralNovelty})
		p.persist(ctx, article, decision)

		if decision.Verdict == domain.VerdictRouted {
			routed++

			p.dispatchAnalysis(ctx, article.URL, decision.Tier)
		}
	}

	p.logger.Debug().
		Str("feed", feedURL).
		Int("items", len(feed.Items)).
		Int("routed", routed).
		Msg("Feed processed")

	return nil
}

func (p *Poller) itemToArticle(ctx context.Context, feed *gofeed.Feed, item *gofeed.Item) domain.Article {
	body := item.Content
	if body == "" {
		body = item.Description
	}

	if p.cfg.FetchFullContent && len(body) < teaserLengthCutoff {
		if full := p.fetchFullContent(ctx, item.Link); full != "" {
			body = full
		}
	}

	return domain.Article{
		URL:          item.Link,
		Title:        strings.TrimSpace(item.Title),
		RawBody:      body,
		Publisher:    feed.Title,
		PublishedAt:  itemPublishedAt(item),
		SourceFeedID: feed.FeedLink,
	}
}

// fetchFullContent extracts the readable article text from the item page.
// Failures fall back to whatever the feed carried.
func (p *Poller) fetchFullContent(ctx context.Context, pageURL string) string {
	timeout := p.cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	article, err := readability.FromURL(pageURL, timeout)
	if err != nil {
		p.logger.Debug().Err(err).Str("url", pageURL).Msg("Full content extraction failed")
		return ""
	}

	return article.Content
}

func (p *Poller) dispatchAnalysis(ctx context.Context, articleURL string, tier domain.Tier) {
	if p.analyzer == nil || !p.analyzer.Enabled() {
		return
	}

	if tier != domain.TierMedium && tier != domain.TierFull {
		return
	}

	if _, err := p.analyzer.Analyze(ctx, articleURL, string(tier)); err != nil {
		p.logger.Warn().Err(err).Str("url", articleURL).Msg("stage-a analysis failed")
	}
}

func (p *Poller) persist(ctx context.Context, article domain.Article, decision domain.RoutingDecision) {
	if p.store == nil {
		return
	}

	if err := p.store.SaveDecision(ctx, article, decision); err != nil {
		p.logger.Error().Err(err).Str("url", article.URL).Msg("failed to persist decision")
	}
}

func itemPublishedAt(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}

	if item.Published != "" {
		if parsed, err := dateparse.ParseAny(item.Published); err == nil {
			return parsed
		}
	}

	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}

	return time.Now()
}
