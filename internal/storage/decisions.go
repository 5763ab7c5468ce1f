package storage

import (
	"context"
	"fmt"
	"time"

	"newsgate/internal/core/domain"
)

// SaveDecision persists a routing decision and, for routed articles, the
// article itself. Rejected and duplicate articles are recorded as decisions
// only: keeping their bodies would defeat the volume reduction.
func (db *DB) SaveDecision(ctx context.Context, article domain.Article, decision domain.RoutingDecision) error {
	if decision.Verdict == domain.VerdictRouted {
		if err := db.saveArticle(ctx, article); err != nil {
			return err
		}
	}

	var (
		tier       *string
		matchedURL *string
		novelty    *float64
		deskW      *float64
		typeW      *float64
		composite  *float64
	)

	if decision.Tier != "" {
		t := string(decision.Tier)
		tier = &t
	}

	if decision.MatchedURL != "" {
		matchedURL = &decision.MatchedURL
	}

	if p := decision.Priority; p != nil {
		novelty, deskW = &p.Novelty, &p.DeskWeight
		typeW, composite = &p.ContentTypeWeight, &p.Composite
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO routing_decisions
			(id, article_url, verdict, tier, reason, matched_url,
			 novelty, desk_weight, content_type_weight, composite, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		decision.ID, decision.ArticleURL, string(decision.Verdict), tier,
		string(decision.Reason), matchedURL, novelty, deskW, typeW, composite,
		decision.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("save decision: %w", err)
	}

	return nil
}

func (db *DB) saveArticle(ctx context.Context, article domain.Article) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO articles (url, title, publisher, published_at, source_feed_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (url) DO NOTHING`,
		article.URL, article.Title, article.Publisher,
		nullableTime(article.PublishedAt), article.SourceFeedID,
	)
	if err != nil {
		return fmt.Errorf("save article: %w", err)
	}

	return nil
}

// CountByVerdict returns decision counts per verdict since the given time.
func (db *DB) CountByVerdict(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT verdict, count(*)
		FROM routing_decisions
		WHERE decided_at >= $1
		GROUP BY verdict`, since)
	if err != nil {
		return nil, fmt.Errorf("count by verdict: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)

	for rows.Next() {
		var (
			verdict string
			n       int
		)

		if err := rows.Scan(&verdict, &n); err != nil {
			return nil, fmt.Errorf("scan verdict count: %w", err)
		}

		counts[verdict] = n
	}

	return counts, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	return &t
}
