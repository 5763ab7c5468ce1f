// Package router orchestrates the volume-reduction pipeline: normalize,
// quality-filter, deduplicate, score, and assign a processing tier under the
// daily budget.
//
// Every article terminates in exactly one of rejected, duplicate, or routed.
// Per-article failures are contained: the caller always receives a decision,
// never an error, for a well-formed article.
package router

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"newsgate/internal/core/budget"
	"newsgate/internal/core/domain"
	"newsgate/internal/platform/observability"
	"newsgate/internal/process/dedup"
	"newsgate/internal/process/filters"
	"newsgate/internal/process/normalize"
	"newsgate/internal/process/score"
)

// Thresholds are the composite-score cutoffs for the paid tiers.
type Thresholds struct {
	Full   float64
	Medium float64
}

// Costs are the estimated per-call enrichment costs reserved against the
// daily budget. The light tier has no external cost.
type Costs struct {
	FullCents   int
	MediumCents int
}

// Engine composes the pipeline stages. Safe for concurrent Route calls: the
// stages are either pure or internally synchronized.
type Engine struct {
	filter     *filters.Filterer
	index      *dedup.Index
	scorer     *score.Scorer
	budget     *budget.Manager
	thresholds Thresholds
	costs      Costs
	logger     *zerolog.Logger
	now        func() time.Time
}

// New creates a routing engine.
func New(
	filter *filters.Filterer,
	index *dedup.Index,
	budgetMgr *budget.Manager,
	scorer *score.Scorer,
	thresholds Thresholds,
	costs Costs,
	logger *zerolog.Logger,
) *Engine {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Engine{
		filter:     filter,
		index:      index,
		scorer:     scorer,
		budget:     budgetMgr,
		thresholds: thresholds,
		costs:      costs,
		logger:     logger,
		now:        time.Now,
	}
}

// Route runs one article through the pipeline and returns its terminal
// decision.
func (e *Engine) Route(article domain.Article, meta domain.StageAMetadata) domain.RoutingDecision {
	start := e.now()
	decision := e.route(article, meta, start)

	observability.RouteDuration.Observe(e.now().Sub(start).Seconds())
	observability.DecisionsTotal.WithLabelValues(string(decision.Verdict)).Inc()
	observability.DedupIndexSize.Set(float64(e.index.Size()))

	snap := e.budget.Snapshot(e.now())
	observability.BudgetSpendCents.Set(float64(snap.SpendCents))

	for tier, calls := range snap.CallsByTier {
		observability.BudgetCalls.WithLabelValues(string(tier)).Set(float64(calls))
	}

	return decision
}

func (e *Engine) route(article domain.Article, meta domain.StageAMetadata, now time.Time) domain.RoutingDecision {
	normalized, err := normalize.Normalize(article)
	if err != nil {
		// Malformed input is an automatic rejection, never a failure.
		e.logger.Debug().Str("url", article.URL).Err(err).Msg("rejecting malformed article")

		return e.rejected(article, domain.ReasonTooShort, now)
	}

	if verdict := e.filter.Evaluate(article, normalized); !verdict.Accepted {
		return e.rejected(article, verdict.Reason, now)
	}

	if res := e.index.CheckAndRegister(normalized, article.URL, now); res.IsDuplicate {
		return domain.RoutingDecision{
			ID:         uuid.NewString(),
			ArticleURL: article.URL,
			Verdict:    domain.VerdictDuplicate,
			Reason:     domain.ReasonOK,
			MatchedURL: res.MatchedURL,
			DecidedAt:  now,
		}
	}

	priority := e.scorer.Score(article, meta)
	tier := e.assignTier(priority.Composite, now)

	observability.RoutedTotal.WithLabelValues(string(tier)).Inc()

	return domain.RoutingDecision{
		ID:         uuid.NewString(),
		ArticleURL: article.URL,
		Verdict:    domain.VerdictRouted,
		Tier:       tier,
		Reason:     domain.ReasonOK,
		Priority:   &priority,
		DecidedAt:  now,
	}
}

// assignTier applies the strict cascade: a full-eligible article whose full
// reservation fails still attempts medium before falling to light.
func (e *Engine) assignTier(composite float64, now time.Time) domain.Tier {
	if composite >= e.thresholds.Full {
		if e.budget.TryReserve(domain.TierFull, e.costs.FullCents, now) {
			return domain.TierFull
		}

		observability.BudgetFallthroughTotal.WithLabelValues(string(domain.TierFull)).Inc()
	}

	if composite >= e.thresholds.Medium {
		if e.budget.TryReserve(domain.TierMedium, e.costs.MediumCents, now) {
			return domain.TierMedium
		}

		observability.BudgetFallthroughTotal.WithLabelValues(string(domain.TierMedium)).Inc()
	}

	return domain.TierLight
}

func (e *Engine) rejected(article domain.Article, reason domain.Reason, now time.Time) domain.RoutingDecision {
	observability.RejectionsTotal.WithLabelValues(string(reason)).Inc()

	return domain.RoutingDecision{
		ID:         uuid.NewString(),
		ArticleURL: article.URL,
		Verdict:    domain.VerdictRejected,
		Reason:     reason,
		DecidedAt:  now,
	}
}
