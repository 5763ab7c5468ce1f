// Package domain defines the core value types shared across the routing
// pipeline: articles, normalized content, filter verdicts, priority scores,
// and routing decisions.
package domain

import "time"

// Tier is the depth of downstream enrichment an article is assigned.
type Tier string

const (
	// TierLight receives only cheap local heuristics. No external cost.
	TierLight Tier = "light"

	// TierMedium receives partial external enrichment.
	TierMedium Tier = "medium"

	// TierFull receives the complete external analysis pipeline.
	TierFull Tier = "full"
)

// Verdict is the terminal outcome of routing a single article.
type Verdict string

const (
	VerdictRejected  Verdict = "rejected"
	VerdictDuplicate Verdict = "duplicate"
	VerdictRouted    Verdict = "routed"
)

// Reason identifies why the quality filter accepted or rejected an article.
type Reason string

const (
	ReasonOK          Reason = "OK"
	ReasonTooShort    Reason = "TOO_SHORT"
	ReasonWireService Reason = "WIRE_SERVICE"
	ReasonPRContent   Reason = "PR_CONTENT"
	ReasonPlaceholder Reason = "PLACEHOLDER"
)

// Article is the immutable input value constructed by the ingestion layer.
// It is consumed read-only by the routing pipeline.
type Article struct {
	URL          string
	Title        string
	RawBody      string
	Publisher    string
	PublishedAt  time.Time
	SourceFeedID string
}

// NormalizedContent is the ephemeral, derived form of an article produced by
// the normalizer. PlainText is the markup-free body used for pattern matching;
// CanonicalText is the aggressively normalized form used for fingerprinting.
type NormalizedContent struct {
	PlainText        string
	CanonicalText    string
	ContentLength    int
	Fingerprint      string
	ShingleSignature []uint64
}

// FilterVerdict is the quality filter outcome. Exactly one reason per verdict.
type FilterVerdict struct {
	Accepted bool
	Reason   Reason
}

// PriorityScore combines novelty, desk, and content-type signals.
// Composite is a deterministic weighted sum of the three components.
type PriorityScore struct {
	Novelty           float64
	DeskWeight        float64
	ContentTypeWeight float64
	Composite         float64
}

// StageAMetadata carries collaborator-supplied analysis signals used by the
// priority scorer. Novelty is expected in [0,1]; out-of-range values are
// clamped by the scorer.
type StageAMetadata struct {
	Novelty     float64
	Desk        string
	ContentType string
}

// RoutingDecision is the immutable output handed to the storage collaborator.
// Tier is set only when Verdict is routed; MatchedURL only for duplicates.
type RoutingDecision struct {
	ID         string
	ArticleURL string
	Verdict    Verdict
	Tier       Tier
	Reason     Reason
	MatchedURL string
	Priority   *PriorityScore
	DecidedAt  time.Time
}
