// Package score computes the priority score used for tier assignment.
//
// Scoring is a pure function of the article and the collaborator-supplied
// analysis metadata. Composite is monotonically non-decreasing in each input
// component when the others are held fixed.
package score

import (
	"golang.org/x/text/cases"

	"newsgate/internal/core/domain"
)

// Component weights of the composite score. They sum to 1, so a composite is
// always in [0,1] as long as each component is.
const (
	noveltyWeight     = 0.6
	deskWeight        = 0.25
	contentTypeWeight = 0.15

	// unknownWeight is the neutral weight for desks and content types absent
	// from the tables.
	unknownWeight = 0.5
)

// Scorer maps article metadata to a PriorityScore. Stateless after
// construction, safe for concurrent use.
type Scorer struct {
	deskWeights map[string]float64
	typeWeights map[string]float64
	caser       cases.Caser
}

// New creates a Scorer with the given desk and content-type weight tables.
// Table keys are case-folded; nil tables mean every lookup is neutral.
func New(deskWeights, typeWeights map[string]float64) *Scorer {
	caser := cases.Fold()

	return &Scorer{
		deskWeights: foldKeys(deskWeights, caser),
		typeWeights: foldKeys(typeWeights, caser),
		caser:       caser,
	}
}

// DefaultDeskWeights is the built-in source-desk weighting table.
func DefaultDeskWeights() map[string]float64 {
	return map[string]float64{
		"politics":      0.9,
		"economy":       0.85,
		"business":      0.8,
		"technology":    0.75,
		"science":       0.7,
		"world":         0.7,
		"national":      0.65,
		"regional":      0.5,
		"sports":        0.35,
		"entertainment": 0.3,
		"lifestyle":     0.25,
	}
}

// DefaultTypeWeights is the built-in content-type weighting table.
func DefaultTypeWeights() map[string]float64 {
	return map[string]float64{
		"investigation": 0.95,
		"analysis":      0.85,
		"report":        0.7,
		"interview":     0.6,
		"opinion":       0.45,
		"liveblog":      0.3,
		"listicle":      0.2,
	}
}

// Score computes the priority score for a quality-accepted, novel article.
func (s *Scorer) Score(_ domain.Article, meta domain.StageAMetadata) domain.PriorityScore {
	novelty := clamp01(meta.Novelty)
	desk := s.lookup(s.deskWeights, meta.Desk)
	contentType := s.lookup(s.typeWeights, meta.ContentType)

	return domain.PriorityScore{
		Novelty:           novelty,
		DeskWeight:        desk,
		ContentTypeWeight: contentType,
		Composite:         noveltyWeight*novelty + deskWeight*desk + contentTypeWeight*contentType,
	}
}

func (s *Scorer) lookup(table map[string]float64, key string) float64 {
	if key == "" {
		return unknownWeight
	}

	if w, ok := table[s.caser.String(key)]; ok {
		return clamp01(w)
	}

	return unknownWeight
}

func foldKeys(table map[string]float64, caser cases.Caser) map[string]float64 {
	folded := make(map[string]float64, len(table))
	for k, v := range table {
		folded[caser.String(k)] = v
	}

	return folded
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 1 {
		return 1
	}

	return v
}
