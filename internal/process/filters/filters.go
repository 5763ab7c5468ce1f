// Package filters implements the rule-based article quality filter.
//
// Rules are evaluated in a fixed precedence order, first match wins:
//
//  1. minimum content length       -> TOO_SHORT
//  2. wire-service signatures      -> WIRE_SERVICE
//  3. PR / press-release patterns  -> PR_CONTENT
//  4. placeholder-content patterns -> PLACEHOLDER
//  5. otherwise                    -> OK
//
// Pattern sets are configuration, not code; see rules.go.
package filters

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"newsgate/internal/core/domain"
)

// repetitionUniqueRatio flags bodies where fewer than this share of words are
// unique, a stub/filler signal the placeholder rule also covers.
const (
	repetitionUniqueRatio = 0.3
	repetitionMinWords    = 50
)

// Filterer applies the configured quality rules to normalized articles.
// Stateless after construction, safe for concurrent use.
type Filterer struct {
	rules Rules
	caser cases.Caser
}

// New creates a Filterer from a compiled rule set.
func New(rules Rules) *Filterer {
	if rules.MinLength <= 0 {
		rules.MinLength = defaultMinLength
	}

	return &Filterer{
		rules: rules,
		caser: cases.Fold(),
	}
}

// Evaluate applies the rule cascade and returns the verdict with exactly one
// reason code. Deterministic: no randomness, no I/O.
func (f *Filterer) Evaluate(article domain.Article, normalized domain.NormalizedContent) domain.FilterVerdict {
	if normalized.ContentLength < f.rules.MinLength {
		return rejected(domain.ReasonTooShort)
	}

	fullText := article.Title + " " + normalized.PlainText

	if f.isWireService(article.Publisher, fullText) {
		return rejected(domain.ReasonWireService)
	}

	if f.isPRContent(article.URL, fullText) {
		return rejected(domain.ReasonPRContent)
	}

	if f.isPlaceholder(fullText, normalized.PlainText) {
		return rejected(domain.ReasonPlaceholder)
	}

	return domain.FilterVerdict{Accepted: true, Reason: domain.ReasonOK}
}

func (f *Filterer) isWireService(publisher, fullText string) bool {
	foldedPublisher := f.caser.String(strings.TrimSpace(publisher))
	if matchAny(f.rules.WirePublishers, foldedPublisher) {
		return true
	}

	return matchAny(f.rules.WireSignatures, fullText)
}

func (f *Filterer) isPRContent(url, fullText string) bool {
	if matchAny(f.rules.URLPatterns, url) {
		return true
	}

	return matchAny(f.rules.PRSignatures, fullText)
}

func (f *Filterer) isPlaceholder(fullText, body string) bool {
	if matchAny(f.rules.PlaceholderPatterns, fullText) {
		return true
	}

	return isRepetitive(body)
}

// isRepetitive catches padded stubs: long bodies made of very few distinct words.
func isRepetitive(body string) bool {
	words := strings.Fields(body)
	if len(words) < repetitionMinWords {
		return false
	}

	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[strings.ToLower(w)] = struct{}{}
	}

	return float64(len(unique)) < float64(len(words))*repetitionUniqueRatio
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}

	return false
}

func rejected(reason domain.Reason) domain.FilterVerdict {
	return domain.FilterVerdict{Accepted: false, Reason: reason}
}
