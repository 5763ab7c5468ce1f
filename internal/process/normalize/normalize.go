// Package normalize turns raw article payloads into canonical text plus the
// fingerprint and shingle signature used downstream for deduplication.
//
// Normalization is a pure function: the same input always yields the same
// canonical text, fingerprint, and signature.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"newsgate/internal/core/domain"
	cerrors "newsgate/internal/core/errors"
	"newsgate/internal/process/shingle"
)

// fingerprintPrefixRunes bounds how much canonical body feeds the fingerprint,
// so trailing boilerplate variations do not defeat exact-duplicate detection.
const fingerprintPrefixRunes = 1000

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	bylineRegex     = regexp.MustCompile(`(?im)^by\s+[\p{L}.'-]+(\s+[\p{L}.'-]+){0,3}\s*$`)
	punctRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// stopwords dropped during canonicalization. Articles differing only in these
// words fingerprint identically.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {},
}

// Normalize strips markup and boilerplate from an article and derives its
// fingerprint and shingle signature. Returns ErrMalformedContent when the raw
// body is empty or not decodable as text.
func Normalize(article domain.Article) (domain.NormalizedContent, error) {
	raw := strings.TrimSpace(article.RawBody)
	if raw == "" {
		return domain.NormalizedContent{}, fmt.Errorf("empty body for %q: %w", article.URL, cerrors.ErrMalformedContent)
	}

	if !utf8.ValidString(raw) {
		return domain.NormalizedContent{}, fmt.Errorf("body not valid utf-8 for %q: %w", article.URL, cerrors.ErrMalformedContent)
	}

	plain := stripMarkup(raw)
	plain = stripBoilerplate(plain)
	plain = collapseWhitespace(plain)

	if plain == "" {
		return domain.NormalizedContent{}, fmt.Errorf("no text content for %q: %w", article.URL, cerrors.ErrMalformedContent)
	}

	canonicalTitle := Canonicalize(article.Title)
	canonicalBody := Canonicalize(plain)

	tokens := strings.Fields(canonicalTitle + " " + canonicalBody)

	return domain.NormalizedContent{
		PlainText:        plain,
		CanonicalText:    canonicalBody,
		ContentLength:    utf8.RuneCountInString(plain),
		Fingerprint:      fingerprint(canonicalTitle, canonicalBody),
		ShingleSignature: shingle.Signature(tokens),
	}, nil
}

// stripMarkup removes HTML tags, keeping text content. Plain-text bodies pass
// through unchanged.
func stripMarkup(raw string) string {
	if !strings.ContainsRune(raw, '<') {
		return raw
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		// html parsing is lenient; a hard failure means the body is hopeless,
		// fall back to a crude tag strip
		return punctuationSafeTagStrip(raw)
	}

	doc.Find("script, style, noscript, iframe").Remove()

	return doc.Text()
}

var tagRegex = regexp.MustCompile(`<[^>]*>`)

func punctuationSafeTagStrip(raw string) string {
	return tagRegex.ReplaceAllString(raw, " ")
}

// stripBoilerplate removes standalone byline lines ("By Jane Doe").
// Wire-service attribution stays in the text so the quality filter can see it.
func stripBoilerplate(text string) string {
	return bylineRegex.ReplaceAllString(text, "")
}

func collapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

// Canonicalize lowercases, strips punctuation, and drops stopwords, producing
// the comparison form used for fingerprints and shingles.
func Canonicalize(text string) string {
	text = strings.ToLower(text)
	text = punctRegex.ReplaceAllString(text, "")

	fields := strings.FieldsFunc(text, unicode.IsSpace)
	kept := fields[:0]

	for _, w := range fields {
		if _, skip := stopwords[w]; skip {
			continue
		}

		kept = append(kept, w)
	}

	return strings.Join(kept, " ")
}

func fingerprint(canonicalTitle, canonicalBody string) string {
	prefix := canonicalBody
	if runes := []rune(prefix); len(runes) > fingerprintPrefixRunes {
		prefix = string(runes[:fingerprintPrefixRunes])
	}

	sum := sha256.Sum256([]byte(canonicalTitle + "|" + prefix))

	return hex.EncodeToString(sum[:])
}
