// Package dedup maintains the bounded-recency duplicate index.
//
// The index is the single piece of long-lived mutable state in the routing
// core. Check-and-register is one atomically guarded operation so two
// concurrently arriving copies of the same article are never both registered
// as originals. Signatures are fixed-size, so each comparison costs the same
// regardless of document length and a full pass is linear in index size.
package dedup

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"newsgate/internal/core/domain"
	"newsgate/internal/process/shingle"
)

const defaultLookbackDays = 7

// Entry is one registered article in the recency index.
type Entry struct {
	Fingerprint string
	Signature   []uint64
	SeenAt      time.Time
	URL         string
}

// Result reports whether an article duplicates a previously seen one.
type Result struct {
	IsDuplicate bool
	MatchedURL  string
}

// Index is the sliding-window duplicate index.
type Index struct {
	mu            sync.Mutex
	threshold     float64
	window        time.Duration
	byFingerprint map[string]*Entry
	entries       []*Entry
	logger        *zerolog.Logger
}

// NewIndex creates an empty index. A non-positive window falls back to the
// default 7-day lookback.
func NewIndex(threshold float64, window time.Duration, logger *zerolog.Logger) *Index {
	if window <= 0 {
		window = defaultLookbackDays * 24 * time.Hour
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Index{
		threshold:     threshold,
		window:        window,
		byFingerprint: make(map[string]*Entry),
		logger:        logger,
	}
}

// CheckAndRegister evicts expired entries, then checks the incoming article
// against the index: exact fingerprint first, then signature similarity
// against every remaining entry (best match wins, ties broken by most recent
// SeenAt). Novel articles are registered; duplicates are not.
func (ix *Index) CheckAndRegister(normalized domain.NormalizedContent, url string, now time.Time) Result {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.evictLocked(now)

	if match, ok := ix.byFingerprint[normalized.Fingerprint]; ok {
		ix.logger.Debug().
			Str("url", url).
			Str("duplicate_of", match.URL).
			Msg("exact duplicate")

		return Result{IsDuplicate: true, MatchedURL: match.URL}
	}

	if match := ix.bestMatchLocked(normalized.ShingleSignature); match != nil {
		ix.logger.Debug().
			Str("url", url).
			Str("duplicate_of", match.URL).
			Msg("near duplicate")

		return Result{IsDuplicate: true, MatchedURL: match.URL}
	}

	entry := &Entry{
		Fingerprint: normalized.Fingerprint,
		Signature:   normalized.ShingleSignature,
		SeenAt:      now,
		URL:         url,
	}

	ix.byFingerprint[entry.Fingerprint] = entry
	ix.entries = append(ix.entries, entry)

	return Result{}
}

// Size returns the current number of registered entries.
func (ix *Index) Size() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	return len(ix.entries)
}

// evictLocked drops entries whose SeenAt fell outside the lookback window.
// After it runs, no entry is older than window relative to now.
func (ix *Index) evictLocked(now time.Time) {
	cutoff := now.Add(-ix.window)
	kept := ix.entries[:0]

	for _, e := range ix.entries {
		if e.SeenAt.After(cutoff) {
			kept = append(kept, e)
			continue
		}

		delete(ix.byFingerprint, e.Fingerprint)
	}

	ix.entries = kept
}

func (ix *Index) bestMatchLocked(signature []uint64) *Entry {
	var (
		best      *Entry
		bestScore float64
	)

	for _, e := range ix.entries {
		score := shingle.Similarity(signature, e.Signature)
		if score < ix.threshold {
			continue
		}

		if best == nil || score > bestScore || (score == bestScore && e.SeenAt.After(best.SeenAt)) {
			best = e
			bestScore = score
		}
	}

	return best
}
