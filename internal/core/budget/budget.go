// Package budget tracks daily enrichment usage and gates paid tiers.
//
// All counters live behind one mutex; TryReserve is a single atomic
// check-and-increment, so concurrent callers can never jointly exceed a cap.
// Budget exhaustion is normal control flow, not an error: TryReserve returns
// false and the routing engine cascades to a cheaper tier.
package budget

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"newsgate/internal/core/domain"
)

// dateFormatYMD keys the daily reset tracking.
const dateFormatYMD = "2006-01-02"

// Limits configures the daily caps. A cap of zero or below means unlimited.
type Limits struct {
	DailyCalls       int
	TierCalls        map[domain.Tier]int
	DailyBudgetCents int
}

// Snapshot is a point-in-time view of the day's counters.
type Snapshot struct {
	Date        string
	CallsByTier map[domain.Tier]int
	TotalCalls  int
	SpendCents  int
}

// Manager owns the per-calendar-day reservation counters.
type Manager struct {
	mu          sync.Mutex
	limits      Limits
	loc         *time.Location
	day         string
	callsByTier map[domain.Tier]int
	totalCalls  int
	spendCents  int
	logger      *zerolog.Logger
}

// NewManager creates a budget manager. Day boundaries are evaluated in loc;
// nil means UTC.
func NewManager(limits Limits, loc *time.Location, logger *zerolog.Logger) *Manager {
	if loc == nil {
		loc = time.UTC
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Manager{
		limits:      limits,
		loc:         loc,
		day:         time.Now().In(loc).Format(dateFormatYMD),
		callsByTier: make(map[domain.Tier]int),
		logger:      logger,
	}
}

// TryReserve atomically checks the per-tier cap, the global daily call cap,
// and the daily spend cap, and increments all counters only if every check
// passes. Returns false with no state change otherwise. The first call
// observed after a day boundary resets all counters before evaluating.
func (m *Manager) TryReserve(tier domain.Tier, estCostCents int, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rolloverLocked(now)

	if limit := m.limits.TierCalls[tier]; limit > 0 && m.callsByTier[tier] >= limit {
		m.logger.Debug().Str("tier", string(tier)).Msg("tier call cap reached")
		return false
	}

	if m.limits.DailyCalls > 0 && m.totalCalls >= m.limits.DailyCalls {
		m.logger.Debug().Str("tier", string(tier)).Msg("daily call cap reached")
		return false
	}

	if m.limits.DailyBudgetCents > 0 && m.spendCents+estCostCents > m.limits.DailyBudgetCents {
		m.logger.Debug().
			Str("tier", string(tier)).
			Int("spend_cents", m.spendCents).
			Int("est_cost_cents", estCostCents).
			Msg("daily budget cap reached")

		return false
	}

	m.callsByTier[tier]++
	m.totalCalls++
	m.spendCents += estCostCents

	return true
}

// Snapshot returns the current day's counters, applying any pending rollover.
func (m *Manager) Snapshot(now time.Time) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rolloverLocked(now)

	calls := make(map[domain.Tier]int, len(m.callsByTier))
	for tier, n := range m.callsByTier {
		calls[tier] = n
	}

	return Snapshot{
		Date:        m.day,
		CallsByTier: calls,
		TotalCalls:  m.totalCalls,
		SpendCents:  m.spendCents,
	}
}

func (m *Manager) rolloverLocked(now time.Time) {
	today := now.In(m.loc).Format(dateFormatYMD)
	if m.day == today {
		return
	}

	m.day = today
	m.callsByTier = make(map[domain.Tier]int)
	m.totalCalls = 0
	m.spendCents = 0

	m.logger.Info().Str("date", today).Msg("budget counters reset for new day")
}
