// Package budget implements the monthly-budget circuit breaker
// (spec.md §4.4): a three-state controller over month-to-date spend, guarded
// by a single critical section so admission and recording are atomic with
// respect to each other and to month rollover.
//
// The single-mutex-guarded-struct shape is grounded on the teacher's
// router.Router (sync.RWMutex protecting a map of per-symbol cooldowns),
// generalized here from a map of cooldowns to a single spend/state pair.
package budget

import (
	"fmt"
	"sync"
	"time"

	"github.com/GEJFY/llmgateway/internal/core"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// State is one of the three circuit states (spec.md §3 "Budget state").
type State string

const (
	StateClosed   State = "CLOSED"
	StateHalfOpen State = "HALF_OPEN"
	StateOpen     State = "OPEN"
)

// Config holds the breaker's thresholds (spec.md §6 configuration keys).
type Config struct {
	MonthlyLimitUSD  float64
	AlertThreshold   float64 // (0,1]
	BreakerThreshold float64 // (alert,1]
}

// Validate checks Config against spec.md §3's invariants on construction.
func (c Config) Validate() error {
	if c.MonthlyLimitUSD <= 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("monthly_limit_usd must be positive, got %v", c.MonthlyLimitUSD))
	}
	if c.AlertThreshold <= 0 || c.AlertThreshold > 1 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("alert_threshold must be in (0,1], got %v", c.AlertThreshold))
	}
	if c.BreakerThreshold <= c.AlertThreshold || c.BreakerThreshold > 1 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("breaker_threshold must be in (alert_threshold,1], got %v", c.BreakerThreshold))
	}
	return nil
}

// Snapshot is the read-only view returned by State() (spec.md §6 budget_state()).
type Snapshot struct {
	MonthlyLimitUSD  float64
	AlertThreshold   float64
	BreakerThreshold float64
	MonthKey         string
	SpendUSD         float64
	Circuit          State
}

type monthKey struct {
	year  int
	month time.Month
}

func (k monthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.year, int(k.month))
}

func keyFor(t time.Time) monthKey {
	y, m, _ := t.Date()
	return monthKey{year: y, month: m}
}

// Breaker is the single per-process budget resource. Inject it into the
// router rather than reaching for it as a singleton (spec.md §9); tests
// construct their own instance.
type Breaker struct {
	mu        sync.Mutex
	cfg       Config
	spend     decimal.Decimal
	state     State
	month     monthKey
	lastAlert time.Time
	logger    *zap.Logger
}

// New creates a breaker in CLOSED state for the calendar month of now.
func New(cfg Config, now time.Time, logger *zap.Logger) (*Breaker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Breaker{
		cfg:    cfg,
		state:  StateClosed,
		month:  keyFor(now),
		logger: logger,
	}, nil
}

// CheckAndAdmit reads state and admits or denies. estimatedCostUSD is used
// only for logging (spec.md §4.4: "admission is based on current spend,
// not on projection"). On admission it returns the observed state (CLOSED
// or HALF_OPEN); on denial it returns StateOpen and core.ErrBudgetExceeded.
func (b *Breaker) CheckAndAdmit(now time.Time, estimatedCostUSD float64) (State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rolloverLocked(now)

	if b.state == StateOpen {
		return StateOpen, core.ErrBudgetExceeded
	}

	if b.state == StateHalfOpen && now.Sub(b.lastAlert) >= time.Minute {
		b.lastAlert = now
		b.logger.Warn("budget alert: spend approaching monthly limit",
			zap.Float64("spend_usd", b.spend.InexactFloat64()),
			zap.Float64("monthly_limit_usd", b.cfg.MonthlyLimitUSD),
			zap.Float64("estimated_cost_usd", estimatedCostUSD),
		)
	}

	return b.state, nil
}

// RecordUsage adds cost to month-to-date spend and re-evaluates state. It
// never blocks on CheckAndAdmit; the new state takes effect on the next
// CheckAndAdmit call (spec.md §4.4).
func (b *Breaker) RecordUsage(now time.Time, costUSD float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rolloverLocked(now)
	b.spend = b.spend.Add(decimal.NewFromFloat(costUSD))
	b.recomputeStateLocked()
}

// Reset is the administrative reset: zeroes spend and returns to CLOSED
// without advancing month_key (spec.md §4.4).
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.spend = decimal.Zero
	b.state = StateClosed
	b.logger.Info("budget administratively reset")
}

// State returns a read-only snapshot, performing month rollover first so a
// stale OPEN state from a prior month is never observed (spec.md §8 "First
// request after month rollover").
func (b *Breaker) State(now time.Time) Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rolloverLocked(now)

	return Snapshot{
		MonthlyLimitUSD:  b.cfg.MonthlyLimitUSD,
		AlertThreshold:   b.cfg.AlertThreshold,
		BreakerThreshold: b.cfg.BreakerThreshold,
		MonthKey:         b.month.String(),
		SpendUSD:         b.spend.InexactFloat64(),
		Circuit:          b.state,
	}
}

// rolloverLocked must be called with mu held. Performed inside the same
// critical section as every public read/write so rollover is race-free
// (spec.md §4.4).
func (b *Breaker) rolloverLocked(now time.Time) {
	k := keyFor(now)
	if k == b.month {
		return
	}
	b.month = k
	b.spend = decimal.Zero
	b.state = StateClosed
	b.lastAlert = time.Time{}
	b.logger.Info("monthly budget reset", zap.String("month", k.String()))
}

// recomputeStateLocked must be called with mu held.
func (b *Breaker) recomputeStateLocked() {
	limit := decimal.NewFromFloat(b.cfg.MonthlyLimitUSD)
	if limit.IsZero() {
		b.state = StateOpen
		return
	}
	ratio, _ := b.spend.Div(limit).Float64()

	switch {
	case ratio >= b.cfg.BreakerThreshold:
		b.state = StateOpen
	case ratio >= b.cfg.AlertThreshold:
		b.state = StateHalfOpen
	default:
		b.state = StateClosed
	}
}
