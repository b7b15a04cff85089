package quota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pitabwire/util"

	"github.com/kevsila/narrator/internal/voice"
)

// StateKey names the persisted usage blob. The version suffix doubles as
// the schema version: bump it and old state is simply abandoned.
const StateKey = "narrator.usage.v2"

// CooldownDuration is how long all synthesis activity is suspended after a
// rate-limit signal.
const CooldownDuration = 60 * time.Second

// ErrQuotaExceeded is the local pre-flight rejection when a platform's
// daily budget is spent. No network call is made.
var ErrQuotaExceeded = errors.New("daily quota exceeded")

// ErrCooldownActive rejects all reservations while the global cooldown is
// running, regardless of per-platform budgets.
var ErrCooldownActive = errors.New("cooldown active")

// PlatformQuota is one platform's daily budget and consumption.
type PlatformQuota struct {
	DailyLimit int `json:"dailyLimit"`
	Used       int `json:"used"`
}

// UsageState is the whole persisted quota state. Loaded once at startup and
// persisted as a unit on every mutation.
type UsageState struct {
	Quotas        map[voice.Platform]PlatformQuota `json:"quotas"`
	LastResetDate string                           `json:"lastResetDate"` // YYYY-MM-DD
}

// Tracker is the process-wide request gate. Reservations are serialized
// under a mutex; the provider calls they authorize run concurrently, so two
// rapid user actions may both reserve and issue two calls. That is accepted
// behavior: quota counts attempts, not successes.
type Tracker struct {
	mu        sync.Mutex
	store     Store
	state     UsageState
	coolUntil time.Time

	now func() time.Time
}

// NewTracker loads persisted usage state (starting fresh when absent or
// unreadable) and applies the configured daily limits.
func NewTracker(ctx context.Context, store Store, limits map[voice.Platform]int) *Tracker {
	t := &Tracker{
		store: store,
		now:   time.Now,
	}

	t.state = UsageState{Quotas: make(map[voice.Platform]PlatformQuota)}
	if raw, err := store.Load(ctx, StateKey); err != nil {
		util.Log(ctx).WithError(err).Warn("quota: load usage state, starting fresh")
	} else if raw != nil {
		var loaded UsageState
		if err := json.Unmarshal(raw, &loaded); err != nil {
			util.Log(ctx).WithError(err).Warn("quota: unreadable usage state, starting fresh")
		} else if loaded.Quotas != nil {
			t.state = loaded
		}
	}

	// Configured limits always win over persisted ones; unknown platforms
	// in old state are dropped.
	quotas := make(map[voice.Platform]PlatformQuota, len(limits))
	for pl, limit := range limits {
		q := t.state.Quotas[pl]
		q.DailyLimit = limit
		quotas[pl] = q
	}
	t.state.Quotas = quotas

	if t.state.LastResetDate == "" {
		t.state.LastResetDate = t.today()
	}
	t.maybeDailyReset(ctx)

	return t
}

func (t *Tracker) today() string {
	return t.now().Format("2006-01-02")
}

// CheckAndReserve authorizes one synthesis or preview call against the
// platform's daily budget. On success the used counter is incremented and
// the whole state persisted before the call proceeds; a later failure of
// the authorized call does not refund the unit.
func (t *Tracker) CheckAndReserve(ctx context.Context, platform voice.Platform) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if remaining := t.remainingLocked(); remaining > 0 {
		return fmt.Errorf("%w: %ds remaining", ErrCooldownActive, remaining)
	}

	t.maybeDailyResetLocked(ctx)

	q, ok := t.state.Quotas[platform]
	if !ok {
		return fmt.Errorf("unknown platform %q", platform)
	}
	if q.Used >= q.DailyLimit {
		return fmt.Errorf("%w: %s used %d of %d", ErrQuotaExceeded, platform, q.Used, q.DailyLimit)
	}

	q.Used++
	t.state.Quotas[platform] = q
	if err := t.persistLocked(ctx); err != nil {
		q.Used--
		t.state.Quotas[platform] = q
		return fmt.Errorf("persist usage state: %w", err)
	}
	return nil
}

// RecordRateLimit enters the global cooldown. All reservations are rejected
// until the fixed duration elapses.
func (t *Tracker) RecordRateLimit() {
	t.mu.Lock()
	t.coolUntil = t.now().Add(CooldownDuration)
	t.mu.Unlock()
}

// Cooling reports whether the global cooldown is active.
func (t *Tracker) Cooling() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remainingLocked() > 0
}

// RemainingSeconds returns the cooldown countdown, zero when idle.
func (t *Tracker) RemainingSeconds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remainingLocked()
}

func (t *Tracker) remainingLocked() int {
	d := t.coolUntil.Sub(t.now())
	if d <= 0 {
		return 0
	}
	// Round up so a cooldown never reports zero while still rejecting.
	return int((d + time.Second - 1) / time.Second)
}

// Reset zeroes all counters immediately, independent of date. Operator
// action; does not clear an active cooldown.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for pl, q := range t.state.Quotas {
		q.Used = 0
		t.state.Quotas[pl] = q
	}
	t.state.LastResetDate = t.today()
	return t.persistLocked(ctx)
}

// Snapshot returns a copy of the current usage state.
func (t *Tracker) Snapshot() UsageState {
	t.mu.Lock()
	defer t.mu.Unlock()

	quotas := make(map[voice.Platform]PlatformQuota, len(t.state.Quotas))
	for pl, q := range t.state.Quotas {
		quotas[pl] = q
	}
	return UsageState{Quotas: quotas, LastResetDate: t.state.LastResetDate}
}

func (t *Tracker) maybeDailyReset(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maybeDailyResetLocked(ctx)
}

// maybeDailyResetLocked zeroes all counters when the persisted date marker
// differs from the current date. This is the only path besides the manual
// reset that decreases used counts.
func (t *Tracker) maybeDailyResetLocked(ctx context.Context) {
	today := t.today()
	if t.state.LastResetDate == today {
		return
	}

	for pl, q := range t.state.Quotas {
		q.Used = 0
		t.state.Quotas[pl] = q
	}
	t.state.LastResetDate = today
	if err := t.persistLocked(ctx); err != nil {
		util.Log(ctx).WithError(err).Warn("quota: persist daily reset")
	}
}

func (t *Tracker) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(t.state)
	if err != nil {
		return err
	}
	return t.store.Save(ctx, StateKey, raw)
}
