package session

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultSweepSchedule runs the idle sweep every ten minutes.
const DefaultSweepSchedule = "@every 10m"

// Cleanup evicts idle sessions from a Store on a cron schedule. It is an
// optional extension: with a zero TTL the store simply grows for the life
// of the process, which is the core contract.
type Cleanup struct {
	store    *Store
	ttl      time.Duration
	schedule string
	cron     *cron.Cron
	logger   zerolog.Logger
}

// NewCleanup creates an idle-session sweeper. A zero ttl disables eviction.
func NewCleanup(store *Store, ttl time.Duration, schedule string, logger zerolog.Logger) *Cleanup {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	return &Cleanup{
		store:    store,
		ttl:      ttl,
		schedule: schedule,
		logger:   logger,
	}
}

// Start schedules the sweep. It is a no-op when eviction is disabled.
func (c *Cleanup) Start() error {
	if c.ttl <= 0 {
		c.logger.Debug().Msg("Session eviction disabled")
		return nil
	}
	if c.cron != nil {
		return fmt.Errorf("cleanup is already running")
	}

	c.cron = cron.New()
	if _, err := c.cron.AddFunc(c.schedule, c.Sweep); err != nil {
		c.cron = nil
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	c.cron.Start()

	c.logger.Info().
		Dur("ttl", c.ttl).
		Str("schedule", c.schedule).
		Msg("Session eviction started")

	return nil
}

// Stop halts the sweep schedule and waits for a running sweep to finish.
func (c *Cleanup) Stop() {
	if c.cron == nil {
		return
	}
	<-c.cron.Stop().Done()
	c.cron = nil
	c.logger.Info().Msg("Session eviction stopped")
}

// Sweep evicts every session idle longer than the TTL. Sessions with an
// in-flight turn are skipped and picked up on a later sweep.
func (c *Cleanup) Sweep() {
	if c.ttl <= 0 {
		return
	}

	cutoff := time.Now().Add(-c.ttl)
	evicted := 0

	for _, id := range c.store.snapshotIDs() {
		mem, ok := c.store.Lookup(id)
		if !ok {
			continue
		}
		if mem.LastActive().After(cutoff) {
			continue
		}
		if !mem.turnMu.TryLock() {
			continue
		}
		// Re-check under the turn lock: a turn may have completed between
		// the idle check and acquiring the lock.
		if !mem.LastActive().After(cutoff) {
			c.store.evict(id)
			evicted++
		}
		mem.turnMu.Unlock()
	}

	if evicted > 0 {
		c.logger.Info().
			Int("evicted", evicted).
			Int("remaining", c.store.Len()).
			Msg("Idle sessions evicted")
	}
}
