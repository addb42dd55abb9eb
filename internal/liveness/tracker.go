package liveness

import (
	"context"
	"log"
	"sync"
	"time"

	"bin-status-backend/config"
	"bin-status-backend/internal/clock"
	"bin-status-backend/internal/model"
)

// Channel identifies which update path a sighting arrived on.
type Channel string

const (
	ChannelHeartbeat Channel = "heartbeat"
	ChannelTelemetry Channel = "telemetry"
)

// Patcher applies the persisted offline patch for a bin. The tracker
// calls it exactly once per online-to-offline transition.
type Patcher interface {
	MarkOffline(ctx context.Context, key model.BinKey) error
}

// entry is the in-memory liveness state for one device. A zero
// timestamp means the device has never been seen on that channel.
type entry struct {
	key           model.BinKey
	lastHeartbeat time.Time
	lastTelemetry time.Time
	online        bool
}

// lastSeen is the most recent sighting across both channels.
func (e *entry) lastSeen() time.Time {
	if e.lastTelemetry.After(e.lastHeartbeat) {
		return e.lastTelemetry
	}
	return e.lastHeartbeat
}

// Tracker is an in-memory table of device liveness state, keyed by the
// derived "<location>-<id>" string. Sightings from the request path and
// the two periodic sweeps all go through the same mutex; the table is a
// disposable cache of recency, never the durable source of truth.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*entry

	clk     clock.Clock
	patcher Patcher
	cfg     config.LivenessConfig
}

// NewTracker creates a tracker with the given thresholds. The patcher
// receives exactly one call per offline transition; it may be nil at
// construction and wired later via SetPatcher, since the patching
// service itself needs the tracker to record sightings.
func NewTracker(cfg config.LivenessConfig, clk clock.Clock, patcher Patcher) *Tracker {
	return &Tracker{
		entries: make(map[string]*entry),
		clk:     clk,
		patcher: patcher,
		cfg:     cfg,
	}
}

// SetPatcher installs the patch target. Must be called before the first
// sweep runs.
func (t *Tracker) SetPatcher(p Patcher) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.patcher = p
}

// Sighting records that an update arrived for the given device on the
// given channel. The first sighting creates the entry; every sighting
// marks the device online. Going back online never patches the
// persisted record; the next ordinary write reflects recovery.
func (t *Tracker) Sighting(key model.BinKey, ch Channel) {
	now := t.clk.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key.TrackerKey()]
	if !ok {
		e = &entry{key: key}
		t.entries[key.TrackerKey()] = e
	}
	switch ch {
	case ChannelHeartbeat:
		e.lastHeartbeat = now
	case ChannelTelemetry:
		e.lastTelemetry = now
	}
	e.online = true
}

// Online reports whether the device is currently marked online. The
// second return value is false when the device is not tracked at all.
func (t *Tracker) Online(key model.BinKey) (bool, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key.TrackerKey()]
	if !ok {
		return false, false
	}
	return e.online, true
}

// Len returns the number of tracked devices.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// SweepOffline scans the table and flips devices whose most recent
// sighting is older than the offline threshold. The transition is made
// here and only here; the patch for each flipped device is issued after
// the lock is released, and a patch failure is logged so one device's
// fault cannot abort the sweep over the rest.
func (t *Tracker) SweepOffline(ctx context.Context) {
	now := t.clk.Now()

	t.mu.Lock()
	patcher := t.patcher
	var flipped []model.BinKey
	for _, e := range t.entries {
		if !e.online {
			continue
		}
		if now.Sub(e.lastSeen()) > t.cfg.OfflineThreshold {
			e.online = false
			flipped = append(flipped, e.key)
		}
	}
	t.mu.Unlock()

	if patcher == nil {
		return
	}

	for _, key := range flipped {
		log.Printf("bin %s silent for over %s, marking offline", key.TrackerKey(), t.cfg.OfflineThreshold)
		if err := patcher.MarkOffline(ctx, key); err != nil {
			log.Printf("Error patching offline status for bin %s: %v", key.TrackerKey(), err)
		}
	}
}

// SweepCleanup evicts entries silent for longer than the cleanup
// interval, regardless of their online state. Pure memory reclamation;
// the persisted record is not touched.
func (t *Tracker) SweepCleanup() {
	now := t.clk.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	for k, e := range t.entries {
		if now.Sub(e.lastSeen()) > t.cfg.CleanupInterval {
			delete(t.entries, k)
		}
	}
}

// Run drives both sweeps on their configured intervals until the
// context is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	log.Printf("Starting liveness tracker (offline threshold %s, sweep every %s, cleanup every %s)",
		t.cfg.OfflineThreshold, t.cfg.SweepInterval, t.cfg.CleanupInterval)

	sweep := time.NewTicker(t.cfg.SweepInterval)
	defer sweep.Stop()
	cleanup := time.NewTicker(t.cfg.CleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Liveness tracker shutting down.")
			return
		case <-sweep.C:
			t.SweepOffline(ctx)
		case <-cleanup.C:
			t.SweepCleanup()
		}
	}
}
