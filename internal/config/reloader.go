package config

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	gwerrors "github.com/owings1/auth-proxy/internal/errors"
	"github.com/owings1/auth-proxy/internal/logging"
)

// Reloader owns the current Snapshot and keeps it fresh by polling the
// four source files on a fixed interval. A single Snapshot pointer is
// published atomically; request handlers read it lock-free via Snapshot().
type Reloader struct {
	settings Settings

	current   atomic.Pointer[Snapshot]
	reloading atomic.Bool

	interval time.Duration
	ticker   *time.Ticker
	stop     chan struct{}
	done     chan struct{}
}

// NewReloader constructs a Reloader for the given Settings. Start must be
// called before Snapshot returns a usable value.
func NewReloader(settings Settings) *Reloader {
	return &Reloader{
		settings: settings,
		interval: time.Duration(settings.ReloadIntervalMs) * time.Millisecond,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start performs the initial synchronous load and, if ReloadIntervalMs is
// non-zero, launches the background polling loop. The initial load must
// succeed: there is no prior Snapshot to fall back to.
func (r *Reloader) Start() error {
	if err := r.reloadOnce(); err != nil {
		return err
	}
	if r.interval > 0 {
		r.ticker = time.NewTicker(r.interval)
		go r.loop()
	}
	return nil
}

// Stop halts the polling loop, if running, and waits for it to exit.
func (r *Reloader) Stop() {
	if r.ticker == nil {
		return
	}
	close(r.stop)
	<-r.done
	r.ticker.Stop()
}

// Snapshot returns the current, immutable configuration snapshot.
func (r *Reloader) Snapshot() *Snapshot {
	return r.current.Load()
}

func (r *Reloader) loop() {
	defer close(r.done)
	for {
		select {
		case <-r.stop:
			return
		case <-r.ticker.C:
			if err := r.reloadOnce(); err != nil {
				logging.Error("config reload failed, continuing to serve prior snapshot", zap.Error(err))
			}
		}
	}
}

// reloadOnce runs one reload attempt: open+stat, skip-if-unchanged, parse,
// validate, build, publish. File handles are closed on every exit path.
// reloadOnce never runs concurrently with itself — a tick that arrives
// while one is already in flight is dropped, not queued.
func (r *Reloader) reloadOnce() error {
	if !r.reloading.CompareAndSwap(false, true) {
		return nil
	}
	defer r.reloading.Store(false)

	set, err := openAll(r.settings)
	if err != nil {
		return err
	}
	defer set.closeAll()

	latest := set.maxMTime()
	if prev := r.current.Load(); prev != nil && latest.Equal(prev.SourceMTime()) {
		return nil
	}

	raw, err := parseAll(set)
	if err != nil {
		return err
	}

	snap, err := buildSnapshot(raw, latest)
	if err != nil {
		return gwerrors.ConfigWrap(err, "reload produced an invalid snapshot")
	}

	r.current.Store(snap)
	return nil
}
