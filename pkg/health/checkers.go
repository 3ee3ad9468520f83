package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
)

// recentPauses is how many of the latest GC pauses GCMaxPauseCheck inspects.
const recentPauses = 16

// GoroutineCountCheck fails when more than threshold goroutines are running.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutines: %d > %d", n, threshold)
		}
		return nil
	}
}

// GCMaxPauseCheck fails when one of the most recent stop-the-world pauses
// took longer than threshold.
func GCMaxPauseCheck(threshold time.Duration) CheckFunc {
	return func(context.Context) error {
		stats := debug.GCStats{Pause: make([]time.Duration, 0, recentPauses)}
		debug.ReadGCStats(&stats)

		pauses := stats.Pause
		if len(pauses) > recentPauses {
			pauses = pauses[:recentPauses]
		}
		for _, p := range pauses {
			if p > threshold {
				return errors.Errorf("gc pause: %s > %s", p, threshold)
			}
		}
		return nil
	}
}

// HeapInUseCheck fails while the live heap exceeds limit bytes. Every
// analytics request materializes its whole dataset, so the server stops
// taking traffic until in-flight reports are collected. A zero limit always
// passes.
func HeapInUseCheck(limit uint64) CheckFunc {
	return func(context.Context) error {
		if limit == 0 {
			return nil
		}
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		if m.HeapInuse > limit {
			return errors.Errorf("heap in use: %d > %d bytes", m.HeapInuse, limit)
		}
		return nil
	}
}
