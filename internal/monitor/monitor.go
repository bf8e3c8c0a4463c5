// Package monitor runs a background memory watchdog that publishes alerts
// when the process heap grows past a configured limit.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/groblegark/ktasks/internal/events"
)

// sample is one point in the watchdog's heap history.
type sample struct {
	heapMB     int
	goroutines int
	at         time.Time
}

// Watchdog periodically samples heap usage and publishes a MemoryAlert when
// the heap exceeds the configured limit or keeps growing across consecutive
// samples.
type Watchdog struct {
	publisher events.Publisher
	interval  time.Duration
	limitMB   int
	logger    *slog.Logger

	// readMemStats is swappable for tests.
	readMemStats func() sample

	mu      sync.Mutex
	history []sample

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// growthWindow is the number of consecutive increasing samples that counts
// as sustained growth.
const growthWindow = 3

// New creates a watchdog publishing to p. limitMB is the heap size that
// triggers an immediate alert.
func New(p events.Publisher, interval time.Duration, limitMB int, logger *slog.Logger) *Watchdog {
	return &Watchdog{
		publisher:    p,
		interval:     interval,
		limitMB:      limitMB,
		logger:       logger,
		readMemStats: readRuntimeStats,
	}
}

func readRuntimeStats() sample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return sample{
		heapMB:     int(ms.HeapAlloc / (1 << 20)),
		goroutines: runtime.NumGoroutine(),
		at:         time.Now().UTC(),
	}
}

// Start begins periodic sampling. It samples once immediately, then on each tick.
func (w *Watchdog) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

// Stop cancels the watchdog and waits for the sampling loop to exit.
func (w *Watchdog) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *Watchdog) run(ctx context.Context) {
	w.check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

// check takes one sample and publishes an alert if warranted.
func (w *Watchdog) check(ctx context.Context) {
	s := w.readMemStats()

	w.mu.Lock()
	w.history = append(w.history, s)
	if len(w.history) > growthWindow+1 {
		w.history = w.history[len(w.history)-growthWindow-1:]
	}
	history := make([]sample, len(w.history))
	copy(history, w.history)
	w.mu.Unlock()

	if msg := evaluate(history, w.limitMB); msg != "" {
		w.logger.Warn("memory alert", "heap_mb", s.heapMB, "limit_mb", w.limitMB, "goroutines", s.goroutines, "reason", msg)
		alert := events.MemoryAlert{
			HeapMB:    s.heapMB,
			LimitMB:   w.limitMB,
			Goroutine: s.goroutines,
			Message:   msg,
		}
		if err := w.publisher.Publish(ctx, events.TopicMemoryAlert, alert); err != nil {
			w.logger.Warn("failed to publish memory alert", "error", err)
		}
	}
}

// evaluate decides whether the sample history warrants an alert.
// Returns an empty string when everything looks fine.
func evaluate(history []sample, limitMB int) string {
	if len(history) == 0 {
		return ""
	}
	latest := history[len(history)-1]

	if limitMB > 0 && latest.heapMB >= limitMB {
		return fmt.Sprintf("heap %d MB exceeds limit %d MB", latest.heapMB, limitMB)
	}

	// Sustained growth: every step in the last growthWindow samples increases.
	if len(history) > growthWindow {
		recent := history[len(history)-growthWindow-1:]
		growing := true
		for i := 1; i < len(recent); i++ {
			if recent[i].heapMB <= recent[i-1].heapMB {
				growing = false
				break
			}
		}
		if growing {
			return fmt.Sprintf("heap grew across %d consecutive samples (now %d MB)", growthWindow, latest.heapMB)
		}
	}

	return ""
}
