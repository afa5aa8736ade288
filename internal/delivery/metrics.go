package delivery

import (
	"sync/atomic"
	"time"

	"github.com/nimasrn/time-capsule/pkg/prom"
)

// Metrics keeps in-process delivery counters and mirrors them to Prometheus.
type Metrics struct {
	sweeps          int64
	delivered       int64
	failed          int64
	queryFailures   int64
	skippedTicks    int64
	totalDurationNs int64
	lastResetNs     int64
}

func NewMetrics() *Metrics {
	return &Metrics{lastResetNs: time.Now().UnixNano()}
}

func (m *Metrics) RecordSweep(r Report, d time.Duration) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.sweeps, 1)
	atomic.AddInt64(&m.delivered, int64(r.Delivered))
	atomic.AddInt64(&m.failed, int64(r.Failed))
	atomic.AddInt64(&m.totalDurationNs, int64(d))
	if r.QueryErr != nil {
		atomic.AddInt64(&m.queryFailures, 1)
	}
	prom.ObserveSweep(d.Seconds(), r.Delivered, r.Failed)
}

func (m *Metrics) RecordSkip(reason string) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.skippedTicks, 1)
	prom.IncTickSkipped(reason)
}

func (m *Metrics) RecordNotifierError(notifier string) {
	if m == nil {
		return
	}
	prom.IncNotifierError(notifier)
}

func (m *Metrics) SkippedTicks() int64 {
	return atomic.LoadInt64(&m.skippedTicks)
}

func (m *Metrics) GetStats() map[string]interface{} {
	sweeps := atomic.LoadInt64(&m.sweeps)
	durationNs := atomic.LoadInt64(&m.totalDurationNs)

	avg := time.Duration(0)
	if sweeps > 0 {
		avg = time.Duration(durationNs / sweeps)
	}

	return map[string]interface{}{
		"sweeps":         sweeps,
		"delivered":      atomic.LoadInt64(&m.delivered),
		"failed":         atomic.LoadInt64(&m.failed),
		"query_failures": atomic.LoadInt64(&m.queryFailures),
		"skipped_ticks":  atomic.LoadInt64(&m.skippedTicks),
		"avg_sweep_ms":   avg.Milliseconds(),
		"uptime_seconds": time.Since(time.Unix(0, atomic.LoadInt64(&m.lastResetNs))).Seconds(),
	}
}

func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.sweeps, 0)
	atomic.StoreInt64(&m.delivered, 0)
	atomic.StoreInt64(&m.failed, 0)
	atomic.StoreInt64(&m.queryFailures, 0)
	atomic.StoreInt64(&m.skippedTicks, 0)
	atomic.StoreInt64(&m.totalDurationNs, 0)
	atomic.StoreInt64(&m.lastResetNs, time.Now().UnixNano())
}
