// Package latency tracks status poll round-trip times.
package latency

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/PalMeany/l7-dstat/model"
)

const (
	histMin    = 1                // 1µs
	histMax    = 60 * 1000 * 1000 // 60s in µs
	histSigFig = 3
)

// Tracker records poll durations in microseconds. Not safe for concurrent use.
type Tracker struct {
	h *hdrhistogram.Histogram
}

func NewTracker() *Tracker {
	return &Tracker{h: hdrhistogram.New(histMin, histMax, histSigFig)}
}

// Record adds one observation, clamped to the histogram range.
func (t *Tracker) Record(d time.Duration) {
	us := d.Microseconds()
	if us < histMin {
		us = histMin
	}
	if us > histMax {
		us = histMax
	}
	_ = t.h.RecordValue(us)
}

// Summary reports the recorded quantiles.
func (t *Tracker) Summary() model.LatencySummary {
	if t.h.TotalCount() == 0 {
		return model.LatencySummary{}
	}
	return model.LatencySummary{
		Count: t.h.TotalCount(),
		P50:   toDuration(t.h.ValueAtQuantile(50)),
		P90:   toDuration(t.h.ValueAtQuantile(90)),
		P99:   toDuration(t.h.ValueAtQuantile(99)),
		Max:   toDuration(t.h.Max()),
	}
}

// Reset discards all observations.
func (t *Tracker) Reset() { t.h.Reset() }

func toDuration(us int64) time.Duration { return time.Duration(us) * time.Microsecond }
