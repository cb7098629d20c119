// Package rps derives requests-per-second from a cumulative counter and keeps
// the rolling histories the dashboard is drawn from.
package rps

import (
	"math"
	"time"

	"github.com/PalMeany/l7-dstat/internal/ingest"
	"github.com/PalMeany/l7-dstat/model"
	"github.com/shopspring/decimal"
)

const (
	BufferSize     = 60               // Points kept in the display buffer.
	Window         = 60 * time.Second // Age limit of the statistics window.
	MaxDelta       = 990_000_000      // Counter jumps at or above this are treated as glitches.
	IntensityScale = 100              // RPS at which the intensity saturates.
)

// State is the counter tracking state.
type State int

const (
	Bootstrapping State = iota // No previous counter to diff against.
	Tracking                   // A previous counter is held.
)

func (s State) String() string {
	if s == Tracking {
		return "tracking"
	}
	return "bootstrapping"
}

// Outcome classifies what a single Observe call did.
type Outcome int

const (
	Bootstrapped Outcome = iota // First good counter stored, no point emitted.
	Emitted                     // A positive rate point was appended.
	Rejected                    // Counter was zero, went backwards or jumped too far; zero point appended.
	Failed                      // Sample failed; zero point appended.
)

func (o Outcome) String() string {
	switch o {
	case Bootstrapped:
		return "bootstrapped"
	case Emitted:
		return "emitted"
	case Rejected:
		return "rejected"
	default:
		return "failed"
	}
}

// Result is the outcome of one tick.
type Result struct {
	Outcome Outcome
	RPS     float64 // Rate shown for this tick.
}

// HasPoint reports whether the tick appended a point to the histories.
func (r Result) HasPoint() bool { return r.Outcome != Bootstrapped }

// Aggregator owns the counter state and both histories.
// It is not safe for concurrent use.
type Aggregator struct {
	bufferSize int
	window     time.Duration

	previous *int64
	current  float64
	buffer   []model.RpsPoint
	stats    []model.RpsPoint
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithBufferSize overrides the display buffer length.
func WithBufferSize(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.bufferSize = n
		}
	}
}

// WithWindow overrides the statistics window length.
func WithWindow(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.window = d
		}
	}
}

// New creates an Aggregator in the Bootstrapping state.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		bufferSize: BufferSize,
		window:     Window,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.buffer = make([]model.RpsPoint, 0, a.bufferSize)
	return a
}

// Observe feeds one sample taken at now.
func (a *Aggregator) Observe(s ingest.Sample, now time.Time) Result {
	curr := s.Counter

	if s.OK() && curr > 0 {
		if a.previous == nil {
			a.previous = &curr
			return Result{Outcome: Bootstrapped, RPS: a.current}
		}
		if delta := curr - *a.previous; delta > 0 && delta < MaxDelta {
			a.previous = &curr
			a.append(float64(delta), now)
			return Result{Outcome: Emitted, RPS: a.current}
		}
	}

	// Any rejection re-bootstraps and appends a zero point.
	a.previous = nil
	a.append(0, now)
	if !s.OK() {
		return Result{Outcome: Failed}
	}
	return Result{Outcome: Rejected}
}

func (a *Aggregator) append(v float64, now time.Time) {
	p := model.RpsPoint{Value: v, Timestamp: now}
	a.current = v

	a.buffer = append(a.buffer, p)
	if over := len(a.buffer) - a.bufferSize; over > 0 {
		n := copy(a.buffer, a.buffer[over:])
		a.buffer = a.buffer[:n]
	}

	a.stats = append(a.stats, p)
	a.Prune(now)
}

// Prune drops window points whose age at now is not below the window length.
// It returns the number of points removed.
func (a *Aggregator) Prune(now time.Time) int {
	keep := a.stats[:0]
	for _, p := range a.stats {
		if now.Sub(p.Timestamp) < a.window {
			keep = append(keep, p)
		}
	}
	removed := len(a.stats) - len(keep)
	clear(a.stats[len(keep):])
	a.stats = keep
	return removed
}

// Average is the mean of the window rounded half-up to one decimal, 0 when empty.
func (a *Aggregator) Average() float64 {
	if len(a.stats) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, p := range a.stats {
		sum = sum.Add(decimal.NewFromFloat(p.Value))
	}
	return sum.Div(decimal.NewFromInt(int64(len(a.stats)))).Round(1).InexactFloat64()
}

// Max is the largest value in the window, 0 when empty.
func (a *Aggregator) Max() float64 {
	if len(a.stats) == 0 {
		return 0
	}
	m := a.stats[0].Value
	for _, p := range a.stats[1:] {
		m = math.Max(m, p.Value)
	}
	return m
}

// Current is the last rate appended to the histories.
func (a *Aggregator) Current() float64 { return a.current }

// Intensity maps the current rate onto [0.5, 1].
func (a *Aggregator) Intensity() float64 {
	return 0.5 + math.Min(a.current/IntensityScale, 1)*0.5
}

// State reports whether a previous counter is held.
func (a *Aggregator) State() State {
	if a.previous == nil {
		return Bootstrapping
	}
	return Tracking
}

// Points returns a copy of the display buffer, oldest first.
func (a *Aggregator) Points() []model.RpsPoint {
	out := make([]model.RpsPoint, len(a.buffer))
	copy(out, a.buffer)
	return out
}

// WindowPoints returns a copy of the statistics window, oldest first.
func (a *Aggregator) WindowPoints() []model.RpsPoint {
	out := make([]model.RpsPoint, len(a.stats))
	copy(out, a.stats)
	return out
}

// Snapshot captures the aggregator state for publishing.
func (a *Aggregator) Snapshot(status model.ConnectionStatus, now time.Time) model.Snapshot {
	snap := model.Snapshot{
		Current:   a.current,
		Average:   a.Average(),
		Max:       a.Max(),
		Status:    status,
		State:     a.State().String(),
		Intensity: a.Intensity(),
		Points:    a.Points(),
		UpdatedAt: now,
	}
	if n := len(a.buffer); n > 0 {
		snap.LastPointAt = a.buffer[n-1].Timestamp
	}
	return snap
}
