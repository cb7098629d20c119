// Package monitor drives the poll loop: one status poll per tick, ingestion,
// aggregation and snapshot publishing.
package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/PalMeany/l7-dstat/internal/ingest"
	"github.com/PalMeany/l7-dstat/internal/latency"
	"github.com/PalMeany/l7-dstat/internal/rps"
	"github.com/PalMeany/l7-dstat/model"
)

const (
	TickInterval  = 1 * time.Second // Delay between the end of one poll and the start of the next.
	PruneInterval = 5 * time.Second // Period of the stats window maintenance.
)

//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks github.com/PalMeany/l7-dstat/internal/monitor Fetcher

// Fetcher performs one status poll.
type Fetcher interface {
	Fetch(ctx context.Context) (ingest.Response, error)
}

// Publisher receives every snapshot the monitor produces.
type Publisher interface {
	Publish(snap model.Snapshot)
}

// Observer receives per-poll telemetry.
type Observer interface {
	ObserveSample(outcome string)
	ObserveFetch(d time.Duration)
}

// Monitor owns the aggregator. All state is touched only from the Run goroutine.
type Monitor struct {
	fetcher    Fetcher
	publishers []Publisher
	observer   Observer
	logger     *zap.SugaredLogger
	nowFn      func() time.Time

	tickInterval  time.Duration
	pruneInterval time.Duration

	agg     *rps.Aggregator
	latency *latency.Tracker
	status  model.ConnectionStatus
}

// Option configures a Monitor.
type Option func(*Monitor)

func WithPublishers(p ...Publisher) Option {
	return func(m *Monitor) { m.publishers = append(m.publishers, p...) }
}

func WithObserver(o Observer) Option {
	return func(m *Monitor) { m.observer = o }
}

func WithAggregator(a *rps.Aggregator) Option {
	return func(m *Monitor) { m.agg = a }
}

func WithIntervals(tick, prune time.Duration) Option {
	return func(m *Monitor) {
		if tick > 0 {
			m.tickInterval = tick
		}
		if prune > 0 {
			m.pruneInterval = prune
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.nowFn = now }
}

func New(fetcher Fetcher, logger *zap.SugaredLogger, opts ...Option) *Monitor {
	m := &Monitor{
		fetcher:       fetcher,
		logger:        logger,
		nowFn:         time.Now,
		tickInterval:  TickInterval,
		pruneInterval: PruneInterval,
		latency:       latency.NewTracker(),
		status:        model.Online,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.agg == nil {
		m.agg = rps.New()
	}
	if m.logger == nil {
		m.logger = zap.NewNop().Sugar()
	}
	return m
}

type pollResult struct {
	resp    ingest.Response
	err     error
	elapsed time.Duration
}

// Run polls until ctx is canceled. The next poll is scheduled only after the
// previous one completed, so at most one poll is in flight. Window pruning runs
// on its own ticker, also while a poll is pending. On cancellation Run waits for
// the pending poll, which is canceled through ctx, before returning.
func (m *Monitor) Run(ctx context.Context) error {
	next := time.NewTimer(0)
	defer next.Stop()
	prune := time.NewTicker(m.pruneInterval)
	defer prune.Stop()

	var results chan pollResult

	for {
		select {
		case <-ctx.Done():
			if results != nil {
				<-results
			}
			return ctx.Err()

		case <-next.C:
			results = make(chan pollResult, 1)
			go m.poll(ctx, results)

		case res := <-results:
			results = nil
			m.tick(res)
			next.Reset(m.tickInterval)

		case <-prune.C:
			now := m.nowFn()
			if n := m.agg.Prune(now); n > 0 {
				m.logger.Debugw("stats window pruned", "removed", n)
			}
			m.publish(now)
		}
	}
}

func (m *Monitor) poll(ctx context.Context, out chan<- pollResult) {
	start := time.Now()
	resp, err := m.fetcher.Fetch(ctx)
	out <- pollResult{resp: resp, err: err, elapsed: time.Since(start)}
}

func (m *Monitor) tick(res pollResult) {
	now := m.nowFn()

	m.latency.Record(res.elapsed)
	if m.observer != nil {
		m.observer.ObserveFetch(res.elapsed)
	}

	in := ingest.Ingest(res.resp, res.err)
	m.setStatus(in)

	out := m.agg.Observe(in.Sample, now)
	if m.observer != nil {
		m.observer.ObserveSample(out.Outcome.String())
	}
	m.logger.Debugw("tick",
		"outcome", out.Outcome.String(),
		"rps", out.RPS,
		"state", m.agg.State().String(),
		"elapsed", res.elapsed,
	)
	if in.Sample.Err != nil && in.Status == model.Online {
		m.logger.Warnw("bad status payload", "error", in.Sample.Err)
	}

	m.publish(now)
}

// setStatus logs on transitions only.
func (m *Monitor) setStatus(in ingest.Result) {
	if in.Status == m.status {
		return
	}
	if in.Status == model.Offline {
		m.logger.Warnw("status endpoint offline", "error", in.Sample.Err)
	} else {
		m.logger.Infow("status endpoint back online")
	}
	m.status = in.Status
}

func (m *Monitor) publish(now time.Time) {
	snap := m.agg.Snapshot(m.status, now)
	snap.Latency = m.latency.Summary()
	for _, p := range m.publishers {
		p.Publish(snap)
	}
}
