// Package observability exports dashboard state as Prometheus metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/PalMeany/l7-dstat/model"
)

type PromObs struct {
	gauges  map[string]prometheus.Gauge
	samples *prometheus.CounterVec
	poll    prometheus.Histogram
}

func NewPromObs(reg prometheus.Registerer) *PromObs {
	current := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dstat_rps_current",
		Help: "Latest derived requests per second.",
	})
	average := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dstat_rps_average",
		Help: "Mean requests per second over the stats window.",
	})
	maxRps := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dstat_rps_max",
		Help: "Maximum requests per second over the stats window.",
	})
	online := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dstat_status_online",
		Help: "1 when the status endpoint is reachable, 0 otherwise.",
	})
	points := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dstat_display_points",
		Help: "Points currently held in the display buffer.",
	})
	samples := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dstat_samples_total",
		Help: "Status polls by aggregation outcome.",
	}, []string{"outcome"})
	poll := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dstat_poll_duration_seconds",
		Help:    "Round-trip time of status polls.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	reg.MustRegister(current, average, maxRps, online, points, samples, poll)

	return &PromObs{
		gauges: map[string]prometheus.Gauge{
			"dstat_rps_current":    current,
			"dstat_rps_average":    average,
			"dstat_rps_max":        maxRps,
			"dstat_status_online":  online,
			"dstat_display_points": points,
		},
		samples: samples,
		poll:    poll,
	}
}

// Publish mirrors a snapshot into the gauges.
func (p *PromObs) Publish(snap model.Snapshot) {
	p.gauges["dstat_rps_current"].Set(snap.Current)
	p.gauges["dstat_rps_average"].Set(snap.Average)
	p.gauges["dstat_rps_max"].Set(snap.Max)
	p.gauges["dstat_display_points"].Set(float64(len(snap.Points)))

	online := 0.0
	if snap.Status == model.Online {
		online = 1
	}
	p.gauges["dstat_status_online"].Set(online)
}

func (p *PromObs) ObserveSample(outcome string) {
	p.samples.WithLabelValues(outcome).Inc()
}

func (p *PromObs) ObserveFetch(d time.Duration) {
	p.poll.Observe(d.Seconds())
}
