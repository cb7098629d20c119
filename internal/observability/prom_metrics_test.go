package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/PalMeany/l7-dstat/model"
)

func TestPromObs_Publish(t *testing.T) {
	obs := NewPromObs(prometheus.NewRegistry())

	obs.Publish(model.Snapshot{
		Current: 30,
		Average: 12.5,
		Max:     40,
		Status:  model.Online,
		Points:  make([]model.RpsPoint, 7),
	})

	require.Equal(t, 30.0, testutil.ToFloat64(obs.gauges["dstat_rps_current"]))
	require.Equal(t, 12.5, testutil.ToFloat64(obs.gauges["dstat_rps_average"]))
	require.Equal(t, 40.0, testutil.ToFloat64(obs.gauges["dstat_rps_max"]))
	require.Equal(t, 1.0, testutil.ToFloat64(obs.gauges["dstat_status_online"]))
	require.Equal(t, 7.0, testutil.ToFloat64(obs.gauges["dstat_display_points"]))

	obs.Publish(model.Snapshot{Status: model.Offline})
	require.Equal(t, 0.0, testutil.ToFloat64(obs.gauges["dstat_status_online"]))
}

func TestPromObs_Samples(t *testing.T) {
	obs := NewPromObs(prometheus.NewRegistry())

	obs.ObserveSample("emitted")
	obs.ObserveSample("emitted")
	obs.ObserveSample("failed")

	require.Equal(t, 2.0, testutil.ToFloat64(obs.samples.WithLabelValues("emitted")))
	require.Equal(t, 1.0, testutil.ToFloat64(obs.samples.WithLabelValues("failed")))
}

func TestPromObs_Fetch(t *testing.T) {
	obs := NewPromObs(prometheus.NewRegistry())

	obs.ObserveFetch(20 * time.Millisecond)

	if samples := testutil.CollectAndCount(obs.poll); samples != 1 {
		t.Fatalf("expected poll histogram to record 1 sample, got %d", samples)
	}
}

func TestPromObs_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPromObs(reg)

	require.Panics(t, func() { NewPromObs(reg) })
}
