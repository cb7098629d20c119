package latency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTracker_Empty(t *testing.T) {
	tr := NewTracker()

	s := tr.Summary()
	require.Zero(t, s.Count)
	require.Zero(t, s.P99)
}

func TestTracker_Quantiles(t *testing.T) {
	tr := NewTracker()
	for i := 1; i <= 100; i++ {
		tr.Record(time.Duration(i) * time.Millisecond)
	}

	s := tr.Summary()
	require.Equal(t, int64(100), s.Count)
	require.InDelta(t, float64(50*time.Millisecond), float64(s.P50), float64(time.Millisecond))
	require.InDelta(t, float64(99*time.Millisecond), float64(s.P99), float64(time.Millisecond))
	require.InDelta(t, float64(100*time.Millisecond), float64(s.Max), float64(time.Millisecond))
	require.LessOrEqual(t, s.P50, s.P90)
	require.LessOrEqual(t, s.P90, s.P99)
}

func TestTracker_ClampsAndResets(t *testing.T) {
	tr := NewTracker()
	tr.Record(0)
	tr.Record(10 * time.Minute)

	s := tr.Summary()
	require.Equal(t, int64(2), s.Count)
	require.LessOrEqual(t, s.Max, 61*time.Second)

	tr.Reset()
	require.Zero(t, tr.Summary().Count)
}
