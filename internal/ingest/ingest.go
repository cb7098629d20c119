// Package ingest turns raw status poll responses into validated counter samples.
package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PalMeany/l7-dstat/internal/errs"
	"github.com/PalMeany/l7-dstat/model"
)

const (
	MinFields    = 10 // Minimum whitespace-separated fields in a stub_status payload.
	CounterField = 9  // Zero-based index of the cumulative "requests" counter.
)

// Response is one payload received from the status endpoint.
// Exactly one of Text or Failure carries data.
type Response struct {
	Text    string
	Failure *model.StatusFailure
}

// Sample is the outcome of one poll: Ok(Counter) when Err is nil, Fail(Err) otherwise.
type Sample struct {
	Counter int64
	Err     error
}

// OK reports whether the sample carries a valid counter.
func (s Sample) OK() bool { return s.Err == nil }

// Ok builds a successful sample.
func Ok(counter int64) Sample { return Sample{Counter: counter} }

// Fail builds a failed sample.
func Fail(err error) Sample { return Sample{Err: err} }

// Result pairs a sample with the connection health it implies.
type Result struct {
	Sample Sample
	Status model.ConnectionStatus
}

// ParseCounter extracts the cumulative requests counter from stub_status text.
func ParseCounter(text string) (int64, error) {
	fields := strings.Fields(text)
	if len(fields) < MinFields {
		return 0, fmt.Errorf("%w: got %d fields, want at least %d", errs.ErrMalformedStatus, len(fields), MinFields)
	}

	v, err := strconv.ParseInt(fields[CounterField], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errs.ErrInvalidCounter, fields[CounterField])
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative value %d", errs.ErrInvalidCounter, v)
	}
	return v, nil
}

// Ingest classifies one poll attempt. pollErr is a transport failure and takes precedence.
// A malformed payload fails the sample but keeps the status online: status tracks
// transport health only.
func Ingest(resp Response, pollErr error) Result {
	if pollErr != nil {
		return Result{
			Sample: Fail(fmt.Errorf("%w: %w", errs.ErrTransport, pollErr)),
			Status: model.Offline,
		}
	}

	if resp.Failure != nil {
		status := resp.Failure.ConnectionStatus
		if status == "" {
			status = model.Offline
		}
		return Result{
			Sample: Fail(fmt.Errorf("%w: %s", errs.ErrOffline, resp.Failure.Error)),
			Status: status,
		}
	}

	counter, err := ParseCounter(resp.Text)
	if err != nil {
		return Result{Sample: Fail(err), Status: model.Online}
	}
	return Result{Sample: Ok(counter), Status: model.Online}
}
