package finder

import (
	"context"
	"time"

	"hometax_automation/domain/entities"
)

// DefaultPollInterval is used when a finder is built without an interval
const DefaultPollInterval = 250 * time.Millisecond

// pollResult is the outcome of a bounded poll.
// lastErr holds the most recent non-fatal probe error, for logging only.
type pollResult struct {
	found   bool
	probes  int
	lastErr error
}

// pollUntil calls probe at a fixed interval until it reports true or the wait
// elapses. Non-fatal probe errors count as a miss; fatal ones end the poll.
// The probe always runs at least once.
func pollUntil(ctx context.Context, wait, interval time.Duration, probe func() (bool, error)) (pollResult, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.Now().Add(wait)

	var res pollResult
	for {
		res.probes++
		found, err := probe()
		if err != nil {
			if entities.IsFatal(ctx, err) {
				return res, err
			}
			res.lastErr = err
		} else if found {
			res.found = true
			return res, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return res, nil
		}
		sleep := interval
		if remaining < sleep {
			sleep = remaining
		}

		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-time.After(sleep):
		}
	}
}
