package pacing

import (
	"context"
	"time"
)

const (
	// SlidePause separates consecutive explanation requests.
	SlidePause = 20 * time.Second
	// BatchPause follows every batchSize-th request.
	BatchPause = 60 * time.Second

	batchSize = 3
)

// PauseAfter returns how long to pause after submitting slide index of total
// (1-based). There is no pause after the final slide.
func PauseAfter(index int, total int) time.Duration {
	if index >= total {
		return 0
	}
	if index%batchSize == 0 {
		return BatchPause
	}
	return SlidePause
}

// Sleep waits for d unless ctx is done first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
