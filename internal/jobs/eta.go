package jobs

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// EstimateRemaining extrapolates the total duration from the share done so
// far. It reports false while no progress has been made.
func EstimateRemaining(elapsed time.Duration, progress int) (time.Duration, bool) {
	if progress <= 0 {
		return 0, false
	}
	estimatedTotal := elapsed.Seconds() / (float64(progress) / 100)
	remaining := math.Max(0, estimatedTotal-elapsed.Seconds())
	return time.Duration(remaining * float64(time.Second)), true
}

// FormatRemaining renders d as MM:SS, minutes are not capped at 59.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func (o *Orchestrator) startETASampler(id string) (stop func()) {
	ticker := time.NewTicker(o.etaInterval)
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				o.sampleETA(id)
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

func (o *Orchestrator) sampleETA(id string) {
	now := o.now()
	o.update(id, func(j *Job) {
		remaining, ok := EstimateRemaining(now.Sub(j.StartedAt), j.Progress)
		if !ok {
			return
		}
		seconds := remaining.Seconds()
		j.RemainingSeconds = &seconds
		j.Remaining = FormatRemaining(remaining)
	})
}
