package sprint

// #region imports
import (
	"context"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// #endregion

// #region runner

// Runner drives a fixed number of sprints back to back. A stop
// request is honored at sprint boundaries only; the in-flight sprint
// always runs to DONE or FAILED.
type Runner struct {
	Machine       *Machine
	NumSprints    int
	StopOnFailure bool

	stop   atomic.Bool
	status atomic.Pointer[Status]
}

// NewRunner wires the machine's status publisher to the runner's
// side channel.
func NewRunner(m *Machine, numSprints int, stopOnFailure bool) *Runner {
	r := &Runner{Machine: m, NumSprints: numSprints, StopOnFailure: stopOnFailure}
	m.SetPublisher(func(s Status) {
		if prev := r.status.Load(); prev != nil {
			s.CompletedSprints = prev.CompletedSprints
		}
		r.status.Store(&s)
	})
	return r
}

// Stop requests a graceful halt after the current sprint.
func (r *Runner) Stop() {
	r.stop.Store(true)
}

// Status returns the latest published snapshot, or false before the
// first phase transition.
func (r *Runner) Status() (Status, bool) {
	s := r.status.Load()
	if s == nil {
		return Status{}, false
	}
	return *s, true
}

// #endregion

// #region run

// Run executes the configured sprint sequence and returns every
// sprint's result, completed or failed.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	var results []Result
	for n := 1; n <= r.NumSprints; n++ {
		if r.stop.Load() {
			log.Printf("[SPRINT] stop requested, halting before sprint %d", n)
			break
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res := r.Machine.Run(ctx, n)
		results = append(results, res)
		r.markCompleted(len(results))

		if !res.Success {
			log.Printf("[SPRINT] sprint %d failed: %v", n, res.Errors)
			if r.StopOnFailure {
				return results, fmt.Errorf("sprint %d failed", n)
			}
			continue
		}
		log.Printf("[SPRINT] sprint %d done: focus=%s reward=%.2f", n, res.Focus, res.Reward)
	}
	return results, nil
}

func (r *Runner) markCompleted(n int) {
	s := Status{CompletedSprints: n, UpdatedAt: time.Now()}
	if prev := r.status.Load(); prev != nil {
		s = *prev
		s.CompletedSprints = n
		s.UpdatedAt = time.Now()
	}
	r.status.Store(&s)
}

// #endregion

// #region reporter

// RunWithReporter runs the sprint sequence while a companion goroutine
// prints status snapshots to w at the given interval. The reporter
// stops when the run finishes.
func (r *Runner) RunWithReporter(ctx context.Context, interval time.Duration, w io.Writer) ([]Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	var results []Result
	g.Go(func() error {
		defer close(done)
		var err error
		results, err = r.Run(ctx)
		return err
	})
	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if s, ok := r.Status(); ok {
					fmt.Fprintf(w, "sprint=%d phase=%s focus=%s completed=%d reward=%.2f\n",
						s.SprintNumber, s.Phase, s.Focus, s.CompletedSprints, s.LastReward)
				}
			}
		}
	})

	err := g.Wait()
	return results, err
}

// #endregion
