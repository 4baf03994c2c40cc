package devices

import (
	"time"

	"github.com/emu-next/devio/utils"
)

// Retrier is the bounded-attempt engine. A failed attempt is followed
// (on the next iteration) by a backoff sleep and exactly one run of
// the remediation bound to the failure's category, then the operation
// is re-invoked. Terminal errors pass straight through; exhausting
// Tries yields an *OperatorError carrying the last concrete cause.
type Retrier struct {
	Tries      int
	Sleep      func(attempt int) time.Duration
	OnCategory map[Category]func() error
}

// Backoff returns a linear backoff sleep function.
func Backoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	}
}

// Do runs fn under the retry policy. name labels log lines only.
func (r *Retrier) Do(name string, fn func() error) error {
	tries := r.Tries
	if tries <= 0 {
		tries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= tries; attempt++ {
		if attempt > 1 {
			if r.Sleep != nil {
				time.Sleep(r.Sleep(attempt - 1))
			}
			category := Classify(lastErr)
			if remediate := r.OnCategory[category]; remediate != nil {
				utils.Verbose("%s: remediating %s before attempt %d", name, category, attempt)
				if err := remediate(); err != nil {
					utils.Verbose("%s: remediation for %s failed: %v", name, category, err)
				}
			}
		}

		err := fn()
		if err == nil {
			if attempt > 1 {
				utils.Info("%s recovered on attempt %d/%d", name, attempt, tries)
			}
			return nil
		}
		if Classify(err).Terminal() {
			return err
		}
		lastErr = err
		utils.Warn("%s attempt %d/%d failed: %v", name, attempt, tries, err)
	}

	return &OperatorError{Attempts: tries, Cause: lastErr}
}
