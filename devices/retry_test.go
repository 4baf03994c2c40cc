package devices

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetrier_FirstTrySuccess(t *testing.T) {
	slept := 0
	r := &Retrier{
		Tries: 3,
		Sleep: func(int) time.Duration { slept++; return 0 },
	}

	calls := 0
	err := r.Do("op", func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
	if slept != 0 {
		t.Errorf("slept %d times on a clean first try", slept)
	}
}

func TestRetrier_RemediatesBetweenAttempts(t *testing.T) {
	remediations := 0
	r := &Retrier{
		Tries: 4,
		Sleep: func(int) time.Duration { return 0 },
		OnCategory: map[Category]func() error{
			CategoryTransportLost: func() error {
				remediations++
				return nil
			},
		},
	}

	calls := 0
	err := r.Do("op", func() error {
		calls++
		if calls < 4 {
			return fmt.Errorf("attempt %d: %w", calls, ErrTransportLost)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 4 {
		t.Errorf("fn called %d times, want 4", calls)
	}
	if remediations != 3 {
		t.Errorf("remediated %d times, want 3 (once before each re-attempt)", remediations)
	}
}

func TestRetrier_ExhaustionWrapsOperatorError(t *testing.T) {
	r := &Retrier{Tries: 3, Sleep: func(int) time.Duration { return 0 }}

	cause := fmt.Errorf("capture: %w", ErrTransportLost)
	err := r.Do("op", func() error { return cause })
	if err == nil {
		t.Fatal("expected an error after exhaustion")
	}

	var opErr *OperatorError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected *OperatorError, got %T: %v", err, err)
	}
	if opErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", opErr.Attempts)
	}
	if !errors.Is(err, ErrTransportLost) {
		t.Error("exhaustion error must keep the last cause in its chain")
	}
	if !Classify(err).Terminal() {
		t.Error("an exhausted operation must classify as terminal")
	}
}

func TestRetrier_TerminalPassesThrough(t *testing.T) {
	remediations := 0
	r := &Retrier{
		Tries: 5,
		Sleep: func(int) time.Duration { return 0 },
		OnCategory: map[Category]func() error{
			CategoryTransportLost: func() error { remediations++; return nil },
		},
	}

	calls := 0
	err := r.Do("op", func() error {
		calls++
		return ErrInputLoop
	})
	if !errors.Is(err, ErrInputLoop) {
		t.Fatalf("expected ErrInputLoop, got %v", err)
	}
	if calls != 1 {
		t.Errorf("terminal error was retried: %d calls", calls)
	}
	if remediations != 0 {
		t.Errorf("terminal error triggered %d remediations", remediations)
	}

	var opErr *OperatorError
	if errors.As(err, &opErr) {
		t.Error("terminal pass-through must not be wrapped in OperatorError")
	}
}

func TestRetrier_RemediationFailureDoesNotAbort(t *testing.T) {
	r := &Retrier{
		Tries: 2,
		Sleep: func(int) time.Duration { return 0 },
		OnCategory: map[Category]func() error{
			CategoryTransportLost: func() error { return errors.New("remediation broke too") },
		},
	}

	calls := 0
	err := r.Do("op", func() error {
		calls++
		if calls == 1 {
			return ErrTransportLost
		}
		return nil
	})
	if err != nil {
		t.Fatalf("second attempt should have succeeded: %v", err)
	}
	if calls != 2 {
		t.Errorf("fn called %d times, want 2", calls)
	}
}

func TestBackoff_Linear(t *testing.T) {
	sleep := Backoff(100 * time.Millisecond)
	for i, want := range []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond} {
		if got := sleep(i + 1); got != want {
			t.Errorf("sleep(%d) = %v, want %v", i+1, got, want)
		}
	}
}

func TestRetrier_ZeroTriesRunsOnce(t *testing.T) {
	r := &Retrier{}
	calls := 0
	err := r.Do("op", func() error { calls++; return errors.New("nope") })

	var opErr *OperatorError
	if !errors.As(err, &opErr) || opErr.Attempts != 1 {
		t.Fatalf("expected single-attempt OperatorError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}
