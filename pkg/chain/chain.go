// SPDX-License-Identifier: MPL-2.0

package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// Done means the step produced its value and the chain stops.
	Done Verdict = iota + 1
	// Next means the step could not produce a value and the next step runs.
	Next
)

// ErrExhausted is returned by Run when every step answered Next.
var ErrExhausted = errors.New("all tiers exhausted")

type (
	// Verdict tags an Attempt.
	Verdict int

	// Attempt is the tagged result of one step.
	Attempt[T any] struct {
		Verdict Verdict
		Value   T
		// Reason explains a Next verdict. It is informational only.
		Reason error
	}

	// Step is one tier of a chain.
	Step[T any] struct {
		Name string
		Try  func(ctx context.Context) Attempt[T]
	}

	// TraceEntry records the outcome of one executed step.
	TraceEntry struct {
		Step   string
		Done   bool
		Reason error
	}

	// Trace lists the executed steps in order.
	Trace []TraceEntry

	// Observer is notified after each step finishes. It may be nil.
	Observer func(entry TraceEntry)

	// ExhaustedError is returned when no step answered Done. It wraps
	// ErrExhausted and keeps the trace so callers can report every reason.
	ExhaustedError struct {
		Trace Trace
	}
)

// Succeed builds a Done attempt.
func Succeed[T any](v T) Attempt[T] {
	return Attempt[T]{Verdict: Done, Value: v}
}

// Skip builds a Next attempt with a reason.
func Skip[T any](reason error) Attempt[T] {
	return Attempt[T]{Verdict: Next, Reason: reason}
}

// Skipf builds a Next attempt with a formatted reason.
func Skipf[T any](format string, args ...any) Attempt[T] {
	return Skip[T](fmt.Errorf(format, args...))
}

// Run executes steps in order until one answers Done. It returns the value,
// the name of the step that produced it, and the trace of every executed
// step. Run does not stop on context cancellation; steps that block are
// expected to honor ctx themselves.
func Run[T any](ctx context.Context, steps []Step[T], observe Observer) (value T, winner string, trace Trace, err error) {
	for _, step := range steps {
		attempt := step.Try(ctx)
		entry := TraceEntry{Step: step.Name, Done: attempt.Verdict == Done, Reason: attempt.Reason}
		if attempt.Verdict != Done && attempt.Verdict != Next {
			entry.Reason = fmt.Errorf("step %s returned no verdict", step.Name)
		}
		trace = append(trace, entry)
		if observe != nil {
			observe(entry)
		}
		if entry.Done {
			return attempt.Value, step.Name, trace, nil
		}
	}

	var zero T
	return zero, "", trace, &ExhaustedError{Trace: trace}
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Trace))
	for _, entry := range e.Trace {
		reason := "no reason given"
		if entry.Reason != nil {
			reason = entry.Reason.Error()
		}
		parts = append(parts, entry.Step+": "+reason)
	}
	return ErrExhausted.Error() + " (" + strings.Join(parts, "; ") + ")"
}

// Unwrap returns ErrExhausted plus every step reason, so errors.Is can match
// both the sentinel and any underlying cause.
func (e *ExhaustedError) Unwrap() []error {
	errs := []error{ErrExhausted}
	for _, entry := range e.Trace {
		if entry.Reason != nil {
			errs = append(errs, entry.Reason)
		}
	}
	return errs
}
