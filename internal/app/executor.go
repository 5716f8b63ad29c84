package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quotes-api/internal/domain"
	"github.com/jsamuelsen/quotes-api/internal/platform/logging"
)

// Mutations run as a five step pipeline:
//
//  1. VALIDATE  inputs and caller identity, before touching the store
//  2. PERFORM   load the current state (fetch the quote)
//  3. VERIFY    apply the ownership policy and compute the new state
//  4. ARCHIVE   persist the new state (replace or remove)
//  5. RESPOND   shape the result for the caller
//
// Nothing is written unless every earlier step succeeded.

// ExecutionStep names a pipeline step.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError records the step an operation failed in.
// The cause stays reachable through errors.Is/As.
type ExecutionError struct {
	Step      ExecutionStep
	Operation string
	Cause     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s step: %v", e.Operation, e.Step, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Executor runs operations through the pipeline and logs each step.
type Executor struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewExecutor creates an executor. A nil logger falls back to slog.Default.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger, now: time.Now}
}

// Operation holds the step functions. Nil steps are skipped.
type Operation[I, P, V, O any] struct {
	Name     string
	Validate func(ctx context.Context, input I) error
	Perform  func(ctx context.Context, input I) (P, error)
	Verify   func(ctx context.Context, input I, performed P) (V, error)
	Archive  func(ctx context.Context, input I, verified V) error
	Respond  func(ctx context.Context, input I, verified V) (O, error)
}

// Execute runs op against input. The first failing step aborts the run.
func Execute[I, P, V, O any](ctx context.Context, exec *Executor, op Operation[I, P, V, O], input I) (O, error) {
	var (
		zero      O
		performed P
		verified  V
	)

	logger := exec.logger
	if ctxLogger, ok := logging.Lookup(ctx); ok {
		logger = ctxLogger
	}

	logger = logger.With(slog.String("operation", op.Name))
	start := exec.now()

	fail := func(step ExecutionStep, err error) (O, error) {
		logger.Log(ctx, stepFailureLevel(err), "operation step failed",
			slog.String("step", string(step)),
			slog.Any("error", err),
		)

		return zero, &ExecutionError{Step: step, Operation: op.Name, Cause: err}
	}

	if op.Validate != nil {
		if err := op.Validate(ctx, input); err != nil {
			return fail(StepValidate, err)
		}
	}

	if op.Perform != nil {
		p, err := op.Perform(ctx, input)
		if err != nil {
			return fail(StepPerform, err)
		}

		performed = p
	}

	if op.Verify != nil {
		v, err := op.Verify(ctx, input, performed)
		if err != nil {
			return fail(StepVerify, err)
		}

		verified = v
	}

	if op.Archive != nil {
		if err := op.Archive(ctx, input, verified); err != nil {
			return fail(StepArchive, err)
		}
	}

	result := zero

	if op.Respond != nil {
		r, err := op.Respond(ctx, input, verified)
		if err != nil {
			return fail(StepRespond, err)
		}

		result = r
	}

	logger.InfoContext(ctx, "operation completed",
		slog.Duration("duration", exec.now().Sub(start)),
	)

	return result, nil
}

// stepFailureLevel logs caller faults at WARN and everything else at ERROR.
func stepFailureLevel(err error) slog.Level {
	switch {
	case domain.IsNotFound(err), domain.IsForbidden(err), domain.IsValidation(err), domain.IsUnauthenticated(err):
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// GetExecutionStep extracts the failed step from err.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
