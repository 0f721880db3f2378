package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"therapypal-gateway/internal/logging"
)

const (
	logPreviewLen = 100
	logErrorLen   = 500
)

// RetryPolicy bounds the attempts for one chat call. The wait before retry n
// is n * Backoff, so the defaults wait 2s and then 4s.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 2 * time.Second}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return time.Duration(attempt) * p.Backoff
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
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

// AttemptRecorder receives per-attempt telemetry.
type AttemptRecorder interface {
	RecordAttempt(outcome string, elapsed time.Duration)
	RecordRetry()
}

type noopRecorder struct{}

func (noopRecorder) RecordAttempt(string, time.Duration) {}
func (noopRecorder) RecordRetry()                        {}

// ChatError is returned by Reply for every non-success result.
type ChatError struct {
	Outcome  Outcome
	Detail   string
	Attempts int
	Err      error
}

func (e *ChatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chat %s after %d attempt(s): %v", e.Outcome, e.Attempts, e.Err)
	}
	return fmt.Sprintf("chat %s after %d attempt(s): %s", e.Outcome, e.Attempts, e.Detail)
}

func (e *ChatError) Unwrap() error {
	return e.Err
}

// ChatService forwards validated messages to the provider with a bounded,
// blocking retry loop.
type ChatService struct {
	generator Generator
	policy    RetryPolicy
	logger    *slog.Logger
	recorder  AttemptRecorder
	sleep     Sleeper
}

type ChatOption func(*ChatService)

func WithSleeper(sleep Sleeper) ChatOption {
	return func(s *ChatService) { s.sleep = sleep }
}

func WithRecorder(recorder AttemptRecorder) ChatOption {
	return func(s *ChatService) { s.recorder = recorder }
}

func NewChatService(generator Generator, policy RetryPolicy, logger *slog.Logger, opts ...ChatOption) *ChatService {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	s := &ChatService{
		generator: generator,
		policy:    policy,
		logger:    logger,
		recorder:  noopRecorder{},
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reply returns the provider's text for message. Quota, auth, safety-block and
// empty results end the call at once; other errors are retried until the
// policy is exhausted.
func (s *ChatService) Reply(ctx context.Context, message string) (string, error) {
	logger := logging.FromContext(ctx, s.logger)
	maxAttempts := s.policy.MaxAttempts

	logger.Info("processing message", "preview", logging.Truncate(message, logPreviewLen))

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		log := logger.With("attempt", attempt, "max_attempts", maxAttempts)
		log.Debug("generating content")

		start := time.Now()
		gen, err := s.generator.Generate(ctx, message)
		verdict := Classify(gen, err)
		s.recorder.RecordAttempt(verdict.Outcome.String(), time.Since(start))

		switch verdict.Outcome {
		case OutcomeSuccess:
			log.Info("generated response", "length", len(gen.Text))
			return gen.Text, nil
		case OutcomeSafetyBlock:
			log.Warn("response blocked by safety filters", "feedback", logging.Truncate(verdict.Detail, logErrorLen))
			return "", &ChatError{Outcome: OutcomeSafetyBlock, Detail: verdict.Detail, Attempts: attempt, Err: err}
		case OutcomeEmptyGeneration:
			log.Warn("empty response received from provider", "finish_reason", finishReason(gen))
			return "", &ChatError{Outcome: OutcomeEmptyGeneration, Detail: verdict.Detail, Attempts: attempt}
		}

		lastErr = err
		log.Warn("attempt failed", "outcome", verdict.Outcome.String(), "error", logging.Truncate(verdict.Detail, logErrorLen))

		switch verdict.Outcome {
		case OutcomeQuota:
			log.Error("provider quota exceeded")
			return "", &ChatError{Outcome: OutcomeQuota, Detail: verdict.Detail, Attempts: attempt, Err: err}
		case OutcomeAuth:
			log.Error("provider authentication failed")
			return "", &ChatError{Outcome: OutcomeAuth, Detail: verdict.Detail, Attempts: attempt, Err: err}
		}

		if !verdict.Recognized {
			log.Warn("unclassified provider error", "error", logging.Truncate(verdict.Detail, logErrorLen))
		}

		if attempt == maxAttempts {
			break
		}

		wait := s.policy.Delay(attempt)
		log.Info("waiting before retry", "wait", wait.String())
		s.recorder.RecordRetry()
		if err := s.sleep(ctx, wait); err != nil {
			log.Warn("retry abandoned", "error", err.Error())
			return "", &ChatError{Outcome: OutcomeTransient, Detail: lastErr.Error(), Attempts: attempt, Err: errors.Join(lastErr, err)}
		}
	}

	logger.Error("all attempts failed", "attempts", maxAttempts, "error", logging.Truncate(lastErr.Error(), logErrorLen))
	return "", &ChatError{Outcome: OutcomeTransient, Detail: lastErr.Error(), Attempts: maxAttempts, Err: lastErr}
}

func finishReason(gen *Generation) string {
	if gen == nil {
		return ""
	}
	return gen.FinishReason
}
