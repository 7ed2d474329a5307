package pipeline

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pageza/recipeforge/backend/internal/logger"
)

// DefaultAttempts is the attempt budget used when callers pass zero.
const DefaultAttempts = 3

// AttemptFunc performs one full attempt: call the model, then run the stages.
// attempt is 1-based.
type AttemptFunc func(ctx context.Context, attempt int) (*Document, error)

var tracer = otel.Tracer("github.com/pageza/recipeforge/backend/internal/pipeline")

// Retry calls fn until it succeeds or the attempt budget is spent. There is no
// backoff and nothing carries over between attempts. After the last failure
// its error is returned as is, with Attempt set when it is an *Error.
func Retry(ctx context.Context, attempts int, log *logger.Logger, fn AttemptFunc) (*Document, error) {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, err
		}

		attemptCtx, span := tracer.Start(ctx, "pipeline.attempt")
		span.SetAttributes(attribute.Int("pipeline.attempt", attempt), attribute.Int("pipeline.max_attempts", attempts))

		doc, err := fn(attemptCtx, attempt)
		if err == nil {
			span.End()
			if attempt > 1 {
				log.Info("pipeline succeeded after retry", "attempt", attempt)
			}
			return doc, nil
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()

		if perr, ok := AsError(err); ok {
			perr.Attempt = attempt
			log.Warn("pipeline attempt failed", "attempt", attempt, "max_attempts", attempts, "kind", perr.KindName(), "path", perr.Path, "error", err)
		} else {
			log.Warn("pipeline attempt failed", "attempt", attempt, "max_attempts", attempts, "error", err)
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}
	return nil, lastErr
}
