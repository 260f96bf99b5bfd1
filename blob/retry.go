package blob

import "context"

// Policy is a bounded retry policy: run the operation up to MaxAttempts
// times, retrying only when Retryable reports the error as recoverable.
type Policy struct {
	MaxAttempts int
	Retryable   func(error) bool
}

// Do runs fn under the policy and returns the last error unmodified.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
	}
	return err
}
