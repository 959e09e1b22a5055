package batch

import "context"

// retry invokes fn up to attempts times, re-running it from scratch whenever
// it fails with an error the predicate classifies as retryable. It returns
// the number of attempts actually made and the final error, nil on success.
// Non-retryable errors stop immediately; there is no backoff between
// attempts.
func retry(ctx context.Context, attempts int, retryable func(error) bool, fn func(context.Context) error) (int, error) {
	var lastErr error
	for made := 1; made <= attempts; made++ {
		if err := ctx.Err(); err != nil {
			return made - 1, err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return made, nil
		}
		if !retryable(lastErr) {
			return made, lastErr
		}
	}
	return attempts, lastErr
}
