package services

import "context"

// fallbackStep is one attempt in an ordered resolution chain. onFailure
// runs after a failed attempt, typically rotating a mirror pool so the
// next caller starts somewhere healthier. Keeping the chain as data
// makes the attempt order and its rotation side effects testable on
// their own.
type fallbackStep struct {
	name      string
	run       func(ctx context.Context) (string, error)
	onFailure func()
}

// runFallbackChain evaluates steps in order and returns the first
// successful URL along with the name of the step that produced it.
// The last error seen is returned when every step fails.
func runFallbackChain(ctx context.Context, steps []fallbackStep) (url, step string, err error) {
	for _, s := range steps {
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
		u, runErr := s.run(ctx)
		if runErr == nil && u != "" {
			return u, s.name, nil
		}
		if runErr != nil {
			err = runErr
		}
		if s.onFailure != nil {
			s.onFailure()
		}
	}
	return "", "", err
}
