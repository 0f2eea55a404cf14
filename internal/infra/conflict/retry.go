// Package conflict retries optimistic read-modify-write cycles that lost a race.
package conflict

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"team-quiz-service/internal/domain"
)

// DefaultMaxRetries bounds how often a conflicting write is repeated.
const DefaultMaxRetries = 3

// Retry runs op until it succeeds, fails with something other than
// domain.ErrConcurrentUpdate, or maxRetries retries have been spent.
// The last conflict is returned when the budget runs out.
func Retry(ctx context.Context, maxRetries int, op func() error) error {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 5 * time.Millisecond
	policy.MaxInterval = 50 * time.Millisecond
	policy.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(maxRetries)), ctx)

	return backoff.RetryNotify(func() error {
		err := op()
		if err == nil || errors.Is(err, domain.ErrConcurrentUpdate) {
			return err
		}
		return backoff.Permanent(err)
	}, b, func(err error, next time.Duration) {
		log.Warn().Err(err).Dur("backoff", next).Msg("write conflict, retrying")
	})
}
