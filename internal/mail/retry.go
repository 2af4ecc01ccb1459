package mail

import (
	"context"
	"time"
)

// RetryPolicy bounds redelivery of transient failures.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// SendWithRetry sends msg, retrying transient failures with doubling backoff.
// onAttempt, if set, observes every attempt's error (nil on success).
func SendWithRetry(ctx context.Context, m Mailer, msg Message, policy RetryPolicy, onAttempt func(attempt int, err error)) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := policy.Backoff

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = m.Send(ctx, msg)
		if onAttempt != nil {
			onAttempt(attempt, err)
		}
		if err == nil || !IsTransient(err) || attempt == attempts {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return err
}
