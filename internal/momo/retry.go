// momo-gateway/internal/momo/retry.go
package momo

import (
	"time"

	apperr "github.com/example/momo-gateway/pkg/errors"
)

type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Backoff returns the wait before retry number attempt (1-based): base*2^(attempt-1), capped at MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := p.BaseDelay * time.Duration(1<<(attempt-1))
	if p.MaxDelay > 0 {
		d = min(d, p.MaxDelay)
	}
	return d
}

// retryable: transport errors and gateway 5xx. Anything the gateway answered in JSON is final.
func retryable(err error) bool {
	switch apperr.CodeOf(err) {
	case apperr.CodeTransport, apperr.CodeStatus:
		return true
	}
	return false
}
