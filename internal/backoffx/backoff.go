// Package backoffx computes retry delays for queue entries and media uploads.
// The attempt counter lives in the database, so delays are derived from it
// rather than from a long-lived retry loop.
package backoffx

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy is an exponential backoff capped at Max.
type Policy struct {
	Base time.Duration
	Max  time.Duration
}

// Default is used when a zero Policy is supplied.
var Default = Policy{Base: 2 * time.Second, Max: 5 * time.Minute}

func (p Policy) normalized() Policy {
	if p.Base <= 0 {
		p.Base = Default.Base
	}
	if p.Max <= 0 {
		p.Max = Default.Max
	}
	if p.Max < p.Base {
		p.Max = p.Base
	}
	return p
}

// Backoff returns a fresh go-retry Backoff for the policy.
func (p Policy) Backoff() retry.Backoff {
	p = p.normalized()
	return retry.WithCappedDuration(p.Max, retry.NewExponential(p.Base))
}

// Delay is the wait after the given number of failed attempts (1-based).
// Attempts <= 0 yield no delay.
func (p Policy) Delay(attempts int) time.Duration {
	if attempts <= 0 {
		return 0
	}
	b := p.Backoff()
	var d time.Duration
	for i := 0; i < attempts; i++ {
		next, stop := b.Next()
		if stop {
			break
		}
		d = next
		if d >= p.normalized().Max {
			break
		}
	}
	return d
}

// NextAttempt returns now plus Delay(attempts).
func (p Policy) NextAttempt(now time.Time, attempts int) time.Time {
	return now.Add(p.Delay(attempts))
}
