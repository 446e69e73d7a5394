/*
Package waiter polls an operation until its result converges: a list
of acceptors inspects each outcome and decides between returning
successfully, failing, or polling again after a capped exponential
delay.
*/
package waiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/zalando/awskit/protocol"
)

// ErrWaiterTimeout is returned when the waiter exceeds its maximum
// total wait.
var ErrWaiterTimeout = errors.New("waiter timed out")

// State is an acceptor's verdict.
type State int

const (
	// Retry keeps polling.
	Retry State = iota
	// Success ends the wait successfully.
	Success
	// Failure ends the wait with an error.
	Failure
)

// Matcher inspects one poll outcome.
type Matcher interface {
	Match(output any, err error) bool
}

// Acceptor pairs a matcher with the state it yields on a match.
type Acceptor struct {
	State   State
	Matcher Matcher
}

type matcherFunc func(output any, err error) bool

func (f matcherFunc) Match(output any, err error) bool { return f(output, err) }

// Path matches when the field selected by get equals expected.
func Path(get func(output any) (any, bool), expected any) Matcher {
	return matcherFunc(func(output any, err error) bool {
		if err != nil || output == nil {
			return false
		}
		v, ok := get(output)
		return ok && v == expected
	})
}

// AnyPath matches when any element selected by get equals expected.
func AnyPath(get func(output any) []any, expected any) Matcher {
	return matcherFunc(func(output any, err error) bool {
		if err != nil || output == nil {
			return false
		}
		for _, v := range get(output) {
			if v == expected {
				return true
			}
		}
		return false
	})
}

// AllPath matches when every element selected by get equals expected
// and there is at least one.
func AllPath(get func(output any) []any, expected any) Matcher {
	return matcherFunc(func(output any, err error) bool {
		if err != nil || output == nil {
			return false
		}
		elements := get(output)
		for _, v := range elements {
			if v != expected {
				return false
			}
		}
		return len(elements) > 0
	})
}

// ErrorCode matches a surfaced service error by its AWS error code.
func ErrorCode(code string) Matcher {
	return matcherFunc(func(_ any, err error) bool {
		return err != nil && protocol.ErrorCode(err) == code
	})
}

// ErrorStatus matches a surfaced service error by its HTTP status.
func ErrorStatus(status int) Matcher {
	return matcherFunc(func(_ any, err error) bool {
		var sc protocol.StatusCoder
		return errors.As(err, &sc) && sc.HTTPStatusCode() == status
	})
}

// Config drives one wait.
type Config struct {
	// Acceptors are evaluated in order against each poll outcome.
	Acceptors []Acceptor

	// MinDelay is the first poll interval, MaxDelay caps the
	// exponential growth. Defaults: 2s and 120s.
	MinDelay time.Duration
	MaxDelay time.Duration

	// MaxWait bounds the total wait. Default: 300s.
	MaxWait time.Duration

	// Command runs one poll.
	Command func(ctx context.Context) (any, error)
}

// Wait polls cfg.Command until an acceptor ends the wait, the total
// wait exceeds cfg.MaxWait, or ctx is done. An outcome error no
// acceptor claimed propagates immediately.
func Wait(ctx context.Context, cfg Config) error {
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = 2 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 120 * time.Second
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 300 * time.Second
	}

	delay := &backoff.ExponentialBackOff{
		InitialInterval:     cfg.MinDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         cfg.MaxDelay,
	}
	delay.Reset()

	deadline := time.Now().Add(cfg.MaxWait)
	for {
		output, err := cfg.Command(ctx)

		matched := false
		for _, a := range cfg.Acceptors {
			if !a.Matcher.Match(output, err) {
				continue
			}
			switch a.State {
			case Success:
				return nil
			case Failure:
				if err != nil {
					return fmt.Errorf("waiter reached failure state: %w", err)
				}
				return errors.New("waiter reached failure state")
			case Retry:
				matched = true
			}
			break
		}
		if !matched && err != nil {
			return err
		}

		next := delay.NextBackOff()
		if time.Now().Add(next).After(deadline) {
			return ErrWaiterTimeout
		}
		timer := time.NewTimer(next)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
