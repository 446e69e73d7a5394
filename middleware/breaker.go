package middleware

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/sony/gobreaker"
)

// Breaker is a circuit-breaker middleware: once a service returns
// enough consecutive server errors, further requests fail fast without
// going on the wire until the breaker half-opens again.
type Breaker struct {
	cb *gobreaker.TwoStepCircuitBreaker

	mu      sync.Mutex
	pending map[uint64]func(bool)
}

// NewBreaker creates a Breaker named after the service. With a zero
// settings value the breaker opens after more than five consecutive
// failures.
func NewBreaker(name string, st gobreaker.Settings) *Breaker {
	if st.Name == "" {
		st.Name = name
	}
	return &Breaker{
		cb:      gobreaker.NewTwoStepCircuitBreaker(st),
		pending: make(map[uint64]func(bool)),
	}
}

func (b *Breaker) Request(_ *http.Request, ctx *Context) error {
	done, err := b.cb.Allow()
	if err != nil {
		return fmt.Errorf("circuit breaker %s: %w", ctx.Service, err)
	}
	b.mu.Lock()
	b.pending[ctx.RequestID] = done
	b.mu.Unlock()
	return nil
}

func (b *Breaker) Response(rsp *http.Response, ctx *Context) error {
	b.mu.Lock()
	done := b.pending[ctx.RequestID]
	delete(b.pending, ctx.RequestID)
	b.mu.Unlock()
	if done != nil {
		done(rsp != nil && rsp.StatusCode < http.StatusInternalServerError)
	}
	return nil
}
