// Package advisor answers free-text career questions with an ordered table of
// keyword rules, falling back to a random canned reply.
package advisor

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// Advisor dispatches messages over its rule table.
type Advisor struct {
	rules     []Rule
	fallbacks []string
	minDelay  time.Duration
	maxDelay  time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithSource makes fallback picks and delays deterministic.
func WithSource(src rand.Source) Option {
	return func(a *Advisor) { a.rng = rand.New(src) }
}

// WithDelay sets the thinking delay range [min, max).
func WithDelay(lo, hi time.Duration) Option {
	return func(a *Advisor) {
		a.minDelay = lo
		a.maxDelay = hi
	}
}

// WithRules replaces the rule table.
func WithRules(rules []Rule) Option {
	return func(a *Advisor) { a.rules = rules }
}

// New returns an Advisor with the default rules and a 1-2s delay.
func New(opts ...Option) *Advisor {
	a := &Advisor{
		rules:     DefaultRules,
		fallbacks: DefaultResponses,
		minDelay:  time.Second,
		maxDelay:  2 * time.Second,
		rng:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Respond returns the reply to message without waiting.
func (a *Advisor) Respond(message string, c Context) string {
	lowered := strings.ToLower(message)
	for _, r := range a.rules {
		if r.Matches(lowered) {
			return r.Respond(c)
		}
	}
	a.mu.Lock()
	i := a.rng.IntN(len(a.fallbacks))
	a.mu.Unlock()
	return a.fallbacks[i]
}

// Delay draws the next thinking delay.
func (a *Advisor) Delay() time.Duration {
	if a.maxDelay <= a.minDelay {
		return a.minDelay
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.minDelay + time.Duration(a.rng.Int64N(int64(a.maxDelay-a.minDelay)))
}

// Reply waits the thinking delay, then responds. It returns ctx.Err() if ctx
// ends first.
func (a *Advisor) Reply(ctx context.Context, message string, c Context) (string, error) {
	if d := a.Delay(); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return "", err
	}
	return a.Respond(message, c), nil
}
