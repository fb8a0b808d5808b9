// Package ratelimit computes sliding-count limits over the audit rows
// the limited actions already write (login codes, contact submissions).
// There is no separate counter store; the persistent store is the
// single source of truth so limits hold across server instances.
package ratelimit

import (
	"context"
	"math"
	"time"
)

// CountFunc reports how many audited events exist for an identifier
// since the given instant. Implementations are the repository
// CountFor*Since methods.
type CountFunc func(ctx context.Context, identifier string, since time.Time) (int, error)

// Policy is one action's budget: at most MaxAttempts events per
// identifier inside a trailing Window.
type Policy struct {
	MaxAttempts int
	Window      time.Duration
}

// Per-action budgets. Verification budgets are looser than issuance
// because guessing a code takes many attempts, while issuing codes
// sends mail.
var (
	CodeRequestPerEmail = Policy{MaxAttempts: 5, Window: 15 * time.Minute}
	CodeRequestPerIP    = Policy{MaxAttempts: 20, Window: 60 * time.Minute}
	VerifyPerEmail      = Policy{MaxAttempts: 10, Window: 15 * time.Minute}
	VerifyPerIP         = Policy{MaxAttempts: 30, Window: 15 * time.Minute}
	ContactSubmission   = Policy{MaxAttempts: 3, Window: 60 * time.Minute}
)

// Result is the externally observable limiter decision.
//
// ResetAt is a fixed-horizon estimate (now + window), not the expiry of
// the oldest counted event. The approximation is documented behavior,
// kept as-is.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// WaitMinutes returns the whole minutes until ResetAt, rounded up and
// never below zero. Used for human-readable 429 messages.
func (r Result) WaitMinutes() int {
	m := int(math.Ceil(time.Until(r.ResetAt).Minutes()))
	if m < 0 {
		m = 0
	}
	return m
}

// Check counts events for identifier inside the trailing window and
// decides whether one more action is allowed. Store errors are returned
// untouched; the caller decides whether the path fails open or closed.
func Check(ctx context.Context, identifier string, p Policy, count CountFunc) (Result, error) {
	now := time.Now().UTC()
	n, err := count(ctx, identifier, now.Add(-p.Window))
	if err != nil {
		return Result{}, err
	}
	remaining := p.MaxAttempts - n
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   n < p.MaxAttempts,
		Remaining: remaining,
		ResetAt:   now.Add(p.Window),
	}, nil
}

// Combine merges two results for the same policy keyed by different
// identifiers (email and IP): the action is allowed only when both
// sides allow it, which equals limiting on the larger of the two
// counts. The later ResetAt is kept.
func Combine(a, b Result) Result {
	out := Result{
		Allowed:   a.Allowed && b.Allowed,
		Remaining: a.Remaining,
		ResetAt:   a.ResetAt,
	}
	if b.Remaining < out.Remaining {
		out.Remaining = b.Remaining
	}
	if b.ResetAt.After(out.ResetAt) {
		out.ResetAt = b.ResetAt
	}
	return out
}
