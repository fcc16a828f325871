// Package cancel provides the cooperative cancellation token threaded
// through every long-running slicing stage.
//
// Cancellation is a polling checkpoint model: stages call Token.Err at loop
// boundaries (between volumes, Z indices, layers) and unwind with Canceled
// when a cancel has been requested. There is no hard interrupt.
package cancel

import (
	"errors"
	"sync/atomic"
)

// Canceled is returned by Token.Err once cancellation has been requested.
// It is an explicit result value, not a panic, so cancellation propagation
// stays visible in signatures.
var Canceled = errors.New("slicing canceled")

// Token is a cooperative cancellation flag shared by a print run.
// The zero value is a valid, never-canceled token. Token is safe for
// concurrent use.
type Token struct {
	canceled atomic.Bool
}

// New returns a fresh token.
func New() *Token { return &Token{} }

// Cancel requests cancellation. Idempotent.
func (t *Token) Cancel() {
	if t != nil {
		t.canceled.Store(true)
	}
}

// Err returns Canceled if cancellation has been requested, nil otherwise.
// A nil token never cancels.
func (t *Token) Err() error {
	if t != nil && t.canceled.Load() {
		return Canceled
	}
	return nil
}
