package handshake

import (
	"context"
	"sync"

	"github.com/vitalvas/bunq/session"
)

// Owner is the single writer of a context shared between goroutines.
// EnsureLive and Refresh run under one lock so at most one handshake step
// is in flight per context; readers take copies with Snapshot.
type Owner struct {
	machine *Machine
	store   session.Store

	mu  sync.Mutex
	ctx session.Context
}

// NewOwner wraps initial. When store is non-nil every committed context is
// saved to it.
func NewOwner(machine *Machine, initial session.Context, store session.Store) *Owner {
	return &Owner{machine: machine, ctx: initial, store: store}
}

// LoadOwner creates an Owner from the context held in store.
func LoadOwner(ctx context.Context, machine *Machine, store session.Store) (*Owner, error) {
	initial, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	return NewOwner(machine, initial, store), nil
}

// Snapshot returns a copy of the current context.
func (o *Owner) Snapshot() session.Context {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.ctx
}

// Replace swaps the context wholesale. Replace(session.Context{}) resets the
// owner to a fresh context.
func (o *Owner) Replace(ctx context.Context, next session.Context) error {
	if err := next.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	return o.commit(ctx, next)
}

// EnsureLive brings the shared context to live. Concurrent callers are
// serialized; callers arriving after the first success find a live context
// and make no remote call.
func (o *Owner) EnsureLive(ctx context.Context, apiKey, description string) (session.Context, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	next, err := o.machine.EnsureLive(ctx, o.ctx, apiKey, description)
	if next != o.ctx {
		if cerr := o.commit(ctx, next); cerr != nil && err == nil {
			err = cerr
		}
	}

	return o.ctx, err
}

// Refresh replaces the session of a live context with a new one, keeping
// installation and device.
func (o *Owner) Refresh(ctx context.Context, apiKey string) (session.Context, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	next, err := o.machine.CreateSession(ctx, o.ctx.WithoutSession(), apiKey)
	if err != nil {
		return o.ctx, err
	}

	if err := o.commit(ctx, next); err != nil {
		return o.ctx, err
	}

	return o.ctx, nil
}

// commit must be called with mu held. The in-memory context is only
// replaced once the store accepted it.
func (o *Owner) commit(ctx context.Context, next session.Context) error {
	if o.store != nil {
		if err := o.store.Save(ctx, next); err != nil {
			return err
		}
	}

	o.ctx = next

	return nil
}
