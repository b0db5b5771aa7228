// Package guard prevents silent loss of an active consultation. A Guard is
// armed for exactly one session; every navigation away from the consultation
// while armed needs operator confirmation, unless the exit was marked
// intentional by the session controller (finalize / successful rollback).
package guard

import (
	"context"
	"sync"
)

// Prompt is the reusable confirmation-dialog contract shared by finalize,
// rollback, and the blocked-navigation handler.
type Prompt struct {
	Title       string
	Description string
	ConfirmText string
	CancelText  string
	Variant     string
}

// Confirmer suspends the calling flow until the operator answers yes or no.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(ctx context.Context, p Prompt) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, p Prompt) (bool, error) {
	return f(ctx, p)
}

// Decision is a Confirmer with a fixed answer, used when the operator's
// choice already arrived with the request.
func Decision(confirmed bool) Confirmer {
	return ConfirmerFunc(func(context.Context, Prompt) (bool, error) {
		return confirmed, nil
	})
}

var leavePrompt = Prompt{
	Title:       "Consultation in Progress",
	Description: "If you leave now, unsaved consultation progress will be lost.",
	ConfirmText: "Leave anyway",
	CancelText:  "Stay",
	Variant:     "warning",
}

// Guard is the per-session navigation interlock. Zero value is disarmed.
type Guard struct {
	mu          sync.Mutex
	armed       bool
	disarmed    bool
	intentional bool
}

func New() *Guard {
	return &Guard{}
}

// Arm activates the interlock. Arming an already-disarmed guard is a no-op:
// a guard serves one session and is never reused.
func (g *Guard) Arm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.disarmed {
		return
	}
	g.armed = true
}

// Disarm releases the interlock exactly once per session.
func (g *Guard) Disarm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = false
	g.disarmed = true
}

func (g *Guard) Armed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.armed
}

// MarkIntentional flags the next navigation as an authorized exit so it
// bypasses the confirmation prompt.
func (g *Guard) MarkIntentional() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intentional = true
}

func (g *Guard) Intentional() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.intentional
}

// UnloadWarning reports whether a browser-level exit (tab close, reload)
// must force the native leave-site prompt. No custom dialog is possible at
// that layer; armed and unintentional means warn.
func (g *Guard) UnloadWarning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.armed && !g.intentional
}

// PendingNavigation is a suspended route change. The guard either commits
// it (Proceed) or discards it (Reset); exactly one of the two happens.
type PendingNavigation struct {
	Destination string

	mu        sync.Mutex
	committed bool
	resolved  bool
}

func (p *PendingNavigation) Proceed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolved {
		return
	}
	p.resolved = true
	p.committed = true
}

func (p *PendingNavigation) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resolved = true
}

// Committed reports whether the navigation may go through.
func (p *PendingNavigation) Committed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.committed
}

// RequestLeave intercepts an attempted route change. Unarmed guards and
// intentional exits pass through without a prompt; otherwise the confirmer
// decides and the pending navigation is committed or discarded accordingly.
func (g *Guard) RequestLeave(ctx context.Context, destination string, confirm Confirmer) (*PendingNavigation, error) {
	pending := &PendingNavigation{Destination: destination}

	g.mu.Lock()
	bypass := !g.armed || g.intentional
	g.mu.Unlock()

	if bypass {
		pending.Proceed()
		return pending, nil
	}

	ok, err := confirm.Confirm(ctx, leavePrompt)
	if err != nil {
		pending.Reset()
		return pending, err
	}
	if ok {
		pending.Proceed()
	} else {
		pending.Reset()
	}
	return pending, nil
}
