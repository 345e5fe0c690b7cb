// Package waitlist implements the lock-free singly-linked wait-list that
// futures and queues are built from: each is, underneath, a List plus
// whatever bookkeeping its own semantics need. The syncx primitives keep
// their own chains instead (mutex, barrier, counter) or a mutex-guarded
// slice (condition variable).
//
// A List's head is an atomic pointer with three possible states: empty
// (nil), non-empty (points at the most recently registered Node, chained
// in LIFO order via Node.next), or the ready-sentinel (a distinguished
// pointer meaning "already resolved, refuse further registrations").
package waitlist

import (
	"sync/atomic"

	"github.com/concurro/coro/coroerr"
)

// Node is the unit of a wait-list: a coroutine's "resume me" marker. A Node
// must not be registered on more than one List at a time; reusing one after
// it has fired requires Reset.
type Node struct {
	next   atomic.Pointer[Node]
	resume func()
	linked atomic.Bool
}

// NewNode builds a Node whose resume callback is invoked, at most once, when
// the list it is registered on is drained.
func NewNode(resume func()) *Node {
	return &Node{resume: resume}
}

// Reset clears a fired Node so it may be registered again. Calling Reset on
// a Node still linked to a list panics via ErrMisuse.
func (n *Node) Reset(resume func()) {
	if n.linked.Load() {
		panic(coroerr.Wrap("waitlist: reset of linked node", coroerr.ErrMisuse))
	}
	n.next.Store(nil)
	n.resume = resume
}

// readySentinel is a distinguished, never-dereferenced pointer value. Any
// comparison against it is a pointer-identity check, never a field access.
var readySentinel = &Node{}

// List is a lock-free LIFO wait-list with a ready-sentinel terminal state.
type List struct {
	head atomic.Pointer[Node]
}

// Register links n onto the list. Returns true if n was linked and the
// caller should suspend; returns false if the list had already reached its
// ready-sentinel state, in which case the caller proceeds without
// suspending and n's resume callback is never invoked by this List.
//
// This is the algorithm from the core specification: load head, CAS from
// the loaded value to n, and on losing the race because the sentinel value
// was observed, stop retrying and report "already ready".
func (l *List) Register(n *Node) bool {
	if n.linked.Load() {
		panic(coroerr.Wrap("waitlist: register of already-linked node", coroerr.ErrMisuse))
	}
	for {
		old := l.head.Load()
		if old == readySentinel {
			return false
		}
		n.next.Store(old)
		if l.head.CompareAndSwap(old, n) {
			n.linked.Store(true)
			return true
		}
	}
}

// DrainTransient atomically swaps the head with nil, unlinks every node that
// was registered, and invokes each node's resume callback exactly once
// (skip, if non-nil, is unlinked but not resumed — used when the waking
// path holds a just-registered node it wants to resume inline instead).
// The list accepts new registrations again immediately after.
func (l *List) DrainTransient(skip *Node) {
	old := l.head.Swap(nil)
	l.resumeChain(old, skip)
}

// DrainFinal atomically swaps the head with the ready-sentinel: every
// currently-registered node is resumed exactly once, and every future
// Register call returns false (fast path, no suspension) because the list
// has reached its terminal ready state. Calling DrainFinal more than once is
// safe; subsequent calls resume nothing.
func (l *List) DrainFinal(skip *Node) {
	old := l.head.Swap(readySentinel)
	if old == readySentinel {
		return
	}
	l.resumeChain(old, skip)
}

// IsReady reports whether the list has reached its ready-sentinel state.
func (l *List) IsReady() bool {
	return l.head.Load() == readySentinel
}

func (l *List) resumeChain(chain, skip *Node) {
	for n := chain; n != nil; {
		next := n.next.Load()
		n.next.Store(nil)
		n.linked.Store(false)
		if n != skip && n.resume != nil {
			n.resume()
		}
		n = next
	}
}

// Awaiter is the universal suspension contract every primitive's blocking
// operation exposes. Ready reports whether no suspension is needed.
// Suspend is handed a callback that unparks the caller; it registers the
// callback and returns true if the caller must actually park, or false if
// the value resolved racily between Ready and Suspend (the caller proceeds
// without parking). Resume, called after the unpark callback fires (or
// immediately, if Suspend returned false), extracts the value or error.
type Awaiter[T any] interface {
	Ready() bool
	Suspend(resume func()) bool
	Resume() (T, error)
}
