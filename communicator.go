package communicator

import (
	"sync"

	"github.com/joeycumines/logiface"
)

type (
	// Word is the payload width of the classic communicator, a 32-bit
	// integer. Any type may be used, see Communicator.
	Word = int32

	// Communicator is a synchronous rendezvous between speakers (callers of
	// Send) and listeners (callers of Receive). It holds at most one value in
	// flight, and each value is delivered to exactly one listener.
	//
	// Instances must be initialized using the New factory, and must not be
	// copied after first use.
	Communicator[T any] struct {
		// betteralign:ignore

		logger *logiface.Logger[logiface.Event]
		name   string

		mu sync.Mutex

		// speakers holds speakers waiting for the slot to be free, as well as
		// speakers waiting for their value to be consumed
		speakers sync.Cond

		// listeners holds listeners waiting for a value
		listeners sync.Cond

		// value is meaningful only while occupied
		value    T
		occupied bool

		// written is the ticket of the most recent write, taken is the number
		// of values consumed - tickets are consumed in write order, as there
		// is only one slot
		written uint64
		taken   uint64

		speakersWaiting  int
		listenersWaiting int
	}
)

// New initializes a new Communicator, in the empty state. Nil options are
// ignored.
func New[T any](opts ...Option) *Communicator[T] {
	cfg := resolveCommunicatorOptions(opts)

	x := Communicator[T]{
		logger: cfg.logger,
		name:   cfg.name,
	}

	if x.name != `` {
		x.logger = x.logger.Clone().Str(`communicator`, x.name).Logger()
	}

	x.speakers.L = &x.mu
	x.listeners.L = &x.mu

	return &x
}

// Send offers value to a listener, blocking until exactly one listener has
// received it. Send never fails, but it will block indefinitely if no
// listener arrives.
func (x *Communicator[T]) Send(value T) {
	x.mu.Lock()
	defer x.mu.Unlock()

	// another speaker's value is still awaiting pickup
	for x.occupied {
		x.logger.Trace().Str(`wait`, `slot`).Log(`speaker waiting`)
		x.wait(&x.speakers, &x.speakersWaiting)
	}

	ticket := x.put(value)

	// only one listener is needed, per value
	x.listeners.Signal()

	// handoff: must not return until our ticket has been consumed
	for x.taken < ticket {
		x.logger.Trace().Uint64(`ticket`, ticket).Str(`wait`, `handoff`).Log(`speaker waiting`)
		x.wait(&x.speakers, &x.speakersWaiting)
	}

	x.logger.Debug().Uint64(`ticket`, ticket).Log(`spoke`)
}

// Receive blocks until a speaker offers a value, and returns it. The paired
// Send call will return after (not necessarily immediately after) Receive.
func (x *Communicator[T]) Receive() T {
	x.mu.Lock()
	defer x.mu.Unlock()

	for !x.occupied {
		x.logger.Trace().Str(`wait`, `value`).Log(`listener waiting`)
		x.wait(&x.listeners, &x.listenersWaiting)
	}

	value, ticket := x.take()

	// relay to every speaker: the paired speaker is somewhere in the queue, in
	// its handoff wait, and (at most) one of the rest may now claim the slot
	x.speakers.Broadcast()

	x.logger.Debug().Uint64(`ticket`, ticket).Log(`heard`)

	return value
}

// String implements fmt.Stringer.
func (x *Communicator[T]) String() string {
	if x.name == `` {
		return `communicator`
	}
	return `communicator(` + x.name + `)`
}

// put writes to the slot, returning the ticket for the write.
// WARNING: Must be called with mu held.
func (x *Communicator[T]) put(value T) uint64 {
	if x.occupied {
		panic(`communicator: slot overwritten`)
	}
	x.value = value
	x.occupied = true
	x.written++
	return x.written
}

// take consumes the slot, returning the value and its ticket.
// WARNING: Must be called with mu held.
func (x *Communicator[T]) take() (T, uint64) {
	if x.taken >= x.written {
		panic(`communicator: ticket underflow`)
	}
	value := x.value
	var zero T
	x.value = zero
	x.occupied = false
	x.taken++
	return value, x.taken
}

// wait blocks on cond, tracking the number of waiters.
// WARNING: Must be called with mu held.
func (x *Communicator[T]) wait(cond *sync.Cond, waiting *int) {
	*waiting++
	cond.Wait()
	*waiting--
}
