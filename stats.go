package communicator

// Stats is a point-in-time snapshot of a Communicator, see
// [Communicator.Stats].
type Stats struct {
	// Sent is the number of values written by speakers.
	Sent uint64
	// Received is the number of values consumed by listeners.
	Received uint64
	// SpeakersWaiting is the number of speakers blocked, either waiting for
	// the slot, or waiting for their value to be consumed.
	SpeakersWaiting int
	// ListenersWaiting is the number of listeners blocked waiting for a
	// value.
	ListenersWaiting int
	// Occupied indicates a value is in flight.
	Occupied bool
}

// Stats returns a consistent snapshot of the Communicator's state.
//
// Waiting counts include goroutines that have been woken, but have not yet
// reacquired the lock.
func (x *Communicator[T]) Stats() Stats {
	x.mu.Lock()
	defer x.mu.Unlock()
	return Stats{
		Sent:             x.written,
		Received:         x.taken,
		SpeakersWaiting:  x.speakersWaiting,
		ListenersWaiting: x.listenersWaiting,
		Occupied:         x.occupied,
	}
}
