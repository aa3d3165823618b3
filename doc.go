// Package communicator implements a synchronous rendezvous, allowing any
// number of "speaker" goroutines to hand single values to any number of
// "listener" goroutines, one value at a time.
//
// Every value passed to [Communicator.Send] is returned by exactly one call to
// [Communicator.Receive], and neither call returns until it has been paired
// with a partner. There is no buffering beyond the single value in flight.
//
// The implementation is a mutex guarding a one-slot buffer, plus two wait
// queues (condition variables), one per role. Unlike a Go channel, the
// speaker is held until the listener has actually consumed its value, rather
// than until the value has been accepted by the runtime, which makes the
// Communicator suitable as a strict handoff between two parties, e.g. when
// the speaker must not proceed until its value has been claimed.
//
// No fairness is guaranteed among waiting speakers or listeners, only that
// every present speaker is eventually paired with a present listener.
// Neither operation supports cancellation. Callers that need a timeout must
// arrange for a partner to arrive, or abandon the goroutine.
package communicator
