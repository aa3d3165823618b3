// Package scenario models scripted exchanges between speakers and listeners,
// run against a communicator.Communicator, with verification of exactly-once
// delivery.
package scenario

import (
	"fmt"
	"strings"
	"time"

	"github.com/joeycumines/go-communicator"
)

const (
	// Speaker sends Step.Value.
	Speaker Role = iota + 1
	// Listener receives any value.
	Listener
)

// DefaultSettle is the delay between starting consecutive steps, used if
// Scenario.Settle is 0.
const DefaultSettle = 10 * time.Millisecond

type (
	// Word is the payload exchanged by scenarios.
	Word = communicator.Word

	// Role is the part a goroutine plays in an exchange.
	Role int

	// Step starts a single goroutine, playing Role.
	Step struct {
		// Value is sent by speakers, and ignored for listeners.
		Value Word
		// Delay is added to the settle time, before this step starts.
		Delay time.Duration
		Role  Role
	}

	// Scenario is a named, ordered sequence of steps. Steps start in order,
	// each in its own goroutine, separated by the settle time.
	Scenario struct {
		Name        string
		Description string
		Steps       []Step
		// Settle is the delay between starting consecutive steps, defaults to
		// DefaultSettle if 0, and disabled if negative.
		Settle time.Duration
	}
)

// String implements fmt.Stringer.
func (x Role) String() string {
	switch x {
	case Speaker:
		return `speaker`
	case Listener:
		return `listener`
	default:
		return fmt.Sprintf(`role(%d)`, int(x))
	}
}

// Counts returns the number of speakers and listeners.
func (x Scenario) Counts() (speakers, listeners int) {
	for _, step := range x.Steps {
		switch step.Role {
		case Speaker:
			speakers++
		case Listener:
			listeners++
		}
	}
	return
}

// Shape renders the steps compactly, e.g. "S L L S".
func (x Scenario) Shape() string {
	var b strings.Builder
	for i, step := range x.Steps {
		if i != 0 {
			b.WriteByte(' ')
			if step.Delay > 0 {
				b.WriteString(`| `)
			}
		}
		switch step.Role {
		case Speaker:
			b.WriteByte('S')
		case Listener:
			b.WriteByte('L')
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

func (x Scenario) settle() time.Duration {
	switch {
	case x.Settle == 0:
		return DefaultSettle
	case x.Settle < 0:
		return 0
	default:
		return x.Settle
	}
}

// LateDelay is the extra delay, used by built-in scenarios, for steps that
// join after the initial steps have settled.
const LateDelay = 50 * time.Millisecond

// Builtin returns the built-in scenarios, as a new slice, in a stable order.
func Builtin() []Scenario {
	return []Scenario{
		{
			Name:        `listener-first`,
			Description: `one listener, then one speaker`,
			Steps:       roles(`L S`),
		},
		{
			Name:        `speaker-first`,
			Description: `one speaker, then one listener`,
			Steps:       roles(`S L`),
		},
		{
			Name:        `intermixed`,
			Description: `two speakers and two listeners, interleaved`,
			Steps:       roles(`S L L S`),
		},
		{
			Name:        `three-speakers-one-listener`,
			Description: `three speakers, one listener, then two late listeners`,
			Steps:       roles(`S S S L | L L`),
		},
		{
			Name:        `one-speaker-three-listeners`,
			Description: `one speaker, three listeners, then two late speakers`,
			Steps:       roles(`S L L L | S S`),
		},
		{
			Name:        `five-by-five`,
			Description: `five speakers, then five listeners`,
			Steps:       roles(`S S S S S L L L L L`),
		},
	}
}

// Lookup finds a built-in scenario by name.
func Lookup(name string) (Scenario, bool) {
	for _, s := range Builtin() {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// roles parses a shape, e.g. "S L | L", where "|" delays the following step
// by LateDelay. Speakers are assigned unique values, counting from 1.
func roles(shape string) []Step {
	var (
		steps []Step
		delay time.Duration
		value Word
	)
	for _, field := range strings.Fields(shape) {
		var step Step
		switch field {
		case `S`:
			value++
			step = Step{Role: Speaker, Value: value}
		case `L`:
			step = Step{Role: Listener}
		case `|`:
			delay = LateDelay
			continue
		default:
			panic(fmt.Errorf(`scenario: invalid shape %q`, shape))
		}
		step.Delay = delay
		delay = 0
		steps = append(steps, step)
	}
	return steps
}
