// Package report models the machine-readable summary of a CLI invocation.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/renameio/v2"
)

type (
	// Report summarizes one invocation of a command.
	Report struct {
		Command string        `json:"command"`
		Started time.Time     `json:"started"`
		Elapsed time.Duration `json:"elapsed"`
		Runs    []Run         `json:"runs"`
	}

	// Run is the outcome of a single scenario or soak.
	Run struct {
		Name     string        `json:"name"`
		Error    string        `json:"error,omitempty"`
		Sent     int           `json:"sent"`
		Received int           `json:"received"`
		Elapsed  time.Duration `json:"elapsed"`
		OK       bool          `json:"ok"`
	}
)

// OK returns true if every run passed.
func (x *Report) OK() bool {
	for _, run := range x.Runs {
		if !run.OK {
			return false
		}
	}
	return true
}

// Failed returns the number of runs that did not pass.
func (x *Report) Failed() (n int) {
	for _, run := range x.Runs {
		if !run.OK {
			n++
		}
	}
	return
}

// Add appends a run, setting Error (and OK) from err.
func (x *Report) Add(run Run, err error) {
	run.OK = err == nil
	if err != nil {
		run.Error = err.Error()
	}
	x.Runs = append(x.Runs, run)
}

// Write encodes r as indented JSON, replacing path atomically.
func Write(path string, r *Report) error {
	if r == nil {
		panic(`report: nil report`)
	}
	b, err := json.MarshalIndent(r, ``, `  `)
	if err != nil {
		return fmt.Errorf(`report: encode: %w`, err)
	}
	b = append(b, '\n')
	if err := renameio.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf(`report: write %s: %w`, path, err)
	}
	return nil
}
