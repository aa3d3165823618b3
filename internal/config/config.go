// Package config models the configuration of the communicator CLI, which may
// be loaded from TOML or YAML files.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSpeakers         = 8
	DefaultListeners        = 8
	DefaultRounds           = 1000
	DefaultTimeout          = 30 * time.Second
	DefaultProgressInterval = time.Second

	// MaxTotal bounds Soak.Total, as every value received is retained for
	// verification.
	MaxTotal = 1 << 26
)

// ErrInvalid is returned (wrapped) by Soak.Validate.
var ErrInvalid = errors.New(`config: invalid`)

type (
	// File is the top-level structure of a configuration file.
	File struct {
		Soak Soak `toml:"soak" yaml:"soak"`
	}

	// Soak configures a soak test, where many speakers and listeners share
	// one communicator, for many rounds.
	Soak struct {
		// Speakers is the number of speaker goroutines.
		// Defaults to 8, if 0.
		Speakers int `toml:"speakers" yaml:"speakers"`

		// Listeners is the number of listener goroutines, which share the
		// total number of values evenly.
		// Defaults to 8, if 0.
		Listeners int `toml:"listeners" yaml:"listeners"`

		// Rounds is the number of values sent by each speaker.
		// Defaults to 1000, if 0.
		Rounds int `toml:"rounds" yaml:"rounds"`

		// Timeout bounds the whole soak, after which it is considered to be
		// deadlocked.
		// Defaults to 30s, if 0.
		Timeout time.Duration `toml:"timeout" yaml:"timeout"`

		// ProgressInterval limits progress logging, to at most one event per
		// role, per interval.
		// Defaults to 1s, if 0.
		ProgressInterval time.Duration `toml:"progress_interval" yaml:"progress_interval"`
	}
)

// Resolved returns a copy with defaults applied.
func (x Soak) Resolved() Soak {
	if x.Speakers == 0 {
		x.Speakers = DefaultSpeakers
	}
	if x.Listeners == 0 {
		x.Listeners = DefaultListeners
	}
	if x.Rounds == 0 {
		x.Rounds = DefaultRounds
	}
	if x.Timeout == 0 {
		x.Timeout = DefaultTimeout
	}
	if x.ProgressInterval == 0 {
		x.ProgressInterval = DefaultProgressInterval
	}
	return x
}

// Validate checks the (resolved) configuration.
func (x Soak) Validate() error {
	var errs []error
	if x.Speakers < 0 {
		errs = append(errs, fmt.Errorf(`%w: negative speakers: %d`, ErrInvalid, x.Speakers))
	}
	if x.Listeners < 0 {
		errs = append(errs, fmt.Errorf(`%w: negative listeners: %d`, ErrInvalid, x.Listeners))
	}
	if x.Rounds < 0 {
		errs = append(errs, fmt.Errorf(`%w: negative rounds: %d`, ErrInvalid, x.Rounds))
	}
	if x.Timeout < 0 {
		errs = append(errs, fmt.Errorf(`%w: negative timeout: %s`, ErrInvalid, x.Timeout))
	}
	if x.ProgressInterval < 0 {
		errs = append(errs, fmt.Errorf(`%w: negative progress interval: %s`, ErrInvalid, x.ProgressInterval))
	}
	if x.Speakers > 0 && x.Rounds > 0 && x.Speakers > MaxTotal/x.Rounds {
		errs = append(errs, fmt.Errorf(`%w: total values (speakers * rounds) exceeds %d: %d * %d`, ErrInvalid, MaxTotal, x.Speakers, x.Rounds))
	}
	return errors.Join(errs...)
}

// Total is the number of values exchanged, over the whole soak. It is only
// meaningful if Validate succeeded.
func (x Soak) Total() int {
	return x.Speakers * x.Rounds
}

// Share is the number of values received by the listener at index i.
func (x Soak) Share(i int) int {
	if x.Listeners <= 0 || i < 0 || i >= x.Listeners {
		return 0
	}
	n := x.Total() / x.Listeners
	if i < x.Total()%x.Listeners {
		n++
	}
	return n
}

// Load reads a configuration file, the format of which is determined by the
// extension, one of ".toml", ".yaml", or ".yml". Unknown keys are rejected.
func Load(path string) (*File, error) {
	var file File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case `.toml`:
		md, err := toml.DecodeFile(path, &file)
		if err != nil {
			return nil, fmt.Errorf(`config: decode %s: %w`, path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) != 0 {
			keys := make([]string, len(undecoded))
			for i, key := range undecoded {
				keys[i] = key.String()
			}
			return nil, fmt.Errorf(`config: decode %s: unknown keys: %q`, path, keys)
		}

	case `.yaml`, `.yml`:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf(`config: open %s: %w`, path, err)
		}
		defer f.Close()
		decoder := yaml.NewDecoder(f)
		decoder.KnownFields(true)
		// an empty document is valid, and leaves everything at defaults
		if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf(`config: decode %s: %w`, path, err)
		}

	default:
		return nil, fmt.Errorf(`config: unsupported extension %q: %s`, ext, path)
	}

	return &file, nil
}
