// Package runmode decides, once per test-run process, whether the
// harness talks to a live backend or replays recorded traffic.
//
// The decision comes from the TAPEDECK_LIVE environment variable, with
// an optional YAML config file for CI setups that cannot set env vars.
// The flag is read once at resolver construction and cached for the
// process lifetime.
package runmode

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for harness environment variables; the live
// flag is TAPEDECK_LIVE.
const EnvPrefix = "tapedeck"

// Mode is the run state of the cassette store for one test.
type Mode int

const (
	// ModeOff passes requests through to the network unrecorded. Used
	// when a replay run has no cassette, which is legal for tests that
	// issue no network calls.
	ModeOff Mode = iota

	// ModeRecord issues real calls and persists them to a fresh cassette.
	ModeRecord

	// ModeReplay answers calls from an existing cassette without
	// touching the network.
	ModeReplay
)

// String returns the mode name for logs.
func (m Mode) String() string {
	switch m {
	case ModeRecord:
		return "record"
	case ModeReplay:
		return "replay"
	default:
		return "off"
	}
}

// Resolver holds the cached live/replay decision for one process.
type Resolver struct {
	live bool
}

// NewResolver reads the live flag from the environment and, when
// configFile is non-empty, from a YAML config file. Environment wins
// over config.
func NewResolver(configFile string) (*Resolver, error) {
	v := viper.New()
	v.SetDefault("live", false)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read run-mode config: %w", err)
		}
	}

	return &Resolver{live: v.GetBool("live")}, nil
}

// IsLive reports whether the run issues real network calls.
func (r *Resolver) IsLive() bool { return r.live }

// Resolve maps the cached flag and the cassette file state to a mode.
//
// In a live run an existing cassette is stale; it is deleted up front so
// the run re-records cleanly instead of appending to old data. In a
// replay run a missing cassette resolves to ModeOff rather than failing,
// so tests without network interaction still run.
func (r *Resolver) Resolve(cassettePath string) (Mode, error) {
	exists, err := fileExists(cassettePath)
	if err != nil {
		return ModeOff, err
	}

	if r.live {
		if exists {
			if err := os.Remove(cassettePath); err != nil {
				return ModeOff, fmt.Errorf("delete stale cassette: %w", err)
			}
		}
		return ModeRecord, nil
	}

	if exists {
		return ModeReplay, nil
	}
	return ModeOff, nil
}

// fileExists distinguishes absence from stat failure.
func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat cassette: %w", err)
}
