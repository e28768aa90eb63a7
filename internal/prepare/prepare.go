package prepare

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/tapedeck/tapedeck/internal/naming"
	"github.com/tapedeck/tapedeck/internal/process"
)

// State tracks a preparer instance through its lifecycle.
type State int

const (
	// StateUnused means no name has been resolved yet.
	StateUnused State = iota

	// StateNamed means the resource name is resolved but creation has
	// not run.
	StateNamed

	// StateCreated means the creation callback succeeded.
	StateCreated

	// StateCreateFailed means the creation callback failed; no teardown
	// was registered.
	StateCreateFailed

	// StateRemoved means teardown has executed.
	StateRemoved
)

// TB is the subset of testing.TB the preparer framework needs. Cleanup
// must run registered functions LIFO and must run them even when the
// test body fails.
type TB interface {
	Helper()
	Cleanup(func())
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
}

// TestFunc is a test body composed with preparers.
type TestFunc func(t TB, env *Env)

// RecorderControl is the recorder surface preparers drive for scoped
// recording suppression.
type RecorderControl interface {
	Pause()
	Resume()
}

// CreateFunc provisions the resource under the resolved name. Values it
// sets on env are visible to the test body and to RemoveFunc.
type CreateFunc func(name string, env *Env) error

// RemoveFunc tears the resource down. Failures are best-effort.
type RemoveFunc func(name string, env *Env) error

// Config declares one external resource a test needs.
type Config struct {
	// Prefix is the resource name prefix; also the default env key the
	// resolved name is published under.
	Prefix string

	// NameLength is the exact total length of generated names.
	NameLength int

	// EnvKey overrides the env key for the resolved name. Defaults to
	// Prefix.
	EnvKey string

	// DisableRecording pauses the recorder while Create and Remove run,
	// keeping provisioning traffic out of the cassette.
	DisableRecording bool

	// Create provisions the resource. Optional; a nil Create makes the
	// preparer a pure naming decorator.
	Create CreateFunc

	// Remove tears the resource down. Optional.
	Remove RemoveFunc
}

// Runtime is the per-test context a preparer operates in, built by the
// harness. Nothing here is shared across tests.
type Runtime struct {
	// Live indicates random names must be generated and paired with
	// monikers. False during replay, where monikers are used directly.
	Live bool

	// Registry receives (random name, moniker) pairs during live runs.
	Registry *process.NameRegistry

	// Counter issues moniker sequence numbers in resolution order.
	Counter *MonikerCounter

	// Recorder is paused around callbacks when DisableRecording is set.
	// May be nil when no recorder is in play.
	Recorder RecorderControl

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// MonikerCounter issues monotonically increasing sequence numbers for
// moniker derivation. One counter serves all preparers of a test.
type MonikerCounter struct {
	n int
}

// Next returns the next sequence number, starting at 1.
func (c *MonikerCounter) Next() int {
	c.n++
	return c.n
}

// Preparer provisions one external resource for a test. Each instance
// owns an independent state machine and resolves its name exactly once.
type Preparer struct {
	cfg   Config
	rt    *Runtime
	state State
	name  string
}

// New builds a preparer over the given per-test runtime.
func New(cfg Config, rt *Runtime) *Preparer {
	if cfg.EnvKey == "" {
		cfg.EnvKey = cfg.Prefix
	}
	if rt.Logger == nil {
		rt.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Preparer{cfg: cfg, rt: rt}
}

// State returns the current lifecycle state.
func (p *Preparer) State() State { return p.state }

// ResourceName resolves the resource name, lazily and exactly once.
//
// On a live run a random name is generated and registered with the name
// replacer against a moniker derived from the shared counter; the
// random name is returned. On replay the moniker itself is returned and
// no random name is ever generated. Either way the choice is cached for
// the lifetime of the instance.
func (p *Preparer) ResourceName() (string, error) {
	if p.state != StateUnused {
		return p.name, nil
	}

	moniker := fmt.Sprintf("%s%06d", p.cfg.Prefix, p.rt.Counter.Next())

	if p.rt.Live {
		random, err := naming.RandomName(p.cfg.Prefix, p.cfg.NameLength)
		if err != nil {
			return "", fmt.Errorf("resolve name for preparer %q: %w", p.cfg.Prefix, err)
		}
		if p.rt.Registry != nil {
			p.rt.Registry.Register(random, moniker)
		}
		p.name = random
	} else {
		p.name = moniker
	}

	p.state = StateNamed
	return p.name, nil
}

// Wrap composes the preparer around a test function. The returned
// function resolves the name, publishes it to the env, runs the
// creation callback, registers guaranteed teardown, and invokes fn.
//
// Multiple preparers nest: the outermost Wrap creates first and, via
// the LIFO cleanup stack, removes last.
func (p *Preparer) Wrap(fn TestFunc) TestFunc {
	return func(t TB, env *Env) {
		t.Helper()

		name, err := p.ResourceName()
		if err != nil {
			t.Fatalf("%v", err)
			return
		}
		env.Set(p.cfg.EnvKey, name)

		if p.cfg.Create != nil {
			if err := p.suppressed(func() error { return p.cfg.Create(name, env) }); err != nil {
				p.state = StateCreateFailed
				t.Fatalf("create resource %q: %v", name, err)
				return
			}
			p.state = StateCreated
			p.rt.Logger.Info("resource created", "name", name, "prefix", p.cfg.Prefix)

			// Registered at creation time, not at the end of the
			// wrapped function: a created resource is torn down even
			// when the test body fails, and a failed creation never
			// leaves an orphaned registration.
			t.Cleanup(func() {
				p.teardown(t, name, env)
			})
		}

		fn(t, env)
	}
}

// teardown runs the removal callback best-effort. A failure is logged
// and swallowed so sibling cleanups still run and the test's own
// failure, if any, is not masked.
func (p *Preparer) teardown(t TB, name string, env *Env) {
	defer func() { p.state = StateRemoved }()

	if p.cfg.Remove == nil {
		return
	}
	if err := p.suppressed(func() error { return p.cfg.Remove(name, env) }); err != nil {
		t.Logf("best-effort removal of %q failed: %v", name, err)
		p.rt.Logger.Warn("resource removal failed", "name", name, "error", err)
		return
	}
	p.rt.Logger.Info("resource removed", "name", name)
}

// suppressed runs fn with recording paused when the preparer asks for
// it. The pause is released even when fn fails.
func (p *Preparer) suppressed(fn func() error) error {
	if p.cfg.DisableRecording && p.rt.Recorder != nil {
		p.rt.Recorder.Pause()
		defer p.rt.Recorder.Resume()
	}
	return fn()
}
