// Package harness wires the record/replay machinery into a test.
//
// One Harness serves one test. New resolves the run mode, opens the
// cassette, assembles the sanitization pipelines, and installs the
// recorder as an HTTP transport. Teardown (flushing the cassette in
// record mode) registers on t.Cleanup so it happens regardless of test
// outcome.
//
// Typical use:
//
//	h := harness.New(t)
//	db := h.NewPreparer(prepare.Config{Prefix: "dbtest", NameLength: 20,
//		Create: createDatabase, Remove: dropDatabase, DisableRecording: true})
//	h.Run(func(t prepare.TB, env *prepare.Env) {
//		resp, err := h.Client().R().Get(apiURL + "/databases/" + env.Get("dbtest"))
//		...
//	}, db)
//
// Against a live backend (TAPEDECK_LIVE=true) the calls hit the network
// and a cassette is written; afterwards the same test replays offline.
package harness

import (
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"

	"github.com/tapedeck/tapedeck/internal/prepare"
	"github.com/tapedeck/tapedeck/internal/process"
	"github.com/tapedeck/tapedeck/internal/recorder"
	"github.com/tapedeck/tapedeck/internal/runmode"
)

// DefaultCassetteDir is where cassettes are stored relative to the
// test's package directory.
const DefaultCassetteDir = "testdata/recordings"

// Harness owns the per-test record/replay context. Nothing in it is
// shared across tests; parallel test processes operate on independent
// cassette files.
type Harness struct {
	t        *testing.T
	mode     runmode.Mode
	recorder *recorder.Recorder
	registry *process.NameRegistry
	counter  *prepare.MonikerCounter
	logger   *slog.Logger
}

type config struct {
	cassetteDir   string
	cassetteName  string
	configFile    string
	transport     http.RoundTripper
	logger        *slog.Logger
	bodyThreshold int
	extra         []process.Processor
	resolver      *runmode.Resolver
}

// Option configures a Harness.
type Option func(*config)

// WithCassetteDir overrides the cassette directory.
func WithCassetteDir(dir string) Option {
	return func(c *config) { c.cassetteDir = dir }
}

// WithCassetteName overrides the cassette name derived from the test
// name. Used when several subtests share one recording.
func WithCassetteName(name string) Option {
	return func(c *config) { c.cassetteName = name }
}

// WithConfigFile points the mode resolver at a YAML config file.
func WithConfigFile(path string) Option {
	return func(c *config) { c.configFile = path }
}

// WithTransport sets the transport used for live calls.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *config) { c.transport = rt }
}

// WithLogger sets the structured logger for the harness and recorder.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithBodyThreshold overrides the large-body elision threshold.
func WithBodyThreshold(n int) Option {
	return func(c *config) { c.bodyThreshold = n }
}

// WithProcessors appends extra processors after the standard write-path
// pipeline.
func WithProcessors(procs ...process.Processor) Option {
	return func(c *config) { c.extra = append(c.extra, procs...) }
}

// WithResolver injects a pre-built mode resolver. Mostly for tests of
// the harness itself.
func WithResolver(r *runmode.Resolver) Option {
	return func(c *config) { c.resolver = r }
}

// New builds the harness for t and registers cassette teardown on
// t.Cleanup. Fatal on any setup error: a malformed cassette or an
// unreadable config must fail before the test body runs.
func New(t *testing.T, opts ...Option) *Harness {
	t.Helper()

	cfg := &config{
		cassetteDir: DefaultCassetteDir,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	name := cfg.cassetteName
	if name == "" {
		name = cassetteNameForTest(t.Name())
	}
	path := filepath.Join(cfg.cassetteDir, name+".yaml")

	resolver := cfg.resolver
	if resolver == nil {
		var err error
		resolver, err = runmode.NewResolver(cfg.configFile)
		if err != nil {
			t.Fatalf("resolve run mode: %v", err)
		}
	}
	mode, err := resolver.Resolve(path)
	if err != nil {
		t.Fatalf("resolve run mode: %v", err)
	}

	registry := &process.NameRegistry{}

	recordProcs := []process.Processor{
		process.NewOAuthRequestFilter(""),
		process.NewSubscriptionIDReplacer(),
		process.NewNameReplacer(registry),
		process.NewDeploymentNameReplacer(),
		process.NewLargeRequestBody(cfg.bodyThreshold),
		process.NewLargeResponseBody(cfg.bodyThreshold),
	}
	recordProcs = append(recordProcs, cfg.extra...)

	recOpts := []recorder.Option{
		recorder.WithRecordPipeline(process.NewPipeline(recordProcs...)),
		recorder.WithPlaybackPipeline(process.NewPipeline(process.NewLargeBodyExpander())),
		recorder.WithLogger(cfg.logger),
	}
	if cfg.transport != nil {
		recOpts = append(recOpts, recorder.WithTransport(cfg.transport))
	}

	rec, err := recorder.New(name, path, mode, recOpts...)
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	t.Cleanup(func() {
		if err := rec.Stop(); err != nil {
			t.Errorf("flush cassette: %v", err)
		}
	})

	return &Harness{
		t:        t,
		mode:     mode,
		recorder: rec,
		registry: registry,
		counter:  &prepare.MonikerCounter{},
		logger:   cfg.logger,
	}
}

// Mode returns the resolved run mode.
func (h *Harness) Mode() runmode.Mode { return h.mode }

// Recorder exposes the underlying recorder, e.g. for manual
// Pause/Resume around out-of-band traffic.
func (h *Harness) Recorder() *recorder.Recorder { return h.recorder }

// HTTPClient returns a net/http client whose transport records or
// replays through the cassette.
func (h *Harness) HTTPClient() *http.Client {
	return &http.Client{Transport: h.recorder}
}

// Client returns a resty client riding the recording transport.
func (h *Harness) Client() *resty.Client {
	return resty.NewWithClient(h.HTTPClient())
}

// NewPreparer builds a preparer bound to this harness: its monikers
// come from the harness counter, its random names register with the
// harness name replacer, and its callbacks can suspend recording.
func (h *Harness) NewPreparer(cfg prepare.Config) *prepare.Preparer {
	return prepare.New(cfg, &prepare.Runtime{
		Live:     h.mode == runmode.ModeRecord,
		Registry: h.registry,
		Counter:  h.counter,
		Recorder: h.recorder,
		Logger:   h.logger,
	})
}

// Run composes preparers around the test body, outermost first, and
// invokes it with a fresh env. preparers[0] creates first and removes
// last.
func (h *Harness) Run(fn prepare.TestFunc, preparers ...*prepare.Preparer) {
	h.t.Helper()

	wrapped := fn
	for i := len(preparers) - 1; i >= 0; i-- {
		wrapped = preparers[i].Wrap(wrapped)
	}
	wrapped(h.t, prepare.NewEnv())
}

// cassetteNameForTest flattens a test name (which may contain subtest
// separators) into a file-name-safe cassette name.
func cassetteNameForTest(name string) string {
	replacer := strings.NewReplacer("/", "_", " ", "_")
	return replacer.Replace(name)
}
