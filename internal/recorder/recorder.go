package recorder

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/tapedeck/tapedeck/internal/cassette"
	"github.com/tapedeck/tapedeck/internal/process"
	"github.com/tapedeck/tapedeck/internal/runmode"
)

// Recorder is the http.RoundTripper that records or replays traffic
// for one test. A recorder exclusively owns its cassette file; it is
// not shared across tests.
type Recorder struct {
	mode     runmode.Mode
	cassette *cassette.Cassette
	record   *process.Pipeline
	playback *process.Pipeline
	real     http.RoundTripper
	logger   *slog.Logger

	mu        sync.Mutex
	suspended int
	stopped   bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithTransport sets the real transport used for live calls. Defaults
// to http.DefaultTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(r *Recorder) { r.real = rt }
}

// WithLogger sets the structured logger. Defaults to a discarding
// logger so test output stays quiet.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

// WithRecordPipeline sets the write-path processor pipeline.
func WithRecordPipeline(p *process.Pipeline) Option {
	return func(r *Recorder) { r.record = p }
}

// WithPlaybackPipeline sets the read-path processor pipeline applied to
// replayed interactions.
func WithPlaybackPipeline(p *process.Pipeline) Option {
	return func(r *Recorder) { r.playback = p }
}

// New opens a recorder for the named test in the given mode.
//
// In record mode a fresh cassette is created with a new recording ID;
// stale-file deletion has already happened in runmode.Resolve. In
// replay mode the cassette is loaded up front so a malformed file fails
// at open time, never mid-test.
func New(name, path string, mode runmode.Mode, opts ...Option) (*Recorder, error) {
	r := &Recorder{
		mode:     mode,
		real:     http.DefaultTransport,
		record:   process.NewPipeline(),
		playback: process.NewPipeline(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}

	switch mode {
	case runmode.ModeRecord:
		r.cassette = cassette.New(name, path)
		r.cassette.RecordingID = uuid.NewString()
	case runmode.ModeReplay:
		c, err := cassette.Load(path)
		if err != nil {
			return nil, err
		}
		r.cassette = c
	case runmode.ModeOff:
		// Pass-through; no cassette.
	default:
		return nil, fmt.Errorf("unknown recorder mode %d", mode)
	}

	r.logger.Info("recorder opened", "test", name, "mode", mode.String(), "cassette", path)
	return r, nil
}

// Mode returns the resolved run mode.
func (r *Recorder) Mode() runmode.Mode { return r.mode }

// Cassette returns the underlying cassette, or nil in pass-through mode.
func (r *Recorder) Cassette() *cassette.Cassette { return r.cassette }

// Pause disables recording until a matching Resume. Calls nest; traffic
// issued while paused reaches the live backend but is never persisted.
func (r *Recorder) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suspended++
}

// Resume re-enables recording after a Pause.
func (r *Recorder) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.suspended > 0 {
		r.suspended--
	}
}

// recordingEnabled reports whether exchanges are currently persisted.
func (r *Recorder) recordingEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode == runmode.ModeRecord && r.suspended == 0
}

// RoundTrip implements http.RoundTripper.
func (r *Recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	switch r.mode {
	case runmode.ModeReplay:
		return r.replay(req)
	case runmode.ModeRecord:
		return r.recordTrip(req)
	default:
		return r.real.RoundTrip(req)
	}
}

// Stop flushes the cassette in record mode. Safe to call more than
// once; only the first call writes.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return nil
	}
	r.stopped = true

	if r.mode != runmode.ModeRecord {
		return nil
	}
	if err := r.cassette.Save(); err != nil {
		return fmt.Errorf("flush cassette: %w", err)
	}
	r.logger.Info("cassette saved",
		"cassette", r.cassette.Path(),
		"interactions", len(r.cassette.Interactions),
	)
	return nil
}

// recordTrip forwards the request to the live network and persists the
// exchange unless the pipeline dropped it or recording is paused.
func (r *Recorder) recordTrip(req *http.Request) (*http.Response, error) {
	if !r.recordingEnabled() {
		return r.real.RoundTrip(req)
	}

	captured, err := captureRequest(req)
	if err != nil {
		return nil, err
	}

	processed := r.record.ProcessRequest(captured)

	resp, err := r.real.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if processed == nil {
		// Dropped by a processor. The live call already went out; only
		// the recording is elided.
		r.logger.Debug("request excluded from cassette", "method", req.Method, "url", req.URL.String())
		return resp, nil
	}

	recorded, err := captureResponse(resp)
	if err != nil {
		return nil, err
	}
	recorded = r.record.ProcessResponse(recorded)

	ScrubHeaders(processed.Headers)
	ScrubHeaders(recorded.Headers)

	r.mu.Lock()
	r.cassette.Append(&cassette.Interaction{Request: *processed, Response: *recorded})
	r.mu.Unlock()

	return resp, nil
}

// replay answers the request from the cassette without any network
// activity.
func (r *Recorder) replay(req *http.Request) (*http.Response, error) {
	captured, err := captureRequest(req)
	if err != nil {
		return nil, err
	}

	// The same request processors run before matching so identifiers
	// normalize exactly as they did at record time. A drop here means
	// the interaction was never recorded: surface it as unmatched
	// rather than inventing a response.
	processed := r.record.ProcessRequest(captured)
	if processed == nil {
		return nil, &cassette.MatchError{Method: req.Method, URL: req.URL.String(), Cassette: r.cassette.Name}
	}

	matchURL, err := url.Parse(processed.URL)
	if err != nil {
		return nil, fmt.Errorf("parse processed request URL: %w", err)
	}
	matchReq := req.Clone(req.Context())
	matchReq.Method = processed.Method
	matchReq.URL = matchURL

	interaction, err := r.cassette.Match(matchReq)
	if err != nil {
		return nil, err
	}

	// Process a copy; the loaded cassette stays immutable.
	replayed := cloneResponse(interaction.Response)
	replayed = r.playback.ProcessResponse(replayed)

	raw, err := replayed.RawBody()
	if err != nil {
		return nil, err
	}

	r.logger.Debug("replayed interaction", "id", interaction.ID, "method", req.Method, "url", req.URL.String())

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", replayed.Status, http.StatusText(replayed.Status)),
		StatusCode:    replayed.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        replayed.Headers,
		Body:          io.NopCloser(bytes.NewReader(raw)),
		ContentLength: int64(len(raw)),
		Request:       req,
	}, nil
}

// captureRequest reads the outbound request into recorded form, leaving
// the request body readable for the live transport.
func captureRequest(req *http.Request) (*cassette.Request, error) {
	captured := &cassette.Request{
		Method:  req.Method,
		URL:     req.URL.String(),
		Headers: req.Header.Clone(),
	}

	if req.Body != nil && req.Body != http.NoBody {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		if err := req.Body.Close(); err != nil {
			return nil, fmt.Errorf("close request body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(raw))
		captured.SetBody(req.Header.Get("Content-Type"), raw)
	}
	return captured, nil
}

// captureResponse reads the live response into recorded form, leaving
// the response body readable for the caller.
func captureResponse(resp *http.Response) (*cassette.Response, error) {
	recorded := &cassette.Response{
		Status:  resp.StatusCode,
		Headers: resp.Header.Clone(),
	}

	if resp.Body != nil {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		if err := resp.Body.Close(); err != nil {
			return nil, fmt.Errorf("close response body: %w", err)
		}
		resp.Body = io.NopCloser(bytes.NewReader(raw))
		recorded.SetBody(resp.Header.Get("Content-Type"), raw)
	}
	return recorded, nil
}

// cloneResponse deep-copies a recorded response so playback processors
// never mutate the loaded cassette.
func cloneResponse(resp cassette.Response) *cassette.Response {
	out := resp
	out.Headers = resp.Headers.Clone()
	return &out
}
