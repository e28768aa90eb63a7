package process

import (
	"net/url"
	"strings"

	"github.com/tapedeck/tapedeck/internal/cassette"
)

// NamePair maps a randomly generated resource name to the stable
// moniker written to cassettes in its place.
type NamePair struct {
	// Random is the name used against the live backend.
	Random string

	// Moniker is the deterministic stand-in recorded in the cassette.
	Moniker string
}

// NameRegistry collects name pairs contributed by preparers during a
// recording run. The registry is scoped to one test run; pairs are
// applied in registration order.
type NameRegistry struct {
	pairs []NamePair
}

// Register adds a (random, moniker) pair to the registry.
func (r *NameRegistry) Register(random, moniker string) {
	r.pairs = append(r.pairs, NamePair{Random: random, Moniker: moniker})
}

// Pairs returns the registered pairs in registration order.
func (r *NameRegistry) Pairs() []NamePair {
	return r.pairs
}

// NameReplacer substitutes every registered random name with its
// moniker, in the literal form and in URL-escaped form, on both the
// request and response paths. This is what lets a cassette recorded
// against one randomly named resource replay under any later run.
type NameReplacer struct {
	registry *NameRegistry
}

// NewNameReplacer builds the replacer over a shared registry. The
// registry is typically populated later, by preparers, before any
// request reaches the pipeline.
func NewNameReplacer(registry *NameRegistry) *NameReplacer {
	return &NameReplacer{registry: registry}
}

// ProcessRequest substitutes names in the request URI, headers, and body.
func (n *NameReplacer) ProcessRequest(req *cassette.Request) *cassette.Request {
	req.URL = n.replace(req.URL)
	req.Body = n.replace(req.Body)
	replaceHeaderValues(req.Headers, n.replace)
	return req
}

// ProcessResponse substitutes names in the response headers and body.
func (n *NameReplacer) ProcessResponse(resp *cassette.Response) *cassette.Response {
	resp.Body = n.replace(resp.Body)
	replaceHeaderValues(resp.Headers, n.replace)
	return resp
}

// replace applies every registered pair, literal then URL-escaped.
func (n *NameReplacer) replace(s string) string {
	for _, pair := range n.registry.pairs {
		s = strings.ReplaceAll(s, pair.Random, pair.Moniker)

		escapedRandom := url.QueryEscape(pair.Random)
		if escapedRandom != pair.Random {
			s = strings.ReplaceAll(s, escapedRandom, url.QueryEscape(pair.Moniker))
		}
	}
	return s
}

// replaceHeaderValues rewrites every header value in place.
func replaceHeaderValues(headers map[string][]string, apply func(string) string) {
	for _, values := range headers {
		for i, v := range values {
			values[i] = apply(v)
		}
	}
}
