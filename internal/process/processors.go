package process

import (
	"regexp"

	"github.com/tapedeck/tapedeck/internal/cassette"
)

// locationHeaders are the response headers that can carry resource URIs
// and therefore need the same substitutions as bodies.
var locationHeaders = []string{
	"Location",
	"Operation-Location",
	"Azure-Asyncoperation",
}

// defaultOAuthPattern matches token-issuance and login endpoints so
// bearer-token negotiation never appears in recordings.
const defaultOAuthPattern = `(?i)(/oauth2?(/v2\.0)?/token|/login\.[a-z0-9.-]+/|/common/oauth)`

// OAuthRequestFilter drops any request whose URI matches a login or
// token-issuance pattern.
type OAuthRequestFilter struct {
	pattern *regexp.Regexp
}

// NewOAuthRequestFilter returns a filter using the default handshake
// pattern, or the supplied pattern when non-empty.
func NewOAuthRequestFilter(pattern string) *OAuthRequestFilter {
	if pattern == "" {
		pattern = defaultOAuthPattern
	}
	return &OAuthRequestFilter{pattern: regexp.MustCompile(pattern)}
}

// ProcessRequest drops handshake requests from the recording.
func (f *OAuthRequestFilter) ProcessRequest(req *cassette.Request) *cassette.Request {
	if f.pattern.MatchString(req.URL) {
		return nil
	}
	return req
}

// ProcessResponse is a no-op; a dropped request never reaches the
// response path.
func (f *OAuthRequestFilter) ProcessResponse(resp *cassette.Response) *cassette.Response {
	return resp
}

// SubscriptionIDReplacer rewrites tenant/subscription identifier
// segments in URIs, bodies, and location headers with a fixed
// placeholder, applied identically on request and response.
type SubscriptionIDReplacer struct {
	pattern     *regexp.Regexp
	replacement string
}

// Placeholder is the stand-in identifier written to cassettes in place
// of real subscription and tenant IDs.
const Placeholder = "00000000-0000-0000-0000-000000000000"

// NewSubscriptionIDReplacer builds the replacer for /subscriptions/ and
// /tenants/ path segments.
func NewSubscriptionIDReplacer() *SubscriptionIDReplacer {
	return &SubscriptionIDReplacer{
		pattern:     regexp.MustCompile(`(?i)(/(subscriptions|tenants)/)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`),
		replacement: "${1}" + Placeholder,
	}
}

// ProcessRequest rewrites identifiers in the request URI and body.
func (s *SubscriptionIDReplacer) ProcessRequest(req *cassette.Request) *cassette.Request {
	req.URL = s.pattern.ReplaceAllString(req.URL, s.replacement)
	req.Body = s.pattern.ReplaceAllString(req.Body, s.replacement)
	return req
}

// ProcessResponse rewrites identifiers in the response body and in
// location-carrying headers.
func (s *SubscriptionIDReplacer) ProcessResponse(resp *cassette.Response) *cassette.Response {
	resp.Body = s.pattern.ReplaceAllString(resp.Body, s.replacement)
	for _, name := range locationHeaders {
		values := resp.Headers.Values(name)
		for i, v := range values {
			values[i] = s.pattern.ReplaceAllString(v, s.replacement)
		}
	}
	return resp
}

// DeploymentNameReplacer rewrites server-generated deployment path
// segments, which change on every live run, to a fixed literal before
// persistence.
type DeploymentNameReplacer struct {
	pattern *regexp.Regexp
}

// mockDeploymentName is the stable literal recorded in place of
// generated deployment names.
const mockDeploymentName = "mock-deployment"

// NewDeploymentNameReplacer builds the replacer for /deployments/ path
// segments.
func NewDeploymentNameReplacer() *DeploymentNameReplacer {
	return &DeploymentNameReplacer{
		pattern: regexp.MustCompile(`(?i)(/deployments/)[^/?]+`),
	}
}

// ProcessRequest rewrites the deployment segment in the request URI.
func (d *DeploymentNameReplacer) ProcessRequest(req *cassette.Request) *cassette.Request {
	req.URL = d.pattern.ReplaceAllString(req.URL, "${1}"+mockDeploymentName)
	return req
}

// ProcessResponse rewrites the deployment segment in location headers.
func (d *DeploymentNameReplacer) ProcessResponse(resp *cassette.Response) *cassette.Response {
	for _, name := range locationHeaders {
		values := resp.Headers.Values(name)
		for i, v := range values {
			values[i] = d.pattern.ReplaceAllString(v, "${1}"+mockDeploymentName)
		}
	}
	return resp
}
