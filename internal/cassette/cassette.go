package cassette

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Version is the cassette format version written to new recordings.
// Bumped only on incompatible format changes.
const Version = 1

// Request is the recorded half of an interaction that was sent to the
// backend. Exactly one of Body or BodyBase64 is populated for non-empty
// bodies, depending on the content-type classification.
type Request struct {
	// Method is the HTTP method.
	Method string `yaml:"method"`

	// URL is the full request URL including the query string.
	URL string `yaml:"url"`

	// Headers holds the recorded request headers.
	Headers http.Header `yaml:"headers,omitempty"`

	// Body is the textual request body, NFC-normalized.
	Body string `yaml:"body,omitempty"`

	// BodyBase64 is the base64-encoded request body for binary payloads.
	BodyBase64 string `yaml:"body_base64,omitempty"`
}

// Response is the recorded half of an interaction that came back from
// the backend.
type Response struct {
	// Status is the HTTP status code.
	Status int `yaml:"status"`

	// Headers holds the recorded response headers after deny-list
	// stripping.
	Headers http.Header `yaml:"headers,omitempty"`

	// Body is the textual response body, NFC-normalized.
	Body string `yaml:"body,omitempty"`

	// BodyBase64 is the base64-encoded response body for binary payloads.
	BodyBase64 string `yaml:"body_base64,omitempty"`
}

// Interaction is one recorded request/response exchange. Interactions
// are ordered within a cassette; order is the primary matching key on
// replay.
type Interaction struct {
	// ID is the zero-based position of the interaction in the cassette.
	ID int `yaml:"id"`

	// Request is the recorded outbound request.
	Request Request `yaml:"request"`

	// Response is the recorded response.
	Response Response `yaml:"response"`

	// consumed marks the interaction as already replayed. In-memory
	// only; never persisted.
	consumed bool
}

// Cassette is an ordered, file-backed sequence of interactions for one
// test. Created empty in record mode; read-only in replay mode.
type Cassette struct {
	// Name identifies the test the cassette belongs to.
	Name string `yaml:"name"`

	// Version is the cassette format version.
	Version int `yaml:"version"`

	// RecordingID is a UUID assigned when the cassette was recorded.
	RecordingID string `yaml:"recording_id,omitempty"`

	// Interactions is the ordered list of recorded exchanges.
	Interactions []*Interaction `yaml:"interactions"`

	// path is where Save writes the cassette.
	path string
}

// New returns an empty cassette that Save will write to path.
func New(name, path string) *Cassette {
	return &Cassette{
		Name:    name,
		Version: Version,
		path:    path,
	}
}

// Path returns the file path backing the cassette.
func (c *Cassette) Path() string { return c.path }

// Append adds an interaction at the end of the cassette, assigning its ID
// from the current length.
func (c *Cassette) Append(i *Interaction) {
	i.ID = len(c.Interactions)
	c.Interactions = append(c.Interactions, i)
}

// SetBody classifies raw by contentType and stores it in the request as
// either a normalized textual body or a base64 payload.
func (r *Request) SetBody(contentType string, raw []byte) {
	r.Body, r.BodyBase64 = encodeBody(contentType, raw)
}

// RawBody returns the request body bytes regardless of how they were
// stored.
func (r *Request) RawBody() ([]byte, error) {
	return decodeBody(r.Body, r.BodyBase64)
}

// SetBody classifies raw by contentType and stores it in the response as
// either a normalized textual body or a base64 payload.
func (r *Response) SetBody(contentType string, raw []byte) {
	r.Body, r.BodyBase64 = encodeBody(contentType, raw)
}

// RawBody returns the response body bytes regardless of how they were
// stored.
func (r *Response) RawBody() ([]byte, error) {
	return decodeBody(r.Body, r.BodyBase64)
}

// encodeBody splits a raw body into its stored representation. Textual
// content is NFC-normalized so serialized cassettes diff cleanly across
// platforms; everything else is base64-encoded.
func encodeBody(contentType string, raw []byte) (text, b64 string) {
	if len(raw) == 0 {
		return "", ""
	}
	if IsTextContentType(contentType) {
		return norm.NFC.String(string(raw)), ""
	}
	return "", base64.StdEncoding.EncodeToString(raw)
}

// decodeBody reverses encodeBody.
func decodeBody(text, b64 string) ([]byte, error) {
	if b64 != "" {
		raw, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("decode base64 body: %w", err)
		}
		return raw, nil
	}
	return []byte(text), nil
}

// textSubtypes lists media subtypes that are textual despite not being
// under the text/ tree.
var textSubtypes = []string{
	"json",
	"xml",
	"x-www-form-urlencoded",
	"javascript",
	"yaml",
}

// IsTextContentType reports whether a body with the given Content-Type
// header value should be stored as text. An absent content type is
// treated as text, matching how most backends label error bodies.
func IsTextContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if strings.HasPrefix(mediaType, "text/") {
		return true
	}
	for _, sub := range textSubtypes {
		if strings.Contains(mediaType, sub) {
			return true
		}
	}
	return false
}
