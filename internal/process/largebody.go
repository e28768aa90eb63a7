package process

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tapedeck/tapedeck/internal/cassette"
)

// DefaultBodyThreshold is the body size above which recordings store a
// length marker instead of the payload.
const DefaultBodyThreshold = 128 * 1024

// largeBodyMarker encodes the original body length so playback can
// reconstruct a placeholder of the exact same size.
const largeBodyMarker = "!!! body elided from recording, original length %d bytes !!!"

var largeBodyPattern = regexp.MustCompile(`^!!! body elided from recording, original length (\d+) bytes !!!$`)

// LargeRequestBody is a write-side processor replacing oversized request
// bodies with a length marker so cassette files stay reviewable.
type LargeRequestBody struct {
	// Threshold is the maximum body size persisted verbatim, in bytes.
	Threshold int
}

// NewLargeRequestBody returns the processor with the given threshold,
// defaulting when threshold <= 0.
func NewLargeRequestBody(threshold int) *LargeRequestBody {
	if threshold <= 0 {
		threshold = DefaultBodyThreshold
	}
	return &LargeRequestBody{Threshold: threshold}
}

// ProcessRequest elides oversized request bodies.
func (l *LargeRequestBody) ProcessRequest(req *cassette.Request) *cassette.Request {
	if n := storedBodyLength(req.Body, req.BodyBase64); n > l.Threshold {
		req.Body = fmt.Sprintf(largeBodyMarker, n)
		req.BodyBase64 = ""
	}
	return req
}

// ProcessResponse is a no-op on the response path.
func (l *LargeRequestBody) ProcessResponse(resp *cassette.Response) *cassette.Response {
	return resp
}

// LargeResponseBody is the write-side counterpart for response bodies.
type LargeResponseBody struct {
	// Threshold is the maximum body size persisted verbatim, in bytes.
	Threshold int
}

// NewLargeResponseBody returns the processor with the given threshold,
// defaulting when threshold <= 0.
func NewLargeResponseBody(threshold int) *LargeResponseBody {
	if threshold <= 0 {
		threshold = DefaultBodyThreshold
	}
	return &LargeResponseBody{Threshold: threshold}
}

// ProcessRequest is a no-op on the request path.
func (l *LargeResponseBody) ProcessRequest(req *cassette.Request) *cassette.Request {
	return req
}

// ProcessResponse elides oversized response bodies.
func (l *LargeResponseBody) ProcessResponse(resp *cassette.Response) *cassette.Response {
	if n := storedBodyLength(resp.Body, resp.BodyBase64); n > l.Threshold {
		resp.Body = fmt.Sprintf(largeBodyMarker, n)
		resp.BodyBase64 = ""
	}
	return resp
}

// LargeBodyExpander is the read-side processor reconstructing a
// placeholder body of the exact original length from a stored marker,
// keeping downstream length-based assertions valid on replay.
type LargeBodyExpander struct{}

// NewLargeBodyExpander returns the playback expander.
func NewLargeBodyExpander() *LargeBodyExpander {
	return &LargeBodyExpander{}
}

// ProcessRequest expands markers in replayed request bodies.
func (l *LargeBodyExpander) ProcessRequest(req *cassette.Request) *cassette.Request {
	req.Body = expandMarker(req.Body)
	return req
}

// ProcessResponse expands markers in replayed response bodies.
func (l *LargeBodyExpander) ProcessResponse(resp *cassette.Response) *cassette.Response {
	resp.Body = expandMarker(resp.Body)
	return resp
}

// storedBodyLength returns the decoded length of whichever body form is
// populated. Base64 length math avoids decoding the payload.
func storedBodyLength(text, b64 string) int {
	if b64 != "" {
		n := len(b64) / 4 * 3
		if strings.HasSuffix(b64, "==") {
			n -= 2
		} else if strings.HasSuffix(b64, "=") {
			n--
		}
		return n
	}
	return len(text)
}

// expandMarker reconstructs a same-length placeholder from a marker, or
// returns the body unchanged when it is not a marker.
func expandMarker(body string) string {
	m := largeBodyPattern.FindStringSubmatch(body)
	if m == nil {
		return body
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return body
	}
	return strings.Repeat("0", n)
}
