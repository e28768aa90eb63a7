package process

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapedeck/tapedeck/internal/cassette"
)

func TestLargeRequestBody_ElidesOverThreshold(t *testing.T) {
	p := NewLargeRequestBody(16)

	req := &cassette.Request{Method: "PUT", URL: "https://x.test/blob"}
	req.SetBody("text/plain", []byte(strings.Repeat("a", 40)))

	out := p.ProcessRequest(req)
	assert.Equal(t, "!!! body elided from recording, original length 40 bytes !!!", out.Body)
	assert.Empty(t, out.BodyBase64)
}

func TestLargeRequestBody_KeepsSmallBodies(t *testing.T) {
	p := NewLargeRequestBody(16)

	req := &cassette.Request{Method: "PUT", URL: "https://x.test/blob", Body: "small"}
	out := p.ProcessRequest(req)
	assert.Equal(t, "small", out.Body)
}

func TestLargeResponseBody_ElidesBinaryBodies(t *testing.T) {
	p := NewLargeResponseBody(16)

	resp := &cassette.Response{Status: 200}
	payload := make([]byte, 33)
	resp.SetBody("application/octet-stream", payload)

	out := p.ProcessResponse(resp)
	assert.Equal(t, "!!! body elided from recording, original length 33 bytes !!!", out.Body)
	assert.Empty(t, out.BodyBase64)
}

func TestLargeBodyExpander_ReconstructsExactLength(t *testing.T) {
	write := NewLargeResponseBody(16)
	read := NewLargeBodyExpander()

	resp := &cassette.Response{Status: 200}
	resp.SetBody("text/plain", []byte(strings.Repeat("z", 1234)))

	elided := write.ProcessResponse(resp)
	expanded := read.ProcessResponse(elided)

	require.Len(t, expanded.Body, 1234)
	assert.Equal(t, strings.Repeat("0", 1234), expanded.Body)
}

func TestLargeBodyExpander_LeavesOrdinaryBodiesAlone(t *testing.T) {
	read := NewLargeBodyExpander()

	resp := read.ProcessResponse(&cassette.Response{Status: 200, Body: `{"ok":true}`})
	assert.Equal(t, `{"ok":true}`, resp.Body)

	req := read.ProcessRequest(&cassette.Request{Method: "GET", URL: "https://x.test/", Body: "plain"})
	assert.Equal(t, "plain", req.Body)
}

func TestDefaultThresholdApplied(t *testing.T) {
	assert.Equal(t, DefaultBodyThreshold, NewLargeRequestBody(0).Threshold)
	assert.Equal(t, DefaultBodyThreshold, NewLargeResponseBody(-1).Threshold)
}
