package process

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapedeck/tapedeck/internal/cassette"
)

// recordingProcessor appends its tag to the body on both paths, so
// ordering is observable.
type recordingProcessor struct {
	tag string
}

func (p *recordingProcessor) ProcessRequest(req *cassette.Request) *cassette.Request {
	req.Body += p.tag
	return req
}

func (p *recordingProcessor) ProcessResponse(resp *cassette.Response) *cassette.Response {
	resp.Body += p.tag
	return resp
}

// droppingProcessor drops every request.
type droppingProcessor struct{}

func (droppingProcessor) ProcessRequest(*cassette.Request) *cassette.Request { return nil }
func (droppingProcessor) ProcessResponse(resp *cassette.Response) *cassette.Response {
	return resp
}

func TestPipeline_RequestRunsInRegistrationOrder(t *testing.T) {
	p := NewPipeline(&recordingProcessor{tag: "a"}, &recordingProcessor{tag: "b"}, &recordingProcessor{tag: "c"})

	req := p.ProcessRequest(&cassette.Request{Method: "GET", URL: "https://x.test/"})
	require.NotNil(t, req)
	assert.Equal(t, "abc", req.Body)
}

func TestPipeline_ResponseRunsInSameOrderNotReversed(t *testing.T) {
	p := NewPipeline(&recordingProcessor{tag: "a"}, &recordingProcessor{tag: "b"}, &recordingProcessor{tag: "c"})

	resp := p.ProcessResponse(&cassette.Response{Status: 200})
	assert.Equal(t, "abc", resp.Body)
}

func TestPipeline_DropShortCircuits(t *testing.T) {
	tail := &recordingProcessor{tag: "tail"}
	p := NewPipeline(&recordingProcessor{tag: "head"}, droppingProcessor{}, tail)

	req := &cassette.Request{Method: "GET", URL: "https://x.test/"}
	out := p.ProcessRequest(req)

	assert.Nil(t, out)
	// The tail processor never saw the request.
	assert.Equal(t, "head", req.Body)
}

func TestOAuthRequestFilter_DropsTokenRequests(t *testing.T) {
	f := NewOAuthRequestFilter("")

	dropped := []string{
		"https://login.example.test/tenant/oauth2/token",
		"https://login.example.test/tenant/oauth2/v2.0/token",
		"https://login.microsoftonline.example/common/oauth2/token",
	}
	for _, u := range dropped {
		assert.Nil(t, f.ProcessRequest(&cassette.Request{Method: "POST", URL: u}), u)
	}

	kept := &cassette.Request{Method: "GET", URL: "https://api.example.test/widgets"}
	assert.NotNil(t, f.ProcessRequest(kept))
}

func TestSubscriptionIDReplacer_RewritesURIAndBody(t *testing.T) {
	r := NewSubscriptionIDReplacer()

	req := &cassette.Request{
		Method: "GET",
		URL:    "https://api.example.test/subscriptions/12345678-abcd-ef01-2345-6789abcdef01/widgets",
		Body:   `{"id":"/subscriptions/12345678-abcd-ef01-2345-6789abcdef01/widgets/w1"}`,
	}

	out := r.ProcessRequest(req)
	require.NotNil(t, out)
	assert.Equal(t, "https://api.example.test/subscriptions/"+Placeholder+"/widgets", out.URL)
	assert.NotContains(t, out.Body, "12345678-abcd-ef01-2345-6789abcdef01")
}

func TestSubscriptionIDReplacer_RewritesLocationHeaders(t *testing.T) {
	r := NewSubscriptionIDReplacer()

	resp := &cassette.Response{
		Status: 202,
		Headers: http.Header{
			"Location": []string{"https://api.example.test/subscriptions/12345678-abcd-ef01-2345-6789abcdef01/operations/op1"},
		},
		Body: `{"subscription":"/subscriptions/12345678-abcd-ef01-2345-6789abcdef01"}`,
	}

	out := r.ProcessResponse(resp)
	assert.Contains(t, out.Headers.Get("Location"), Placeholder)
	assert.Contains(t, out.Body, Placeholder)
}

func TestDeploymentNameReplacer(t *testing.T) {
	r := NewDeploymentNameReplacer()

	req := &cassette.Request{Method: "PUT", URL: "https://api.example.test/deployments/deploy-8f3a1c/widgets?api-version=1"}
	out := r.ProcessRequest(req)
	assert.Equal(t, "https://api.example.test/deployments/mock-deployment/widgets?api-version=1", out.URL)

	resp := &cassette.Response{
		Status:  201,
		Headers: http.Header{"Location": []string{"https://api.example.test/deployments/deploy-8f3a1c"}},
	}
	out2 := r.ProcessResponse(resp)
	assert.Equal(t, "https://api.example.test/deployments/mock-deployment", out2.Headers.Get("Location"))
}
