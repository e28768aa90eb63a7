package cassette

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(t *testing.T, method, target string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, target, nil)
}

func twoInteractionCassette() *Cassette {
	c := New("matcher-test", "")
	c.Append(&Interaction{
		Request:  Request{Method: "GET", URL: "https://example.test/widgets?api-version=2024-01-01&top=10"},
		Response: Response{Status: 200, Body: "first"},
	})
	c.Append(&Interaction{
		Request:  Request{Method: "GET", URL: "https://example.test/widgets?api-version=2024-01-01&top=10"},
		Response: Response{Status: 200, Body: "second"},
	})
	return c
}

func TestMatch_ExactRequest(t *testing.T) {
	c := twoInteractionCassette()

	i, err := c.Match(newRequest(t, "GET", "https://example.test/widgets?api-version=2024-01-01&top=10"))
	require.NoError(t, err)
	assert.Equal(t, "first", i.Response.Body)
}

func TestMatch_QueryOrderIgnored(t *testing.T) {
	c := twoInteractionCassette()

	i, err := c.Match(newRequest(t, "GET", "https://example.test/widgets?top=10&api-version=2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, "first", i.Response.Body)
}

func TestMatch_ValueCaseIgnored(t *testing.T) {
	c := New("matcher-test", "")
	c.Append(&Interaction{
		Request:  Request{Method: "GET", URL: "https://example.test/widgets?filter=Name%20EQ%20foo"},
		Response: Response{Status: 200},
	})

	_, err := c.Match(newRequest(t, "GET", "https://example.test/widgets?filter=name%20eq%20foo"))
	assert.NoError(t, err)
}

func TestMatch_AddedKeyRejected(t *testing.T) {
	c := twoInteractionCassette()

	_, err := c.Match(newRequest(t, "GET", "https://example.test/widgets?api-version=2024-01-01&top=10&skip=5"))
	require.Error(t, err)
	assert.True(t, IsMatchError(err))
}

func TestMatch_DroppedKeyRejected(t *testing.T) {
	c := twoInteractionCassette()

	_, err := c.Match(newRequest(t, "GET", "https://example.test/widgets?api-version=2024-01-01"))
	require.Error(t, err)
	assert.True(t, IsMatchError(err))
}

func TestMatch_MethodMismatchRejected(t *testing.T) {
	c := twoInteractionCassette()

	_, err := c.Match(newRequest(t, "DELETE", "https://example.test/widgets?api-version=2024-01-01&top=10"))
	assert.True(t, IsMatchError(err))
}

func TestMatch_PathMismatchRejected(t *testing.T) {
	c := twoInteractionCassette()

	_, err := c.Match(newRequest(t, "GET", "https://example.test/gadgets?api-version=2024-01-01&top=10"))
	assert.True(t, IsMatchError(err))
}

func TestMatch_ConsumesInRecordedOrder(t *testing.T) {
	c := twoInteractionCassette()
	req := func() *http.Request {
		return newRequest(t, "GET", "https://example.test/widgets?api-version=2024-01-01&top=10")
	}

	first, err := c.Match(req())
	require.NoError(t, err)
	second, err := c.Match(req())
	require.NoError(t, err)

	assert.Equal(t, "first", first.Response.Body)
	assert.Equal(t, "second", second.Response.Body)
	assert.Equal(t, 0, c.Remaining())

	// Third identical request finds nothing left.
	_, err = c.Match(req())
	require.Error(t, err)

	var me *MatchError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "GET", me.Method)
	assert.Contains(t, me.URL, "/widgets")
	assert.Equal(t, "matcher-test", me.Cassette)
}

func TestMatch_NoQueryParameters(t *testing.T) {
	c := New("matcher-test", "")
	c.Append(&Interaction{
		Request:  Request{Method: "GET", URL: "https://example.test/status"},
		Response: Response{Status: 200},
	})

	_, err := c.Match(newRequest(t, "GET", "https://example.test/status"))
	assert.NoError(t, err)
}
