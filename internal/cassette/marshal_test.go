package cassette

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goldenCassette() *Cassette {
	c := New("golden-record", "")
	c.RecordingID = "00000000-0000-0000-0000-000000000000"
	c.Append(&Interaction{
		Request: Request{
			Method:  "GET",
			URL:     "https://example.test/widgets?api-version=2024-01-01",
			Headers: http.Header{"Accept": []string{"application/json"}},
			Body:    "",
		},
		Response: Response{
			Status:  200,
			Headers: http.Header{"Content-Type": []string{"application/json"}},
			Body:    `{"value":[]}`,
		},
	})
	c.Append(&Interaction{
		Request: Request{
			Method:  "PUT",
			URL:     "https://example.test/widgets/w1",
			Headers: http.Header{"Content-Type": []string{"application/json"}},
			Body:    `{"name":"w1"}`,
		},
		Response: Response{
			Status: 201,
			Body:   `{"name":"w1","status":"created"}`,
		},
	})
	return c
}

func TestMarshal_Golden(t *testing.T) {
	data, err := goldenCassette().Marshal()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "record", data)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recordings", "round_trip.yaml")

	c := goldenCassette()
	c.path = path
	require.NoError(t, c.Save())

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, c.Name, loaded.Name)
	assert.Equal(t, c.Version, loaded.Version)
	assert.Equal(t, c.RecordingID, loaded.RecordingID)
	require.Len(t, loaded.Interactions, 2)
	assert.Equal(t, c.Interactions[0].Request.URL, loaded.Interactions[0].Request.URL)
	assert.Equal(t, c.Interactions[1].Response.Body, loaded.Interactions[1].Response.Body)
	assert.Equal(t, path, loaded.Path())
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	content := "name: bad\nversion: 1\nbogus_field: true\ninteractions: []\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	require.Error(t, err)

	var malformed *MalformedError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, path, malformed.Path)
}

func TestLoad_NotYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("\t{not yaml"), 0o644))

	_, err := Load(path)
	var malformed *MalformedError
	assert.ErrorAs(t, err, &malformed)
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "incomplete.yaml")
	content := "name: incomplete\nversion: 1\ninteractions:\n  - id: 0\n    request:\n      method: GET\n    response:\n      status: 200\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	var malformed *MalformedError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Error(), "request url is required")
}

func TestSave_NoPath(t *testing.T) {
	c := New("pathless", "")
	assert.Error(t, c.Save())
}
