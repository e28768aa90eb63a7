package cassette

import (
	"net/http"
	"net/url"
	"strings"
)

// Match finds the first unconsumed interaction matching req, marks it
// consumed, and returns it. Candidates are scanned in cassette order, so
// repeated calls to the same endpoint consume entries strictly in
// recorded order.
//
// Returns *MatchError when no unconsumed interaction matches.
func (c *Cassette) Match(req *http.Request) (*Interaction, error) {
	for _, interaction := range c.Interactions {
		if interaction.consumed {
			continue
		}
		if requestsMatch(req.Method, req.URL, interaction.Request) {
			interaction.consumed = true
			return interaction, nil
		}
	}
	return nil, &MatchError{Method: req.Method, URL: req.URL.String(), Cassette: c.Name}
}

// Remaining returns the number of interactions not yet consumed by
// Match. Useful for asserting a replay exercised the whole cassette.
func (c *Cassette) Remaining() int {
	n := 0
	for _, interaction := range c.Interactions {
		if !interaction.consumed {
			n++
		}
	}
	return n
}

// requestsMatch reports whether a live request matches a recorded one.
//
// The rules are deliberately looser than full URL equality:
//  1. Methods must be identical.
//  2. URL paths must be identical.
//  3. The request and the candidate must carry the same set of query
//     parameter keys. An added or dropped parameter is a mismatch.
//  4. For each shared key, the first value must match case-insensitively.
//
// This tolerates client libraries reordering query parameters or
// normalizing value casing across versions while still rejecting
// semantically different requests.
func requestsMatch(method string, reqURL *url.URL, recorded Request) bool {
	if method != recorded.Method {
		return false
	}

	recordedURL, err := url.Parse(recorded.URL)
	if err != nil {
		return false
	}
	if reqURL.Path != recordedURL.Path {
		return false
	}

	return queriesMatch(reqURL.Query(), recordedURL.Query())
}

// queriesMatch compares two parsed query strings per the key-set /
// first-value rules above.
func queriesMatch(a, b url.Values) bool {
	if len(a) != len(b) {
		return false
	}
	for key, aValues := range a {
		bValues, ok := b[key]
		if !ok {
			return false
		}
		if len(aValues) == 0 || len(bValues) == 0 {
			// A key present on both sides with no value on either is
			// equal only if both are empty.
			if len(aValues) != len(bValues) {
				return false
			}
			continue
		}
		if !strings.EqualFold(aValues[0], bValues[0]) {
			return false
		}
	}
	return true
}
