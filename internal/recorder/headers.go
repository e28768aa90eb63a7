package recorder

import (
	"net/http"
	"strings"
)

// deniedHeaderTokens identifies headers that are universally
// non-reproducible across runs: credentials, per-request identifiers,
// rate-limit counters, and backend routing markers. Any header whose
// name contains one of these tokens is stripped before persistence,
// independent of the processor pipeline.
var deniedHeaderTokens = []string{
	"authorization",
	"request-id",
	"correlation",
	"ratelimit",
	"rate-limit",
	"routing",
	"served-by",
	"service-instance",
}

// ScrubHeaders removes deny-listed headers from a recorded header
// map, matching names case-insensitively.
func ScrubHeaders(headers http.Header) {
	for name := range headers {
		if HeaderDenied(name) {
			headers.Del(name)
		}
	}
}

// HeaderDenied reports whether a header name matches the deny list.
func HeaderDenied(name string) bool {
	lower := strings.ToLower(name)
	for _, token := range deniedHeaderTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
