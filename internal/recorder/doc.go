// Package recorder intercepts outbound HTTP traffic and routes it
// through a cassette.
//
// The recorder is an http.RoundTripper installed as the transport of
// the system under test. Depending on the resolved run mode it:
//
//   - forwards to the real network and persists each exchange after
//     sanitization (record),
//   - answers from the cassette without touching the network (replay),
//   - forwards unrecorded (off).
//
// # Critical Patterns
//
// Replay never falls through:
//   - An unmatched request in replay mode is a hard failure naming the
//     method and URI. Silently issuing a live call would mask a stale
//     cassette.
//
// Dropped requests still execute:
//   - A request the pipeline drops is forwarded to the live network so
//     test behavior is unaffected; only the recording is elided.
//
// Scoped suppression:
//   - Pause/Resume temporarily disable recording so preparer
//     provisioning traffic never pollutes the cassette. Calls nest.
//
// A cassette opened for replay is read-only; replayed responses are
// processed on copies.
package recorder
