// Package cassette implements durable storage for recorded HTTP
// interactions.
//
// A cassette is a named, file-backed ordered sequence of interactions,
// one per request/response exchange, serialized as YAML so recordings
// diff cleanly in version control.
//
// # Critical Patterns
//
// Ordering is identity:
//   - Interactions are matched and consumed in cassette order on replay.
//   - A matching request consumes exactly one interaction (first
//     unconsumed match wins), which is what sequential polling loops rely on.
//
// Replay immutability:
//   - A cassette opened for replay is never written back. All replay
//     bookkeeping (consumption flags) is in-memory only.
//
// Diffability:
//   - Textual bodies are stored as plain YAML strings, NFC-normalized so
//     byte-level diffs are stable across platforms.
//   - Binary bodies are stored base64-encoded; no binary container format
//     is ever used.
package cassette
