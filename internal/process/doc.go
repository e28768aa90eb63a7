// Package process implements the recording processor pipeline.
//
// A processor is a single sanitizing transform applied to recorded
// interactions. Processors compose into an ordered pipeline; ordering
// matters because later processors see the output of earlier ones.
//
// # Critical Patterns
//
// Drop semantics:
//   - ProcessRequest returning nil excludes the interaction from the
//     cassette entirely. The live request still goes out on the network,
//     so test behavior is unaffected; only the recording is elided.
//
// Symmetric ordering:
//   - Processors run in registration order on the request path and in
//     the SAME registration order on the response path, never reversed.
//     A processor that depends on state populated before the request ran
//     (the name replacer fed by preparers) therefore behaves
//     deterministically on both paths.
//
// Scoped state:
//   - Processors are stateless except for the name replacer, whose
//     name-pair registry is scoped to a single test run and never shared
//     across tests.
package process
