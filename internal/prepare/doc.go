// Package prepare provisions external resources for the duration of a
// test without hand-written setup/teardown boilerplate.
//
// A Preparer wraps a test function. On invocation it resolves a
// resource name (random against a live backend, a deterministic moniker
// during replay), runs the caller's creation callback, registers
// teardown, and only then calls the wrapped function. Preparers compose:
// the outermost preparer's resource is created first and removed last,
// which dependent resources (a network before its subnet) rely on.
//
// # Critical Patterns
//
// Name stability:
//   - Each preparer instance resolves its name exactly once, lazily.
//     Asking twice returns the same value.
//   - During recording the random name is registered with the name
//     replacer as a pair with its moniker, so the cassette only ever
//     contains the moniker and replays under any later run.
//
// Guaranteed teardown:
//   - Removal is registered via the test framework's Cleanup at the
//     moment creation succeeds. Cleanup runs LIFO and runs even when
//     the test body fails, so a created resource is always torn down
//     and a failed creation never registers an orphan.
//   - Teardown failures are logged and swallowed; one failing teardown
//     never blocks the rest of the stack and never masks the test's own
//     failure.
//
// Recording suppression:
//   - A preparer configured with DisableRecording pauses the recorder
//     around its creation and removal callbacks so provisioning traffic
//     never pollutes the cassette. The pause is released even when the
//     callback fails.
package prepare
