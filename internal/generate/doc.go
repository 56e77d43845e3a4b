// Package generate turns a text prompt into a tattoo design image.
//
// The Generator interface is the only thing the rest of the studio depends
// on. StabilityClient implements it against the Stability AI REST API, and
// Memo wraps any Generator with an in-memory LRU plus an optional persistent
// Store, so re-running the same prompt does not cost another API call.
//
// Generation is network I/O with its own timeout and retry policy. Failures
// from the provider are reported as *GenerationError and callers should
// propagate them unchanged.
package generate
