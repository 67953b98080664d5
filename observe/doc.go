// Package observe provides observability primitives for the cache and
// breeding engines.
//
// It is a pure instrumentation library: no execution, no I/O beyond
// exporter setup. Consumers wire the observer into the cache orchestrator
// or the breeding engine at construction time; every entry point accepts
// a nil-safe noop fallback.
package observe
