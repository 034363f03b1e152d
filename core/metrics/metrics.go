// Package metrics provides backend-neutral instrumentation primitives so the
// core packages do not depend on any particular metrics library.
package metrics

// Timer measures the duration of an operation. Call ObserveDuration when
// the operation completes to record the elapsed time.
type Timer interface {
	ObserveDuration()
}
