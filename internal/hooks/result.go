package hooks

import (
	"codereview-backend/internal/metrics"
	"fmt"

	"go.uber.org/zap"
)

// Result is the outcome of invoking one hook: a value or the reason it failed.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps a failure.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// OK reports whether the invocation succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Invoke calls fn, turning a panic into a failed Result.
func Invoke[T any](fn func() (T, error)) (res Result[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Fail[T](fmt.Errorf("hook panicked: %v", rec))
		}
	}()

	v, err := fn()
	if err != nil {
		return Fail[T](err)
	}
	return Ok(v)
}

// Collect invokes fn for each entry of p in registration order and returns
// the successful values. Failed entries are logged, counted and omitted.
func Collect[T, R any](p *Point[T], logger *zap.Logger, fn func(*Entry[T]) (R, error)) []R {
	entries := p.Entries()
	out := make([]R, 0, len(entries))

	for _, entry := range entries {
		res := Invoke(func() (R, error) { return fn(entry) })
		if !res.OK() {
			metrics.HookFailures.WithLabelValues(p.Name()).Inc()
			logger.Error("[Hooks] Collect: hook failed, skipping its contribution",
				zap.String("point", p.Name()),
				zap.String("hook", entry.HookID),
				zap.String("extension", entry.Owner),
				zap.Error(res.Err))
			continue
		}
		out = append(out, res.Value)
	}
	return out
}
