package common

// Result is the outcome of processing one source row: either Ok with a
// value, or Skipped with the reason the row was dropped.
type Result[T any] struct {
	val    T
	reason error
	ok     bool
}

// Ok creates a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{val: v, ok: true}
}

// Skipped creates a Result for a row that was dropped for reason.
func Skipped[T any](reason error) Result[T] {
	return Result[T]{reason: reason}
}

// FromPair creates a Result from a (value, error) pair.
func FromPair[T any](v T, err error) Result[T] {
	if err != nil {
		return Skipped[T](err)
	}
	return Ok(v)
}

func (r Result[T]) IsOk() bool { return r.ok }

func (r Result[T]) IsSkipped() bool { return !r.ok }

// Value returns the value; the zero value when skipped.
func (r Result[T]) Value() T { return r.val }

// Reason returns the skip reason; nil when ok.
func (r Result[T]) Reason() error { return r.reason }

// Unwrap returns the value and the skip reason.
func (r Result[T]) Unwrap() (T, error) { return r.val, r.reason }

// MapResult transforms Result[T] to Result[U], carrying the skip reason.
func MapResult[T, U any](r Result[T], f func(T) U) Result[U] {
	if !r.ok {
		return Skipped[U](r.reason)
	}
	return Ok(f(r.val))
}

// AndThen chains a step that may itself skip.
func AndThen[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if !r.ok {
		return Skipped[U](r.reason)
	}
	return f(r.val)
}

//Personal.AI order the ending
