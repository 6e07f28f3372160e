package stage

import "errors"

// Stage names a step of the query pipeline so that failures can be attributed.
type Stage string

const (
	Safety      Stage = "safety"
	Normalizer  Stage = "normalizer"
	Splitter    Stage = "splitter"
	Classifier  Stage = "classifier"
	Memory      Stage = "memory"
	Retriever   Stage = "retriever"
	Synthesizer Stage = "synthesizer"
	Formatter   Stage = "formatter"
	Pipeline    Stage = "pipeline"
)

// Error wraps an error with the stage it happened in.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap attaches a stage to err. A nil err stays nil.
func Wrap(s Stage, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Stage: s, Err: err}
}

// Of reports the stage err was attributed to, if any.
func Of(err error) (Stage, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// Result is either a value or a stage-attributed failure. Callers must check
// Failed before trusting Value, or use Or to supply a fallback.
type Result[T any] struct {
	Value T
	Err   error
}

// OK returns a successful result.
func OK[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail returns a failed result attributed to s.
func Fail[T any](s Stage, err error) Result[T] {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return Result[T]{Err: Wrap(s, err)}
}

func (r Result[T]) Failed() bool {
	return r.Err != nil
}

// Or returns the value on success and fallback otherwise.
func (r Result[T]) Or(fallback T) T {
	if r.Failed() {
		return fallback
	}
	return r.Value
}
