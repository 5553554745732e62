package apiclient

import "fmt"

// Outcome tags a Result.
type Outcome int

const (
	// OutcomeData means the backend answered with a usable body.
	OutcomeData Outcome = iota
	// OutcomeEmpty means the resource is legitimately absent.
	OutcomeEmpty
	// OutcomeFailure covers transport errors, timeouts and unexpected statuses.
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeData:
		return "data"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailure:
		return "failure"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result is the tri-state answer of every API client call.
type Result[T any] struct {
	Outcome Outcome
	Value   T
	Err     error
}

func dataResult[T any](v T) Result[T] {
	return Result[T]{Outcome: OutcomeData, Value: v}
}

func emptyResult[T any]() Result[T] {
	return Result[T]{Outcome: OutcomeEmpty}
}

func failureResult[T any](err error) Result[T] {
	return Result[T]{Outcome: OutcomeFailure, Err: err}
}

func (r Result[T]) IsData() bool    { return r.Outcome == OutcomeData }
func (r Result[T]) IsEmpty() bool   { return r.Outcome == OutcomeEmpty }
func (r Result[T]) IsFailure() bool { return r.Outcome == OutcomeFailure }
