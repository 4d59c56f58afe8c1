package models

// FailureKind separates an unreachable store from a store that rejected the query.
type FailureKind string

const (
	ConnectionFailure FailureKind = "connection_failure"
	QueryFailure      FailureKind = "query_failure"
)

// Failure is a store error converted into a value at the executor boundary.
type Failure struct {
	Kind   FailureKind
	Reason string
}

// Message is the text shown to the operator in place of an answer.
func (f Failure) Message() string {
	if f.Kind == ConnectionFailure {
		return "Database connection failed: " + f.Reason
	}
	return "Query error: " + f.Reason
}

// Outcome is the result of executing one intent: either rows (possibly none)
// or a failure, never both.
type Outcome struct {
	Rows    []Row
	Failure *Failure
	// Cached is set when Rows came from the outcome cache.
	Cached bool
}

func RowsOutcome(rows []Row) Outcome {
	if rows == nil {
		rows = []Row{}
	}
	return Outcome{Rows: rows}
}

func FailureOutcome(kind FailureKind, reason string) Outcome {
	return Outcome{Failure: &Failure{Kind: kind, Reason: reason}}
}

func (o Outcome) Failed() bool {
	return o.Failure != nil
}

// OutcomeKind labels how a question was answered, for logs, metrics and transports.
type OutcomeKind string

const (
	OutcomeAnswered          OutcomeKind = "answered"
	OutcomeEmpty             OutcomeKind = "empty"
	OutcomeNoMatch           OutcomeKind = "no_match"
	OutcomeConnectionFailure OutcomeKind = "connection_failure"
	OutcomeQueryFailure      OutcomeKind = "query_failure"
)

func (o Outcome) Kind() OutcomeKind {
	switch {
	case o.Failure != nil && o.Failure.Kind == ConnectionFailure:
		return OutcomeConnectionFailure
	case o.Failure != nil:
		return OutcomeQueryFailure
	case len(o.Rows) == 0:
		return OutcomeEmpty
	default:
		return OutcomeAnswered
	}
}
