package domain

import "errors"

// FailureKind classifies why a node halted the pipeline with a failure message.
type FailureKind string

const (
	// FailureNone marks a successful step.
	FailureNone FailureKind = ""
	// FailureGuardrail: a question, query or retrieved result failed validation.
	FailureGuardrail FailureKind = "guardrail_rejection"
	// FailureUpstream: a translator, data store, news or generation call failed.
	FailureUpstream FailureKind = "upstream_failure"
	// FailureMisrouted: a node lacked the input it needs to do its work.
	FailureMisrouted FailureKind = "misrouted_state"
)

// ErrUnknownNode is returned when the engine is asked to run a node it does not know.
var ErrUnknownNode = errors.New("unknown node")

var (
	// ErrMissingAPIKey is returned by external clients built without credentials.
	ErrMissingAPIKey = errors.New("api key is missing")
	// ErrReadOnlyViolation is returned by data stores asked to run anything but a read.
	ErrReadOnlyViolation = errors.New("statement is not read-only")
)
