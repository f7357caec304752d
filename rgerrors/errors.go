// Package rgerrors defines the coded error model shared across every
// component of the engine: a stable code, a retry class, structured
// context, and optional suggestion/documentation text, generalizing the
// teacher's NodeError (graph/node.go) and sentinel-error idiom
// (graph/errors.go, graph/checkpoint.go) across all twelve error kinds.
package rgerrors

import (
	"errors"
	"fmt"
)

// Class controls how Retry and CircuitBreaker nodes treat an error.
type Class int

const (
	// ClassPermanent errors propagate immediately through Retry/CircuitBreaker.
	ClassPermanent Class = iota
	// ClassRetryable errors are retried and counted by CircuitBreaker.
	ClassRetryable
	// ClassTransient errors behave like ClassRetryable for retry/breaker purposes
	// but denote an external, likely-self-resolving condition (e.g. CircuitOpen).
	ClassTransient
	// ClassConfiguration errors are always fatal to the current execution.
	ClassConfiguration
	// ClassFatal errors are never recoverable, even by TryCatch.
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassPermanent:
		return "Permanent"
	case ClassRetryable:
		return "Retryable"
	case ClassTransient:
		return "Transient"
	case ClassConfiguration:
		return "Configuration"
	case ClassFatal:
		return "Fatal"
	default:
		return "Unknown"
	}
}

// Code is the stable numeric error code from the error table (§7).
type Code string

const (
	CodeNodeExecution     Code = "E001"
	CodeDatabaseConn      Code = "E002"
	CodeRuleEvaluation    Code = "E003"
	CodeConfiguration     Code = "E004"
	CodeTimeout           Code = "E005"
	CodeGraphValidation   Code = "E006"
	CodeSerialization     Code = "E007"
	CodeAIProvider        Code = "E008"
	CodeCache             Code = "E009"
	CodeContext           Code = "E010"
	CodeDistributed       Code = "E011"
	CodeTransaction       Code = "E012"
	CodeCancellation      Code = "E013" // reserved: cooperative cancellation surfaced to caller
)

// Kind is a short human label paired 1:1 with Code.
var kindByCode = map[Code]string{
	CodeNodeExecution:   "NodeExecution",
	CodeDatabaseConn:    "DatabaseConnection",
	CodeRuleEvaluation:  "RuleEvaluation",
	CodeConfiguration:   "Configuration",
	CodeTimeout:         "Timeout",
	CodeGraphValidation: "GraphValidation",
	CodeSerialization:   "Serialization",
	CodeAIProvider:      "AIProvider",
	CodeCache:           "Cache",
	CodeContext:         "Context",
	CodeDistributed:     "Distributed",
	CodeTransaction:     "Transaction",
	CodeCancellation:    "Cancellation",
}

// defaultClassByCode is the class a code carries absent a more specific
// override (AIProvider and NodeExecution are decided case-by-case by
// callers since their class "depends on source").
var defaultClassByCode = map[Code]Class{
	CodeNodeExecution:   ClassPermanent,
	CodeDatabaseConn:    ClassRetryable,
	CodeRuleEvaluation:  ClassPermanent,
	CodeConfiguration:   ClassConfiguration,
	CodeTimeout:         ClassRetryable,
	CodeGraphValidation: ClassConfiguration,
	CodeSerialization:   ClassPermanent,
	CodeAIProvider:      ClassRetryable,
	CodeCache:           ClassTransient,
	CodeContext:         ClassPermanent,
	CodeDistributed:     ClassRetryable,
	CodeTransaction:     ClassPermanent,
	CodeCancellation:    ClassFatal,
}

// ErrorContext carries node/graph identity and arbitrary metadata, attached
// as an Error is decorated on the way up the call stack (§7 "Propagation
// policy").
type ErrorContext struct {
	NodeID  string
	GraphID string
	Service string
	Meta    map[string]any
}

// Error is the coded error every component returns. It implements error and
// supports errors.Is/As via Unwrap, mirroring the teacher's NodeError.
type Error struct {
	Code       Code
	Class      Class
	Message    string
	Suggestion string
	DocURL     string
	Cause      error
	Context    ErrorContext
}

// New builds an Error with the default class for code.
func New(code Code, message string) *Error {
	return &Error{Code: code, Class: defaultClassByCode[code], Message: message}
}

// Newf is New with fmt.Sprintf formatting.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap decorates an existing error with a code, preserving it as Cause.
// If err is already *Error, its Class/Code are reused unless overridden by
// WithClass, so repeated wrapping up the node/subgraph chain does not
// reclassify an error's retryability.
func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{
			Code:       existing.Code,
			Class:      existing.Class,
			Message:    message,
			Suggestion: existing.Suggestion,
			DocURL:     existing.DocURL,
			Cause:      err,
			Context:    existing.Context,
		}
	}
	return &Error{Code: code, Class: defaultClassByCode[code], Message: message, Cause: err}
}

// WithClass overrides the class (used where "depends on source", e.g. E001, E008).
func (e *Error) WithClass(c Class) *Error {
	e.Class = c
	return e
}

// WithSuggestion attaches actionable remediation text.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDocURL attaches a documentation link.
func (e *Error) WithDocURL(u string) *Error {
	e.DocURL = u
	return e
}

// WithNode decorates the error with the enclosing node id, implementing the
// "propagation policy" of §7: "A node-level error is decorated with the
// enclosing node id on the way up." Decoration returns a new *Error wrapping
// the original so earlier context (e.g. a nested Subgraph's node id) is
// preserved via Cause, not overwritten.
func (e *Error) WithNode(nodeID string) *Error {
	if e.Context.NodeID == "" {
		e.Context.NodeID = nodeID
		return e
	}
	return &Error{
		Code:    e.Code,
		Class:   e.Class,
		Message: e.Message,
		Cause:   e,
		Context: ErrorContext{NodeID: nodeID, GraphID: e.Context.GraphID, Service: e.Context.Service},
	}
}

// WithGraph stamps the graph id (used when a Subgraph node propagates an
// inner error: "propagate the inner error with subgraph identity added to
// the error context chain", §4.6.9).
func (e *Error) WithGraph(graphID string) *Error {
	e.Context.GraphID = graphID
	return e
}

func (e *Error) Error() string {
	kind := kindByCode[e.Code]
	base := fmt.Sprintf("%s %s: %s", e.Code, kind, e.Message)
	if e.Context.NodeID != "" {
		base = fmt.Sprintf("%s (node %s)", base, e.Context.NodeID)
	}
	if e.Context.GraphID != "" {
		base = fmt.Sprintf("%s (graph %s)", base, e.Context.GraphID)
	}
	return base
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether a Retry node should attempt again for err,
// per §7: "Retry nodes retry only Retryable and Transient."
func Retryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ClassRetryable || e.Class == ClassTransient
	}
	return false
}

// CountsTowardBreaker reports whether err should increment a CircuitBreaker's
// failure count, per §7: "CircuitBreakers count only Retryable and
// Transient. Permanent errors surface immediately and unwrapped through any
// Retry/CircuitBreaker."
func CountsTowardBreaker(err error) bool {
	return Retryable(err)
}

// IsFatal reports whether err is ClassFatal.
func IsFatal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ClassFatal
	}
	return false
}

// NonRecoverable reports whether TryCatch must let err propagate past
// catch_node_id instead of treating it as recoverable. §4.6.6 says TryCatch
// recovers any error "whose class is not Fatal", but §7 separately states
// "Configuration errors are always fatal to the current execution" — this
// implementation resolves that tension by treating Configuration the same
// as Fatal for TryCatch purposes, since a misconfigured node is not a
// condition a catch branch can meaningfully handle.
func NonRecoverable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ClassFatal || e.Class == ClassConfiguration
	}
	return false
}

// CodeOf extracts the Code from err, or "" if err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
