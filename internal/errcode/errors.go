// Package errcode registers the registry's HTTP-facing error codes —
// validation failures (including a publish-time digest mismatch),
// dependency failures, internal errors and not-found — each carrying its own
// HTTP status, the way registry/api/errcode gives the teacher's
// blob/manifest errors a uniform JSON envelope and status code.
package errcode

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCode is a unique, registered error condition.
type ErrorCode int

// ErrorDescriptor describes a single error condition: its wire value,
// human message, and HTTP status.
type ErrorDescriptor struct {
	// Value is the unique string identifier serialized in the JSON
	// envelope, e.g. "NAMESPACE_MISMATCH".
	Value string

	// Message is the default human-readable message.
	Message string

	// HTTPStatusCode is the status used when this error is the
	// response's leading error.
	HTTPStatusCode int
}

var (
	descriptors = map[ErrorCode]ErrorDescriptor{}
	nextCode    ErrorCode
)

func register(d ErrorDescriptor) ErrorCode {
	nextCode++
	descriptors[nextCode] = d
	return nextCode
}

// Descriptor returns the registered descriptor for code.
func (c ErrorCode) Descriptor() ErrorDescriptor {
	return descriptors[c]
}

// Error implements the error interface, returning the descriptor's
// message.
func (c ErrorCode) Error() string {
	return c.Descriptor().Message
}

// WithMessage returns an Error carrying code with message overriding the
// descriptor's default, e.g. to embed a matched secret pattern or a
// Levenshtein distance.
func (c ErrorCode) WithMessage(format string, args ...any) Error {
	return Error{Code: c, Message: fmt.Sprintf(format, args...)}
}

// WithDetail attaches a structured payload alongside the message, for
// fields like expected/actual digests that a caller may want to parse.
func (c ErrorCode) WithDetail(detail any) Error {
	return Error{Code: c, Message: c.Descriptor().Message, Detail: detail}
}

// Error pairs an ErrorCode with a specific message and optional detail
// payload, e.g. the exact missing-file path or the namespace mismatch.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Detail  any       `json:"detail,omitempty"`
}

func (e Error) Error() string {
	return e.Message
}

// MarshalJSON renders the wire shape {code, message, detail?} using the
// descriptor's Value string rather than the process-local numeric code.
func (e Error) MarshalJSON() ([]byte, error) {
	type wire struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  any    `json:"detail,omitempty"`
	}
	return json.Marshal(wire{
		Code:    e.Code.Descriptor().Value,
		Message: e.Message,
		Detail:  e.Detail,
	})
}

var (
	// ErrUnauthorized is returned when the bearer token is missing or
	// does not resolve to a namespace — HTTP 401.
	ErrUnauthorized = register(ErrorDescriptor{
		Value:          "UNAUTHORIZED",
		Message:        "missing or invalid bearer token",
		HTTPStatusCode: http.StatusUnauthorized,
	})

	// ErrNamespaceMismatch is returned when the manifest's namespace
	// does not match the authenticated caller's slug — HTTP 403.
	ErrNamespaceMismatch = register(ErrorDescriptor{
		Value:          "NAMESPACE_MISMATCH",
		Message:        "manifest namespace does not match authenticated namespace",
		HTTPStatusCode: http.StatusForbidden,
	})

	// ErrVersionExists is returned when the (package, version) pair has
	// already been published — HTTP 409.
	ErrVersionExists = register(ErrorDescriptor{
		Value:          "VERSION_EXISTS",
		Message:        "this package version already exists",
		HTTPStatusCode: http.StatusConflict,
	})

	// ErrInvalidArtifact covers every unparseable-tarball, missing- or
	// invalid-manifest, digest-mismatch, or description-too-short case
	// — HTTP 422.
	ErrInvalidArtifact = register(ErrorDescriptor{
		Value:          "INVALID_ARTIFACT",
		Message:        "artifact failed validation",
		HTTPStatusCode: http.StatusUnprocessableEntity,
	})

	// ErrDependencyUnavailable covers object storage, secret store, and
	// mail delivery failures — HTTP 503, retryable by the caller.
	ErrDependencyUnavailable = register(ErrorDescriptor{
		Value:          "DEPENDENCY_UNAVAILABLE",
		Message:        "a dependency required to complete this request is unavailable",
		HTTPStatusCode: http.StatusServiceUnavailable,
	})

	// ErrInternal covers database failures and program bugs — HTTP 500.
	ErrInternal = register(ErrorDescriptor{
		Value:          "INTERNAL",
		Message:        "internal error",
		HTTPStatusCode: http.StatusInternalServerError,
	})

	// ErrNotFound covers missing jobs, packages, versions — HTTP 404.
	ErrNotFound = register(ErrorDescriptor{
		Value:          "NOT_FOUND",
		Message:        "not found",
		HTTPStatusCode: http.StatusNotFound,
	})
)

// ServeJSON writes err as a JSON envelope {"errors":[...]} with the
// status code of its leading ErrorCode, mirroring the teacher's
// errcode.ServeJSON envelope shape.
func ServeJSON(w http.ResponseWriter, err error) error {
	w.Header().Set("Content-Type", "application/json")

	var wireErr Error
	switch e := err.(type) {
	case Error:
		wireErr = e
	case ErrorCode:
		wireErr = Error{Code: e, Message: e.Descriptor().Message}
	default:
		wireErr = Error{Code: ErrInternal, Message: err.Error()}
	}

	status := wireErr.Code.Descriptor().HTTPStatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(struct {
		Errors []Error `json:"errors"`
	}{Errors: []Error{wireErr}})
}
