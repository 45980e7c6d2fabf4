package core

import (
	"errors"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

type ErrorKind string

const (
	KindManifestNotFound    ErrorKind = "ManifestNotFound"
	KindUpstreamUnavailable ErrorKind = "UpstreamUnavailable"
	KindIconNotFound        ErrorKind = "IconNotFound"
	KindDownloadFailed      ErrorKind = "DownloadFailed"
	KindImportRejected      ErrorKind = "ImportRejected"
	KindImportTimedOut      ErrorKind = "ImportTimedOut"
	KindAssignmentRejected  ErrorKind = "AssignmentRejected"
	KindInvalidInput        ErrorKind = "InvalidInput"
	KindUnauthorized        ErrorKind = "Unauthorized"
	KindCanceled            ErrorKind = "Canceled"
	KindInternal            ErrorKind = "Internal"
)

// KindedError attaches an import error kind to a coded error.
type KindedError struct {
	Kind ErrorKind
	Err  error
}

func (e *KindedError) Error() string {
	return e.Err.Error()
}

func (e *KindedError) Unwrap() error {
	return e.Err
}

var kindCodes = map[ErrorKind]errbuilder.ErrCode{
	KindManifestNotFound:    errbuilder.CodeNotFound,
	KindUpstreamUnavailable: errbuilder.CodeInternal,
	KindIconNotFound:        errbuilder.CodeNotFound,
	KindDownloadFailed:      errbuilder.CodeInternal,
	KindImportRejected:      errbuilder.CodeFailedPrecondition,
	KindImportTimedOut:      errbuilder.CodeFailedPrecondition,
	KindAssignmentRejected:  errbuilder.CodeFailedPrecondition,
	KindInvalidInput:        errbuilder.CodeInvalidArgument,
	KindUnauthorized:        errbuilder.CodePermissionDenied,
	KindCanceled:            errbuilder.CodeInternal,
	KindInternal:            errbuilder.CodeInternal,
}

// NewError builds a coded error of the given kind. cause may be nil.
func NewError(kind ErrorKind, msg string, cause error) error {
	code, ok := kindCodes[kind]
	if !ok {
		code = errbuilder.CodeInternal
	}
	builder := errbuilder.New().
		WithCode(code).
		WithMsg(msg)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return &KindedError{Kind: kind, Err: builder}
}

// KindOf reports the import error kind of err. Errors without an explicit
// kind are classified from their errbuilder code.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var kinded *KindedError
	if errors.As(err, &kinded) {
		return kinded.Kind
	}
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument:
		return KindInvalidInput
	case errbuilder.CodePermissionDenied:
		return KindUnauthorized
	default:
		return KindInternal
	}
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// Message returns the short errbuilder message of err when present.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}
