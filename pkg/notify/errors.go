package notify

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a stable, machine-readable error code attached to every error
// the dispatch engine returns. Codes are part of the public contract and
// never change between releases.
type Code string

const (
	CodeConfiguration    Code = "CONFIGURATION_ERROR"
	CodeChannelNotFound  Code = "CHANNEL_NOT_FOUND"
	CodeChannelNotReady  Code = "CHANNEL_NOT_READY"
	CodeInvalidRequest   Code = "INVALID_REQUEST"
	CodeInvalidRecipient Code = "INVALID_RECIPIENT"
	CodeProvider         Code = "PROVIDER_ERROR"
	CodeInvalidResponse  Code = "INVALID_RESPONSE"
	CodeSendFailed       Code = "SEND_FAILED"
	CodeUnknown          Code = "UNKNOWN_ERROR"
)

// Error is the base error type for the dispatch engine. Every channel
// implementation must translate vendor-specific failures into an *Error
// rather than leaking raw vendor errors to callers.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports code equality so callers can match taxonomy kinds with
// errors.Is(err, &Error{Code: CodeChannelNotFound}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetail attaches a key-value pair to the error and returns it,
// allowing call-site chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewConfigurationError reports missing or invalid channel configuration.
// Channels raising it at construction stay unusable until reconfigured.
func NewConfigurationError(format string, args ...any) *Error {
	return &Error{Code: CodeConfiguration, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError reports malformed caller input. Validation failures
// are always surfaced and never retried.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// NewChannelNotFoundError reports a lookup for an unregistered channel name.
func NewChannelNotFoundError(name string) *Error {
	return &Error{
		Code:    CodeChannelNotFound,
		Message: fmt.Sprintf("channel %q is not registered", name),
		Details: map[string]any{"channel": name},
	}
}

// NewChannelNotReadyError reports a registered channel whose configuration
// is insufficient for sending.
func NewChannelNotReadyError(name string) *Error {
	return &Error{
		Code:    CodeChannelNotReady,
		Message: fmt.Sprintf("channel %q is registered but not ready", name),
		Details: map[string]any{"channel": name},
	}
}

// NewInvalidRecipientError reports that neither the explicit routing map
// nor the notifiable produced an address for a declared channel.
func NewInvalidRecipientError(channel ChannelType) *Error {
	return &Error{
		Code:    CodeInvalidRecipient,
		Message: fmt.Sprintf("no recipient address resolved for channel %q", channel),
		Details: map[string]any{"channel": string(channel)},
	}
}

// NewProviderError wraps an upstream vendor failure.
func NewProviderError(channel string, err error) *Error {
	return &Error{
		Code:    CodeProvider,
		Message: fmt.Sprintf("provider call failed on channel %q", channel),
		Details: map[string]any{"channel": channel},
		Err:     err,
	}
}

// NewInvalidResponseError reports a vendor payload that could not be parsed.
func NewInvalidResponseError(channel string, err error) *Error {
	return &Error{
		Code:    CodeInvalidResponse,
		Message: fmt.Sprintf("unparseable provider response on channel %q", channel),
		Details: map[string]any{"channel": channel},
		Err:     err,
	}
}

// AsError coerces any error into the taxonomy. Errors already carrying a
// code pass through untouched; everything else becomes UNKNOWN_ERROR.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeUnknown, Message: err.Error(), Err: err}
}

// CodeOf extracts the taxonomy code from an error chain, returning
// CodeUnknown for foreign errors and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var se *SendError
	if errors.As(err, &se) {
		return CodeSendFailed
	}
	return CodeUnknown
}

// SendError is the aggregate failure raised under the all-or-nothing
// strategy. It lists every channel attempt that failed; no partial report
// accompanies it.
type SendError struct {
	// FailedChannel is the first channel that failed, in declaration order.
	FailedChannel ChannelType
	// Failures maps each failed channel to its translated error.
	Failures map[ChannelType]*Error
	// Attempts is the total number of channel attempts in the send.
	Attempts int
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%s: %d of %d channel attempts failed (first: %s)",
		CodeSendFailed, len(e.Failures), e.Attempts, e.FailedChannel)
}

// Unwrap exposes the individual failures to errors.Is/errors.As chains.
func (e *SendError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}
