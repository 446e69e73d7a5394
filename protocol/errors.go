package protocol

import (
	"errors"
	"fmt"
)

// StatusCoder is implemented by every decoded service error, exposing
// the HTTP status it was extracted from.
type StatusCoder interface {
	HTTPStatusCode() int
}

// ClientError is a decoded 4xx error with one of the common AWS client
// error codes.
type ClientError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ClientError) HTTPStatusCode() int { return e.StatusCode }

// ServerError is a decoded 5xx error with one of the generic AWS
// server error codes.
type ServerError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServerError) HTTPStatusCode() int { return e.StatusCode }

// ResponseError is a decoded error whose code matches neither a
// configured service error nor the generic taxonomy.
type ResponseError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ResponseError) HTTPStatusCode() int { return e.StatusCode }

// UnhandledError carries a response that could not be decoded at all.
type UnhandledError struct {
	StatusCode int
	RawBody    []byte
}

func (e *UnhandledError) Error() string {
	return fmt.Sprintf("Unhandled Error (status %d)", e.StatusCode)
}

func (e *UnhandledError) HTTPStatusCode() int { return e.StatusCode }

// DecodeError reports a 2xx response body that did not decode into
// the operation's output shape.
type DecodeError struct {
	Operation string
	RawBody   []byte
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s response: %v", e.Operation, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrorCode returns the AWS error code of a decoded service error,
// or the empty string.
func ErrorCode(err error) string {
	var cerr *ClientError
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	var serr *ServerError
	if errors.As(err, &serr) {
		return serr.Code
	}
	var rerr *ResponseError
	if errors.As(err, &rerr) {
		return rerr.Code
	}
	return ""
}

var clientErrorCodes = map[string]bool{
	"AccessDenied":                true,
	"IncompleteSignature":         true,
	"InvalidAction":               true,
	"InvalidClientTokenId":        true,
	"InvalidParameterCombination": true,
	"InvalidParameterValue":       true,
	"InvalidQueryParameter":       true,
	"InvalidSignature":            true,
	"MalformedQueryString":        true,
	"MissingAction":               true,
	"MissingAuthenticationToken":  true,
	"MissingParameter":            true,
	"OptInRequired":               true,
	"RequestExpired":              true,
	"Throttling":                  true,
	"TooManyRequests":             true,
	"ValidationError":             true,
}

var serverErrorCodes = map[string]bool{
	"InternalFailure":    true,
	"ServiceUnavailable": true,
}
