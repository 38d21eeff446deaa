package api

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Kind classifies a transport failure.
type Kind int

const (
	KindInvalidURL Kind = iota + 1
	KindInvalidResponse
	KindRequestFailed
	KindDecodingFailed
	KindUnreachable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid url"
	case KindInvalidResponse:
		return "invalid response"
	case KindRequestFailed:
		return "request failed"
	case KindDecodingFailed:
		return "decoding failed"
	case KindUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Error is the classified failure returned by Transport.Do.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, KindRequestFailed only
	Message string // problem text extracted from the response, if any
	Err     error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrInvalidURL      = &Error{Kind: KindInvalidURL}
	ErrInvalidResponse = &Error{Kind: KindInvalidResponse}
	ErrRequestFailed   = &Error{Kind: KindRequestFailed}
	ErrDecodingFailed  = &Error{Kind: KindDecodingFailed}
	ErrUnreachable     = &Error{Kind: KindUnreachable}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
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

// Is matches sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Status == 0 || t.Status == e.Status)
}

// Retryable reports whether another attempt may succeed: network failures
// and 5xx responses.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindUnreachable:
		return true
	case KindRequestFailed:
		return e.Status >= 500 && e.Status < 600
	default:
		return false
	}
}

// UserMessage returns text suitable for display: the controller's problem
// message when it sent one, else a generic description of the kind.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Kind {
	case KindInvalidURL:
		return "The controller address is not a valid URL."
	case KindUnreachable:
		return "The controller could not be reached."
	case KindDecodingFailed:
		return "The controller sent a response that could not be read."
	case KindRequestFailed:
		if text := http.StatusText(e.Status); text != "" {
			return fmt.Sprintf("The controller rejected the request (%d %s).", e.Status, text)
		}
		return fmt.Sprintf("The controller rejected the request (%d).", e.Status)
	default:
		return "The controller sent an unexpected response."
	}
}

// UserMessage returns a display string for any error, using the classified
// message when err wraps an *Error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return err.Error()
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Retryable()
}

func classifyTransport(err error) *Error {
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindInvalidResponse, Err: err}
	}
	if isNetworkFailure(err) {
		return &Error{Kind: KindUnreachable, Err: err}
	}
	return &Error{Kind: KindInvalidResponse, Err: err}
}

func isNetworkFailure(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	for _, errno := range []syscall.Errno{
		syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ECONNABORTED,
		syscall.EPIPE, syscall.ENETUNREACH, syscall.EHOSTUNREACH, syscall.ENETDOWN,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return true
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var unknownAuth x509.UnknownAuthorityError
	if errors.As(err, &unknownAuth) {
		return true
	}
	var hostErr x509.HostnameError
	return errors.As(err, &hostErr)
}

const maxProblemText = 512

func statusError(status int, body []byte) *Error {
	return &Error{Kind: KindRequestFailed, Status: status, Message: problemMessage(body)}
}

// problemMessage extracts a human message from an error body: a JSON object's
// message, detail, error or description field, else the trimmed raw text.
func problemMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var problem map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &problem); err == nil {
		for _, key := range []string{"message", "detail", "error", "description"} {
			raw, ok := problem[key]
			if !ok {
				continue
			}
			var text string
			if err := json.Unmarshal(raw, &text); err == nil && strings.TrimSpace(text) != "" {
				return strings.TrimSpace(text)
			}
		}
	}
	if len(trimmed) > maxProblemText {
		trimmed = trimmed[:maxProblemText]
	}
	return trimmed
}
