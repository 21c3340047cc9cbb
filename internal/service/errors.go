package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

type PublishErrorKind int

const (
	KindEmptyContent PublishErrorKind = iota + 1
	KindMissingPageID
	KindMissingToken
	KindNotConnected
	KindPlatformRejected
	KindTransport
	KindUnsupportedPlatform
	KindAlreadyPublished
	KindInProgress
	KindNotFound
	KindInvalidRequest
	KindInternal
)

func (k PublishErrorKind) String() string {
	switch k {
	case KindEmptyContent:
		return "empty_content"
	case KindMissingPageID:
		return "missing_page_id"
	case KindMissingToken:
		return "missing_token"
	case KindNotConnected:
		return "not_connected"
	case KindPlatformRejected:
		return "platform_rejected"
	case KindTransport:
		return "transport"
	case KindUnsupportedPlatform:
		return "unsupported_platform"
	case KindAlreadyPublished:
		return "already_published"
	case KindInProgress:
		return "in_progress"
	case KindNotFound:
		return "not_found"
	case KindInvalidRequest:
		return "invalid_request"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// PublishError is the value every publishing failure is reported as.
// Callers branch on Kind; Error renders the human readable reason that is
// persisted as the post's failure_reason.
type PublishError struct {
	Kind    PublishErrorKind
	Message string

	// Populated for KindPlatformRejected.
	Type       string
	Code       int
	Subcode    int
	UserTitle  string
	UserMsg    string
	TraceID    string
	StatusCode int
	StatusText string

	Cause error
}

func (e *PublishError) Error() string {
	switch e.Kind {
	case KindPlatformRejected:
		return e.platformMessage()
	case KindTransport:
		if e.Cause != nil {
			return fmt.Sprintf("Failed to publish to Facebook: %v", e.Cause)
		}
		return "Failed to publish to Facebook"
	default:
		return e.Message
	}
}

func (e *PublishError) Unwrap() error {
	return e.Cause
}

func (e *PublishError) platformMessage() string {
	if e.Message == "" && e.Type == "" && e.Code == 0 {
		if e.StatusCode != 0 {
			return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.StatusText)
		}
		return "Unknown Facebook API error"
	}

	var b strings.Builder
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString("Facebook API error")
	}
	if e.Type != "" {
		fmt.Fprintf(&b, " (Type: %s)", e.Type)
	}
	if e.Code != 0 {
		fmt.Fprintf(&b, " (Code: %d)", e.Code)
	}
	if e.Subcode != 0 {
		fmt.Fprintf(&b, " (Subcode: %d)", e.Subcode)
	}
	if e.TraceID != "" {
		fmt.Fprintf(&b, " (Trace ID: %s)", e.TraceID)
	}
	if e.UserTitle != "" {
		fmt.Fprintf(&b, " - %s", e.UserTitle)
	}
	if e.UserMsg != "" {
		fmt.Fprintf(&b, ": %s", e.UserMsg)
	}
	return b.String()
}

func newPublishError(kind PublishErrorKind, format string, args ...any) *PublishError {
	return &PublishError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ErrorKind returns the kind of err if it is, or wraps, a *PublishError.
func ErrorKind(err error) (PublishErrorKind, bool) {
	var pe *PublishError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}
