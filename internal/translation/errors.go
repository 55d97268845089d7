package translation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorKind classifies translation failures for the retry policy.
type ErrorKind string

const (
	KindTransient ErrorKind = "transient"
	KindPermanent ErrorKind = "permanent"
)

var (
	// ErrCountMismatch marks a response whose length differs from the request.
	ErrCountMismatch = errors.New("translated text count mismatch")
	// ErrEmptyTranslation marks a blank result for a cue that has text.
	ErrEmptyTranslation = errors.New("empty translation for non-empty cue")
	// ErrNoTranslator is returned when the orchestrator has no collaborator.
	ErrNoTranslator = errors.New("translation: translator not configured")
)

// ServiceError is the terminal failure of one batch.
type ServiceError struct {
	Kind     ErrorKind
	BatchID  int
	Attempts int
	Detail   string
	Err      error
}

func (e *ServiceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "translation batch %d failed (%s", e.BatchID, e.Kind)
	if e.Attempts > 0 {
		fmt.Fprintf(&b, " after %d attempt", e.Attempts)
		if e.Attempts != 1 {
			b.WriteByte('s')
		}
	}
	b.WriteByte(')')
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Permanent reports whether the failure must not be retried.
func (e *ServiceError) Permanent() bool { return e.Kind == KindPermanent }

type classifiedError struct {
	kind ErrorKind
	err  error
}

func (e *classifiedError) Error() string { return e.err.Error() }
func (e *classifiedError) Unwrap() error { return e.err }

// Transient tags err as retryable. Translator implementations use it for
// network failures, rate limiting and server errors.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{kind: KindTransient, err: err}
}

// Permanent tags err as not retryable: bad credentials, exhausted quota,
// policy rejection.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{kind: KindPermanent, err: err}
}

// KindOf classifies err. Explicit tags win; timeouts and temporary network
// errors are transient; anything else is permanent.
func KindOf(err error) ErrorKind {
	var ce *classifiedError
	if errors.As(err, &ce) {
		return ce.kind
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrCountMismatch) || errors.Is(err, ErrEmptyTranslation) {
		return KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	return KindPermanent
}
