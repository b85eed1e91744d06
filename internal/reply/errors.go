package reply

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is the caller-visible classification of a failed confirm.
type ErrorCode string

const (
	CodeExpired            ErrorCode = "expired"
	CodeNotFound           ErrorCode = "not_found"
	CodeMailCreationFailed ErrorCode = "mail_creation_failed"
)

// NotFoundError means no thread matched the request, or the thread id given
// by the caller does not exist.
type NotFoundError struct {
	Query    string
	ThreadID string
	Err      error
}

func (e *NotFoundError) Error() string {
	switch {
	case e.ThreadID != "":
		return fmt.Sprintf("email thread %s was not found", e.ThreadID)
	case e.Query == "":
		return "no matching email thread found"
	}
	return fmt.Sprintf("no email thread matches %q", e.Query)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// AmbiguousTargetError means several threads matched equally well.
type AmbiguousTargetError struct {
	Query      string
	Candidates []ThreadCandidate
}

func (e *AmbiguousTargetError) Error() string {
	parts := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		parts = append(parts, fmt.Sprintf("%s (%s)", c.ThreadID, c.Subject))
	}
	return fmt.Sprintf("%d threads match %q equally well: %s", len(e.Candidates), e.Query, strings.Join(parts, ", "))
}

// FatalGatherError aborts a prepare cycle; nothing is staged.
type FatalGatherError struct {
	Err error
}

func (e *FatalGatherError) Error() string {
	return fmt.Sprintf("could not resolve the email thread to reply to: %v", e.Err)
}

func (e *FatalGatherError) Unwrap() error { return e.Err }

// GenerationError wraps a failure of the text generation service.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("draft generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// StaleTokenError is returned when a confirmation token no longer references
// a staged draft. The caller must prepare again.
type StaleTokenError struct {
	Token string
	Code  ErrorCode
}

func (e *StaleTokenError) Error() string {
	reason := "was not found"
	if e.Code == CodeExpired {
		reason = "has expired"
	}
	return fmt.Sprintf("draft %s %s; prepare the reply again", e.Token, reason)
}

// DownstreamCreationError means the mail draft could not be created after the
// token matched. Retryable is true while the staged draft is still available
// under the same token.
type DownstreamCreationError struct {
	Token     string
	Retryable bool
	Err       error
}

func (e *DownstreamCreationError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("creating mail draft failed, confirm %s again to retry: %v", e.Token, e.Err)
	}
	return fmt.Sprintf("creating mail draft failed, prepare the reply again: %v", e.Err)
}

func (e *DownstreamCreationError) Unwrap() error { return e.Err }

// WarningKind tells which non-fatal problem a Warning reports.
type WarningKind string

const (
	WarningPartialSource WarningKind = "partial_source"
	WarningParseDegraded WarningKind = "parse_degraded"
)

// Source names used in partial source warnings.
const (
	SourceHistory   = "history"
	SourceKnowledge = "knowledge"
)

// Warning is attached to a successful prepare result instead of being raised.
type Warning struct {
	Kind    WarningKind
	Source  string
	Message string
}

func (w Warning) String() string {
	if w.Source == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("%s(%s): %s", w.Kind, w.Source, w.Message)
}

// PartialSourceError builds the warning for a history or knowledge miss.
// A nil err means the source answered but had nothing.
func PartialSourceError(source string, err error) Warning {
	msg := "no results"
	if err != nil {
		msg = err.Error()
	}
	return Warning{Kind: WarningPartialSource, Source: source, Message: msg}
}

// ParseDegradedWarning builds the warning for one parser fallback.
func ParseDegradedWarning(reason string) Warning {
	return Warning{Kind: WarningParseDegraded, Message: reason}
}

// Code maps a confirm error to its caller-visible code. Unknown errors
// return the empty code.
func Code(err error) ErrorCode {
	var stale *StaleTokenError
	if errors.As(err, &stale) {
		return stale.Code
	}
	var downstream *DownstreamCreationError
	if errors.As(err, &downstream) {
		return CodeMailCreationFailed
	}
	return ""
}
