package dispatch

import (
	"errors"

	"uml-nli-be/pkg/intent"
	"uml-nli-be/pkg/nli"
	"uml-nli-be/pkg/resolver"
)

var (
	ErrInputEmpty        = errors.New("input text is empty")
	ErrPreconditionUnmet = errors.New("nothing selected")
	ErrUnknownIntent     = errors.New("unknown intent")
	ErrQueryInFlight     = errors.New("a query is already pending for this session")
	ErrSessionNotFound   = errors.New("session not found")
	ErrEntryNotFound     = errors.New("history entry not found")
	ErrEmitFailed        = errors.New("failed to emit operation")
)

// ErrorKind classifies a failed cycle.
type ErrorKind string

const (
	KindNone               ErrorKind = ""
	KindInputEmpty         ErrorKind = "InputEmpty"
	KindServiceUnavailable ErrorKind = "ServiceUnavailable"
	KindRequestFailed      ErrorKind = "RequestFailed"
	KindResolutionFailed   ErrorKind = "ResolutionFailed"
	KindPreconditionUnmet  ErrorKind = "PreconditionUnmet"
	KindUnknownIntent      ErrorKind = "UnknownIntent"
	KindTimeout            ErrorKind = "Timeout"
)

// KindOf maps an error from any layer of the cycle to its kind.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInputEmpty):
		return KindInputEmpty
	case errors.Is(err, nli.ErrServiceUnavailable):
		return KindServiceUnavailable
	case errors.Is(err, nli.ErrTimeout):
		return KindTimeout
	case errors.Is(err, resolver.ErrResolutionFailed):
		return KindResolutionFailed
	case errors.Is(err, ErrPreconditionUnmet):
		return KindPreconditionUnmet
	case errors.Is(err, ErrUnknownIntent):
		return KindUnknownIntent
	case errors.Is(err, nli.ErrRequestFailed),
		errors.Is(err, intent.ErrInvalidSlots),
		errors.Is(err, ErrEmitFailed):
		return KindRequestFailed
	}
	return KindRequestFailed
}

const (
	msgInputEmpty       = "Input text is empty, nothing todo"
	msgNothingSelected  = "Nothing selected, please make sure to select an element"
	msgServerNotReady   = "NLI Server not ready, make sure it is running at "
	msgProcessingFailed = "Error while processing command"
)

// userMessage is the text of the notification shown for a failed cycle.
func userMessage(kind ErrorKind, serverURL string) string {
	switch kind {
	case KindInputEmpty:
		return msgInputEmpty
	case KindPreconditionUnmet:
		return msgNothingSelected
	case KindServiceUnavailable:
		return msgServerNotReady + serverURL
	}
	return msgProcessingFailed
}
