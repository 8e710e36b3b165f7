package errors

import (
	// Go Internal Packages
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error so callers can map it to a response or a saga outcome.
type Kind uint8

const (
	Other Kind = iota
	Invalid
	NotFound
	Conflict
	Unavailable
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case NotFound:
		return "not found"
	case Conflict:
		return "conflict"
	case Unavailable:
		return "unavailable"
	}
	return "other"
}

// Error is a kinded error with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a kinded error.
func E(kind Kind, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the outermost *Error in the chain, Other when there is none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// Saga failure taxonomy. Ledger and conversion failures are turned into FAILED status
// events by the handlers; only MalformedEvent and UnknownTopic escape to the dead-letter path.
var (
	ErrAccountNotFound   = E(NotFound, "account not found", nil)
	ErrTxnNotFound       = E(NotFound, "transaction not found", nil)
	ErrInsufficientFunds = E(Conflict, "insufficient balance", nil)
	ErrCurrencyMismatch  = E(Invalid, "cross-border transfer not allowed on bank rails", nil)
	ErrConversionFailed  = E(Unavailable, "currency conversion failed", nil)
	ErrMalformedEvent    = E(Invalid, "malformed event", nil)
	ErrUnknownTopic      = E(Invalid, "unknown topic", nil)
	ErrDuplicateDelivery = E(Conflict, "duplicate delivery", nil)
)

// Wrap annotates a taxonomy error with detail while keeping errors.Is working.
func Wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func New(text string) error { return stderrors.New(text) }

// ValidationErrors collects field level problems and reports them as one error.
type ValidationErrors struct {
	fields map[string][]string
}

func ValidationErrs() *ValidationErrors {
	return &ValidationErrors{fields: make(map[string][]string)}
}

func (v *ValidationErrors) Add(field, problem string) {
	v.fields[field] = append(v.fields[field], problem)
}

func (v *ValidationErrors) Len() int { return len(v.fields) }

// Err returns nil when nothing was added.
func (v *ValidationErrors) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, strings.Join(v.fields[k], ", ")))
	}
	return E(Invalid, strings.Join(parts, "; "), nil)
}
