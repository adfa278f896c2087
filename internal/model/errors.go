package model

import (
	"errors"
	"fmt"
)

// Kind classifies engine failures. Callers switch on Kind, never on message text.
type Kind uint8

const (
	KindInternal Kind = iota
	KindNotFound
	KindAlreadySold
	KindAlreadyHeld
	KindInvalidToken
	KindTicketNotHeld
	KindInvalidAmount
	KindExceedsBalance
	KindIllegalStateTransition
	KindInvalidInput
)

var kindNames = [...]string{
	KindInternal:               "internal",
	KindNotFound:               "not_found",
	KindAlreadySold:            "already_sold",
	KindAlreadyHeld:            "already_held",
	KindInvalidToken:           "invalid_token",
	KindTicketNotHeld:          "ticket_not_held",
	KindInvalidAmount:          "invalid_amount",
	KindExceedsBalance:         "exceeds_balance",
	KindIllegalStateTransition: "illegal_state_transition",
	KindInvalidInput:           "invalid_input",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error is the structured error returned by every engine operation.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Msg != "":
		return e.Op + ": " + e.Msg
	case e.Msg != "":
		return e.Msg
	case e.Op != "":
		return e.Op + ": " + e.Kind.String()
	}
	return e.Kind.String()
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrAlreadySold            = &Error{Kind: KindAlreadySold}
	ErrAlreadyHeld            = &Error{Kind: KindAlreadyHeld}
	ErrInvalidToken           = &Error{Kind: KindInvalidToken}
	ErrTicketNotHeld          = &Error{Kind: KindTicketNotHeld}
	ErrInvalidAmount          = &Error{Kind: KindInvalidAmount}
	ErrExceedsBalance         = &Error{Kind: KindExceedsBalance}
	ErrIllegalStateTransition = &Error{Kind: KindIllegalStateTransition}
	ErrInvalidInput           = &Error{Kind: KindInvalidInput}
)

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind of err; anything that is not an *Error is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
