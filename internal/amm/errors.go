package amm

import (
	"errors"
	"fmt"
)

// Kind classifies a failed pool computation.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindInsufficientBalance
	KindInvalidLPAmount
	KindExcessiveBurn
	KindSlippageExceeded
	KindArithmeticOverflow
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation error"
	case KindInsufficientBalance:
		return "insufficient balance"
	case KindInvalidLPAmount:
		return "invalid lp amount"
	case KindExcessiveBurn:
		return "excessive burn amount"
	case KindSlippageExceeded:
		return "slippage exceeded"
	case KindArithmeticOverflow:
		return "arithmetic overflow"
	default:
		return "unknown error"
	}
}

// Error is returned by every core operation. Two errors are equal under
// errors.Is when their kinds match, so the exported sentinels can be used
// to test the kind of a detailed error.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Detail
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrInsufficientBalance = &Error{Kind: KindInsufficientBalance}
	ErrInvalidLPAmount     = &Error{Kind: KindInvalidLPAmount}
	ErrExcessiveBurn       = &Error{Kind: KindExcessiveBurn}
	ErrSlippageExceeded    = &Error{Kind: KindSlippageExceeded}
	ErrArithmeticOverflow  = &Error{Kind: KindArithmeticOverflow}
)

func newError(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of err, or KindUnknown when err did not come
// from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
