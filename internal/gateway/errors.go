package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies why a gateway call produced no data
type Kind int

const (
	KindUnknown Kind = iota
	// KindTransport covers connection, DNS and timeout failures
	KindTransport
	// KindServer is any non-200 response
	KindServer
	// KindDecode is a body that could not be parsed
	KindDecode
	// KindLookupMiss is a well-formed response without the expected field
	KindLookupMiss
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport_failure"
	case KindServer:
		return "server_error"
	case KindDecode:
		return "decode_failure"
	case KindLookupMiss:
		return "lookup_miss"
	default:
		return "unknown"
	}
}

// ErrLookupMiss is wrapped by every KindLookupMiss error
var ErrLookupMiss = errors.New("expected field absent")

// Error is returned by every gateway call that produced no data
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindServer:
		return fmt.Sprintf("%s: %s: status %d", e.Op, e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of a gateway error, KindUnknown for nil or
// foreign errors
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindUnknown
}

func lookupMiss(op, field string) error {
	return &Error{Kind: KindLookupMiss, Op: op, Err: fmt.Errorf("%w: %s", ErrLookupMiss, field)}
}
