package readprop

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Kinds of read failures, test them with errors.Is.
var (
	ErrInvalidObjectIdentifier = errors.New("invalid object identifier")
	ErrUnsupportedProperty     = errors.New("unsupported property")
	ErrProtocol                = errors.New("protocol error")
	ErrUnexpectedResponseType  = errors.New("unexpected response type")
	ErrTimeout                 = errors.New("timeout")
	ErrUnknownResponseDatatype = errors.New("unknown response datatype")
	ErrMalformedValue          = errors.New("malformed property value")
	ErrCanceled                = errors.New("canceled")
)

var kinds = []error{
	ErrInvalidObjectIdentifier,
	ErrUnsupportedProperty,
	ErrProtocol,
	ErrUnexpectedResponseType,
	ErrTimeout,
	ErrUnknownResponseDatatype,
	ErrMalformedValue,
	ErrCanceled,
}

// TimeoutError is returned when no outcome arrived within the timeout.
type TimeoutError struct {
	Address string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %g seconds", e.Address, e.Timeout.Seconds())
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// UnexpectedResponseError carries the response received in place of a
// ReadProperty ack.
type UnexpectedResponseError struct {
	Got string
}

func (e *UnexpectedResponseError) Error() string {
	return "expected ReadProperty ack, got " + e.Got
}

func (e *UnexpectedResponseError) Is(target error) bool {
	return target == ErrUnexpectedResponseType
}

// ReadError reports a failed read along with the target it was for.
type ReadError struct {
	Address    string
	ObjectType string
	Instance   uint32
	Property   string
	ArrayIndex *uint32
	Err        error
}

func newReadError(pa PropertyAddress, err error) *ReadError {
	return &ReadError{
		Address:    pa.Address,
		ObjectType: pa.ObjectType,
		Instance:   pa.Instance,
		Property:   pa.Property,
		ArrayIndex: pa.ArrayIndex,
		Err:        err,
	}
}

func (e *ReadError) Error() string {
	property := e.Property
	if e.ArrayIndex != nil {
		property += "[" + strconv.FormatUint(uint64(*e.ArrayIndex), 10) + "]"
	}
	return fmt.Sprintf("read %s:%d %s at %s: %v", e.ObjectType, e.Instance, property, e.Address, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Kind returns the sentinel classifying e, nil if none does.
func (e *ReadError) Kind() error {
	for _, kind := range kinds {
		if errors.Is(e.Err, kind) {
			return kind
		}
	}
	return nil
}
