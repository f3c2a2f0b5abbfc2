package readprop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/baetyl/baetyl-bacnet-reader/bacip"
)

// Await blocks until tx is resolved, the timeout elapses or ctx is done,
// and returns the ReadProperty ack. When the wait is given up the
// transaction is failed so a late response is dropped by the client; if
// it resolved concurrently, that outcome is kept. Nothing is retried.
func Await(ctx context.Context, tx *bacip.Transaction, timeout time.Duration) (*bacip.ReadProperty, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-tx.Done():
	case <-timer.C:
		tx.Fail(&TimeoutError{Address: tx.Destination, Timeout: timeout})
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			tx.Fail(fmt.Errorf("%w: request to %s: %w", ErrTimeout, tx.Destination, ctx.Err()))
		} else {
			tx.Fail(fmt.Errorf("%w: %w", ErrCanceled, ctx.Err()))
		}
	}

	apdu, err := tx.Result()
	if err != nil {
		if errors.Is(err, ErrTimeout) || errors.Is(err, ErrCanceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	switch p := apdu.Payload.(type) {
	case *bacip.ApduError:
		return nil, fmt.Errorf("%w: %w", ErrProtocol, *p)
	case *bacip.RejectError:
		return nil, fmt.Errorf("%w: %w", ErrProtocol, *p)
	case *bacip.AbortError:
		return nil, fmt.Errorf("%w: %w", ErrProtocol, *p)
	}
	ack, ok := apdu.Payload.(*bacip.ReadProperty)
	if apdu.DataType != bacip.ComplexAck || apdu.ServiceType != bacip.ServiceConfirmedReadProperty || !ok {
		return nil, &UnexpectedResponseError{Got: describe(apdu)}
	}
	return ack, nil
}

func describe(apdu *bacip.APDU) string {
	switch apdu.DataType {
	case bacip.SimpleAck, bacip.ComplexAck:
		return fmt.Sprintf("%s(%s)", apdu.DataType, apdu.ServiceType)
	}
	return apdu.DataType.String()
}
