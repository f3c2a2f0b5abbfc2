package readprop

import (
	"context"
	"time"

	"github.com/baetyl/baetyl-go/v2/log"

	"github.com/baetyl/baetyl-bacnet-reader/bacip"
)

// DefaultTimeout of a read when none is given
const DefaultTimeout = time.Second

// Submitter hands a request to the transport. *bacip.Client implements it.
type Submitter interface {
	Submit(destination string, request bacip.ReadProperty) *bacip.Transaction
}

// Reader runs whole reads against one transport and one schema.
type Reader struct {
	client   Submitter
	resolver Resolver
	timeout  time.Duration
	log      *log.Logger
}

// Option configures a Reader
type Option func(*Reader)

// WithTimeout sets the timeout used when Read is given none
func WithTimeout(d time.Duration) Option {
	return func(r *Reader) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.log = l
		}
	}
}

func NewReader(client Submitter, resolver Resolver, opts ...Option) *Reader {
	r := &Reader{
		client:   client,
		resolver: resolver,
		timeout:  DefaultTimeout,
		log:      log.L(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(log.Any("module", "readprop"))
	return r
}

// Read reads the property described by pa. A timeout <= 0 selects the
// reader default. Every failure is a *ReadError.
func (r *Reader) Read(ctx context.Context, pa PropertyAddress, timeout time.Duration) (interface{}, error) {
	if timeout <= 0 {
		timeout = r.timeout
	}
	req, err := Build(r.resolver, pa)
	if err != nil {
		return nil, newReadError(pa, err)
	}
	tx := r.client.Submit(req.Address, req.Service)
	ack, err := Await(ctx, tx, timeout)
	if err != nil {
		return nil, newReadError(pa, err)
	}
	value, err := Decode(r.resolver, ack)
	if err != nil {
		return nil, newReadError(pa, err)
	}
	r.log.Debug("property read",
		log.Any("address", pa.Address),
		log.Any("object", req.Service.ObjectID.String()),
		log.Any("property", req.Service.Property.String()),
		log.Any("value", value))
	return value, nil
}
