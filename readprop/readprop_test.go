package readprop

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baetyl/baetyl-bacnet-reader/bacip"
	"github.com/baetyl/baetyl-bacnet-reader/bacnet"
)

func index(i uint32) *uint32 {
	return &i
}

func ackAPDU(rp bacip.ReadProperty, value string) bacip.APDU {
	raw, err := hex.DecodeString(value)
	if err != nil {
		panic(err)
	}
	rp.Value = raw
	return bacip.APDU{
		DataType:    bacip.ComplexAck,
		ServiceType: bacip.ServiceConfirmedReadProperty,
		Payload:     &rp,
	}
}

// fakeSubmitter resolves every submitted transaction with respond, from
// an other goroutine like the client loop does.
type fakeSubmitter struct {
	mu        sync.Mutex
	submitted []string
	respond   func(tx *bacip.Transaction)
}

func (f *fakeSubmitter) Submit(destination string, request bacip.ReadProperty) *bacip.Transaction {
	tx := bacip.NewTransaction(destination, request)
	f.mu.Lock()
	f.submitted = append(f.submitted, destination)
	f.mu.Unlock()
	if f.respond != nil {
		go f.respond(tx)
	}
	return tx
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

func respondValue(value string) func(tx *bacip.Transaction) {
	return func(tx *bacip.Transaction) {
		tx.Complete(ackAPDU(tx.Request, value))
	}
}

// fakeResolver only knows the pairs it holds
type fakeResolver map[bacnet.ObjectType]map[bacnet.PropertyType]bacnet.Datatype

func (f fakeResolver) Resolve(o bacnet.ObjectType, p bacnet.PropertyType) (bacnet.Datatype, bool) {
	d, ok := f[o][p]
	return d, ok
}

func TestBuild(t *testing.T) {
	schema := bacnet.DefaultSchema()
	tests := []struct {
		name     string
		pa       PropertyAddress
		oid      bacnet.ObjectID
		prop     bacnet.PropertyType
		datatype bacnet.Datatype
	}{
		{
			name:     "analog input present value",
			pa:       PropertyAddress{Address: "10.0.0.5:47808", ObjectType: "analogInput", Instance: 42, Property: "presentValue"},
			oid:      bacnet.ObjectID{Type: bacnet.AnalogInput, Instance: 42},
			prop:     bacnet.PresentValue,
			datatype: bacnet.Datatype{Type: bacnet.TypeReal},
		},
		{
			name:     "hyphenated names",
			pa:       PropertyAddress{Address: "10.0.0.5", ObjectType: "binary-value", Instance: 3, Property: "out-of-service"},
			oid:      bacnet.ObjectID{Type: bacnet.BinaryValue, Instance: 3},
			prop:     bacnet.OutOfService,
			datatype: bacnet.Datatype{Type: bacnet.TypeBoolean},
		},
		{
			name:     "numeric identifiers",
			pa:       PropertyAddress{Address: "10.0.0.5", ObjectType: "8", Instance: bacnet.MaxInstance, Property: "76"},
			oid:      bacnet.ObjectID{Type: bacnet.BacnetDevice, Instance: bacnet.MaxInstance},
			prop:     bacnet.ObjectList,
			datatype: bacnet.Datatype{Type: bacnet.TypeObjectID, Array: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Build(schema, tt.pa)
			require.NoError(t, err)
			assert.Equal(t, tt.pa.Address, req.Address)
			assert.Equal(t, tt.oid, req.Service.ObjectID)
			assert.Equal(t, tt.prop, req.Service.Property.Type)
			assert.Nil(t, req.Service.Property.ArrayIndex)
			assert.Nil(t, req.Service.Value)
			assert.Equal(t, tt.datatype, req.Datatype)

			encoded, err := req.Service.ObjectID.Encode()
			require.NoError(t, err)
			assert.Equal(t, tt.oid, bacnet.ObjectIDFromUint32(encoded))
		})
	}
}

func TestBuildArrayIndex(t *testing.T) {
	pa := PropertyAddress{Address: "10.0.0.5", ObjectType: "device", Instance: 1, Property: "objectList", ArrayIndex: index(0)}
	req, err := Build(bacnet.DefaultSchema(), pa)
	require.NoError(t, err)
	require.NotNil(t, req.Service.Property.ArrayIndex)
	assert.Equal(t, uint32(0), *req.Service.Property.ArrayIndex)

	// the request does not share the caller's index
	*pa.ArrayIndex = 4
	assert.Equal(t, uint32(0), *req.Service.Property.ArrayIndex)
}

func TestBuildErrors(t *testing.T) {
	schema := bacnet.DefaultSchema()
	tests := []struct {
		name string
		pa   PropertyAddress
		kind error
	}{
		{"unknown object type", PropertyAddress{ObjectType: "thermostat", Property: "presentValue"}, ErrInvalidObjectIdentifier},
		{"object type out of range", PropertyAddress{ObjectType: "1024", Property: "presentValue"}, ErrInvalidObjectIdentifier},
		{"instance out of range", PropertyAddress{ObjectType: "analogInput", Instance: bacnet.MaxInstance + 1, Property: "presentValue"}, ErrInvalidObjectIdentifier},
		{"unknown property", PropertyAddress{ObjectType: "analogInput", Property: "temperature"}, ErrUnsupportedProperty},
		{"property of an other object type", PropertyAddress{ObjectType: "analogInput", Property: "stateText"}, ErrUnsupportedProperty},
		{"proprietary object type", PropertyAddress{ObjectType: "200", Property: "presentValue"}, ErrUnsupportedProperty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Build(schema, tt.pa)
			assert.Nil(t, req)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestAwaitAck(t *testing.T) {
	rp := bacip.ReadProperty{ObjectID: bacnet.ObjectID{Type: bacnet.AnalogInput, Instance: 42}}
	tx := bacip.NewTransaction("10.0.0.5:47808", rp)
	go tx.Complete(ackAPDU(rp, "4442910000"))

	ack, err := Await(context.Background(), tx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, rp.ObjectID, ack.ObjectID)
	assert.Equal(t, bacip.RawValue{0x44, 0x42, 0x91, 0x00, 0x00}, ack.Value)
}

func TestAwaitFailures(t *testing.T) {
	tests := []struct {
		name    string
		resolve func(tx *bacip.Transaction)
		kind    error
		message string
	}{
		{
			name: "error pdu",
			resolve: func(tx *bacip.Transaction) {
				tx.Complete(bacip.APDU{DataType: bacip.Error, ServiceType: bacip.ServiceConfirmedReadProperty,
					Payload: &bacip.ApduError{Class: bacnet.ErrorClassProperty, Code: bacnet.ErrorCodeUnknownProperty}})
			},
			kind:    ErrProtocol,
			message: "protocol error: apdu error class property code unknown-property",
		},
		{
			name: "reject pdu",
			resolve: func(tx *bacip.Transaction) {
				tx.Complete(bacip.APDU{DataType: bacip.Reject, Payload: &bacip.RejectError{Reason: bacnet.RejectReasonUnrecognizedService}})
			},
			kind:    ErrProtocol,
			message: "protocol error: request rejected: unrecognized-service",
		},
		{
			name: "abort pdu",
			resolve: func(tx *bacip.Transaction) {
				tx.Complete(bacip.APDU{DataType: bacip.Abort, Server: true,
					Payload: &bacip.AbortError{Server: true, Reason: bacnet.AbortReasonSegmentationNotSupported}})
			},
			kind:    ErrProtocol,
			message: "protocol error: transaction aborted by server: segmentation-not-supported",
		},
		{
			name: "transport failure",
			resolve: func(tx *bacip.Transaction) {
				tx.Fail(errors.New(`address "nowhere": not an IPv4 address`))
			},
			kind:    ErrProtocol,
			message: `protocol error: address "nowhere": not an IPv4 address`,
		},
		{
			name: "client stopped",
			resolve: func(tx *bacip.Transaction) {
				tx.Fail(bacip.ErrStopped)
			},
			kind:    ErrProtocol,
			message: "protocol error: bacnet client stopped",
		},
		{
			name: "simple ack",
			resolve: func(tx *bacip.Transaction) {
				tx.Complete(bacip.APDU{DataType: bacip.SimpleAck, ServiceType: bacip.ServiceConfirmedWriteProperty})
			},
			kind:    ErrUnexpectedResponseType,
			message: "expected ReadProperty ack, got SimpleAck(WriteProperty)",
		},
		{
			name: "ack of an other service",
			resolve: func(tx *bacip.Transaction) {
				tx.Complete(bacip.APDU{DataType: bacip.ComplexAck, ServiceType: bacip.ServiceConfirmedReadPropMultiple,
					Payload: &bacip.DataPayload{}})
			},
			kind:    ErrUnexpectedResponseType,
			message: "expected ReadProperty ack, got ComplexAck(ReadPropertyMultiple)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := bacip.NewTransaction("10.0.0.5:47808", bacip.ReadProperty{})
			go tt.resolve(tx)
			ack, err := Await(context.Background(), tx, time.Second)
			assert.Nil(t, ack)
			assert.ErrorIs(t, err, tt.kind)
			assert.EqualError(t, err, tt.message)
		})
	}
}

func TestAwaitProtocolDetail(t *testing.T) {
	tx := bacip.NewTransaction("10.0.0.5:47808", bacip.ReadProperty{})
	tx.Complete(bacip.APDU{DataType: bacip.Error,
		Payload: &bacip.ApduError{Class: bacnet.ErrorClassObject, Code: bacnet.ErrorCodeUnknownObject}})
	_, err := Await(context.Background(), tx, time.Second)

	var apduErr bacip.ApduError
	require.True(t, errors.As(err, &apduErr))
	assert.Equal(t, bacnet.ErrorCodeUnknownObject, apduErr.Code)
}

func TestAwaitTimeout(t *testing.T) {
	tx := bacip.NewTransaction("10.0.0.5:47808", bacip.ReadProperty{})
	start := time.Now()
	ack, err := Await(context.Background(), tx, 50*time.Millisecond)
	assert.Nil(t, ack)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.EqualError(t, err, "request to 10.0.0.5:47808 timed out after 0.05 seconds")
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	// a late response is ignored
	assert.False(t, tx.Complete(ackAPDU(bacip.ReadProperty{}, "4442910000")))
	_, err = tx.Result()
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestAwaitContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tx := bacip.NewTransaction("10.0.0.5:47808", bacip.ReadProperty{})
	_, err := Await(ctx, tx, time.Second)
	assert.ErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	tx = bacip.NewTransaction("10.0.0.5:47808", bacip.ReadProperty{})
	_, err = Await(ctx, tx, time.Minute)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDecode(t *testing.T) {
	schema := bacnet.DefaultSchema()
	device := bacnet.ObjectID{Type: bacnet.BacnetDevice, Instance: 1}
	tests := []struct {
		name     string
		ack      bacip.ReadProperty
		value    string
		expected interface{}
	}{
		{
			name: "analog present value",
			ack: bacip.ReadProperty{ObjectID: bacnet.ObjectID{Type: bacnet.AnalogInput, Instance: 42},
				Property: bacnet.PropertyIdentifier{Type: bacnet.PresentValue}},
			value:    "4442910000",
			expected: float32(72.5),
		},
		{
			name: "array length",
			ack: bacip.ReadProperty{ObjectID: device,
				Property: bacnet.PropertyIdentifier{Type: bacnet.ObjectList, ArrayIndex: index(0)}},
			value:    "2103",
			expected: uint32(3),
		},
		{
			name: "array element",
			ack: bacip.ReadProperty{ObjectID: device,
				Property: bacnet.PropertyIdentifier{Type: bacnet.ObjectList, ArrayIndex: index(1)}},
			value:    "c402000001",
			expected: device,
		},
		{
			name: "whole array",
			ack: bacip.ReadProperty{ObjectID: device,
				Property: bacnet.PropertyIdentifier{Type: bacnet.ObjectList}},
			value:    "c402000001" + "c40000002a",
			expected: []interface{}{device, bacnet.ObjectID{Type: bacnet.AnalogInput, Instance: 42}},
		},
		{
			name: "state text element",
			ack: bacip.ReadProperty{ObjectID: bacnet.ObjectID{Type: bacnet.MultiStateValue, Instance: 2},
				Property: bacnet.PropertyIdentifier{Type: bacnet.StateText, ArrayIndex: index(2)}},
			value:    "74006f6666",
			expected: "off",
		},
		{
			name: "priority array slot",
			ack: bacip.ReadProperty{ObjectID: bacnet.ObjectID{Type: bacnet.AnalogOutput, Instance: 1},
				Property: bacnet.PropertyIdentifier{Type: bacnet.PriorityArray, ArrayIndex: index(8)}},
			value:    "00",
			expected: nil,
		},
		{
			name: "index on a scalar",
			ack: bacip.ReadProperty{ObjectID: bacnet.ObjectID{Type: bacnet.AnalogInput, Instance: 42},
				Property: bacnet.PropertyIdentifier{Type: bacnet.PresentValue, ArrayIndex: index(0)}},
			value:    "4442910000",
			expected: float32(72.5),
		},
		{
			name: "binary present value",
			ack: bacip.ReadProperty{ObjectID: bacnet.ObjectID{Type: bacnet.BinaryInput, Instance: 7},
				Property: bacnet.PropertyIdentifier{Type: bacnet.PresentValue}},
			value:    "9101",
			expected: uint32(1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := hex.DecodeString(tt.value)
			require.NoError(t, err)
			tt.ack.Value = raw
			value, err := Decode(schema, &tt.ack)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestDecodeUsesResponseIdentifiers(t *testing.T) {
	resolver := fakeResolver{
		bacnet.AnalogValue: {bacnet.PresentValue: {Type: bacnet.TypeReal}},
		bacnet.BinaryValue: {bacnet.PresentValue: {Type: bacnet.TypeEnumerated}},
	}
	// requested an analog value, the device answered for a binary one
	ack := bacip.ReadProperty{
		ObjectID: bacnet.ObjectID{Type: bacnet.BinaryValue, Instance: 1},
		Property: bacnet.PropertyIdentifier{Type: bacnet.PresentValue},
		Value:    bacip.RawValue{0x91, 0x01},
	}
	value, err := Decode(resolver, &ack)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), value)

	ack.ObjectID.Type = bacnet.Calendar
	_, err = Decode(resolver, &ack)
	assert.ErrorIs(t, err, ErrUnknownResponseDatatype)
}

func TestDecodeMalformed(t *testing.T) {
	schema := bacnet.DefaultSchema()
	ack := bacip.ReadProperty{
		ObjectID: bacnet.ObjectID{Type: bacnet.AnalogInput, Instance: 42},
		Property: bacnet.PropertyIdentifier{Type: bacnet.PresentValue},
		Value:    bacip.RawValue{0x21, 0x05},
	}
	_, err := Decode(schema, &ack)
	assert.ErrorIs(t, err, ErrMalformedValue)

	ack.Value = nil
	_, err = Decode(schema, &ack)
	assert.ErrorIs(t, err, ErrMalformedValue)

	ack.ObjectID.Type = 200
	_, err = Decode(schema, &ack)
	assert.ErrorIs(t, err, ErrUnknownResponseDatatype)
}

func TestReaderRead(t *testing.T) {
	client := &fakeSubmitter{respond: respondValue("4442910000")}
	reader := NewReader(client, bacnet.DefaultSchema())

	value, err := reader.Read(context.Background(), PropertyAddress{
		Address:    "10.0.0.5:47808",
		ObjectType: "analogInput",
		Instance:   42,
		Property:   "presentValue",
	}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, float32(72.5), value)
	assert.Equal(t, []string{"10.0.0.5:47808"}, client.submitted)
}

func TestReaderTimeout(t *testing.T) {
	client := &fakeSubmitter{}
	reader := NewReader(client, bacnet.DefaultSchema(), WithTimeout(time.Minute))
	assert.Equal(t, time.Minute, reader.timeout)

	value, err := reader.Read(context.Background(), PropertyAddress{
		Address:    "10.0.0.5:47808",
		ObjectType: "analogInput",
		Instance:   42,
		Property:   "presentValue",
	}, time.Second)
	assert.Nil(t, value)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "request to 10.0.0.5:47808 timed out after 1 seconds")

	var readErr *ReadError
	require.True(t, errors.As(err, &readErr))
	assert.Equal(t, "10.0.0.5:47808", readErr.Address)
	assert.Equal(t, "analogInput", readErr.ObjectType)
	assert.Equal(t, uint32(42), readErr.Instance)
	assert.Equal(t, "presentValue", readErr.Property)
	assert.Equal(t, ErrTimeout, readErr.Kind())
}

func TestReaderUnsupportedDoesNotSubmit(t *testing.T) {
	client := &fakeSubmitter{respond: respondValue("4442910000")}
	reader := NewReader(client, bacnet.DefaultSchema())

	_, err := reader.Read(context.Background(), PropertyAddress{
		Address:    "10.0.0.5:47808",
		ObjectType: "analogInput",
		Instance:   42,
		Property:   "objectList",
		ArrayIndex: index(3),
	}, 0)
	assert.ErrorIs(t, err, ErrUnsupportedProperty)
	assert.EqualError(t, err, "read analogInput:42 objectList[3] at 10.0.0.5:47808: unsupported property: analogInput has no property objectList")
	assert.Equal(t, 0, client.count())
}

func TestReaderArrayIndexes(t *testing.T) {
	client := &fakeSubmitter{respond: func(tx *bacip.Transaction) {
		if *tx.Request.Property.ArrayIndex == 0 {
			tx.Complete(ackAPDU(tx.Request, "2102"))
			return
		}
		tx.Complete(ackAPDU(tx.Request, "c40000002a"))
	}}
	reader := NewReader(client, bacnet.DefaultSchema(), WithTimeout(time.Second))
	pa := PropertyAddress{Address: "10.0.0.5", ObjectType: "device", Instance: 1, Property: "objectList", ArrayIndex: index(0)}

	count, err := reader.Read(context.Background(), pa, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), count)

	pa.ArrayIndex = index(1)
	element, err := reader.Read(context.Background(), pa, 0)
	require.NoError(t, err)
	assert.Equal(t, bacnet.ObjectID{Type: bacnet.AnalogInput, Instance: 42}, element)
}

func TestReaderConcurrentReads(t *testing.T) {
	release := make(chan struct{})
	client := &fakeSubmitter{respond: func(tx *bacip.Transaction) {
		if tx.Destination == "10.0.0.6" {
			// the slow device does not hold back the other one
			<-release
			tx.Complete(ackAPDU(tx.Request, "4400000000"))
			return
		}
		tx.Complete(ackAPDU(tx.Request, "4442910000"))
	}}
	reader := NewReader(client, bacnet.DefaultSchema())

	slow := make(chan error, 1)
	go func() {
		_, err := reader.Read(context.Background(), PropertyAddress{Address: "10.0.0.6", ObjectType: "analogInput", Property: "presentValue"}, time.Second)
		slow <- err
	}()
	value, err := reader.Read(context.Background(), PropertyAddress{Address: "10.0.0.5", ObjectType: "analogInput", Property: "presentValue"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, float32(72.5), value)

	close(release)
	assert.NoError(t, <-slow)
}
