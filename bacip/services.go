package bacip

import (
	"errors"
	"fmt"

	"github.com/baetyl/baetyl-bacnet-reader/bacnet"
	"github.com/baetyl/baetyl-bacnet-reader/internal/encoding"
)

//RawValue holds the encoded property value of a ReadProperty ack, as
//found between its opening and closing tags
type RawValue []byte

//CastOut decodes the value as a single datatype t. A value made of
//several primitives is only accepted for TypeAny and is then returned
//as a []interface{}.
func (v RawValue) CastOut(t bacnet.PropertyValueType) (interface{}, error) {
	values, err := v.decode(t)
	if err != nil {
		return nil, err
	}
	switch {
	case len(values) == 1:
		return values[0], nil
	case len(values) == 0:
		return nil, errors.New("empty property value")
	case t == bacnet.TypeAny:
		return values, nil
	default:
		return nil, fmt.Errorf("%d values where one %s was expected", len(values), t)
	}
}

//CastOutArray decodes every element of an array of t
func (v RawValue) CastOutArray(t bacnet.PropertyValueType) ([]interface{}, error) {
	return v.decode(t)
}

func (v RawValue) decode(t bacnet.PropertyValueType) ([]interface{}, error) {
	decoder := encoding.NewDecoder(v)
	values := []interface{}{}
	for decoder.Len() > 0 {
		var val interface{}
		decoder.AppValue(t, &val)
		if err := decoder.Error(); err != nil {
			return nil, fmt.Errorf("element %d: %w", len(values), err)
		}
		values = append(values, val)
	}
	return values, nil
}

//ReadProperty is both the request and, with Value set, the ack of the
//ReadProperty service
type ReadProperty struct {
	ObjectID bacnet.ObjectID
	Property bacnet.PropertyIdentifier
	//Value is here to contains the response
	Value RawValue
}

func (rp ReadProperty) MarshalBinary() ([]byte, error) {
	encoder := encoding.NewEncoder()
	encoder.ContextObjectID(0, rp.ObjectID)
	encoder.ContextUnsigned(1, uint32(rp.Property.Type))
	if rp.Property.ArrayIndex != nil {
		encoder.ContextUnsigned(2, *rp.Property.ArrayIndex)
	}
	if rp.Value != nil {
		encoder.ContextRaw(3, rp.Value)
	}
	return encoder.Bytes(), encoder.Error()
}

func (rp *ReadProperty) UnmarshalBinary(data []byte) error {
	decoder := encoding.NewDecoder(data)
	decoder.ContextObjectID(0, &rp.ObjectID)
	var val uint32
	decoder.ContextValue(1, &val)
	rp.Property.Type = bacnet.PropertyType(val)
	if err := decoder.Error(); err != nil {
		return err
	}
	if decoder.Len() == 0 {
		return nil
	}
	index := new(uint32)
	decoder.ContextValue(2, index)
	var e encoding.ErrorIncorrectTagID
	//This tag is optional, maybe it doesn't exist
	if err := decoder.Error(); err != nil {
		if !errors.As(err, &e) {
			return err
		}
		decoder.ResetError()
		index = nil
	}
	rp.Property.ArrayIndex = index
	if decoder.Len() == 0 {
		return nil
	}
	var raw []byte
	decoder.ContextRaw(3, &raw)
	rp.Value = raw
	return decoder.Error()
}

type ApduError struct {
	Class bacnet.ErrorClass
	Code  bacnet.ErrorCode
}

func (e ApduError) Error() string {
	return fmt.Sprintf("apdu error class %v code %v", e.Class, e.Code)
}

func (e ApduError) MarshalBinary() ([]byte, error) {
	encoder := encoding.NewEncoder()
	encoder.AppData(e.Class)
	encoder.AppData(e.Code)
	return encoder.Bytes(), encoder.Error()
}

func (e *ApduError) UnmarshalBinary(data []byte) error {
	decoder := encoding.NewDecoder(data)
	decoder.AppData(&e.Class)
	decoder.AppData(&e.Code)
	return decoder.Error()
}

//RejectError is the payload of a Reject-PDU
type RejectError struct {
	Reason bacnet.RejectReason
}

func (e RejectError) Error() string {
	return fmt.Sprintf("request rejected: %s", e.Reason)
}

func (e RejectError) MarshalBinary() ([]byte, error) {
	return []byte{byte(e.Reason)}, nil
}

func (e *RejectError) UnmarshalBinary(data []byte) error {
	if len(data) != 1 {
		return fmt.Errorf("reject reason of %d bytes", len(data))
	}
	e.Reason = bacnet.RejectReason(data[0])
	return nil
}

//AbortError is the payload of an Abort-PDU
type AbortError struct {
	Server bool
	Reason bacnet.AbortReason
}

func (e AbortError) Error() string {
	origin := "client"
	if e.Server {
		origin = "server"
	}
	return fmt.Sprintf("transaction aborted by %s: %s", origin, e.Reason)
}

func (e AbortError) MarshalBinary() ([]byte, error) {
	return []byte{byte(e.Reason)}, nil
}

func (e *AbortError) UnmarshalBinary(data []byte) error {
	if len(data) != 1 {
		return fmt.Errorf("abort reason of %d bytes", len(data))
	}
	e.Reason = bacnet.AbortReason(data[0])
	return nil
}
