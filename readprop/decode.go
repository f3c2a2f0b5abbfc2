package readprop

import (
	"fmt"

	"github.com/baetyl/baetyl-bacnet-reader/bacip"
	"github.com/baetyl/baetyl-bacnet-reader/bacnet"
)

// Decode converts the value of a ReadProperty ack. The datatype is
// resolved from the object and property reported by the ack, not from
// the request. For an array read element-wise, index 0 is the array
// length and any other index an element of the array.
func Decode(resolver Resolver, ack *bacip.ReadProperty) (interface{}, error) {
	datatype, ok := resolver.Resolve(ack.ObjectID.Type, ack.Property.Type)
	if !ok {
		return nil, fmt.Errorf("%w: property %s of %s", ErrUnknownResponseDatatype, ack.Property.Type, ack.ObjectID.Type)
	}

	var value interface{}
	var err error
	switch {
	case ack.Property.ArrayIndex != nil && datatype.Array:
		if *ack.Property.ArrayIndex == 0 {
			value, err = ack.Value.CastOut(bacnet.TypeUnsignedInt)
		} else {
			value, err = ack.Value.CastOut(datatype.Type)
		}
	case datatype.Array:
		value, err = ack.Value.CastOutArray(datatype.Type)
	default:
		value, err = ack.Value.CastOut(datatype.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s as %s: %v", ErrMalformedValue, ack.Property, datatype, err)
	}
	return value, nil
}
