// Package readprop reads a single property of a remote BACnet object:
// it builds the ReadProperty request, waits for its outcome and decodes
// the returned value.
package readprop

import (
	"fmt"
	"strconv"

	"github.com/baetyl/baetyl-bacnet-reader/bacip"
	"github.com/baetyl/baetyl-bacnet-reader/bacnet"
)

// PropertyAddress fully describes one read target.
type PropertyAddress struct {
	Address    string  `yaml:"address" json:"address"`
	ObjectType string  `yaml:"objectType" json:"object_type"`
	Instance   uint32  `yaml:"instance" json:"instance_num"`
	Property   string  `yaml:"property" json:"property_id"`
	ArrayIndex *uint32 `yaml:"arrayIndex,omitempty" json:"array_index"`
}

// Resolver gives the datatype of a property of an object type.
// *bacnet.Schema implements it.
type Resolver interface {
	Resolve(bacnet.ObjectType, bacnet.PropertyType) (bacnet.Datatype, bool)
}

// Request is a validated ReadProperty ready to be submitted.
type Request struct {
	Address  string
	Service  bacip.ReadProperty
	Datatype bacnet.Datatype
}

// Build validates pa and turns it into a request. No I/O happens here,
// the destination address is left for the transport to parse.
func Build(resolver Resolver, pa PropertyAddress) (*Request, error) {
	oid, err := bacnet.ParseObjectID(pa.ObjectType + ":" + strconv.FormatUint(uint64(pa.Instance), 10))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidObjectIdentifier, err)
	}
	prop, err := bacnet.ParsePropertyType(pa.Property)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedProperty, err)
	}
	datatype, ok := resolver.Resolve(oid.Type, prop)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no property %s", ErrUnsupportedProperty, oid.Type, prop)
	}
	req := &Request{
		Address: pa.Address,
		Service: bacip.ReadProperty{
			ObjectID: oid,
			Property: bacnet.PropertyIdentifier{Type: prop},
		},
		Datatype: datatype,
	}
	if pa.ArrayIndex != nil {
		index := *pa.ArrayIndex
		req.Service.Property.ArrayIndex = &index
	}
	return req, nil
}
