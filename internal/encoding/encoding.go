package encoding

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/baetyl/baetyl-bacnet-reader/bacnet"
)

//Encoder is the struct used to turn bacnet types to byte arrays. All
//public methods of encoder can set the internal error value. If such
//error is set, all encoding methods will be no-ops. This allows to
//defer error checking after several encoding operations
type Encoder struct {
	buf *bytes.Buffer
	err error
}

func NewEncoder() Encoder {
	return Encoder{buf: new(bytes.Buffer)}
}

func (e *Encoder) Error() error {
	return e.err
}

func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

//ContextUnsigned write a (context)tag / value pair where the value
//type is an unsigned int
func (e *Encoder) ContextUnsigned(tagNumber byte, value uint32) {
	if e.err != nil {
		return
	}
	encodeTag(e.buf, tag{ID: tagNumber, Context: true, Value: uint32(valueLength(value))})
	unsigned(e.buf, value)
}

//ContextObjectID write a (context)tag / value pair where the value
//type is an object identifier
func (e *Encoder) ContextObjectID(tagNumber byte, objectID bacnet.ObjectID) {
	if e.err != nil {
		return
	}
	v, err := objectID.Encode()
	if err != nil {
		e.err = err
		return
	}
	encodeTag(e.buf, tag{ID: tagNumber, Context: true, Value: 4})
	_ = binary.Write(e.buf, binary.BigEndian, v)
}

//ContextRaw writes raw between an opening and a closing context tag. raw
//must already be a sequence of encoded values.
func (e *Encoder) ContextRaw(tagNumber byte, raw []byte) {
	if e.err != nil {
		return
	}
	encodeTag(e.buf, tag{ID: tagNumber, Context: true, Opening: true})
	e.buf.Write(raw)
	encodeTag(e.buf, tag{ID: tagNumber, Context: true, Closing: true})
}

//AppData writes a tag and value of any standard bacnet application
//data type. Returns an error if v if of a invalid type
func (e *Encoder) AppData(v interface{}) {
	if e.err != nil {
		return
	}
	if v == nil {
		encodeTag(e.buf, tag{ID: applicationTagNull})
		return
	}
	switch val := v.(type) {
	case bool:
		var b uint32
		if val {
			b = 1
		}
		encodeTag(e.buf, tag{ID: applicationTagBoolean, Value: b})
	case uint32:
		encodeTag(e.buf, tag{ID: applicationTagUnsignedInt, Value: uint32(valueLength(val))})
		unsigned(e.buf, val)
	case int32:
		n := signedLength(val)
		encodeTag(e.buf, tag{ID: applicationTagSignedInt, Value: uint32(n)})
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(val))
		e.buf.Write(b[4-n:])
	case float32:
		encodeTag(e.buf, tag{ID: applicationTagReal, Value: 4})
		_ = binary.Write(e.buf, binary.BigEndian, math.Float32bits(val))
	case float64:
		encodeTag(e.buf, tag{ID: applicationTagDouble, Value: 8})
		_ = binary.Write(e.buf, binary.BigEndian, math.Float64bits(val))
	case []byte:
		encodeTag(e.buf, tag{ID: applicationTagOctetString, Value: uint32(len(val))})
		e.buf.Write(val)
	case string:
		//+1 because there will be one byte for the string encoding format
		encodeTag(e.buf, tag{ID: applicationTagCharacterString, Value: uint32(len(val) + 1)})
		_ = e.buf.WriteByte(utf8Encoding)
		e.buf.WriteString(val)
	case bacnet.BitString:
		n := (len(val.Bits) + 7) / 8
		content := make([]byte, n+1)
		content[0] = byte(n*8 - len(val.Bits))
		for i, bit := range val.Bits {
			if bit {
				content[1+i/8] |= 0x80 >> (i % 8)
			}
		}
		encodeTag(e.buf, tag{ID: applicationTagBitString, Value: uint32(len(content))})
		e.buf.Write(content)
	case bacnet.Enumerated, bacnet.SegmentationSupport, bacnet.ErrorClass, bacnet.ErrorCode:
		u := uint32(reflect.ValueOf(val).Uint())
		encodeTag(e.buf, tag{ID: applicationTagEnumerated, Value: uint32(valueLength(u))})
		unsigned(e.buf, u)
	case bacnet.Date:
		encodeTag(e.buf, tag{ID: applicationTagDate, Value: 4})
		e.buf.Write([]byte{byte(val.Year - 1900), val.Month, val.Day, val.Weekday})
	case bacnet.Time:
		encodeTag(e.buf, tag{ID: applicationTagTime, Value: 4})
		e.buf.Write([]byte{val.Hour, val.Minute, val.Second, val.Hundredths})
	case bacnet.ObjectID:
		v, err := val.Encode()
		if err != nil {
			e.err = err
			return
		}
		encodeTag(e.buf, tag{ID: applicationTagObjectID, Value: 4})
		_ = binary.Write(e.buf, binary.BigEndian, v)
	default:
		e.err = fmt.Errorf("encodeAppdata: unknown type %T", v)
	}
}

// valueLength caclulates how large the necessary value needs to be to fit in the appropriate
// packet length
func valueLength(value uint32) int {
	switch {
	case value < 0x100:
		return 1
	case value < 0x10000:
		return 2
	case value < 0x1000000:
		return 3
	}
	return 4
}

func signedLength(value int32) int {
	switch {
	case value >= -128 && value < 128:
		return 1
	case value >= -32768 && value < 32768:
		return 2
	case value >= -8388608 && value < 8388608:
		return 3
	}
	return 4
}

//unsigned writes the value in the buffer using a variabled-sized encoding
func unsigned(buf *bytes.Buffer, value uint32) int {
	n := valueLength(value)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], value)
	buf.Write(b[4-n:])
	return n
}
