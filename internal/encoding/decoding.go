package encoding

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"reflect"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/baetyl/baetyl-bacnet-reader/bacnet"
)

//Decoder is the struct used to turn byte arrays to bacnet types. All
//public methods of decoder can set the internal error value. If such
//error is set, all decoding methods will be no-ops. This allows to
//defer error checking after several decoding operations
type Decoder struct {
	data []byte
	off  int
	err  error
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{data: b}
}

func (d *Decoder) Error() error {
	return d.err
}

func (d *Decoder) ResetError() {
	d.err = nil
}

//Len returns the number of bytes not yet consumed
func (d *Decoder) Len() int {
	return len(d.data) - d.off
}

func (d *Decoder) remaining() []byte {
	return d.data[d.off:]
}

func (d *Decoder) next(n int) ([]byte, error) {
	if n < 0 || d.Len() < n {
		return nil, fmt.Errorf("need %d bytes, %d left: %w", n, d.Len(), errShortTag)
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

//contextTag reads the next tag if it is the context tag expectedTagID.
//On ErrorIncorrectTagID nothing is consumed, so the same tag can be
//decoded again.
func (d *Decoder) contextTag(expectedTagID byte) (tag, bool) {
	length, t, err := decodeTag(d.remaining())
	if err != nil {
		d.err = err
		return t, false
	}
	if t.ID != expectedTagID {
		d.err = ErrorIncorrectTagID{Expected: expectedTagID, Got: t.ID}
		return t, false
	}
	if !t.Context {
		d.err = errors.New("tag isn't contextual")
		return t, false
	}
	d.off += length
	return t, true
}

//ContextValue reads the next context tag/value couple and set val accordingly.
//Sets the decoder error  if the tagID isn't the expected or if the tag isn't contextual.
//If ErrorIncorrectTag is set, the internal buffer cursor is ready to read again the same tag.
func (d *Decoder) ContextValue(expectedTagID byte, val *uint32) {
	if d.err != nil {
		return
	}
	t, ok := d.contextTag(expectedTagID)
	if !ok {
		return
	}
	b, err := d.next(int(t.Value))
	if err != nil {
		d.err = err
		return
	}
	v, err := decodeUnsigned(b)
	if err != nil {
		d.err = err
		return
	}
	*val = v
}

//ContextObjectID read a (context)tag / value pair where the value
//type is an object identifier
//If ErrorIncorrectTag is set, the internal buffer cursor is ready to read again the same tag.
func (d *Decoder) ContextObjectID(expectedTagID byte, objectID *bacnet.ObjectID) {
	if d.err != nil {
		return
	}
	t, ok := d.contextTag(expectedTagID)
	if !ok {
		return
	}
	if t.Value != 4 {
		d.err = fmt.Errorf("object identifier of %d bytes", t.Value)
		return
	}
	b, err := d.next(4)
	if err != nil {
		d.err = err
		return
	}
	*objectID = bacnet.ObjectIDFromUint32(binary.BigEndian.Uint32(b))
}

//ContextRaw reads everything enclosed by the opening and closing
//context tags expectedTagID without decoding it. Nested constructed
//values are kept whole.
func (d *Decoder) ContextRaw(expectedTagID byte, raw *[]byte) {
	if d.err != nil {
		return
	}
	t, ok := d.contextTag(expectedTagID)
	if !ok {
		return
	}
	if !t.Opening {
		d.err = fmt.Errorf("expected opening tag %d", expectedTagID)
		return
	}
	start := d.off
	depth := 0
	for {
		length, t, err := decodeTag(d.remaining())
		if err != nil {
			d.err = fmt.Errorf("looking for closing tag %d: %w", expectedTagID, err)
			return
		}
		if t.Closing && depth == 0 {
			if t.ID != expectedTagID {
				d.err = ErrorIncorrectTagID{Expected: expectedTagID, Got: t.ID}
				return
			}
			*raw = append([]byte{}, d.data[start:d.off]...)
			d.off += length
			return
		}
		d.off += length
		switch {
		case t.Opening:
			depth++
		case t.Closing:
			depth--
		case !t.Context && t.ID == applicationTagBoolean:
			// value is in the tag itself
		default:
			if _, err := d.next(int(t.Value)); err != nil {
				d.err = err
				return
			}
		}
	}
}

type AppDataTypeMismatch struct {
	wanted string
	got    reflect.Type
}

func (e AppDataTypeMismatch) Error() string {
	return fmt.Sprintf("decode AppData: mismatched type, cannot decode %s in type %s", e.wanted, e.got.String())
}

//ErrUnexpectedAppTag is set by AppValue when the tag of the value does
//not match the expected datatype
type ErrUnexpectedAppTag struct {
	Expected bacnet.PropertyValueType
	Got      bacnet.PropertyValueType
}

func (e ErrUnexpectedAppTag) Error() string {
	return fmt.Sprintf("expected %s value, got %s", e.Expected, e.Got)
}

//AppData read the next tag and value. The value type advertised
//in tag must be a standard bacnet application data type and must
//match the type passed in the v parameter. If no error is
//returned, v will contain the data read
func (d *Decoder) AppData(v interface{}) {
	if d.err != nil {
		return
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		d.err = errors.New("decodeAppData: interface parameter isn't a pointer")
		return
	}
	t, val, err := d.appValue()
	if err != nil {
		d.err = fmt.Errorf("decodeAppData: %w", err)
		return
	}
	rv = rv.Elem()
	switch {
	case isEmptyInterface(rv):
		if val == nil {
			rv.Set(reflect.Zero(rv.Type()))
			return
		}
		rv.Set(reflect.ValueOf(val))
	case val == nil:
		//nothing to do
	case reflect.TypeOf(val).AssignableTo(rv.Type()):
		rv.Set(reflect.ValueOf(val))
	case isUint(rv.Kind()) && (t.ID == applicationTagEnumerated || t.ID == applicationTagUnsignedInt):
		var u uint64
		switch n := val.(type) {
		case uint32:
			u = uint64(n)
		case uint64:
			u = n
		}
		if rv.OverflowUint(u) {
			d.err = fmt.Errorf("decodeAppData: %d overflows %s", u, rv.Type())
			return
		}
		rv.SetUint(u)
	default:
		d.err = AppDataTypeMismatch{wanted: applicationTagName(t.ID), got: rv.Type()}
	}
}

//AppValue reads the next application tagged value. Unless expected is
//TypeAny the tag must announce the expected datatype.
func (d *Decoder) AppValue(expected bacnet.PropertyValueType, v *interface{}) {
	if d.err != nil {
		return
	}
	length, t, err := decodeTag(d.remaining())
	if err != nil {
		d.err = err
		return
	}
	if t.Context || t.Opening || t.Closing {
		d.err = fmt.Errorf("expected application tag, got context tag %d", t.ID)
		return
	}
	if expected != bacnet.TypeAny && bacnet.PropertyValueType(t.ID) != expected {
		d.err = ErrUnexpectedAppTag{Expected: expected, Got: bacnet.PropertyValueType(t.ID)}
		return
	}
	d.off += length
	val, err := d.appContent(t)
	if err != nil {
		d.err = err
		return
	}
	*v = val
}

func (d *Decoder) appValue() (tag, interface{}, error) {
	length, t, err := decodeTag(d.remaining())
	if err != nil {
		return t, nil, fmt.Errorf("read tag: %w", err)
	}
	if t.Context || t.Opening || t.Closing {
		return t, nil, errors.New("unexpected context tag")
	}
	d.off += length
	val, err := d.appContent(t)
	return t, val, err
}

//appContent decodes the content following application tag t
func (d *Decoder) appContent(t tag) (interface{}, error) {
	switch t.ID {
	case applicationTagNull:
		return nil, nil
	case applicationTagBoolean:
		return t.Value != 0, nil
	}
	b, err := d.next(int(t.Value))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", applicationTagName(t.ID), err)
	}
	switch t.ID {
	case applicationTagUnsignedInt:
		if len(b) > maxUnsignedBytes {
			return decodeUnsigned64(b)
		}
		return decodeUnsigned(b)
	case applicationTagEnumerated:
		return decodeUnsigned(b)
	case applicationTagSignedInt:
		if len(b) > maxUnsignedBytes {
			return decodeSigned64(b)
		}
		return decodeSigned(b)
	case applicationTagReal:
		if len(b) != 4 {
			return nil, fmt.Errorf("real of %d bytes", len(b))
		}
		return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
	case applicationTagDouble:
		if len(b) != 8 {
			return nil, fmt.Errorf("double of %d bytes", len(b))
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	case applicationTagOctetString:
		return append([]byte{}, b...), nil
	case applicationTagCharacterString:
		return decodeString(b)
	case applicationTagBitString:
		return decodeBitString(b)
	case applicationTagDate:
		if len(b) != 4 {
			return nil, fmt.Errorf("date of %d bytes", len(b))
		}
		return bacnet.Date{Year: 1900 + int(b[0]), Month: b[1], Day: b[2], Weekday: b[3]}, nil
	case applicationTagTime:
		if len(b) != 4 {
			return nil, fmt.Errorf("time of %d bytes", len(b))
		}
		return bacnet.Time{Hour: b[0], Minute: b[1], Second: b[2], Hundredths: b[3]}, nil
	case applicationTagObjectID:
		if len(b) != 4 {
			return nil, fmt.Errorf("object identifier of %d bytes", len(b))
		}
		return bacnet.ObjectIDFromUint32(binary.BigEndian.Uint32(b)), nil
	default:
		return nil, fmt.Errorf("unsupported application tag 0x%x", t.ID)
	}
}

func isEmptyInterface(rv reflect.Value) bool {
	return rv.Kind() == reflect.Interface && rv.Type().NumMethod() == 0
}

func isUint(k reflect.Kind) bool {
	return k == reflect.Uint8 || k == reflect.Uint16 || k == reflect.Uint32 || k == reflect.Uint64 || k == reflect.Uint
}

//character sets of CharacterString values
const (
	utf8Encoding     = byte(0)
	ucs2Encoding     = byte(4)
	iso8859Encoding  = byte(5)
	maxUnsignedBytes = 4
	maxUnsigned64    = 8
)

func decodeString(b []byte) (string, error) {
	if len(b) == 0 {
		return "", errors.New("character string without character set")
	}
	body := b[1:]
	switch b[0] {
	case utf8Encoding:
		return string(body), nil
	case ucs2Encoding:
		s, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(body)
		if err != nil {
			return "", fmt.Errorf("decode UCS-2 string: %w", err)
		}
		return string(s), nil
	case iso8859Encoding:
		s, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
		if err != nil {
			return "", fmt.Errorf("decode ISO 8859-1 string: %w", err)
		}
		return string(s), nil
	default:
		return "", fmt.Errorf("unsupported string encoding: 0x%x", b[0])
	}
}

func decodeBitString(b []byte) (bacnet.BitString, error) {
	if len(b) == 0 {
		return bacnet.BitString{}, errors.New("bit string without unused bits count")
	}
	unused := int(b[0])
	total := (len(b)-1)*8 - unused
	if unused > 7 || total < 0 {
		return bacnet.BitString{}, fmt.Errorf("bit string with %d unused bits", unused)
	}
	bits := make([]bool, total)
	for i := range bits {
		bits[i] = b[1+i/8]&(0x80>>(i%8)) != 0
	}
	return bacnet.BitString{Bits: bits}, nil
}

func decodeUnsigned(b []byte) (uint32, error) {
	if len(b) == 0 || len(b) > maxUnsignedBytes {
		return 0, fmt.Errorf("unsigned of %d bytes", len(b))
	}
	var v uint32
	for _, x := range b {
		v = v<<8 | uint32(x)
	}
	return v, nil
}

func decodeSigned(b []byte) (int32, error) {
	v, err := decodeUnsigned(b)
	if err != nil {
		return 0, err
	}
	// sign extend from the encoded width
	shift := uint(32 - 8*len(b))
	return int32(v<<shift) >> shift, nil
}

//decodeUnsigned64 reads the Unsigned64 values wider than 4 bytes
func decodeUnsigned64(b []byte) (uint64, error) {
	if len(b) == 0 || len(b) > maxUnsigned64 {
		return 0, fmt.Errorf("unsigned of %d bytes", len(b))
	}
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v, nil
}

func decodeSigned64(b []byte) (int64, error) {
	v, err := decodeUnsigned64(b)
	if err != nil {
		return 0, err
	}
	shift := uint(64 - 8*len(b))
	return int64(v<<shift) >> shift, nil
}
