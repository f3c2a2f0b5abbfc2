package encoding

import (
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/baetyl/baetyl-bacnet-reader/bacnet"
	"github.com/matryer/is"
)

func TestValidAppData(t *testing.T) {
	ttc := []struct {
		data        string //hex string
		expected    interface{}
		expectedBis interface{} //nil if same as one
	}{
		{
			data: "c4020075e9",
			expected: bacnet.ObjectID{
				Type:     8,
				Instance: 30185,
			},
		},
		{
			data:     "2205c4",
			expected: uint32(1476),
		},
		{
			data:        "9100",
			expected:    bacnet.SegmentationSupportBoth,
			expectedBis: uint32(0),
		},
		{
			data:        "913e",
			expected:    bacnet.Enumerated(62),
			expectedBis: uint32(62),
		},
		{
			data:     "22016c",
			expected: uint32(364),
		},
		{
			data:     "7511004543592d53313030302d413437383035",
			expected: "ECY-S1000-A47805",
		},
		{
			data:     "4400000000",
			expected: float32(0),
		},
		{
			data:     "4442910000",
			expected: float32(72.5),
		},
		{
			data:     "55084059000000000000",
			expected: float64(100),
		},
		{
			data:     "31fe",
			expected: int32(-2),
		},
		{
			data:     "32ff38",
			expected: int32(-200),
		},
		{
			data:     "3301e240",
			expected: int32(123456),
		},
		{
			data:     "11",
			expected: true,
		},
		{
			data:     "10",
			expected: false,
		},
		{
			data:     "6203ff",
			expected: []byte{0x03, 0xff},
		},
		{
			data:     "820460",
			expected: bacnet.BitString{Bits: []bool{false, true, true, false}},
		},
		{
			data:     "a47c0a1105",
			expected: bacnet.Date{Year: 2024, Month: 10, Day: 17, Weekday: 5},
		},
		{
			data:     "b40c1e0000",
			expected: bacnet.Time{Hour: 12, Minute: 30},
		},
		{
			data:     "00",
			expected: nil,
		},
	}
	for _, tc := range ttc {
		t.Run(fmt.Sprintf("AppData decode %s (%T)", tc.data, tc.expected), func(t *testing.T) {
			is := is.New(t)
			b, err := hex.DecodeString(tc.data)
			is.NoErr(err)
			decoder := NewDecoder(b)
			//Ensure that it work when passed the concrete type
			switch tc.expected.(type) {
			case bacnet.ObjectID:
				x := bacnet.ObjectID{}
				decoder.AppData(&x)
				is.NoErr(decoder.err)
				is.Equal(x, tc.expected)
			case uint32:
				var x uint32
				decoder.AppData(&x)
				is.NoErr(decoder.err)
				is.Equal(x, tc.expected)
			case bacnet.SegmentationSupport:
				var x bacnet.SegmentationSupport
				decoder.AppData(&x)
				is.NoErr(decoder.err)
				is.Equal(x, tc.expected)
			case bacnet.Enumerated:
				var x bacnet.Enumerated
				decoder.AppData(&x)
				is.NoErr(decoder.err)
				is.Equal(x, tc.expected)
			case string:
				var x string
				decoder.AppData(&x)
				is.NoErr(decoder.err)
				is.Equal(x, tc.expected)
			case float32:
				var x float32
				decoder.AppData(&x)
				is.NoErr(decoder.err)
				is.Equal(x, tc.expected)
			case int32:
				var x int32
				decoder.AppData(&x)
				is.NoErr(decoder.err)
				is.Equal(x, tc.expected)
			default:
				// remaining types are checked through the empty interface
			}
			//Ensure that it work when passed an empty interface
			var v interface{}
			decoder = NewDecoder(b)
			decoder.AppData(&v)
			is.NoErr(decoder.err)
			is.Equal(decoder.Len(), 0)
			if tc.expectedBis != nil {
				is.Equal(v, tc.expectedBis)
			} else {
				is.Equal(v, tc.expected)
			}
		})
		t.Run(fmt.Sprintf("AppData encode %s (%T)", tc.data, tc.expected), func(t *testing.T) {
			is := is.New(t)
			enc := NewEncoder()
			enc.AppData(tc.expected)
			is.NoErr(enc.Error())
			is.Equal(hex.EncodeToString(enc.Bytes()), tc.data)
		})
	}
}

func TestAppDataMismatch(t *testing.T) {
	is := is.New(t)
	b, _ := hex.DecodeString("4442910000")
	var s string
	d := NewDecoder(b)
	d.AppData(&s)
	var e AppDataTypeMismatch
	is.True(errors.As(d.Error(), &e))

	var x uint32
	d = NewDecoder(b)
	d.AppData(x)
	is.True(d.Error() != nil) // not a pointer
}

func TestAppValue(t *testing.T) {
	is := is.New(t)
	b, _ := hex.DecodeString("4442910000")

	var v interface{}
	d := NewDecoder(b)
	d.AppValue(bacnet.TypeReal, &v)
	is.NoErr(d.Error())
	is.Equal(v, float32(72.5))

	d = NewDecoder(b)
	d.AppValue(bacnet.TypeAny, &v)
	is.NoErr(d.Error())
	is.Equal(v, float32(72.5))

	d = NewDecoder(b)
	d.AppValue(bacnet.TypeUnsignedInt, &v)
	var e ErrUnexpectedAppTag
	is.True(errors.As(d.Error(), &e))
	is.Equal(e.Got, bacnet.TypeReal)
	is.Equal(d.Len(), len(b)) // nothing consumed
}

func TestCharacterSets(t *testing.T) {
	ttc := []struct {
		data     string
		expected string
	}{
		{data: "7505006869c3a9", expected: "hié"},
		{data: "74056869e9", expected: "hié"},
		{data: "7507040068006900e9", expected: "hié"},
	}
	for _, tc := range ttc {
		t.Run(tc.data, func(t *testing.T) {
			is := is.New(t)
			b, err := hex.DecodeString(tc.data)
			is.NoErr(err)
			var s string
			d := NewDecoder(b)
			d.AppData(&s)
			is.NoErr(d.Error())
			is.Equal(s, tc.expected)
		})
	}

	b, _ := hex.DecodeString("720241")
	var s string
	d := NewDecoder(b)
	d.AppData(&s)
	is.New(t).True(d.Error() != nil) // DBCS is not supported
}

func TestWideIntegers(t *testing.T) {
	is := is.New(t)
	// unsigned of 5 bytes
	b, _ := hex.DecodeString("25050100000000")
	var v interface{}
	d := NewDecoder(b)
	d.AppValue(bacnet.TypeUnsignedInt, &v)
	is.NoErr(d.Error())
	is.Equal(v, uint64(1)<<32)

	var u uint64
	d = NewDecoder(b)
	d.AppData(&u)
	is.NoErr(d.Error())
	is.Equal(u, uint64(1)<<32)

	var small uint32
	d = NewDecoder(b)
	d.AppData(&small)
	is.True(d.Error() != nil) // overflows uint32

	// signed of 5 bytes
	b, _ = hex.DecodeString("3505ff00000000")
	d = NewDecoder(b)
	d.AppValue(bacnet.TypeSignedInt, &v)
	is.NoErr(d.Error())
	is.Equal(v, int64(-4294967296))

	// more than 8 bytes
	b, _ = hex.DecodeString("2509010000000000000000")
	d = NewDecoder(b)
	d.AppValue(bacnet.TypeUnsignedInt, &v)
	is.True(d.Error() != nil)
}

func TestContextRaw(t *testing.T) {
	is := is.New(t)
	// opening 3, real, [opening 0, unsigned, closing 0], boolean, closing 3, trailing
	b, _ := hex.DecodeString("3e44429100000e2105" + "0f" + "113f" + "2905")
	var raw []byte
	d := NewDecoder(b)
	d.ContextRaw(3, &raw)
	is.NoErr(d.Error())
	is.Equal(hex.EncodeToString(raw), "44429100000e21050f11")

	var idx uint32
	d.ContextValue(2, &idx)
	is.NoErr(d.Error())
	is.Equal(idx, uint32(5))

	enc := NewEncoder()
	enc.ContextRaw(3, raw)
	is.NoErr(enc.Error())
	is.Equal(hex.EncodeToString(enc.Bytes()), "3e44429100000e21050f113f")

	// unterminated
	d = NewDecoder(b[:7])
	d.ContextRaw(3, &raw)
	is.True(d.Error() != nil)
}

func TestContextObjectID(t *testing.T) {
	is := is.New(t)
	enc := NewEncoder()
	enc.ContextObjectID(0, bacnet.ObjectID{Type: bacnet.AnalogInput, Instance: 1})
	enc.ContextUnsigned(1, uint32(bacnet.PresentValue))
	is.NoErr(enc.Error())
	is.Equal(hex.EncodeToString(enc.Bytes()), "0c00000001"+"1955")

	d := NewDecoder(enc.Bytes())
	var id bacnet.ObjectID
	var prop uint32
	d.ContextObjectID(0, &id)
	d.ContextValue(1, &prop)
	is.NoErr(d.Error())
	is.Equal(id, bacnet.ObjectID{Type: bacnet.AnalogInput, Instance: 1})
	is.Equal(bacnet.PropertyType(prop), bacnet.PresentValue)

	enc = NewEncoder()
	enc.ContextObjectID(0, bacnet.ObjectID{Instance: bacnet.MaxInstance + 1})
	is.True(enc.Error() != nil)
}
