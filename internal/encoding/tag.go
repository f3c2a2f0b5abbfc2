package encoding

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

//ErrorIncorrectTagID is the error return when the decoded tag doesn't
//have the expected ID
type ErrorIncorrectTagID struct {
	Expected byte
	Got      byte
}

func (e ErrorIncorrectTagID) Error() string {
	return fmt.Sprintf("incorrect tagID %d, expected %d", e.Got, e.Expected)
}

var errShortTag = errors.New("tag truncated")

const (
	applicationTagNull            byte = 0x00
	applicationTagBoolean         byte = 0x01
	applicationTagUnsignedInt     byte = 0x02
	applicationTagSignedInt       byte = 0x03
	applicationTagReal            byte = 0x04
	applicationTagDouble          byte = 0x05
	applicationTagOctetString     byte = 0x06
	applicationTagCharacterString byte = 0x07
	applicationTagBitString       byte = 0x08
	applicationTagEnumerated      byte = 0x09
	applicationTagDate            byte = 0x0A
	applicationTagTime            byte = 0x0B
	applicationTagObjectID        byte = 0x0C
)

var applicationTagNames = [...]string{
	"Null", "Boolean", "Unsigned", "Integer", "Real", "Double", "OctetString",
	"CharacterString", "BitString", "Enumerated", "Date", "Time", "ObjectIdentifier",
}

func applicationTagName(id byte) string {
	if int(id) < len(applicationTagNames) {
		return applicationTagNames[id]
	}
	return fmt.Sprintf("tag(%d)", id)
}

const (
	flag16bits byte = 0xFE
	flag32bits byte = 0xFF
)

type tag struct {
	// Tag id. Typically sequential when tag is contextual. Or refer
	// to the standard AppData Types
	ID      byte
	Context bool
	// Either has a value or length of the next value
	Value   uint32
	Opening bool
	Closing bool
}

func isExtendedTagNumber(x byte) bool {
	return x&0xF0 == 0xF0
}

func isExtendedValue(x byte) bool {
	return x&7 == 5
}

func isOpeningTag(x byte) bool {
	return x&7 == 6
}

func isClosingTag(x byte) bool {
	return x&7 == 7
}

func isContextSpecific(x byte) bool {
	return x&8 > 0
}

func encodeTag(buf *bytes.Buffer, t tag) {
	var meta byte
	if t.Context {
		meta |= 0x8
	}
	switch {
	case t.Opening:
		meta |= 0x6
	case t.Closing:
		meta |= 0x7
	case t.Value <= 4:
		meta |= byte(t.Value)
	default:
		meta |= 5
	}

	if t.ID <= 14 {
		buf.WriteByte(meta | t.ID<<4)
	} else {
		// tag number does not fit in the first byte
		buf.WriteByte(meta | 0xF0)
		buf.WriteByte(t.ID)
	}

	if t.Opening || t.Closing || t.Value <= 4 {
		return
	}
	switch {
	case t.Value <= 253:
		buf.WriteByte(byte(t.Value))
	case t.Value <= 65535:
		buf.WriteByte(flag16bits)
		_ = binary.Write(buf, binary.BigEndian, uint16(t.Value))
	default:
		buf.WriteByte(flag32bits)
		_ = binary.Write(buf, binary.BigEndian, t.Value)
	}
}

//decodeTag reads the tag at the start of b and returns how many bytes it
//used
func decodeTag(b []byte) (length int, t tag, err error) {
	if len(b) < 1 {
		return 0, t, fmt.Errorf("read tagID: %w", errShortTag)
	}
	first := b[0]
	length = 1
	if isExtendedTagNumber(first) {
		if len(b) < 2 {
			return length, t, fmt.Errorf("read extended tagID: %w", errShortTag)
		}
		t.ID = b[1]
		length++
	} else {
		t.ID = first >> 4
	}
	t.Context = isContextSpecific(first)

	if isOpeningTag(first) {
		t.Opening = true
		return length, t, nil
	}
	if isClosingTag(first) {
		t.Closing = true
		return length, t, nil
	}
	if !isExtendedValue(first) {
		t.Value = uint32(first & 0x7)
		return length, t, nil
	}

	if len(b) < length+1 {
		return length, t, fmt.Errorf("read extended value: %w", errShortTag)
	}
	ext := b[length]
	length++
	switch ext {
	case flag16bits:
		if len(b) < length+2 {
			return length, t, fmt.Errorf("read extended 16bits tag value: %w", errShortTag)
		}
		t.Value = uint32(binary.BigEndian.Uint16(b[length:]))
		length += 2
	case flag32bits:
		if len(b) < length+4 {
			return length, t, fmt.Errorf("read extended 32bits tag value: %w", errShortTag)
		}
		t.Value = binary.BigEndian.Uint32(b[length:])
		length += 4
	default:
		t.Value = uint32(ext)
	}
	return length, t, nil
}
