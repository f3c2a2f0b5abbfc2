package bacip

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/baetyl/baetyl-bacnet-reader/bacnet"
)

type Version byte

const Version1 Version = 1

type NPDUPriority byte

const (
	LifeSafety        NPDUPriority = 3
	CriticalEquipment NPDUPriority = 2
	Urgent            NPDUPriority = 1
	Normal            NPDUPriority = 0
)

type NPDU struct {
	Version Version //Always one
	// This 3 fields are packed in the control byte
	IsNetworkLayerMessage bool //If true, there is no APDU
	ExpectingReply        bool
	Priority              NPDUPriority

	Destination *bacnet.Address
	Source      *bacnet.Address
	HopCount    byte
	//The two are only significant if IsNetworkLayerMessage is true
	NetworkMessageType byte
	VendorID           uint16

	APDU *APDU
}

func (npdu NPDU) MarshalBinary() ([]byte, error) {
	b := &bytes.Buffer{}
	b.WriteByte(byte(npdu.Version))
	if npdu.Priority > 3 {
		return nil, fmt.Errorf("invalid Priority %d", npdu.Priority)
	}
	control := byte(npdu.Priority)
	if npdu.IsNetworkLayerMessage {
		control |= 1 << 7
	}
	if npdu.ExpectingReply {
		control |= 1 << 2
	}
	hasDest := npdu.Destination != nil && npdu.Destination.Net != 0
	hasSrc := npdu.Source != nil && npdu.Source.Net != 0
	if hasDest {
		control |= 1 << 5
	}
	if hasSrc {
		control |= 1 << 3
	}
	b.WriteByte(control)
	if hasDest {
		writeRemote(b, npdu.Destination)
	}
	if hasSrc {
		writeRemote(b, npdu.Source)
	}
	if hasDest {
		b.WriteByte(npdu.HopCount)
	}
	if npdu.IsNetworkLayerMessage {
		b.WriteByte(npdu.NetworkMessageType)
		if npdu.NetworkMessageType >= 0x80 {
			_ = binary.Write(b, binary.BigEndian, npdu.VendorID)
		}
		return b.Bytes(), nil
	}
	if npdu.APDU != nil {
		data, err := npdu.APDU.MarshalBinary()
		if err != nil {
			return nil, err
		}
		b.Write(data)
	}
	return b.Bytes(), nil
}

func writeRemote(b *bytes.Buffer, addr *bacnet.Address) {
	_ = binary.Write(b, binary.BigEndian, addr.Net)
	b.WriteByte(byte(len(addr.Adr)))
	b.Write(addr.Adr)
}

func readRemote(buf *bytes.Buffer) (*bacnet.Address, error) {
	addr := &bacnet.Address{}
	if err := binary.Read(buf, binary.BigEndian, &addr.Net); err != nil {
		return nil, fmt.Errorf("read Address.Net: %w", err)
	}
	length, err := buf.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read Address.Len: %w", err)
	}
	addr.Adr = make([]byte, int(length))
	if _, err := io.ReadFull(buf, addr.Adr); err != nil {
		return nil, fmt.Errorf("read Address.Adr: %w", err)
	}
	return addr, nil
}

func (npdu *NPDU) UnmarshalBinary(data []byte) error {
	buf := bytes.NewBuffer(data)
	version, err := buf.ReadByte()
	if err != nil {
		return fmt.Errorf("read NPDU version: %w", err)
	}
	npdu.Version = Version(version)
	if npdu.Version != Version1 {
		return fmt.Errorf("invalid NPDU version %d", npdu.Version)
	}
	control, err := buf.ReadByte()
	if err != nil {
		return fmt.Errorf("read NPDU control byte:  %w", err)
	}
	npdu.IsNetworkLayerMessage = control&(1<<7) > 0
	npdu.ExpectingReply = control&(1<<2) > 0
	npdu.Priority = NPDUPriority(control & 0x3)

	if control&(1<<5) > 0 {
		npdu.Destination, err = readRemote(buf)
		if err != nil {
			return fmt.Errorf("read NPDU dest: %w", err)
		}
	}
	if control&(1<<3) > 0 {
		npdu.Source, err = readRemote(buf)
		if err != nil {
			return fmt.Errorf("read NPDU src: %w", err)
		}
	}
	if npdu.Destination != nil {
		npdu.HopCount, err = buf.ReadByte()
		if err != nil {
			return fmt.Errorf("read NPDU HopCount: %w", err)
		}
	}

	if npdu.IsNetworkLayerMessage {
		npdu.NetworkMessageType, err = buf.ReadByte()
		if err != nil {
			return fmt.Errorf("read NPDU NetworkMessageType: %w", err)
		}
		if npdu.NetworkMessageType >= 0x80 {
			err := binary.Read(buf, binary.BigEndian, &npdu.VendorID)
			if err != nil {
				return fmt.Errorf("read NPDU VendorId: %w", err)
			}
		}
		return nil
	}
	npdu.APDU = &APDU{}
	return npdu.APDU.UnmarshalBinary(buf.Bytes())
}

type PDUType byte

const (
	ConfirmedServiceRequest   PDUType = 0
	UnconfirmedServiceRequest PDUType = 0x10
	SimpleAck                 PDUType = 0x20
	ComplexAck                PDUType = 0x30
	SegmentAck                PDUType = 0x40
	Error                     PDUType = 0x50
	Reject                    PDUType = 0x60
	Abort                     PDUType = 0x70
)

var pduTypeNames = map[PDUType]string{
	ConfirmedServiceRequest:   "ConfirmedRequest",
	UnconfirmedServiceRequest: "UnconfirmedRequest",
	SimpleAck:                 "SimpleAck",
	ComplexAck:                "ComplexAck",
	SegmentAck:                "SegmentAck",
	Error:                     "Error",
	Reject:                    "Reject",
	Abort:                     "Abort",
}

func (t PDUType) String() string {
	if name, ok := pduTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PDUType(0x%02x)", byte(t))
}

//IsResponse tells whether the PDU answers a confirmed request
func (t PDUType) IsResponse() bool {
	switch t {
	case SimpleAck, ComplexAck, Error, Reject, Abort:
		return true
	}
	return false
}

type ServiceType byte

const (
	ServiceUnconfirmedIAm    ServiceType = 0
	ServiceUnconfirmedIHave  ServiceType = 1
	ServiceUnconfirmedWhoHas ServiceType = 7
	ServiceUnconfirmedWhoIs  ServiceType = 8
)

const (
	ServiceConfirmedSubscribeCOV         ServiceType = 5
	ServiceConfirmedReadProperty         ServiceType = 12
	ServiceConfirmedReadPropMultiple     ServiceType = 14
	ServiceConfirmedWriteProperty        ServiceType = 15
	ServiceConfirmedWritePropMultiple    ServiceType = 16
	ServiceConfirmedReinitializeDevice   ServiceType = 20
	ServiceConfirmedReadRange            ServiceType = 26
	ServiceConfirmedSubscribeCOVProperty ServiceType = 28
)

var confirmedServiceNames = map[ServiceType]string{
	ServiceConfirmedSubscribeCOV:         "SubscribeCOV",
	ServiceConfirmedReadProperty:         "ReadProperty",
	ServiceConfirmedReadPropMultiple:     "ReadPropertyMultiple",
	ServiceConfirmedWriteProperty:        "WriteProperty",
	ServiceConfirmedWritePropMultiple:    "WritePropertyMultiple",
	ServiceConfirmedReinitializeDevice:   "ReinitializeDevice",
	ServiceConfirmedReadRange:            "ReadRange",
	ServiceConfirmedSubscribeCOVProperty: "SubscribeCOVProperty",
}

//String names the service as a confirmed service
func (s ServiceType) String() string {
	if name, ok := confirmedServiceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Service(%d)", byte(s))
}

//MaxApduAccepted is the code announcing 1476 bytes APDUs, the largest
//that fit a BACnet/IP datagram
const MaxApduAccepted byte = 0x05

var ErrSegmentationNotSupported = errors.New("segmented messages are not supported")

type APDU struct {
	DataType    PDUType
	ServiceType ServiceType
	Payload     Payload
	//Only meaningfully for confirmed  and ack
	InvokeID byte
	//Server is set on Abort PDUs sent by the server
	Server bool
}

func (apdu APDU) MarshalBinary() ([]byte, error) {
	b := &bytes.Buffer{}
	switch apdu.DataType {
	case ConfirmedServiceRequest:
		b.WriteByte(byte(apdu.DataType))
		b.WriteByte(MaxApduAccepted)
		b.WriteByte(apdu.InvokeID)
		b.WriteByte(byte(apdu.ServiceType))
	case UnconfirmedServiceRequest:
		b.WriteByte(byte(apdu.DataType))
		b.WriteByte(byte(apdu.ServiceType))
	case SimpleAck, ComplexAck, Error:
		b.WriteByte(byte(apdu.DataType))
		b.WriteByte(apdu.InvokeID)
		b.WriteByte(byte(apdu.ServiceType))
	case Reject:
		b.WriteByte(byte(apdu.DataType))
		b.WriteByte(apdu.InvokeID)
	case Abort:
		flags := byte(0)
		if apdu.Server {
			flags = 1
		}
		b.WriteByte(byte(apdu.DataType) | flags)
		b.WriteByte(apdu.InvokeID)
	default:
		return nil, fmt.Errorf("marshal %s: %w", apdu.DataType, ErrSegmentationNotSupported)
	}
	if apdu.Payload != nil {
		data, err := apdu.Payload.MarshalBinary()
		if err != nil {
			return nil, err
		}
		b.Write(data)
	}
	return b.Bytes(), nil
}

func (apdu *APDU) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("APDU of %d bytes is too short", len(data))
	}
	apdu.DataType = PDUType(data[0] & 0xF0)
	flags := data[0] & 0x0F
	var rest []byte
	switch apdu.DataType {
	case ConfirmedServiceRequest:
		if flags&0x08 != 0 {
			return ErrSegmentationNotSupported
		}
		if len(data) < 4 {
			return fmt.Errorf("confirmed request of %d bytes is too short", len(data))
		}
		apdu.InvokeID = data[2]
		apdu.ServiceType = ServiceType(data[3])
		rest = data[4:]
	case UnconfirmedServiceRequest:
		apdu.ServiceType = ServiceType(data[1])
		rest = data[2:]
	case SimpleAck, Error:
		if len(data) < 3 {
			return fmt.Errorf("%s of %d bytes is too short", apdu.DataType, len(data))
		}
		apdu.InvokeID = data[1]
		apdu.ServiceType = ServiceType(data[2])
		rest = data[3:]
	case ComplexAck:
		if len(data) < 3 {
			return fmt.Errorf("%s of %d bytes is too short", apdu.DataType, len(data))
		}
		apdu.InvokeID = data[1]
		if flags&0x08 != 0 {
			return ErrSegmentationNotSupported
		}
		apdu.ServiceType = ServiceType(data[2])
		rest = data[3:]
	case SegmentAck:
		apdu.InvokeID = data[1]
		rest = data[2:]
	case Reject, Abort:
		if len(data) < 3 {
			return fmt.Errorf("%s of %d bytes is too short", apdu.DataType, len(data))
		}
		apdu.InvokeID = data[1]
		apdu.Server = apdu.DataType == Abort && flags&0x01 != 0
		rest = data[2:]
	default:
		return fmt.Errorf("unknown PDU type 0x%x", data[0])
	}

	switch {
	case apdu.DataType == ComplexAck && apdu.ServiceType == ServiceConfirmedReadProperty,
		apdu.DataType == ConfirmedServiceRequest && apdu.ServiceType == ServiceConfirmedReadProperty:
		apdu.Payload = &ReadProperty{}
	case apdu.DataType == Error:
		apdu.Payload = &ApduError{}
	case apdu.DataType == Reject:
		apdu.Payload = &RejectError{}
	case apdu.DataType == Abort:
		apdu.Payload = &AbortError{Server: apdu.Server}
	default:
		// Just pass raw data, other services are not decoded
		apdu.Payload = &DataPayload{}
	}
	return apdu.Payload.UnmarshalBinary(rest)
}

type Payload interface {
	MarshalBinary() ([]byte, error)
	UnmarshalBinary([]byte) error
}

type DataPayload struct {
	Bytes []byte
}

func (p DataPayload) MarshalBinary() ([]byte, error) {
	return p.Bytes, nil
}

func (p *DataPayload) UnmarshalBinary(data []byte) error {
	p.Bytes = make([]byte, len(data))
	copy(p.Bytes, data)
	return nil
}

type BVLCType byte

const TypeBacnetIP BVLCType = 0x81

type Function byte

const (
	BacFuncResult                          Function = 0
	BacFuncWriteBroadcastDistributionTable Function = 1
	BacFuncBroadcastDistributionTable      Function = 2
	BacFuncBroadcastDistributionTableAck   Function = 3
	BacFuncForwardedNPDU                   Function = 4
	BacFuncUnicast                         Function = 10
	BacFuncBroadcast                       Function = 11
)

type BVLC struct {
	Type     BVLCType
	Function Function
	//Origin is the original sender of a forwarded NPDU
	Origin *bacnet.Address
	NPDU   NPDU
}

func (bvlc BVLC) MarshalBinary() ([]byte, error) {
	b := &bytes.Buffer{}
	b.WriteByte(byte(bvlc.Type))
	b.WriteByte(byte(bvlc.Function))
	data, err := bvlc.NPDU.MarshalBinary()
	if err != nil {
		return nil, err
	}
	var origin []byte
	if bvlc.Function == BacFuncForwardedNPDU {
		if bvlc.Origin == nil || len(bvlc.Origin.Mac) != 6 {
			return nil, errors.New("forwarded NPDU without a BACnet/IP origin")
		}
		origin = bvlc.Origin.Mac
	}
	length := uint16(4 + len(origin) + len(data)) //len includes Type,Function and itself
	_ = binary.Write(b, binary.BigEndian, length)
	b.Write(origin)
	b.Write(data)
	return b.Bytes(), nil
}

var ErrNotBAcnetIP = errors.New("packet isn't a bacnet/IP payload")

func (bvlc *BVLC) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("bvlc header of %d bytes: %w", len(data), ErrNotBAcnetIP)
	}
	bvlc.Type = BVLCType(data[0])
	if bvlc.Type != TypeBacnetIP {
		return ErrNotBAcnetIP
	}
	bvlc.Function = Function(data[1])
	length := binary.BigEndian.Uint16(data[2:4])
	remaining := data[4:]
	if len(remaining) != int(length)-4 {
		return fmt.Errorf("incoherent Length field in BVCL. Advertized payload size is %d, real size  %d", int(length)-4, len(remaining))
	}
	switch bvlc.Function {
	case BacFuncUnicast, BacFuncBroadcast:
	case BacFuncForwardedNPDU:
		if len(remaining) < 6 {
			return errors.New("forwarded NPDU without origin address")
		}
		bvlc.Origin = &bacnet.Address{Mac: append([]byte{}, remaining[:6]...)}
		remaining = remaining[6:]
	default:
		return fmt.Errorf("bvlc function %d carries no NPDU", bvlc.Function)
	}
	return bvlc.NPDU.UnmarshalBinary(remaining)
}
