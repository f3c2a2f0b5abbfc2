package bacnet

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"
)

//DefaultPort is the well known BACnet/IP UDP port (0xBAC0)
const DefaultPort = 47808

//ParseAddress parses a BACnet/IP station address of the form
//"ip[/prefix][:port]". The network prefix is accepted and ignored,
//the port defaults to DefaultPort.
func ParseAddress(s string) (Address, error) {
	udp, err := ParseUDPAddr(s)
	if err != nil {
		return Address{}, err
	}
	return *AddressFromUDP(*udp), nil
}

//ParseUDPAddr is ParseAddress returning the UDP endpoint
func ParseUDPAddr(s string) (*net.UDPAddr, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil, fmt.Errorf("empty address")
	}
	host, port := raw, DefaultPort
	if i := strings.LastIndex(raw, ":"); i >= 0 {
		p, err := strconv.ParseUint(raw[i+1:], 10, 16)
		if err != nil || p == 0 {
			return nil, fmt.Errorf("address %q: invalid port", s)
		}
		host, port = raw[:i], int(p)
	}
	if i := strings.Index(host, "/"); i >= 0 {
		bits, err := strconv.Atoi(host[i+1:])
		if err != nil || bits < 0 || bits > 32 {
			return nil, fmt.Errorf("address %q: invalid network prefix", s)
		}
		host = host[:i]
	}
	ip := net.ParseIP(host).To4()
	if ip == nil {
		return nil, fmt.Errorf("address %q: not an IPv4 address", s)
	}
	return &net.UDPAddr{IP: ip, Port: port}, nil
}

func (a Address) String() string {
	if len(a.Mac) != 6 {
		return fmt.Sprintf("%x", a.Mac)
	}
	return fmt.Sprintf("%s:%d", net.IP(a.Mac[:4]), binary.BigEndian.Uint16(a.Mac[4:]))
}
