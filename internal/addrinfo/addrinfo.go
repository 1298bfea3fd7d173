package addrinfo

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// MaxBroadcastPrefix is the longest prefix that still has a broadcast address.
// Longer prefixes are point-to-point links (/31) or host routes (/32).
const MaxBroadcastPrefix = 30

// Class is the classful network category of an address.
type Class string

const (
	ClassA    Class = "A"
	ClassB    Class = "B"
	ClassC    Class = "C"
	ClassNone Class = ""
)

// Info is the subnet metadata derived from an address and optional mask.
//
// Address fields that do not apply are the zero netip.Addr; use IsValid to
// test them. Broadcast is always invalid for prefixes longer than /30.
type Info struct {
	Address   netip.Addr
	Netmask   netip.Addr
	Prefix    int // -1 when no mask was supplied
	Hostmask  netip.Addr
	Network   netip.Addr
	Class     Class
	Broadcast netip.Addr
	Size      uint64 // 2^(32-Prefix), 0 when no mask was supplied
	First     netip.Addr
	Last      netip.Addr
}

// Masked reports whether the input carried a prefix length or netmask.
func (i *Info) Masked() bool {
	return i.Prefix >= 0
}

// HasBroadcast reports whether the subnet has a broadcast address.
func (i *Info) HasBroadcast() bool {
	return i.Broadcast.IsValid()
}

// CIDR returns the network in address/prefix notation, or the bare address
// when no mask was supplied.
func (i *Info) CIDR() string {
	if !i.Masked() {
		return i.Address.String()
	}
	return fmt.Sprintf("%s/%d", i.Network, i.Prefix)
}

// String returns a one-line summary of the record
func (i *Info) String() string {
	if !i.Masked() {
		return fmt.Sprintf("%s (class %s)", i.Address, classLabel(i.Class))
	}
	broadcast := "none"
	if i.HasBroadcast() {
		broadcast = i.Broadcast.String()
	}
	return fmt.Sprintf("%s/%d network=%s broadcast=%s hosts=%s-%s size=%d",
		i.Address, i.Prefix, i.Network, broadcast, i.First, i.Last, i.Size)
}

// MarshalJSON encodes the record with null for fields that do not apply.
func (i Info) MarshalJSON() ([]byte, error) {
	type record struct {
		Address   string  `json:"address"`
		Netmask   *string `json:"netmask"`
		CIDR      *int    `json:"cidr"`
		Hostmask  *string `json:"hostmask"`
		Network   *string `json:"network"`
		Class     *string `json:"class"`
		Broadcast *string `json:"broadcast"`
		Size      *uint64 `json:"size"`
		First     *string `json:"first"`
		Last      *string `json:"last"`
	}
	r := record{
		Address:   i.Address.String(),
		Netmask:   addrPtr(i.Netmask),
		Hostmask:  addrPtr(i.Hostmask),
		Network:   addrPtr(i.Network),
		Broadcast: addrPtr(i.Broadcast),
		First:     addrPtr(i.First),
		Last:      addrPtr(i.Last),
	}
	if i.Class != ClassNone {
		c := string(i.Class)
		r.Class = &c
	}
	if i.Masked() {
		prefix, size := i.Prefix, i.Size
		r.CIDR = &prefix
		r.Size = &size
	}
	return json.Marshal(r)
}

// Compute parses addressOrCIDR and derives its subnet metadata.
//
// Accepted forms are "a.b.c.d", "n", "a.b.c.d/len", "a.b.c.d/m.m.m.m" and
// the integer form combined with either mask form. Errors wrap
// ErrInvalidAddress or ErrInvalidNetmask.
func Compute(addressOrCIDR string) (*Info, error) {
	addrPart, maskPart, hasMask := strings.Cut(strings.TrimSpace(addressOrCIDR), "/")

	ip, err := parseAddress(addrPart)
	if err != nil {
		return nil, err
	}

	info := &Info{
		Address: toAddr(ip),
		Prefix:  -1,
		Class:   classOf(ip),
	}
	if !hasMask {
		return info, nil
	}

	prefix, err := parseMask(maskPart)
	if err != nil {
		return nil, err
	}

	mask := PrefixMask(prefix)
	network := ip & mask
	size := uint64(1) << (32 - prefix)

	info.Prefix = prefix
	info.Netmask = toAddr(mask)
	info.Hostmask = toAddr(^mask)
	info.Network = toAddr(network)
	info.Size = size

	last := uint64(network) + size - 1
	if prefix <= MaxBroadcastPrefix {
		info.Broadcast = toAddr(uint32(last))
		info.First = toAddr(network + 1)
		info.Last = toAddr(uint32(last - 1))
	} else {
		info.First = toAddr(network)
		info.Last = toAddr(uint32(last))
	}

	return info, nil
}

// PrefixMask returns the canonical netmask for a prefix length in 0..32.
func PrefixMask(prefix int) uint32 {
	return uint32(0xFFFFFFFF) << (32 - prefix)
}

// PrefixFromMask recovers the prefix length of a contiguous netmask.
// The boolean is false for non-contiguous masks.
func PrefixFromMask(mask uint32) (int, bool) {
	for n := 0; n <= 32; n++ {
		if PrefixMask(n) == mask {
			return n, true
		}
	}
	return 0, false
}

// parseAddress accepts four decimal octets or a single unsigned 32-bit integer.
func parseAddress(s string) (uint32, error) {
	if s == "" {
		return 0, invalidAddress(s)
	}

	if !strings.Contains(s, ".") {
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, invalidAddress(s)
		}
		return uint32(v), nil
	}

	v, ok := parseDotted(s)
	if !ok {
		return 0, invalidAddress(s)
	}
	return v, nil
}

// parseMask accepts a prefix length or a dotted netmask.
func parseMask(s string) (int, error) {
	if strings.Contains(s, ".") {
		mask, ok := parseDotted(s)
		if !ok {
			return 0, invalidNetmask(s)
		}
		prefix, ok := PrefixFromMask(mask)
		if !ok {
			return 0, invalidNetmask(s)
		}
		return prefix, nil
	}

	prefix, err := strconv.Atoi(s)
	if err != nil || prefix < 0 || prefix > 32 {
		return 0, invalidNetmask(s)
	}
	return prefix, nil
}

func parseDotted(s string) (uint32, bool) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return 0, false
	}

	var v uint32
	for _, part := range parts {
		if part == "" || len(part) > 3 {
			return 0, false
		}
		octet, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return 0, false
		}
		v = v<<8 | uint32(octet)
	}
	return v, true
}

func classOf(ip uint32) Class {
	switch first := ip >> 24; {
	case first <= 127:
		return ClassA
	case first <= 191:
		return ClassB
	case first <= 223:
		return ClassC
	default:
		return ClassNone
	}
}

func classLabel(c Class) string {
	if c == ClassNone {
		return "none"
	}
	return string(c)
}

func toAddr(v uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

func addrPtr(a netip.Addr) *string {
	if !a.IsValid() {
		return nil
	}
	s := a.String()
	return &s
}
