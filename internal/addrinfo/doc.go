// Package addrinfo computes IPv4 subnet metadata for an address.
//
// The input is either a bare address or an address with a prefix length or a
// dotted netmask. Addresses may be written as dotted quads or as a single
// unsigned 32-bit integer:
//
//	192.168.1.10
//	3232235786
//	192.168.1.10/24
//	192.168.1.10/255.255.255.0
//
// # Usage Example
//
//	info, err := addrinfo.Compute("192.168.1.10/24")
//	if err != nil {
//	    return err
//	}
//	if info.HasBroadcast() {
//	    fmt.Println(info.Broadcast) // 192.168.1.255
//	}
//
// # Derived Fields
//
// For a masked input the network is address & netmask and the size is
// 2^(32-prefix). Prefixes up to /30 have a broadcast address and exclude the
// network and broadcast addresses from the usable host range. /31 and /32 have
// no broadcast address and every address in the block is usable.
//
// A bare address carries no mask, so only Address and Class are populated.
//
// Compute is a pure function and safe for concurrent use.
package addrinfo
