// Package netif lists the IPv4 addresses configured on local interfaces.
package netif

import (
	"fmt"
	"net"
	"net/netip"

	"go.uber.org/zap"

	"github.com/muurk/nsd/internal/logging"
)

// Interface is one IPv4 address bound to a local network interface.
type Interface struct {
	Name     string     // interface name (e.g., "eth0")
	Address  netip.Addr // IPv4 address
	Prefix   int        // prefix length of the attached subnet
	Internal bool       // loopback / host-internal
}

// CIDR returns the address in address/prefix notation
func (i Interface) CIDR() string {
	return fmt.Sprintf("%s/%d", i.Address, i.Prefix)
}

// Enumerator returns the local IPv4 interface addresses.
// An enumeration failure is reported as an empty result.
type Enumerator interface {
	IPv4Interfaces(excludeInternal bool) []Interface
}

// System enumerates the host's interfaces through the net package.
type System struct{}

// IPv4Interfaces implements Enumerator
func (System) IPv4Interfaces(excludeInternal bool) []Interface {
	ifaces, err := net.Interfaces()
	if err != nil {
		logging.Debug("Failed to list network interfaces", zap.Error(err))
		return nil
	}

	var out []Interface
	for _, iface := range ifaces {
		// Skip interfaces that are administratively down
		if iface.Flags&net.FlagUp == 0 {
			continue
		}

		internal := iface.Flags&net.FlagLoopback != 0
		if excludeInternal && internal {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			logging.Debug("Failed to list interface addresses",
				zap.String("iface", iface.Name),
				zap.Error(err),
			)
			continue
		}

		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP.To4() == nil {
				continue
			}
			ip, ok := netip.AddrFromSlice(ipnet.IP.To4())
			if !ok {
				continue
			}
			ones, bits := ipnet.Mask.Size()
			if bits != 32 {
				continue
			}

			out = append(out, Interface{
				Name:     iface.Name,
				Address:  ip,
				Prefix:   ones,
				Internal: internal,
			})
		}
	}

	return out
}

// Static is a fixed interface list, used when the host's interfaces
// should not be consulted (tests, pinned deployments).
type Static []Interface

// IPv4Interfaces implements Enumerator
func (s Static) IPv4Interfaces(excludeInternal bool) []Interface {
	out := make([]Interface, 0, len(s))
	for _, iface := range s {
		if excludeInternal && iface.Internal {
			continue
		}
		out = append(out, iface)
	}
	return out
}

// Func adapts a function to the Enumerator interface.
type Func func(excludeInternal bool) []Interface

// IPv4Interfaces implements Enumerator
func (f Func) IPv4Interfaces(excludeInternal bool) []Interface {
	return f(excludeInternal)
}
