//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package discovery

import "syscall"

// The net package already enables SO_BROADCAST on datagram sockets; port
// sharing is not configured on these platforms.
func controlBroadcast(network, address string, c syscall.RawConn) error {
	return nil
}
