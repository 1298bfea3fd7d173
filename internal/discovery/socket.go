package discovery

import (
	"context"
	"fmt"
	"net"
)

// ListenFunc opens the engine's UDP socket bound to port on all IPv4
// addresses with broadcast enabled.
type ListenFunc func(ctx context.Context, port int) (net.PacketConn, error)

// ListenUDP4 is the default ListenFunc. SO_REUSEADDR (and SO_REUSEPORT where
// available) let several engines on one host share the discovery port; each
// of them receives every broadcast.
func ListenUDP4(ctx context.Context, port int) (net.PacketConn, error) {
	lc := net.ListenConfig{Control: controlBroadcast}
	conn, err := lc.ListenPacket(ctx, "udp4", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// boundPort returns the local UDP port of conn, or fallback if unknown.
func boundPort(conn net.PacketConn, fallback int) int {
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && addr.Port != 0 {
		return addr.Port
	}
	return fallback
}
