// Package wol builds and broadcasts Wake-on-LAN magic packets.
//
// A magic packet is fire-and-forget: the protocol has no acknowledgment,
// so a successful send only means the datagram left this host, not that
// the target powered on. Callers confirm power-up by probing reachability.
package wol

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

const (
	// macLen is the hardware address length WOL understands.
	macLen = 6

	// packetLen is the fixed magic packet size: a 6-byte synchronization
	// stream followed by the target MAC repeated 16 times.
	packetLen = 6 + 16*macLen
)

// MagicPacket builds the wire payload for the given hardware address.
// Malformed or non-48-bit addresses are configuration errors.
func MagicPacket(mac string) ([]byte, error) {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hardware address %q: %w", mac, err)
	}
	if len(hw) != macLen {
		return nil, fmt.Errorf("hardware address %q is not 48-bit", mac)
	}

	pkt := make([]byte, 0, packetLen)
	pkt = append(pkt, bytes.Repeat([]byte{0xFF}, 6)...)
	for i := 0; i < 16; i++ {
		pkt = append(pkt, hw...)
	}
	return pkt, nil
}

// Broadcaster sends magic packets to a fixed broadcast address, typically
// 255.255.255.255:9 or the cluster subnet's directed broadcast.
type Broadcaster struct {
	addr string
}

// NewBroadcaster creates a Broadcaster targeting addr ("host:port").
func NewBroadcaster(addr string) *Broadcaster {
	return &Broadcaster{addr: addr}
}

// Wake broadcasts one magic packet for mac.
func (b *Broadcaster) Wake(ctx context.Context, mac string) error {
	pkt, err := MagicPacket(mac)
	if err != nil {
		return err
	}

	dst, err := net.ResolveUDPAddr("udp4", b.addr)
	if err != nil {
		return fmt.Errorf("failed to resolve broadcast address %q: %w", b.addr, err)
	}

	// The kernel refuses datagrams to a broadcast address unless the
	// socket opts in with SO_BROADCAST.
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			if err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
			}); err != nil {
				return err
			}
			return sockErr
		},
	}

	conn, err := lc.ListenPacket(ctx, "udp4", ":0")
	if err != nil {
		return fmt.Errorf("failed to open broadcast socket: %w", err)
	}
	defer conn.Close()

	if _, err := conn.WriteTo(pkt, dst); err != nil {
		return fmt.Errorf("failed to send magic packet to %s: %w", dst, err)
	}
	return nil
}
