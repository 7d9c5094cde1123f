// Package udp pushes dial frames to an external consumer (e.g. a
// display device on the local network) as one JSON datagram per frame
// interval.
package udp

import (
	"encoding/json"
	"fmt"
	"net"
)

type udpConn interface {
	Write(p []byte) (int, error)
	Close() error
}

type resolveFunc func(network, address string) (*net.UDPAddr, error)
type dialFunc func(network string, laddr, raddr *net.UDPAddr) (udpConn, error)

type Broadcaster struct {
	dest string
	conn udpConn
}

func NewBroadcaster(dest string) (*Broadcaster, error) {
	return newBroadcaster(dest, net.ResolveUDPAddr, func(network string, laddr, raddr *net.UDPAddr) (udpConn, error) {
		return net.DialUDP(network, laddr, raddr)
	})
}

func newBroadcaster(dest string, resolve resolveFunc, dial dialFunc) (*Broadcaster, error) {
	addr, err := resolve("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}

	// DialUDP selects a suitable local address automatically.
	conn, err := dial("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp: %w", err)
	}

	return &Broadcaster{dest: dest, conn: conn}, nil
}

// SendJSON marshals v and sends it as a single datagram, newline
// terminated so line-oriented receivers can split a capture.
func (b *Broadcaster) SendJSON(v any) error {
	if b == nil || b.conn == nil {
		return fmt.Errorf("udp broadcaster is nil")
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	payload = append(payload, '\n')
	_, err = b.conn.Write(payload)
	return err
}

func (b *Broadcaster) Send(payload []byte) error {
	if b == nil || b.conn == nil {
		return fmt.Errorf("udp broadcaster is nil")
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := b.conn.Write(payload)
	return err
}

func (b *Broadcaster) Close() error {
	if b == nil || b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	return err
}
