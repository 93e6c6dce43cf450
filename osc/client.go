package osc

import (
	"net"
	"time"

	"github.com/pkg/errors"
)

// Client enables you to send OSC Packets to a specified server and read
// its replies.
type Client struct {
	conn *net.UDPConn
	buf  []byte
}

// Dial creates a new OSC Client with a connection to the specified server.
func Dial(addr string) (*Client, error) {
	a, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", addr)
	}

	conn, err := net.DialUDP("udp", nil, a)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}
	return &Client{conn: conn, buf: make([]byte, DefaultReceiveBufferSize)}, nil
}

// LocalAddr returns the client's local address, where replies arrive.
func (c *Client) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Send sends an OSC Packet to the server.
func (c *Client) Send(packet Packet) error {
	data, err := packet.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = c.conn.Write(data)
	return err
}

// Receive waits up to timeout for a reply and decodes it.
func (c *Client) Receive(timeout time.Duration) (Packet, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	n, err := c.conn.Read(c.buf)
	if err != nil {
		return nil, err
	}
	data := make([]byte, n)
	copy(data, c.buf[:n])
	return ParsePacket(data)
}

// Close closes the connection to the server.
func (c *Client) Close() error {
	return c.conn.Close()
}
