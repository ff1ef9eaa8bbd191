// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/fieldbridge/internal/protocol"
)

const (
	// defaultExchangeTimeout bounds one round trip when the constructor is
	// handed no budget of its own.
	defaultExchangeTimeout = 2 * time.Second

	// maxReplyBytes caps a single reply line. Devices answer short
	// key=value lines; anything longer is a framing fault, not data.
	maxReplyBytes = 8192
)

// TCPLine exchanges newline-delimited command lines with a device endpoint.
// It dials a fresh connection per command: shop-floor firmware tends to
// serve one request per connection and drops idle sockets without notice,
// so there is nothing to pool.
type TCPLine struct {
	addr    string
	timeout time.Duration
	dialer  *net.Dialer
}

// NewTCPLine builds an exchanger for one device endpoint. timeout covers
// connect, write, and read together; zero or negative selects a 2s default.
func NewTCPLine(host string, port int, timeout time.Duration) *TCPLine {
	if timeout <= 0 {
		timeout = defaultExchangeTimeout
	}
	return &TCPLine{
		addr:    net.JoinHostPort(strings.TrimSpace(host), strconv.Itoa(port)),
		timeout: timeout,
		dialer:  &net.Dialer{Timeout: timeout},
	}
}

// Exchange sends one command line and reads one reply line. Transport errors
// come back unwrapped so the live adapter can classify timeouts through
// net.Error; reply shape is the adapter's problem, not the transport's.
func (t *TCPLine) Exchange(ctx context.Context, cmd protocol.Command) (string, error) {
	conn, err := t.dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return "", err
	}

	if _, err := conn.Write([]byte(wireLine(cmd) + "\n")); err != nil {
		return "", err
	}
	return readReplyLine(conn)
}

// wireLine renders a command in the device line dialect: PKEY=? for reads,
// PKEY=value for writes.
func wireLine(cmd protocol.Command) string {
	if cmd.Read {
		return cmd.PKey() + "=?"
	}
	return cmd.PKey() + "=" + cmd.Value
}

// readReplyLine reads up to the first newline. A device that closes the
// connection early still gets its partial reply delivered; the shape check
// upstream decides whether it was usable.
func readReplyLine(conn net.Conn) (string, error) {
	line, err := bufio.NewReaderSize(conn, maxReplyBytes).ReadSlice('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
	case errors.Is(err, bufio.ErrBufferFull):
		return "", fmt.Errorf("device reply exceeded %d bytes", maxReplyBytes)
	default:
		return "", err
	}
	return strings.TrimSpace(string(line)), nil
}
