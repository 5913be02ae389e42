package scanner

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// Verdict is the binary outcome of a virus scan.
type Verdict string

const (
	VerdictClean    Verdict = "CLEAN"
	VerdictInfected Verdict = "INFECTED"
)

// Result carries the verdict and the scanner's diagnostic line.
type Result struct {
	Verdict    Verdict
	Diagnostic string
}

// Client talks to a clamd daemon over TCP using the INSTREAM protocol.
type Client struct {
	addr    string
	timeout time.Duration
	dialer  net.Dialer
}

// NewClient constructs a client for the given clamd address (host:port).
func NewClient(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{addr: addr, timeout: timeout}
}

// Ping checks daemon liveness.
func (c *Client) Ping(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close() //nolint:errcheck

	if _, err := conn.Write([]byte("zPING\x00")); err != nil {
		return fmt.Errorf("clamd ping: %w", err)
	}
	line, err := readResponse(conn)
	if err != nil {
		return err
	}
	if line != "PONG" {
		return fmt.Errorf("clamd ping: unexpected response %q", line)
	}
	return nil
}

// ScanStream streams the reader's contents to clamd and maps the response
// to a verdict. Transport and daemon errors are returned as plain errors
// so callers can retry.
func (c *Client) ScanStream(ctx context.Context, r io.Reader) (*Result, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close() //nolint:errcheck

	if _, err := conn.Write([]byte("zINSTREAM\x00")); err != nil {
		return nil, fmt.Errorf("clamd instream: %w", err)
	}

	buf := make([]byte, 32*1024)
	chunkLen := make([]byte, 4)
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			binary.BigEndian.PutUint32(chunkLen, uint32(n))
			if _, err := conn.Write(chunkLen); err != nil {
				return nil, fmt.Errorf("clamd instream: %w", err)
			}
			if _, err := conn.Write(buf[:n]); err != nil {
				return nil, fmt.Errorf("clamd instream: %w", err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read upload stream: %w", readErr)
		}
	}

	// zero-length chunk terminates the stream
	binary.BigEndian.PutUint32(chunkLen, 0)
	if _, err := conn.Write(chunkLen); err != nil {
		return nil, fmt.Errorf("clamd instream: %w", err)
	}

	line, err := readResponse(conn)
	if err != nil {
		return nil, err
	}
	return ParseResponse(line)
}

// ParseResponse maps a clamd response line to a scan result.
// Responses look like "stream: OK", "stream: Eicar-Signature FOUND", or
// "stream: ... ERROR".
func ParseResponse(line string) (*Result, error) {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasSuffix(trimmed, "OK"):
		return &Result{Verdict: VerdictClean, Diagnostic: trimmed}, nil
	case strings.HasSuffix(trimmed, "FOUND"):
		return &Result{Verdict: VerdictInfected, Diagnostic: trimmed}, nil
	case strings.HasSuffix(trimmed, "ERROR"):
		return nil, fmt.Errorf("clamd error: %s", trimmed)
	default:
		return nil, fmt.Errorf("clamd: unexpected response %q", trimmed)
	}
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	conn, err := c.dialer.DialContext(dialCtx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("dial clamd %s: %w", c.addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(c.timeout))
	}
	return conn, nil
}

func readResponse(conn net.Conn) (string, error) {
	line, err := bufio.NewReader(conn).ReadString('\x00')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read clamd response: %w", err)
	}
	return strings.TrimRight(strings.TrimSpace(line), "\x00"), nil
}
