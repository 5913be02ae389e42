package scanner

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	result, err := ParseResponse("stream: OK")
	require.NoError(t, err)
	require.Equal(t, VerdictClean, result.Verdict)

	result, err = ParseResponse("stream: Eicar-Signature FOUND")
	require.NoError(t, err)
	require.Equal(t, VerdictInfected, result.Verdict)
	require.Contains(t, result.Diagnostic, "Eicar-Signature")

	_, err = ParseResponse("stream: size limit exceeded ERROR")
	require.Error(t, err)

	_, err = ParseResponse("garbage")
	require.Error(t, err)
}

// fakeClamd accepts one connection, consumes an INSTREAM payload, and
// replies with the configured response line.
func fakeClamd(t *testing.T, response string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		reader := bufio.NewReader(conn)
		cmd, err := reader.ReadString('\x00')
		if err != nil {
			return
		}
		if strings.HasPrefix(cmd, "zPING") {
			conn.Write([]byte("PONG\x00"))
			return
		}
		chunkLen := make([]byte, 4)
		for {
			if _, err := io.ReadFull(reader, chunkLen); err != nil {
				return
			}
			size := binary.BigEndian.Uint32(chunkLen)
			if size == 0 {
				break
			}
			if _, err := io.CopyN(io.Discard, reader, int64(size)); err != nil {
				return
			}
		}
		conn.Write([]byte(response + "\x00"))
	}()

	return ln.Addr().String()
}

func TestClientScanStreamClean(t *testing.T) {
	addr := fakeClamd(t, "stream: OK")
	client := NewClient(addr, time.Second)

	result, err := client.ScanStream(context.Background(), strings.NewReader("harmless bytes"))
	require.NoError(t, err)
	require.Equal(t, VerdictClean, result.Verdict)
}

func TestClientScanStreamInfected(t *testing.T) {
	addr := fakeClamd(t, "stream: Eicar-Signature FOUND")
	client := NewClient(addr, time.Second)

	result, err := client.ScanStream(context.Background(), strings.NewReader("X5O!P%@AP"))
	require.NoError(t, err)
	require.Equal(t, VerdictInfected, result.Verdict)
	require.Contains(t, result.Diagnostic, "FOUND")
}

func TestClientPing(t *testing.T) {
	addr := fakeClamd(t, "")
	client := NewClient(addr, time.Second)
	require.NoError(t, client.Ping(context.Background()))
}

func TestClientDialFailure(t *testing.T) {
	client := NewClient("127.0.0.1:1", 100*time.Millisecond)
	_, err := client.ScanStream(context.Background(), strings.NewReader("data"))
	require.Error(t, err)
}
