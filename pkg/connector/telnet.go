package connector

import (
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// Telnet IAC command bytes.
const (
	telnetIAC  = 0xFF
	telnetDont = 0xFE
	telnetDo   = 0xFD
	telnetWont = 0xFC
	telnetWill = 0xFB
	telnetSB   = 0xFA // subnegotiation begin
	telnetSE   = 0xF0 // subnegotiation end
)

// TelnetConn is a minimal telnet client over one raw connection. It
// answers option negotiation inline — every WILL with DONT, every DO with
// WONT, subnegotiation blocks skipped — and exposes write-line /
// read-until-pattern primitives over the cleaned byte stream.
type TelnetConn struct {
	host   string
	conn   net.Conn
	stream *textStream
	log    *logrus.Entry
}

// DialTelnet opens a TCP connection to host:port.
func DialTelnet(host string, port int, timeout time.Duration, log *logrus.Entry) (*TelnetConn, error) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("telnet %s: %w", addr, classifyDialError(err))
	}
	log.Debugf("telnet connection established: %s", addr)
	return newTelnetConn(host, conn, log), nil
}

// newTelnetConn wraps an already-established connection, which may be an
// SSH-forwarded channel as well as a direct TCP socket.
func newTelnetConn(host string, conn net.Conn, log *logrus.Entry) *TelnetConn {
	t := &TelnetConn{host: host, conn: conn, log: log}
	t.stream = newTextStream(host, conn, t.stripIAC)
	return t
}

// WriteLine sends text followed by CRLF.
func (t *TelnetConn) WriteLine(text string) error {
	t.log.Debugf("send: %q", text)
	if _, err := t.conn.Write(append([]byte(text), '\r', '\n')); err != nil {
		return fmt.Errorf("telnet write to %s: %w", t.host, err)
	}
	return nil
}

// ReadUntil accumulates decoded output until one of the patterns matches,
// then waits out the stabilization interval and returns everything read.
// Patterns are case-insensitive and multiline.
func (t *TelnetConn) ReadUntil(patterns []string, timeout time.Duration) (string, error) {
	compiled, err := compilePatterns(patterns)
	if err != nil {
		return "", err
	}
	out, err := t.stream.readUntil(compiled, timeout)
	if err != nil {
		return "", err
	}
	t.log.Debugf("pattern matched (%s), tail: %q", t.host, tail(out, 100))
	return out, nil
}

// Close closes the underlying connection.
func (t *TelnetConn) Close() error {
	t.log.Debugf("telnet disconnect: %s", t.host)
	return t.conn.Close()
}

// stripIAC removes IAC sequences from data, answering negotiation as it
// goes: DO is refused with WONT, WILL declined with DONT, IAC IAC unescaped
// to a literal 0xFF, and SB..SE blocks discarded. Runs on every received
// chunk before buffering.
func (t *TelnetConn) stripIAC(data []byte) []byte {
	result := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		b := data[i]
		if b != telnetIAC {
			result = append(result, b)
			i++
			continue
		}
		if i+1 >= len(data) {
			// IAC split across chunks: drop it, same as losing a
			// negotiation byte mid-stream.
			i++
			continue
		}
		cmd := data[i+1]
		switch {
		case (cmd == telnetWill || cmd == telnetWont || cmd == telnetDo || cmd == telnetDont) && i+2 < len(data):
			opt := data[i+2]
			switch cmd {
			case telnetDo:
				t.conn.Write([]byte{telnetIAC, telnetWont, opt})
			case telnetWill:
				t.conn.Write([]byte{telnetIAC, telnetDont, opt})
			}
			i += 3
		case cmd == telnetSB:
			end := indexSubEnd(data, i+2)
			if end == -1 {
				i = len(data)
			} else {
				i = end + 2
			}
		case cmd == telnetIAC:
			result = append(result, telnetIAC)
			i += 2
		default:
			i += 2
		}
	}
	return result
}

// indexSubEnd finds the IAC SE terminator from offset, or -1.
func indexSubEnd(data []byte, from int) int {
	for i := from; i+1 < len(data); i++ {
		if data[i] == telnetIAC && data[i+1] == telnetSE {
			return i
		}
	}
	return -1
}
