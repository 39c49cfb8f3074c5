package connector

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"
)

// Sentinel errors for connection and session failures. Callers match with
// errors.Is; the typed errors below carry diagnostic context.
var (
	ErrConnectionRefused   = errors.New("connection refused")
	ErrUnreachable         = errors.New("host unreachable")
	ErrNameResolution      = errors.New("name resolution failed")
	ErrAuthFailed          = errors.New("authentication failed")
	ErrTimeout             = errors.New("timed out waiting for output")
	ErrUnsupportedTopology = errors.New("unsupported hop topology")
	ErrConnectionClosed    = errors.New("connection closed by peer")
)

// TimeoutError reports that no expected pattern appeared before the
// deadline. Tail holds the end of the receive buffer for diagnostics.
type TimeoutError struct {
	Host string
	Wait time.Duration
	Tail string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no expected output from %s within %s (buffer tail: %q)", e.Host, e.Wait, e.Tail)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// ClosedError reports that the peer closed the connection before an
// expected pattern appeared.
type ClosedError struct {
	Host string
	Tail string
}

func (e *ClosedError) Error() string {
	return fmt.Sprintf("connection to %s closed (buffer tail: %q)", e.Host, e.Tail)
}

func (e *ClosedError) Unwrap() error {
	return ErrConnectionClosed
}

// HopError attributes a failure to a named hop in the chain.
type HopError struct {
	Hop string
	Err error
}

func (e *HopError) Error() string {
	return fmt.Sprintf("hop %s: %v", e.Hop, e.Err)
}

func (e *HopError) Unwrap() error {
	return e.Err
}

// tail returns the last n characters of s.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// classifyDialError maps a dial failure onto the sentinel taxonomy,
// keeping the original message.
func classifyDialError(err error) error {
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &dnsErr):
		return fmt.Errorf("%v: %w", err, ErrNameResolution)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("%v: %w", err, ErrConnectionRefused)
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH):
		return fmt.Errorf("%v: %w", err, ErrUnreachable)
	default:
		return err
	}
}

// classifySSHError additionally recognizes the x/crypto/ssh handshake
// message for rejected credentials.
func classifySSHError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "unable to authenticate") {
		return fmt.Errorf("%v: %w", err, ErrAuthFailed)
	}
	return classifyDialError(err)
}
