package connector

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"time"
)

const (
	readChunkSize = 4096

	// defaultStableWait is the idle period after a pattern match during
	// which further data is still appended. Any arriving chunk resets it.
	defaultStableWait = 300 * time.Millisecond

	// tailLen is how much buffer tail is attached to timeout and
	// connection-closed errors.
	tailLen = 200
)

// ansiEscape matches CSI sequences and OSC sequences terminated by BEL.
var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]|\x1b\][^\x07]*\x07`)

type chunk struct {
	data []byte
	err  error
}

// textStream turns a raw byte source into decoded text and implements the
// pattern wait loop shared by the telnet transport and the SSH shell
// transport. A background goroutine pumps reads into a channel so the
// blocking ReadUntil can observe deadlines; the public API stays
// synchronous.
type textStream struct {
	host   string
	chunks chan chunk
	buf    bytes.Buffer
	stable time.Duration
	closed bool
}

// newTextStream starts pumping from src. filter, when non-nil, is applied
// to every raw chunk before buffering (the telnet layer uses it to strip
// and answer IAC sequences).
func newTextStream(host string, src io.Reader, filter func([]byte) []byte) *textStream {
	s := &textStream{
		host:   host,
		chunks: make(chan chunk, 64),
		stable: defaultStableWait,
	}
	go s.pump(src, filter)
	return s
}

func (s *textStream) pump(src io.Reader, filter func([]byte) []byte) {
	buf := make([]byte, readChunkSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if filter != nil {
				data = filter(data)
			}
			if len(data) > 0 {
				s.chunks <- chunk{data: data}
			}
		}
		if err != nil {
			s.chunks <- chunk{err: err}
			close(s.chunks)
			return
		}
	}
}

// readUntil blocks until any pattern matches the accumulated text, then
// waits out the stabilization interval and returns the full text, clearing
// the buffer. Expired deadline yields a *TimeoutError; peer close before a
// match yields a *ClosedError.
func (s *textStream) readUntil(patterns []*regexp.Regexp, timeout time.Duration) (string, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		text := s.decoded()
		if matchAny(patterns, text) {
			s.stabilize()
			result := s.decoded()
			s.buf.Reset()
			return result, nil
		}

		if s.closed {
			s.buf.Reset()
			return "", &ClosedError{Host: s.host, Tail: tail(text, tailLen)}
		}

		select {
		case c, ok := <-s.chunks:
			if !ok || c.err != nil {
				s.closed = true
				continue
			}
			s.buf.Write(c.data)
		case <-deadline.C:
			return "", &TimeoutError{Host: s.host, Wait: timeout, Tail: tail(text, tailLen)}
		}
	}
}

// stabilize drains data that keeps arriving within the stable window.
// Each chunk resets the window; peer close ends it early.
func (s *textStream) stabilize() {
	for {
		idle := time.NewTimer(s.stable)
		select {
		case c, ok := <-s.chunks:
			idle.Stop()
			if !ok || c.err != nil {
				s.closed = true
				return
			}
			s.buf.Write(c.data)
		case <-idle.C:
			return
		}
	}
}

// decoded returns the buffer as normalized text: invalid UTF-8 replaced,
// ANSI escapes removed, CRLF and bare CR folded to LF.
func (s *textStream) decoded() string {
	text := strings.ToValidUTF8(s.buf.String(), "�")
	text = ansiEscape.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// compilePatterns compiles case-insensitive multiline patterns the way
// every wait in this package expects them.
func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?im)" + p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
