package connector

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// testEntry returns a silenced log entry for tests.
func testEntry() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

// fakeTextConn scripts successive ReadUntil results and records writes.
type fakeTextConn struct {
	reads  []string
	errs   []error
	writes []string
	closed int
	i      int
}

func (f *fakeTextConn) WriteLine(text string) error {
	f.writes = append(f.writes, text)
	return nil
}

func (f *fakeTextConn) ReadUntil(patterns []string, timeout time.Duration) (string, error) {
	if f.i >= len(f.reads) {
		return "", &TimeoutError{Host: "fake", Wait: timeout}
	}
	out := f.reads[f.i]
	var err error
	if f.i < len(f.errs) {
		err = f.errs[f.i]
	}
	f.i++
	return out, err
}

func (f *fakeTextConn) Close() error {
	f.closed++
	return nil
}
