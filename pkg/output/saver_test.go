package output

import (
	"errors"
	"io"
	"io/fs"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/netlab-tools/netcollect/pkg/executor"
)

func testEntry() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func sampleResult() executor.CommandResult {
	return executor.CommandResult{
		Name:       "show_version",
		Command:    "show version",
		Output:     "Junos: 21.4R1.12\nHostname: vmx1",
		Device:     "vmx1",
		ExecutedAt: time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
	}
}

func TestSaverRoundTrip(t *testing.T) {
	s := NewSaver(t.TempDir(), testEntry())

	ts, err := s.Save([]executor.CommandResult{sampleResult()}, "20260824_100000")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ts != "20260824_100000" {
		t.Errorf("timestamp = %q, want the one passed in", ts)
	}

	got, err := s.Load("vmx1", ts, "show_version")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != sampleResult().Output {
		t.Errorf("Load = %q, want the original output with the header stripped", got)
	}
}

func TestSaverGeneratesTimestamp(t *testing.T) {
	s := NewSaver(t.TempDir(), testEntry())

	ts, err := s.Save([]executor.CommandResult{sampleResult()}, "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := time.Parse(TimestampLayout, ts); err != nil {
		t.Errorf("generated timestamp %q does not match layout: %v", ts, err)
	}
}

func TestSaverLoadMissing(t *testing.T) {
	s := NewSaver(t.TempDir(), testEntry())
	_, err := s.Load("vmx1", "20260101_000000", "show_version")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestListTimestamps(t *testing.T) {
	s := NewSaver(t.TempDir(), testEntry())

	for _, ts := range []string{"20260824_120000", "20260823_090000", "20260824_100000"} {
		if _, err := s.Save([]executor.CommandResult{sampleResult()}, ts); err != nil {
			t.Fatalf("Save %s: %v", ts, err)
		}
	}

	got, err := s.ListTimestamps("vmx1")
	if err != nil {
		t.Fatalf("ListTimestamps: %v", err)
	}
	want := []string{"20260823_090000", "20260824_100000", "20260824_120000"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListTimestamps = %v, want ascending %v", got, want)
	}
}

func TestListTimestampsUnknownDevice(t *testing.T) {
	s := NewSaver(t.TempDir(), testEntry())
	got, err := s.ListTimestamps("never-collected")
	if err != nil {
		t.Fatalf("ListTimestamps: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListTimestamps = %v, want empty", got)
	}
}

func TestFileHeaderNamesDeviceAndCommand(t *testing.T) {
	content := fileContent(sampleResult())
	for _, want := range []string{"# Device  : vmx1", "# Command : show version", "# Executed: 2026-08-24 10:00:00"} {
		if !strings.Contains(content, want) {
			t.Errorf("header missing %q in:\n%s", want, content)
		}
	}
	if !strings.HasSuffix(content, sampleResult().Output+"\n") {
		t.Error("file content should end with the raw output")
	}
}
