package util

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerLevels(t *testing.T) {
	if lvl := NewLogger(false).GetLevel(); lvl != logrus.InfoLevel {
		t.Errorf("default level = %v, want info", lvl)
	}
	if lvl := NewLogger(true).GetLevel(); lvl != logrus.DebugLevel {
		t.Errorf("verbose level = %v, want debug", lvl)
	}
}

func TestScopedEntries(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, false)

	WithDevice(log, "vmx1").Info("connected")
	if out := buf.String(); !strings.Contains(out, "device=vmx1") {
		t.Errorf("output missing device field: %s", out)
	}

	buf.Reset()
	WithHop(log, "bastion-1").Info("hopped")
	if out := buf.String(); !strings.Contains(out, "hop=bastion-1") {
		t.Errorf("output missing hop field: %s", out)
	}
}
