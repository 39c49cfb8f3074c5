package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/netlab-tools/netcollect/pkg/executor"
)

func TestDiffShowNoChange(t *testing.T) {
	s := NewSaver(t.TempDir(), testEntry())
	r := sampleResult()
	if _, err := s.Save([]executor.CommandResult{r}, "20260823_090000"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var buf bytes.Buffer
	d := NewDiffDisplayTo(&buf)
	if err := d.Show([]executor.CommandResult{r}, "20260823_090000", s); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if !strings.Contains(buf.String(), "no change") {
		t.Errorf("output should report no change, got:\n%s", buf.String())
	}
}

func TestDiffShowChangedLines(t *testing.T) {
	s := NewSaver(t.TempDir(), testEntry())
	old := sampleResult()
	if _, err := s.Save([]executor.CommandResult{old}, "20260823_090000"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	current := old
	current.Output = "Junos: 21.4R2.8\nHostname: vmx1"

	var buf bytes.Buffer
	d := NewDiffDisplayTo(&buf)
	if err := d.Show([]executor.CommandResult{current}, "20260823_090000", s); err != nil {
		t.Fatalf("Show: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "-Junos: 21.4R1.12") {
		t.Errorf("diff missing removed line:\n%s", out)
	}
	if !strings.Contains(out, "+Junos: 21.4R2.8") {
		t.Errorf("diff missing added line:\n%s", out)
	}
	if !strings.Contains(out, "20260823_090000/show_version") {
		t.Errorf("diff missing from-file label:\n%s", out)
	}
}

func TestDiffShowNoPreviousData(t *testing.T) {
	s := NewSaver(t.TempDir(), testEntry())

	var buf bytes.Buffer
	d := NewDiffDisplayTo(&buf)
	if err := d.Show([]executor.CommandResult{sampleResult()}, "20260101_000000", s); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if !strings.Contains(buf.String(), "no saved data for 20260101_000000") {
		t.Errorf("output should report the missing snapshot, got:\n%s", buf.String())
	}
}
