package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/netlab-tools/netcollect/pkg/config"
	"github.com/netlab-tools/netcollect/pkg/executor"
)

func TestDisplayShow(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplayTo(&buf)

	d.Show([]executor.CommandResult{sampleResult()},
		map[string][]config.Keyword{
			"show_version": {{Word: "junos", Color: "green"}},
		},
		map[string][]string{
			"show_version": {"version matches the upgrade plan"},
		})

	out := buf.String()
	if !strings.Contains(out, "[vmx1] show_version: show version") {
		t.Errorf("missing result header:\n%s", out)
	}
	if !strings.Contains(out, "version matches the upgrade plan") {
		t.Errorf("missing review point:\n%s", out)
	}
	// case-insensitive keyword match keeps the original casing
	if !strings.Contains(out, "Junos") {
		t.Errorf("keyword casing altered:\n%s", out)
	}
}

func TestHighlightWrapsMatches(t *testing.T) {
	got := highlight("link is Down, peer down", []config.Keyword{{Word: "down", Color: "red"}})
	if !strings.Contains(got, "Down") || !strings.Contains(got, "peer") {
		t.Errorf("highlight mangled text: %q", got)
	}
	if strings.Count(got, "Down")+strings.Count(got, "down") < 2 {
		t.Errorf("both occurrences should survive: %q", got)
	}
}

func TestHighlightNoKeywords(t *testing.T) {
	if got := highlight("plain text", nil); got != "plain text" {
		t.Errorf("highlight(nil keywords) = %q, want unchanged", got)
	}
}
