package output

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/netlab-tools/netcollect/pkg/cli"
	"github.com/netlab-tools/netcollect/pkg/executor"
)

// DiffDisplay renders unified diffs between the current results and a
// previously saved collection.
type DiffDisplay struct {
	w io.Writer
}

func NewDiffDisplay() *DiffDisplay {
	return &DiffDisplay{w: os.Stdout}
}

// NewDiffDisplayTo directs output to w.
func NewDiffDisplayTo(w io.Writer) *DiffDisplay {
	return &DiffDisplay{w: w}
}

// Show prints, per command, the unified diff between the output saved at
// oldTimestamp and the result just collected. Commands with no saved
// counterpart are reported, not failed.
func (d *DiffDisplay) Show(results []executor.CommandResult, oldTimestamp string, saver *Saver) error {
	for _, r := range results {
		fmt.Fprintf(d.w, "\n%s\n", strings.Repeat("=", 60))
		fmt.Fprintf(d.w, "command: %s  (%s)\n", r.Name, r.Command)
		fmt.Fprintln(d.w, strings.Repeat("=", 60))

		old, err := saver.Load(r.Device, oldTimestamp, r.Name)
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(d.w, "  no saved data for %s\n", oldTimestamp)
			continue
		}
		if err != nil {
			return err
		}

		text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(old),
			B:        difflib.SplitLines(r.Output),
			FromFile: oldTimestamp + "/" + r.Name,
			ToFile:   "current/" + r.Name,
			Context:  3,
		})
		if err != nil {
			return fmt.Errorf("diffing %s: %w", r.Name, err)
		}
		if text == "" {
			fmt.Fprintln(d.w, "  no change")
			continue
		}

		for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
			switch {
			case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
				fmt.Fprintln(d.w, line)
			case strings.HasPrefix(line, "+"):
				fmt.Fprintln(d.w, cli.Green(line))
			case strings.HasPrefix(line, "-"):
				fmt.Fprintln(d.w, cli.Red(line))
			case strings.HasPrefix(line, "@@"):
				fmt.Fprintln(d.w, cli.Cyan(line))
			default:
				fmt.Fprintln(d.w, line)
			}
		}
	}
	return nil
}
