package output

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/netlab-tools/netcollect/pkg/cli"
	"github.com/netlab-tools/netcollect/pkg/config"
	"github.com/netlab-tools/netcollect/pkg/executor"
)

// Display renders collected results to the terminal with keyword
// highlighting and the per-command review checklist.
type Display struct {
	w io.Writer
}

func NewDisplay() *Display {
	return &Display{w: os.Stdout}
}

// NewDisplayTo directs output to w.
func NewDisplayTo(w io.Writer) *Display {
	return &Display{w: w}
}

// Show prints every result. keywords and reviews are keyed by command
// name; either map may be nil.
func (d *Display) Show(results []executor.CommandResult, keywords map[string][]config.Keyword, reviews map[string][]string) {
	for _, r := range results {
		fmt.Fprintf(d.w, "\n%s\n", strings.Repeat("=", 60))
		fmt.Fprintf(d.w, "[%s] %s: %s\n", r.Device, r.Name, r.Command)
		fmt.Fprintln(d.w, strings.Repeat("=", 60))

		if points := reviews[r.Name]; len(points) > 0 {
			fmt.Fprintln(d.w, cli.Bold("review points:"))
			for _, p := range points {
				fmt.Fprintf(d.w, "  - %s\n", p)
			}
			fmt.Fprintln(d.w)
		}

		fmt.Fprintln(d.w, highlight(r.Output, keywords[r.Name]))
	}
}

// highlight wraps every keyword occurrence in its configured color,
// case-insensitively.
func highlight(text string, keywords []config.Keyword) string {
	for _, kw := range keywords {
		if kw.Word == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(kw.Word))
		if err != nil {
			continue
		}
		text = re.ReplaceAllStringFunc(text, func(m string) string {
			return cli.Colorize(kw.Color, m)
		})
	}
	return text
}
