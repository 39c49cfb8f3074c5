package collector

import (
	"fmt"
	"io"

	"github.com/netlab-tools/netcollect/pkg/config"
	"github.com/netlab-tools/netcollect/pkg/executor"
	"github.com/netlab-tools/netcollect/pkg/output"
)

// CollectionResult is one finished collection: the results, the timestamp
// they were saved under, and enough context to render or diff them.
type CollectionResult struct {
	Results   []executor.CommandResult
	Timestamp string
	Device    string

	saver    *output.Saver
	keywords map[string][]config.Keyword
	reviews  map[string][]string
}

// Show renders the results to w with keyword highlighting and review
// checklists.
func (r *CollectionResult) Show(w io.Writer) {
	output.NewDisplayTo(w).Show(r.Results, r.keywords, r.reviews)
}

// Diff renders a unified diff against the collection saved at
// oldTimestamp. An empty oldTimestamp selects the most recent saved
// collection before this one; when none exists, that is reported on w and
// no diff is produced.
func (r *CollectionResult) Diff(w io.Writer, oldTimestamp string) error {
	if oldTimestamp == "" {
		prev, err := r.previousTimestamp()
		if err != nil {
			return err
		}
		if prev == "" {
			fmt.Fprintln(w, "no previous collection to compare against")
			return nil
		}
		oldTimestamp = prev
	}

	fmt.Fprintf(w, "comparing %s -> %s\n", oldTimestamp, r.Timestamp)
	return output.NewDiffDisplayTo(w).Show(r.Results, oldTimestamp, r.saver)
}

// previousTimestamp returns the newest saved timestamp older than this
// collection, or "" when this is the first one.
func (r *CollectionResult) previousTimestamp() (string, error) {
	timestamps, err := r.saver.ListTimestamps(r.Device)
	if err != nil {
		return "", err
	}
	prev := ""
	for _, ts := range timestamps {
		if ts != r.Timestamp {
			prev = ts
		}
	}
	return prev, nil
}
