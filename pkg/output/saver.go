// Package output persists command results under a timestamped directory
// tree and renders results and their diffs to the terminal.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/netlab-tools/netcollect/pkg/executor"
)

// TimestampLayout is the directory-name form of a collection timestamp.
const TimestampLayout = "20060102_150405"

const headerPrefix = "# "

// Saver files command output under <dir>/<device>/<timestamp>/<name>.txt.
// Every file starts with a commented header naming the device, the command
// and the execution time; Load strips it back off.
type Saver struct {
	dir string
	log *logrus.Entry
}

func NewSaver(dir string, log *logrus.Entry) *Saver {
	return &Saver{dir: dir, log: log}
}

// Save writes one file per result and returns the timestamp used. An empty
// timestamp means "now".
func (s *Saver) Save(results []executor.CommandResult, timestamp string) (string, error) {
	if timestamp == "" {
		timestamp = time.Now().Format(TimestampLayout)
	}

	for _, r := range results {
		dir := filepath.Join(s.dir, r.Device, timestamp)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating %s: %w", dir, err)
		}
		path := filepath.Join(dir, r.Name+".txt")
		if err := os.WriteFile(path, []byte(fileContent(r)), 0o644); err != nil {
			return "", fmt.Errorf("writing %s: %w", path, err)
		}
		s.log.Debugf("saved %s", path)
	}
	return timestamp, nil
}

// Load returns the stored output of one command with the header stripped.
// A missing file surfaces as an fs.ErrNotExist-wrapping error from the
// underlying read.
func (s *Saver) Load(device, timestamp, name string) (string, error) {
	path := filepath.Join(s.dir, device, timestamp, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return stripHeader(string(data)), nil
}

// ListTimestamps returns the device's saved collection timestamps, oldest
// first. A device never collected from yields an empty list, not an error.
func (s *Saver) ListTimestamps(device string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, device))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var timestamps []string
	for _, e := range entries {
		if e.IsDir() {
			timestamps = append(timestamps, e.Name())
		}
	}
	sort.Strings(timestamps)
	return timestamps, nil
}

func fileContent(r executor.CommandResult) string {
	header := fmt.Sprintf(
		"%sDevice  : %s\n%sCommand : %s\n%sExecuted: %s\n%s%s\n\n",
		headerPrefix, r.Device,
		headerPrefix, r.Command,
		headerPrefix, r.ExecutedAt.Format("2006-01-02 15:04:05"),
		headerPrefix, strings.Repeat("=", 60),
	)
	return header + r.Output + "\n"
}

func stripHeader(content string) string {
	var body []string
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, headerPrefix) {
			continue
		}
		body = append(body, line)
	}
	return strings.TrimSpace(strings.Join(body, "\n"))
}
