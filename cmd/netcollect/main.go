// Netcollect - bastion-chained network device command collector
//
// Connects to a network device through a chain of bastion hosts (SSH,
// telnet, or a telnet bastion followed by nested hops), runs the command
// list from commands.yaml, saves the output under a timestamped directory,
// and diffs collections against each other.
//
// Examples:
//
//	netcollect --host vmx1                        # collect and save
//	netcollect --host vmx1 --diff 20260223_100000 # diff latest saved vs timestamp
//	netcollect --host vmx1 --list-timestamps      # saved collections for one device
//	netcollect --list-timestamps                  # saved collections for all devices
//	netcollect --host vmx1 --no-confirm           # skip the confirmation prompt
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/netlab-tools/netcollect/pkg/cli"
	"github.com/netlab-tools/netcollect/pkg/collector"
	"github.com/netlab-tools/netcollect/pkg/executor"
	"github.com/netlab-tools/netcollect/pkg/output"
	"github.com/netlab-tools/netcollect/pkg/util"
	"github.com/netlab-tools/netcollect/pkg/version"
)

var (
	hostName       string
	diffTimestamp  string
	listTimestamps bool
	outputDir      string
	configDir      string
	noConfirm      bool
	verbose        bool
	showVersion    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, collector.ErrCancelled) {
			fmt.Fprintln(os.Stderr, "cancelled")
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "netcollect",
	Short:         "Network device command collector",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `Netcollect runs a predefined command list against a network device
reached through one or more bastion hosts, saves the output under a
timestamped directory, and diffs collections against earlier ones.

Hop chains may be all-SSH (tunneled hop by hop) or start with a telnet
bastion (driven interactively). A telnet bastion behind an SSH one is
not supported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Println("netcollect", version.Info())
			return nil
		}
		if listTimestamps {
			return runListTimestamps()
		}
		if hostName == "" {
			return errors.New("--host is required (only --list-timestamps works without it)")
		}
		if diffTimestamp != "" {
			return runDiffOnly()
		}
		return runCollect()
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&hostName, "host", "", "Device name from hosts.yaml")
	f.StringVar(&diffTimestamp, "diff", "", "Diff latest saved collection against this timestamp (YYYYMMDD_HHMMSS); no commands are run")
	f.BoolVar(&listTimestamps, "list-timestamps", false, "List saved collection timestamps (all devices unless --host is given)")
	f.StringVar(&outputDir, "output-dir", "outputs", "Root directory for saved output")
	f.StringVar(&configDir, "config-dir", "configs", "Directory holding hosts.yaml, commands.yaml, review_points.yaml")
	f.BoolVar(&noConfirm, "no-confirm", false, "Skip the pre-run confirmation prompt")
	f.BoolVarP(&verbose, "verbose", "v", false, "Debug-level logging")
	f.BoolVar(&showVersion, "version", false, "Print version and exit")
}

func newCollector() (*collector.Collector, error) {
	return collector.New(
		filepath.Join(configDir, "hosts.yaml"),
		filepath.Join(configDir, "commands.yaml"),
		filepath.Join(configDir, "review_points.yaml"),
		util.NewLogger(verbose),
	)
}

// runCollect is the default mode: connect, execute, save, display.
func runCollect() error {
	c, err := newCollector()
	if err != nil {
		return err
	}

	result, err := c.Run(hostName, collector.Options{
		OutputDir: outputDir,
		Confirm:   !noConfirm,
	})
	if err != nil {
		return err
	}

	result.Show(os.Stdout)
	fmt.Printf("\nsaved to %s\n", filepath.Join(outputDir, hostName, result.Timestamp))
	return nil
}

// runDiffOnly diffs the latest saved collection against --diff without
// touching the network.
func runDiffOnly() error {
	c, err := newCollector()
	if err != nil {
		return err
	}
	saver := c.Saver(outputDir)

	timestamps, err := saver.ListTimestamps(hostName)
	if err != nil {
		return err
	}
	if len(timestamps) == 0 {
		return fmt.Errorf("no saved data for %s under %s", hostName, outputDir)
	}
	latest := timestamps[len(timestamps)-1]
	fmt.Printf("comparing %s -> %s\n", diffTimestamp, latest)

	// Rebuild results from the latest snapshot; commands never saved for
	// it (vendor-filtered or added later) are skipped.
	var results []executor.CommandResult
	for _, cmd := range c.Commands() {
		text, err := saver.Load(hostName, latest, cmd.Name)
		if err != nil {
			continue
		}
		results = append(results, executor.CommandResult{
			Name:       cmd.Name,
			Command:    cmd.Command,
			Output:     text,
			Device:     hostName,
			ExecutedAt: time.Now(),
		})
	}
	if len(results) == 0 {
		return fmt.Errorf("no saved command output in %s", latest)
	}

	return output.NewDiffDisplayTo(os.Stdout).Show(results, diffTimestamp, saver)
}

// runListTimestamps prints saved collections, one row per timestamp.
func runListTimestamps() error {
	log := util.NewLogger(verbose)
	saver := output.NewSaver(outputDir, log.WithField("component", "saver"))

	devices := []string{hostName}
	if hostName == "" {
		entries, err := os.ReadDir(outputDir)
		if os.IsNotExist(err) {
			fmt.Printf("no saved data under %s\n", outputDir)
			return nil
		}
		if err != nil {
			return err
		}
		devices = devices[:0]
		for _, e := range entries {
			if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
				devices = append(devices, e.Name())
			}
		}
		sort.Strings(devices)
	}

	table := cli.NewTable("DEVICE", "TIMESTAMP", "COMMANDS")
	for _, dev := range devices {
		timestamps, err := saver.ListTimestamps(dev)
		if err != nil {
			return err
		}
		for _, ts := range timestamps {
			table.Row(dev, ts, strings.Join(savedCommands(outputDir, dev, ts), ", "))
		}
	}
	table.Flush()
	return nil
}

// savedCommands lists the command names stored in one snapshot directory.
func savedCommands(root, device, timestamp string) []string {
	entries, err := os.ReadDir(filepath.Join(root, device, timestamp))
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if n, ok := strings.CutSuffix(e.Name(), ".txt"); ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}
