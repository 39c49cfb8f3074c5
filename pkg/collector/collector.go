// Package collector ties the pieces together: load the YAML configuration,
// connect to one device through its bastion chain, run the command list,
// persist the output, and hand back a result that can render itself or
// diff against an earlier collection.
package collector

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/netlab-tools/netcollect/pkg/config"
	"github.com/netlab-tools/netcollect/pkg/connector"
	"github.com/netlab-tools/netcollect/pkg/executor"
	"github.com/netlab-tools/netcollect/pkg/output"
	"github.com/netlab-tools/netcollect/pkg/util"
)

// ErrCancelled is returned by Run when the operator declines the
// confirmation prompt.
var ErrCancelled = errors.New("cancelled by operator")

// Options tunes one collection run.
type Options struct {
	OutputDir string        // root of the saved-output tree
	Confirm   bool          // ask before connecting
	Timeout   time.Duration // per-command timeout; zero means the connector default
}

// sessionManager is the slice of ConnectionManager the collector drives.
type sessionManager interface {
	Connect() (connector.DeviceSession, error)
	Disconnect() error
}

// Collector holds parsed configuration and runs collections against the
// devices it describes.
type Collector struct {
	hosts    *config.HostsConfig
	commands *config.CommandsConfig
	review   *config.ReviewConfig
	log      *logrus.Logger

	// seams replaced in tests
	newManager func(bastions []config.Bastion, device config.Device, log *logrus.Entry) sessionManager
	confirm    func(prompt string) (bool, error)
	readSecret func(prompt string) (string, error)
}

// New loads the three configuration files. The review-points file is
// optional; a missing one just disables the checklist display.
func New(hostsFile, commandsFile, reviewFile string, log *logrus.Logger) (*Collector, error) {
	hosts, err := config.LoadHosts(hostsFile)
	if err != nil {
		return nil, err
	}
	commands, err := config.LoadCommands(commandsFile)
	if err != nil {
		return nil, err
	}

	var review *config.ReviewConfig
	if _, err := os.Stat(reviewFile); err == nil {
		review, err = config.LoadReviewPoints(reviewFile)
		if err != nil {
			return nil, err
		}
	}

	return &Collector{
		hosts:    hosts,
		commands: commands,
		review:   review,
		log:      log,
		newManager: func(bastions []config.Bastion, device config.Device, log *logrus.Entry) sessionManager {
			return connector.NewConnectionManager(bastions, device, log)
		},
		confirm:    terminalConfirm,
		readSecret: terminalSecret,
	}, nil
}

// Devices returns the configured device names.
func (c *Collector) Devices() []string {
	names := make([]string, 0, len(c.hosts.Devices))
	for _, d := range c.hosts.Devices {
		names = append(names, d.Name)
	}
	return names
}

// Saver returns a saver rooted at dir, for callers that only browse or
// diff saved data.
func (c *Collector) Saver(dir string) *output.Saver {
	return output.NewSaver(dir, logrus.NewEntry(c.log))
}

// Commands returns the parsed command list.
func (c *Collector) Commands() []config.Command {
	return c.commands.Commands
}

// Run connects to the named device, executes every applicable command,
// saves the output, and returns the collection. Disconnect is guaranteed
// once the connection attempt starts, whatever happens after.
func (c *Collector) Run(deviceName string, opts Options) (*CollectionResult, error) {
	device, err := c.hosts.DeviceByName(deviceName)
	if err != nil {
		return nil, err
	}
	if err := c.fillCredentials(&device); err != nil {
		return nil, err
	}

	applicable := 0
	for _, cmd := range c.commands.Commands {
		if cmd.AppliesTo(device.Vendor) {
			applicable++
		}
	}

	if opts.Confirm {
		prompt := fmt.Sprintf("run %d commands against %s (%s)? [y/N]: ",
			applicable, device.Name, device.Host)
		ok, err := c.confirm(prompt)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrCancelled
		}
	}

	entry := util.WithDevice(c.log, device.Name)
	entry.Infof("connecting via %d bastion(s)", len(c.hosts.Bastions))

	manager := c.newManager(c.hosts.Bastions, device, entry)
	session, err := manager.Connect()
	if err != nil {
		return nil, err
	}
	defer manager.Disconnect()

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = connector.DefaultCommandTimeout
	}

	exec := executor.NewCommandExecutor(session, device, entry)
	results, err := exec.ExecuteCommands(c.commands.Commands, timeout)
	if err != nil {
		return nil, err
	}

	saver := output.NewSaver(opts.OutputDir, entry)
	timestamp, err := saver.Save(results, "")
	if err != nil {
		return nil, err
	}
	entry.Infof("saved to %s/%s/%s", opts.OutputDir, device.Name, timestamp)

	return &CollectionResult{
		Results:   results,
		Timestamp: timestamp,
		Device:    device.Name,
		saver:     saver,
		keywords:  c.keywordMap(),
		reviews:   c.reviewMap(),
	}, nil
}

// fillCredentials prompts for any empty password so secrets can stay out
// of hosts.yaml.
func (c *Collector) fillCredentials(device *config.Device) error {
	for i := range c.hosts.Bastions {
		b := &c.hosts.Bastions[i]
		if b.Password == "" {
			pw, err := c.readSecret(fmt.Sprintf("password for %s@%s: ", b.Username, b.Name))
			if err != nil {
				return err
			}
			b.Password = pw
		}
	}
	if device.Password == "" {
		pw, err := c.readSecret(fmt.Sprintf("password for %s@%s: ", device.Username, device.Name))
		if err != nil {
			return err
		}
		device.Password = pw
	}
	return nil
}

func (c *Collector) keywordMap() map[string][]config.Keyword {
	m := make(map[string][]config.Keyword)
	for _, cmd := range c.commands.Commands {
		if len(cmd.Keywords) > 0 {
			m[cmd.Name] = cmd.Keywords
		}
	}
	return m
}

func (c *Collector) reviewMap() map[string][]string {
	m := make(map[string][]string)
	if c.review == nil {
		return m
	}
	for _, rp := range c.review.ReviewPoints {
		m[rp.Name] = rp.Points
	}
	return m
}

func terminalConfirm(prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		// non-interactive runs proceed; --no-confirm covers automation anyway
		return true, nil
	}
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func terminalSecret(prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("password not configured and stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}
