// Package executor runs an ordered, vendor-filtered command list against
// one connected device session.
package executor

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/netlab-tools/netcollect/pkg/config"
	"github.com/netlab-tools/netcollect/pkg/connector"
)

// CommandResult is the outcome of one executed command. Name doubles as
// the storage key the saver files output under.
type CommandResult struct {
	Name       string
	Command    string
	Output     string
	Device     string
	ExecutedAt time.Time
	Error      string
}

// CommandExecutor applies the vendor filter and runs the surviving
// commands strictly in declaration order. Devices serialize their CLI, so
// there is deliberately no parallelism here.
type CommandExecutor struct {
	session connector.DeviceSession
	device  config.Device
	log     *logrus.Entry
}

// NewCommandExecutor wraps an already-connected session.
func NewCommandExecutor(session connector.DeviceSession, device config.Device, log *logrus.Entry) *CommandExecutor {
	return &CommandExecutor{session: session, device: device, log: log}
}

// ExecuteCommands runs every applicable command with the per-command
// timeout. Commands whose vendor filter does not match the device are
// logged and omitted from the results. A session failure aborts the
// remaining commands; results collected up to that point are returned
// alongside the error.
func (e *CommandExecutor) ExecuteCommands(commands []config.Command, timeout time.Duration) ([]CommandResult, error) {
	var targets []config.Command
	for _, c := range commands {
		if c.AppliesTo(e.device.Vendor) {
			targets = append(targets, c)
			continue
		}
		e.log.Debugf("skipping %s (vendor=%s, device vendor=%s)", c.Name, c.Vendor, e.device.Vendor)
	}

	results := make([]CommandResult, 0, len(targets))
	for i, c := range targets {
		e.log.Infof("[%d/%d] %s", i+1, len(targets), c.Command)
		out, err := e.session.SendCommand(c.Command, timeout)
		if err != nil {
			return results, fmt.Errorf("command %q on %s: %w", c.Name, e.device.Name, err)
		}
		e.log.Debugf("done: %s (%d bytes)", c.Name, len(out))
		results = append(results, CommandResult{
			Name:       c.Name,
			Command:    c.Command,
			Output:     out,
			Device:     e.device.Name,
			ExecutedAt: time.Now(),
		})
	}
	return results, nil
}
