package connector

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/netlab-tools/netcollect/pkg/config"
)

// textConn is the transport a cliDriver speaks through: the telnet socket
// on the interactive path, or an SSH shell on the chained path.
type textConn interface {
	WriteLine(text string) error
	ReadUntil(patterns []string, timeout time.Duration) (string, error)
	Close() error
}

// loginState names the stages of a prompt-driven device login.
type loginState int

const (
	awaitLoginOrPrompt loginState = iota
	awaitPassword
	awaitPrompt
	loggedIn
)

// cliDriver drives a vendor CLI over a textConn: login, pager handling,
// privilege escalation, and command execution with echo/prompt cleanup.
// InteractiveSession and CLIEngine embed it.
type cliDriver struct {
	conn    textConn
	device  config.Device
	prompt  string
	promptR *regexp.Regexp
	log     *logrus.Entry
}

func newCLIDriver(conn textConn, device config.Device, log *logrus.Entry) cliDriver {
	prompt := promptPattern(device.Vendor)
	return cliDriver{
		conn:    conn,
		device:  device,
		prompt:  prompt,
		promptR: regexp.MustCompile("(?i)" + prompt),
		log:     log,
	}
}

// deviceLogin walks the login state machine against the device CLI:
// answer a login/username prompt with the username, a password prompt
// with the password, then wait for the vendor prompt.
func (d *cliDriver) deviceLogin(username, password string) error {
	state := awaitLoginOrPrompt
	for state != loggedIn {
		switch state {
		case awaitLoginOrPrompt:
			out, err := d.conn.ReadUntil([]string{loginPrompt, passwordPrompt, d.prompt}, 20*time.Second)
			if err != nil {
				return err
			}
			switch {
			case matchText(loginPrompt, out):
				if err := d.conn.WriteLine(username); err != nil {
					return err
				}
				state = awaitPassword
			case matchText(passwordPrompt, out):
				if err := d.conn.WriteLine(password); err != nil {
					return err
				}
				state = awaitPrompt
			default:
				state = loggedIn
			}
		case awaitPassword:
			if _, err := d.conn.ReadUntil([]string{passwordPrompt}, 15*time.Second); err != nil {
				return err
			}
			if err := d.conn.WriteLine(password); err != nil {
				return err
			}
			state = awaitPrompt
		case awaitPrompt:
			if _, err := d.conn.ReadUntil([]string{d.prompt}, 20*time.Second); err != nil {
				return err
			}
			state = loggedIn
		}
	}
	d.log.Debug("device login complete")
	return nil
}

// setupDevice disables the vendor pager and, for cisco devices with an
// enable secret configured, escalates privilege.
func (d *cliDriver) setupDevice() error {
	if cmd := pagerDisableCommand(d.device.Vendor); cmd != "" {
		d.log.Debugf("disabling pager: %s", cmd)
		if err := d.conn.WriteLine(cmd); err != nil {
			return err
		}
		if _, err := d.conn.ReadUntil([]string{d.prompt}, 15*time.Second); err != nil {
			return err
		}
	}
	if d.device.Vendor == config.VendorCisco && d.device.EnablePassword != "" {
		return d.enable()
	}
	return nil
}

// enable escalates to privileged mode on cisco-family devices.
func (d *cliDriver) enable() error {
	if err := d.conn.WriteLine("enable"); err != nil {
		return err
	}
	if _, err := d.conn.ReadUntil([]string{passwordPrompt}, 10*time.Second); err != nil {
		return err
	}
	if err := d.conn.WriteLine(d.device.EnablePassword); err != nil {
		return err
	}
	if _, err := d.conn.ReadUntil([]string{`#\s*$`}, 10*time.Second); err != nil {
		return err
	}
	d.log.Debug("privileged mode entered")
	return nil
}

// sendCommand runs one command, feeding the pager with spaces until the
// vendor prompt returns, and cleans echo and trailing prompt from the
// output.
func (d *cliDriver) sendCommand(command string, timeout time.Duration) (string, error) {
	if err := d.conn.WriteLine(command); err != nil {
		return "", err
	}

	var parts []string
	for {
		out, err := d.conn.ReadUntil([]string{d.prompt, pagerPrompt}, timeout)
		if err != nil {
			return "", err
		}
		if matchText(pagerPrompt, out) {
			// Drop the marker and the blank residue it leaves behind.
			page := strings.TrimRight(pagerRe.ReplaceAllString(out, ""), " \n")
			parts = append(parts, page+"\n")
			if err := d.conn.WriteLine(" "); err != nil {
				return "", err
			}
			continue
		}
		parts = append(parts, out)
		break
	}

	return d.cleanOutput(command, strings.Join(parts, "")), nil
}

// cleanOutput drops the echoed command line from the front and prompt
// lines from the back of raw output.
func (d *cliDriver) cleanOutput(command, raw string) string {
	lines := strings.Split(raw, "\n")

	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start < len(lines) && strings.Contains(lines[start], strings.TrimSpace(command)) {
		start++
	}

	end := len(lines)
	for end > start && d.promptR.MatchString(strings.TrimSpace(lines[end-1])) {
		end--
	}

	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}

var pagerRe = regexp.MustCompile("(?i)" + pagerPrompt)

// matchText reports whether the case-insensitive pattern occurs in text.
func matchText(pattern, text string) bool {
	re, err := regexp.Compile("(?im)" + pattern)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// hopFailure classifies negative responses seen while opening a nested
// hop from a shell.
func hopFailure(host string, out string) error {
	switch {
	case matchText(`[Cc]onnection refused`, out):
		return fmt.Errorf("connect to %s (output tail: %q): %w", host, tail(out, tailLen), ErrConnectionRefused)
	case matchText(`[Nn]o route to host`, out):
		return fmt.Errorf("connect to %s (output tail: %q): %w", host, tail(out, tailLen), ErrUnreachable)
	case matchText(`not known|[Cc]ould not resolve`, out):
		return fmt.Errorf("connect to %s (output tail: %q): %w", host, tail(out, tailLen), ErrNameResolution)
	default:
		return nil
	}
}
