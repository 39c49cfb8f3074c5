package connector

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/netlab-tools/netcollect/pkg/config"
)

// InteractiveSession drives an entire multi-hop login sequence and the
// final device CLI through text pattern matching over a single telnet
// connection. It exists because no session library can negotiate a chain
// that starts with a telnet bastion.
type InteractiveSession struct {
	cliDriver
	telnet *TelnetConn
}

// NewInteractiveSession wraps an opened telnet connection. The device
// determines the prompt pattern hops wait for.
func NewInteractiveSession(t *TelnetConn, device config.Device, log *logrus.Entry) *InteractiveSession {
	return &InteractiveSession{
		cliDriver: newCLIDriver(t, device, log),
		telnet:    t,
	}
}

// LoginShell authenticates against the shell at the telnet end: answer a
// login/username prompt with the username, then always send the password
// and wait for the shell prompt.
func (s *InteractiveSession) LoginShell(username, password string) error {
	out, err := s.telnet.ReadUntil([]string{loginPrompt, passwordPrompt, shellPrompt}, 20*time.Second)
	if err != nil {
		return err
	}

	if matchText(loginPrompt, out) {
		s.log.Debug("username prompt detected")
		if err := s.telnet.WriteLine(username); err != nil {
			return err
		}
		if _, err := s.telnet.ReadUntil([]string{passwordPrompt}, 15*time.Second); err != nil {
			return err
		}
	}

	s.log.Debug("password prompt detected")
	if err := s.telnet.WriteLine(password); err != nil {
		return err
	}

	if _, err := s.telnet.ReadUntil([]string{shellPrompt}, 20*time.Second); err != nil {
		return err
	}
	s.log.Debugf("shell login complete: %s", s.telnet.host)
	return nil
}

// SSHTo opens an SSH connection to the next hop from the current shell,
// with host-key interaction disabled, and waits for the target vendor
// prompt.
func (s *InteractiveSession) SSHTo(host string, port int, username, password string) error {
	cmd := "ssh -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null -o ConnectTimeout=10"
	if port != 22 {
		cmd += fmt.Sprintf(" -p %d", port)
	}
	cmd += fmt.Sprintf(" %s@%s", username, host)

	s.log.Debugf("ssh hop: %s@%s:%d", username, host, port)
	if err := s.telnet.WriteLine(cmd); err != nil {
		return err
	}

	out, err := s.telnet.ReadUntil([]string{
		passwordPrompt,
		`yes/no`,
		`continue connecting`,
		`[Cc]onnection refused`,
		`[Nn]o route to host`,
		`[Nn]ame or service not known`,
	}, 30*time.Second)
	if err != nil {
		return err
	}
	if ferr := hopFailure(host, out); ferr != nil {
		return ferr
	}

	if matchText(`yes/no|continue connecting`, out) {
		if err := s.telnet.WriteLine("yes"); err != nil {
			return err
		}
		if _, err := s.telnet.ReadUntil([]string{passwordPrompt}, 15*time.Second); err != nil {
			return err
		}
	}

	if err := s.telnet.WriteLine(password); err != nil {
		return err
	}

	if _, err := s.telnet.ReadUntil([]string{s.prompt}, 40*time.Second); err != nil {
		return err
	}
	s.log.Debugf("ssh hop complete: %s", host)
	return nil
}

// TelnetTo opens a nested telnet connection to the next hop from the
// current shell and logs in, waiting for the target vendor prompt.
func (s *InteractiveSession) TelnetTo(host string, port int, username, password string) error {
	s.log.Debugf("telnet hop: %s:%d", host, port)
	if err := s.telnet.WriteLine(fmt.Sprintf("telnet %s %d", host, port)); err != nil {
		return err
	}

	out, err := s.telnet.ReadUntil([]string{
		loginPrompt,
		passwordPrompt,
		`[Cc]onnection refused`,
	}, 20*time.Second)
	if err != nil {
		return err
	}
	if ferr := hopFailure(host, out); ferr != nil {
		return ferr
	}

	if matchText(loginPrompt, out) {
		if err := s.telnet.WriteLine(username); err != nil {
			return err
		}
		if _, err := s.telnet.ReadUntil([]string{passwordPrompt}, 10*time.Second); err != nil {
			return err
		}
	}

	if err := s.telnet.WriteLine(password); err != nil {
		return err
	}
	if _, err := s.telnet.ReadUntil([]string{s.prompt}, 20*time.Second); err != nil {
		return err
	}
	s.log.Debugf("telnet hop complete: %s", host)
	return nil
}

// SetupDevice runs post-login device preparation: pager disable and, for
// cisco devices with an enable secret, privilege escalation.
func (s *InteractiveSession) SetupDevice() error {
	return s.setupDevice()
}

// SendCommand implements DeviceSession.
func (s *InteractiveSession) SendCommand(command string, timeout time.Duration) (string, error) {
	return s.sendCommand(command, timeout)
}

// Disconnect implements DeviceSession.
func (s *InteractiveSession) Disconnect() error {
	return s.telnet.Close()
}
