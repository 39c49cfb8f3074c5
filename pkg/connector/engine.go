package connector

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/netlab-tools/netcollect/pkg/config"
)

// deviceCLI is the command-execution engine a ChainedSession drives.
// Satisfied by *CLIEngine; tests substitute fakes.
type deviceCLI interface {
	SendCommand(command string, timeout time.Duration) (string, error)
	Setup() error
	Disconnect() error
}

// CLIEngine understands the target vendor's CLI semantics (prompt
// detection, paging, privilege escalation) over a connection that was
// forwarded through the bastion chain. For SSH devices it performs its
// own handshake and drives a pty shell; for telnet devices it speaks the
// line protocol directly on the forwarded connection.
type CLIEngine struct {
	cliDriver
	closer io.Closer
}

// newCLIEngine authenticates against the device over conn and waits for
// the initial vendor prompt. conn is consumed either way: on error it is
// the caller's to close.
func newCLIEngine(conn net.Conn, device config.Device, log *logrus.Entry) (*CLIEngine, error) {
	switch device.Protocol {
	case config.ProtocolTelnet:
		return newTelnetEngine(conn, device, log)
	default:
		return newSSHEngine(conn, device, log)
	}
}

func newTelnetEngine(conn net.Conn, device config.Device, log *logrus.Entry) (*CLIEngine, error) {
	tc := newTelnetConn(device.Host, conn, log)
	e := &CLIEngine{
		cliDriver: newCLIDriver(tc, device, log),
		closer:    tc,
	}
	if err := e.deviceLogin(device.Username, device.Password); err != nil {
		return nil, err
	}
	return e, nil
}

func newSSHEngine(conn net.Conn, device config.Device, log *logrus.Entry) (*CLIEngine, error) {
	addr := net.JoinHostPort(device.Host, fmt.Sprintf("%d", device.Port))
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, sshClientConfig(device.Username, device.Password))
	if err != nil {
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, classifySSHError(err))
	}
	client := ssh.NewClient(c, chans, reqs)

	shell, err := openShell(client, device.Host)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("shell on %s: %w", addr, err)
	}

	e := &CLIEngine{
		cliDriver: newCLIDriver(shell, device, log),
		closer:    shell,
	}
	if _, err := shell.ReadUntil([]string{e.prompt}, 30*time.Second); err != nil {
		shell.Close()
		return nil, err
	}
	return e, nil
}

// Setup disables the pager and escalates privilege when an enable secret
// is configured.
func (e *CLIEngine) Setup() error {
	return e.setupDevice()
}

// SendCommand runs one command against the device CLI.
func (e *CLIEngine) SendCommand(command string, timeout time.Duration) (string, error) {
	return e.sendCommand(command, timeout)
}

// Disconnect closes the engine's shell and connection.
func (e *CLIEngine) Disconnect() error {
	return e.closer.Close()
}

// sshShell is the textConn over an interactive SSH session with a pty.
type sshShell struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	stream  *textStream
	host    string
}

func openShell(client *ssh.Client, host string) (*sshShell, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, err
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 115200,
		ssh.TTY_OP_OSPEED: 115200,
	}
	if err := session.RequestPty("vt100", 0, 200, modes); err != nil {
		session.Close()
		return nil, err
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, err
	}
	if err := session.Shell(); err != nil {
		session.Close()
		return nil, err
	}

	return &sshShell{
		client:  client,
		session: session,
		stdin:   stdin,
		stream:  newTextStream(host, stdout, nil),
		host:    host,
	}, nil
}

func (s *sshShell) WriteLine(text string) error {
	if _, err := io.WriteString(s.stdin, text+"\n"); err != nil {
		return fmt.Errorf("ssh write to %s: %w", s.host, err)
	}
	return nil
}

func (s *sshShell) ReadUntil(patterns []string, timeout time.Duration) (string, error) {
	compiled, err := compilePatterns(patterns)
	if err != nil {
		return "", err
	}
	return s.stream.readUntil(compiled, timeout)
}

func (s *sshShell) Close() error {
	s.session.Close()
	return s.client.Close()
}

// sshClientConfig builds the client config used for every hop and device:
// password plus keyboard-interactive auth (network devices often accept
// only the latter), host keys not verified.
func sshClientConfig(username, password string) *ssh.ClientConfig {
	return &ssh.ClientConfig{
		User: username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         15 * time.Second,
	}
}
