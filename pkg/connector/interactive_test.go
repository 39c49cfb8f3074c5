package connector

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"
)

// scriptStep is one exchange of a scripted peer: when a received line
// contains want, reply is written back.
type scriptStep struct {
	want  string
	reply string
}

// scriptedSession wires an InteractiveSession to a scripted peer over a
// pipe. banner is written immediately; each subsequent line from the
// client is checked against the next step. Script violations surface on
// the returned channel.
func scriptedSession(t *testing.T, banner string, steps []scriptStep) (*InteractiveSession, <-chan error) {
	t.Helper()
	server, client := net.Pipe()
	tc := newTelnetConn("bast01", client, testEntry())
	tc.stream.stable = 20 * time.Millisecond
	s := NewInteractiveSession(tc, juniperDevice(), testEntry())
	t.Cleanup(func() {
		tc.Close()
		server.Close()
	})

	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		if banner != "" {
			if _, err := server.Write([]byte(banner)); err != nil {
				errc <- err
				return
			}
		}
		r := bufio.NewReader(server)
		for _, step := range steps {
			line, err := r.ReadString('\n')
			if err != nil {
				errc <- fmt.Errorf("script read: %w", err)
				return
			}
			line = strings.TrimRight(line, "\r\n")
			if !strings.Contains(line, step.want) {
				errc <- fmt.Errorf("got line %q, want it to contain %q", line, step.want)
				return
			}
			if _, err := server.Write([]byte(step.reply)); err != nil {
				errc <- err
				return
			}
		}
	}()
	return s, errc
}

func scriptErr(t *testing.T, errc <-chan error) {
	t.Helper()
	select {
	case err, ok := <-errc:
		if ok && err != nil {
			t.Errorf("script: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("script did not finish")
	}
}

func TestLoginShell(t *testing.T) {
	t.Run("username then password", func(t *testing.T) {
		s, errc := scriptedSession(t, "bast01 login: ", []scriptStep{
			{want: "bastuser", reply: "Password: "},
			{want: "bastpass", reply: "Last login yesterday\nbast01$ "},
		})
		if err := s.LoginShell("bastuser", "bastpass"); err != nil {
			t.Fatalf("LoginShell: %v", err)
		}
		scriptErr(t, errc)
	})

	t.Run("password prompt only", func(t *testing.T) {
		s, errc := scriptedSession(t, "Password: ", []scriptStep{
			{want: "bastpass", reply: "bast01$ "},
		})
		if err := s.LoginShell("bastuser", "bastpass"); err != nil {
			t.Fatalf("LoginShell: %v", err)
		}
		scriptErr(t, errc)
	})
}

func TestSSHTo(t *testing.T) {
	t.Run("straight to password", func(t *testing.T) {
		s, errc := scriptedSession(t, "", []scriptStep{
			{want: "ssh -o StrictHostKeyChecking=no", reply: "admin@10.0.0.5's password: "},
			{want: "devpass", reply: "vmx1 (ttyp0)\nvmx1> "},
		})
		if err := s.SSHTo("10.0.0.5", 22, "admin", "devpass"); err != nil {
			t.Fatalf("SSHTo: %v", err)
		}
		scriptErr(t, errc)
	})

	t.Run("host key confirmation", func(t *testing.T) {
		s, errc := scriptedSession(t, "", []scriptStep{
			{want: "admin@10.0.0.5", reply: "Are you sure you want to continue connecting (yes/no)? "},
			{want: "yes", reply: "Password: "},
			{want: "devpass", reply: "vmx1> "},
		})
		if err := s.SSHTo("10.0.0.5", 22, "admin", "devpass"); err != nil {
			t.Fatalf("SSHTo: %v", err)
		}
		scriptErr(t, errc)
	})

	t.Run("non-default port flag", func(t *testing.T) {
		s, errc := scriptedSession(t, "", []scriptStep{
			{want: "-p 2222 admin@10.0.0.5", reply: "Password: "},
			{want: "devpass", reply: "vmx1> "},
		})
		if err := s.SSHTo("10.0.0.5", 2222, "admin", "devpass"); err != nil {
			t.Fatalf("SSHTo: %v", err)
		}
		scriptErr(t, errc)
	})

	t.Run("connection refused", func(t *testing.T) {
		s, errc := scriptedSession(t, "", []scriptStep{
			{want: "admin@10.0.0.5", reply: "ssh: connect to host 10.0.0.5 port 22: Connection refused\nbast01$ "},
		})
		err := s.SSHTo("10.0.0.5", 22, "admin", "devpass")
		if !errors.Is(err, ErrConnectionRefused) {
			t.Fatalf("expected ErrConnectionRefused, got %v", err)
		}
		scriptErr(t, errc)
	})

	t.Run("name resolution failure", func(t *testing.T) {
		s, errc := scriptedSession(t, "", []scriptStep{
			{want: "admin@no-such-host", reply: "ssh: Could not resolve hostname no-such-host: Name or service not known\nbast01$ "},
		})
		err := s.SSHTo("no-such-host", 22, "admin", "devpass")
		if !errors.Is(err, ErrNameResolution) {
			t.Fatalf("expected ErrNameResolution, got %v", err)
		}
		scriptErr(t, errc)
	})
}

func TestTelnetTo(t *testing.T) {
	t.Run("login and password", func(t *testing.T) {
		s, errc := scriptedSession(t, "", []scriptStep{
			{want: "telnet 10.0.0.9 23", reply: "Trying 10.0.0.9...\nConnected.\nlogin: "},
			{want: "admin", reply: "Password: "},
			{want: "devpass", reply: "vmx1> "},
		})
		if err := s.TelnetTo("10.0.0.9", 23, "admin", "devpass"); err != nil {
			t.Fatalf("TelnetTo: %v", err)
		}
		scriptErr(t, errc)
	})

	t.Run("refused", func(t *testing.T) {
		s, errc := scriptedSession(t, "", []scriptStep{
			{want: "telnet 10.0.0.9 23", reply: "telnet: connect to address 10.0.0.9: Connection refused\nbast01$ "},
		})
		err := s.TelnetTo("10.0.0.9", 23, "admin", "devpass")
		if !errors.Is(err, ErrConnectionRefused) {
			t.Fatalf("expected ErrConnectionRefused, got %v", err)
		}
		scriptErr(t, errc)
	})
}

func TestInteractiveCommandRoundTrip(t *testing.T) {
	s, errc := scriptedSession(t, "", []scriptStep{
		{want: "show version", reply: "show version\nJunos: 21.4R1\nvmx1> "},
	})
	out, err := s.SendCommand("show version", 2*time.Second)
	if err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	if out != "Junos: 21.4R1" {
		t.Errorf("output = %q, want %q", out, "Junos: 21.4R1")
	}
	scriptErr(t, errc)
}
