package connector

import (
	"errors"
	"testing"
	"time"

	"github.com/netlab-tools/netcollect/pkg/config"
)

type fakeSession struct {
	disconnects int
}

func (f *fakeSession) SendCommand(command string, timeout time.Duration) (string, error) {
	return "", nil
}

func (f *fakeSession) Disconnect() error {
	f.disconnects++
	return nil
}

// stubBuilders replaces the manager's construction seams and reports which
// one ran.
func stubBuilders(m *ConnectionManager, s DeviceSession) (chained, interactive *int) {
	chained, interactive = new(int), new(int)
	m.buildChained = func() (DeviceSession, error) {
		*chained++
		return s, nil
	}
	m.buildInteractive = func() (DeviceSession, error) {
		*interactive++
		return s, nil
	}
	return chained, interactive
}

func sshBastion(name string) config.Bastion {
	return config.Bastion{Name: name, Host: "192.0.2.1", Port: 22, Protocol: config.ProtocolSSH}
}

func telnetBastion(name string) config.Bastion {
	return config.Bastion{Name: name, Host: "192.0.2.2", Port: 23, Protocol: config.ProtocolTelnet}
}

func TestConnectStrategySelection(t *testing.T) {
	tests := []struct {
		name            string
		bastions        []config.Bastion
		wantChained     bool
		wantInteractive bool
	}{
		{
			name:        "no bastions",
			bastions:    nil,
			wantChained: true,
		},
		{
			name:        "all ssh",
			bastions:    []config.Bastion{sshBastion("b1"), sshBastion("b2")},
			wantChained: true,
		},
		{
			name:            "telnet first",
			bastions:        []config.Bastion{telnetBastion("b1"), sshBastion("b2")},
			wantInteractive: true,
		},
		{
			name:            "telnet only",
			bastions:        []config.Bastion{telnetBastion("b1")},
			wantInteractive: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewConnectionManager(tt.bastions, juniperDevice(), testEntry())
			chained, interactive := stubBuilders(m, &fakeSession{})

			s, err := m.Connect()
			if err != nil {
				t.Fatalf("Connect: %v", err)
			}
			if s == nil {
				t.Fatal("Connect returned nil session")
			}
			if got := *chained == 1; got != tt.wantChained {
				t.Errorf("chained builder ran %d times", *chained)
			}
			if got := *interactive == 1; got != tt.wantInteractive {
				t.Errorf("interactive builder ran %d times", *interactive)
			}
		})
	}
}

func TestConnectRejectsTelnetAfterSSH(t *testing.T) {
	m := NewConnectionManager(
		[]config.Bastion{sshBastion("b1"), telnetBastion("b2")},
		juniperDevice(), testEntry(),
	)
	chained, interactive := stubBuilders(m, &fakeSession{})

	_, err := m.Connect()
	if !errors.Is(err, ErrUnsupportedTopology) {
		t.Fatalf("expected ErrUnsupportedTopology, got %v", err)
	}
	if *chained != 0 || *interactive != 0 {
		t.Error("no builder should run for an unsupported topology")
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	m := NewConnectionManager(nil, juniperDevice(), testEntry())
	fs := &fakeSession{}
	stubBuilders(m, fs)

	if _, err := m.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := m.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if err := m.Disconnect(); err != nil {
		t.Fatalf("second Disconnect: %v", err)
	}
	if fs.disconnects != 1 {
		t.Errorf("session disconnected %d times, want exactly 1", fs.disconnects)
	}
}

func TestDisconnectWithoutConnect(t *testing.T) {
	m := NewConnectionManager(nil, juniperDevice(), testEntry())
	if err := m.Disconnect(); err != nil {
		t.Errorf("Disconnect before Connect: %v", err)
	}
}

func TestConnectPropagatesBuildFailure(t *testing.T) {
	m := NewConnectionManager(nil, juniperDevice(), testEntry())
	boom := errors.New("bastion down")
	m.buildChained = func() (DeviceSession, error) { return nil, boom }

	if _, err := m.Connect(); !errors.Is(err, boom) {
		t.Fatalf("expected build error, got %v", err)
	}
	if err := m.Disconnect(); err != nil {
		t.Errorf("Disconnect after failed Connect: %v", err)
	}
}
