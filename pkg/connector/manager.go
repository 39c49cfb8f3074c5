package connector

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/netlab-tools/netcollect/pkg/config"
)

// ConnectionManager selects the construction strategy for a hop list and
// owns the resulting session's lifecycle: one Connect/Disconnect pair.
type ConnectionManager struct {
	bastions []config.Bastion
	device   config.Device
	log      *logrus.Entry
	session  DeviceSession

	// construction seams, replaced in tests
	buildChained     func() (DeviceSession, error)
	buildInteractive func() (DeviceSession, error)
}

// NewConnectionManager prepares a manager for one device behind the given
// bastion chain.
func NewConnectionManager(bastions []config.Bastion, device config.Device, log *logrus.Entry) *ConnectionManager {
	m := &ConnectionManager{
		bastions: bastions,
		device:   device,
		log:      log,
	}
	m.buildChained = func() (DeviceSession, error) {
		return BuildChainedSession(m.bastions, m.device, m.log)
	}
	m.buildInteractive = m.connectInteractive
	return m
}

// Connect builds the session. A chain with no telnet bastions uses the
// pure-SSH path; a chain starting with a telnet bastion uses the
// interactive path. A telnet bastion behind an SSH one is rejected with
// ErrUnsupportedTopology before any socket is opened.
func (m *ConnectionManager) Connect() (DeviceSession, error) {
	idx := m.firstTelnetIndex()

	switch {
	case idx > 0:
		return nil, fmt.Errorf("telnet bastion %q follows an ssh bastion: %w",
			m.bastions[idx].Name, ErrUnsupportedTopology)
	case idx == -1:
		m.log.Debug("connection strategy: all-ssh chain")
		s, err := m.buildChained()
		if err != nil {
			return nil, err
		}
		m.session = s
	default:
		m.log.Debug("connection strategy: interactive via telnet bastion")
		s, err := m.buildInteractive()
		if err != nil {
			return nil, err
		}
		m.session = s
	}
	return m.session, nil
}

// Disconnect releases the session. Calling it again, or without a prior
// successful Connect, is a no-op.
func (m *ConnectionManager) Disconnect() error {
	if m.session == nil {
		return nil
	}
	err := m.session.Disconnect()
	m.session = nil
	return err
}

func (m *ConnectionManager) firstTelnetIndex() int {
	for i, b := range m.bastions {
		if b.Protocol == config.ProtocolTelnet {
			return i
		}
	}
	return -1
}

// connectInteractive opens the telnet socket to bastion 0, logs into its
// shell, hops through every remaining bastion, reaches the device, and
// prepares its CLI. The socket is closed on any failure along the way.
func (m *ConnectionManager) connectInteractive() (DeviceSession, error) {
	first := m.bastions[0]
	t, err := DialTelnet(first.Host, first.Port, 30*time.Second, m.log.WithField("hop", first.Name))
	if err != nil {
		return nil, &HopError{Hop: first.Name, Err: err}
	}

	session := NewInteractiveSession(t, m.device, m.log)
	ok := false
	defer func() {
		if !ok {
			t.Close()
		}
	}()

	if err := session.LoginShell(first.Username, first.Password); err != nil {
		return nil, &HopError{Hop: first.Name, Err: err}
	}

	for _, hop := range m.bastions[1:] {
		if hop.Protocol == config.ProtocolSSH {
			err = session.SSHTo(hop.Host, hop.Port, hop.Username, hop.Password)
		} else {
			err = session.TelnetTo(hop.Host, hop.Port, hop.Username, hop.Password)
		}
		if err != nil {
			return nil, &HopError{Hop: hop.Name, Err: err}
		}
	}

	if m.device.Protocol == config.ProtocolSSH {
		err = session.SSHTo(m.device.Host, m.device.Port, m.device.Username, m.device.Password)
	} else {
		err = session.TelnetTo(m.device.Host, m.device.Port, m.device.Username, m.device.Password)
	}
	if err != nil {
		return nil, &HopError{Hop: m.device.Name, Err: err}
	}

	if err := session.SetupDevice(); err != nil {
		return nil, &HopError{Hop: m.device.Name, Err: err}
	}

	ok = true
	return session, nil
}
