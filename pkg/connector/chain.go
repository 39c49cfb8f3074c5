package connector

import (
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/netlab-tools/netcollect/pkg/config"
)

// hopConn is one authenticated connection in the secure chain. The next
// hop is reached through a forwarded channel opened on it.
type hopConn interface {
	// DialNext opens a point-to-point channel through this hop.
	DialNext(network, addr string) (net.Conn, error)
	Close() error
}

// sshHop adapts *ssh.Client to hopConn via direct-tcpip forwarding.
type sshHop struct {
	client *ssh.Client
}

func (h *sshHop) DialNext(network, addr string) (net.Conn, error) {
	return h.client.Dial(network, addr)
}

func (h *sshHop) Close() error {
	return h.client.Close()
}

// ChainedSession reaches the device through a chain of SSH bastions, each
// tunneled through the previous one, with the final forwarded channel
// handed to a CLI engine. It owns every hop connection it opened.
type ChainedSession struct {
	engine deviceCLI
	hops   []hopConn
	device config.Device
	log    *logrus.Entry
}

// chainBuilder constructs ChainedSessions. The dial and engine
// constructors are injectable for tests.
type chainBuilder struct {
	dialHop   func(prev hopConn, b config.Bastion) (hopConn, error)
	dialDirect func(addr string) (net.Conn, error)
	newEngine func(conn net.Conn, device config.Device, log *logrus.Entry) (deviceCLI, error)
	log       *logrus.Entry
}

func defaultChainBuilder(log *logrus.Entry) *chainBuilder {
	return &chainBuilder{
		dialHop: dialSSHHop,
		dialDirect: func(addr string) (net.Conn, error) {
			return net.DialTimeout("tcp", addr, 15*time.Second)
		},
		newEngine: func(conn net.Conn, device config.Device, log *logrus.Entry) (deviceCLI, error) {
			return newCLIEngine(conn, device, log)
		},
		log: log,
	}
}

// BuildChainedSession connects through every bastion in order and hands
// the final forwarded channel to a CLI engine for the device. On any
// failure every connection opened so far is closed, in reverse order,
// before the error is returned.
func BuildChainedSession(bastions []config.Bastion, device config.Device, log *logrus.Entry) (*ChainedSession, error) {
	return defaultChainBuilder(log).build(bastions, device)
}

func (cb *chainBuilder) build(bastions []config.Bastion, device config.Device) (*ChainedSession, error) {
	var hops []hopConn
	built := false
	defer func() {
		if !built {
			closeHops(hops, cb.log)
		}
	}()

	var prev hopConn
	for _, b := range bastions {
		h, err := cb.dialHop(prev, b)
		if err != nil {
			return nil, &HopError{Hop: b.Name, Err: err}
		}
		cb.log.WithField("hop", b.Name).Debugf("ssh bastion connected: %s", b.Host)
		hops = append(hops, h)
		prev = h
	}

	addr := net.JoinHostPort(device.Host, fmt.Sprintf("%d", device.Port))
	var conn net.Conn
	var err error
	if prev != nil {
		conn, err = prev.DialNext("tcp", addr)
	} else {
		conn, err = cb.dialDirect(addr)
	}
	if err != nil {
		return nil, fmt.Errorf("forward to device %s: %w", addr, classifyDialError(err))
	}

	engine, err := cb.newEngine(conn, device, cb.log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := engine.Setup(); err != nil {
		engine.Disconnect()
		return nil, err
	}

	cb.log.Debugf("device connected: %s (%s)", device.Name, device.Host)
	built = true
	return &ChainedSession{engine: engine, hops: hops, device: device, log: cb.log}, nil
}

// dialSSHHop authenticates to one bastion, tunneled through prev when the
// chain has already started.
func dialSSHHop(prev hopConn, b config.Bastion) (hopConn, error) {
	addr := net.JoinHostPort(b.Host, fmt.Sprintf("%d", b.Port))
	cfg := sshClientConfig(b.Username, b.Password)

	if prev == nil {
		client, err := ssh.Dial("tcp", addr, cfg)
		if err != nil {
			return nil, classifySSHError(err)
		}
		return &sshHop{client: client}, nil
	}

	conn, err := prev.DialNext("tcp", addr)
	if err != nil {
		return nil, classifyDialError(err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, classifySSHError(err)
	}
	return &sshHop{client: ssh.NewClient(c, chans, reqs)}, nil
}

// SendCommand implements DeviceSession by delegating to the engine.
func (s *ChainedSession) SendCommand(command string, timeout time.Duration) (string, error) {
	return s.engine.SendCommand(command, timeout)
}

// Disconnect closes the engine first, then every hop in reverse order.
// Individual close failures are logged, never propagated, so cleanup
// always completes.
func (s *ChainedSession) Disconnect() error {
	if err := s.engine.Disconnect(); err != nil {
		s.log.Debugf("engine disconnect (ignored): %v", err)
	}
	closeHops(s.hops, s.log)
	s.log.Debugf("device disconnected: %s", s.device.Name)
	return nil
}

func closeHops(hops []hopConn, log *logrus.Entry) {
	for i := len(hops) - 1; i >= 0; i-- {
		if err := hops[i].Close(); err != nil {
			log.Debugf("hop close (ignored): %v", err)
		}
	}
}
