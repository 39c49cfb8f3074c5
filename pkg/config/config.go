// Package config loads and validates the YAML configuration files:
// hosts.yaml (bastions and devices), commands.yaml (command definitions),
// and review_points.yaml (per-command review checklists).
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/netlab-tools/netcollect/pkg/util"
)

// Connection protocols accepted in hosts.yaml.
const (
	ProtocolSSH    = "ssh"
	ProtocolTelnet = "telnet"
)

// Vendor tags with dedicated prompt and pager handling. Anything else
// falls back to VendorGeneric behavior.
const (
	VendorJuniper = "juniper"
	VendorCisco   = "cisco"
	VendorGeneric = "generic"
)

// Bastion is one intermediate hop between the operator and the target
// device. Order in HostsConfig.Bastions is the order hops are traversed.
type Bastion struct {
	Name     string `yaml:"name"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Protocol string `yaml:"protocol"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Device is the final network element commands are collected from.
type Device struct {
	Name           string `yaml:"name"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Protocol       string `yaml:"protocol"`
	Vendor         string `yaml:"vendor"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	EnablePassword string `yaml:"enable_password"`
}

// Keyword is a highlight rule applied when displaying command output.
type Keyword struct {
	Word  string `yaml:"word"`
	Color string `yaml:"color"`
}

// Command is one CLI command to run. Name doubles as the storage key for
// saved output. An empty Vendor means the command applies to all vendors.
type Command struct {
	Name     string    `yaml:"name"`
	Command  string    `yaml:"command"`
	Vendor   string    `yaml:"vendor"`
	Keywords []Keyword `yaml:"keywords"`
}

// ReviewPoint lists the manual checks for one command's output.
type ReviewPoint struct {
	Name   string   `yaml:"name"`
	Points []string `yaml:"points"`
}

// HostsConfig is the parsed hosts.yaml.
type HostsConfig struct {
	Bastions []Bastion `yaml:"bastions"`
	Devices  []Device  `yaml:"devices"`
}

// CommandsConfig is the parsed commands.yaml.
type CommandsConfig struct {
	Commands []Command `yaml:"commands"`
}

// ReviewConfig is the parsed review_points.yaml.
type ReviewConfig struct {
	ReviewPoints []ReviewPoint `yaml:"review_points"`
}

// DeviceByName finds a device by its identifier.
// Returns util.ErrNotFound listing the available names when absent.
func (h *HostsConfig) DeviceByName(name string) (Device, error) {
	for _, d := range h.Devices {
		if d.Name == name {
			return d, nil
		}
	}
	available := make([]string, 0, len(h.Devices))
	for _, d := range h.Devices {
		available = append(available, d.Name)
	}
	return Device{}, fmt.Errorf("device %q (available: %s): %w",
		name, strings.Join(available, ", "), util.ErrNotFound)
}

// LoadHosts reads and validates hosts.yaml.
func LoadHosts(path string) (*HostsConfig, error) {
	var cfg HostsConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}

	var v util.ValidationBuilder
	for i := range cfg.Bastions {
		b := &cfg.Bastions[i]
		applyHopDefaults(&b.Port, &b.Protocol)
		v.Add(b.Name != "", fmt.Sprintf("bastion %d: name is required", i))
		v.Add(b.Host != "", fmt.Sprintf("bastion %q: host is required", b.Name))
		v.Add(b.Username != "", fmt.Sprintf("bastion %q: username is required", b.Name))
		v.Add(validProtocol(b.Protocol), fmt.Sprintf("bastion %q: protocol must be ssh or telnet, got %q", b.Name, b.Protocol))
		v.Add(validPort(b.Port), fmt.Sprintf("bastion %q: port %d out of range", b.Name, b.Port))
	}
	for i := range cfg.Devices {
		d := &cfg.Devices[i]
		applyHopDefaults(&d.Port, &d.Protocol)
		if d.Vendor == "" {
			d.Vendor = VendorGeneric
		}
		d.Vendor = strings.ToLower(d.Vendor)
		v.Add(d.Name != "", fmt.Sprintf("device %d: name is required", i))
		v.Add(d.Host != "", fmt.Sprintf("device %q: host is required", d.Name))
		v.Add(d.Username != "", fmt.Sprintf("device %q: username is required", d.Name))
		v.Add(validProtocol(d.Protocol), fmt.Sprintf("device %q: protocol must be ssh or telnet, got %q", d.Name, d.Protocol))
		v.Add(validPort(d.Port), fmt.Sprintf("device %q: port %d out of range", d.Name, d.Port))
	}
	if err := v.Build(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadCommands reads and validates commands.yaml.
func LoadCommands(path string) (*CommandsConfig, error) {
	var cfg CommandsConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}

	var v util.ValidationBuilder
	seen := make(map[string]bool)
	for i := range cfg.Commands {
		c := &cfg.Commands[i]
		c.Vendor = strings.ToLower(c.Vendor)
		v.Add(c.Name != "", fmt.Sprintf("command %d: name is required", i))
		v.Add(c.Command != "", fmt.Sprintf("command %q: command text is required", c.Name))
		v.Add(!seen[c.Name], fmt.Sprintf("command %q: duplicate name", c.Name))
		seen[c.Name] = true
	}
	if err := v.Build(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadReviewPoints reads review_points.yaml. The file is optional at the
// caller level; this loader just parses what it is given.
func LoadReviewPoints(path string) (*ReviewConfig, error) {
	var cfg ReviewConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// AppliesTo reports whether the command should run against a device of the
// given vendor. An empty vendor filter matches everything.
func (c Command) AppliesTo(vendor string) bool {
	return c.Vendor == "" || strings.EqualFold(c.Vendor, vendor)
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func applyHopDefaults(port *int, protocol *string) {
	*protocol = strings.ToLower(*protocol)
	if *protocol == "" {
		*protocol = ProtocolSSH
	}
	if *port == 0 {
		switch *protocol {
		case ProtocolTelnet:
			*port = 23
		default:
			*port = 22
		}
	}
}

func validProtocol(p string) bool {
	return p == ProtocolSSH || p == ProtocolTelnet
}

func validPort(p int) bool {
	return p > 0 && p < 65536
}
