// Package connector establishes command-execution sessions to network
// devices reached through chains of bastion hosts mixing SSH and telnet.
//
// The ConnectionManager picks one of two construction strategies from the
// hop list: a chain of SSH connections tunneled through direct-tcpip
// channels (ChainedSession), or a single telnet socket driven through
// interactive shell logins hop by hop (InteractiveSession). Both satisfy
// DeviceSession, so callers never depend on which path was taken.
package connector

import (
	"time"

	"github.com/netlab-tools/netcollect/pkg/config"
)

// DefaultCommandTimeout bounds a single SendCommand when the caller has no
// opinion.
const DefaultCommandTimeout = 60 * time.Second

// DeviceSession is the uniform contract for an established session to the
// target device. Exactly one session is alive per device interaction;
// Disconnect releases every handle the session opened.
type DeviceSession interface {
	// SendCommand runs one command and returns its output with the echoed
	// command line and trailing prompt stripped.
	SendCommand(command string, timeout time.Duration) (string, error)
	// Disconnect closes all underlying connections in reverse acquisition
	// order.
	Disconnect() error
}

// Prompt patterns per vendor CLI family, matched case-insensitively
// against the end of the receive buffer.
var vendorPrompts = map[string]string{
	config.VendorJuniper: `[a-zA-Z0-9._@-]+[>#%]\s*$`,
	config.VendorCisco:   `[a-zA-Z0-9._@-]+[>#]\s*$`,
	config.VendorGeneric: `[$#>%]\s*$`,
}

// Pager-disable commands per vendor. Empty means the vendor needs none.
var pagerDisableCommands = map[string]string{
	config.VendorJuniper: "set cli screen-length 0",
	config.VendorCisco:   "terminal length 0",
	config.VendorGeneric: "",
}

const (
	// shellPrompt matches a bastion login shell.
	shellPrompt = `[$#>%]\s*$`

	// pagerPrompt matches the continuation markers devices print when
	// output is paged.
	pagerPrompt = `--[-(]?more[)-]?-+|<more>|\(END\)`

	// loginPrompt and passwordPrompt drive interactive logins. The
	// password pattern accepts the Japanese localization seen on some
	// bastions.
	loginPrompt    = `[Ll]ogin\s*:|[Uu]sername\s*:`
	passwordPrompt = `[Pp]assword\s*:|パスワード\s*:`
)

// promptPattern returns the prompt pattern for a vendor tag, falling back
// to the generic pattern for unknown vendors.
func promptPattern(vendor string) string {
	if p, ok := vendorPrompts[vendor]; ok {
		return p
	}
	return vendorPrompts[config.VendorGeneric]
}

// pagerDisableCommand returns the vendor's pager-disable command, or ""
// when there is none.
func pagerDisableCommand(vendor string) string {
	return pagerDisableCommands[vendor]
}
