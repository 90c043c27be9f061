// Package ssh runs local sanity checks before sessions are launched. The
// sessions themselves are started by the system ssh inside each pane, so
// nothing here connects to a remote host.
package ssh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/wouterdebie/i2cssh/internal/options"
	"github.com/wouterdebie/i2cssh/internal/target"
)

const (
	// CheckAgent is reported when forwarding is requested but the agent is
	// unusable.
	CheckAgent = "agent"
	// CheckIdentity is reported for an identity file ssh will not accept.
	CheckIdentity = "identity"

	agentTimeout = 2 * time.Second
)

// Warning is one failed preflight check. Warnings never stop a launch.
type Warning struct {
	Check   string
	Subject string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Subject, w.Message)
}

// Checker inspects the local ssh setup for a set of hosts.
type Checker struct {
	// DialAgent connects to the agent socket.
	DialAgent func(ctx context.Context, socket string) (net.Conn, error)
	ReadFile  func(name string) ([]byte, error)
	Getenv    func(key string) string
}

// NewChecker creates a checker using the real environment and filesystem.
func NewChecker() *Checker {
	return &Checker{
		DialAgent: func(ctx context.Context, socket string) (net.Conn, error) {
			d := net.Dialer{Timeout: agentTimeout}
			return d.DialContext(ctx, "unix", socket)
		},
		ReadFile: os.ReadFile,
		Getenv:   os.Getenv,
	}
}

// Run checks the agent when any host forwards it and every distinct
// identity file named in the hosts' extra parameters.
func (c *Checker) Run(ctx context.Context, hosts []target.Host) []Warning {
	var warnings []Warning

	for _, h := range hosts {
		if options.IsTrue(h.Options.ForwardAgent) {
			if err := c.CheckAgent(ctx); err != nil {
				warnings = append(warnings, Warning{Check: CheckAgent, Subject: "SSH_AUTH_SOCK", Message: err.Error()})
			}
			break
		}
	}

	for _, path := range IdentityFiles(hosts) {
		if err := c.CheckIdentity(path); err != nil {
			warnings = append(warnings, Warning{Check: CheckIdentity, Subject: path, Message: err.Error()})
		}
	}
	return warnings
}

// CheckAgent fails when the agent socket is unset, unreachable or holds no
// keys.
func (c *Checker) CheckAgent(ctx context.Context) error {
	socket := c.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return errors.New("agent forwarding requested but SSH_AUTH_SOCK is not set")
	}

	conn, err := c.DialAgent(ctx, socket)
	if err != nil {
		return fmt.Errorf("cannot reach agent: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(agentTimeout))
	}

	keys, err := agent.NewClient(conn).List()
	if err != nil {
		return fmt.Errorf("cannot list agent keys: %w", err)
	}
	if len(keys) == 0 {
		return errors.New("agent holds no keys")
	}
	return nil
}

// CheckIdentity fails when path cannot be read or is not a private key.
// Encrypted keys pass; ssh asks for the passphrase in the pane.
func (c *Checker) CheckIdentity(path string) error {
	data, err := c.ReadFile(expandHome(path))
	if err != nil {
		return fmt.Errorf("cannot read identity file: %w", err)
	}

	_, err = ssh.ParseRawPrivateKey(data)
	var missing *ssh.PassphraseMissingError
	if err != nil && !errors.As(err, &missing) {
		return fmt.Errorf("not a usable private key: %w", err)
	}
	return nil
}

// IdentityFiles returns the distinct identity files ("i" extra parameters)
// of hosts, sorted.
func IdentityFiles(hosts []target.Host) []string {
	seen := make(map[string]bool)
	for _, h := range hosts {
		for _, f := range h.Options.Extra.Flags() {
			if f.Name == "i" && f.HasValue && f.Value != "" {
				seen[f.Value] = true
			}
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
