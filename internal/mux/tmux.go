package mux

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/wouterdebie/i2cssh/internal/broadcast"
	"github.com/wouterdebie/i2cssh/internal/errors"
)

// Runner abstracts command execution for testability.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner implements Runner using os/exec.
type ExecRunner struct{}

// Run executes a command and returns its trimmed standard output. Standard
// error is folded into the returned error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Tmux drives tmux from inside a running tmux client. A window maps to a
// tmux session and a tab to a tmux window.
type Tmux struct {
	Binary string
	Runner Runner
	Getenv func(string) string // optional; overrides os.Getenv for testing

	session string // session created by NewWindow, empty for the current one
}

var _ Multiplexer = (*Tmux)(nil)

// NewTmux creates a tmux backend using binary (default "tmux").
func NewTmux(binary string) *Tmux {
	if binary == "" {
		binary = "tmux"
	}
	return &Tmux{Binary: binary, Runner: ExecRunner{}}
}

// Name returns "tmux".
func (t *Tmux) Name() string { return "tmux" }

func (t *Tmux) run(ctx context.Context, args ...string) (string, error) {
	out, err := t.Runner.Run(ctx, t.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("tmux %s: %w", args[0], err)
	}
	return out, nil
}

// CheckActive requires $TMUX and a window the client can report.
func (t *Tmux) CheckActive(ctx context.Context) error {
	getenv := t.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if getenv("TMUX") == "" {
		return errors.NewNoActiveWindow(fmt.Errorf("not running inside tmux"))
	}
	if _, err := t.run(ctx, "display-message", "-p", "#{window_id}"); err != nil {
		return errors.NewNoActiveWindow(err)
	}
	return nil
}

// NewWindow starts a detached session; Activate later switches to it.
func (t *Tmux) NewWindow(ctx context.Context, spec PaneSpec) (string, error) {
	out, err := t.run(ctx, withShell([]string{"new-session", "-d", "-P", "-F", "#{session_id} #{pane_id}"}, spec)...)
	if err != nil {
		return "", err
	}
	session, pane, ok := strings.Cut(out, " ")
	if !ok || pane == "" {
		return "", fmt.Errorf("tmux new-session: unexpected output %q", out)
	}
	t.session = session
	return pane, nil
}

// NewTab opens a window in the session created by NewWindow, or in the
// current session when none was created.
func (t *Tmux) NewTab(ctx context.Context, spec PaneSpec) (string, error) {
	args := []string{"new-window", "-P", "-F", "#{pane_id}"}
	if t.session != "" {
		args = append(args, "-t", t.session+":")
	}
	return t.run(ctx, withShell(args, spec)...)
}

// SplitPane splits pane and spreads the panes of its window evenly.
func (t *Tmux) SplitPane(ctx context.Context, pane string, vertical bool, spec PaneSpec) (string, error) {
	// tmux names splits by the divider: -h puts the new pane to the right.
	dir := "-v"
	if vertical {
		dir = "-h"
	}
	created, err := t.run(ctx, withShell([]string{"split-window", dir, "-t", pane, "-P", "-F", "#{pane_id}"}, spec)...)
	if err != nil {
		return "", err
	}
	if _, err := t.run(ctx, "select-layout", "-t", created, "-E"); err != nil {
		return "", err
	}
	return created, nil
}

// SendText types text literally into pane.
func (t *Tmux) SendText(ctx context.Context, pane, text string) error {
	_, err := t.run(ctx, "send-keys", "-t", pane, "-l", text)
	return err
}

// MarkUnused paints the pane's text red.
func (t *Tmux) MarkUnused(ctx context.Context, pane string) error {
	_, err := t.run(ctx, "select-pane", "-t", pane, "-P", "fg=red")
	return err
}

// SetFullscreen sizes the window to the largest attached client.
func (t *Tmux) SetFullscreen(ctx context.Context, pane string) error {
	_, err := t.run(ctx, "resize-window", "-A", "-t", pane)
	return err
}

// Activate selects pane and switches the client to its session.
func (t *Tmux) Activate(ctx context.Context, pane string) error {
	if _, err := t.run(ctx, "select-pane", "-t", pane); err != nil {
		return err
	}
	if t.session != "" {
		if _, err := t.run(ctx, "switch-client", "-t", t.session); err != nil {
			return err
		}
	}
	return nil
}

// SetBroadcastDomains turns on pane-level synchronize-panes for every member.
func (t *Tmux) SetBroadcastDomains(ctx context.Context, domains []broadcast.Domain) error {
	for _, d := range domains {
		for _, pane := range d.Panes {
			if _, err := t.run(ctx, "set-option", "-p", "-t", pane, "synchronize-panes", "on"); err != nil {
				return err
			}
		}
	}
	return nil
}

func withShell(args []string, spec PaneSpec) []string {
	if spec.Shell != "" {
		args = append(args, spec.Shell)
	}
	return args
}
