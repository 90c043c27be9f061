// Package mux abstracts the terminal multiplexer that hosts the panes.
package mux

import (
	"context"

	"github.com/wouterdebie/i2cssh/internal/broadcast"
)

// PaneSpec describes how new panes are started.
type PaneSpec struct {
	Profile string // Terminal profile name, backends without profiles ignore it
	Shell   string // Command started in the pane, e.g. "/usr/bin/env bash -l"
}

// Multiplexer abstracts terminal multiplexer operations. Panes are
// identified by opaque handles returned from NewWindow, NewTab and SplitPane.
type Multiplexer interface {
	// Name returns the multiplexer name (e.g., "tmux").
	Name() string

	// CheckActive fails with a NoActiveWindow error when there is no current
	// window to attach to.
	CheckActive(ctx context.Context) error

	// NewWindow opens a new window and returns its only pane.
	NewWindow(ctx context.Context, spec PaneSpec) (string, error)

	// NewTab opens a new tab in the current window and returns its only pane.
	NewTab(ctx context.Context, spec PaneSpec) (string, error)

	// SplitPane splits pane and returns the new pane. Vertical places the
	// new pane beside pane, otherwise below it.
	SplitPane(ctx context.Context, pane string, vertical bool, spec PaneSpec) (string, error)

	// SendText types text into pane.
	SendText(ctx context.Context, pane, text string) error

	// MarkUnused makes pane visually distinct.
	MarkUnused(ctx context.Context, pane string) error

	// SetFullscreen maximises the window holding pane.
	SetFullscreen(ctx context.Context, pane string) error

	// Activate focuses pane.
	Activate(ctx context.Context, pane string) error

	// SetBroadcastDomains mirrors keyboard input within each domain.
	SetBroadcastDomains(ctx context.Context, domains []broadcast.Domain) error
}
