package mux

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/wouterdebie/i2cssh/internal/broadcast"
	"github.com/wouterdebie/i2cssh/internal/errors"
)

// Call is one recorded multiplexer operation.
type Call struct {
	Op       string
	Pane     string // Pane operated on, or created for NewWindow/NewTab
	Created  string // Pane created by SplitPane
	Vertical bool
	Text     string
	Spec     PaneSpec
}

// Recorder is an in-memory Multiplexer that records every call. Panes are
// named "%0", "%1", ... in creation order.
type Recorder struct {
	// Inactive makes CheckActive fail with NoActiveWindow.
	Inactive bool
	// FailOp makes the named operation fail.
	FailOp string

	mu      sync.Mutex
	next    int
	calls   []Call
	texts   map[string][]string
	domains []broadcast.Domain
}

var _ Multiplexer = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{texts: make(map[string][]string)}
}

// Name returns "recorder".
func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	if c.Op == r.FailOp {
		return fmt.Errorf("%s failed", c.Op)
	}
	if c.Op == "SendText" {
		if r.texts == nil {
			r.texts = make(map[string][]string)
		}
		r.texts[c.Pane] = append(r.texts[c.Pane], c.Text)
	}
	return nil
}

func (r *Recorder) newPane() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := "%" + strconv.Itoa(r.next)
	r.next++
	return id
}

// CheckActive fails when Inactive is set.
func (r *Recorder) CheckActive(ctx context.Context) error {
	if err := r.record(Call{Op: "CheckActive"}); err != nil {
		return err
	}
	if r.Inactive {
		return errors.NewNoActiveWindow(nil)
	}
	return nil
}

// NewWindow records a window and returns its pane.
func (r *Recorder) NewWindow(ctx context.Context, spec PaneSpec) (string, error) {
	pane := r.newPane()
	if err := r.record(Call{Op: "NewWindow", Pane: pane, Spec: spec}); err != nil {
		return "", err
	}
	return pane, nil
}

// NewTab records a tab and returns its pane.
func (r *Recorder) NewTab(ctx context.Context, spec PaneSpec) (string, error) {
	pane := r.newPane()
	if err := r.record(Call{Op: "NewTab", Pane: pane, Spec: spec}); err != nil {
		return "", err
	}
	return pane, nil
}

// SplitPane records a split and returns the new pane.
func (r *Recorder) SplitPane(ctx context.Context, pane string, vertical bool, spec PaneSpec) (string, error) {
	created := r.newPane()
	if err := r.record(Call{Op: "SplitPane", Pane: pane, Created: created, Vertical: vertical, Spec: spec}); err != nil {
		return "", err
	}
	return created, nil
}

// SendText records text sent to pane.
func (r *Recorder) SendText(ctx context.Context, pane, text string) error {
	return r.record(Call{Op: "SendText", Pane: pane, Text: text})
}

// MarkUnused records pane as unused.
func (r *Recorder) MarkUnused(ctx context.Context, pane string) error {
	return r.record(Call{Op: "MarkUnused", Pane: pane})
}

// SetFullscreen records a fullscreen request.
func (r *Recorder) SetFullscreen(ctx context.Context, pane string) error {
	return r.record(Call{Op: "SetFullscreen", Pane: pane})
}

// Activate records pane activation.
func (r *Recorder) Activate(ctx context.Context, pane string) error {
	return r.record(Call{Op: "Activate", Pane: pane})
}

// SetBroadcastDomains records the domains.
func (r *Recorder) SetBroadcastDomains(ctx context.Context, domains []broadcast.Domain) error {
	if err := r.record(Call{Op: "SetBroadcastDomains"}); err != nil {
		return err
	}
	r.mu.Lock()
	r.domains = append(r.domains, domains...)
	r.mu.Unlock()
	return nil
}

// Calls returns the recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count returns how many calls of op were recorded.
func (r *Recorder) Count(op string) int {
	n := 0
	for _, c := range r.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Texts returns everything sent to pane, in order.
func (r *Recorder) Texts(pane string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts[pane]...)
}

// Domains returns the broadcast domains that were set.
func (r *Recorder) Domains() []broadcast.Domain {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]broadcast.Domain(nil), r.domains...)
}
