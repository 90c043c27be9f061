// Package progress draws a single status line while panes are launched.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Tracker counts launched and unused panes and redraws one status line.
type Tracker struct {
	total     int
	launched  int
	unused    int
	current   string
	startTime time.Time
	mu        sync.Mutex
	writer    io.Writer
	enabled   bool
	lastDraw  time.Time
	throttle  time.Duration
}

// NewTracker creates a tracker for total panes. A disabled tracker only counts.
func NewTracker(total int, writer io.Writer, enabled bool) *Tracker {
	return &Tracker{
		total:     total,
		startTime: time.Now(),
		writer:    writer,
		enabled:   enabled && writer != nil,
		throttle:  100 * time.Millisecond,
	}
}

// Waiting shows that the launch is paused before host.
func (p *Tracker) Waiting(host string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = fmt.Sprintf("waiting %v for %s", d, host)
	if p.enabled {
		p.draw(true)
	}
}

// Launched records a pane that received a session.
func (p *Tracker) Launched(host string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.launched++
	p.current = host
	if p.enabled {
		p.draw(false)
	}
}

// Unused records a pane left without a host.
func (p *Tracker) Unused() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.unused++
	if p.enabled {
		p.draw(false)
	}
}

// Finish clears the status line and prints a summary.
func (p *Tracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.enabled {
		p.drawFinal()
	}
}

// draw renders the current status line
func (p *Tracker) draw(force bool) {
	now := time.Now()
	// Throttle updates to avoid excessive output
	if !force && now.Sub(p.lastDraw) < p.throttle {
		return
	}
	p.lastDraw = now

	if p.total == 0 {
		return
	}

	done := p.launched + p.unused
	barWidth := 20
	filled := barWidth * done / p.total
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	// Format: [██████████░░░░░░░░░░] 5/10 panes  root@web5
	fmt.Fprintf(p.writer, "\r\033[K[%s] %d/%d panes  %s", bar, done, p.total, p.current)
}

// drawFinal renders the final summary
func (p *Tracker) drawFinal() {
	elapsed := time.Since(p.startTime)
	fmt.Fprint(p.writer, "\r\033[K")

	if p.unused == 0 {
		fmt.Fprintf(p.writer, "✓ Launched %d sessions in %v\n", p.launched, elapsed.Round(time.Millisecond))
	} else {
		fmt.Fprintf(p.writer, "✓ Launched %d sessions (%d unused panes) in %v\n",
			p.launched, p.unused, elapsed.Round(time.Millisecond))
	}
}

// Stats returns the current counters
func (p *Tracker) Stats() (launched, unused, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.launched, p.unused, p.total
}
