// Package executor drives a multiplexer through a resolved plan: one window
// or tab per group, a pane grid per geometry, one session per pane.
package executor

import (
	"context"
	"time"

	"github.com/wouterdebie/i2cssh/internal/broadcast"
	"github.com/wouterdebie/i2cssh/internal/errors"
	"github.com/wouterdebie/i2cssh/internal/group"
	"github.com/wouterdebie/i2cssh/internal/layout"
	"github.com/wouterdebie/i2cssh/internal/logging"
	"github.com/wouterdebie/i2cssh/internal/mux"
	"github.com/wouterdebie/i2cssh/internal/progress"
	"github.com/wouterdebie/i2cssh/internal/session"
)

// Executor defines the interface for launching a plan
type Executor interface {
	// Execute creates every pane of plan and types its session into it
	Execute(ctx context.Context, plan group.Plan) (*Result, error)
}

// Result describes what was created.
type Result struct {
	Panes   [][]string         // Pane handles per group, row-major
	Domains []broadcast.Domain // Broadcast domains that were enabled
}

// Launcher is the sequential Executor. Every multiplexer call depends on
// panes created by earlier calls, so nothing runs concurrently.
type Launcher struct {
	mux      mux.Multiplexer
	sessions *session.Builder
	logger   *logging.Logger
	progress *progress.Tracker

	// Sleep waits for d or until ctx is done; overridable for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewLauncher creates a launcher for m. logger and tracker may be nil.
func NewLauncher(m mux.Multiplexer, logger *logging.Logger, tracker *progress.Tracker) *Launcher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Launcher{
		mux:      m,
		sessions: session.NewBuilder(),
		logger:   logger,
		progress: tracker,
		Sleep:    sleepContext,
	}
}

// Execute builds every session command first, so a bad custom command fails
// before the multiplexer is touched, then creates groups in order.
func (l *Launcher) Execute(ctx context.Context, plan group.Plan) (*Result, error) {
	start := time.Now()

	commands := make([][]session.Command, len(plan.Groups))
	for i, g := range plan.Groups {
		cmds, err := l.sessions.BuildGroup(g)
		if err != nil {
			return nil, errors.NewSetupError("cannot build session commands", err)
		}
		commands[i] = cmds
	}

	if err := l.mux.CheckActive(ctx); err != nil {
		return nil, classify("no active window", err)
	}

	result := &Result{Panes: make([][]string, len(plan.Groups))}
	for i, g := range plan.Groups {
		panes, err := l.launchGroup(ctx, i, g, commands[i], plan.SameWindow)
		if err != nil {
			return nil, err
		}
		result.Panes[i] = panes
	}

	result.Domains = broadcast.Assemble(plan.Groups, result.Panes)
	if len(result.Domains) > 0 {
		members := 0
		for _, d := range result.Domains {
			members += len(d.Panes)
		}
		l.logger.LogBroadcast(len(result.Domains), members)
		if err := l.mux.SetBroadcastDomains(ctx, result.Domains); err != nil {
			return nil, classify("cannot enable broadcast", err)
		}
	}

	if l.progress != nil {
		l.progress.Finish()
	}
	total := 0
	for _, panes := range result.Panes {
		total += len(panes)
	}
	l.logger.LogLaunchComplete(l.mux.Name(), total, time.Since(start))
	return result, nil
}

func (l *Launcher) launchGroup(ctx context.Context, index int, g group.Group, cmds []session.Command, sameWindow bool) ([]string, error) {
	spec := mux.PaneSpec{Profile: g.Profile, Shell: session.ShellCommand(g.Shell)}

	var first string
	var err error
	if index == 0 && !sameWindow {
		first, err = l.mux.NewWindow(ctx, spec)
	} else {
		first, err = l.mux.NewTab(ctx, spec)
	}
	if err != nil {
		return nil, classify("cannot open window", err)
	}

	fullscreen := (index == 0 && g.Fullscreen) || g.Geometry.RequiresFullscreen
	l.logger.LogGroupLayout(index, g.Geometry.Rows, g.Geometry.Cols, g.Direction, fullscreen)
	if fullscreen {
		if err := l.mux.SetFullscreen(ctx, first); err != nil {
			return nil, classify("cannot enter fullscreen", err)
		}
	}

	panes := []string{first}
	for _, s := range layout.SplitPlan(g.Geometry, g.Direction) {
		pane, err := l.mux.SplitPane(ctx, panes[s.From], s.Vertical, spec)
		if err != nil {
			return nil, classify("cannot split pane", err)
		}
		panes = append(panes, pane)
	}

	for p, pane := range panes {
		if err := l.launchPane(ctx, index, pane, cmds[p]); err != nil {
			return nil, err
		}
	}

	if err := l.mux.Activate(ctx, panes[0]); err != nil {
		return nil, classify("cannot activate pane", err)
	}
	return panes, nil
}

func (l *Launcher) launchPane(ctx context.Context, group int, pane string, cmd session.Command) error {
	if cmd.Unused {
		l.logger.LogUnusedPane(group, pane)
		if err := l.mux.SendText(ctx, pane, session.UnusedPreamble); err != nil {
			return classify("cannot send text", err)
		}
		if err := l.Sleep(ctx, session.UnusedSettle); err != nil {
			return err
		}
		if err := l.mux.MarkUnused(ctx, pane); err != nil {
			return classify("cannot mark pane unused", err)
		}
		if err := l.mux.SendText(ctx, pane, session.UnusedLine); err != nil {
			return classify("cannot send text", err)
		}
		if l.progress != nil {
			l.progress.Unused()
		}
		return nil
	}

	if cmd.Preamble != "" {
		if err := l.mux.SendText(ctx, pane, cmd.Preamble); err != nil {
			return classify("cannot send text", err)
		}
	}
	if cmd.Delay > 0 {
		if l.progress != nil {
			l.progress.Waiting(cmd.Target, cmd.Delay)
		}
		if err := l.Sleep(ctx, cmd.Delay); err != nil {
			return err
		}
	}
	l.logger.LogPaneLaunch(group, pane, cmd.Target, cmd.Delay)
	if err := l.mux.SendText(ctx, pane, cmd.Line); err != nil {
		return classify("cannot send text", err)
	}
	if l.progress != nil {
		l.progress.Launched(cmd.Target)
	}
	return nil
}

// classify keeps errors that already carry a type and marks the rest as
// multiplexer failures.
func classify(msg string, err error) error {
	if errors.TypeOf(err) != errors.UnknownErrorType {
		return err
	}
	return errors.NewMultiplexerError(msg, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
