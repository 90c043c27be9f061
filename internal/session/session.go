// Package session builds the text typed into each pane: an optional
// environment export line followed by the ssh or custom command.
package session

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wouterdebie/i2cssh/internal/group"
	"github.com/wouterdebie/i2cssh/internal/options"
	"github.com/wouterdebie/i2cssh/internal/target"
	"github.com/wouterdebie/i2cssh/internal/template"
)

const (
	// RankVariable carries the host's position in its group when rank is on.
	RankVariable = "LC_RANK"

	historyGuard = "unset HISTFILE && "
)

// Text sent to a pane that has no host. The pane stops echoing and swallows
// all further input, including broadcast keystrokes.
var (
	UnusedPreamble = "unset HISTFILE\n"
	UnusedLine     = "stty -isig -icanon -echo && echo -e '" + strings.Repeat("\n", 100) + "UNUSED' && cat > /dev/null\n"
	UnusedSettle   = 300 * time.Millisecond
)

var spaces = regexp.MustCompile(` +`)

// Command is what one pane receives.
type Command struct {
	Target   string        `json:"target,omitempty"`   // login@hostname or hostname
	Index    int           `json:"index"`              // Pane index in the group, row-major
	Preamble string        `json:"preamble,omitempty"` // Environment export line, sent first
	Line     string        `json:"line,omitempty"`     // Command line including the trailing newline
	Delay    time.Duration `json:"delay,omitempty"`    // Wait before sending Line
	Unused   bool          `json:"unused,omitempty"`   // Pane has no host
}

// Builder renders session commands.
type Builder struct {
	templates *template.Engine
}

// NewBuilder creates a session command builder
func NewBuilder() *Builder {
	return &Builder{templates: template.NewEngine()}
}

// Build returns the command for host at position index of its group.
func (b *Builder) Build(host target.Host, index int) (Command, error) {
	opts := host.Options
	cmd := Command{
		Target: host.Target(),
		Index:  index,
		Delay:  time.Duration(options.IntOr(opts.Sleep, 0)) * time.Second,
	}

	if custom := options.StringOr(opts.CustomCommand, ""); custom != "" {
		ctx := template.Context{
			Host:     cmd.Target,
			Hostname: host.Hostname,
			Login:    options.StringOr(opts.Login, ""),
			Cluster:  host.Cluster,
			Index:    index,
		}
		rendered := b.templates.Render(custom, ctx)
		if options.IsTrue(opts.Template) {
			var err error
			if rendered, err = b.templates.Execute(custom, ctx); err != nil {
				return Command{}, fmt.Errorf("custom command for %s: %w", cmd.Target, err)
			}
		}
		cmd.Line = historyGuard + strings.TrimLeft(rendered, " \t\r\n") + "\n"
		return cmd, nil
	}

	env := Environment(opts, index)
	sendEnv := ""
	if len(env) > 0 {
		cmd.Preamble = ExportLine(env)
		sendEnv = "-o SendEnv=" + strings.Join(env.Keys(), ",")
	}

	line := fmt.Sprintf("%s%s %s %s\n", historyGuard, Prefix(opts), sendEnv, cmd.Target)
	cmd.Line = spaces.ReplaceAllString(line, " ")
	return cmd, nil
}

// BuildGroup returns one command per pane of g. Panes past the last host
// are marked unused.
func (b *Builder) BuildGroup(g group.Group) ([]Command, error) {
	panes := g.Geometry.Panes()
	if panes < len(g.Hosts) {
		panes = len(g.Hosts)
	}

	cmds := make([]Command, panes)
	for i := range cmds {
		if i >= len(g.Hosts) {
			cmds[i] = Command{Index: i, Unused: true}
			continue
		}
		cmd, err := b.Build(g.Hosts[i], i)
		if err != nil {
			return nil, err
		}
		cmds[i] = cmd
	}
	return cmds, nil
}

// Prefix returns the ssh invocation without the target: agent forwarding,
// extra parameters and gateway, with exec and ControlMaster=no when exec is
// set. Spacing is not normalized.
func Prefix(opts options.Options) string {
	args := []string{}
	if options.IsTrue(opts.ForwardAgent) {
		args = append(args, "-A")
	}
	for _, f := range opts.Extra.Flags() {
		args = append(args, f.String())
	}
	if gw := options.StringOr(opts.Gateway, ""); gw != "" {
		args = append(args, fmt.Sprintf(`-o ProxyCommand="ssh -W %%h:%%p %s"`, gw))
	}

	prefix := "ssh " + strings.Join(args, " ")
	if options.IsTrue(opts.Exec) {
		// ssh control sockets misbehave when exec replaces the pane's shell.
		prefix = "exec " + prefix + " -o ControlMaster=no"
	}
	return prefix
}

// Environment returns the variables exported for a host: LC_RANK first when
// rank is set, then the environment option in its own order.
func Environment(opts options.Options, index int) options.Environment {
	var env options.Environment
	if options.IsTrue(opts.Rank) {
		env = env.Set(RankVariable, strconv.Itoa(index))
	}
	for _, v := range opts.Environment {
		env = env.Set(v.Key, v.Value)
	}
	return env
}

// ExportLine renders env as "export K=V; export K2=V2;\n".
func ExportLine(env options.Environment) string {
	exports := make([]string, len(env))
	for i, v := range env {
		exports[i] = fmt.Sprintf("export %s=%s;", v.Key, v.Value)
	}
	return strings.Join(exports, " ") + "\n"
}

// ShellCommand returns the login shell started in every new pane.
func ShellCommand(shell string) string {
	return fmt.Sprintf("/usr/bin/env %s -l", shell)
}
