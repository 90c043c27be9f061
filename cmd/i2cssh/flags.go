package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/wouterdebie/i2cssh/internal/options"
	"github.com/wouterdebie/i2cssh/internal/target"
	"github.com/wouterdebie/i2cssh/internal/template"
)

// addHostFlags registers the host selection and host option flags.
func addHostFlags(fs *pflag.FlagSet) {
	// Host selection
	fs.StringArrayP("clusters", "c", nil, "Comma-separated cluster names from the config file (repeatable)")
	fs.StringArrayP("machines", "m", nil, "Comma-separated list of hosts, [login@]host, with [a..b] ranges (repeatable)")
	fs.StringP("file", "f", "", "File with one host per line ('-' for stdin)")
	fs.BoolP("tab-split", "t", false, "Open each group in its own tab")
	fs.BoolP("tab-split-nogroup", "T", false, "Open each host of -m in its own tab")
	fs.BoolP("same-window", "W", false, "Open every group as a tab of the current window")

	// Host options
	fs.BoolP("forward-agent", "A", false, "Forward the ssh agent")
	fs.StringP("login", "l", "", "SSH login, overrides config and user@host")
	fs.StringP("environment", "e", "", "Environment to send, KEY=VAL,KEY2=VAL2")
	fs.BoolP("rank", "r", false, "Send LC_RANK with the host's position in its group")
	fs.StringArrayP("extra", "X", nil, "Extra ssh parameter, e.g. -X i=~/.ssh/id -X v (repeatable)")
	fs.StringP("gateway", "g", "", "Jump through this host with ssh -W")
	fs.StringP("custom-command", "x", "", "Run this instead of ssh; {host} is replaced")
	fs.Bool("template", false, "Treat --custom-command as a Go template ({{.Hostname}}, {{.Index}}, ...)")
	fs.BoolP("fullscreen", "F", false, "Make the first window fullscreen")
	fs.BoolP("broadcast", "b", false, "Mirror keyboard input to every pane of a group")
	fs.Bool("nobroadcast", false, "Disable broadcast even if the config enables it (also -nb)")
	fs.StringP("profile", "p", "", "Terminal profile for new panes")
	fs.IntP("sleep", "s", 0, "Seconds to wait before each command")
	fs.StringP("shell", "S", "", "Shell started in new panes")
	fs.BoolP("exec", "E", false, "Replace the pane's shell with ssh")
	fs.IntP("columns", "C", 0, "Number of columns")
	fs.IntP("rows", "R", 0, "Number of rows")
	fs.StringP("direction", "d", options.DirectionColumn, "Fill direction: column or row")
}

// commandLineOptions builds the command-line option layer. Only flags that
// were passed set a field; an absent flag never overrides the config file.
func commandLineOptions(fs *pflag.FlagSet) (options.Options, error) {
	var o options.Options

	boolFlags := map[string]**bool{
		"forward-agent":     &o.ForwardAgent,
		"rank":              &o.Rank,
		"template":          &o.Template,
		"fullscreen":        &o.Fullscreen,
		"broadcast":         &o.Broadcast,
		"nobroadcast":       &o.NoBroadcast,
		"exec":              &o.Exec,
		"tab-split":         &o.TabSplit,
		"tab-split-nogroup": &o.TabSplitNoGroup,
		"same-window":       &o.SameWindow,
	}
	for name, dst := range boolFlags {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetBool(name)
		if err != nil {
			return o, err
		}
		*dst = options.Bool(v)
	}

	stringFlags := map[string]**string{
		"login":          &o.Login,
		"gateway":        &o.Gateway,
		"custom-command": &o.CustomCommand,
		"profile":        &o.Profile,
		"shell":          &o.Shell,
	}
	for name, dst := range stringFlags {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return o, err
		}
		*dst = options.String(v)
	}
	if o.CustomCommand != nil && options.IsTrue(o.Template) {
		if err := template.Validate(*o.CustomCommand); err != nil {
			return o, fmt.Errorf("--custom-command: %w", err)
		}
	}

	if fs.Changed("sleep") {
		v, err := fs.GetInt("sleep")
		if err != nil {
			return o, err
		}
		if v < 0 {
			return o, fmt.Errorf("--sleep must not be negative, got %d", v)
		}
		o.Sleep = options.Int(v)
	}

	for _, name := range []string{"columns", "rows"} {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetInt(name)
		if err != nil {
			return o, err
		}
		if v < 1 {
			return o, fmt.Errorf("--%s must be at least 1, got %d", name, v)
		}
		if name == "columns" {
			o.Columns = options.Int(v)
		} else {
			o.Rows = options.Int(v)
		}
	}

	if fs.Changed("direction") {
		d, err := fs.GetString("direction")
		if err != nil {
			return o, err
		}
		if o.Direction, err = options.ParseDirection(d); err != nil {
			return o, err
		}
	}

	if fs.Changed("environment") {
		s, err := fs.GetString("environment")
		if err != nil {
			return o, err
		}
		env, err := options.ParseEnvironment(s)
		if err != nil {
			return o, fmt.Errorf("--environment: %w", err)
		}
		o.Environment = env
	}

	if fs.Changed("extra") {
		tokens, err := fs.GetStringArray("extra")
		if err != nil {
			return o, err
		}
		x := options.ExtraFromTokens(tokens...)
		o.Extra = &x
	}

	return o, nil
}

// listFlag returns the comma-separated entries of a repeatable flag.
func listFlag(fs *pflag.FlagSet, name string) ([]string, error) {
	values, err := fs.GetStringArray(name)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, v := range values {
		out = append(out, target.SplitList(v)...)
	}
	return out, nil
}

// rewriteArgs turns the two-letter -nb into --nobroadcast, which pflag
// cannot express as a shorthand. Arguments after "--" are left alone.
func rewriteArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i, a := range out {
		if a == "--" {
			break
		}
		if a == "-nb" {
			out[i] = "--nobroadcast"
		}
	}
	return out
}
