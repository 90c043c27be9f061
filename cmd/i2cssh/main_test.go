package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/pflag"

	"github.com/wouterdebie/i2cssh/internal/errors"
	"github.com/wouterdebie/i2cssh/internal/options"
	"github.com/wouterdebie/i2cssh/internal/output"
)

func parseFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addHostFlags(fs)
	if err := fs.Parse(rewriteArgs(args)); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}
	return fs
}

func TestCommandLineOptions(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, o options.Options)
	}{
		{
			name: "nothing passed leaves every field unset",
			check: func(t *testing.T, o options.Options) {
				if !reflect.DeepEqual(o, options.Options{}) {
					t.Errorf("options = %+v, want zero", o)
				}
			},
		},
		{
			name: "booleans",
			args: []string{"-A", "-b", "-nb", "-t"},
			check: func(t *testing.T, o options.Options) {
				if !options.IsTrue(o.ForwardAgent) || !options.IsTrue(o.Broadcast) || !options.IsTrue(o.NoBroadcast) || !options.IsTrue(o.TabSplit) {
					t.Errorf("options = %+v", o)
				}
				if o.Rank != nil || o.Exec != nil {
					t.Error("flags not passed were set")
				}
			},
		},
		{
			name: "strings and ints",
			args: []string{"-l", "root", "-s", "2", "-R", "3", "-d", "row", "-x", "mosh {host}"},
			check: func(t *testing.T, o options.Options) {
				if options.StringOr(o.Login, "") != "root" || options.IntOr(o.Sleep, 0) != 2 || options.IntOr(o.Rows, 0) != 3 {
					t.Errorf("options = %+v", o)
				}
				if options.StringOr(o.Direction, "") != options.DirectionRow || options.StringOr(o.CustomCommand, "") != "mosh {host}" {
					t.Errorf("options = %+v", o)
				}
			},
		},
		{
			name: "direction in any case",
			args: []string{"-d", "ROW"},
			check: func(t *testing.T, o options.Options) {
				if got := options.StringOr(o.Direction, ""); got != options.DirectionRow {
					t.Errorf("direction = %q, want %q", got, options.DirectionRow)
				}
			},
		},
		{
			name: "custom command with remote template braces",
			args: []string{"-x", "docker -H {host} ps --format '{{.Names}}'"},
			check: func(t *testing.T, o options.Options) {
				if o.Template != nil {
					t.Error("template set without --template")
				}
			},
		},
		{
			name: "environment and extra",
			args: []string{"-e", "LC_FOO=foo,LC_BAR=bar", "-X", "i=~/.ssh/id", "-X", "v"},
			check: func(t *testing.T, o options.Options) {
				if got := o.Environment.Keys(); !reflect.DeepEqual(got, []string{"LC_FOO", "LC_BAR"}) {
					t.Errorf("environment keys = %v", got)
				}
				want := []options.Flag{{Name: "i", Value: "~/.ssh/id", HasValue: true}, {Name: "v"}}
				if got := o.Extra.Flags(); !reflect.DeepEqual(got, want) {
					t.Errorf("extra = %+v, want %+v", got, want)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := commandLineOptions(parseFlags(t, tt.args...))
			if err != nil {
				t.Fatalf("commandLineOptions() error = %v", err)
			}
			tt.check(t, o)
		})
	}
}

func TestCommandLineOptionsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "bad direction", args: []string{"-d", "diagonal"}},
		{name: "zero rows", args: []string{"-R", "0"}},
		{name: "negative sleep", args: []string{"-s", "-1"}},
		{name: "bad environment", args: []string{"-e", "NOVALUE"}},
		{name: "bad template", args: []string{"--template", "-x", "mosh {{if .Host}}"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := commandLineOptions(parseFlags(t, tt.args...)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestListFlag(t *testing.T) {
	fs := parseFlags(t, "-m", "web[1,2],db1", "-m", "app")
	got, err := listFlag(fs, "machines")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"web[1,2]", "db1", "app"}; !reflect.DeepEqual(got, want) {
		t.Errorf("listFlag() = %v, want %v", got, want)
	}
}

func TestRewriteArgs(t *testing.T) {
	got := rewriteArgs([]string{"-nb", "web", "--", "-nb"})
	want := []string{"--nobroadcast", "web", "--", "-nb"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rewriteArgs() = %v, want %v", got, want)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "i2csshrc")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(rewriteArgs(args))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestDryRun(t *testing.T) {
	rc := writeConfig(t, `
broadcast: true
clusters:
  web:
    hosts: [web1, web2]
  db:
    hosts: [db1]
    login: postgres
`)

	out, err := execute(t, "--config", rc, "--log-level", "error", "--dry-run", "--output", "json", "-t", "-c", "web,db")
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}

	var plan output.PlanOutput
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if !plan.TabSplit || len(plan.Groups) != 2 {
		t.Fatalf("plan = %+v", plan)
	}
	if !plan.Groups[0].Broadcast || len(plan.Groups[0].Panes) != 2 {
		t.Errorf("web group = %+v", plan.Groups[0])
	}
	if got := plan.Groups[1].Panes[0].Target; got != "postgres@db1" {
		t.Errorf("db target = %q", got)
	}
}

func TestDryRunLogin(t *testing.T) {
	rc := writeConfig(t, "login: global\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "host login", args: []string{"-m", "root@web1"}, want: "root@web1"},
		{name: "global login", args: []string{"-m", "web1"}, want: "global@web1"},
		{name: "flag overrides host login", args: []string{"-l", "admin", "-m", "root@web1"}, want: "admin@web1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", rc, "--log-level", "error", "--dry-run", "--output", "json"}, tt.args...)
			out, err := execute(t, args...)
			if err != nil {
				t.Fatalf("execute() error = %v", err)
			}
			var plan output.PlanOutput
			if err := json.Unmarshal([]byte(out), &plan); err != nil {
				t.Fatalf("output is not JSON: %v\n%s", err, out)
			}
			if got := plan.Groups[0].Panes[0].Target; got != tt.want {
				t.Errorf("target = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitCodes(t *testing.T) {
	rc := writeConfig(t, "clusters:\n  web:\n    hosts: [web1]\n")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "unknown cluster", args: []string{"--config", rc, "--dry-run", "nope"}, want: 4},
		{name: "no hosts", args: []string{"--config", rc, "--dry-run"}, want: 3},
		{name: "bad host", args: []string{"--config", rc, "--dry-run", "-m", "web[1..]"}, want: 7},
		{name: "rows and columns", args: []string{"--config", rc, "-R", "2", "-C", "2", "web"}, want: 2},
		{name: "bad config", args: []string{"--config", writeConfig(t, "clusters: [\n"), "--dry-run", "web"}, want: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append(tt.args, "--log-level", "error")...)
			if got := errors.ExitCode(err); got != tt.want {
				t.Errorf("exit code = %d (%v), want %d", got, err, tt.want)
			}
		})
	}
}
