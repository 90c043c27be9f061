package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/pflag"

	"github.com/wouterdebie/i2cssh/internal/errors"
	"github.com/wouterdebie/i2cssh/internal/options"
)

const sampleRC = `
login: admin
broadcast: true
environment:
  LC_FOO: foo
colour: blue
clusters:
  web:
    hosts: [web1, web2]
    login: deploy
    direction: row
  db:
    hosts:
      - db1
      - root@db2
    include_from: [web]
    sleep: 2
    bogus: 1
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sampleRC))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := options.StringOr(f.Global.Login, ""); got != "admin" {
		t.Errorf("Global.Login = %q, want admin", got)
	}
	if !options.IsTrue(f.Global.Broadcast) {
		t.Error("Global.Broadcast not set")
	}
	if keys := f.Global.Environment.Keys(); !reflect.DeepEqual(keys, []string{"LC_FOO"}) {
		t.Errorf("Global.Environment keys = %v", keys)
	}

	if names := f.ClusterNames(); !reflect.DeepEqual(names, []string{"db", "web"}) {
		t.Errorf("ClusterNames() = %v", names)
	}

	web := f.Clusters["web"]
	if !reflect.DeepEqual(web.Hosts, []string{"web1", "web2"}) {
		t.Errorf("web.Hosts = %v", web.Hosts)
	}
	if got := options.StringOr(web.Options.Direction, ""); got != "row" {
		t.Errorf("web direction = %q, want row", got)
	}

	db := f.Clusters["db"]
	if !reflect.DeepEqual(db.IncludeFrom, []string{"web"}) {
		t.Errorf("db.IncludeFrom = %v", db.IncludeFrom)
	}
	if got := options.IntOr(db.Options.Sleep, 0); got != 2 {
		t.Errorf("db sleep = %d, want 2", got)
	}

	want := []string{"clusters.db.bogus", "colour"}
	if !reflect.DeepEqual(f.Dropped, want) {
		t.Errorf("Dropped = %v, want %v", f.Dropped, want)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, content := range []string{"", "# just a comment\n", "~\n"} {
		f, err := Parse([]byte(content))
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", content, err)
		}
		if len(f.Clusters) != 0 {
			t.Errorf("Parse(%q) clusters = %v, want none", content, f.Clusters)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed yaml", content: "clusters: [unclosed"},
		{name: "top level list", content: "- a\n- b\n"},
		{name: "cluster not a mapping", content: "clusters:\n  web: web1\n"},
		{name: "bad option kind", content: "sleep: [1, 2]\n"},
		{name: "bad direction", content: "direction: diagonal\n"},
		{name: "hosts not a list", content: "clusters:\n  web:\n    hosts: {a: b}\n"},
		{name: "zero rows", content: "rows: 0\n"},
		{name: "negative columns", content: "clusters:\n  web:\n    hosts: [a]\n    columns: -2\n"},
		{name: "negative sleep", content: "sleep: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.content)); err == nil {
				t.Errorf("Parse(%q) expected error", tt.content)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	f, err := LoadFile(filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatalf("LoadFile(missing) error = %v", err)
	}
	if len(f.Clusters) != 0 {
		t.Errorf("LoadFile(missing) clusters = %v", f.Clusters)
	}

	bad := filepath.Join(dir, "bad")
	if err := os.WriteFile(bad, []byte("clusters: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(bad); !stderrors.Is(err, errors.ErrConfigParse) {
		t.Errorf("LoadFile(bad) error = %v, want ConfigParse", err)
	}

	good := filepath.Join(dir, "good")
	if err := os.WriteFile(good, []byte(sampleRC), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err = LoadFile(good)
	if err != nil {
		t.Fatalf("LoadFile(good) error = %v", err)
	}
	if f.Path != good || len(f.Clusters) != 2 {
		t.Errorf("LoadFile(good) = %+v", f)
	}
}

func TestManagerLoad(t *testing.T) {
	t.Setenv("I2CSSH_LOG_LEVEL", "debug")
	t.Setenv("I2CSSH_TMUX", "/opt/bin/tmux")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-format", "auto", "")
	flags.String("config", "", "")
	if err := flags.Parse([]string{"--log-format", "json", "--config", "/tmp/rc"}); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	if err := m.BindFlags(flags); err != nil {
		t.Fatalf("BindFlags() error = %v", err)
	}
	s, err := m.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Settings{ConfigFile: "/tmp/rc", LogLevel: "debug", LogFormat: "json", Tmux: "/opt/bin/tmux"}
	if *s != want {
		t.Errorf("Load() = %+v, want %+v", *s, want)
	}
}

func TestManagerValidate(t *testing.T) {
	m := &ViperManager{}
	tests := []struct {
		name     string
		settings Settings
		wantErr  bool
	}{
		{name: "valid", settings: Settings{LogLevel: "info", LogFormat: "auto", Tmux: "tmux"}},
		{name: "bad level", settings: Settings{LogLevel: "loud", LogFormat: "auto", Tmux: "tmux"}, wantErr: true},
		{name: "bad format", settings: Settings{LogLevel: "info", LogFormat: "xml", Tmux: "tmux"}, wantErr: true},
		{name: "empty tmux", settings: Settings{LogLevel: "info", LogFormat: "auto"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Validate(&tt.settings)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/.i2csshrc"); got != filepath.Join(home, ".i2csshrc") {
		t.Errorf("expandHome() = %q", got)
	}
	if got := expandHome("/etc/rc"); got != "/etc/rc" {
		t.Errorf("expandHome() = %q", got)
	}
}
