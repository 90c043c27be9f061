package ssh

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/wouterdebie/i2cssh/internal/options"
	"github.com/wouterdebie/i2cssh/internal/target"
)

// pipeAgent returns a dialer that serves keyring over an in-memory pipe.
func pipeAgent(keyring agent.Agent) func(context.Context, string) (net.Conn, error) {
	return func(context.Context, string) (net.Conn, error) {
		client, server := net.Pipe()
		go func() {
			_ = agent.ServeAgent(keyring, server)
			server.Close()
		}()
		return client, nil
	}
}

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func newKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	return priv
}

func TestCheckAgent(t *testing.T) {
	loaded := agent.NewKeyring()
	if err := loaded.Add(agent.AddedKey{PrivateKey: newKey(t)}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		socket  string
		dial    func(context.Context, string) (net.Conn, error)
		wantErr string
	}{
		{name: "keys loaded", socket: "/tmp/agent.sock", dial: pipeAgent(loaded)},
		{name: "empty agent", socket: "/tmp/agent.sock", dial: pipeAgent(agent.NewKeyring()), wantErr: "no keys"},
		{name: "socket unset", wantErr: "SSH_AUTH_SOCK is not set"},
		{
			name:   "unreachable",
			socket: "/tmp/agent.sock",
			dial: func(context.Context, string) (net.Conn, error) {
				return nil, fmt.Errorf("connection refused")
			},
			wantErr: "cannot reach agent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Checker{DialAgent: tt.dial, Getenv: env(map[string]string{"SSH_AUTH_SOCK": tt.socket})}
			err := c.CheckAgent(context.Background())
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("CheckAgent() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("CheckAgent() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCheckIdentity(t *testing.T) {
	dir := t.TempDir()
	priv := newKey(t)

	plain, err := ssh.MarshalPrivateKey(priv, "test")
	if err != nil {
		t.Fatal(err)
	}
	encrypted, err := ssh.MarshalPrivateKeyWithPassphrase(priv, "test", []byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatal(err)
	}

	files := map[string][]byte{
		"id_plain":     pem.EncodeToMemory(plain),
		"id_encrypted": pem.EncodeToMemory(encrypted),
		"id_plain.pub": ssh.MarshalAuthorizedKey(signer.PublicKey()),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		file    string
		wantErr string
	}{
		{file: "id_plain"},
		{file: "id_encrypted"},
		{file: "id_plain.pub", wantErr: "not a usable private key"},
		{file: "missing", wantErr: "cannot read identity file"},
	}

	c := NewChecker()
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			err := c.CheckIdentity(filepath.Join(dir, tt.file))
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("CheckIdentity() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("CheckIdentity() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestIdentityFiles(t *testing.T) {
	list := options.ExtraFromTokens("i=~/.ssh/a", "v")
	mapping := options.ExtraFromMapping(options.Flag{Name: "i", Value: "/keys/b", HasValue: true}, options.Flag{Name: "p", Value: "2222", HasValue: true})

	hosts := []target.Host{
		{Hostname: "a", Options: options.Options{Extra: &list}},
		{Hostname: "b", Options: options.Options{Extra: &mapping}},
		{Hostname: "c", Options: options.Options{Extra: &list}},
		{Hostname: "d"},
	}
	want := []string{"/keys/b", "~/.ssh/a"}
	if got := IdentityFiles(hosts); !reflect.DeepEqual(got, want) {
		t.Errorf("IdentityFiles() = %v, want %v", got, want)
	}
}

func TestRun(t *testing.T) {
	list := options.ExtraFromTokens("i=/nonexistent/key")
	hosts := []target.Host{
		{Hostname: "a", Options: options.Options{ForwardAgent: options.Bool(true), Extra: &list}},
		{Hostname: "b", Options: options.Options{ForwardAgent: options.Bool(true)}},
	}

	c := &Checker{
		DialAgent: pipeAgent(agent.NewKeyring()),
		ReadFile:  os.ReadFile,
		Getenv:    env(map[string]string{"SSH_AUTH_SOCK": "/tmp/agent.sock"}),
	}
	warnings := c.Run(context.Background(), hosts)
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", warnings)
	}
	if warnings[0].Check != CheckAgent || warnings[1].Check != CheckIdentity || warnings[1].Subject != "/nonexistent/key" {
		t.Errorf("warnings = %+v", warnings)
	}

	quiet := c.Run(context.Background(), []target.Host{{Hostname: "plain"}})
	if len(quiet) != 0 {
		t.Errorf("warnings without forwarding or identities = %v", quiet)
	}
}
