// Package inventory resolves cluster names from the rc file into hosts.
package inventory

import (
	"strings"

	"github.com/wouterdebie/i2cssh/internal/config"
	"github.com/wouterdebie/i2cssh/internal/errors"
	"github.com/wouterdebie/i2cssh/internal/options"
	"github.com/wouterdebie/i2cssh/internal/target"
)

// Provider defines the interface for cluster sources
type Provider interface {
	// Global returns the top-level option layer
	Global() options.Options
	// Clusters returns the available cluster names
	Clusters() []string
	// Resolve returns the hosts of a cluster, include_from expanded
	Resolve(name string) ([]target.Host, error)
}

// ConfigInventory serves clusters from a parsed rc file
type ConfigInventory struct {
	file *config.File
}

// New creates a provider backed by f. A nil f behaves as an empty file.
func New(f *config.File) *ConfigInventory {
	if f == nil {
		f = config.Empty()
	}
	return &ConfigInventory{file: f}
}

// Global returns the top-level option layer of the rc file
func (ci *ConfigInventory) Global() options.Options {
	return ci.file.Global
}

// Clusters returns the cluster names in sorted order
func (ci *ConfigInventory) Clusters() []string {
	return ci.file.ClusterNames()
}

// Resolve returns the hosts of the named cluster followed by the hosts of
// every cluster listed in its include_from, in order. Every host carries the
// options of the named cluster only; included clusters contribute hosts but
// not their option overrides. include_from is followed one level deep.
func (ci *ConfigInventory) Resolve(name string) ([]target.Host, error) {
	cluster, ok := ci.file.Clusters[name]
	if !ok {
		return nil, errors.NewUnknownCluster(name)
	}

	specs := append([]string(nil), cluster.Hosts...)
	for _, include := range cluster.IncludeFrom {
		included, ok := ci.file.Clusters[include]
		if !ok {
			return nil, errors.NewUnknownCluster(include)
		}
		specs = append(specs, included.Hosts...)
	}

	hosts, err := target.ParseHostStrings(specs)
	if err != nil {
		return nil, err
	}
	for i := range hosts {
		hosts[i].Cluster = name
		hosts[i].ClusterOptions = cluster.Options
	}
	return hosts, nil
}

// SplitClusterLogin splits "login@cluster" into its parts. A name without
// '@' has an empty login.
func SplitClusterLogin(arg string) (login, cluster string) {
	if i := strings.LastIndex(arg, "@"); i >= 0 {
		return arg[:i], arg[i+1:]
	}
	return "", arg
}

// ResolveWithLogin resolves arg as "[login@]cluster". The login is given to
// every host that has no login of its own.
func ResolveWithLogin(p Provider, arg string) ([]target.Host, error) {
	login, name := SplitClusterLogin(arg)
	if name == "" {
		return nil, errors.NewUnknownCluster(arg)
	}
	hosts, err := p.Resolve(name)
	if err != nil {
		return nil, err
	}
	if login != "" {
		for i := range hosts {
			if hosts[i].Login == "" {
				hosts[i].Login = login
			}
		}
	}
	return hosts, nil
}
