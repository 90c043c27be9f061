// Package group turns command-line host selections into ordered groups of
// fully resolved hosts, one group per tab.
package group

import (
	"github.com/wouterdebie/i2cssh/internal/errors"
	"github.com/wouterdebie/i2cssh/internal/inventory"
	"github.com/wouterdebie/i2cssh/internal/layout"
	"github.com/wouterdebie/i2cssh/internal/options"
	"github.com/wouterdebie/i2cssh/internal/target"
)

// Group snapshot defaults.
const (
	DefaultProfile = "Default"
	DefaultShell   = "bash"
)

// Request is the host selection given on the command line.
type Request struct {
	Args     []string        // Positional hosts_or_cluster arguments
	Clusters []string        // -c, already split on commas
	Machines []string        // -m, already split on commas
	File     string          // -f, "-" for stdin
	CLI      options.Options // Command-line option layer, not yet normalized
}

// Group is an ordered set of hosts rendered together in one tab. Its
// attributes are a snapshot of the first host's resolved options.
type Group struct {
	Hosts       []target.Host   `json:"-"`
	Geometry    layout.Geometry `json:"geometry"`
	Profile     string          `json:"profile"`
	Shell       string          `json:"shell"`
	Direction   string          `json:"direction"`
	Broadcast   bool            `json:"broadcast"`
	NoBroadcast bool            `json:"nobroadcast"`
	Fullscreen  bool            `json:"fullscreen"`
}

// Broadcasts reports whether the group's panes form a broadcast domain.
func (g Group) Broadcasts() bool {
	return g.Broadcast && !g.NoBroadcast
}

// Plan is the resolved outcome of a request.
type Plan struct {
	Groups     []Group
	SameWindow bool // Open the first group as a tab of the current window
	TabSplit   bool // Groups were kept apart by tab_split or tab_split_nogroup
}

// Hosts returns every host of the plan in order.
func (p Plan) Hosts() []target.Host {
	var hosts []target.Host
	for _, g := range p.Groups {
		hosts = append(hosts, g.Hosts...)
	}
	return hosts
}

// Builder builds plans from requests against a cluster inventory.
type Builder struct {
	inventory inventory.Provider
}

// NewBuilder creates a builder over inv
func NewBuilder(inv inventory.Provider) *Builder {
	return &Builder{inventory: inv}
}

// Build collects groups in a fixed order: a single positional cluster or
// several positional hosts, then -c clusters, then -m machines, then the -f
// file. Options are then resolved per host and, unless tab splitting is on,
// all groups are flattened into one. An empty result is NoHostsFound.
func (b *Builder) Build(req Request) (Plan, error) {
	global := b.inventory.Global()
	cli := options.NormalizeCommandLine(req.CLI)

	tabSplit := options.IsTrue(cli.TabSplit) || options.IsTrue(global.TabSplit)
	tabSplitNoGroup := options.IsTrue(cli.TabSplitNoGroup) || options.IsTrue(global.TabSplitNoGroup)

	groups, err := b.collect(req, tabSplit, tabSplitNoGroup)
	if err != nil {
		return Plan{}, err
	}

	for _, hosts := range groups {
		for i, h := range hosts {
			h.Options = options.Resolve(global, h.ClusterOptions, h.Login, cli)
			hosts[i] = h
		}
	}

	if !tabSplit && !tabSplitNoGroup {
		var flat []target.Host
		for _, hosts := range groups {
			flat = append(flat, hosts...)
		}
		groups = [][]target.Host{flat}
	}

	plan := Plan{
		SameWindow: options.IsTrue(cli.SameWindow) || options.IsTrue(global.SameWindow),
		TabSplit:   tabSplit || tabSplitNoGroup,
	}
	for _, hosts := range groups {
		if len(hosts) == 0 {
			continue
		}
		plan.Groups = append(plan.Groups, newGroup(hosts))
	}
	if len(plan.Groups) == 0 {
		return Plan{}, errors.NewNoHostsFound()
	}
	return plan, nil
}

func (b *Builder) collect(req Request, tabSplit, tabSplitNoGroup bool) ([][]target.Host, error) {
	var groups [][]target.Host

	switch {
	case len(req.Args) == 1:
		hosts, err := inventory.ResolveWithLogin(b.inventory, req.Args[0])
		if err != nil {
			return nil, err
		}
		groups = append(groups, hosts)
	case len(req.Args) > 1:
		hosts, err := target.ParseHostStrings(req.Args)
		if err != nil {
			return nil, err
		}
		if tabSplit {
			groups = append(groups, hosts)
		} else {
			groups = append(groups, singletons(hosts)...)
		}
	}

	for _, name := range req.Clusters {
		hosts, err := b.inventory.Resolve(name)
		if err != nil {
			return nil, err
		}
		groups = append(groups, hosts)
	}

	if len(req.Machines) > 0 {
		hosts, err := target.ParseHostStrings(req.Machines)
		if err != nil {
			return nil, err
		}
		if tabSplitNoGroup {
			groups = append(groups, singletons(hosts)...)
		} else {
			groups = append(groups, hosts)
		}
	}

	if req.File != "" {
		hosts, err := target.ParseHostFile(req.File)
		if err != nil {
			if errors.TypeOf(err) == errors.UnknownErrorType {
				return nil, errors.NewSetupError("cannot read host file", err)
			}
			return nil, err
		}
		groups = append(groups, hosts)
	}

	return groups, nil
}

func singletons(hosts []target.Host) [][]target.Host {
	out := make([][]target.Host, len(hosts))
	for i, h := range hosts {
		out[i] = []target.Host{h}
	}
	return out
}

func newGroup(hosts []target.Host) Group {
	first := hosts[0].Options
	return Group{
		Hosts: hosts,
		Geometry: layout.Compute(len(hosts),
			options.IntOr(first.Rows, 0), options.IntOr(first.Columns, 0)),
		Profile:     options.StringOr(first.Profile, DefaultProfile),
		Shell:       options.StringOr(first.Shell, DefaultShell),
		Direction:   options.StringOr(first.Direction, options.DirectionColumn),
		Broadcast:   options.IsTrue(first.Broadcast),
		NoBroadcast: options.IsTrue(first.NoBroadcast),
		Fullscreen:  options.IsTrue(first.Fullscreen),
	}
}
