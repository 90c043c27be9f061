// Package broadcast collects panes that share keyboard input.
package broadcast

import (
	"github.com/wouterdebie/i2cssh/internal/group"
	"github.com/wouterdebie/i2cssh/internal/options"
)

// Domain is a set of panes whose input is mirrored to all members.
type Domain struct {
	Group int      `json:"group"`
	Panes []string `json:"panes"`
}

// Assemble returns one domain per group that broadcasts. panes[i] holds the
// pane handles of groups[i] in row-major order. A group broadcasts when its
// first host enables broadcast without nobroadcast; within such a group a
// host whose own nobroadcast is set is left out.
//
// Unused panes are never members, even in a broadcasting group. They only
// run a read loop that discards input, so mirroring keystrokes to them
// would have no effect. Groups with no remaining panes produce no domain.
func Assemble(groups []group.Group, panes [][]string) []Domain {
	var domains []Domain
	for i, g := range groups {
		if !g.Broadcasts() || i >= len(panes) {
			continue
		}

		var members []string
		for p, handle := range panes[i] {
			if p >= len(g.Hosts) {
				break
			}
			if options.IsTrue(g.Hosts[p].Options.NoBroadcast) {
				continue
			}
			members = append(members, handle)
		}
		if len(members) > 0 {
			domains = append(domains, Domain{Group: i, Panes: members})
		}
	}
	return domains
}
