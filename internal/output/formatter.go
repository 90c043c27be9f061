// Package output renders a resolved plan for --dry-run.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wouterdebie/i2cssh/internal/broadcast"
	"github.com/wouterdebie/i2cssh/internal/group"
	"github.com/wouterdebie/i2cssh/internal/session"
)

// OutputMode defines the available output formatting modes
type OutputMode string

const (
	// TextMode prints one block per group with the lines each pane receives
	TextMode OutputMode = "text"

	// JSONMode emits the whole plan as a single JSON document
	JSONMode OutputMode = "json"
)

// ParseMode validates an --output value.
func ParseMode(s string) (OutputMode, error) {
	switch OutputMode(strings.ToLower(s)) {
	case TextMode:
		return TextMode, nil
	case JSONMode:
		return JSONMode, nil
	default:
		return "", fmt.Errorf("unknown output mode: %s (valid: text, json)", s)
	}
}

// Formatter defines the interface for rendering a plan
type Formatter interface {
	// Format writes plan without touching any multiplexer
	Format(plan group.Plan) error
}

// PlanFormatter renders plans in text or JSON.
type PlanFormatter struct {
	mode     OutputMode
	writer   io.Writer
	sessions *session.Builder
	styles   styles
}

type styles struct {
	header lipgloss.Style
	target lipgloss.Style
	line   lipgloss.Style
	muted  lipgloss.Style
	unused lipgloss.Style
}

// NewFormatter creates a new formatter with the specified mode and writer
func NewFormatter(mode OutputMode, writer io.Writer) *PlanFormatter {
	if writer == nil {
		writer = os.Stdout
	}

	r := lipgloss.NewRenderer(writer)
	return &PlanFormatter{
		mode:     mode,
		writer:   writer,
		sessions: session.NewBuilder(),
		styles: styles{
			header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
			target: r.NewStyle().Bold(true),
			line:   r.NewStyle().PaddingLeft(6),
			muted:  r.NewStyle().Faint(true),
			unused: r.NewStyle().Foreground(lipgloss.Color("9")),
		},
	}
}

// PlanOutput is the JSON form of a plan.
type PlanOutput struct {
	SameWindow bool          `json:"same_window"`
	TabSplit   bool          `json:"tab_split"`
	Groups     []GroupOutput `json:"groups"`
}

// GroupOutput is one window or tab.
type GroupOutput struct {
	Index      int          `json:"index"`
	Rows       int          `json:"rows"`
	Cols       int          `json:"cols"`
	Fullscreen bool         `json:"fullscreen"`
	Direction  string       `json:"direction"`
	Profile    string       `json:"profile"`
	Shell      string       `json:"shell"`
	Broadcast  bool         `json:"broadcast"`
	Panes      []PaneOutput `json:"panes"`
}

// PaneOutput is what one pane receives.
type PaneOutput struct {
	Index     int    `json:"index"`
	Target    string `json:"target,omitempty"`
	Preamble  string `json:"preamble,omitempty"`
	Line      string `json:"line,omitempty"`
	DelayMs   int64  `json:"delay_ms,omitempty"`
	Unused    bool   `json:"unused,omitempty"`
	Broadcast bool   `json:"broadcast,omitempty"`
}

// Format renders plan in the configured mode.
func (f *PlanFormatter) Format(plan group.Plan) error {
	out, err := f.build(plan)
	if err != nil {
		return err
	}

	switch f.mode {
	case TextMode:
		return f.formatText(out)
	case JSONMode:
		return f.formatJSON(out)
	default:
		return fmt.Errorf("unknown output mode: %s", f.mode)
	}
}

func (f *PlanFormatter) build(plan group.Plan) (PlanOutput, error) {
	out := PlanOutput{SameWindow: plan.SameWindow, TabSplit: plan.TabSplit}

	// Pane indices stand in for handles so broadcast membership can be
	// computed the same way the launcher does.
	handles := make([][]string, len(plan.Groups))
	for i, g := range plan.Groups {
		for p := 0; p < g.Geometry.Panes(); p++ {
			handles[i] = append(handles[i], strconv.Itoa(p))
		}
	}
	members := make(map[int]map[string]bool)
	for _, d := range broadcast.Assemble(plan.Groups, handles) {
		members[d.Group] = make(map[string]bool)
		for _, p := range d.Panes {
			members[d.Group][p] = true
		}
	}

	for i, g := range plan.Groups {
		cmds, err := f.sessions.BuildGroup(g)
		if err != nil {
			return PlanOutput{}, fmt.Errorf("group %d: %w", i+1, err)
		}

		gout := GroupOutput{
			Index:      i + 1,
			Rows:       g.Geometry.Rows,
			Cols:       g.Geometry.Cols,
			Fullscreen: (i == 0 && g.Fullscreen) || g.Geometry.RequiresFullscreen,
			Direction:  g.Direction,
			Profile:    g.Profile,
			Shell:      session.ShellCommand(g.Shell),
			Broadcast:  len(members[i]) > 0,
		}
		for _, c := range cmds {
			gout.Panes = append(gout.Panes, PaneOutput{
				Index:     c.Index,
				Target:    c.Target,
				Preamble:  c.Preamble,
				Line:      c.Line,
				DelayMs:   c.Delay.Milliseconds(),
				Unused:    c.Unused,
				Broadcast: members[i][strconv.Itoa(c.Index)],
			})
		}
		out.Groups = append(out.Groups, gout)
	}
	return out, nil
}

// formatText prints a block per group
func (f *PlanFormatter) formatText(out PlanOutput) error {
	var b strings.Builder
	for i, g := range out.Groups {
		if i > 0 {
			b.WriteString("\n")
		}

		header := fmt.Sprintf("Group %d  %dx%d %s", g.Index, g.Rows, g.Cols, g.Direction)
		b.WriteString(f.styles.header.Render(header))

		details := []string{"profile=" + g.Profile, "shell=" + g.Shell}
		if g.Fullscreen {
			details = append(details, "fullscreen")
		}
		if g.Broadcast {
			details = append(details, "broadcast")
		}
		b.WriteString("  " + f.styles.muted.Render(strings.Join(details, " ")) + "\n")

		for _, p := range g.Panes {
			if p.Unused {
				fmt.Fprintf(&b, "  [%d] %s\n", p.Index, f.styles.unused.Render("unused"))
				continue
			}

			fmt.Fprintf(&b, "  [%d] %s", p.Index, f.styles.target.Render(p.Target))
			if p.Broadcast {
				b.WriteString(" " + f.styles.muted.Render("(broadcast)"))
			}
			b.WriteString("\n")
			if p.Preamble != "" {
				b.WriteString(f.styles.line.Render(strings.TrimSuffix(p.Preamble, "\n")) + "\n")
			}
			if p.DelayMs > 0 {
				b.WriteString(f.styles.line.Render(f.styles.muted.Render(fmt.Sprintf("(wait %dms)", p.DelayMs))) + "\n")
			}
			b.WriteString(f.styles.line.Render(strings.TrimSuffix(p.Line, "\n")) + "\n")
		}
	}

	if _, err := io.WriteString(f.writer, b.String()); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}
	return nil
}

// formatJSON emits the plan as one indented document
func (f *PlanFormatter) formatJSON(out PlanOutput) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}
