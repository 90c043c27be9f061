// Package options models the option layers that feed a host's session:
// global config, cluster config, the login parsed from a host string and the
// command line. Layers are plain values; merging never mutates its inputs.
package options

// Canonical option keys, shared by the config file and the command line.
const (
	KeyLogin           = "login"
	KeyForwardAgent    = "forward_agent"
	KeyEnvironment     = "environment"
	KeyRank            = "rank"
	KeyExtra           = "extra"
	KeyGateway         = "gateway"
	KeyCustomCommand   = "custom_command"
	KeyTemplate        = "template"
	KeyFullscreen      = "fullscreen"
	KeyBroadcast       = "broadcast"
	KeyNoBroadcast     = "nobroadcast"
	KeyProfile         = "profile"
	KeySleep           = "sleep"
	KeyShell           = "shell"
	KeyExec            = "exec"
	KeyColumns         = "columns"
	KeyRows            = "rows"
	KeyDirection       = "direction"
	KeyTabSplit        = "tab_split"
	KeyTabSplitNoGroup = "tab_split_nogroup"
	KeySameWindow      = "same_window"
)

// Direction values accepted for KeyDirection.
const (
	DirectionColumn = "column"
	DirectionRow    = "row"
)

var recognized = map[string]bool{
	KeyLogin: true, KeyForwardAgent: true, KeyEnvironment: true, KeyRank: true,
	KeyExtra: true, KeyGateway: true, KeyCustomCommand: true, KeyTemplate: true, KeyFullscreen: true,
	KeyBroadcast: true, KeyNoBroadcast: true, KeyProfile: true, KeySleep: true,
	KeyShell: true, KeyExec: true, KeyColumns: true, KeyRows: true,
	KeyDirection: true, KeyTabSplit: true, KeyTabSplitNoGroup: true, KeySameWindow: true,
}

// FilterValidOptions returns the top-level entries of m whose key is
// recognized. Nested values are kept as they are.
func FilterValidOptions[V any](m map[string]V, recognizedKeys map[string]bool) map[string]V {
	filtered := make(map[string]V, len(m))
	for k, v := range m {
		if recognizedKeys[k] {
			filtered[k] = v
		}
	}
	return filtered
}

// Recognized returns a copy of the recognized key set for FilterValidOptions.
func Recognized() map[string]bool {
	out := make(map[string]bool, len(recognized))
	for k := range recognized {
		out[k] = true
	}
	return out
}

// Options is one option layer. A nil field is unset and never overrides a
// lower layer.
type Options struct {
	Login           *string
	ForwardAgent    *bool
	Environment     Environment
	Rank            *bool
	Extra           *Extra
	Gateway         *string
	CustomCommand   *string
	Template        *bool // CustomCommand is a Go template
	Fullscreen      *bool
	Broadcast       *bool
	NoBroadcast     *bool
	Profile         *string
	Sleep           *int
	Shell           *string
	Exec            *bool
	Columns         *int
	Rows            *int
	Direction       *string
	TabSplit        *bool
	TabSplitNoGroup *bool
	SameWindow      *bool
}

// Merge returns base with every set, non-empty field of overrides applied.
func Merge(base, overrides Options) Options {
	out := base
	mergePtr(&out.Login, overrides.Login)
	mergePtr(&out.ForwardAgent, overrides.ForwardAgent)
	if len(overrides.Environment) > 0 {
		out.Environment = overrides.Environment.Clone()
	}
	mergePtr(&out.Rank, overrides.Rank)
	if !overrides.Extra.IsEmpty() {
		x := overrides.Extra.Clone()
		out.Extra = &x
	}
	mergePtr(&out.Gateway, overrides.Gateway)
	mergePtr(&out.CustomCommand, overrides.CustomCommand)
	mergePtr(&out.Template, overrides.Template)
	mergePtr(&out.Fullscreen, overrides.Fullscreen)
	mergePtr(&out.Broadcast, overrides.Broadcast)
	mergePtr(&out.NoBroadcast, overrides.NoBroadcast)
	mergePtr(&out.Profile, overrides.Profile)
	mergePtr(&out.Sleep, overrides.Sleep)
	mergePtr(&out.Shell, overrides.Shell)
	mergePtr(&out.Exec, overrides.Exec)
	mergePtr(&out.Columns, overrides.Columns)
	mergePtr(&out.Rows, overrides.Rows)
	mergePtr(&out.Direction, overrides.Direction)
	mergePtr(&out.TabSplit, overrides.TabSplit)
	mergePtr(&out.TabSplitNoGroup, overrides.TabSplitNoGroup)
	mergePtr(&out.SameWindow, overrides.SameWindow)
	return out
}

func mergePtr[T any](dst **T, src *T) {
	if src == nil {
		return
	}
	v := *src
	*dst = &v
}

// NormalizeCommandLine clears every boolean that is false. A command-line
// flag is either passed (true) or absent, so a false value must not suppress
// a true coming from the config file.
func NormalizeCommandLine(o Options) Options {
	for _, b := range []**bool{
		&o.ForwardAgent, &o.Rank, &o.Template, &o.Fullscreen, &o.Broadcast, &o.NoBroadcast,
		&o.Exec, &o.TabSplit, &o.TabSplitNoGroup, &o.SameWindow,
	} {
		if *b != nil && !**b {
			*b = nil
		}
	}
	return o
}

// Resolve merges the layers for one host: global config, cluster config,
// the login taken from a user@host string, then the command line.
func Resolve(global, cluster Options, hostLogin string, cli Options) Options {
	out := Merge(Options{}, global)
	out = Merge(out, cluster)
	if hostLogin != "" {
		out.Login = String(hostLogin)
	}
	return Merge(out, NormalizeCommandLine(cli))
}

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// IsTrue reports whether b is set and true.
func IsTrue(b *bool) bool { return b != nil && *b }

// StringOr returns *s, or def when s is unset or empty.
func StringOr(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

// IntOr returns *i, or def when i is unset.
func IntOr(i *int, def int) int {
	if i == nil {
		return def
	}
	return *i
}
