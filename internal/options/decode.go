package options

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromNodes decodes a filtered config block into an option layer. Keys that
// are not recognized are ignored; a recognized key with a value of the wrong
// kind is an error.
func FromNodes(fields map[string]*yaml.Node) (Options, error) {
	var o Options

	// Decode in key order so that the first reported error is deterministic.
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		node := fields[key]
		if node == nil || node.Tag == "!!null" {
			continue
		}
		var err error
		switch key {
		case KeyLogin:
			o.Login, err = decodeScalar[string](node)
		case KeyForwardAgent:
			o.ForwardAgent, err = decodeScalar[bool](node)
		case KeyEnvironment:
			err = node.Decode(&o.Environment)
		case KeyRank:
			o.Rank, err = decodeScalar[bool](node)
		case KeyExtra:
			var x Extra
			if err = node.Decode(&x); err == nil {
				o.Extra = &x
			}
		case KeyGateway:
			o.Gateway, err = decodeScalar[string](node)
		case KeyCustomCommand:
			o.CustomCommand, err = decodeScalar[string](node)
		case KeyTemplate:
			o.Template, err = decodeScalar[bool](node)
		case KeyFullscreen:
			o.Fullscreen, err = decodeScalar[bool](node)
		case KeyBroadcast:
			o.Broadcast, err = decodeScalar[bool](node)
		case KeyNoBroadcast:
			o.NoBroadcast, err = decodeScalar[bool](node)
		case KeyProfile:
			o.Profile, err = decodeScalar[string](node)
		case KeySleep:
			if o.Sleep, err = decodeScalar[int](node); err == nil && *o.Sleep < 0 {
				err = fmt.Errorf("must not be negative, got %d", *o.Sleep)
			}
		case KeyShell:
			o.Shell, err = decodeScalar[string](node)
		case KeyExec:
			o.Exec, err = decodeScalar[bool](node)
		case KeyColumns:
			if o.Columns, err = decodeScalar[int](node); err == nil && *o.Columns < 1 {
				err = fmt.Errorf("must be at least 1, got %d", *o.Columns)
			}
		case KeyRows:
			if o.Rows, err = decodeScalar[int](node); err == nil && *o.Rows < 1 {
				err = fmt.Errorf("must be at least 1, got %d", *o.Rows)
			}
		case KeyDirection:
			var d *string
			if d, err = decodeScalar[string](node); err == nil {
				o.Direction, err = ParseDirection(*d)
			}
		case KeyTabSplit:
			o.TabSplit, err = decodeScalar[bool](node)
		case KeyTabSplitNoGroup:
			o.TabSplitNoGroup, err = decodeScalar[bool](node)
		case KeySameWindow:
			o.SameWindow, err = decodeScalar[bool](node)
		}
		if err != nil {
			return Options{}, fmt.Errorf("option %s (line %d): %w", key, node.Line, err)
		}
	}
	return o, nil
}

func decodeScalar[T any](node *yaml.Node) (*T, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("expected a scalar value")
	}
	var v T
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ParseDirection accepts a direction in any letter case and returns its
// canonical lower-case form.
func ParseDirection(d string) (*string, error) {
	switch v := strings.ToLower(d); v {
	case DirectionColumn, DirectionRow:
		return &v, nil
	}
	return nil, fmt.Errorf("invalid direction %q: must be %q or %q", d, DirectionColumn, DirectionRow)
}
