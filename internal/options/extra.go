package options

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExtraKind tags which representation an Extra value came in.
type ExtraKind int

const (
	// ExtraList is a list of raw "key=value" or bare "flag" tokens.
	ExtraList ExtraKind = iota
	// ExtraMapping is an ordered key → value mapping.
	ExtraMapping
)

// Extra holds additional ssh parameters, either as raw tokens
// (-X i=id.pem -X v) or as a config mapping ({i: id.pem, p: 2222}).
type Extra struct {
	Kind    ExtraKind
	Tokens  []string
	Mapping []Flag
}

// Flag is one normalized ssh parameter. Bare flags have HasValue false.
type Flag struct {
	Name     string
	Value    string
	HasValue bool
}

// String renders the flag the way it is passed to ssh.
func (f Flag) String() string {
	if f.HasValue {
		return fmt.Sprintf("-%s %s", f.Name, f.Value)
	}
	return "-" + f.Name
}

// ExtraFromTokens builds a list-kind Extra.
func ExtraFromTokens(tokens ...string) Extra {
	return Extra{Kind: ExtraList, Tokens: append([]string(nil), tokens...)}
}

// ExtraFromMapping builds a mapping-kind Extra.
func ExtraFromMapping(flags ...Flag) Extra {
	return Extra{Kind: ExtraMapping, Mapping: append([]Flag(nil), flags...)}
}

// IsEmpty reports whether e is unset or carries no parameters.
func (e *Extra) IsEmpty() bool {
	if e == nil {
		return true
	}
	return len(e.Tokens) == 0 && len(e.Mapping) == 0
}

// Clone returns a deep copy.
func (e *Extra) Clone() Extra {
	return Extra{
		Kind:    e.Kind,
		Tokens:  append([]string(nil), e.Tokens...),
		Mapping: append([]Flag(nil), e.Mapping...),
	}
}

// Flags normalizes both representations into an ordered flag list.
func (e *Extra) Flags() []Flag {
	if e == nil {
		return nil
	}
	if e.Kind == ExtraMapping {
		return append([]Flag(nil), e.Mapping...)
	}
	flags := make([]Flag, 0, len(e.Tokens))
	for _, tok := range e.Tokens {
		if name, value, ok := strings.Cut(tok, "="); ok {
			flags = append(flags, Flag{Name: name, Value: value, HasValue: true})
			continue
		}
		flags = append(flags, Flag{Name: tok})
	}
	return flags
}

// UnmarshalYAML accepts a sequence of tokens or a mapping.
func (e *Extra) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var tokens []string
		if err := node.Decode(&tokens); err != nil {
			return fmt.Errorf("extra: %w", err)
		}
		*e = ExtraFromTokens(tokens...)
	case yaml.MappingNode:
		flags := make([]Flag, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return fmt.Errorf("extra: value of %q must be a scalar (line %d)", k.Value, v.Line)
			}
			flag := Flag{Name: k.Value, Value: v.Value, HasValue: v.Tag != "!!null"}
			flags = append(flags, flag)
		}
		*e = ExtraFromMapping(flags...)
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*e = Extra{}
			return nil
		}
		*e = ExtraFromTokens(node.Value)
	default:
		return fmt.Errorf("extra: expected a list or mapping (line %d)", node.Line)
	}
	return nil
}
