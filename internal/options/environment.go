package options

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvVar is one variable exported before ssh and forwarded with SendEnv.
type EnvVar struct {
	Key   string
	Value string
}

// Environment is an ordered set of variables. Order is the order in which
// they were written on the command line or in the config file.
type Environment []EnvVar

// ParseEnvironment parses "KEY=VAL,KEY2=VAL2".
func ParseEnvironment(s string) (Environment, error) {
	var env Environment
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid environment entry %q: expected KEY=VALUE", part)
		}
		env = env.Set(key, value)
	}
	return env, nil
}

// Set returns env with key set to value. An existing key keeps its position.
func (env Environment) Set(key, value string) Environment {
	for i := range env {
		if env[i].Key == key {
			out := env.Clone()
			out[i].Value = value
			return out
		}
	}
	return append(env.Clone(), EnvVar{Key: key, Value: value})
}

// Clone returns a copy of env.
func (env Environment) Clone() Environment {
	if env == nil {
		return nil
	}
	return append(Environment(nil), env...)
}

// Keys returns the variable names in order.
func (env Environment) Keys() []string {
	keys := make([]string, len(env))
	for i, v := range env {
		keys[i] = v.Key
	}
	return keys
}

// UnmarshalYAML accepts a "K=V,K2=V2" string or a mapping.
func (env *Environment) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*env = nil
			return nil
		}
		parsed, err := ParseEnvironment(node.Value)
		if err != nil {
			return fmt.Errorf("environment (line %d): %w", node.Line, err)
		}
		*env = parsed
	case yaml.MappingNode:
		var out Environment
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return fmt.Errorf("environment: value of %q must be a scalar (line %d)", k.Value, v.Line)
			}
			out = out.Set(k.Value, v.Value)
		}
		*env = out
	default:
		return fmt.Errorf("environment: expected a string or mapping (line %d)", node.Line)
	}
	return nil
}
