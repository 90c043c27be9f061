package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/wouterdebie/i2cssh/internal/errors"
	"github.com/wouterdebie/i2cssh/internal/options"
)

// Keys of a cluster block that are not host options.
const (
	keyClusters    = "clusters"
	keyHosts       = "hosts"
	keyIncludeFrom = "include_from"
)

// File is the typed content of the rc file.
type File struct {
	Path     string
	Global   options.Options
	Clusters map[string]Cluster

	// Dropped lists keys that were ignored because they are not recognized,
	// as "key" for top-level keys and "clusters.name.key" for cluster keys.
	Dropped []string
}

// Cluster is a named host list with option overrides.
type Cluster struct {
	Name        string
	Hosts       []string
	IncludeFrom []string
	Options     options.Options
}

// Empty returns a File without clusters or global options.
func Empty() *File {
	return &File{Clusters: map[string]Cluster{}}
}

// LoadFile reads and parses the rc file at path. A missing file yields an
// empty config; anything unreadable or malformed is a ConfigParse error.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			f := Empty()
			f.Path = path
			return f, nil
		}
		return nil, errors.NewConfigParseError(path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, errors.NewConfigParseError(path, err)
	}
	f.Path = path
	return f, nil
}

// Parse decodes rc file content.
func Parse(data []byte) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	f := Empty()
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return f, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return f, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: top level must be a mapping", root.Line)
	}

	top, err := mappingFields(root)
	if err != nil {
		return nil, err
	}

	if node, ok := top[keyClusters]; ok {
		if err := f.parseClusters(node); err != nil {
			return nil, err
		}
	}

	global := options.FilterValidOptions(top, options.Recognized())
	f.Dropped = append(f.Dropped, droppedKeys(top, global, "", keyClusters)...)
	if f.Global, err = options.FromNodes(global); err != nil {
		return nil, err
	}

	sort.Strings(f.Dropped)
	return f, nil
}

func (f *File) parseClusters(node *yaml.Node) error {
	if node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: clusters must be a mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		block := node.Content[i+1]
		if block.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: cluster %q must be a mapping", block.Line, name)
		}

		fields, err := mappingFields(block)
		if err != nil {
			return fmt.Errorf("cluster %q: %w", name, err)
		}

		c := Cluster{Name: name}
		if n, ok := fields[keyHosts]; ok && n.Tag != "!!null" {
			if err := n.Decode(&c.Hosts); err != nil {
				return fmt.Errorf("cluster %q: hosts: %w", name, err)
			}
		}
		if n, ok := fields[keyIncludeFrom]; ok && n.Tag != "!!null" {
			if err := n.Decode(&c.IncludeFrom); err != nil {
				return fmt.Errorf("cluster %q: include_from: %w", name, err)
			}
		}

		valid := options.FilterValidOptions(fields, options.Recognized())
		f.Dropped = append(f.Dropped, droppedKeys(fields, valid, "clusters."+name+".", keyHosts, keyIncludeFrom)...)
		if c.Options, err = options.FromNodes(valid); err != nil {
			return fmt.Errorf("cluster %q: %w", name, err)
		}
		f.Clusters[name] = c
	}
	return nil
}

// ClusterNames returns the configured cluster names in sorted order.
func (f *File) ClusterNames() []string {
	names := make([]string, 0, len(f.Clusters))
	for name := range f.Clusters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func mappingFields(node *yaml.Node) (map[string]*yaml.Node, error) {
	fields := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
		}
		fields[key.Value] = node.Content[i+1]
	}
	return fields, nil
}

func droppedKeys(all, kept map[string]*yaml.Node, prefix string, structural ...string) []string {
	skip := make(map[string]bool, len(structural))
	for _, k := range structural {
		skip[k] = true
	}
	var dropped []string
	for k := range all {
		if _, ok := kept[k]; !ok && !skip[k] {
			dropped = append(dropped, prefix+k)
		}
	}
	return dropped
}
