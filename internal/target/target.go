package target

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wouterdebie/i2cssh/internal/errors"
	"github.com/wouterdebie/i2cssh/internal/options"
)

// Host represents one target endpoint and the options that apply to it
type Host struct {
	Hostname       string          // Hostname or IP address, never empty
	Login          string          // Login parsed from login@host, empty if none
	Cluster        string          // Cluster the host was taken from, empty for -m/-f/bare hosts
	ClusterOptions options.Options // Options inherited from Cluster
	Options        options.Options // Fully resolved options
	Original       string          // Original host specification string
}

// Target returns login@hostname using the resolved login, or the bare hostname.
func (h Host) Target() string {
	if login := options.StringOr(h.Options.Login, ""); login != "" {
		return login + "@" + h.Hostname
	}
	return h.Hostname
}

// ParseHostString parses a single "[login@]hostname" specification. Only the
// rightmost '@' separates the login, so "a@b@c" has login "a@b".
func ParseHostString(spec string) (Host, error) {
	s := strings.TrimSpace(spec)
	if s == "" {
		return Host{}, errors.NewInvalidHostSpec(spec, "empty host specification")
	}

	host := Host{Hostname: s, Original: spec}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		host.Login = s[:i]
		host.Hostname = s[i+1:]
	}
	if host.Hostname == "" {
		return Host{}, errors.NewInvalidHostSpec(spec, "missing hostname")
	}
	return host, nil
}

// ParseHostStrings expands and parses a list of host specifications.
// Blank entries are skipped.
func ParseHostStrings(specs []string) ([]Host, error) {
	hosts := make([]Host, 0, len(specs))
	for _, spec := range specs {
		if strings.TrimSpace(spec) == "" {
			continue
		}
		expanded, err := ExpandHostString(strings.TrimSpace(spec))
		if err != nil {
			return nil, err
		}
		for _, s := range expanded {
			host, err := ParseHostString(s)
			if err != nil {
				return nil, err
			}
			hosts = append(hosts, host)
		}
	}
	return hosts, nil
}

// SplitList splits a comma-separated list, dropping blank entries. Commas
// inside a bracket group belong to the group: "web[1,2],db" is two entries.
func SplitList(input string) []string {
	var out []string
	add := func(part string) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	depth, start := 0, 0
	for i, r := range input {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				add(input[start:i])
				start = i + 1
			}
		}
	}
	add(input[start:])
	return out
}

// ParseHostFile reads host specifications from a file (one per line).
// A filename of "-" reads from stdin.
func ParseHostFile(filename string) ([]Host, error) {
	if filename == "" {
		return nil, fmt.Errorf("filename cannot be empty")
	}
	if filename == "-" {
		return ParseReader(os.Stdin)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open host file '%s': %w", filename, err)
	}
	defer file.Close()

	return ParseReader(file)
}

// ParseReader reads host specifications from any io.Reader (one per line).
// Empty lines and lines starting with '#' are skipped.
func ParseReader(reader io.Reader) ([]Host, error) {
	scanner := bufio.NewScanner(reader)
	var specs []string
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		specs = append(specs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input at line %d: %w", lineNum, err)
	}

	return ParseHostStrings(specs)
}

// ApplyOptions returns hosts with overrides merged into each host's resolved options.
func ApplyOptions(hosts []Host, overrides options.Options) []Host {
	out := make([]Host, len(hosts))
	for i, h := range hosts {
		h.Options = options.Merge(h.Options, overrides)
		out[i] = h
	}
	return out
}
