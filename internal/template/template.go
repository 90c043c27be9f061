// Package template renders custom commands for a host.
package template

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// HostPlaceholder is replaced by the host's login@hostname in custom commands.
const HostPlaceholder = "{host}"

// Context provides data available in templates
type Context struct {
	Host     string `json:"host"`     // login@hostname, or hostname without a login
	Hostname string `json:"hostname"` // Bare hostname
	Login    string `json:"login"`    // Resolved login, may be empty
	Cluster  string `json:"cluster"`  // Cluster the host came from, may be empty
	Index    int    `json:"index"`    // Position of the host in its group
}

// Engine renders custom commands. Parsed templates are cached by source,
// since every host of a group usually shares the same command.
type Engine struct {
	templates map[string]*template.Template
}

// NewEngine creates a new template engine
func NewEngine() *Engine {
	return &Engine{
		templates: make(map[string]*template.Template),
	}
}

// Render replaces the {host} placeholder in command. Nothing else is
// interpreted, so braces meant for the remote side pass through untouched.
func (e *Engine) Render(command string, ctx Context) string {
	return strings.ReplaceAll(command, HostPlaceholder, ctx.Host)
}

// Execute runs command as a Go template with ctx, then replaces {host}.
func (e *Engine) Execute(command string, ctx Context) (string, error) {
	tmpl, err := e.parse(command)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("failed to execute custom command template: %w", err)
	}
	return e.Render(buf.String(), ctx), nil
}

func (e *Engine) parse(command string) (*template.Template, error) {
	if tmpl, ok := e.templates[command]; ok {
		return tmpl, nil
	}
	tmpl, err := template.New("custom_command").Funcs(templateFuncs()).Option("missingkey=error").Parse(command)
	if err != nil {
		return nil, fmt.Errorf("failed to parse custom command template: %w", err)
	}
	e.templates[command] = tmpl
	return tmpl, nil
}

// templateFuncs returns custom template functions
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		// String functions
		"upper":     strings.ToUpper,
		"lower":     strings.ToLower,
		"title":     cases.Title(language.English).String,
		"trim":      strings.TrimSpace,
		"replace":   strings.ReplaceAll,
		"contains":  strings.Contains,
		"hasPrefix": strings.HasPrefix,
		"hasSuffix": strings.HasSuffix,

		"default": func(def, value string) string {
			if value == "" {
				return def
			}
			return value
		},

		// Host functions
		"hostShort": func(host string) string {
			if idx := strings.Index(host, "."); idx != -1 {
				return host[:idx]
			}
			return host
		},

		"hostDomain": func(host string) string {
			if idx := strings.Index(host, "."); idx != -1 {
				return host[idx+1:]
			}
			return ""
		},
	}
}

// Validate parses a templated custom command without executing it
func Validate(command string) error {
	_, err := template.New("validation").Funcs(templateFuncs()).Parse(command)
	return err
}
