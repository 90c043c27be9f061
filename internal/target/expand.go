package target

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wouterdebie/i2cssh/internal/errors"
)

// MaxExpandedHosts bounds how many hosts one specification may expand to.
const MaxExpandedHosts = 10000

// ExpandHostString expands the first bracket group of spec and recurses on
// the results, so "web[1..3]" yields web1 web2 web3 and "[db,app][1..2]"
// yields db1 db2 app1 app2. A bracket group holds either a range "a..b"
// (numeric or single characters) or a comma-separated list.
func ExpandHostString(spec string) ([]string, error) {
	open := strings.Index(spec, "[")
	if open < 0 {
		return []string{spec}, nil
	}
	end := strings.Index(spec[open:], "]")
	if end < 0 {
		return nil, errors.NewInvalidHostSpec(spec, "unterminated '['")
	}
	end += open

	values, err := expandGroup(spec[open+1 : end])
	if err != nil {
		return nil, errors.NewInvalidHostSpec(spec, err.Error())
	}

	var out []string
	for _, v := range values {
		expanded, err := ExpandHostString(spec[:open] + v + spec[end+1:])
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
		if len(out) > MaxExpandedHosts {
			return nil, errors.NewInvalidHostSpec(spec, fmt.Sprintf("expands to more than %d hosts", MaxExpandedHosts))
		}
	}
	return out, nil
}

func expandGroup(body string) ([]string, error) {
	if from, to, ok := strings.Cut(body, ".."); ok {
		return expandRange(from, to)
	}
	var values []string
	for _, v := range strings.Split(body, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("empty bracket group")
	}
	return values, nil
}

func expandRange(from, to string) ([]string, error) {
	if lo, err := strconv.Atoi(from); err == nil {
		hi, err := strconv.Atoi(to)
		if err != nil {
			return nil, fmt.Errorf("range %s..%s mixes numbers and letters", from, to)
		}
		if lo < 0 {
			return nil, fmt.Errorf("range %s..%s has a negative bound", from, to)
		}
		if hi < lo {
			return nil, fmt.Errorf("range %s..%s is descending", from, to)
		}
		if hi-lo >= MaxExpandedHosts {
			return nil, fmt.Errorf("range %s..%s expands to more than %d hosts", from, to, MaxExpandedHosts)
		}
		width := 0
		if len(from) > 1 && from[0] == '0' {
			width = len(from)
		}
		values := make([]string, 0, hi-lo+1)
		for n := lo; n <= hi; n++ {
			values = append(values, fmt.Sprintf("%0*d", width, n))
		}
		return values, nil
	}

	if len(from) != 1 || len(to) != 1 {
		return nil, fmt.Errorf("range %s..%s must be numeric or single characters", from, to)
	}
	if to[0] < from[0] {
		return nil, fmt.Errorf("range %s..%s is descending", from, to)
	}
	var values []string
	for c := from[0]; c <= to[0]; c++ {
		values = append(values, string(c))
		if c == 255 {
			break
		}
	}
	return values, nil
}
