package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil is success", err: nil, want: 0},
		{name: "multiplexer", err: NewMultiplexerError("split failed", fmt.Errorf("boom")), want: 1},
		{name: "setup", err: NewSetupError("bad flag", nil), want: 2},
		{name: "no hosts", err: NewNoHostsFound(), want: 3},
		{name: "unknown cluster", err: NewUnknownCluster("foo"), want: 4},
		{name: "no active window", err: NewNoActiveWindow(nil), want: 5},
		{name: "config parse", err: NewConfigParseError("/tmp/rc", fmt.Errorf("yaml")), want: 6},
		{name: "invalid host", err: NewInvalidHostSpec("", "empty"), want: 7},
		{name: "wrapped classification survives", err: fmt.Errorf("resolving: %w", NewUnknownCluster("bar")), want: 4},
		{name: "plain error treated as setup", err: fmt.Errorf("plain"), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitCodesAreDistinct(t *testing.T) {
	seen := map[int]ErrorType{}
	for _, et := range []ErrorType{
		SetupErrorType, InvalidHostSpecType, UnknownClusterType, NoHostsFoundType,
		ConfigParseType, NoActiveWindowType, MultiplexerType,
	} {
		code := et.ExitCode()
		if code == 0 {
			t.Errorf("%s maps to success", et)
		}
		if prev, ok := seen[code]; ok {
			t.Errorf("%s and %s share exit code %d", prev, et, code)
		}
		seen[code] = et
	}
}

func TestIsMatchesSentinels(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewUnknownCluster("foo"))

	if !stderrors.Is(err, ErrUnknownCluster) {
		t.Error("errors.Is(err, ErrUnknownCluster) = false, want true")
	}
	if stderrors.Is(err, ErrNoHostsFound) {
		t.Error("errors.Is(err, ErrNoHostsFound) = true, want false")
	}
}

func TestErrorMessage(t *testing.T) {
	if got := NewNoHostsFound().Error(); got != "No hosts found" {
		t.Errorf("Error() = %q, want %q", got, "No hosts found")
	}

	err := NewConfigParseError("/home/me/.i2csshrc", fmt.Errorf("line 3: bad indent"))
	want := "failed to parse config file /home/me/.i2csshrc: line 3: bad indent"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
