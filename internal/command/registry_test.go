package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRegistry() *Registry {
	return NewRegistry("/bot", zap.NewNop())
}

func TestHandle_Ping(t *testing.T) {
	r := newTestRegistry()
	assert.Equal(t, "pong", r.Handle(ParsedCommand{Name: "ping"}))
}

func TestHandle_Unknown(t *testing.T) {
	r := newTestRegistry()
	assert.Equal(t, "Unknown command 'xyz'. Try '/bot help'.", r.Handle(ParsedCommand{Name: "xyz"}))
}

func TestHandle_Help(t *testing.T) {
	r := newTestRegistry()

	lines := strings.Split(r.Handle(ParsedCommand{Name: "help"}), "\n")
	require.Equal(t, "Available commands:", lines[0])

	names := make([]string, 0, len(lines)-1)
	seen := map[string]bool{}
	for _, line := range lines[1:] {
		require.True(t, strings.HasPrefix(line, "- /bot "), "unexpected help line %q", line)
		name := strings.TrimPrefix(line, "- /bot ")
		require.False(t, seen[name], "duplicated name %q", name)
		seen[name] = true
		names = append(names, name)
	}

	// Sorted, and covers every registered command plus help itself.
	assert.IsNonDecreasing(t, names)
	assert.Contains(t, names, "help")
	assert.Contains(t, names, "ping")
	assert.Contains(t, names, "echo")
	assert.Contains(t, names, "uptime")
}

func TestHandle_Echo(t *testing.T) {
	r := newTestRegistry()
	assert.Equal(t, "a b c", r.Handle(ParsedCommand{Name: "echo", Args: []string{"a", "b", "c"}}))
	assert.Equal(t, "Nothing to echo.", r.Handle(ParsedCommand{Name: "echo"}))
}

func TestHandle_Uptime(t *testing.T) {
	r := newTestRegistry()
	reply := r.Handle(ParsedCommand{Name: "uptime"})
	assert.True(t, strings.HasPrefix(reply, "Up for "), "got %q", reply)
}

func TestRegister_ExtendsDispatch(t *testing.T) {
	r := newTestRegistry()
	r.RegisterStatic("version", "0.1.0")

	assert.Equal(t, "0.1.0", r.Handle(ParsedCommand{Name: "version"}))
	assert.Contains(t, r.Handle(ParsedCommand{Name: "help"}), "- /bot version")
}
