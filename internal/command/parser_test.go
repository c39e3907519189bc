package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Command(t *testing.T) {
	p := NewParser("/bot")

	parsed, ok := p.Parse("/bot -cmd a b")
	require.True(t, ok)
	require.True(t, parsed.IsCommand())
	assert.Equal(t, "cmd", parsed.Command.Name)
	assert.Equal(t, []string{"a", "b"}, parsed.Command.Args)
}

func TestParse_CommandNameIsLowercased(t *testing.T) {
	p := NewParser("/bot")

	parsed, ok := p.Parse("/bot -PING")
	require.True(t, ok)
	require.True(t, parsed.IsCommand())
	assert.Equal(t, "ping", parsed.Command.Name)
	assert.Empty(t, parsed.Command.Args)
}

func TestParse_Query(t *testing.T) {
	p := NewParser("/bot")

	parsed, ok := p.Parse("/bot hola")
	require.True(t, ok)
	assert.False(t, parsed.IsCommand())
	assert.Equal(t, "hola", parsed.Query)
}

func TestParse_QueryKeepsFullPayload(t *testing.T) {
	p := NewParser("/bot")

	parsed, ok := p.Parse("/bot   what is the weather today  ")
	require.True(t, ok)
	assert.Equal(t, "what is the weather today", parsed.Query)
}

func TestParse_NotAddressed(t *testing.T) {
	p := NewParser("/bot")

	for _, text := range []string{"hello", "", "bot -ping", " /bot -ping"} {
		_, ok := p.Parse(text)
		assert.False(t, ok, "input %q should not address the bot", text)
	}
}

func TestParse_PrefixOnly(t *testing.T) {
	p := NewParser("/bot")

	_, ok := p.Parse("/bot")
	assert.False(t, ok)

	_, ok = p.Parse("/bot   ")
	assert.False(t, ok)
}

func TestNewParser_EmptyPrefixPanics(t *testing.T) {
	assert.Panics(t, func() { NewParser("") })
}
