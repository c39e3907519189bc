package selectors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefault_IsComplete(t *testing.T) {
	m := Default()
	require.NoError(t, m.validate())
	assert.Len(t, m.UnreadRow, 2)
	assert.NotEmpty(t, m.ConversationContainers)
	assert.NotEmpty(t, m.TextVariants)
}

func TestUnreadRowSelector_JoinsLocaleVariants(t *testing.T) {
	m := &Mapping{UnreadRow: []string{"a", "b"}}
	assert.Equal(t, "a, b", m.UnreadRowSelector())
}

func TestLoad_OverridesOnTopOfDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	err := os.WriteFile(path, []byte("input_box: \"div.new-input\"\nunread_row:\n  - \"div.badge\"\n"), 0o644)
	require.NoError(t, err)

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "div.new-input", m.InputBox)
	assert.Equal(t, []string{"div.badge"}, m.UnreadRow)
	// Untouched fields keep their defaults.
	assert.Equal(t, Default().Bubble, m.Bubble)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input_box: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestStore_DefaultsWithoutPath(t *testing.T) {
	s, err := NewStore("", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Default().InputBox, s.Current().InputBox)
}

func TestStore_ReloadSwapsMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input_box: \"div.v1\"\n"), 0o644))

	s, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, "div.v1", s.Current().InputBox)

	require.NoError(t, os.WriteFile(path, []byte("input_box: \"div.v2\"\n"), 0o644))
	s.reload()
	assert.Equal(t, "div.v2", s.Current().InputBox)
}

func TestStore_ReloadKeepsPreviousOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input_box: \"div.v1\"\n"), 0o644))

	s, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(":::"), 0o644))
	s.reload()
	assert.Equal(t, "div.v1", s.Current().InputBox)
}
