//nolint:testpackage // White-box tests require access to unexported identifiers in this package.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensigniasec/sitenav/internal/nav"
)

func TestStorage_NewStorageMissingFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := NewStorage(path)
	require.NoError(t, err)
	assert.Empty(t, s.PageNames())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "NewStorage does not create the file")
}

func TestStorage_LegacyFieldsDropped(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state.json")
	body := `{"host_id":"00000000-0000-4000-8000-000000000000","pages":{"a.md":{"active_item":"intro"}}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	s, err := NewStorage(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md"}, s.PageNames())
	require.NoError(t, s.Save())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.NotContains(t, raw, "host_id")
	assert.Contains(t, raw, "pages")
}

func TestStorage_RememberAndReload(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	s, err := NewOrExistingStorage(path)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err, "created on first use")

	s.Remember("docs/index.md", nav.State{ActiveItem: "about", KeyboardMode: true}, at)
	s.Remember("blog.md", nav.State{ActiveItem: "top"}, at)
	require.NoError(t, s.Save())

	s2, err := NewOrExistingStorage(path)
	require.NoError(t, err)
	st, ok := s2.Page("docs/index.md")
	require.True(t, ok)
	assert.Equal(t, PageState{ActiveItem: "about", KeyboardMode: true, UpdatedAt: at}, st)
	assert.Equal(t, []string{"blog.md", "docs/index.md"}, s2.PageNames())

	s2.Remember("blog.md", nav.State{}, at)
	_, ok = s2.Page("blog.md")
	assert.False(t, ok)
}

func TestStorage_InvalidPageDropped(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state.json")
	body := `{"pages":{"a.md":{"active_item":""},"b.md":{"active_item":"intro"}}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	s, err := NewStorage(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.md"}, s.PageNames())

	// The healed file was written back.
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"a.md"`)
}

func TestStorage_Reset(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := NewStorage(path)
	require.NoError(t, err)
	s.Remember("a.md", nav.State{ActiveItem: "x"}, time.Now())

	require.NoError(t, s.Reset())
	s2, err := NewStorage(path)
	require.NoError(t, err)
	assert.Empty(t, s2.PageNames())
}

func TestStorage_CorruptFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	_, err := NewStorage(path)
	require.Error(t, err)
}

func TestExpandTilde(t *testing.T) {
	t.Parallel()
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandTilde("~/x/state.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x", "state.json"), got)

	got, err = expandTilde("/abs/state.json")
	require.NoError(t, err)
	assert.Equal(t, "/abs/state.json", got)
}
