package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensigniasec/sitenav/internal/nav"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".sitenav.yml")
	body := `navigation:
  auto_close: true
  auto_close_delay: 3s
  items:
    - id: intro
      label: Intro
      href: "#intro"
      position: 0
    - id: repo
      label: Source
      href: https://github.com/example/site
      position: 1
classifier:
  strategy: intersection
arbiter:
  long_grace: 1s
content:
  exclude: ["drafts/**"]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Navigation.AutoClose)
	assert.Equal(t, 3*time.Second, cfg.Navigation.AutoCloseDelay)
	assert.Equal(t, nav.StrategyIntersection, cfg.Classifier.Strategy)
	assert.Equal(t, time.Second, cfg.Arbiter.LongGrace)
	assert.Equal(t, nav.DefaultShortGrace, cfg.Arbiter.ShortGrace, "unset keys keep defaults")
	assert.Equal(t, []string{"drafts/**"}, cfg.Content.Exclude)
	require.Len(t, cfg.Navigation.Items, 2)
	assert.Equal(t, nav.LinkExternal, cfg.Navigation.Items[1].Kind())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SITENAV_CLASSIFIER__STRATEGY", "intersection")
	t.Setenv("SITENAV_ARBITER__SHORT_GRACE", "200ms")
	t.Setenv("SITENAV_NAVIGATION__KEYBOARD", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, nav.StrategyIntersection, cfg.Classifier.Strategy)
	assert.Equal(t, 200*time.Millisecond, cfg.Arbiter.ShortGrace)
	assert.False(t, cfg.Navigation.Keyboard)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("classifier:\n  strategy: hybrid\n"), 0o600))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "grace order", mutate: func(c *Config) { c.Arbiter.LongGrace = time.Millisecond }, wantErr: ErrInvalid},
		{name: "zero frame interval", mutate: func(c *Config) { c.TUI.FrameInterval = 0 }, wantErr: ErrInvalid},
		{name: "empty include", mutate: func(c *Config) { c.Content.Include = []string{""} }, wantErr: ErrInvalid},
		{
			name: "duplicate items",
			mutate: func(c *Config) {
				c.Navigation.Items = []nav.Item{
					{ID: "a", Label: "A", Href: "#a"},
					{ID: "a", Label: "B", Href: "#b", Position: 1},
				}
			},
			wantErr: nav.ErrDuplicateItem,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".sitenav.yml")
	cfg := DefaultConfig()
	cfg.Navigation.AutoClose = true
	cfg.Arbiter.LongGrace = 1200 * time.Millisecond

	require.NoError(t, cfg.Save(path))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestNavConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	pageItems := []nav.Item{{ID: "top", Label: "Top", Href: "#top"}}

	nc := cfg.NavConfig(pageItems)
	assert.Equal(t, pageItems, nc.Items)
	assert.Equal(t, nav.DefaultConfig(pageItems), nc)

	cfg.Navigation.Items = []nav.Item{{ID: "x", Label: "X", Href: "#x"}}
	assert.Equal(t, []nav.ItemID{"x"}, itemIDs(cfg.NavConfig(pageItems).Items))
}

func itemIDs(items []nav.Item) []nav.ItemID {
	out := make([]nav.ItemID, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
