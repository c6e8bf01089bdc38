// Package config loads the sitenav configuration from a YAML file with
// SITENAV_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ensigniasec/sitenav/internal/nav"
	"github.com/ensigniasec/sitenav/internal/validate"
)

// EnvPrefix prefixes environment overrides. Nested keys are separated by a
// double underscore: SITENAV_ARBITER__LONG_GRACE=1s.
const EnvPrefix = "SITENAV_"

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = ".sitenav.yml"

// ErrInvalid wraps every validation failure returned by Load and Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config is the top-level sitenav configuration, corresponding to .sitenav.yml.
type Config struct {
	Navigation NavigationConfig `yaml:"navigation" koanf:"navigation"`
	Classifier ClassifierConfig `yaml:"classifier" koanf:"classifier"`
	Arbiter    ArbiterConfig    `yaml:"arbiter" koanf:"arbiter"`
	Content    ContentConfig    `yaml:"content" koanf:"content"`
	Storage    StorageConfig    `yaml:"storage" koanf:"storage"`
	TUI        TUIConfig        `yaml:"tui" koanf:"tui"`
}

// NavigationConfig configures the menu. Items may be left empty, in which
// case every page uses its own headings.
type NavigationConfig struct {
	Items             []nav.Item    `yaml:"items,omitempty" koanf:"items" validate:"max=10,dive"`
	AnimationDuration time.Duration `yaml:"animation_duration" koanf:"animation_duration" validate:"gte=0s"`
	AutoClose         bool          `yaml:"auto_close" koanf:"auto_close"`
	AutoCloseDelay    time.Duration `yaml:"auto_close_delay" koanf:"auto_close_delay" validate:"gte=0s"`
	Keyboard          bool          `yaml:"keyboard" koanf:"keyboard"`
	Touch             bool          `yaml:"touch" koanf:"touch"`
	Radius            int           `yaml:"radius" koanf:"radius" validate:"gte=0"`
	ItemSize          int           `yaml:"item_size" koanf:"item_size" validate:"gte=0"`
}

// ClassifierConfig selects the active-section strategy.
type ClassifierConfig struct {
	Strategy nav.Strategy `yaml:"strategy" koanf:"strategy" validate:"oneof=coverage intersection"`
}

// ArbiterConfig tunes how long programmatic scrolls suppress the classifier.
type ArbiterConfig struct {
	ShortGrace time.Duration `yaml:"short_grace" koanf:"short_grace" validate:"gte=0s"`
	LongGrace  time.Duration `yaml:"long_grace" koanf:"long_grace" validate:"gtefield=ShortGrace"`
	NoiseFloor float64       `yaml:"noise_floor" koanf:"noise_floor" validate:"gte=0"`
}

// ContentConfig locates the site and filters its pages with doublestar globs.
type ContentConfig struct {
	Root    string   `yaml:"root" koanf:"root"`
	Include []string `yaml:"include,omitempty" koanf:"include"`
	Exclude []string `yaml:"exclude,omitempty" koanf:"exclude"`
}

// StorageConfig locates the remembered-state file.
type StorageConfig struct {
	// Path of the state file; empty uses the per-user default.
	Path string `yaml:"path,omitempty" koanf:"path"`
}

// TUIConfig tunes the previewer frame rate and scroll spring.
type TUIConfig struct {
	FrameInterval   time.Duration `yaml:"frame_interval" koanf:"frame_interval" validate:"gt=0s"`
	ScrollFrequency float64       `yaml:"scroll_frequency" koanf:"scroll_frequency" validate:"gt=0"`
	ScrollDamping   float64       `yaml:"scroll_damping" koanf:"scroll_damping" validate:"gt=0"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Navigation: NavigationConfig{
			AnimationDuration: nav.DefaultAnimationDuration,
			AutoCloseDelay:    nav.DefaultAutoCloseDelay,
			Keyboard:          true,
			Touch:             true,
			Radius:            nav.DefaultRadius,
			ItemSize:          nav.DefaultItemSize,
		},
		Classifier: ClassifierConfig{Strategy: nav.StrategyCoverage},
		Arbiter: ArbiterConfig{
			ShortGrace: nav.DefaultShortGrace,
			LongGrace:  nav.DefaultLongGrace,
			NoiseFloor: nav.DefaultNoiseFloor,
		},
		Content: ContentConfig{Root: "."},
		TUI: TUIConfig{
			FrameInterval:   16 * time.Millisecond,
			ScrollFrequency: 6.0,
			ScrollDamping:   1.0,
		},
	}
}

// envKey maps SITENAV_ARBITER__LONG_GRACE to arbiter.long_grace.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if field, tag, ok := validate.FirstFailure(err); ok {
			return fmt.Errorf("%w: %s failed %q", ErrInvalid, field, tag)
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := validate.Var(c.Content.Include, "dive,required"); err != nil {
		return fmt.Errorf("%w: empty include pattern", ErrInvalid)
	}
	if len(c.Navigation.Items) > 0 {
		if err := c.NavConfig(nil).Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	return nil
}

// NavConfig builds the navigator configuration for items. Configured items,
// when present, take precedence over the page-derived ones.
func (c *Config) NavConfig(items []nav.Item) nav.Config {
	if len(c.Navigation.Items) > 0 {
		items = c.Navigation.Items
	}
	return nav.Config{
		Items:             items,
		AnimationDuration: c.Navigation.AnimationDuration,
		AutoClose:         c.Navigation.AutoClose,
		AutoCloseDelay:    c.Navigation.AutoCloseDelay,
		Keyboard:          c.Navigation.Keyboard,
		Touch:             c.Navigation.Touch,
		Radius:            c.Navigation.Radius,
		ItemSize:          c.Navigation.ItemSize,
		Strategy:          c.Classifier.Strategy,
		ShortGrace:        c.Arbiter.ShortGrace,
		LongGrace:         c.Arbiter.LongGrace,
		NoiseFloor:        c.Arbiter.NoiseFloor,
	}
}
