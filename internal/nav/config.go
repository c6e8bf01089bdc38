package nav

import (
	"fmt"
	"time"

	"github.com/ensigniasec/sitenav/internal/validate"
)

// Defaults for the timing knobs of the navigation core.
const (
	DefaultAnimationDuration = 300 * time.Millisecond
	DefaultAutoCloseDelay    = 2 * time.Second
	DefaultShortGrace        = 150 * time.Millisecond
	DefaultLongGrace         = 800 * time.Millisecond
	DefaultNoiseFloor        = 2.0
	DefaultRadius            = 120
	DefaultItemSize          = 48
)

// Config is supplied once at construction and never mutated afterwards.
type Config struct {
	Items []Item `validate:"required,min=1,max=10,dive"`

	AnimationDuration time.Duration `validate:"gte=0s"`
	AutoClose         bool
	AutoCloseDelay    time.Duration `validate:"gte=0s"`

	// Feature flags.
	Keyboard bool
	Touch    bool

	// Layout constants for radial renderers; the core only carries them.
	Radius   int `validate:"gte=0"`
	ItemSize int `validate:"gte=0"`

	Strategy Strategy `validate:"oneof=coverage intersection"`

	ShortGrace time.Duration `validate:"gte=0s"`
	LongGrace  time.Duration `validate:"gtefield=ShortGrace"`
	NoiseFloor float64       `validate:"gte=0"`
}

// DefaultConfig returns a Config for items with every knob at its default.
func DefaultConfig(items []Item) Config {
	return Config{
		Items:             items,
		AnimationDuration: DefaultAnimationDuration,
		AutoClose:         false,
		AutoCloseDelay:    DefaultAutoCloseDelay,
		Keyboard:          true,
		Touch:             true,
		Radius:            DefaultRadius,
		ItemSize:          DefaultItemSize,
		Strategy:          StrategyCoverage,
		ShortGrace:        DefaultShortGrace,
		LongGrace:         DefaultLongGrace,
		NoiseFloor:        DefaultNoiseFloor,
	}
}

// Validate checks the config. Item-set errors wrap ErrNoItems, ErrTooManyItems
// or ErrDuplicateItem; any other failure wraps ErrInvalidConfig.
func (c Config) Validate() error {
	if _, err := newItemSet(c.Items); err != nil {
		return err
	}
	if err := validate.Struct(c); err != nil {
		field, tag, ok := validate.FirstFailure(err)
		if !ok {
			return &ConfigError{Err: fmt.Errorf("%w: %v", ErrInvalidConfig, err)}
		}
		return &ConfigError{Field: field, Err: fmt.Errorf("%w: failed %q", ErrInvalidConfig, tag)}
	}
	return nil
}

// clone returns a deep copy so callers can't reach the navigator's items.
func (c Config) clone() Config {
	out := c
	out.Items = make([]Item, len(c.Items))
	copy(out.Items, c.Items)
	return out
}
