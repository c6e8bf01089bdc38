package nav

import (
	"errors"
	"fmt"
)

// Sentinel errors returned when a Navigator is constructed from a bad Config.
// Runtime misuse (unknown ids, calls after Destroy) is never reported as an error.
var (
	ErrNoItems       = errors.New("no navigation items")
	ErrTooManyItems  = errors.New("too many navigation items")
	ErrDuplicateItem = errors.New("duplicate navigation item")
	ErrInvalidConfig = errors.New("invalid navigation config")
)

// ConfigError names the config field that failed validation.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("navigation config: %v", e.Err)
	}
	return fmt.Sprintf("navigation config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
