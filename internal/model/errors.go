package model

import (
	"errors"
	"fmt"
)

var (
	ErrFsNotFound      = errors.New(`not found`)
	ErrFsAccessDenied  = errors.New(`access denied`)
	ErrFsNotADirectory = errors.New(`not a directory`)
	ErrFsNotAFile      = errors.New(`not a file`)
)

// ConfigError reports malformed configuration, theme or locale data. It is fatal
// at startup.
type ConfigError struct {
	Source string
	Err    error
}

func (err *ConfigError) Error() string {
	return fmt.Sprintf(`config: %s: %s`, err.Source, err.Err)
}

func (err *ConfigError) Unwrap() error {
	return err.Err
}

func NewConfigError(source string, format string, args ...any) error {
	return &ConfigError{Source: source, Err: fmt.Errorf(format, args...)}
}

func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}
