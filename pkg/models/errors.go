package models

import (
	"errors"
	"fmt"
)

var errNoBackend = errors.New("no storage backend attached")

// IoError reports a file that could not be opened or read
type IoError struct {
	Path string
	Op   string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}

// SchemaError reports a table that lacks a configured key column
type SchemaError struct {
	Path   string
	Column string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("key column %q not found", e.Column)
	}
	return fmt.Sprintf("key column %q not found in %s", e.Column, e.Path)
}

// ResourceLimitError reports an input larger than a configured limit
type ResourceLimitError struct {
	Path  string
	Limit string
	Size  int64
	Max   int64
}

func (e *ResourceLimitError) Error() string {
	return fmt.Sprintf("%s: size %d exceeds %s (%d)", e.Path, e.Size, e.Limit, e.Max)
}

// ConfigError reports an invalid option or option combination
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

// ParseError reports a table that could not be decoded
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err wraps a ConfigError
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
