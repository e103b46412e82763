// Package config abstracts configuration access behind a typed getter
// interface so callers never touch the underlying provider directly.
package config

import (
	"io"
	"time"
)

// TimeConfig defines helpers for retrieving duration configuration values.
// Values are stored as plain integers and interpreted in the unit named by
// the method.
type TimeConfig interface {
	// GetSecond retrieves the value associated with key as seconds.
	GetSecond(key string) time.Duration

	// GetMinute retrieves the value associated with key as minutes.
	GetMinute(key string) time.Duration

	// GetHour retrieves the value associated with key as hours.
	GetHour(key string) time.Duration

	// GetDay retrieves the value associated with key as days (24h).
	GetDay(key string) time.Duration
}

// Config defines a set of methods for retrieving configuration values of
// various types. Implementations should return the zero value when a key is
// missing or cannot be converted.
type Config interface {
	io.Closer
	TimeConfig

	// GetBool retrieves the value associated with key as a bool.
	GetBool(key string) bool

	// GetInt retrieves the value associated with key as an int.
	GetInt(key string) int

	// GetInt64 retrieves the value associated with key as an int64.
	GetInt64(key string) int64

	// GetUint retrieves the value associated with key as a uint.
	GetUint(key string) uint

	// GetFloat64 retrieves the value associated with key as a float64.
	GetFloat64(key string) float64

	// GetString retrieves the value associated with key as a string.
	GetString(key string) string

	// GetBinary retrieves the value associated with key as a byte slice.
	// Configuration value is stored as base64 encoded.
	GetBinary(key string) []byte

	// GetArray retrieves the value associated with key as a slice of strings.
	// Configuration value is stored with format <element1>,<element2>,...
	GetArray(key string) []string

	// GetMap retrieves the value associated with key as a map of strings to
	// strings. Configuration value is stored with format
	// <key1>:<value1>,<key2>:<value2>,...
	GetMap(key string) map[string]string
}
