// Package config provides typed configuration values backed by swappable
// sources, such as environment variables or in memory overrides for tests.
package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoValue indicates the source has no value set
	ErrNoValue = errors.New("config: no value set")

	// ErrShutdown indicates the source was used after Shutdown
	ErrShutdown = errors.New("config: shutdown")
)

// Config is an untyped configuration source.
type Config interface {
	// Get returns the latest raw value, or ErrNoValue
	Get(ctx context.Context) (interface{}, error)

	// Shutdown releases any resources held by the source
	Shutdown()
}

// Value is a configuration source converted to T.
//
// Get never fails: it falls back to the last observed value, or the default
// when nothing has been observed. GetSafe surfaces source and conversion
// errors alongside that fallback.
type Value[T any] interface {
	Get(ctx context.Context) T
	GetSafe(ctx context.Context) (T, error)
	Shutdown()
}

type (
	Bool     = Value[bool]
	Duration = Value[time.Duration]
	Uint64   = Value[uint64]
	String   = Value[string]
)
