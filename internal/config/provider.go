// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/bundlesync/bundlesync/pkg/types"
)

// ErrInvalidLoadOptions is returned when LoadOptions holds unusable paths.
var ErrInvalidLoadOptions = errors.New("invalid load options")

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath types.FilesystemPath
	// Dir is searched for bundlesync.{cue,json,toml} when ConfigFilePath is
	// empty. The zero value means the current directory.
	Dir types.FilesystemPath
}

// Validate rejects whitespace-only paths. Empty paths are allowed.
func (o LoadOptions) Validate() error {
	fields := []struct {
		name string
		path types.FilesystemPath
	}{
		{"config file", o.ConfigFilePath},
		{"dir", o.Dir},
	}
	for _, f := range fields {
		if f.path == "" {
			continue
		}
		if err := f.path.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidLoadOptions, f.name, err)
		}
	}
	return nil
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type fileProvider struct{}

// NewProvider creates a configuration provider backed by the filesystem.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return Load(ctx, opts)
}
