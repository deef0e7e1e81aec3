// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bundlesync/bundlesync/internal/issue"
	"github.com/bundlesync/bundlesync/pkg/cueutil"
	"github.com/bundlesync/bundlesync/pkg/fspath"
	"github.com/bundlesync/bundlesync/pkg/types"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "bundlesync"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "bundlesync"
	// EnvPrefix prefixes environment overrides (BUNDLESYNC_VCS_BACKEND).
	EnvPrefix = "BUNDLESYNC"
)

// ConfigFileExts lists the accepted config file extensions in lookup order.
var ConfigFileExts = []string{"cue", "json", "toml"}

//go:embed config_schema.cue
var configSchema []byte

// Load discovers, validates and decodes the configuration.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	path, err := locate(opts)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(string(opts.ConfigFilePath)).
			WithSuggestion("Create a bundlesync.cue file in the repository root").
			WithSuggestion("Or pass the file explicitly with --config <file>").
			Wrap(err).
			BuildError()
	}

	v := newViper()
	if err := loadFileIntoViper(v, path); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Check that every unit declares id, name, local_path, source_dir and entry_file").
			WithSuggestion("Verify the configuration values match the expected schema").
			WithSuggestion("Run 'bundlesync config show' once the file loads to inspect the resolved values").
			Wrap(err).
			BuildError()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Ensure each unit id is unique").
			WithSuggestion("Check BUNDLESYNC_* environment overrides for invalid values").
			Wrap(&ConfigSchemaError{Path: path, Err: err}).
			BuildError()
	}

	abs, err := fspath.Abs(types.FilesystemPath(path))
	if err != nil {
		return nil, err
	}
	cfg.Path = abs
	cfg.Root = fspath.Dir(abs)

	return &cfg, nil
}

// newViper returns a Viper instance carrying the defaults and the
// environment binding for every scalar setting.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("lock_file", defaults.LockFile)
	v.SetDefault("tables.dir", defaults.Tables.Dir)
	v.SetDefault("tables.local_dir", defaults.Tables.LocalDir)
	v.SetDefault("tables.pattern", defaults.Tables.Pattern)
	v.SetDefault("source_glob", defaults.SourceGlob)
	v.SetDefault("vcs.backend", defaults.VCS.Backend)
	v.SetDefault("revision.tracked", defaults.Revision.Tracked)
	v.SetDefault("merge.max_reported", defaults.Merge.MaxReported)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// locate returns the explicit config file, or the first bundlesync.<ext>
// found in the search directory.
func locate(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		path := string(opts.ConfigFilePath)
		if !fileExists(path) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return path, nil
	}

	dir := string(opts.Dir)
	if dir == "" {
		dir = "."
	}
	for _, ext := range ConfigFileExts {
		path := filepath.Join(dir, ConfigFileName+"."+ext)
		if fileExists(path) {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no %s.{%s} in %s", ErrConfigNotFound, ConfigFileName, strings.Join(ConfigFileExts, ","), dir)
}

// loadFileIntoViper validates the file against the #Config schema and
// merges its contents into Viper.
//
// CUE and JSON go through cueutil.ParseAndDecode directly. TOML is decoded
// with go-toml first and the resulting map is validated with the same
// schema, so all three formats get identical defaults and error messages.
func loadFileIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := decodeConfigMap(data, path)
	if err != nil {
		return &ConfigSchemaError{Path: path, Err: err}
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func decodeConfigMap(data []byte, path string) (map[string]any, error) {
	opts := []cueutil.Option{cueutil.WithFilename(path)}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
			return nil, err
		}
		var raw map[string]any
		if err := toml.Unmarshal(data, &raw); err != nil {
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				row, col := derr.Position()
				return nil, fmt.Errorf("%s:%d:%d: %s", path, row, col, derr.Error())
			}
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		result, err := cueutil.DecodeValue[map[string]any](configSchema, raw, "#Config", opts...)
		if err != nil {
			return nil, err
		}
		return *result.Value, nil
	}

	result, err := cueutil.ParseAndDecode[map[string]any](configSchema, data, "#Config", opts...)
	if err != nil {
		return nil, err
	}
	return *result.Value, nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
