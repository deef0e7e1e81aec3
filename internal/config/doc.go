// SPDX-License-Identifier: MPL-2.0

// Package config loads the bundlesync configuration using Viper, with CUE as
// the validation layer.
//
// The configuration file is bundlesync.cue (or .json / .toml) in the working
// directory, or the file named by --config. Every file is validated against
// the embedded #Config schema (config_schema.cue) before it is merged into
// Viper, which supplies defaults and BUNDLESYNC_* environment overrides for
// the scalar settings. Relative paths are resolved against the directory
// that holds the configuration file.
package config
