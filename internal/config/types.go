// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bundlesync/bundlesync/internal/patch"
	"github.com/bundlesync/bundlesync/internal/revision"
	"github.com/bundlesync/bundlesync/pkg/fspath"
	"github.com/bundlesync/bundlesync/pkg/tables"
	"github.com/bundlesync/bundlesync/pkg/types"
)

const (
	// DefaultLockFile is the lock file location relative to the config root.
	DefaultLockFile = "tools/bundlesync.lock.cue"
	// DefaultTablesDir is the merged-table output directory.
	DefaultTablesDir = "src/main/resources/bundles"
	// DefaultLocalTablesDir holds the local override tables.
	DefaultLocalTablesDir = "tools/local-bundles"
	// DefaultTablePattern selects translation tables by file name.
	DefaultTablePattern = "bundle*.properties"
	// DefaultSourceGlob selects the copied source files.
	DefaultSourceGlob = "**/*.java"
)

var (
	// ErrConfigSchema is returned when the configuration violates the schema
	// or a constraint the schema cannot express.
	ErrConfigSchema = errors.New("configuration schema error")
	// ErrConfigNotFound is returned when no configuration file exists.
	ErrConfigNotFound = errors.New("configuration file not found")
)

type (
	// Config is the resolved bundlesync configuration.
	Config struct {
		Units      []Unit         `json:"units" mapstructure:"units"`
		LockFile   string         `json:"lock_file" mapstructure:"lock_file"`
		Tables     TablesConfig   `json:"tables" mapstructure:"tables"`
		SourceGlob string         `json:"source_glob" mapstructure:"source_glob"`
		VCS        VCSConfig      `json:"vcs" mapstructure:"vcs"`
		Revision   RevisionConfig `json:"revision" mapstructure:"revision"`
		Merge      MergeConfig    `json:"merge" mapstructure:"merge"`
		Patch      PatchConfig    `json:"patch" mapstructure:"patch"`

		// Root is the directory relative paths are resolved against.
		Root types.FilesystemPath `json:"-" mapstructure:"-"`
		// Path is the configuration file the values were read from.
		Path types.FilesystemPath `json:"-" mapstructure:"-"`
	}

	// Unit is one upstream working copy.
	Unit struct {
		ID         string `json:"id" mapstructure:"id"`
		Name       string `json:"name" mapstructure:"name"`
		LocalPath  string `json:"local_path" mapstructure:"local_path"`
		SourceDir  string `json:"source_dir" mapstructure:"source_dir"`
		EntryFile  string `json:"entry_file" mapstructure:"entry_file"`
		TablesDir  string `json:"tables_dir" mapstructure:"tables_dir"`
		Patch      bool   `json:"patch" mapstructure:"patch"`
		AllowNoVCS bool   `json:"allow_no_vcs" mapstructure:"allow_no_vcs"`
	}

	// TablesConfig locates merged and local override tables.
	TablesConfig struct {
		Dir      string `json:"dir" mapstructure:"dir"`
		LocalDir string `json:"local_dir" mapstructure:"local_dir"`
		Pattern  string `json:"pattern" mapstructure:"pattern"`
	}

	// VCSConfig selects the head reader.
	VCSConfig struct {
		Backend string `json:"backend" mapstructure:"backend"`
	}

	// RevisionConfig tunes content hashing.
	RevisionConfig struct {
		Tracked []string `json:"tracked" mapstructure:"tracked"`
	}

	// MergeConfig tunes table merging.
	MergeConfig struct {
		MaxReported int `json:"max_reported" mapstructure:"max_reported"`
	}

	// PatchConfig overrides names of the default patch profile.
	// Empty fields keep the default.
	PatchConfig struct {
		Import          string `json:"import" mapstructure:"import"`
		ImportNamespace string `json:"import_namespace" mapstructure:"import_namespace"`
		Flag            string `json:"flag" mapstructure:"flag"`
		FlagDoc         string `json:"flag_doc" mapstructure:"flag_doc"`
		Method          string `json:"method" mapstructure:"method"`
		ParamType       string `json:"param_type" mapstructure:"param_type"`
		AnchorMethod    string `json:"anchor_method" mapstructure:"anchor_method"`
	}

	// ConfigSchemaError ties a validation failure to the configuration file.
	//
	//nolint:revive // ConfigSchemaError reads better at call sites than SchemaError
	ConfigSchemaError struct {
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *ConfigSchemaError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns ErrConfigSchema together with the underlying cause.
func (e *ConfigSchemaError) Unwrap() []error { return []error{ErrConfigSchema, e.Err} }

// DefaultConfig returns the settings used for keys the file leaves out.
func DefaultConfig() *Config {
	return &Config{
		LockFile: DefaultLockFile,
		Tables: TablesConfig{
			Dir:      DefaultTablesDir,
			LocalDir: DefaultLocalTablesDir,
			Pattern:  DefaultTablePattern,
		},
		SourceGlob: DefaultSourceGlob,
		VCS:        VCSConfig{Backend: revision.BackendGit},
		Revision:   RevisionConfig{Tracked: revision.DefaultTrackedPatterns},
		Merge:      MergeConfig{MaxReported: tables.DefaultMaxReported},
	}
}

// Validate checks the constraints CUE cannot express and the values that
// may arrive through environment overrides.
func (c *Config) Validate() error {
	if len(c.Units) == 0 {
		return fmt.Errorf("units: at least one unit is required")
	}

	seen := make(map[string]int, len(c.Units))
	for i, u := range c.Units {
		if first, ok := seen[u.ID]; ok {
			return fmt.Errorf("units[%d]: duplicate id %q (same as units[%d])", i, u.ID, first)
		}
		seen[u.ID] = i
		if strings.ContainsAny(u.EntryFile, `/\`) {
			return fmt.Errorf("units[%d].entry_file: %q must be a file name, not a path", i, u.EntryFile)
		}
	}

	if _, err := revision.NewHeadReader(c.VCS.Backend); err != nil {
		return fmt.Errorf("vcs.backend: %w", err)
	}
	if c.Merge.MaxReported <= 0 {
		return fmt.Errorf("merge.max_reported: must be positive, got %d", c.Merge.MaxReported)
	}
	if err := c.PatchProfile().Validate(); err != nil {
		return fmt.Errorf("patch: %w", err)
	}
	return nil
}

// Unit returns the unit with the given ID.
func (c *Config) Unit(id string) (Unit, bool) {
	for _, u := range c.Units {
		if u.ID == id {
			return u, true
		}
	}
	return Unit{}, false
}

// UnitIDs returns the unit IDs in declaration order.
func (c *Config) UnitIDs() []string {
	ids := make([]string, len(c.Units))
	for i, u := range c.Units {
		ids[i] = u.ID
	}
	return ids
}

// Resolve anchors p at the configuration root.
func (c *Config) Resolve(p string) types.FilesystemPath {
	return fspath.Resolve(c.Root, types.FilesystemPath(p))
}

// PatchProfile returns the default patch profile with the configured
// overrides applied. An overridden import without a namespace places the
// new import after imports of the same package.
func (c *Config) PatchProfile() patch.Profile {
	p := patch.DefaultProfile()
	o := c.Patch
	if o.Import != "" {
		p.Import = o.Import
		p.ImportNamespace = packageOf(o.Import)
	}
	override(&p.ImportNamespace, o.ImportNamespace)
	override(&p.Flag, o.Flag)
	override(&p.FlagDoc, o.FlagDoc)
	override(&p.Method, o.Method)
	override(&p.MethodParamType, o.ParamType)
	override(&p.AnchorMethod, o.AnchorMethod)
	return p
}

// MergeOptions returns the table merge settings.
func (c *Config) MergeOptions() tables.MergeOptions {
	return tables.MergeOptions{MaxReported: c.Merge.MaxReported}
}

// ResolvedLocalPath returns the unit's working copy path resolved against root.
func (u Unit) ResolvedLocalPath(root types.FilesystemPath) types.FilesystemPath {
	return fspath.Resolve(root, types.FilesystemPath(u.LocalPath))
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// packageOf returns "a.b." for "a.b.C".
func packageOf(qualified string) string {
	i := strings.LastIndex(qualified, ".")
	if i < 0 {
		return qualified
	}
	return qualified[:i+1]
}
