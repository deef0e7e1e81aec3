// SPDX-License-Identifier: MPL-2.0

package patch

import (
	"errors"
	"fmt"
	"regexp"
)

// DefaultGuardWindow is how far past the null-check guard an existing
// early return is looked for.
const DefaultGuardWindow = 200

var (
	// ErrInvalidProfile is returned when a Profile field is not usable.
	ErrInvalidProfile = errors.New("invalid patch profile")

	identifierRE    = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
	qualifiedNameRE = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)+$`)
)

// Profile names the anchors and generated symbols used by the engine.
type Profile struct {
	// Import is the qualified type the generated method depends on.
	Import string
	// ImportNamespace is the prefix of imports the new import is placed after.
	ImportNamespace string
	// Flag is the static boolean marking the bundled build.
	Flag string
	// FlagDoc is the one-line doc comment emitted above Flag.
	FlagDoc string
	// Method is the generated settings-builder method.
	Method string
	// MethodParamType is the parameter type of Method.
	MethodParamType string
	// AnchorMethod is the private no-argument method Method is inserted after.
	AnchorMethod string
	// GuardWindow bounds the search for an existing flag guard, in bytes.
	GuardWindow int
}

// DefaultProfile returns the profile used when the configuration does not
// override any name.
func DefaultProfile() Profile {
	return Profile{
		Import:          "mindustry.ui.dialogs.SettingsMenuDialog",
		ImportNamespace: "mindustry.ui.",
		Flag:            "bekBundled",
		FlagDoc:         "When true, this mod is running as a bundled component inside Neon.",
		Method:          "bekBuildSettings",
		MethodParamType: "SettingsMenuDialog.SettingsTable",
		AnchorMethod:    "registerSettings",
		GuardWindow:     DefaultGuardWindow,
	}
}

// Validate checks that every name is a legal identifier or qualified name.
func (p Profile) Validate() error {
	checks := []struct {
		field string
		value string
		re    *regexp.Regexp
	}{
		{"import", p.Import, qualifiedNameRE},
		{"flag", p.Flag, identifierRE},
		{"method", p.Method, identifierRE},
		{"anchor_method", p.AnchorMethod, identifierRE},
	}
	for _, c := range checks {
		if !c.re.MatchString(c.value) {
			return fmt.Errorf("%w: %s %q is not a valid name", ErrInvalidProfile, c.field, c.value)
		}
	}
	if p.ImportNamespace == "" {
		return fmt.Errorf("%w: import namespace must not be empty", ErrInvalidProfile)
	}
	if p.MethodParamType == "" {
		return fmt.Errorf("%w: method parameter type must not be empty", ErrInvalidProfile)
	}
	if p.GuardWindow <= 0 {
		return fmt.Errorf("%w: guard window must be positive, got %d", ErrInvalidProfile, p.GuardWindow)
	}
	return nil
}
