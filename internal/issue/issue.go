// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigNotFoundId Id = iota + 1
	ConfigSchemaErrorId
	MissingWorkingCopyId
	NotVersionControlledId
	ExternalToolFailureId
	UnbalancedDelimitersId
	AnchorNotFoundId
	AnchorMethodNotFoundId
	MergeCollisionId
	RunLockedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render renders the issue as terminal Markdown using the glamour style at
// stylePath ("dark", "light", "notty", or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	configNotFoundIssue = &Issue{
		id: ConfigNotFoundId,
		mdMsg: `
# No bundlesync configuration found!

bundlesync looks for ` + "`bundlesync.cue`" + `, ` + "`bundlesync.json`" + ` or
` + "`bundlesync.toml`" + ` in the current directory.

## Things you can try:
- Run bundlesync from the repository root
- Point at the file explicitly:
~~~
$ bundlesync --config tools/bundlesync.cue sync
~~~

## Minimal configuration:
~~~cue
units: [{
	id:         "rbm"
	name:       "Better MiniMap"
	local_path: "../BetterMiniMap"
	source_dir: "src/main/java/rbm"
	entry_file: "BetterMiniMapMod.java"
}]
~~~`,
	}

	configSchemaErrorIssue = &Issue{
		id: ConfigSchemaErrorId,
		mdMsg: `
# Invalid configuration!

The configuration file does not match the expected schema.

## Common issues:
- A unit is missing one of id, name, local_path, source_dir, entry_file
- Two units share the same id
- ` + "`vcs.backend`" + ` is not "git" or "go-git"
- A BUNDLESYNC_* environment variable overrides a setting with an invalid value

## Things you can try:
- Read the field path in the error message; it points at the offending value
- Run ` + "`bundlesync config show`" + ` after fixing to see the resolved values`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	missingWorkingCopyIssue = &Issue{
		id: MissingWorkingCopyId,
		mdMsg: `
# Upstream working copy not found!

A unit's ` + "`local_path`" + ` does not point at an existing directory.
bundlesync never clones or fetches; the working copy must already exist.

## Things you can try:
- Check the path; relative paths are resolved against the configuration file's directory
- Clone the upstream repository next to this one`,
	}

	notVersionControlledIssue = &Issue{
		id: NotVersionControlledId,
		mdMsg: `
# Working copy is not version controlled!

The unit's working copy has no ` + "`.git`" + ` entry at its root.

## Things you can try:
- Point ` + "`local_path`" + ` at the repository root, not a subdirectory
- If the unit is intentionally unversioned, allow content hashing:
~~~cue
allow_no_vcs: true
~~~`,
	}

	externalToolFailureIssue = &Issue{
		id: ExternalToolFailureId,
		mdMsg: `
# Version-control command failed!

` + "`git rev-parse HEAD`" + ` exited with an error. The command output is shown above.

## Things you can try:
- Make sure the repository has at least one commit
- Make sure git is installed and on your PATH
- Use the built-in reader instead of the git binary:
~~~
$ BUNDLESYNC_VCS_BACKEND=go-git bundlesync sync
~~~`,
		extLinks: []HttpLink{"https://git-scm.com/docs/git-rev-parse"},
	}

	unbalancedDelimitersIssue = &Issue{
		id: UnbalancedDelimitersId,
		mdMsg: `
# Unbalanced braces in entry file!

A brace opened by a patch anchor is never closed. String and character
literals are skipped while matching, comments are not.

## Things you can try:
- Check that the entry file compiles upstream
- Look for a brace inside a comment near the settings code`,
	}

	anchorNotFoundIssue = &Issue{
		id: AnchorNotFoundId,
		mdMsg: `
# Patch anchor not found!

The entry file lacks a shape the patch relies on: the mod class declaration
(` + "`public class X extends Mod {`" + `) or the settings call site
(` + "`ui.settings.addCategory(..., table -> {`" + `).

## Things you can try:
- Check that ` + "`entry_file`" + ` names the mod's main class
- Disable patching for the unit if it has no settings:
~~~cue
patch: false
~~~`,
	}

	anchorMethodNotFoundIssue = &Issue{
		id: AnchorMethodNotFoundId,
		mdMsg: `
# Settings registration method not found!

The generated settings method is inserted after ` + "`private void registerSettings()`" + `,
which the entry file does not declare.

## Things you can try:
- Rename the method upstream, or
- Point the patch at the method the mod uses:
~~~cue
patch: anchor_method: "setupSettings"
~~~`,
	}

	mergeCollisionIssue = &Issue{
		id: MergeCollisionId,
		mdMsg: `
# Translation key collision!

Two sources define the same key with different values. bundlesync never
picks a winner silently, and the local override table is checked the same way.

## Things you can try:
- Rename the key in one of the upstream units
- Align both values upstream
- Remove the conflicting key from the local override table`,
	}

	runLockedIssue = &Issue{
		id: RunLockedId,
		mdMsg: `
# Another sync is running!

An apply run holds the run lock next to the lock file.

## Things you can try:
- Wait for the other run to finish
- If no other bundlesync process exists, retry; the lock is released when its holder exits`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

bundlesync could not write to the destination tree or the lock file.

## Things you can try:
- Check file/directory permissions of the destination source and table directories
- Run bundlesync from a checkout you own`,
	}

	issues = map[Id]*Issue{
		configNotFoundIssue.Id():       configNotFoundIssue,
		configSchemaErrorIssue.Id():    configSchemaErrorIssue,
		missingWorkingCopyIssue.Id():   missingWorkingCopyIssue,
		notVersionControlledIssue.Id(): notVersionControlledIssue,
		externalToolFailureIssue.Id():  externalToolFailureIssue,
		unbalancedDelimitersIssue.Id(): unbalancedDelimitersIssue,
		anchorNotFoundIssue.Id():       anchorNotFoundIssue,
		anchorMethodNotFoundIssue.Id(): anchorMethodNotFoundIssue,
		mergeCollisionIssue.Id():       mergeCollisionIssue,
		runLockedIssue.Id():            runLockedIssue,
		permissionDeniedIssue.Id():     permissionDeniedIssue,
	}
)

// Values returns every catalog entry ordered by ID.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
