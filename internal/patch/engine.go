// SPDX-License-Identifier: MPL-2.0

package patch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bundlesync/bundlesync/pkg/brace"
)

const (
	anchorClass      = "class declaration"
	anchorCallSite   = "settings category call site"
	memberIndent     = "    "
	statementIndent  = "        "
	flagDeclTemplate = "\n" + memberIndent + "/** %s */\n" + memberIndent + "public static boolean %s = false;\n\n"
)

var (
	classDeclRE = regexp.MustCompile(`public\s+class\s+\w+\s+extends\s+(?:mindustry\.mod\.)?Mod\s*\{`)
	packageRE   = regexp.MustCompile(`(?m)^package\s+[A-Za-z0-9_.]+\s*;[^\n]*\n`)
	callSiteRE  = regexp.MustCompile(`\bui\.settings\.addCategory\([^;]*?,\s*(\w+)\s*->\s*\{`)

	guardAnchorREs = []*regexp.Regexp{
		regexp.MustCompile(`if\s*\(\s*ui\s*==\s*null\s*\|\|\s*ui\.settings\s*==\s*null\s*\)\s*return\s*;`),
		regexp.MustCompile(`if\s*\(\s*Vars\.ui\s*==\s*null\s*\|\|\s*Vars\.ui\.settings\s*==\s*null\s*\)\s*return\s*;`),
	}
)

// Engine applies a Profile to entry source files.
type Engine struct {
	profile      Profile
	importLineRE *regexp.Regexp
	flagDeclRE   *regexp.Regexp
	methodDeclRE *regexp.Regexp
	anchorRE     *regexp.Regexp
	guardRE      *regexp.Regexp
}

// NewEngine validates p and compiles the profile-dependent patterns.
func NewEngine(p Profile) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	q := regexp.QuoteMeta
	return &Engine{
		profile:      p,
		importLineRE: regexp.MustCompile(`(?m)^[ \t]*import\s+` + q(p.ImportNamespace) + `[^\n]*\n`),
		flagDeclRE:   regexp.MustCompile(`public\s+static\s+boolean\s+` + q(p.Flag) + `\b`),
		methodDeclRE: regexp.MustCompile(`public\s+void\s+` + q(p.Method) + `\s*\(`),
		anchorRE:     regexp.MustCompile(`private\s+void\s+` + q(p.AnchorMethod) + `\s*\(\s*\)\s*\{`),
		guardRE:      regexp.MustCompile(`if\s*\(\s*` + q(p.Flag) + `\s*\)\s*return\s*;`),
	}, nil
}

// Profile returns the engine's profile.
func (e *Engine) Profile() Profile { return e.profile }

// Apply runs every patch step on src and returns the patched text.
// On error the returned text is src unchanged.
func (e *Engine) Apply(unitID, src string) (string, error) {
	text := e.ensureImport(src)

	text, err := e.ensureFlag(unitID, text)
	if err != nil {
		return src, err
	}

	state := e.Inspect(text)
	if !state.ReferencePresent || !state.MethodDeclared {
		text, err = e.extractClosure(unitID, text)
		if err != nil {
			return src, err
		}
	}

	return e.ensureGuard(text), nil
}

func (e *Engine) reference() string { return "this::" + e.profile.Method }

// ensureImport adds the import after the first import of the same
// namespace, else after the package line, else at the top of the text.
func (e *Engine) ensureImport(text string) string {
	if strings.Contains(text, e.profile.Import) {
		return text
	}
	line := "import " + e.profile.Import + ";\n"
	if loc := e.importLineRE.FindStringIndex(text); loc != nil {
		return text[:loc[1]] + line + text[loc[1]:]
	}
	if loc := packageRE.FindStringIndex(text); loc != nil {
		return text[:loc[1]] + "\n" + line + text[loc[1]:]
	}
	return line + text
}

func (e *Engine) ensureFlag(unitID, text string) (string, error) {
	loc := classDeclRE.FindStringIndex(text)
	if loc == nil {
		return text, &Error{Unit: unitID, Step: StepFlag, Anchor: anchorClass, Err: ErrAnchorNotFound}
	}
	if e.flagDeclRE.MatchString(text) {
		return text, nil
	}
	decl := fmt.Sprintf(flagDeclTemplate, e.profile.FlagDoc, e.profile.Flag)
	return text[:loc[1]] + decl + text[loc[1]:], nil
}

// extractClosure replaces the first settings-category closure with a method
// reference and, unless already declared, inserts the generated method that
// carries the closure body.
func (e *Engine) extractClosure(unitID, text string) (string, error) {
	m := callSiteRE.FindStringSubmatchIndex(text)
	if m == nil {
		return text, &Error{Unit: unitID, Step: StepClosure, Anchor: anchorCallSite, Err: ErrAnchorNotFound}
	}
	lambdaStart := m[2]
	param := text[m[2]:m[3]]
	open := m[1] - 1

	body, closeIdx, err := brace.Body(text, open)
	if err != nil {
		return text, &Error{Unit: unitID, Step: StepClosure, Anchor: anchorCallSite, Err: err}
	}
	body = trimBlankLines(body)

	text = text[:lambdaStart] + e.reference() + text[closeIdx+1:]

	if e.methodDeclRE.MatchString(text) {
		return text, nil
	}
	return e.insertMethod(unitID, text, param, body)
}

func (e *Engine) insertMethod(unitID, text, param, body string) (string, error) {
	anchor := "private void " + e.profile.AnchorMethod + "()"

	loc := e.anchorRE.FindStringIndex(text)
	if loc == nil {
		return text, &Error{Unit: unitID, Step: StepMethod, Anchor: anchor, Err: ErrAnchorMethodNotFound}
	}
	closeIdx, err := brace.MatchBrace(text, loc[1]-1)
	if err != nil {
		return text, &Error{Unit: unitID, Step: StepMethod, Anchor: anchor, Err: err}
	}

	var sb strings.Builder
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%s/** Populates a {@link %s} with this mod's settings. */\n", memberIndent, e.qualifiedParamType())
	fmt.Fprintf(&sb, "%spublic void %s(%s %s){\n", memberIndent, e.profile.Method, e.profile.MethodParamType, param)
	if body != "" {
		sb.WriteString(body)
		sb.WriteString("\n")
	}
	sb.WriteString(memberIndent + "}\n")

	at := closeIdx + 1
	return text[:at] + sb.String() + text[at:], nil
}

// qualifiedParamType spells the parameter type with the import's package so
// the doc link resolves without the import.
func (e *Engine) qualifiedParamType() string {
	pkg := e.profile.Import[:strings.LastIndex(e.profile.Import, ".")+1]
	return pkg + e.profile.MethodParamType
}

// ensureGuard inserts the flag check after the first null-check guard.
// Text without a guard is left alone.
func (e *Engine) ensureGuard(text string) string {
	end, ok := e.findGuardAnchor(text)
	if !ok || e.guardInWindow(text, end) {
		return text
	}
	stmt := "\n" + statementIndent + "if(" + e.profile.Flag + ") return;\n"
	return text[:end] + stmt + text[end:]
}

func (e *Engine) findGuardAnchor(text string) (int, bool) {
	for _, re := range guardAnchorREs {
		if loc := re.FindStringIndex(text); loc != nil {
			return loc[1], true
		}
	}
	return 0, false
}

func (e *Engine) guardInWindow(text string, end int) bool {
	limit := min(end+e.profile.GuardWindow, len(text))
	return e.guardRE.MatchString(text[end:limit])
}

// trimBlankLines drops leading and trailing lines that hold only whitespace.
func trimBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
