// SPDX-License-Identifier: MPL-2.0

package patch

import (
	"errors"
	"strings"
	"testing"

	"github.com/bundlesync/bundlesync/pkg/brace"
)

const minimalMod = `package a;

public class A extends Mod {
    private void registerSettings(){
        if(ui == null || ui.settings == null) return;
        ui.settings.addCategory("A", table -> {
            table.checkPref("a", true);
        });
    }
}
`

const minimalModPatched = `package a;

import mindustry.ui.dialogs.SettingsMenuDialog;

public class A extends Mod {
    /** When true, this mod is running as a bundled component inside Neon. */
    public static boolean bekBundled = false;


    private void registerSettings(){
        if(ui == null || ui.settings == null) return;
        if(bekBundled) return;

        ui.settings.addCategory("A", this::bekBuildSettings);
    }
    /** Populates a {@link mindustry.ui.dialogs.SettingsMenuDialog.SettingsTable} with this mod's settings. */
    public void bekBuildSettings(SettingsMenuDialog.SettingsTable table){
            table.checkPref("a", true);
    }

}
`

const miniMapMod = `package rbm;

import arc.Core;
import arc.scene.ui.layout.Table;
import mindustry.mod.Mod;
import mindustry.ui.Styles;

import static mindustry.Vars.*;

public class BetterMiniMapMod extends mindustry.mod.Mod{
    public static final String label = "{ not a brace }";

    public BetterMiniMapMod(){
        Events.on(ClientLoadEvent.class, e -> registerSettings());
    }

    private void registerSettings(){
        if(Vars.ui == null || Vars.ui.settings == null) return;

        Vars.ui.settings.addCategory(Core.bundle.get("rbm.category"), Icon.map, t -> {

            t.checkPref("rbm-enabled", true);
            t.textPref("rbm-label", "a } b \" }", v -> {
                if(v.isEmpty()) return;
                Core.settings.put("rbm-label", v);
            });
            t.pref(new Setting('}' + "x"){
                @Override
                public void add(SettingsMenuDialog.SettingsTable table){ table.row(); }
            });

        });
    }

    private void other(){
        String s = "registerSettings(){";
    }
}
`

func newDefaultEngine(t *testing.T) *Engine {
	t.Helper()

	e, err := NewEngine(DefaultProfile())
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	return e
}

func TestApply_Golden(t *testing.T) {
	t.Parallel()

	got, err := newDefaultEngine(t).Apply("a", minimalMod)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if got != minimalModPatched {
		t.Errorf("Apply() =\n%s\nwant\n%s", got, minimalModPatched)
	}
}

func TestApply_Idempotent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{name: "minimal", src: minimalMod},
		{name: "qualified receiver and nested literals", src: miniMapMod},
		{name: "already patched", src: minimalModPatched},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newDefaultEngine(t)
			once, err := e.Apply("rbm", tt.src)
			if err != nil {
				t.Fatalf("first Apply() error: %v", err)
			}
			twice, err := e.Apply("rbm", once)
			if err != nil {
				t.Fatalf("second Apply() error: %v", err)
			}
			if once != twice {
				t.Errorf("Apply() is not idempotent:\nonce:\n%s\ntwice:\n%s", once, twice)
			}
			if !e.Inspect(once).Applied() {
				t.Errorf("Inspect(patched) = %+v, want Applied", e.Inspect(once))
			}
		})
	}
}

func TestApply_MiniMapMod(t *testing.T) {
	t.Parallel()

	got, err := newDefaultEngine(t).Apply("rbm", miniMapMod)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	wantContains := []string{
		"import mindustry.ui.Styles;\nimport mindustry.ui.dialogs.SettingsMenuDialog;\n",
		"extends mindustry.mod.Mod{\n    /** When true",
		`Vars.ui.settings.addCategory(Core.bundle.get("rbm.category"), Icon.map, this::bekBuildSettings);`,
		"if(Vars.ui == null || Vars.ui.settings == null) return;\n        if(bekBundled) return;\n",
		"public void bekBuildSettings(SettingsMenuDialog.SettingsTable t){\n            t.checkPref(\"rbm-enabled\", true);",
		"                public void add(SettingsMenuDialog.SettingsTable table){ table.row(); }\n            });\n    }\n",
	}
	for _, want := range wantContains {
		if !strings.Contains(got, want) {
			t.Errorf("patched text should contain %q\n%s", want, got)
		}
	}

	if n := strings.Count(got, "public void bekBuildSettings"); n != 1 {
		t.Errorf("generated method declared %d times, want 1", n)
	}
	if strings.Contains(got, "t -> {") {
		t.Error("closure should have been replaced by the method reference")
	}
	if !strings.Contains(got, `String s = "registerSettings(){";`) {
		t.Error("string literal mentioning the anchor should be untouched")
	}
	if strings.Index(got, "public void bekBuildSettings") > strings.Index(got, "private void other()") {
		t.Error("generated method should follow registerSettings, not the later method")
	}
}

func TestApply_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      string
		wantErr  error
		wantStep string
	}{
		{
			name:     "missing call site",
			src:      "package a;\npublic class A extends Mod {\n    private void registerSettings(){ }\n}\n",
			wantErr:  ErrAnchorNotFound,
			wantStep: StepClosure,
		},
		{
			name:     "missing class declaration",
			src:      "package a;\nclass A {\n    void f(){ ui.settings.addCategory(\"A\", t -> { }); }\n}\n",
			wantErr:  ErrAnchorNotFound,
			wantStep: StepFlag,
		},
		{
			name:     "missing anchor method",
			src:      "package a;\npublic class A extends Mod {\n    public A(){\n        ui.settings.addCategory(\"A\", t -> { t.row(); });\n    }\n}\n",
			wantErr:  ErrAnchorMethodNotFound,
			wantStep: StepMethod,
		},
		{
			name:     "unbalanced closure",
			src:      "package a;\npublic class A extends Mod {\n    private void registerSettings(){\n        ui.settings.addCategory(\"A\", t -> { t.label(\"}\");\n",
			wantErr:  brace.ErrUnbalancedDelimiters,
			wantStep: StepClosure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := newDefaultEngine(t).Apply("u1", tt.src)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Apply() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.src {
				t.Errorf("Apply() must return the input unchanged on error, got:\n%s", got)
			}

			var pe *Error
			if !errors.As(err, &pe) {
				t.Fatalf("error should be *Error, got %T", err)
			}
			if pe.Unit != "u1" || pe.Step != tt.wantStep {
				t.Errorf("Error = %+v, want unit u1 step %s", pe, tt.wantStep)
			}
			if !strings.Contains(err.Error(), "[u1]") {
				t.Errorf("error %q should name the unit", err.Error())
			}
		})
	}
}

func TestApply_GuardSelfHeals(t *testing.T) {
	t.Parallel()

	// Closure already converted by an earlier run, guard lost since.
	src := strings.Replace(minimalModPatched, "\n        if(bekBundled) return;\n", "", 1)

	e := newDefaultEngine(t)
	if s := e.Inspect(src); !s.ReferencePresent || !s.MethodDeclared || s.GuardPresent {
		t.Fatalf("fixture state = %+v", s)
	}

	got, err := e.Apply("a", src)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if got != minimalModPatched {
		t.Errorf("Apply() =\n%s\nwant\n%s", got, minimalModPatched)
	}
}

func TestApply_NoGuardAnchor(t *testing.T) {
	t.Parallel()

	src := strings.Replace(minimalMod, "        if(ui == null || ui.settings == null) return;\n", "", 1)

	got, err := newDefaultEngine(t).Apply("a", src)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if strings.Contains(got, "if(bekBundled) return;") {
		t.Error("guard should only be inserted after a null-check guard")
	}
	if s := newDefaultEngine(t).Inspect(got); !s.Applied() || s.GuardAnchorPresent {
		t.Errorf("Inspect() = %+v", s)
	}
}

func TestApply_ExistingMethodIsNotDuplicated(t *testing.T) {
	t.Parallel()

	src := strings.Replace(minimalMod, "    }\n}\n",
		"    }\n    public void bekBuildSettings(SettingsMenuDialog.SettingsTable table){ }\n}\n", 1)

	got, err := newDefaultEngine(t).Apply("a", src)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if n := strings.Count(got, "public void bekBuildSettings"); n != 1 {
		t.Errorf("method declared %d times, want 1", n)
	}
	if !strings.Contains(got, "this::bekBuildSettings") {
		t.Error("closure should still be replaced by the reference")
	}
}

func TestApply_ImportWithoutPackageLine(t *testing.T) {
	t.Parallel()

	src := strings.TrimPrefix(minimalMod, "package a;\n\n")
	got, err := newDefaultEngine(t).Apply("a", src)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if !strings.HasPrefix(got, "import mindustry.ui.dialogs.SettingsMenuDialog;\n") {
		t.Errorf("import should open the file, got:\n%s", got)
	}
}

func TestApply_CustomProfile(t *testing.T) {
	t.Parallel()

	p := DefaultProfile()
	p.Flag = "neonBundled"
	p.Method = "neonSettings"
	p.AnchorMethod = "setupSettings"

	e, err := NewEngine(p)
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}

	src := strings.Replace(minimalMod, "registerSettings", "setupSettings", 1)
	got, err := e.Apply("a", src)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	for _, want := range []string{
		"public static boolean neonBundled = false;",
		"this::neonSettings",
		"public void neonSettings(SettingsMenuDialog.SettingsTable table){",
		"if(neonBundled) return;",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("patched text should contain %q", want)
		}
	}
	if strings.Contains(got, "bekBundled") {
		t.Error("default flag name should not appear with a custom profile")
	}
}

func TestNewEngine_InvalidProfile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Profile)
	}{
		{name: "flag with space", mutate: func(p *Profile) { p.Flag = "bek bundled" }},
		{name: "empty method", mutate: func(p *Profile) { p.Method = "" }},
		{name: "unqualified import", mutate: func(p *Profile) { p.Import = "SettingsMenuDialog" }},
		{name: "anchor with parens", mutate: func(p *Profile) { p.AnchorMethod = "registerSettings()" }},
		{name: "empty namespace", mutate: func(p *Profile) { p.ImportNamespace = "" }},
		{name: "zero window", mutate: func(p *Profile) { p.GuardWindow = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := DefaultProfile()
			tt.mutate(&p)
			if _, err := NewEngine(p); !errors.Is(err, ErrInvalidProfile) {
				t.Errorf("NewEngine() error = %v, want ErrInvalidProfile", err)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	t.Parallel()

	e := newDefaultEngine(t)

	before := e.Inspect(minimalMod)
	if before != (State{GuardAnchorPresent: true}) {
		t.Errorf("Inspect(unpatched) = %+v", before)
	}
	if before.Applied() {
		t.Error("unpatched text should not report Applied")
	}

	after := e.Inspect(minimalModPatched)
	want := State{
		ImportPresent:      true,
		FlagDeclared:       true,
		ReferencePresent:   true,
		MethodDeclared:     true,
		GuardAnchorPresent: true,
		GuardPresent:       true,
	}
	if after != want {
		t.Errorf("Inspect(patched) = %+v, want %+v", after, want)
	}
}

func TestTrimBlankLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"\n\n    a();\n    b();\n    ", "    a();\n    b();"},
		{"   \n\t\n", ""},
		{"a();", "a();"},
		{"\n  a();\n\n  b();\n", "  a();\n\n  b();"},
	}
	for _, tt := range tests {
		if got := trimBlankLines(tt.in); got != tt.want {
			t.Errorf("trimBlankLines(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
