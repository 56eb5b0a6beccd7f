package session

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/Justin-Lund/PS-Decode/internal/config"
	"github.com/Justin-Lund/PS-Decode/internal/deobfuscator"
	"github.com/Justin-Lund/PS-Decode/internal/deobfuscator/custom"
	"github.com/Justin-Lund/PS-Decode/internal/deobfuscator/powershell"
	"github.com/Justin-Lund/PS-Decode/pkg/models"
)

func newManager(t *testing.T) *deobfuscator.Manager {
	t.Helper()
	m := deobfuscator.NewManager(100, nil)
	if err := powershell.RegisterBuiltins(m); err != nil {
		t.Fatalf("RegisterBuiltins() error = %v", err)
	}
	return m
}

func newTestSession(t *testing.T, content, input string, cfg *config.Config) (*Session, *bytes.Buffer) {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{MaxDepth: 100}
	}
	var out bytes.Buffer
	script := &models.Script{Path: "test.ps1", Encoding: "utf-8", Content: content}
	return New(script, cfg, newManager(t), strings.NewReader(input), &out, nil), &out
}

func run(t *testing.T, s *Session) {
	t.Helper()
	if err := s.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

// passKeys lists the key of every logged pass
func passKeys(log *models.SessionLog) []string {
	keys := make([]string, 0, len(log.Passes))
	for _, p := range log.Passes {
		keys = append(keys, p.Key)
	}
	return keys
}

func TestRun_ReorderAndSave(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.ps1")
	cfg := &config.Config{MaxDepth: 100, Output: out}
	s, _ := newTestSession(t, `("{2}{0}{1}" -f 'str','ing','some')`, "1\ns\nq\n", cfg)

	run(t, s)

	want := `"somestring"`
	if diff := cmp.Diff(want, s.Buffer()); diff != "" {
		t.Errorf("buffer mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("saved file mismatch (-want +got):\n%s", diff)
	}

	wantSaves := []*models.Save{{Path: out, Size: len(want)}}
	if diff := cmp.Diff(wantSaves, s.Log().Saves, cmpopts.IgnoreFields(models.Save{}, "SavedAt")); diff != "" {
		t.Errorf("saves mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_ShowSampleNeverMutates(t *testing.T) {
	content := "wRiTe-HoSt ('{1}{0}' -f 'b','a')\nI`EX $x\n"
	s, out := newTestSession(t, content, "0\n\n0\n1\nq\n", nil)

	run(t, s)

	if diff := cmp.Diff(content, s.Buffer()); diff != "" {
		t.Errorf("buffer mismatch (-want +got):\n%s", diff)
	}
	if len(s.Log().Passes) != 0 {
		t.Errorf("passes = %d, want 0", len(s.Log().Passes))
	}
	if s.hist.len() != 0 {
		t.Errorf("history = %d, want 0", s.hist.len())
	}
	if !strings.Contains(out.String(), content) {
		t.Error("full sample not printed")
	}
}

func TestRun_ShowSampleLineCount(t *testing.T) {
	s, out := newTestSession(t, "one\ntwo\nthree\n", "0\n2\nq\n", nil)

	run(t, s)

	if !strings.Contains(out.String(), "one\ntwo\n") {
		t.Error("first two lines not printed")
	}
	if strings.Contains(out.String(), "three") {
		t.Error("sample printed more lines than requested")
	}
}

func TestRun_ShowSampleInvalidCount(t *testing.T) {
	s, out := newTestSession(t, "x", "0\nabc\n0\n-1\nq\n", nil)

	run(t, s)

	if got := strings.Count(out.String(), "Invalid number, please try again."); got != 2 {
		t.Errorf("invalid number messages = %d, want 2", got)
	}
}

func TestRun_InvalidChoiceLeavesStateUntouched(t *testing.T) {
	content := "W`rite-Host 'a'+'b'"
	s, out := newTestSession(t, content, "x\n9\n\n00\nq\n", nil)

	run(t, s)

	if diff := cmp.Diff(content, s.Buffer()); diff != "" {
		t.Errorf("buffer mismatch (-want +got):\n%s", diff)
	}
	if got := strings.Count(out.String(), "Invalid option, please try again."); got != 4 {
		t.Errorf("invalid option messages = %d, want 4", got)
	}
	if len(s.Log().Passes) != 0 || s.hist.len() != 0 {
		t.Errorf("state changed: passes = %d, history = %d", len(s.Log().Passes), s.hist.len())
	}
}

func TestRun_UndoAndReset(t *testing.T) {
	content := "W`rite-H`ost 'a'+'b'"
	input := strings.Join([]string{
		"2", // Write-Host 'a'+'b'
		"3", // Write-Host 'ab'
		"u",
		"u",
		"u", // nothing left
		"3", // W`rite-H`ost 'ab'
		"r",
		"q",
	}, "\n") + "\n"
	s, out := newTestSession(t, content, input, nil)

	run(t, s)

	if diff := cmp.Diff(content, s.Buffer()); diff != "" {
		t.Errorf("buffer mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"2", "3", "3"}, passKeys(s.Log())); diff != "" {
		t.Errorf("pass keys mismatch (-want +got):\n%s", diff)
	}
	if s.Log().Undos != 2 || s.Log().Resets != 1 {
		t.Errorf("undos = %d, resets = %d, want 2 and 1", s.Log().Undos, s.Log().Resets)
	}
	if !strings.Contains(out.String(), "Nothing to undo") {
		t.Error("missing empty history message")
	}
	if s.hist.len() != 0 {
		t.Errorf("history after reset = %d, want 0", s.hist.len())
	}
}

func TestDispatch_UndoRestoresExactBuffer(t *testing.T) {
	content := "$a='x'+'y';$b=2\r\n"
	s, _ := newTestSession(t, content, "", nil)

	steps := []struct {
		key  string
		want string
	}{
		{"3", "$a='xy';$b=2\r\n"},
		{"5", "$a='xy';\n$b=2\r\n"},
		{"u", "$a='xy';$b=2\r\n"},
		{"u", content},
	}

	for _, step := range steps {
		if err := s.Dispatch(step.key); err != nil {
			t.Fatalf("Dispatch(%q) error = %v", step.key, err)
		}
		if diff := cmp.Diff(step.want, s.Buffer()); diff != "" {
			t.Errorf("after %q (-want +got):\n%s", step.key, diff)
		}
	}
}

func TestDispatch_UnchangedRuleKeepsHistory(t *testing.T) {
	s, out := newTestSession(t, "Write-Host 'x'", "", nil)

	if err := s.Dispatch("2"); err != nil {
		t.Fatal(err)
	}

	if s.hist.len() != 0 {
		t.Errorf("history = %d, want 0", s.hist.len())
	}
	want := []*models.Pass{{Key: "2", Rule: "backticks", SizeBefore: 14, SizeAfter: 14}}
	if diff := cmp.Diff(want, s.Log().Passes, cmpopts.IgnoreFields(models.Pass{}, "AppliedAt")); diff != "" {
		t.Errorf("passes mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(out.String(), "No changes") {
		t.Error("missing no-change message")
	}
	if !strings.Contains(out.String(), "Write-Host 'x'\n") {
		t.Error("buffer not printed after unchanged rule")
	}
}

func TestRun_Auto(t *testing.T) {
	s, _ := newTestSession(t, `&("{1}{0}" -f 'X',([char]73+'E'))`, "A\nq\n", nil)

	run(t, s)

	if diff := cmp.Diff(`&"IEX"`, s.Buffer()); diff != "" {
		t.Errorf("buffer mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a"}, passKeys(s.Log())); diff != "" {
		t.Errorf("pass keys mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_SavePromptsOnce(t *testing.T) {
	content := "a`b\r\nc\r\n"
	path := filepath.Join(t.TempDir(), "saved.ps1")
	input := "s\n" + path + "\n2\ns\nq\n"
	s, _ := newTestSession(t, content, input, nil)

	run(t, s)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if diff := cmp.Diff("ab\r\nc\r\n", string(data)); diff != "" {
		t.Errorf("saved file mismatch (-want +got):\n%s", diff)
	}
	if len(s.Log().Saves) != 2 {
		t.Errorf("saves = %d, want 2", len(s.Log().Saves))
	}
}

func TestRun_SaveCancelled(t *testing.T) {
	s, out := newTestSession(t, "x", "s\n\nq\n", nil)

	run(t, s)

	if len(s.Log().Saves) != 0 {
		t.Errorf("saves = %d, want 0", len(s.Log().Saves))
	}
	if !strings.Contains(out.String(), "Save cancelled") {
		t.Error("missing cancel message")
	}
}

func TestRun_SaveFailureContinues(t *testing.T) {
	cfg := &config.Config{MaxDepth: 100, Output: filepath.Join(t.TempDir(), "missing", "out.ps1")}
	s, out := newTestSession(t, "I`EX", "s\n2\nq\n", cfg)

	run(t, s)

	if !strings.Contains(out.String(), "Save failed") {
		t.Error("missing save failure message")
	}
	if diff := cmp.Diff("IEX", s.Buffer()); diff != "" {
		t.Errorf("session did not continue (-want +got):\n%s", diff)
	}
}

func TestRun_EOFQuits(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Empty input", "", "I`EX"},
		{"Last choice without newline", "2", "IEX"},
		{"EOF inside save prompt", "s\n", "I`EX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSession(t, "I`EX", tt.input, nil)
			run(t, s)
			if diff := cmp.Diff(tt.want, s.Buffer()); diff != "" {
				t.Errorf("buffer mismatch (-want +got):\n%s", diff)
			}
			if s.Log().EndTime.IsZero() {
				t.Error("log not finished")
			}
			if s.Log().FinalSize != len(tt.want) {
				t.Errorf("FinalSize = %d, want %d", s.Log().FinalSize, len(tt.want))
			}
		})
	}
}

func TestRun_CustomRuleInMenu(t *testing.T) {
	m := newManager(t)
	rule, err := custom.NewRegexDeobfuscator(custom.Rule{
		Key:         "n",
		Name:        "strip-nul",
		Description: "Remove NUL characters",
		Pattern:     `\x00`,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.RegisterManual(rule.Key(), rule); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	script := &models.Script{Path: "x.ps1", Content: "I\x00E\x00X"}
	s := New(script, &config.Config{MaxDepth: 100}, m, strings.NewReader("N\nq\n"), &out, nil)

	run(t, s)

	if diff := cmp.Diff("IEX", s.Buffer()); diff != "" {
		t.Errorf("buffer mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(out.String(), "Remove NUL characters") {
		t.Error("custom rule missing from menu")
	}
}

func TestRun_Inspect(t *testing.T) {
	s, out := newTestSession(t, `("{1}{0}" -f 'b','a')`, "i\nq\n", nil)

	run(t, s)

	got := out.String()
	for _, want := range []string{"Buffer analysis", "Format ops", "normal", "1 (reorder)"} {
		if !strings.Contains(got, want) {
			t.Errorf("inspect output missing %q", want)
		}
	}
}

func TestMenu_ListsEveryAction(t *testing.T) {
	s, out := newTestSession(t, "", "q\n", nil)

	run(t, s)

	var keys []string
	for _, a := range s.menu {
		keys = append(keys, a.key)
	}
	want := []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "a", "i", "u", "r", "s", "q"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("menu keys mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(out.String(), "De-obfuscate PowerShell re-ordering") {
		t.Error("reorder entry missing from printed menu")
	}
}

func TestHistory_Limit(t *testing.T) {
	h := newHistory(2)
	h.push("a")
	h.push("b")
	h.push("c")

	if h.len() != 2 {
		t.Fatalf("len = %d, want 2", h.len())
	}
	for _, want := range []string{"c", "b"} {
		got, ok := h.pop()
		if !ok || got != want {
			t.Errorf("pop() = (%q, %v), want %q", got, ok, want)
		}
	}
	if _, ok := h.pop(); ok {
		t.Error("pop() on empty history returned ok")
	}
}
