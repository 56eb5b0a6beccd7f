package integration

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestDeobCommand_FileNotFound(t *testing.T) {
	cmd := exec.Command("go", "run", "../../cmd/psdecode", "deob", "/nonexistent/file.ps1")
	output, err := cmd.CombinedOutput()

	if err == nil {
		t.Error("Expected error for nonexistent file, got nil")
	}

	if !strings.Contains(string(output), "file not found") {
		t.Errorf("Expected 'file not found' error, got: %s", output)
	}
}

func TestDeobCommand_NoObfuscation(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "clean.ps1")

	content := "Write-Host 'Hello World'\n$x = 1 + 2\n"
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	cmd := exec.Command("go", "run", "../../cmd/psdecode", "deob", tmpFile)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("Command failed: %v, stderr: %s", err, stderr.String())
	}

	if !strings.Contains(stderr.String(), "No obfuscation detected") {
		t.Errorf("Expected 'No obfuscation detected' warning, got stderr: %s", stderr.String())
	}

	if stdout.String() != content {
		t.Errorf("Expected original content on stdout, got: %q", stdout.String())
	}
}

func TestDeobCommand_AutoReorder(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "reorder.ps1")

	content := `&("{1}{0}" -f 'X',([char]73+'E')) ("{2}{0}{1}" -f 'str','ing','some')`
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	cmd := exec.Command("go", "run", "../../cmd/psdecode", "deob", tmpFile)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("Command failed: %v, stderr: %s", err, stderr.String())
	}

	if !strings.Contains(stderr.String(), "Deobfuscation applied") {
		t.Errorf("Expected 'Deobfuscation applied' message, got stderr: %s", stderr.String())
	}

	want := `&"IEX" "somestring"`
	if stdout.String() != want {
		t.Errorf("Expected %q on stdout, got: %q", want, stdout.String())
	}
}

func TestDeobCommand_RuleSequenceToFile(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "seq.ps1")
	outFile := filepath.Join(tmpDir, "out.ps1")

	content := "I`Nv`OkE-eXpReSsIoN ('Wr'+'ite-Host');$a=1\r\n"
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	cmd := exec.Command("go", "run", "../../cmd/psdecode", "deob", "--rules", "2,3,4,5", "-o", outFile, tmpFile)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("Command failed: %v, stderr: %s", err, stderr.String())
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	want := "invoke-expression ('write-host');\n$a=1\r\n"
	if string(data) != want {
		t.Errorf("Expected %q, got %q", want, string(data))
	}
}

func TestDeobCommand_UnknownRule(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "x.ps1")
	if err := os.WriteFile(tmpFile, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	cmd := exec.Command("go", "run", "../../cmd/psdecode", "deob", "--rules", "9", tmpFile)
	output, err := cmd.CombinedOutput()

	if err == nil {
		t.Error("Expected error for unknown rule key, got nil")
	}
	if !strings.Contains(string(output), `no deobfuscator bound to key "9"`) {
		t.Errorf("Expected unknown key error, got: %s", output)
	}
}

func TestDeobCommand_NoArgs(t *testing.T) {
	cmd := exec.Command("go", "run", "../../cmd/psdecode", "deob")
	output, err := cmd.CombinedOutput()

	if err == nil {
		t.Error("Expected error when no file argument provided, got nil")
	}

	// Cobra should show usage error
	if !strings.Contains(string(output), "accepts 1 arg") {
		t.Errorf("Expected argument error, got: %s", output)
	}
}

func TestDeobCommand_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "empty.ps1")

	if err := os.WriteFile(tmpFile, []byte(""), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	cmd := exec.Command("go", "run", "../../cmd/psdecode", "deob", tmpFile)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("Command failed: %v, stderr: %s", err, stderr.String())
	}

	if !strings.Contains(stderr.String(), "No obfuscation detected") {
		t.Errorf("Expected 'No obfuscation detected' for empty file, got stderr: %s", stderr.String())
	}
}

func TestSession_ScriptedInput(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "in.ps1")
	outFile := filepath.Join(tmpDir, "out.ps1")

	if err := os.WriteFile(tmpFile, []byte("W`rite-H`ost ('b'+'a')"), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	cmd := exec.Command("go", "run", "../../cmd/psdecode", "--no-color", "-i", tmpFile, "-o", outFile)
	cmd.Stdin = strings.NewReader("x\n2\n3\ns\nq\n")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("Command failed: %v, stderr: %s", err, stderr.String())
	}

	if !strings.Contains(stdout.String(), "Invalid option, please try again.") {
		t.Error("Expected invalid option message")
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if string(data) != "Write-Host ('ba')" {
		t.Errorf("Expected saved buffer, got %q", string(data))
	}
}
