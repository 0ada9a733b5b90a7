package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHandler(t *testing.T) {
	write := func(t *testing.T, dir, name, content string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}
		return path
	}

	t.Run("Single module translation", func(t *testing.T) {
		dir := t.TempDir()
		input := write(t, dir, "Main.vm", "push constant 7\npush constant 8\nadd\n")
		output := filepath.Join(dir, "Main.asm")

		if code := Handler([]string{input}, map[string]string{"output": output}); code != 0 {
			t.Fatalf("expected a zero exit code, got %d", code)
		}

		content, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("expected a translated output file: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(content)), "\r\n")
		if lines[0] != "@7" {
			t.Errorf("expected the translation to start with '@7', got %q", lines[0])
		}
		if !strings.Contains(string(content), "M=D+M") {
			t.Errorf("expected an in-place addition in the output")
		}
	})

	t.Run("Bootstrap comes first when requested", func(t *testing.T) {
		dir := t.TempDir()
		write(t, dir, "Sys.vm", "function Sys.init 0\nlabel HALT\ngoto HALT\n")
		output := filepath.Join(dir, "Sys.asm")

		options := map[string]string{"output": output, "bootstrap": "true"}
		if code := Handler([]string{dir}, options); code != 0 {
			t.Fatalf("expected a zero exit code, got %d", code)
		}

		content, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("expected a translated output file: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(content)), "\r\n")
		if lines[0] != "@256" {
			t.Errorf("expected the bootstrap to come first, got %q", lines[0])
		}
		if !strings.Contains(string(content), "@Sys.init") {
			t.Errorf("expected a call to Sys.init in the bootstrap")
		}
	})

	t.Run("Static slots stay per module", func(t *testing.T) {
		dir := t.TempDir()
		write(t, dir, "Alpha.vm", "pop static 0\n")
		write(t, dir, "Beta.vm", "pop static 0\n")
		output := filepath.Join(dir, "Out.asm")

		if code := Handler([]string{dir}, map[string]string{"output": output}); code != 0 {
			t.Fatalf("expected a zero exit code, got %d", code)
		}

		content, _ := os.ReadFile(output)
		if !strings.Contains(string(content), "@Alpha.0") || !strings.Contains(string(content), "@Beta.0") {
			t.Errorf("expected per-module static symbols in the output")
		}
	})

	t.Run("Missing output option", func(t *testing.T) {
		if code := Handler([]string{"whatever.vm"}, map[string]string{}); code == 0 {
			t.Errorf("expected a non-zero exit code without an output path")
		}
	})
}
