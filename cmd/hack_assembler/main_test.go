package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHandler(t *testing.T) {
	t.Run("Assembles symbols, labels and variables", func(t *testing.T) {
		dir := t.TempDir()

		input := filepath.Join(dir, "Sum.asm")
		source := strings.Join([]string{
			"// Sums RAM[0] and RAM[1] into a variable",
			"@R0",
			"D=M",
			"@R1",
			"D=D+M",
			"@sum",
			"M=D",
			"(END)",
			"@END",
			"0;JMP",
		}, "\n")
		if err := os.WriteFile(input, []byte(source), 0o644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		output := filepath.Join(dir, "Sum.hack")
		if code := Handler([]string{input, output}, map[string]string{}); code != 0 {
			t.Fatalf("expected a zero exit code, got %d", code)
		}

		content, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("expected an assembled output file: %v", err)
		}

		expected := []string{
			"0000000000000000", // @R0
			"1111110000010000", // D=M
			"0000000000000001", // @R1
			"1111000010010000", // D=D+M
			"0000000000010000", // @sum (first variable, address 16)
			"1110001100001000", // M=D
			"0000000000000110", // @END (label bound to address 6)
			"1110101010000111", // 0;JMP
		}
		lines := strings.Split(strings.TrimSpace(string(content)), "\r\n")
		if len(lines) != len(expected) {
			t.Fatalf("expected %d instructions, got %d", len(expected), len(lines))
		}
		for i, line := range lines {
			if line != expected[i] {
				t.Errorf("instruction %d: expected %s, got %s", i, expected[i], line)
			}
		}
	})

	t.Run("Missing input file", func(t *testing.T) {
		if code := Handler([]string{"nope.asm", "nope.hack"}, map[string]string{}); code == 0 {
			t.Errorf("expected a non-zero exit code for a missing input")
		}
	})
}
