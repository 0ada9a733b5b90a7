package hack_test

import (
	"testing"

	"github.com/endlmk/nand2tetris/pkg/hack"
)

func TestAInstructionEncoding(t *testing.T) {
	test := func(cg *hack.CodeGenerator, inst hack.AInstruction, expected string, fail bool) {
		generated, err := cg.GenerateAInst(inst)
		if generated != expected {
			t.Errorf("expected '%s', got '%s'", expected, generated)
		}
		if fail && err == nil {
			t.Errorf("expected an error for %+v, got none", inst)
		}
		if !fail && err != nil {
			t.Errorf("expected no error for %+v, got %v", inst, err)
		}
	}

	t.Run("Raw addresses", func(t *testing.T) {
		cg := hack.NewCodeGenerator(nil, nil)

		test(&cg, hack.AInstruction{Kind: hack.Address, Symbol: "0"}, "0000000000000000", false)
		test(&cg, hack.AInstruction{Kind: hack.Address, Symbol: "2"}, "0000000000000010", false)
		test(&cg, hack.AInstruction{Kind: hack.Address, Symbol: "16384"}, "0100000000000000", false)
		test(&cg, hack.AInstruction{Kind: hack.Address, Symbol: "not_a_number"}, "", true)
	})

	t.Run("Predefined symbols", func(t *testing.T) {
		cg := hack.NewCodeGenerator(nil, nil)

		test(&cg, hack.AInstruction{Kind: hack.Predefined, Symbol: "SP"}, "0000000000000000", false)
		test(&cg, hack.AInstruction{Kind: hack.Predefined, Symbol: "THAT"}, "0000000000000100", false)
		test(&cg, hack.AInstruction{Kind: hack.Predefined, Symbol: "R13"}, "0000000000001101", false)
		test(&cg, hack.AInstruction{Kind: hack.Predefined, Symbol: "SCREEN"}, "0100000000000000", false)
		test(&cg, hack.AInstruction{Kind: hack.Predefined, Symbol: "KBD"}, "0110000000000000", false)
		test(&cg, hack.AInstruction{Kind: hack.Predefined, Symbol: "NOPE"}, "", true)
	})

	t.Run("Labels resolve through the symbol table", func(t *testing.T) {
		cg := hack.NewCodeGenerator(nil, hack.SymbolTable{"LOOP": 6})

		test(&cg, hack.AInstruction{Kind: hack.UserLabel, Symbol: "LOOP"}, "0000000000000110", false)
	})

	t.Run("Variables allocate from 16 in first-use order", func(t *testing.T) {
		cg := hack.NewCodeGenerator(nil, hack.SymbolTable{})

		test(&cg, hack.AInstruction{Kind: hack.UserLabel, Symbol: "first"}, "0000000000010000", false)
		test(&cg, hack.AInstruction{Kind: hack.UserLabel, Symbol: "second"}, "0000000000010001", false)
		// A repeated use lands on the already allocated slot
		test(&cg, hack.AInstruction{Kind: hack.UserLabel, Symbol: "first"}, "0000000000010000", false)
	})
}

func TestCInstructionEncoding(t *testing.T) {
	cg := hack.NewCodeGenerator(nil, nil)

	test := func(inst hack.CInstruction, expected string, fail bool) {
		generated, err := cg.GenerateCInst(inst)
		if generated != expected {
			t.Errorf("expected '%s', got '%s'", expected, generated)
		}
		if fail && err == nil {
			t.Errorf("expected an error for %+v, got none", inst)
		}
		if !fail && err != nil {
			t.Errorf("expected no error for %+v, got %v", inst, err)
		}
	}

	t.Run("Assignments", func(t *testing.T) {
		test(hack.CInstruction{Dest: "D", Comp: "M"}, "1111110000010000", false)
		test(hack.CInstruction{Dest: "D", Comp: "D+M"}, "1111000010010000", false)
		test(hack.CInstruction{Dest: "M", Comp: "M-D"}, "1111000111001000", false)
		test(hack.CInstruction{Dest: "AM", Comp: "M-1"}, "1111110010101000", false)
		test(hack.CInstruction{Dest: "M", Comp: "0"}, "1110101010001000", false)
		test(hack.CInstruction{Dest: "M", Comp: "-1"}, "1110111010001000", false)
	})

	t.Run("Jumps", func(t *testing.T) {
		test(hack.CInstruction{Comp: "0", Jump: "JMP"}, "1110101010000111", false)
		test(hack.CInstruction{Comp: "D", Jump: "JEQ"}, "1110001100000010", false)
		test(hack.CInstruction{Comp: "D", Jump: "JNE"}, "1110001100000101", false)
	})

	t.Run("Malformed mnemonics", func(t *testing.T) {
		test(hack.CInstruction{Dest: "D"}, "", true)
		test(hack.CInstruction{Dest: "X", Comp: "M"}, "", true)
		test(hack.CInstruction{Comp: "M", Jump: "JXX"}, "", true)
	})
}

func TestProgramGeneration(t *testing.T) {
	program := hack.Program{
		hack.AInstruction{Kind: hack.Address, Symbol: "2"},
		hack.CInstruction{Dest: "D", Comp: "A"},
		hack.AInstruction{Kind: hack.Predefined, Symbol: "R0"},
		hack.CInstruction{Dest: "M", Comp: "D"},
	}

	cg := hack.NewCodeGenerator(program, nil)
	lines, err := cg.Generate()
	if err != nil {
		t.Fatalf("expected a clean generation, got error: %v", err)
	}

	expected := []string{
		"0000000000000010",
		"1110110000010000",
		"0000000000000000",
		"1110001100001000",
	}
	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines, got %d", len(expected), len(lines))
	}
	for i, line := range lines {
		if line != expected[i] {
			t.Errorf("line %d: expected '%s', got '%s'", i, expected[i], line)
		}
	}
}
