package asm

import (
	"fmt"

	"github.com/endlmk/nand2tetris/pkg/hack"
)

// ----------------------------------------------------------------------------
// Code Generator

// Takes an 'asm.Program' and spits out its textual counterpart, line by line.
//
// This is the surface used by the VM translator: the lowered instruction stream is
// rendered back to Hack assembly text that the assembler stage (or the reference
// tools) can consume. The translation needs no additional state but the program.
type CodeGenerator struct {
	program Program // The set of instructions to render in the Asm text format
}

// Initializes and returns to the caller a brand new 'CodeGenerator' struct.
// Requires that argument Program 'p' (what we want to render) is non-nil.
func NewCodeGenerator(p Program) CodeGenerator {
	return CodeGenerator{program: p}
}

// Renders each instruction in the 'program' to the Asm text format.
//
// Each instruction goes through evaluation, validation and then conversion to its
// textual representation (a string per line) so that it can be further elaborated
// by the caller (e.g. dumping to an .asm file).
func (cg *CodeGenerator) Generate() ([]string, error) {
	asm := make([]string, 0, len(cg.program))

	for _, inst := range cg.program {
		var generated string
		var err error

		switch tInst := inst.(type) {
		case AInstruction:
			generated, err = cg.GenerateAInst(tInst)
		case CInstruction:
			generated, err = cg.GenerateCInst(tInst)
		case LabelDecl:
			generated, err = cg.GenerateLabelDecl(tInst)
		default:
			err = fmt.Errorf("unrecognized instruction '%T'", inst)
		}

		if err != nil {
			return nil, err
		}
		asm = append(asm, generated)
	}

	return asm, nil
}

// Specialized function to render an A Instruction in the Asm text format.
func (CodeGenerator) GenerateAInst(inst AInstruction) (string, error) {
	if inst.Location == "" {
		return "", fmt.Errorf("unable to render an A instruction with an empty location")
	}

	return fmt.Sprintf("@%s", inst.Location), nil
}

// Specialized function to render a C Instruction in the Asm text format.
func (CodeGenerator) GenerateCInst(inst CInstruction) (string, error) {
	if inst.Comp == "" {
		return "", fmt.Errorf("expected 'comp' mnemonic in C instruction")
	}

	if inst.Dest != "" && inst.Jump == "" {
		return fmt.Sprintf("%s=%s", inst.Dest, inst.Comp), nil
	}
	if inst.Jump != "" && inst.Dest == "" {
		return fmt.Sprintf("%s;%s", inst.Comp, inst.Jump), nil
	}

	return "", fmt.Errorf("expected either a 'dest' or a 'jump' mnemonic in C instruction")
}

// Specialized function to render a label declaration in the Asm text format.
func (CodeGenerator) GenerateLabelDecl(inst LabelDecl) (string, error) {
	if inst.Name == "" {
		return "", fmt.Errorf("unable to render a label declaration with an empty name")
	}
	if _, found := hack.PredefinedTable[inst.Name]; found {
		return "", fmt.Errorf("unable to override predefined symbol '%s'", inst.Name)
	}

	return fmt.Sprintf("(%s)", inst.Name), nil
}
