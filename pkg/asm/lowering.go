package asm

import (
	"fmt"
	"strconv"

	"github.com/endlmk/nand2tetris/pkg/hack"
)

// ----------------------------------------------------------------------------
// Asm Lowerer

// The Lowerer takes an 'asm.Program' and produces its 'hack.Program' counterpart.
//
// This is the assembler's first pass: label declarations are stripped out of the
// instruction stream and recorded in a 'hack.SymbolTable' (each label binds to the
// address of the instruction that follows it), while A and C instructions are
// converted to their Hack counterparts. Variable allocation is deferred to the
// Hack codegen phase, which owns the second pass.
type Lowerer struct{ program Program }

// Initializes and returns to the caller a brand new 'Lowerer' struct.
// Requires the argument Program to be not nil nor empty.
func NewLowerer(p Program) Lowerer {
	return Lowerer{program: p}
}

// Triggers the lowering process. It iterates instruction by instruction and calls
// the specialized helper function based on the instruction type, accumulating the
// converted stream and the label symbol table as it goes.
func (l *Lowerer) Lower() (hack.Program, hack.SymbolTable, error) {
	converted, table := hack.Program{}, hack.SymbolTable{}

	if len(l.program) == 0 {
		return nil, nil, fmt.Errorf("the given 'program' is empty")
	}

	for _, inst := range l.program {
		switch tInst := inst.(type) {
		case AInstruction: // Converts 'asm.AInstruction' to 'hack.AInstruction'
			hackInst, err := l.HandleAInst(tInst)
			if err != nil {
				return nil, nil, err
			}
			converted = append(converted, hackInst)

		case CInstruction: // Converts 'asm.CInstruction' to 'hack.CInstruction'
			hackInst, err := l.HandleCInst(tInst)
			if err != nil {
				return nil, nil, err
			}
			converted = append(converted, hackInst)

		case LabelDecl: // Adds 'asm.LabelDecl' to the 'hack.SymbolTable'
			if tInst.Name == "" {
				return nil, nil, fmt.Errorf("unable to bind a label with an empty name")
			}
			table[tInst.Name] = uint16(len(converted))

		default: // Error case, unrecognized instruction type
			return nil, nil, fmt.Errorf("unrecognized instruction '%T'", inst)
		}
	}

	return converted, table, nil
}

// Specialized function to convert an 'asm.AInstruction' to a 'hack.AInstruction'.
//
// The location payload is classified here: predefined symbols are looked up in the
// Hack spec table, numeric payloads become raw addresses and everything else is a
// user defined label (or a variable, the codegen phase will tell them apart).
func (Lowerer) HandleAInst(inst AInstruction) (hack.Instruction, error) {
	if _, found := hack.PredefinedTable[inst.Location]; found {
		return hack.AInstruction{Kind: hack.Predefined, Symbol: inst.Location}, nil
	}
	if _, err := strconv.ParseUint(inst.Location, 10, 16); err == nil {
		return hack.AInstruction{Kind: hack.Address, Symbol: inst.Location}, nil
	}
	return hack.AInstruction{Kind: hack.UserLabel, Symbol: inst.Location}, nil
}

// Specialized function to convert an 'asm.CInstruction' to a 'hack.CInstruction'.
func (Lowerer) HandleCInst(inst CInstruction) (hack.Instruction, error) {
	if inst.Comp == "" { // Pre-check: CInstruction.Comp should always be provided
		return nil, fmt.Errorf("'comp' mnemonic should always be provided")
	}
	if inst.Dest == "" && inst.Jump == "" {
		return nil, fmt.Errorf("expected either a 'dest' or a 'jump' mnemonic")
	}

	return hack.CInstruction{Dest: inst.Dest, Comp: inst.Comp, Jump: inst.Jump}, nil
}
