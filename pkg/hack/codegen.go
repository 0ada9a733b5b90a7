package hack

import (
	"fmt"
	"strconv"
)

// ----------------------------------------------------------------------------
// Translation tables

// This section contains the translation tables cornerstone of the codegen phase.
//
// Everything built-in in the Hack specification is resolved through a plain lookup,
// notably we have the following tables defined:
// - 'PredefinedTable': Resolves the predefined symbols usable in A Instructions
// - 'CompTable': Translates the 'Comp' mnemonic of a C Instruction to its bit-codes
// - 'DestTable': Translates the 'Dest' mnemonic of a C Instruction to its bit-codes
// - 'JumpTable': Translates the 'Jump' mnemonic of a C Instruction to its bit-codes

var (
	PredefinedTable = map[string]uint16{
		// Virtual Machine specific aliases (see project 7)
		"SP": 0, "LCL": 1, "ARG": 2, "THIS": 3, "THAT": 4,
		// Named general purpose registers
		"R0": 0, "R1": 1, "R2": 2, "R3": 3, "R4": 4, "R5": 5,
		"R6": 6, "R7": 7, "R8": 8, "R9": 9, "R10": 10, "R11": 11,
		"R12": 12, "R13": 13, "R14": 14, "R15": 15,
		// Memory mapped I/O locations
		"SCREEN": 16384, "KBD": 24576,
	}

	CompTable = map[string]uint16{
		// - Constants and identities
		"0": 0b0101010, "1": 0b0111111, "-1": 0b0111010,
		"D": 0b0001100, "A": 0b0110000, "M": 0b1110000,
		// - Binary and numerical negations
		"!D": 0b0001101, "!A": 0b0110001, "!M": 0b1110001,
		"-D": 0b0001111, "-A": 0b0110011, "-M": 0b1110011,
		// - Increment and decrement operations
		"D+1": 0b0011111, "A+1": 0b0110111, "M+1": 0b1110111,
		"D-1": 0b0001110, "A-1": 0b0110010, "M-1": 0b1110010,
		// - Register with register operations
		"D+A": 0b0000010, "D+M": 0b1000010,
		"D-A": 0b0010011, "D-M": 0b1010011,
		"A-D": 0b0000111, "M-D": 0b1000111,
		// - Bitwise register with register operations
		"D&A": 0b0000000, "D&M": 0b1000000,
		"D|A": 0b0010101, "D|M": 0b1010101,
	}

	DestTable = map[string]uint16{
		"": 0b000, "M": 0b001, "D": 0b010, "A": 0b100,
		"MD": 0b011, "AM": 0b101, "AD": 0b110, "AMD": 0b111,
	}

	JumpTable = map[string]uint16{
		"": 0b000, "JGT": 0b001, "JEQ": 0b010, "JGE": 0b011,
		"JLT": 0b100, "JNE": 0b101, "JLE": 0b110, "JMP": 0b111,
	}
)

// ----------------------------------------------------------------------------
// Code Generator

// Takes a 'hack.Program' and spits out its binary counterpart, line by line.
//
// User defined labels are resolved against the SymbolTable handed over by the
// assembler's lowering phase, names absent from it are treated as variables and
// allocated from address 16 onwards in first-use order (the classic second pass).
type CodeGenerator struct {
	program Program     // The set of instructions to convert to the Hack binary format
	table   SymbolTable // Mapping to resolve user-defined labels to their address
	nVars   uint16      // How many variables have been allocated from address 16 so far
}

// Initializes and returns to the caller a brand new 'CodeGenerator' struct.
// Requires a non-nil Program 'p' (what we want to translate) as well as an
// optionally nullable SymbolTable 'st' used to resolve user defined labels.
func NewCodeGenerator(p Program, st SymbolTable) CodeGenerator {
	if st == nil {
		st = SymbolTable{}
	}
	return CodeGenerator{program: p, table: st}
}

// Translates each instruction in the 'program' to the Hack binary format.
//
// Each instruction goes through evaluation, validation and then conversion to its
// binary representation (rendered as a 16 char '0'/'1' string) so that it can be
// further elaborated by the caller (e.g. dumping to a .hack file).
func (cg *CodeGenerator) Generate() ([]string, error) {
	hack := make([]string, 0, len(cg.program))

	for _, instruction := range cg.program {
		var generated string
		var err error

		switch tInstruction := instruction.(type) {
		case AInstruction:
			generated, err = cg.GenerateAInst(tInstruction)
		case CInstruction:
			generated, err = cg.GenerateCInst(tInstruction)
		default:
			err = fmt.Errorf("unrecognized instruction '%T'", instruction)
		}

		if err != nil {
			return nil, err
		}
		hack = append(hack, generated)
	}

	return hack, nil
}

// Specialized function to convert an A Instruction to the Hack binary format.
//
// Based on the 'Kind' of the location the address is either parsed directly, taken
// from the predefined table or resolved through the user label table. A user label
// missing from the table is a variable: it gets the next free address from 16 on
// and the table is updated so later references land on the same location.
func (cg *CodeGenerator) GenerateAInst(inst AInstruction) (string, error) {
	found, address := false, uint16(0)

	switch inst.Kind {
	case Address:
		num, err := strconv.ParseUint(inst.Symbol, 10, 16)
		address, found = uint16(num), err == nil
	case UserLabel:
		address, found = cg.table[inst.Symbol]
		if !found {
			address, found = 16+cg.nVars, true
			cg.table[inst.Symbol] = address
			cg.nVars++
		}
	case Predefined:
		address, found = PredefinedTable[inst.Symbol]
	}

	if !found {
		return "", fmt.Errorf("unable to resolve address for location '%s'", inst.Symbol)
	}
	if address >= MaxAddressable {
		return "", fmt.Errorf("location '%s' resolved to an out of bound address", inst.Symbol)
	}

	// An A Instruction is just the 15 bit address with the leading opcode bit at zero.
	return fmt.Sprintf("%016b", address), nil
}

// Specialized function to convert a C Instruction to the Hack binary format.
//
// The three mnemonic sub-fields are translated independently through their tables
// and packed together after the fixed '111' opcode prefix. 'Comp' is mandatory,
// 'Dest' and 'Jump' default to their all-zeros encodings when left empty.
func (cg *CodeGenerator) GenerateCInst(inst CInstruction) (string, error) {
	command := uint16(0b111 << 13)

	comp, found := CompTable[inst.Comp]
	if inst.Comp == "" || !found {
		return "", fmt.Errorf("unknown 'comp' mnemonic '%s' in C instruction", inst.Comp)
	}
	command |= comp << 6

	dest, found := DestTable[inst.Dest]
	if !found {
		return "", fmt.Errorf("unknown 'dest' mnemonic '%s' in C instruction", inst.Dest)
	}
	command |= dest << 3

	jump, found := JumpTable[inst.Jump]
	if !found {
		return "", fmt.Errorf("unknown 'jump' mnemonic '%s' in C instruction", inst.Jump)
	}
	command |= jump

	return fmt.Sprintf("%016b", command), nil
}
