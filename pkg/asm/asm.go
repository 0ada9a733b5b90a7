package asm

// ----------------------------------------------------------------------------
// General information

// This section contains some general information about the Asm language.
//
// We declare a shared 'Instruction' interface for label declarations, A and C
// instructions. Labels name code locations so that arbitrary jumps can reference
// them, this in turn enables iterations and conditionals both here and at the
// upper levels of the stack (VM translator, Jack compiler).

// Just used to put together label declarations, A and C instructions.
type Instruction interface{}

// An Asm Program is a flat list of instructions and label declarations, in the
// order they appear in the source file (or in the order they were generated by
// the VM translator's lowering phase).
type Program []Instruction

// ----------------------------------------------------------------------------
// Label Declarations

// In memory representation of a '(LABEL)' declaration in the Asm language.
//
// A declaration binds the user chosen name to the address of the instruction that
// follows it. The binding itself happens during the lowering phase (first pass),
// where a symbol table is built for the codegen phase to consume.
type LabelDecl struct {
	Name string // The symbol/ident chosen by the user for the label
}

// ----------------------------------------------------------------------------
// A Instructions

// In memory representation of an '@location' instruction in the Asm language.
//
// The location payload is kept verbatim: it may be a raw address, a predefined
// symbol or a user defined label/variable. The classification between the three
// is a lowering concern, not a parsing one.
type AInstruction struct {
	Location string // A generic payload (the label/predefined/raw symbol)
}

// ----------------------------------------------------------------------------
// C Instructions

// In memory representation of a 'dest=comp;jump' instruction in the Asm language.
//
// Both the 'dest=' prefix and the ';jump' suffix are optional in the source, the
// 'comp' part is always present. The mnemonics are validated during the codegen
// phase of the Hack stage against its translation tables.
type CInstruction struct {
	Dest string // The 'destination' mnemonic, empty when the result is discarded
	Comp string // The 'computation' mnemonic, always provided
	Jump string // The 'jump' mnemonic, empty for fall-through instructions
}
