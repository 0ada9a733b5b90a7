package hack

// ----------------------------------------------------------------------------
// General information

// This section contains some general information about the Hack instruction set.
//
// The Hack computer understands exactly two instruction forms, both 16 bit wide.
// We declare a shared 'Instruction' interface for the two of them plus the support
// types needed by the later codegen phase (the symbol table for user labels and
// the classification of the location referenced by an A Instruction).

// Just used to put together A and C instructions, use a type switch to disambiguate.
type Instruction interface{}

// A Hack Program is a linear list of instructions, label declarations have already
// been resolved away by the assembler's lowering phase at this point.
type Program []Instruction

// Maps user defined labels to the address of the instruction that follows them.
// It is produced during the lowering phase (first pass) and consumed during the
// codegen phase to resolve 'UserLabel' locations in A Instructions.
type SymbolTable map[string]uint16

// An A Instruction always has the opcode bit set to zero, which leaves 15 bit for
// the address payload, 'MaxAddressable' and everything above it are out of bound.
const MaxAddressable uint16 = 1 << 15

// ----------------------------------------------------------------------------
// A Instructions

// In memory representation of an A Instruction for the Hack architecture spec.
//
// An A Instruction loads a location into the CPU's address register. The location
// can be spelled in the source program in three different ways, each one resolved
// differently during the codegen phase:
// - A raw numeric address (e.g. '@256', '@42')
// - A user defined label or variable (e.g. '@LOOP', '@sum')
// - A predefined symbol from the Hack spec (e.g. '@SP', '@KBD', '@R13')
type AInstruction struct {
	Kind   LocationKind // How the 'Symbol' payload has to be resolved to an address
	Symbol string       // The raw payload as it appeared in the assembly source
}

type LocationKind uint8 // Enum to classify the location referenced by an A Instruction

const (
	Address    LocationKind = iota // Numeric literal, translated as-is
	UserLabel                      // User given name, resolved via the SymbolTable (or allocated as a variable)
	Predefined                     // Built-in symbol of the Hack spec, resolved via the PredefinedTable
)

// ----------------------------------------------------------------------------
// C Instructions

// In memory representation of a C Instruction for the Hack architecture spec.
//
// A C Instruction drives the ALU: it selects the computation to perform, where to
// store the result and on which condition to jump. Each mnemonic sub-field has its
// own translation table ('CompTable', 'DestTable' and 'JumpTable' in codegen.go).
type CInstruction struct {
	Comp string // The 'computation' mnemonic, always required (e.g. 'D+M', '0')
	Dest string // The 'destination' mnemonic, may be empty (e.g. 'D', 'AM')
	Jump string // The 'jump' mnemonic, may be empty (e.g. 'JMP', 'JEQ')
}
