package vm

// ----------------------------------------------------------------------------
// General information

// This section contains some general information about the VM intermediate language.
//
// We declare a shared 'Operation' interface for every macro operation available for
// the language and some other useful top-level structs such as Program and Module.
// Is important to note that a VM program can be composed of multiple translation
// units (also referenced as files, modules or classes) that are parsed and compiled
// independently and only put together by the translator stage.

// A VM Program is just a set of multiple modules/files keyed by their translation
// unit name. In the VM spec each Jack class is compiled to its own .vm file (just
// like a Java .class file); the unit name also prefixes the 'static' segment slots.
type Program map[string]Module

// A VM Module is just a linear list of VM operations/instructions.
type Module []Operation

// Used to put together all operations in the VM language (Memory, Arithmetic, ...).
type Operation interface{}

// ----------------------------------------------------------------------------
// Memory Op

// In memory representation of a Memory operation for the VM language.
//
// In the VM intermediate language there are only two possible memory operations on
// the stack: push a new value taken from the specified segment location onto the
// stack's top, or take the stack's top and save it at the specified segment location.
type MemoryOp struct {
	Operation OperationType // The type of operation, either 'push' or 'pop'
	Segment   SegmentType   // The named memory segment to use (this, that, temp, ...)
	Offset    uint16        // The specific location/offset inside of the memory segment
}

type OperationType string // Enum to manage the operation allowed for a MemoryOp

const (
	Push OperationType = "push"
	Pop  OperationType = "pop"
)

type SegmentType string // Enum to manage the segments accessible from a MemoryOp

const (
	Temp     SegmentType = "temp"     // Real segment used to store intermediate computations
	Constant SegmentType = "constant" // Virtual segment used to access numeric constants

	Local    SegmentType = "local"    // Real segment used to store local function variables
	Static   SegmentType = "static"   // Real segment used to store shared/static variables
	Argument SegmentType = "argument" // Real segment used to store function's arguments

	This    SegmentType = "this"    // Virtual segment addressed through the 'this' pointer
	That    SegmentType = "that"    // Virtual segment addressed through the 'that' pointer
	Pointer SegmentType = "pointer" // Real segment w/ 2 locations used to set the 'this' and 'that' pointers
)

// ----------------------------------------------------------------------------
// Arithmetic Op

// In memory representation of an Arithmetic operation for the VM language.
//
// There are just a handful of operations available, each one acting directly on the
// top of the stack. Both unary and binary operations exist, the specific management
// of each op is handled in the lowering phase of the translator.
type ArithmeticOp struct{ Operation ArithOpType }

type ArithOpType string // Enum to manage the operations allowed for an ArithmeticOp

const (
	Eq ArithOpType = "eq" // Comparison operations
	Gt ArithOpType = "gt"
	Lt ArithOpType = "lt"

	Add ArithOpType = "add" // Arithmetic operations
	Sub ArithOpType = "sub"
	Neg ArithOpType = "neg"

	Not ArithOpType = "not" // Bitwise operations
	And ArithOpType = "and"
	Or  ArithOpType = "or"
)

// ----------------------------------------------------------------------------
// Branching Ops

// In memory representation of a label declaration for the VM language.
//
// Labels are scoped to the function they appear in: the translator mangles them
// with the enclosing function name so that the same label can be reused across
// functions without clashes in the final assembly.
type LabelDecl struct {
	Name string // The symbol/ident chosen for the label
}

// In memory representation of a jump operation for the VM language.
//
// A jump can be unconditional ('goto') or conditional ('if-goto'), the latter pops
// the stack's top and jumps only when the popped value is non-zero.
type GotoOp struct {
	Label string   // The destination label, must be declared in the same function
	Jump  JumpType // Whether the jump is conditional on the stack's top or not
}

type JumpType string // Enum to manage the jump variants allowed for a GotoOp

const (
	Unconditional JumpType = "goto"
	Conditional   JumpType = "if-goto"
)

// ----------------------------------------------------------------------------
// Function Ops

// In memory representation of a function declaration for the VM language.
//
// A declaration marks the entry point of a function and carries the number of
// local variables to be zero-initialized on the callee's frame.
type FuncDecl struct {
	Name    string // Fully qualified name, by convention 'Class.subroutine'
	NLocals uint16 // How many 'local' segment slots the function needs
}

// In memory representation of a function call operation for the VM language.
//
// The caller has already pushed the arguments on the stack; 'NArgs' tells the
// translator how far back the callee's 'argument' segment starts.
type FuncCallOp struct {
	Name  string // Fully qualified name of the callee
	NArgs uint16 // How many arguments have been pushed by the caller
}

// In memory representation of a return operation for the VM language. The return
// value is whatever sits on top of the stack when the operation executes.
type ReturnOp struct{}
