package vm

import (
	"fmt"
	"sort"

	"github.com/endlmk/nand2tetris/pkg/asm"
)

// ----------------------------------------------------------------------------
// Vm Lowerer

// The Lowerer takes a 'vm.Program' and produces its 'asm.Program' counterpart.
//
// Each operation expands to a fixed sequence of Hack assembly instructions; the
// only state carried across operations is the name of the translation unit being
// lowered (the 'static' segment slots are named '{unit}.{offset}'), the enclosing
// function (labels are mangled as '{function}${label}') and a counter used to make
// the internally generated labels (comparisons, return addresses) unique.
type Lowerer struct {
	program Program // The set of modules to lower, must be not nil nor empty

	unit     string // Translation unit currently being lowered
	function string // Function currently being lowered, empty outside any FuncDecl
	nLabels  uint   // Monotonic counter to disambiguate generated labels
}

// Initializes and returns to the caller a brand new 'Lowerer' struct.
// Requires the argument Program to be not nil nor empty.
func NewLowerer(p Program) Lowerer {
	return Lowerer{program: p}
}

// Triggers the lowering process. Modules are lowered one after the other in
// lexicographic unit order so that the same input always yields the same output
// (the Go built-in map iteration order would make builds non-reproducible, the
// generated label counter would be incremented in a different order every run).
func (l *Lowerer) Lower() (asm.Program, error) {
	program := asm.Program{}
	if len(l.program) == 0 {
		return nil, fmt.Errorf("the given 'program' is empty or nil")
	}

	units := make([]string, 0, len(l.program))
	for unit := range l.program {
		units = append(units, unit)
	}
	sort.Strings(units)

	for _, unit := range units {
		l.unit, l.function = unit, ""

		for _, operation := range l.program[unit] {
			instructions, err := l.HandleOperation(operation)
			if err != nil {
				return nil, fmt.Errorf("error lowering module '%s': %w", unit, err)
			}
			program = append(program, instructions...)
		}
	}

	return program, nil
}

// Generalized function to lower any operation type to an 'asm.Instruction' list.
func (l *Lowerer) HandleOperation(op Operation) ([]asm.Instruction, error) {
	switch tOp := op.(type) {
	case MemoryOp:
		return l.HandleMemoryOp(tOp)
	case ArithmeticOp:
		return l.HandleArithmeticOp(tOp)
	case LabelDecl:
		return l.HandleLabelDecl(tOp)
	case GotoOp:
		return l.HandleGotoOp(tOp)
	case FuncDecl:
		return l.HandleFuncDecl(tOp)
	case FuncCallOp:
		return l.HandleFuncCallOp(tOp)
	case ReturnOp:
		return l.HandleReturnOp(tOp)
	default:
		return nil, fmt.Errorf("unrecognized operation '%T'", op)
	}
}

// Shared tail sequence that pushes the D register onto the stack.
func pushD() []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
	}
}

// Resolves the direct RAM location backing a 'temp', 'pointer' or 'static' access.
// The three segments have no base pointer indirection: 'temp' is fixed at RAM[5..12],
// 'pointer' aliases THIS/THAT and 'static' slots are named symbols of the unit.
func (l *Lowerer) directLocation(segment SegmentType, offset uint16) (string, error) {
	switch segment {
	case Temp:
		if offset > 7 {
			return "", fmt.Errorf("invalid 'temp' offset, got %d", offset)
		}
		return fmt.Sprint(5 + offset), nil
	case Pointer:
		if offset > 1 {
			return "", fmt.Errorf("invalid 'pointer' offset, got %d", offset)
		}
		if offset == 0 {
			return "THIS", nil
		}
		return "THAT", nil
	case Static:
		return fmt.Sprintf("%s.%d", l.unit, offset), nil
	}

	return "", fmt.Errorf("segment '%s' has no direct location", segment)
}

// Resolves the base pointer register backing an indirect segment access.
var basePointers = map[SegmentType]string{
	Local: "LCL", Argument: "ARG", This: "THIS", That: "THAT",
}

// Specialized function to lower a 'vm.MemoryOp' to a list of 'asm.Instruction'.
//
// Three shapes exist: 'constant' only supports push (the literal goes through the
// A register), the pointer-based segments walk '{base} + offset' and the direct
// segments address their backing RAM location (or named symbol) straight away.
// Popping into a pointer-based segment parks the destination address in R13 while
// the stack's top is being fetched.
func (l *Lowerer) HandleMemoryOp(op MemoryOp) ([]asm.Instruction, error) {
	if op.Segment == Constant {
		if op.Operation != Push {
			return nil, fmt.Errorf("the 'constant' segment only supports push operations")
		}
		return append([]asm.Instruction{
			asm.AInstruction{Location: fmt.Sprint(op.Offset)},
			asm.CInstruction{Dest: "D", Comp: "A"},
		}, pushD()...), nil
	}

	if base, indirect := basePointers[op.Segment]; indirect {
		if op.Operation == Push {
			return append([]asm.Instruction{
				asm.AInstruction{Location: fmt.Sprint(op.Offset)},
				asm.CInstruction{Dest: "D", Comp: "A"},
				asm.AInstruction{Location: base},
				asm.CInstruction{Dest: "A", Comp: "D+M"},
				asm.CInstruction{Dest: "D", Comp: "M"},
			}, pushD()...), nil
		}

		return []asm.Instruction{
			// R13 = base + offset (the destination address)
			asm.AInstruction{Location: fmt.Sprint(op.Offset)},
			asm.CInstruction{Dest: "D", Comp: "A"},
			asm.AInstruction{Location: base},
			asm.CInstruction{Dest: "D", Comp: "D+M"},
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "M", Comp: "D"},
			// D = popped stack top, then *R13 = D
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "A", Comp: "M"},
			asm.CInstruction{Dest: "M", Comp: "D"},
		}, nil
	}

	location, err := l.directLocation(op.Segment, op.Offset)
	if err != nil {
		return nil, err
	}

	if op.Operation == Push {
		return append([]asm.Instruction{
			asm.AInstruction{Location: location},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}, pushD()...), nil
	}

	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: location},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}, nil
}

// In-place ALU computations for the binary and unary arithmetic operations. The
// comparison operations (eq, gt, lt) are absent on purpose, they need jumps.
var (
	binaryComps = map[ArithOpType]string{Add: "D+M", Sub: "M-D", And: "D&M", Or: "D|M"}
	unaryComps  = map[ArithOpType]string{Neg: "-M", Not: "!M"}
	cmpJumps    = map[ArithOpType]string{Eq: "JEQ", Gt: "JGT", Lt: "JLT"}
)

// Specialized function to lower a 'vm.ArithmeticOp' to a list of 'asm.Instruction'.
//
// Binary operations pop one operand into D and combine it with the new stack top in
// place; unary operations rewrite the top in place. Comparisons compute 'x - y' and
// fork on the sign through a pair of generated labels, leaving the VM truth values
// (-1 for true, 0 for false) on the stack.
func (l *Lowerer) HandleArithmeticOp(op ArithmeticOp) ([]asm.Instruction, error) {
	if comp, isBinary := binaryComps[op.Operation]; isBinary {
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.CInstruction{Dest: "A", Comp: "A-1"},
			asm.CInstruction{Dest: "M", Comp: comp},
		}, nil
	}

	if comp, isUnary := unaryComps[op.Operation]; isUnary {
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M-1"},
			asm.CInstruction{Dest: "M", Comp: comp},
		}, nil
	}

	jump, isCmp := cmpJumps[op.Operation]
	if !isCmp {
		return nil, fmt.Errorf("unrecognized arithmetic operation '%s'", op.Operation)
	}

	truthy := fmt.Sprintf("CMP_TRUE_%d", l.nLabels)
	done := fmt.Sprintf("CMP_END_%d", l.nLabels)
	l.nLabels++

	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.CInstruction{Dest: "A", Comp: "A-1"},
		asm.CInstruction{Dest: "D", Comp: "M-D"},
		asm.AInstruction{Location: truthy},
		asm.CInstruction{Comp: "D", Jump: jump},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: "0"},
		asm.AInstruction{Location: done},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: truthy},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: "-1"},
		asm.LabelDecl{Name: done},
	}, nil
}

// Mangles a user label with the name of the enclosing function, per the VM spec
// labels are function scoped and can be reused across functions.
func (l *Lowerer) scopedLabel(label string) string {
	if l.function == "" {
		return label
	}
	return fmt.Sprintf("%s$%s", l.function, label)
}

// Specialized function to lower a 'vm.LabelDecl' to a list of 'asm.Instruction'.
func (l *Lowerer) HandleLabelDecl(op LabelDecl) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to lower an empty label declaration")
	}

	return []asm.Instruction{asm.LabelDecl{Name: l.scopedLabel(op.Name)}}, nil
}

// Specialized function to lower a 'vm.GotoOp' to a list of 'asm.Instruction'.
// Conditional jumps pop the stack's top and fire when the popped value is non-zero.
func (l *Lowerer) HandleGotoOp(op GotoOp) ([]asm.Instruction, error) {
	if op.Label == "" {
		return nil, fmt.Errorf("unable to lower a jump with an empty label")
	}

	if op.Jump == Unconditional {
		return []asm.Instruction{
			asm.AInstruction{Location: l.scopedLabel(op.Label)},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
		}, nil
	}

	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: l.scopedLabel(op.Label)},
		asm.CInstruction{Comp: "D", Jump: "JNE"},
	}, nil
}

// Specialized function to lower a 'vm.FuncDecl' to a list of 'asm.Instruction'.
//
// The declaration becomes the function's entry label followed by one zero push per
// local variable, so that the callee's 'local' segment starts zero-initialized.
func (l *Lowerer) HandleFuncDecl(op FuncDecl) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to lower an empty function declaration")
	}
	l.function = op.Name

	instructions := []asm.Instruction{asm.LabelDecl{Name: op.Name}}
	for i := uint16(0); i < op.NLocals; i++ {
		instructions = append(instructions,
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M"},
			asm.CInstruction{Dest: "M", Comp: "0"},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "M", Comp: "M+1"},
		)
	}

	return instructions, nil
}

// Specialized function to lower a 'vm.FuncCallOp' to a list of 'asm.Instruction'.
//
// The calling convention saves the caller's frame (return address, LCL, ARG, THIS,
// THAT) on the stack, repositions ARG below the pushed arguments and LCL at the new
// stack top, then jumps to the callee. The generated return address label is unique
// per call site.
func (l *Lowerer) HandleFuncCallOp(op FuncCallOp) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to lower an empty function call")
	}

	caller := l.function
	if caller == "" {
		caller = "Bootstrap"
	}
	returnLabel := fmt.Sprintf("%s$ret.%d", caller, l.nLabels)
	l.nLabels++

	instructions := append([]asm.Instruction{
		// Push the return address (as a label to be resolved by the assembler)
		asm.AInstruction{Location: returnLabel},
		asm.CInstruction{Dest: "D", Comp: "A"},
	}, pushD()...)

	// Save the caller's frame: LCL, ARG, THIS, THAT
	for _, register := range []string{"LCL", "ARG", "THIS", "THAT"} {
		instructions = append(instructions, append([]asm.Instruction{
			asm.AInstruction{Location: register},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}, pushD()...)...)
	}

	instructions = append(instructions,
		// ARG = SP - 5 - nArgs (the callee's view of its arguments)
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: fmt.Sprint(5 + op.NArgs)},
		asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// LCL = SP (the callee's locals start at the current stack top)
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// Transfer control to the callee and declare the comeback point
		asm.AInstruction{Location: op.Name},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: returnLabel},
	)

	return instructions, nil
}

// Specialized function to lower a 'vm.ReturnOp' to a list of 'asm.Instruction'.
//
// The teardown mirrors the calling convention: the caller's frame is restored from
// the slots below LCL (walked through R13), the return value replaces the arguments
// on the caller's stack and control jumps back through the saved return address
// (parked in R14 before ARG is clobbered).
func (l *Lowerer) HandleReturnOp(ReturnOp) ([]asm.Instruction, error) {
	instructions := []asm.Instruction{
		// R13 = LCL (the frame pointer)
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// R14 = *(frame - 5) (the return address)
		asm.AInstruction{Location: "5"},
		asm.CInstruction{Dest: "A", Comp: "D-A"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// *ARG = pop() (the return value lands where the caller expects it)
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// SP = ARG + 1
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "D", Comp: "M+1"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}

	// THAT, THIS, ARG, LCL = *(frame - 1), *(frame - 2), *(frame - 3), *(frame - 4)
	for _, register := range []string{"THAT", "THIS", "ARG", "LCL"} {
		instructions = append(instructions,
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: register},
			asm.CInstruction{Dest: "M", Comp: "D"},
		)
	}

	return append(instructions,
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	), nil
}

// Bootstrap emits the power-up sequence expected by multi-module programs: the
// stack pointer is parked at 256 and control is handed to 'Sys.init' through the
// standard calling convention.
func (l *Lowerer) Bootstrap() ([]asm.Instruction, error) {
	instructions := []asm.Instruction{
		asm.AInstruction{Location: "256"},
		asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}

	call, err := l.HandleFuncCallOp(FuncCallOp{Name: "Sys.init", NArgs: 0})
	if err != nil {
		return nil, err
	}

	return append(instructions, call...), nil
}
