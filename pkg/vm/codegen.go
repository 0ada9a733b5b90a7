package vm

import (
	"bufio"
	"fmt"
	"io"
)

// ----------------------------------------------------------------------------
// Code Generator

// Takes single 'vm.Operation' values and spits out their textual counterparts.
//
// The rendering is purely local (one operation, one line) so the generator itself
// is stateless; validation of the few bounded segments happens here so that both
// the streaming 'Writer' below and any batch caller get the same guarantees.
type CodeGenerator struct{}

// Initializes and returns to the caller a brand new 'CodeGenerator' struct.
func NewCodeGenerator() CodeGenerator {
	return CodeGenerator{}
}

// Renders a single operation to its canonical VM text line (without terminator).
func (cg CodeGenerator) GenerateOperation(op Operation) (string, error) {
	switch tOp := op.(type) {
	case MemoryOp:
		return cg.GenerateMemoryOp(tOp)
	case ArithmeticOp:
		return cg.GenerateArithmeticOp(tOp)
	case LabelDecl:
		return cg.GenerateLabelDecl(tOp)
	case GotoOp:
		return cg.GenerateGotoOp(tOp)
	case FuncDecl:
		return cg.GenerateFuncDecl(tOp)
	case FuncCallOp:
		return cg.GenerateFuncCallOp(tOp)
	case ReturnOp:
		return cg.GenerateReturnOp(tOp)
	default:
		return "", fmt.Errorf("unrecognized operation '%T'", op)
	}
}

// Specialized function to render a 'MemoryOp' operation in the VM format.
func (CodeGenerator) GenerateMemoryOp(op MemoryOp) (string, error) {
	// Bound checking on segments that do have an upper bound to the allowed offsets
	if op.Segment == Pointer && op.Offset > 1 {
		return "", fmt.Errorf("invalid 'pointer' offset, got %d", op.Offset)
	}
	if op.Segment == Temp && op.Offset > 7 {
		return "", fmt.Errorf("invalid 'temp' offset, got %d", op.Offset)
	}

	return fmt.Sprintf("%s %s %d", op.Operation, op.Segment, op.Offset), nil
}

// Specialized function to render an 'ArithmeticOp' operation in the VM format.
func (CodeGenerator) GenerateArithmeticOp(op ArithmeticOp) (string, error) {
	return string(op.Operation), nil
}

// Specialized function to render a 'LabelDecl' operation in the VM format.
func (CodeGenerator) GenerateLabelDecl(op LabelDecl) (string, error) {
	if op.Name == "" {
		return "", fmt.Errorf("unable to produce an empty label declaration")
	}

	return fmt.Sprintf("label %s", op.Name), nil
}

// Specialized function to render a 'GotoOp' operation in the VM format.
func (CodeGenerator) GenerateGotoOp(op GotoOp) (string, error) {
	if op.Label == "" {
		return "", fmt.Errorf("unable to produce an empty jump label")
	}

	return fmt.Sprintf("%s %s", op.Jump, op.Label), nil
}

// Specialized function to render a 'FuncDecl' operation in the VM format.
func (CodeGenerator) GenerateFuncDecl(op FuncDecl) (string, error) {
	if op.Name == "" {
		return "", fmt.Errorf("unable to produce an empty function declaration")
	}

	return fmt.Sprintf("function %s %d", op.Name, op.NLocals), nil
}

// Specialized function to render a 'FuncCallOp' operation in the VM format.
func (CodeGenerator) GenerateFuncCallOp(op FuncCallOp) (string, error) {
	if op.Name == "" {
		return "", fmt.Errorf("unable to produce an empty function call")
	}

	return fmt.Sprintf("call %s %d", op.Name, op.NArgs), nil
}

// Specialized function to render a 'ReturnOp' operation in the VM format.
func (CodeGenerator) GenerateReturnOp(ReturnOp) (string, error) {
	return "return", nil
}

// ----------------------------------------------------------------------------
// Writer

// Streams 'vm.Operation' values to an io.Writer, one CRLF terminated line each.
//
// This is the emission surface driven by the Jack compilation engine: operations
// are rendered as soon as they are produced (single pass, no buffering of the
// program itself). Write errors are sticky, in the same vein as bufio.Writer: the
// first failure is latched and every later call becomes a no-op, so the engine can
// emit freely and check once via 'Flush' when the translation unit is complete.
type Writer struct {
	out     *bufio.Writer
	codegen CodeGenerator
	err     error
}

// Initializes and returns to the caller a brand new 'Writer' struct.
// Requires the argument io.Writer 'w' to be valid and usable.
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: bufio.NewWriter(w), codegen: NewCodeGenerator()}
}

// Renders the given operation and appends it to the output as a single line.
func (w *Writer) Write(op Operation) {
	if w.err != nil {
		return
	}

	line, err := w.codegen.GenerateOperation(op)
	if err != nil {
		w.err = err
		return
	}

	if _, err := w.out.WriteString(line); err != nil {
		w.err = err
		return
	}
	_, w.err = w.out.WriteString("\r\n")
}

// Flushes the underlying buffer and reports the first error encountered, output
// that has not been flushed must not be considered complete by the caller.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.out.Flush()
}
