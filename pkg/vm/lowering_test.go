package vm_test

import (
	"testing"

	"github.com/endlmk/nand2tetris/pkg/asm"
	"github.com/endlmk/nand2tetris/pkg/vm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Lowers a single-module program and renders it to assembly text lines, the
// asm codegen round-trip keeps the expectations readable.
func lower(t *testing.T, module vm.Module) []string {
	t.Helper()

	lowerer := vm.NewLowerer(vm.Program{"Test": module})
	program, err := lowerer.Lower()
	require.NoError(t, err)

	codegen := asm.NewCodeGenerator(program)
	lines, err := codegen.Generate()
	require.NoError(t, err)

	return lines
}

func TestMemoryOpLowering(t *testing.T) {
	t.Run("Push constant goes through the A register", func(t *testing.T) {
		lines := lower(t, vm.Module{vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 42}})

		assert.Equal(t, []string{
			"@42", "D=A",
			"@SP", "A=M", "M=D", "@SP", "M=M+1",
		}, lines)
	})

	t.Run("Push local walks the base pointer", func(t *testing.T) {
		lines := lower(t, vm.Module{vm.MemoryOp{Operation: vm.Push, Segment: vm.Local, Offset: 3}})

		assert.Equal(t, []string{
			"@3", "D=A", "@LCL", "A=D+M", "D=M",
			"@SP", "A=M", "M=D", "@SP", "M=M+1",
		}, lines)
	})

	t.Run("Pop argument parks the address in R13", func(t *testing.T) {
		lines := lower(t, vm.Module{vm.MemoryOp{Operation: vm.Pop, Segment: vm.Argument, Offset: 2}})

		assert.Equal(t, []string{
			"@2", "D=A", "@ARG", "D=D+M", "@R13", "M=D",
			"@SP", "AM=M-1", "D=M", "@R13", "A=M", "M=D",
		}, lines)
	})

	t.Run("Temp is addressed directly from RAM 5", func(t *testing.T) {
		lines := lower(t, vm.Module{vm.MemoryOp{Operation: vm.Push, Segment: vm.Temp, Offset: 2}})
		assert.Equal(t, "@7", lines[0])
	})

	t.Run("Pointer aliases THIS and THAT", func(t *testing.T) {
		this := lower(t, vm.Module{vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 0}})
		that := lower(t, vm.Module{vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 1}})

		assert.Equal(t, []string{"@SP", "AM=M-1", "D=M", "@THIS", "M=D"}, this)
		assert.Equal(t, []string{"@SP", "AM=M-1", "D=M", "@THAT", "M=D"}, that)
	})

	t.Run("Static slots are named after the unit", func(t *testing.T) {
		lines := lower(t, vm.Module{vm.MemoryOp{Operation: vm.Push, Segment: vm.Static, Offset: 4}})
		assert.Equal(t, "@Test.4", lines[0])
	})

	t.Run("Pop constant is rejected", func(t *testing.T) {
		lowerer := vm.NewLowerer(vm.Program{"Test": {vm.MemoryOp{Operation: vm.Pop, Segment: vm.Constant}}})
		_, err := lowerer.Lower()
		assert.Error(t, err)
	})
}

func TestArithmeticOpLowering(t *testing.T) {
	t.Run("Binary operations combine in place", func(t *testing.T) {
		lines := lower(t, vm.Module{vm.ArithmeticOp{Operation: vm.Sub}})
		assert.Equal(t, []string{"@SP", "AM=M-1", "D=M", "A=A-1", "M=M-D"}, lines)
	})

	t.Run("Unary operations rewrite the stack top", func(t *testing.T) {
		lines := lower(t, vm.Module{vm.ArithmeticOp{Operation: vm.Not}})
		assert.Equal(t, []string{"@SP", "A=M-1", "M=!M"}, lines)
	})

	t.Run("Comparisons fork on the subtraction sign", func(t *testing.T) {
		lines := lower(t, vm.Module{vm.ArithmeticOp{Operation: vm.Lt}})

		assert.Equal(t, []string{
			"@SP", "AM=M-1", "D=M", "A=A-1", "D=M-D",
			"@CMP_TRUE_0", "D;JLT",
			"@SP", "A=M-1", "M=0", "@CMP_END_0", "0;JMP",
			"(CMP_TRUE_0)", "@SP", "A=M-1", "M=-1",
			"(CMP_END_0)",
		}, lines)
	})

	t.Run("Generated labels stay unique across comparisons", func(t *testing.T) {
		lines := lower(t, vm.Module{
			vm.ArithmeticOp{Operation: vm.Eq},
			vm.ArithmeticOp{Operation: vm.Gt},
		})

		seen := map[string]int{}
		for _, line := range lines {
			if line[0] == '(' {
				seen[line]++
			}
		}
		assert.Len(t, seen, 4)
		for label, count := range seen {
			assert.Equalf(t, 1, count, "'%s' declared %d times", label, count)
		}
	})
}

func TestBranchingOpLowering(t *testing.T) {
	t.Run("Labels are scoped to the enclosing function", func(t *testing.T) {
		lines := lower(t, vm.Module{
			vm.FuncDecl{Name: "Test.run", NLocals: 0},
			vm.LabelDecl{Name: "LOOP"},
			vm.GotoOp{Label: "LOOP", Jump: vm.Unconditional},
			vm.GotoOp{Label: "LOOP", Jump: vm.Conditional},
		})

		assert.Equal(t, []string{
			"(Test.run)",
			"(Test.run$LOOP)",
			"@Test.run$LOOP", "0;JMP",
			"@SP", "AM=M-1", "D=M", "@Test.run$LOOP", "D;JNE",
		}, lines)
	})
}

func TestFunctionOpLowering(t *testing.T) {
	t.Run("Declarations zero out their locals", func(t *testing.T) {
		lines := lower(t, vm.Module{vm.FuncDecl{Name: "Test.run", NLocals: 2}})

		assert.Equal(t, []string{
			"(Test.run)",
			"@SP", "A=M", "M=0", "@SP", "M=M+1",
			"@SP", "A=M", "M=0", "@SP", "M=M+1",
		}, lines)
	})

	t.Run("Calls save the caller frame and reposition ARG", func(t *testing.T) {
		lines := lower(t, vm.Module{
			vm.FuncDecl{Name: "Test.run", NLocals: 0},
			vm.FuncCallOp{Name: "Math.multiply", NArgs: 2},
		})

		// The frame layout: return address plus the four saved registers
		assert.Contains(t, lines, "@Test.run$ret.0")
		assert.Contains(t, lines, "(Test.run$ret.0)")
		for _, register := range []string{"@LCL", "@ARG", "@THIS", "@THAT"} {
			assert.Contains(t, lines, register)
		}

		// ARG lands 5 + nArgs slots below the stack top
		assert.Contains(t, lines, "@7")
		assert.Contains(t, lines, "D=D-A")

		// And control transfers to the callee right before the comeback label
		assert.Equal(t, "(Test.run$ret.0)", lines[len(lines)-1])
		assert.Equal(t, "0;JMP", lines[len(lines)-2])
		assert.Equal(t, "@Math.multiply", lines[len(lines)-3])
	})

	t.Run("Returns restore the frame through R13", func(t *testing.T) {
		lines := lower(t, vm.Module{vm.ReturnOp{}})

		assert.Equal(t, []string{"@LCL", "D=M", "@R13", "M=D"}, lines[:4])
		assert.Equal(t, []string{"@R14", "A=M", "0;JMP"}, lines[len(lines)-3:])

		// The four registers are restored in reverse save order
		restored := []string{}
		for i, line := range lines {
			if line == "AM=M-1" && lines[i-1] == "@R13" {
				restored = append(restored, lines[i+2])
			}
		}
		assert.Equal(t, []string{"@THAT", "@THIS", "@ARG", "@LCL"}, restored)
	})
}

func TestBootstrapLowering(t *testing.T) {
	lowerer := vm.NewLowerer(vm.Program{"Sys": {vm.FuncDecl{Name: "Sys.init", NLocals: 0}}})

	bootstrap, err := lowerer.Bootstrap()
	require.NoError(t, err)

	codegen := asm.NewCodeGenerator(asm.Program(bootstrap))
	lines, err := codegen.Generate()
	require.NoError(t, err)

	// SP parked at 256 first, then a standard call to Sys.init
	assert.Equal(t, []string{"@256", "D=A", "@SP", "M=D"}, lines[:4])
	assert.Contains(t, lines, "@Sys.init")
	assert.Contains(t, lines, "(Bootstrap$ret.0)")
}

func TestDeterministicLowering(t *testing.T) {
	program := vm.Program{
		"Alpha": {vm.ArithmeticOp{Operation: vm.Eq}},
		"Beta":  {vm.ArithmeticOp{Operation: vm.Lt}},
		"Gamma": {vm.ArithmeticOp{Operation: vm.Gt}},
	}

	first, errFirst := vm.NewLowerer(program).Lower()
	second, errSecond := vm.NewLowerer(program).Lower()

	require.NoError(t, errFirst)
	require.NoError(t, errSecond)
	assert.Equal(t, first, second)
}
