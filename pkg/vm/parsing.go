package vm

import (
	"fmt"
	"io"
	"os"
	"strconv"

	pc "github.com/prataprc/goparsec"
)

// ----------------------------------------------------------------------------
// Parser Combinator(s)

// This section defines the Parser Combinator for every token & instruction of the
// VM language.
//
// Each parser combinator either manages an operation (MemoryOp, ArithmeticOp, ...)
// or some piece of it: namely mnemonics and identifiers. Comments are parsed too
// and then just dropped while walking the AST.

// Top level object, will generate the traversable AST based on the input plus the PCs below.
var ast = pc.NewAST("virtual_machine", 0)

var (
	// Parser combinator for a VM module/class: in the nand2tetris VM there's a Java
	// like behavior where a program is composed of multiple '.vm' files ('.class' in
	// Java), each one holding the bytecode of a separate translation unit.
	pModule = ast.ManyUntil("module", nil, ast.OrdChoice("node", nil, pComment, pOperation), pc.End())

	// Parser combinator for comments in a VM module
	pComment = ast.And("comment", nil, pc.Atom("//", "//"), pc.Token(`(?m).*$`, "COMMENT"))
	// Parser combinator for a generic VM operation (MemoryOp, ArithmeticOp, ...)
	pOperation = ast.OrdChoice("operation", nil,
		// Stack operations + label and jump operations
		pMemoryOp, pArithmeticOp, pLabelDecl, pGotoOp,
		// Function related operations and statements
		pFuncDecl, pFuncCallOp, pReturnOp,
	)

	// Memory operation, compliant with the following syntax: "{push|pop} {segment} {index}"
	pMemoryOp = ast.And("memory_op", nil, pMemOpType, pSegment, pc.Int())
	// Arithmetic operation, either binary or unary (modifies only the stack)
	pArithmeticOp = ast.And("arithmetic_op", nil, pArithOpType)

	// Label declaration, compliant with the following syntax: "label {symbol}"
	pLabelDecl = ast.And("label_decl", nil, pc.Atom("label", "LABEL"), pIdent)
	// Jump operation, compliant with the following syntax: "{goto|if-goto} {symbol}"
	pGotoOp = ast.And("goto_op", nil, pJumpType, pIdent)

	// Function declaration, compliant with the following syntax: "function {name} {n_locals}"
	pFuncDecl = ast.And("func_decl", nil, pc.Atom("function", "FUNC"), pIdent, pc.Int())
	// Function call operation, compliant with the following syntax: "call {name} {n_args}"
	pFuncCallOp = ast.And("func_call", nil, pc.Atom("call", "CALL"), pIdent, pc.Int())
	// Return operation, compliant with the following syntax: "return"
	pReturnOp = ast.And("return_op", nil, pc.Atom("return", "RETURN"))
)

var (
	// Generic Identifier parser (for label and function declarations)
	// NOTE: An ident can be any sequence of letters, digits, and symbols (_, ., $, :).
	// NOTE: An ident cannot begin with a leading digit (a symbol is indeed allowed).
	pIdent = pc.Token(`[A-Za-z_.$:][0-9a-zA-Z_.$:]*`, "IDENT")

	// Available memory operation types (only push and pop since it's stack based)
	pMemOpType = ast.OrdChoice("mem_op_type", nil, pc.Atom("push", "PUSH"), pc.Atom("pop", "POP"))
	// Available memory segments (they act as registers and are used alongside the stack)
	pSegment = ast.OrdChoice("mem_segment", nil,
		pc.Atom("argument", "ARGUMENT"), pc.Atom("local", "LOCAL"),
		pc.Atom("static", "STATIC"), pc.Atom("constant", "CONSTANT"),
		pc.Atom("this", "THIS"), pc.Atom("that", "THAT"),
		pc.Atom("temp", "TEMP"), pc.Atom("pointer", "POINTER"),
	)

	// Available arithmetic operation types
	pArithOpType = ast.OrdChoice("operations", nil,
		// Comparison operations available on the VM bytecode
		pc.Atom("eq", "EQ"), pc.Atom("gt", "GT"), pc.Atom("lt", "LT"),
		// Arithmetic operations available on the VM bytecode
		pc.Atom("add", "ADD"), pc.Atom("sub", "SUB"), pc.Atom("neg", "NEG"),
		// Bit-a-bit operations available on the VM bytecode
		pc.Atom("not", "NOT"), pc.Atom("and", "AND"), pc.Atom("or", "OR"),
	)

	// Jump types can either be conditional (if-goto) or unconditional (goto)
	pJumpType = ast.OrdChoice("jump_type", nil, pc.Atom("goto", "GOTO"), pc.Atom("if-goto", "IF-GOTO"))
)

// ----------------------------------------------------------------------------
// Vm Parser

// This section defines the Parser for the nand2tetris VM language.
//
// It uses parser combinators to obtain the AST from the source code, the source
// can be provided in multiple ways through a generic io.Reader. Setting the
// PARSEC_DEBUG env variable enables the library's verbose matching logs.
type Parser struct{ reader io.Reader }

// Initializes and returns to the caller a brand new 'Parser' struct.
// Requires the argument io.Reader 'r' to be valid and usable.
func NewParser(r io.Reader) Parser {
	return Parser{reader: r}
}

// Parser entrypoint, divides the 2 phases of the parsing pipeline:
// Text --> AST: This step is done using PCs and returns a generic traversable AST
// AST --> IR: This step is done by traversing the AST and extracting the 'vm.Module'
func (p *Parser) Parse() (Module, error) {
	content, err := io.ReadAll(p.reader)
	if err != nil {
		return nil, fmt.Errorf("cannot read from 'io.Reader': %w", err)
	}

	root, success := p.FromSource(content)
	if !success {
		return nil, fmt.Errorf("failed to parse AST from input content")
	}

	return p.FromAST(root)
}

// Scans the textual input coming from the 'reader' field and returns a traversable
// AST (Abstract Syntax Tree) that can be visited to extract the typed operations.
func (p *Parser) FromSource(source []byte) (pc.Queryable, bool) {
	// Feature flag: Enable 'goparsec' library's debug logs
	if os.Getenv("PARSEC_DEBUG") != "" {
		ast.SetDebug()
	}

	root, _ := ast.Parsewith(pModule, pc.NewScanner(source))
	return root, root != nil
}

// This function takes the root node of the raw parsed AST and does a DFS on it,
// converting one by one each subtree and returning a 'vm.Module' that can be used
// as an in-memory, type-safe IR not dependent on the parsing library used.
func (p *Parser) FromAST(root pc.Queryable) (Module, error) {
	module := Module{}

	if root.GetName() != "module" {
		return nil, fmt.Errorf("expected node 'module', found %s", root.GetName())
	}

	for _, child := range root.GetChildren() {
		var op Operation
		var err error

		switch child.GetName() {
		case "memory_op": // Memory operation subtree, extracts a 'vm.MemoryOp'
			op, err = p.HandleMemoryOp(child)
		case "arithmetic_op": // Arithmetic operation subtree, extracts a 'vm.ArithmeticOp'
			op, err = p.HandleArithmeticOp(child)
		case "label_decl": // Label declaration subtree, extracts a 'vm.LabelDecl'
			op, err = p.HandleLabelDecl(child)
		case "goto_op": // Goto operation subtree, extracts a 'vm.GotoOp'
			op, err = p.HandleGotoOp(child)
		case "func_decl": // Function declaration subtree, extracts a 'vm.FuncDecl'
			op, err = p.HandleFuncDecl(child)
		case "func_call": // Function call subtree, extracts a 'vm.FuncCallOp'
			op, err = p.HandleFuncCallOp(child)
		case "return_op": // Return operation subtree, extracts a 'vm.ReturnOp'
			op, err = p.HandleReturnOp(child)
		case "comment": // Comment nodes in the AST are just skipped
			continue
		default: // Error case, unrecognized subtree in the AST
			return nil, fmt.Errorf("unrecognized node '%s'", child.GetName())
		}

		if op == nil || err != nil {
			return nil, err
		}
		module = append(module, op)
	}

	return module, nil
}

// Specialized function to convert a "memory_op" node to a 'vm.MemoryOp'.
func (Parser) HandleMemoryOp(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, fmt.Errorf("expected 'memory_op' node with 3 leaves, got %d", len(children))
	}

	offset, err := strconv.ParseUint(children[2].GetValue(), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to parse 'offset' in MemoryOp, got '%s'", children[2].GetValue())
	}

	return MemoryOp{
		Operation: OperationType(children[0].GetValue()),
		Segment:   SegmentType(children[1].GetValue()),
		Offset:    uint16(offset),
	}, nil
}

// Specialized function to convert an "arithmetic_op" node to a 'vm.ArithmeticOp'.
func (Parser) HandleArithmeticOp(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 1 {
		return nil, fmt.Errorf("expected 'arithmetic_op' node with 1 leaf, got %d", len(children))
	}

	return ArithmeticOp{Operation: ArithOpType(children[0].GetValue())}, nil
}

// Specialized function to convert a "label_decl" node to a 'vm.LabelDecl'.
func (Parser) HandleLabelDecl(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 2 {
		return nil, fmt.Errorf("expected 'label_decl' node with 2 leaves, got %d", len(children))
	}

	return LabelDecl{Name: children[1].GetValue()}, nil
}

// Specialized function to convert a "goto_op" node to a 'vm.GotoOp'.
func (Parser) HandleGotoOp(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 2 {
		return nil, fmt.Errorf("expected 'goto_op' node with 2 leaves, got %d", len(children))
	}

	return GotoOp{Jump: JumpType(children[0].GetValue()), Label: children[1].GetValue()}, nil
}

// Specialized function to convert a "func_decl" node to a 'vm.FuncDecl'.
func (Parser) HandleFuncDecl(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, fmt.Errorf("expected 'func_decl' node with 3 leaves, got %d", len(children))
	}

	nLocals, err := strconv.ParseUint(children[2].GetValue(), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to parse 'n_locals' in FuncDecl, got '%s'", children[2].GetValue())
	}

	return FuncDecl{Name: children[1].GetValue(), NLocals: uint16(nLocals)}, nil
}

// Specialized function to convert a "func_call" node to a 'vm.FuncCallOp'.
func (Parser) HandleFuncCallOp(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, fmt.Errorf("expected 'func_call' node with 3 leaves, got %d", len(children))
	}

	nArgs, err := strconv.ParseUint(children[2].GetValue(), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to parse 'n_args' in FuncCallOp, got '%s'", children[2].GetValue())
	}

	return FuncCallOp{Name: children[1].GetValue(), NArgs: uint16(nArgs)}, nil
}

// Specialized function to convert a "return_op" node to a 'vm.ReturnOp'.
func (Parser) HandleReturnOp(node pc.Queryable) (Operation, error) {
	return ReturnOp{}, nil
}
