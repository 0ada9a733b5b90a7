package jack

import (
	"fmt"
	"strconv"

	"github.com/endlmk/nand2tetris/pkg/vm"
)

// ----------------------------------------------------------------------------
// Jack Compiler

// The Compiler takes the token stream of one Jack class and produces its VM
// counterpart, streamed through a 'vm.Writer' while the parse is still running.
//
// It is a recursive descent parser over the LL(1) grammar of the language with a
// single token of lookahead, provided by the peek/bump pair below: 'peek' makes
// the next token observable without consuming it, 'bump' consumes it. Every
// production that branches (statement dispatch, expression operators, term
// prefixes, subroutine call shapes) peeks first, decides, and either bumps or
// leaves the token for the production it delegates to. Symbol definitions and
// code emission happen as a side effect of recognition, there is no tree.
type Compiler struct {
	tokens  *Tokenizer
	symbols *SymbolTable
	writer  *vm.Writer

	peeked *Token // The one token lookahead buffer, nil when empty

	className string // Name of the class being compiled, qualifies subroutine names

	nIfLabels    int // Monotonic per-subroutine counter for IF_* labels
	nWhileLabels int // Monotonic per-subroutine counter for WHILE_* labels
}

// Initializes and returns to the caller a brand new 'Compiler' struct.
// Requires both arguments to be valid and usable.
func NewCompiler(t *Tokenizer, w *vm.Writer) *Compiler {
	return &Compiler{tokens: t, symbols: NewSymbolTable(), writer: w}
}

// ----------------------------------------------------------------------------
// Token plumbing

// peek returns the next token without consuming it. Running out of tokens in the
// middle of a class is a syntax error (every production below peeks only where
// the grammar demands more input).
func (c *Compiler) peek() (Token, error) {
	if c.peeked == nil {
		if !c.tokens.Scan() {
			if err := c.tokens.Err(); err != nil {
				return Token{}, err
			}
			return Token{}, fmt.Errorf("unexpected end of input")
		}
		token := c.tokens.Token()
		c.peeked = &token
	}
	return *c.peeked, nil
}

// bump consumes and returns the next token.
func (c *Compiler) bump() (Token, error) {
	token, err := c.peek()
	if err != nil {
		return Token{}, err
	}
	c.peeked = nil
	return token, nil
}

// expectSymbol consumes the next token and requires it to be the given symbol.
func (c *Compiler) expectSymbol(symbol string) error {
	token, err := c.bump()
	if err != nil {
		return err
	}
	if token.Type != Symbol || token.Value != symbol {
		return fmt.Errorf("expected symbol '%s', got '%s'", symbol, token.Value)
	}
	return nil
}

// expectKeyword consumes the next token and requires it to be the given keyword.
func (c *Compiler) expectKeyword(keyword string) error {
	token, err := c.bump()
	if err != nil {
		return err
	}
	if token.Type != Keyword || token.Value != keyword {
		return fmt.Errorf("expected keyword '%s', got '%s'", keyword, token.Value)
	}
	return nil
}

// expectIdentifier consumes the next token and requires it to be an identifier.
func (c *Compiler) expectIdentifier() (string, error) {
	token, err := c.bump()
	if err != nil {
		return "", err
	}
	if token.Type != Identifier {
		return "", fmt.Errorf("expected an identifier, got '%s'", token.Value)
	}
	return token.Value, nil
}

// peekSymbol reports whether the next token is the given symbol, no consumption.
func (c *Compiler) peekSymbol(symbol string) (bool, error) {
	token, err := c.peek()
	if err != nil {
		return false, err
	}
	return token.Type == Symbol && token.Value == symbol, nil
}

// ----------------------------------------------------------------------------
// Class structure

// CompileClass drives the whole translation unit:
//
//	class: 'class' ID '{' classVarDec* subroutineDec* '}'
//
// On success the writer has been flushed and the output is complete; any error
// aborts the compilation of the class, partial output may have been committed.
func (c *Compiler) CompileClass() error {
	if err := c.expectKeyword("class"); err != nil {
		return err
	}

	name, err := c.expectIdentifier()
	if err != nil {
		return err
	}
	c.className = name

	if err := c.expectSymbol("{"); err != nil {
		return err
	}

	for {
		token, err := c.peek()
		if err != nil {
			return err
		}
		if token.Type != Keyword || (token.Value != "static" && token.Value != "field") {
			break
		}
		if err := c.compileClassVarDec(); err != nil {
			return err
		}
	}

	for {
		token, err := c.peek()
		if err != nil {
			return err
		}
		if token.Type != Keyword ||
			(token.Value != "constructor" && token.Value != "function" && token.Value != "method") {
			break
		}
		if err := c.compileSubroutine(token.Value); err != nil {
			return fmt.Errorf("error compiling subroutine in class '%s': %w", c.className, err)
		}
	}

	if err := c.expectSymbol("}"); err != nil {
		return err
	}

	return c.writer.Flush()
}

// classVarDec: ('static'|'field') type varName (',' varName)* ';'
func (c *Compiler) compileClassVarDec() error {
	token, err := c.bump()
	if err != nil {
		return err
	}

	kind := StaticVar
	if token.Value == "field" {
		kind = FieldVar
	}

	dataType, err := c.compileType()
	if err != nil {
		return err
	}

	for {
		name, err := c.expectIdentifier()
		if err != nil {
			return err
		}
		c.symbols.Define(name, dataType, kind)

		comma, err := c.peekSymbol(",")
		if err != nil {
			return err
		}
		if !comma {
			break
		}
		c.bump()
	}

	return c.expectSymbol(";")
}

// type: 'int' | 'char' | 'boolean' | className
func (c *Compiler) compileType() (string, error) {
	token, err := c.bump()
	if err != nil {
		return "", err
	}

	if token.Type == Identifier {
		return token.Value, nil
	}
	if token.Type == Keyword &&
		(token.Value == "int" || token.Value == "char" || token.Value == "boolean") {
		return token.Value, nil
	}

	return "", fmt.Errorf("expected a type, got '%s'", token.Value)
}

// subroutineDec: ('constructor'|'function'|'method') ('void'|type) ID
//
//	'(' parameterList ')' subroutineBody
//
// The symbol table's subroutine scope and both label counters are reset here; a
// method additionally binds 'this' as argument 0 so that user arguments shift to
// index 1. The 'function CLASS.NAME nLocals' declaration can only be emitted once
// every 'var' declaration has been seen, which is fine in a single pass because
// declarations emit no code.
func (c *Compiler) compileSubroutine(kind string) error {
	c.bump() // The subroutine kind keyword, already peeked by the caller

	c.symbols.StartSubroutine()
	c.nIfLabels, c.nWhileLabels = 0, 0

	if kind == "method" {
		c.symbols.Define("this", c.className, ArgVar)
	}

	// Return type: 'void' or a type, only checked for shape and then discarded
	// (the language is compiled without type checking).
	token, err := c.peek()
	if err != nil {
		return err
	}
	if token.Type == Keyword && token.Value == "void" {
		c.bump()
	} else if _, err := c.compileType(); err != nil {
		return err
	}

	name, err := c.expectIdentifier()
	if err != nil {
		return err
	}

	if err := c.expectSymbol("("); err != nil {
		return err
	}
	if _, err := c.compileParameterList(); err != nil {
		return err
	}
	if err := c.expectSymbol(")"); err != nil {
		return err
	}

	if err := c.expectSymbol("{"); err != nil {
		return err
	}

	for {
		token, err := c.peek()
		if err != nil {
			return err
		}
		if token.Type != Keyword || token.Value != "var" {
			break
		}
		if err := c.compileVarDec(); err != nil {
			return err
		}
	}

	c.writer.Write(vm.FuncDecl{
		Name:    fmt.Sprintf("%s.%s", c.className, name),
		NLocals: uint16(c.symbols.VarCount(LocalVar)),
	})

	switch kind {
	case "constructor":
		// Allocate one word per field and park the base address in 'this'
		c.writer.Write(vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: uint16(c.symbols.VarCount(FieldVar))})
		c.writer.Write(vm.FuncCallOp{Name: "Memory.alloc", NArgs: 1})
		c.writer.Write(vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 0})
	case "method":
		// The caller passed the object instance as the first argument
		c.writer.Write(vm.MemoryOp{Operation: vm.Push, Segment: vm.Argument, Offset: 0})
		c.writer.Write(vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 0})
	}

	if err := c.compileStatements(); err != nil {
		return fmt.Errorf("error compiling subroutine '%s': %w", name, err)
	}

	return c.expectSymbol("}")
}

// parameterList: (type varName (',' type varName)*)?
//
// Each parameter is defined as an argument in the subroutine scope. The declared
// count is returned for symmetry with compileExpressionList even though the
// caller has no use for it.
func (c *Compiler) compileParameterList() (int, error) {
	closed, err := c.peekSymbol(")")
	if err != nil || closed {
		return 0, err
	}

	count := 0
	for {
		dataType, err := c.compileType()
		if err != nil {
			return count, err
		}
		name, err := c.expectIdentifier()
		if err != nil {
			return count, err
		}
		c.symbols.Define(name, dataType, ArgVar)
		count++

		comma, err := c.peekSymbol(",")
		if err != nil {
			return count, err
		}
		if !comma {
			return count, nil
		}
		c.bump()
	}
}

// varDec: 'var' type varName (',' varName)* ';'
func (c *Compiler) compileVarDec() error {
	c.bump() // The 'var' keyword, already peeked by the caller

	dataType, err := c.compileType()
	if err != nil {
		return err
	}

	for {
		name, err := c.expectIdentifier()
		if err != nil {
			return err
		}
		c.symbols.Define(name, dataType, LocalVar)

		comma, err := c.peekSymbol(",")
		if err != nil {
			return err
		}
		if !comma {
			break
		}
		c.bump()
	}

	return c.expectSymbol(";")
}

// ----------------------------------------------------------------------------
// Statements

// statements: statement* where statement: letStmt|ifStmt|whileStmt|doStmt|returnStmt
//
// The loop peeks and dispatches on the statement keyword, anything else (the
// closing '}' in well-formed input) ends the production without consuming.
func (c *Compiler) compileStatements() error {
	for {
		token, err := c.peek()
		if err != nil {
			return err
		}
		if token.Type != Keyword {
			return nil
		}

		switch token.Value {
		case "let":
			err = c.compileLet()
		case "if":
			err = c.compileIf()
		case "while":
			err = c.compileWhile()
		case "do":
			err = c.compileDo()
		case "return":
			err = c.compileReturn()
		default:
			return nil
		}

		if err != nil {
			return err
		}
	}
}

// letStmt: 'let' varName ('[' expression ']')? '=' expression ';'
//
// The array form computes the destination address (index plus base) before the
// right hand side is evaluated, then shuffles through 'temp 0' so that the
// address survives on the stack while the RHS occupies it:
//
//	<index> push SEG idx add <rhs> pop temp 0 pop pointer 1 push temp 0 pop that 0
func (c *Compiler) compileLet() error {
	c.bump() // The 'let' keyword, already peeked by the caller

	name, err := c.expectIdentifier()
	if err != nil {
		return err
	}

	kind, defined := c.symbols.KindOf(name)
	if !defined {
		return fmt.Errorf("assignment to undefined variable '%s'", name)
	}
	segment, index := SegmentOf(kind), uint16(c.symbols.IndexOf(name))

	indexed, err := c.peekSymbol("[")
	if err != nil {
		return err
	}

	if indexed {
		c.bump()
		if err := c.compileExpression(); err != nil {
			return err
		}
		if err := c.expectSymbol("]"); err != nil {
			return err
		}
		c.writer.Write(vm.MemoryOp{Operation: vm.Push, Segment: segment, Offset: index})
		c.writer.Write(vm.ArithmeticOp{Operation: vm.Add})

		if err := c.expectSymbol("="); err != nil {
			return err
		}
		if err := c.compileExpression(); err != nil {
			return err
		}

		c.writer.Write(vm.MemoryOp{Operation: vm.Pop, Segment: vm.Temp, Offset: 0})
		c.writer.Write(vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 1})
		c.writer.Write(vm.MemoryOp{Operation: vm.Push, Segment: vm.Temp, Offset: 0})
		c.writer.Write(vm.MemoryOp{Operation: vm.Pop, Segment: vm.That, Offset: 0})

		return c.expectSymbol(";")
	}

	if err := c.expectSymbol("="); err != nil {
		return err
	}
	if err := c.compileExpression(); err != nil {
		return err
	}
	c.writer.Write(vm.MemoryOp{Operation: vm.Pop, Segment: segment, Offset: index})

	return c.expectSymbol(";")
}

// ifStmt: 'if' '(' expression ')' '{' statements '}' ('else' '{' statements '}')?
//
// A fresh label id is taken at statement entry (so nested statements observe the
// monotonic per-subroutine order) and the two/three way fork follows the classic
// IF_TRUE/IF_FALSE/IF_END layout.
func (c *Compiler) compileIf() error {
	c.bump() // The 'if' keyword, already peeked by the caller

	id := c.nIfLabels
	c.nIfLabels++

	if err := c.expectSymbol("("); err != nil {
		return err
	}
	if err := c.compileExpression(); err != nil {
		return err
	}
	if err := c.expectSymbol(")"); err != nil {
		return err
	}

	c.writer.Write(vm.GotoOp{Label: fmt.Sprintf("IF_TRUE%d", id), Jump: vm.Conditional})
	c.writer.Write(vm.GotoOp{Label: fmt.Sprintf("IF_FALSE%d", id), Jump: vm.Unconditional})
	c.writer.Write(vm.LabelDecl{Name: fmt.Sprintf("IF_TRUE%d", id)})

	if err := c.expectSymbol("{"); err != nil {
		return err
	}
	if err := c.compileStatements(); err != nil {
		return err
	}
	if err := c.expectSymbol("}"); err != nil {
		return err
	}

	token, err := c.peek()
	if err != nil {
		return err
	}

	if token.Type == Keyword && token.Value == "else" {
		c.bump()
		c.writer.Write(vm.GotoOp{Label: fmt.Sprintf("IF_END%d", id), Jump: vm.Unconditional})
		c.writer.Write(vm.LabelDecl{Name: fmt.Sprintf("IF_FALSE%d", id)})

		if err := c.expectSymbol("{"); err != nil {
			return err
		}
		if err := c.compileStatements(); err != nil {
			return err
		}
		if err := c.expectSymbol("}"); err != nil {
			return err
		}

		c.writer.Write(vm.LabelDecl{Name: fmt.Sprintf("IF_END%d", id)})
		return nil
	}

	c.writer.Write(vm.LabelDecl{Name: fmt.Sprintf("IF_FALSE%d", id)})
	return nil
}

// whileStmt: 'while' '(' expression ')' '{' statements '}'
//
// The condition is negated so that a single conditional jump exits the loop.
func (c *Compiler) compileWhile() error {
	c.bump() // The 'while' keyword, already peeked by the caller

	id := c.nWhileLabels
	c.nWhileLabels++

	c.writer.Write(vm.LabelDecl{Name: fmt.Sprintf("WHILE_EXP%d", id)})

	if err := c.expectSymbol("("); err != nil {
		return err
	}
	if err := c.compileExpression(); err != nil {
		return err
	}
	if err := c.expectSymbol(")"); err != nil {
		return err
	}

	c.writer.Write(vm.ArithmeticOp{Operation: vm.Not})
	c.writer.Write(vm.GotoOp{Label: fmt.Sprintf("WHILE_END%d", id), Jump: vm.Conditional})

	if err := c.expectSymbol("{"); err != nil {
		return err
	}
	if err := c.compileStatements(); err != nil {
		return err
	}
	if err := c.expectSymbol("}"); err != nil {
		return err
	}

	c.writer.Write(vm.GotoOp{Label: fmt.Sprintf("WHILE_EXP%d", id), Jump: vm.Unconditional})
	c.writer.Write(vm.LabelDecl{Name: fmt.Sprintf("WHILE_END%d", id)})
	return nil
}

// doStmt: 'do' subroutineCall ';'
//
// The called subroutine always leaves a value on the stack (void subroutines push
// the conventional zero) and a do statement ignores it, hence the trailing pop.
func (c *Compiler) compileDo() error {
	c.bump() // The 'do' keyword, already peeked by the caller

	name, err := c.expectIdentifier()
	if err != nil {
		return err
	}
	if err := c.compileCall(name); err != nil {
		return err
	}

	c.writer.Write(vm.MemoryOp{Operation: vm.Pop, Segment: vm.Temp, Offset: 0})
	return c.expectSymbol(";")
}

// returnStmt: 'return' expression? ';'
//
// A bare return belongs to a void subroutine, which still pushes the conventional
// zero so that every call site can rely on a return value being present.
func (c *Compiler) compileReturn() error {
	c.bump() // The 'return' keyword, already peeked by the caller

	token, err := c.peek()
	if err != nil {
		return err
	}

	// A symbol that cannot open a term means there is no expression, and then the
	// only valid continuation is the terminating ';'.
	if token.Type == Symbol && token.Value != "(" && token.Value != "-" && token.Value != "~" {
		if token.Value != ";" {
			return c.expectSymbol(";")
		}
		c.writer.Write(vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 0})
	} else if err := c.compileExpression(); err != nil {
		return err
	}

	c.writer.Write(vm.ReturnOp{})
	return c.expectSymbol(";")
}

// ----------------------------------------------------------------------------
// Expressions

// Binary operator to VM emission mapping. Multiplication and division have no VM
// primitive and go through the Math OS class.
var binaryOps = map[string]vm.Operation{
	"+": vm.ArithmeticOp{Operation: vm.Add},
	"-": vm.ArithmeticOp{Operation: vm.Sub},
	"&": vm.ArithmeticOp{Operation: vm.And},
	"|": vm.ArithmeticOp{Operation: vm.Or},
	"<": vm.ArithmeticOp{Operation: vm.Lt},
	">": vm.ArithmeticOp{Operation: vm.Gt},
	"=": vm.ArithmeticOp{Operation: vm.Eq},
	"*": vm.FuncCallOp{Name: "Math.multiply", NArgs: 2},
	"/": vm.FuncCallOp{Name: "Math.divide", NArgs: 2},
}

// expression: term (op term)*
//
// Emission is postfix (both operands, then the operator) and the fold is strictly
// left to right: Jack has no operator precedence.
func (c *Compiler) compileExpression() error {
	if err := c.compileTerm(); err != nil {
		return err
	}

	for {
		token, err := c.peek()
		if err != nil {
			return err
		}

		operation, isOp := binaryOps[token.Value]
		if token.Type != Symbol || !isOp {
			return nil
		}
		c.bump()

		if err := c.compileTerm(); err != nil {
			return err
		}
		c.writer.Write(operation)
	}
}

// term: INT | STRING | keywordConst | varName | varName '[' expression ']'
//
//	| subroutineCall | '(' expression ')' | unaryOp term
//
// The only place where a second decision is needed after consuming a token: an
// identifier can open four different term shapes, disambiguated by peeking the
// symbol that follows it.
func (c *Compiler) compileTerm() error {
	token, err := c.bump()
	if err != nil {
		return err
	}

	switch token.Type {
	case IntConst:
		value, err := strconv.ParseUint(token.Value, 10, 16)
		if err != nil {
			return fmt.Errorf("invalid integer constant '%s'", token.Value)
		}
		c.writer.Write(vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: uint16(value)})
		return nil

	case StringConst:
		return c.compileStringConst(token.Value)

	case Keyword:
		return c.compileKeywordConst(token.Value)

	case Symbol:
		switch token.Value {
		case "(":
			if err := c.compileExpression(); err != nil {
				return err
			}
			return c.expectSymbol(")")
		case "-":
			if err := c.compileTerm(); err != nil {
				return err
			}
			c.writer.Write(vm.ArithmeticOp{Operation: vm.Neg})
			return nil
		case "~":
			if err := c.compileTerm(); err != nil {
				return err
			}
			c.writer.Write(vm.ArithmeticOp{Operation: vm.Not})
			return nil
		}
		return fmt.Errorf("unexpected symbol '%s' in expression", token.Value)

	case Identifier:
		next, err := c.peek()
		if err != nil {
			return err
		}

		if next.Type == Symbol && next.Value == "[" {
			return c.compileArrayAccess(token.Value)
		}
		if next.Type == Symbol && (next.Value == "(" || next.Value == ".") {
			return c.compileCall(token.Value)
		}
		return c.compileVarAccess(token.Value)
	}

	return fmt.Errorf("unexpected token '%s' in expression", token.Value)
}

// String constants are materialized at runtime: a String object sized for the
// constant is allocated and filled one character per 'appendChar' call. Lengths
// and characters are counted in Unicode scalars, consistently with each scalar
// being appended as a single character code.
func (c *Compiler) compileStringConst(value string) error {
	runes := []rune(value)

	c.writer.Write(vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: uint16(len(runes))})
	c.writer.Write(vm.FuncCallOp{Name: "String.new", NArgs: 1})

	for _, r := range runes {
		c.writer.Write(vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: uint16(r)})
		c.writer.Write(vm.FuncCallOp{Name: "String.appendChar", NArgs: 2})
	}

	return nil
}

// keywordConst: 'true' | 'false' | 'null' | 'this'
//
// 'true' is all ones (zero negated bitwise), 'false' and 'null' are plain zero
// and 'this' is whatever the pointer segment currently addresses.
func (c *Compiler) compileKeywordConst(value string) error {
	switch value {
	case "true":
		c.writer.Write(vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 0})
		c.writer.Write(vm.ArithmeticOp{Operation: vm.Not})
		return nil
	case "false", "null":
		c.writer.Write(vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 0})
		return nil
	case "this":
		c.writer.Write(vm.MemoryOp{Operation: vm.Push, Segment: vm.Pointer, Offset: 0})
		return nil
	}
	return fmt.Errorf("unexpected keyword '%s' in expression", value)
}

// Bare variable read, the value is pushed from the segment backing its kind.
func (c *Compiler) compileVarAccess(name string) error {
	kind, defined := c.symbols.KindOf(name)
	if !defined {
		return fmt.Errorf("undefined variable '%s'", name)
	}

	c.writer.Write(vm.MemoryOp{
		Operation: vm.Push,
		Segment:   SegmentOf(kind),
		Offset:    uint16(c.symbols.IndexOf(name)),
	})
	return nil
}

// varName '[' expression ']' as an r-value: the element address (index plus base)
// is computed on the stack, the 'that' pointer is aimed at it and the element is
// read back through 'that 0'.
func (c *Compiler) compileArrayAccess(name string) error {
	kind, defined := c.symbols.KindOf(name)
	if !defined {
		return fmt.Errorf("undefined variable '%s'", name)
	}

	c.bump() // The '[' symbol, already peeked by the caller
	if err := c.compileExpression(); err != nil {
		return err
	}
	if err := c.expectSymbol("]"); err != nil {
		return err
	}

	c.writer.Write(vm.MemoryOp{
		Operation: vm.Push,
		Segment:   SegmentOf(kind),
		Offset:    uint16(c.symbols.IndexOf(name)),
	})
	c.writer.Write(vm.ArithmeticOp{Operation: vm.Add})
	c.writer.Write(vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 1})
	c.writer.Write(vm.MemoryOp{Operation: vm.Push, Segment: vm.That, Offset: 0})
	return nil
}

// subroutineCall: ID '(' expressionList ')' | ID '.' ID '(' expressionList ')'
//
// Two syntactic shapes hide three semantic cases, told apart by looking up the
// first identifier in the symbol table:
// - 'f(args)': a call within the current class, the current object is passed along
// - 'obj.f(args)': 'obj' is a variable, a method call on the object it holds
// - 'Cls.f(args)': 'Cls' is not a variable, a plain function/constructor call
func (c *Compiler) compileCall(first string) error {
	token, err := c.bump()
	if err != nil {
		return err
	}
	if token.Type != Symbol || (token.Value != "(" && token.Value != ".") {
		return fmt.Errorf("expected '(' or '.' in subroutine call, got '%s'", token.Value)
	}

	// Bare call: the enclosing class provides the subroutine and the current
	// object rides along as the implicit first argument.
	if token.Value == "(" {
		c.writer.Write(vm.MemoryOp{Operation: vm.Push, Segment: vm.Pointer, Offset: 0})

		nArgs, err := c.compileExpressionList()
		if err != nil {
			return err
		}
		if err := c.expectSymbol(")"); err != nil {
			return err
		}

		c.writer.Write(vm.FuncCallOp{
			Name:  fmt.Sprintf("%s.%s", c.className, first),
			NArgs: uint16(nArgs) + 1,
		})
		return nil
	}

	method, err := c.expectIdentifier()
	if err != nil {
		return err
	}
	if err := c.expectSymbol("("); err != nil {
		return err
	}

	// Method call on a variable: the object it holds becomes the first argument
	// and its declared type names the target class.
	if kind, isVariable := c.symbols.KindOf(first); isVariable {
		c.writer.Write(vm.MemoryOp{
			Operation: vm.Push,
			Segment:   SegmentOf(kind),
			Offset:    uint16(c.symbols.IndexOf(first)),
		})

		nArgs, err := c.compileExpressionList()
		if err != nil {
			return err
		}
		if err := c.expectSymbol(")"); err != nil {
			return err
		}

		c.writer.Write(vm.FuncCallOp{
			Name:  fmt.Sprintf("%s.%s", c.symbols.TypeOf(first), method),
			NArgs: uint16(nArgs) + 1,
		})
		return nil
	}

	// Function or constructor call: the first identifier is a class name, no
	// object instance is involved.
	nArgs, err := c.compileExpressionList()
	if err != nil {
		return err
	}
	if err := c.expectSymbol(")"); err != nil {
		return err
	}

	c.writer.Write(vm.FuncCallOp{
		Name:  fmt.Sprintf("%s.%s", first, method),
		NArgs: uint16(nArgs),
	})
	return nil
}

// expressionList: (expression (',' expression)*)?
//
// Used only inside call argument lists, hence the ')' peek to spot the empty
// case. Returns how many expressions were emitted.
func (c *Compiler) compileExpressionList() (int, error) {
	closed, err := c.peekSymbol(")")
	if err != nil || closed {
		return 0, err
	}

	count := 0
	for {
		if err := c.compileExpression(); err != nil {
			return count, err
		}
		count++

		comma, err := c.peekSymbol(",")
		if err != nil {
			return count, err
		}
		if !comma {
			return count, nil
		}
		c.bump()
	}
}
