package asm

import (
	"fmt"
	"io"
	"os"

	pc "github.com/prataprc/goparsec"
)

// ----------------------------------------------------------------------------
// Parser Combinator(s)

// This section defines the Parser Combinator for every token & instruction of the
// Asm language.
//
// Each parser combinator either manages an instruction (A Inst, C Inst, Label Decl)
// or some piece of it: namely mnemonics and identifiers. Comments are parsed too
// and then just dropped while walking the AST.

// Top level object, will generate the traversable AST based on the input plus the PCs below.
var ast = pc.NewAST("assembler", 0)

var (
	// Parser combinator for an entire Asm program (a sequence of comments and instructions)
	pProgram = ast.ManyUntil("program", nil, ast.OrdChoice("item", nil, pComment, pInstruction), pc.End())

	// Parser combinator for a generic Asm instruction (either A, C or Label declaration)
	pInstruction = ast.OrdChoice("instruction", nil, pAInst, pCInst, pLabelDecl)
	// Parser combinator for comments in an Asm program
	pComment = ast.And("comment", nil, pc.Atom("//", "//"), pc.Token(`(?m).*$`, "COMMENT"))

	// Parser combinator for A Instructions ('@' followed by a location)
	pAInst = ast.And("a-inst", nil, pc.Atom("@", "@"), pLocation)
	// Parser combinator for label declarations ('(' name ')')
	pLabelDecl = ast.And("label-decl", nil, pc.Atom("(", "("), pLocation, pc.Atom(")", ")"))
	// Parser combinator for C Instructions, both 'dest=comp' and 'comp;jump' forms
	pCInst = ast.And("c-inst", nil,
		ast.Maybe("maybe-assign", nil, ast.And("assign", nil, pDest, pc.Atom("=", "="))),
		pComp, // 'comp' should always be provided
		ast.Maybe("maybe-goto", nil, ast.And("goto", nil, pc.Atom(";", ";"), pJump)),
	)
)

var (
	// Generic location parser (A Instruction payload + label declarations)
	// NOTE: A location can be any sequence of letters, digits, and symbols (_, ., $, :).
	// NOTE: A location cannot begin with a leading digit (a symbol is indeed allowed).
	pLocation = ast.OrdChoice("location", nil, pc.Int(), pc.Token(`[A-Za-z_.$:][0-9a-zA-Z_.$:]*`, "SYMBOL"))

	// Destination mnemonics (C Instruction subsection)
	// NOTE: Multi-register mnemonics come first or the single register Atom would
	// match and leave the rest of the mnemonic dangling in the input.
	pDest = ast.OrdChoice("dest", nil,
		pc.Atom("AMD", "AMD"),
		pc.Atom("AM", "AM"), pc.Atom("AD", "AD"), pc.Atom("MD", "MD"),
		pc.Atom("D", "D"), pc.Atom("A", "A"), pc.Atom("M", "M"),
	)

	// Computation mnemonics (C Instruction subsection)
	// NOTE: Compound mnemonics come first for the same reason as 'pDest' above.
	pComp = ast.OrdChoice("comp", nil,
		// - Bitwise register with register operations
		pc.Atom("D&A", "D&A"), pc.Atom("D&M", "D&M"),
		pc.Atom("D|A", "D|A"), pc.Atom("D|M", "D|M"),
		// - Register with register operations
		pc.Atom("D+A", "D+A"), pc.Atom("D+M", "D+M"),
		pc.Atom("D-A", "D-A"), pc.Atom("D-M", "D-M"),
		pc.Atom("A-D", "A-D"), pc.Atom("M-D", "M-D"),
		// - Increment and decrement operations
		pc.Atom("D+1", "D+1"), pc.Atom("A+1", "A+1"), pc.Atom("M+1", "M+1"),
		pc.Atom("D-1", "D-1"), pc.Atom("A-1", "A-1"), pc.Atom("M-1", "M-1"),
		// - Binary and numerical negations
		pc.Atom("!D", "!D"), pc.Atom("!A", "!A"), pc.Atom("!M", "!M"),
		pc.Atom("-D", "-D"), pc.Atom("-A", "-A"), pc.Atom("-M", "-M"),
		// - Constants and identities
		pc.Atom("0", "0"), pc.Atom("1", "1"), pc.Atom("-1", "-1"),
		pc.Atom("D", "D"), pc.Atom("A", "A"), pc.Atom("M", "M"),
	)

	// Jump mnemonics (C Instruction subsection)
	pJump = ast.OrdChoice("jump", nil,
		pc.Atom("JNE", "JNE"), pc.Atom("JEQ", "JEQ"),
		pc.Atom("JGT", "JGT"), pc.Atom("JGE", "JGE"),
		pc.Atom("JLT", "JLT"), pc.Atom("JLE", "JLE"),
		pc.Atom("JMP", "JMP"),
	)
)

// ----------------------------------------------------------------------------
// Asm Parser

// This section defines the Parser for the nand2tetris Asm language.
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
// AST --> IR: This step is done by traversing the AST and extracting the 'asm.Program'
func (p *Parser) Parse() (Program, error) {
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
// AST (Abstract Syntax Tree) that can be visited to extract the typed instructions.
func (p *Parser) FromSource(source []byte) (pc.Queryable, bool) {
	// Feature flag: Enable 'goparsec' library's debug logs
	if os.Getenv("PARSEC_DEBUG") != "" {
		ast.SetDebug()
	}

	root, _ := ast.Parsewith(pProgram, pc.NewScanner(source))
	return root, root != nil
}

// This function takes the root node of the raw parsed AST and does a DFS on it,
// converting one by one each subtree and returning an 'asm.Program' that can be
// used as an in-memory, type-safe IR not dependent on the parsing library used.
func (p *Parser) FromAST(root pc.Queryable) (Program, error) {
	program := Program{}

	if root.GetName() != "program" {
		return nil, fmt.Errorf("expected node 'program', found %s", root.GetName())
	}

	for _, child := range root.GetChildren() {
		switch child.GetName() {
		case "a-inst": // A Instruction subtree, appends 'asm.AInstruction' to 'program'
			inst, err := p.HandleAInst(child)
			if inst == nil || err != nil {
				return nil, err
			}
			program = append(program, inst)

		case "c-inst": // C Instruction subtree, appends 'asm.CInstruction' to 'program'
			inst, err := p.HandleCInst(child)
			if inst == nil || err != nil {
				return nil, err
			}
			program = append(program, inst)

		case "label-decl": // Label declaration subtree, appends 'asm.LabelDecl' to 'program'
			inst, err := p.HandleLabelDecl(child)
			if inst == nil || err != nil {
				return nil, err
			}
			program = append(program, inst)

		case "comment": // Comment nodes in the AST are just skipped
			continue

		default: // Error case, unrecognized subtree in the AST
			return nil, fmt.Errorf("unrecognized node '%s'", child.GetName())
		}
	}

	return program, nil
}

// Specialized function to convert an "a-inst" node to an 'asm.AInstruction'.
func (Parser) HandleAInst(node pc.Queryable) (Instruction, error) {
	if node.GetName() != "a-inst" {
		return nil, fmt.Errorf("expected node 'a-inst', found %s", node.GetName())
	}

	location := node.GetChildren()[1]
	if location.GetName() != "INT" && location.GetName() != "SYMBOL" {
		return nil, fmt.Errorf("expected token 'SYMBOL' or 'INT', got %s", location.GetName())
	}

	return AInstruction{Location: location.GetValue()}, nil
}

// Specialized function to convert a "c-inst" node to an 'asm.CInstruction'.
func (Parser) HandleCInst(node pc.Queryable) (Instruction, error) {
	if node.GetName() != "c-inst" {
		return nil, fmt.Errorf("expected node 'c-inst', found %s", node.GetName())
	}

	assign, comp, jump := node.GetChildren()[0], node.GetChildren()[1], node.GetChildren()[2]

	if assign.GetName() == "assign" && len(assign.GetChildren()) == 2 {
		return CInstruction{Dest: assign.GetChildren()[0].GetValue(), Comp: comp.GetValue()}, nil
	}

	if jump.GetName() == "goto" && len(jump.GetChildren()) == 2 {
		return CInstruction{Comp: comp.GetValue(), Jump: jump.GetChildren()[1].GetValue()}, nil
	}

	return nil, fmt.Errorf("expected either an 'assign' or a 'goto' sub-node in C instruction")
}

// Specialized function to extract an 'asm.LabelDecl' from a "label-decl" node.
func (Parser) HandleLabelDecl(node pc.Queryable) (Instruction, error) {
	if node.GetName() != "label-decl" {
		return nil, fmt.Errorf("expected node 'label-decl', found %s", node.GetName())
	}

	symbol := node.GetChildren()[1]
	if symbol.GetName() != "SYMBOL" {
		return nil, fmt.Errorf("expected token 'SYMBOL', got %s", symbol.GetName())
	}

	return LabelDecl{Name: symbol.GetValue()}, nil
}
