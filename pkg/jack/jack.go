package jack

import "github.com/endlmk/nand2tetris/pkg/vm"

// ----------------------------------------------------------------------------
// General information

// This section contains some general information about the Jack programming language.
//
// A program is basically a container of classes (the only top-level object allowed)
// and is started by locating the Main class and executing its 'main' subroutine.
// Each class lives in its own file and compiles to its own VM module, completely
// independent from the other ones: names across files are referenced only by their
// textual spelling, there is no linking step at this level.

// ----------------------------------------------------------------------------
// Tokens

// A Token is the atomic unit produced by the Tokenizer, a tagged variant with the
// five lexical categories of the Jack grammar. The 'Value' payload holds the
// keyword/symbol/identifier spelling, the decimal digits of an integer constant or
// the bytes of a string constant without the surrounding quotes.
type Token struct {
	Type  TokenType
	Value string
}

type TokenType string // Enum to manage the lexical categories of a Token

const (
	Keyword     TokenType = "keyword"
	Symbol      TokenType = "symbol"
	Identifier  TokenType = "identifier"
	IntConst    TokenType = "integerConstant"
	StringConst TokenType = "stringConstant"
)

// The reserved words of the Jack language, an identifier-shaped lexeme matching
// one of these is always tokenized as a Keyword.
var Keywords = map[string]bool{
	"class": true, "constructor": true, "function": true, "method": true,
	"field": true, "static": true, "var": true, "int": true, "char": true,
	"boolean": true, "void": true, "true": true, "false": true, "null": true,
	"this": true, "let": true, "do": true, "if": true, "else": true,
	"while": true, "return": true,
}

// The 19 single character symbols of the Jack grammar.
const SymbolChars = "{}()[].,;+-*/&|<>=~"

// ----------------------------------------------------------------------------
// Variables

// Variables are containers of value that can be read/written through expressions
// and statements. A declared 'Variable' accommodates all four declaration sites at
// the same time: class fields and statics, subroutine arguments and locals.
type Variable struct {
	Name     string  // The var name, acts as identifier in the scope it is declared
	DataType string  // 'int', 'char', 'boolean' or a class name
	Kind     VarKind // The declaration site, determines scope and backing segment
	Index    int     // Position among the variables of the same kind, dense from 0
}

type VarKind string // Enum to manage the declaration sites allowed for a Variable

const (
	StaticVar VarKind = "static" // Class scope, shared across all instances
	FieldVar  VarKind = "field"  // Class scope, one slot per object instance
	ArgVar    VarKind = "arg"    // Subroutine scope, bound at call time
	LocalVar  VarKind = "var"    // Subroutine scope, zero-initialized on entry
)

// SegmentOf maps a variable kind to the VM memory segment backing it: locals live
// on the 'local' segment, arguments on 'argument', statics on the per-module
// 'static' segment and fields on 'this' (addressed through the object pointer).
func SegmentOf(kind VarKind) vm.SegmentType {
	switch kind {
	case StaticVar:
		return vm.Static
	case FieldVar:
		return vm.This
	case ArgVar:
		return vm.Argument
	default:
		return vm.Local
	}
}
