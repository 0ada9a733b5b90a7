package jack

// ----------------------------------------------------------------------------
// Symbol Table

// The SymbolTable keeps track of every variable visible at the point of
// compilation, split across the two nesting levels of the Jack language:
// - Class scope: 'static' and 'field' declarations, alive for the whole class
// - Subroutine scope: arguments and 'var' declarations, reset on every subroutine
//
// Within each (scope, kind) pair the assigned indices are a dense 0-based run in
// declaration order, which is exactly the slot layout of the backing VM segment.
// A name unresolved in both scopes is not an error at this level: the compilation
// engine treats it as a class or subroutine name.
type SymbolTable struct {
	class      map[string]Variable // Holds the 'static' and 'field' entries
	subroutine map[string]Variable // Holds the 'arg' and 'var' entries
}

// Initializes and returns to the caller a brand new 'SymbolTable' struct.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		class:      map[string]Variable{},
		subroutine: map[string]Variable{},
	}
}

// StartSubroutine empties the subroutine scope, the class scope is untouched and
// keeps serving lookups for the remainder of the class.
func (st *SymbolTable) StartSubroutine() {
	st.subroutine = map[string]Variable{}
}

// Define inserts a new variable in the scope owning its kind. The assigned index
// is the count of same-kind entries before the insertion, so indices stay dense
// and follow declaration order. Re-defining a name in the same scope overwrites.
func (st *SymbolTable) Define(name, dataType string, kind VarKind) Variable {
	variable := Variable{Name: name, DataType: dataType, Kind: kind, Index: st.VarCount(kind)}
	st.scopeOf(kind)[name] = variable
	return variable
}

// VarCount returns the number of variables of the given kind in its owning scope.
func (st *SymbolTable) VarCount(kind VarKind) int {
	count := 0
	for _, variable := range st.scopeOf(kind) {
		if variable.Kind == kind {
			count++
		}
	}
	return count
}

// KindOf resolves a name to its kind, the subroutine scope wins over the class
// scope. The boolean reports whether the name is a variable at all.
func (st *SymbolTable) KindOf(name string) (VarKind, bool) {
	if variable, found := st.lookup(name); found {
		return variable.Kind, true
	}
	return "", false
}

// TypeOf resolves a name to its declared data type, same lookup order as KindOf,
// the empty string is returned for names that are not variables.
func (st *SymbolTable) TypeOf(name string) string {
	variable, _ := st.lookup(name)
	return variable.DataType
}

// IndexOf resolves a name to its segment slot, same lookup order as KindOf, zero
// is returned for names that are not variables (check KindOf first to tell a
// missing name apart from a variable genuinely living at slot 0).
func (st *SymbolTable) IndexOf(name string) int {
	variable, _ := st.lookup(name)
	return variable.Index
}

func (st *SymbolTable) scopeOf(kind VarKind) map[string]Variable {
	if kind == StaticVar || kind == FieldVar {
		return st.class
	}
	return st.subroutine
}

func (st *SymbolTable) lookup(name string) (Variable, bool) {
	if variable, found := st.subroutine[name]; found {
		return variable, true
	}
	if variable, found := st.class[name]; found {
		return variable, true
	}
	return Variable{}, false
}
