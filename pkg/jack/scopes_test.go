package jack_test

import (
	"fmt"
	"testing"

	"github.com/endlmk/nand2tetris/pkg/jack"
)

func TestSymbolDefinition(t *testing.T) {
	test := func(st *jack.SymbolTable, lookup, expectedType string, expectedKind jack.VarKind, expectedIndex int) {
		kind, found := st.KindOf(lookup)
		if !found {
			t.Fatalf("expected to find '%s', got no entry", lookup)
		}
		if kind != expectedKind {
			t.Errorf("expected kind '%s' for '%s', got '%s'", expectedKind, lookup, kind)
		}
		if dataType := st.TypeOf(lookup); dataType != expectedType {
			t.Errorf("expected type '%s' for '%s', got '%s'", expectedType, lookup, dataType)
		}
		if index := st.IndexOf(lookup); index != expectedIndex {
			t.Errorf("expected index %d for '%s', got %d", expectedIndex, lookup, index)
		}
	}

	t.Run("Indices are dense per kind", func(t *testing.T) {
		st := jack.NewSymbolTable()

		st.Define("first", "int", jack.FieldVar)
		st.Define("total", "int", jack.StaticVar)
		st.Define("second", "boolean", jack.FieldVar)
		st.Define("name", "String", jack.StaticVar)

		// Fields and statics keep separate index runs even in the same scope
		test(st, "first", "int", jack.FieldVar, 0)
		test(st, "second", "boolean", jack.FieldVar, 1)
		test(st, "total", "int", jack.StaticVar, 0)
		test(st, "name", "String", jack.StaticVar, 1)

		if count := st.VarCount(jack.FieldVar); count != 2 {
			t.Errorf("expected 2 fields, got %d", count)
		}
		if count := st.VarCount(jack.StaticVar); count != 2 {
			t.Errorf("expected 2 statics, got %d", count)
		}
	})

	t.Run("Indices cover the exact range per kind", func(t *testing.T) {
		st := jack.NewSymbolTable()

		for i := 0; i < 8; i++ {
			st.Define(fmt.Sprintf("local_%d", i), "int", jack.LocalVar)
		}

		seen := map[int]bool{}
		for i := 0; i < 8; i++ {
			seen[st.IndexOf(fmt.Sprintf("local_%d", i))] = true
		}
		for i := 0; i < st.VarCount(jack.LocalVar); i++ {
			if !seen[i] {
				t.Errorf("expected index %d to be assigned, found a hole", i)
			}
		}
	})

	t.Run("Subroutine scope shadows class scope", func(t *testing.T) {
		st := jack.NewSymbolTable()

		st.Define("value", "int", jack.FieldVar)
		st.Define("value", "boolean", jack.LocalVar)

		test(st, "value", "boolean", jack.LocalVar, 0)
	})

	t.Run("Unknown names are not variables", func(t *testing.T) {
		st := jack.NewSymbolTable()
		st.Define("known", "int", jack.LocalVar)

		if _, found := st.KindOf("unknown"); found {
			t.Errorf("expected 'unknown' to be unresolved")
		}
		if dataType := st.TypeOf("unknown"); dataType != "" {
			t.Errorf("expected empty type for 'unknown', got '%s'", dataType)
		}
		if index := st.IndexOf("unknown"); index != 0 {
			t.Errorf("expected zero index for 'unknown', got %d", index)
		}
	})
}

func TestSubroutineScopeReset(t *testing.T) {
	t.Run("StartSubroutine clears arguments and locals only", func(t *testing.T) {
		st := jack.NewSymbolTable()

		st.Define("field_1", "int", jack.FieldVar)
		st.Define("static_1", "int", jack.StaticVar)
		st.Define("arg_1", "int", jack.ArgVar)
		st.Define("local_1", "int", jack.LocalVar)

		st.StartSubroutine()

		// The subroutine entries are gone, the class entries survive
		if _, found := st.KindOf("arg_1"); found {
			t.Errorf("expected 'arg_1' to be cleared")
		}
		if _, found := st.KindOf("local_1"); found {
			t.Errorf("expected 'local_1' to be cleared")
		}
		if _, found := st.KindOf("field_1"); !found {
			t.Errorf("expected 'field_1' to survive")
		}
		if _, found := st.KindOf("static_1"); !found {
			t.Errorf("expected 'static_1' to survive")
		}

		// And the subroutine index runs restart from zero
		if count := st.VarCount(jack.ArgVar); count != 0 {
			t.Errorf("expected 0 arguments after reset, got %d", count)
		}
		st.Define("arg_2", "int", jack.ArgVar)
		if index := st.IndexOf("arg_2"); index != 0 {
			t.Errorf("expected index 0 for the first argument, got %d", index)
		}
	})

	t.Run("Shadowed class entries resurface after reset", func(t *testing.T) {
		st := jack.NewSymbolTable()

		st.Define("value", "int", jack.FieldVar)
		st.Define("value", "boolean", jack.LocalVar)
		st.StartSubroutine()

		kind, found := st.KindOf("value")
		if !found || kind != jack.FieldVar {
			t.Errorf("expected the class entry to resurface, got ('%s', %t)", kind, found)
		}
	})
}

func TestMethodConvention(t *testing.T) {
	// In a method the object instance is the implicit argument 0 and every user
	// argument shifts up by one slot.
	st := jack.NewSymbolTable()
	st.StartSubroutine()

	st.Define("this", "Square", jack.ArgVar)
	st.Define("dx", "int", jack.ArgVar)
	st.Define("dy", "int", jack.ArgVar)

	if kind, found := st.KindOf("this"); !found || kind != jack.ArgVar {
		t.Fatalf("expected 'this' to be an argument, got ('%s', %t)", kind, found)
	}
	if index := st.IndexOf("this"); index != 0 {
		t.Errorf("expected 'this' at index 0, got %d", index)
	}
	if index := st.IndexOf("dx"); index != 1 {
		t.Errorf("expected 'dx' at index 1, got %d", index)
	}
	if index := st.IndexOf("dy"); index != 2 {
		t.Errorf("expected 'dy' at index 2, got %d", index)
	}
}
