package compiler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kristofer/loxvm/pkg/chunk"
	"github.com/kristofer/loxvm/pkg/value"
)

func compile(t *testing.T, src string) (*chunk.Chunk, bool) {
	t.Helper()
	var heap value.Heap
	var strs value.Table
	return Compile(src, &heap, &strs)
}

func opcodes(c *chunk.Chunk) []chunk.Opcode {
	var ops []chunk.Opcode
	for i := 0; i < len(c.Code); i++ {
		op := chunk.Opcode(c.Code[i])
		ops = append(ops, op)
		switch op {
		case chunk.OpConstant, chunk.OpDefineGlobal, chunk.OpGetGlobal, chunk.OpSetGlobal,
			chunk.OpGetLocal, chunk.OpSetLocal, chunk.OpJump, chunk.OpJumpIfFalse:
			i++
		}
	}
	return ops
}

func TestCompile_ArithmeticPrecedence(t *testing.T) {
	c, ok := compile(t, "print 1 + 2 * 3;")
	if !ok {
		t.Fatal("expected successful compile")
	}
	want := []chunk.Opcode{
		chunk.OpConstant, chunk.OpConstant, chunk.OpConstant,
		chunk.OpMultiply, chunk.OpAdd, chunk.OpPrint, chunk.OpReturn,
	}
	if diff := cmp.Diff(want, opcodes(c)); diff != "" {
		t.Errorf("opcodes mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_ComparisonDesugaring(t *testing.T) {
	tests := []struct {
		src  string
		want []chunk.Opcode
	}{
		{"1 != 2;", []chunk.Opcode{chunk.OpConstant, chunk.OpConstant, chunk.OpEqual, chunk.OpNot, chunk.OpPop, chunk.OpReturn}},
		{"1 <= 2;", []chunk.Opcode{chunk.OpConstant, chunk.OpConstant, chunk.OpGreater, chunk.OpNot, chunk.OpPop, chunk.OpReturn}},
		{"1 >= 2;", []chunk.Opcode{chunk.OpConstant, chunk.OpConstant, chunk.OpLess, chunk.OpNot, chunk.OpPop, chunk.OpReturn}},
	}
	for _, tt := range tests {
		c, ok := compile(t, tt.src)
		if !ok {
			t.Fatalf("compile(%q) failed", tt.src)
		}
		if diff := cmp.Diff(tt.want, opcodes(c)); diff != "" {
			t.Errorf("compile(%q) opcodes mismatch (-want +got):\n%s", tt.src, diff)
		}
	}
}

func TestCompile_VarDeclarationAndGlobalAccess(t *testing.T) {
	c, ok := compile(t, "var a = 10; print a;")
	if !ok {
		t.Fatal("expected successful compile")
	}
	want := []chunk.Opcode{
		chunk.OpConstant, chunk.OpDefineGlobal,
		chunk.OpGetGlobal, chunk.OpPrint, chunk.OpReturn,
	}
	if diff := cmp.Diff(want, opcodes(c)); diff != "" {
		t.Errorf("opcodes mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_GlobalNameConstantDeduped(t *testing.T) {
	c, ok := compile(t, "var a = 1; a = 2; print a;")
	if !ok {
		t.Fatal("expected successful compile")
	}
	// "a" appears three times by name but should only occupy one constant slot.
	count := 0
	for _, v := range c.Constants {
		if v.IsObjKind(value.ObjTypeString) && v.AsString().Chars == "a" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one constant-pool entry for \"a\", got %d", count)
	}
}

func TestCompile_BlockScopeEmitsPopsOnExit(t *testing.T) {
	c, ok := compile(t, "{ var a = 1; var b = 2; }")
	if !ok {
		t.Fatal("expected successful compile")
	}
	got := opcodes(c)
	pops := 0
	for _, op := range got {
		if op == chunk.OpPop {
			pops++
		}
	}
	if pops != 2 {
		t.Errorf("expected 2 OP_POP for the two locals leaving scope, got %d (%v)", pops, got)
	}
}

func TestCompile_MissingExpressionReportsError(t *testing.T) {
	_, ok := compile(t, "print 1 +;")
	if ok {
		t.Fatal("expected compile failure")
	}
}

func TestCompile_UnterminatedStringReportsError(t *testing.T) {
	_, ok := compile(t, `print "hi;`)
	if ok {
		t.Fatal("expected compile failure")
	}
}

func TestCompile_PanicModeSuppressesCascadingErrors(t *testing.T) {
	// Only the first error in a malformed statement should be reported;
	// synchronize() should let the next statement compile cleanly.
	c, ok := compile(t, "print 1 +; print 2;")
	if ok {
		t.Fatal("expected compile failure")
	}
	// Despite the failure, the second statement's constant should still
	// have been compiled in (compile keeps going to EOF).
	found := false
	for _, v := range c.Constants {
		if v.IsNumber() && v.AsNumber() == 2 {
			found = true
		}
	}
	if !found {
		t.Error("expected the statement after the error to still be compiled")
	}
}

// TestCompile_ConstantPoolOverflowReportsError exercises spec.md §8's
// boundary behavior for makeConstant: a chunk's constant-bearing operand is
// one unsigned byte, so a 257th distinct constant can't be addressed and
// must be a compile error rather than silently wrapping or truncating.
func TestCompile_ConstantPoolOverflowReportsError(t *testing.T) {
	var src strings.Builder
	for i := 0; i < 300; i++ {
		fmt.Fprintf(&src, "%d;\n", i)
	}

	_, ok := compile(t, src.String())
	if ok {
		t.Fatal("expected compile failure once the constant pool exceeds 256 entries")
	}
}

// TestCompile_TooManyLocalsReportsError exercises spec.md §8's boundary
// behavior for addLocal: a single scope can hold at most 256 locals
// (maxLocals), matching the one-byte slot operand a local would otherwise
// need; the 257th declaration in one scope must be a compile error.
func TestCompile_TooManyLocalsReportsError(t *testing.T) {
	var src strings.Builder
	src.WriteString("{\n")
	for i := 0; i < 257; i++ {
		fmt.Fprintf(&src, "var v%d;\n", i)
	}
	src.WriteString("}\n")

	_, ok := compile(t, src.String())
	if ok {
		t.Fatal("expected compile failure once a single scope exceeds 256 locals")
	}
}
