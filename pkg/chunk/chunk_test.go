package chunk

import (
	"testing"

	"github.com/kristofer/loxvm/pkg/value"
)

func TestWriteOp_KeepsCodeAndLinesParallel(t *testing.T) {
	c := New()
	c.WriteOp(OpNil, 1)
	c.Write(42, 2)

	if len(c.Code) != len(c.Lines) {
		t.Fatalf("len(Code)=%d != len(Lines)=%d", len(c.Code), len(c.Lines))
	}
	if c.Code[0] != byte(OpNil) || c.Lines[0] != 1 {
		t.Errorf("got Code[0]=%d Lines[0]=%d", c.Code[0], c.Lines[0])
	}
	if c.Code[1] != 42 || c.Lines[1] != 2 {
		t.Errorf("got Code[1]=%d Lines[1]=%d", c.Code[1], c.Lines[1])
	}
}

func TestAddConstant_ReturnsIncrementingIndex(t *testing.T) {
	c := New()
	i0 := c.AddConstant(value.Number(1))
	i1 := c.AddConstant(value.Number(2))
	if i0 != 0 || i1 != 1 {
		t.Fatalf("got %d, %d; want 0, 1", i0, i1)
	}
}

func TestFindConstant_FindsEqualEntryOrReportsMissing(t *testing.T) {
	c := New()
	c.AddConstant(value.Number(1))
	c.AddConstant(value.Number(2))

	if idx := c.FindConstant(value.Number(2)); idx != 1 {
		t.Errorf("got %d, want 1", idx)
	}
	if idx := c.FindConstant(value.Number(3)); idx != -1 {
		t.Errorf("got %d, want -1", idx)
	}
}

func TestOpcode_String(t *testing.T) {
	if OpReturn.String() != "OP_RETURN" {
		t.Errorf("got %q", OpReturn.String())
	}
	if Opcode(255).String() != "OP_UNKNOWN" {
		t.Errorf("got %q for an out-of-range opcode", Opcode(255).String())
	}
}
