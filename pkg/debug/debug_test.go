package debug

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kristofer/loxvm/pkg/chunk"
	"github.com/kristofer/loxvm/pkg/value"
)

func TestDisassembleChunk_HeaderAndMnemonics(t *testing.T) {
	c := chunk.New()
	idx := c.AddConstant(value.Number(1.2))
	c.WriteOp(chunk.OpConstant, 1)
	c.Write(byte(idx), 1)
	c.WriteOp(chunk.OpReturn, 1)

	var out bytes.Buffer
	DisassembleChunk(&out, c, "test chunk")

	got := out.String()
	if !strings.Contains(got, "== test chunk ==") {
		t.Errorf("missing header: %q", got)
	}
	if !strings.Contains(got, "OP_CONSTANT") || !strings.Contains(got, "1.2") {
		t.Errorf("missing constant instruction: %q", got)
	}
	if !strings.Contains(got, "OP_RETURN") {
		t.Errorf("missing return instruction: %q", got)
	}
}

func TestDisassembleInstruction_RepeatsLineOmitted(t *testing.T) {
	c := chunk.New()
	c.WriteOp(chunk.OpNil, 5)
	c.WriteOp(chunk.OpReturn, 5)

	var out bytes.Buffer
	offset := DisassembleInstruction(&out, c, 0)
	DisassembleInstruction(&out, c, offset)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), out.String())
	}
	if !strings.Contains(lines[0], "   5 ") {
		t.Errorf("first instruction should print its line number: %q", lines[0])
	}
	if !strings.Contains(lines[1], "   | ") {
		t.Errorf("second instruction sharing the line should print '   | ': %q", lines[1])
	}
}
