// Package debug pretty-prints a chunk.Chunk's bytecode for diagnostics:
// DEBUG_PRINT_CODE's post-compile dump and DEBUG_TRACE_EXECUTION's
// per-instruction trace (spec.md §6) both go through DisassembleInstruction.
package debug

import (
	"fmt"
	"io"

	"github.com/kristofer/loxvm/pkg/chunk"
	"github.com/kristofer/loxvm/pkg/value"
)

// DisassembleChunk prints a header naming the chunk, then every
// instruction it contains in order.
func DisassembleChunk(w io.Writer, c *chunk.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)

	for offset := 0; offset < len(c.Code); {
		offset = DisassembleInstruction(w, c, offset)
	}
}

// DisassembleInstruction prints the single instruction at offset --
// its byte offset, source line (or "   | " when it shares the previous
// instruction's line), mnemonic, and operand if any -- and returns the
// offset of the instruction that follows it.
func DisassembleInstruction(w io.Writer, c *chunk.Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", c.Lines[offset])
	}

	op := chunk.Opcode(c.Code[offset])
	switch op {
	case chunk.OpConstant, chunk.OpDefineGlobal, chunk.OpGetGlobal, chunk.OpSetGlobal:
		return constantInstruction(w, op.String(), c, offset)
	case chunk.OpGetLocal, chunk.OpSetLocal, chunk.OpJump, chunk.OpJumpIfFalse:
		return byteInstruction(w, op.String(), c, offset)
	default:
		return simpleInstruction(w, op, offset)
	}
}

func simpleInstruction(w io.Writer, op chunk.Opcode, offset int) int {
	fmt.Fprintln(w, op.String())
	return offset + 1
}

func constantInstruction(w io.Writer, name string, c *chunk.Chunk, offset int) int {
	constant := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", name, constant, value.Print(c.Constants[constant]))
	return offset + 2
}

func byteInstruction(w io.Writer, name string, c *chunk.Chunk, offset int) int {
	slot := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", name, slot)
	return offset + 2
}
