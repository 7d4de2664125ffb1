// Package chunk defines the bytecode format the compiler emits and the VM
// executes for loxvm.
//
// A Chunk is the compiled unit: a byte-encoded instruction stream, a
// parallel line-number table for error reporting, and a constant pool for
// literal values. There is no intermediate tree -- the compiler (package
// compiler) writes straight into a Chunk as it parses.
//
// Instruction Format:
//
// Every opcode is a single byte. Most opcodes that need an operand take
// exactly one further byte, an unsigned index into the constant pool or a
// local-variable slot number -- which is why a single chunk can only
// address 256 distinct constants (see AddConstant).
//
// Example compilation:
//
//	Source:   var a = 10; var b = a + 5; print b;
//
//	Bytecode:
//	  OP_CONSTANT 1     ; constants[1] = 10
//	  OP_DEFINE_GLOBAL 0 ; constants[0] = "a"
//	  OP_GET_GLOBAL 0
//	  OP_CONSTANT 3     ; constants[3] = 5
//	  OP_ADD
//	  OP_DEFINE_GLOBAL 2 ; constants[2] = "b"
//	  OP_GET_GLOBAL 2
//	  OP_PRINT
//	  OP_RETURN
package chunk

import "github.com/kristofer/loxvm/pkg/value"

// Opcode is a single bytecode instruction's operation.
type Opcode byte

const (
	// OpConstant pushes constants[operand] onto the stack.
	OpConstant Opcode = iota
	// OpNil pushes the nil literal.
	OpNil
	// OpTrue pushes the boolean literal true.
	OpTrue
	// OpFalse pushes the boolean literal false.
	OpFalse
	// OpPop discards the top stack value.
	OpPop
	// OpDefineGlobal pops the top value and binds it as
	// globals[constants[operand]].
	OpDefineGlobal
	// OpGetGlobal pushes globals[constants[operand]], or raises a runtime
	// error ("Undefined variable") if absent.
	OpGetGlobal
	// OpSetGlobal overwrites globals[constants[operand]] with peek(0)
	// without popping, or raises a runtime error if the global is absent.
	OpSetGlobal
	// OpEqual pops b then a, pushes Bool(a == b).
	OpEqual
	// OpGreater pops b then a, pushes Bool(a > b). Numeric operands only.
	OpGreater
	// OpLess pops b then a, pushes Bool(a < b). Numeric operands only.
	OpLess
	// OpAdd pops b then a: numeric addition, or string concatenation when
	// both operands are strings.
	OpAdd
	// OpSubtract pops b then a, pushes a - b. Numeric operands only.
	OpSubtract
	// OpMultiply pops b then a, pushes a * b. Numeric operands only.
	OpMultiply
	// OpDivide pops b then a, pushes a / b. Numeric operands only.
	OpDivide
	// OpNot pops a value, pushes Bool(IsFalsey(value)).
	OpNot
	// OpNegate negates the numeric value on top of the stack in place.
	OpNegate
	// OpPrint pops a value, writes Print(value) plus a newline.
	OpPrint
	// OpReturn halts execution of the chunk.
	OpReturn

	// The following four opcodes are reserved: the instruction set defines
	// them (spec.md §4.H) but the compiler in this core never emits them,
	// since every name read or assignment compiles to the global ops even
	// inside a block scope (spec.md §4.G). The VM treats dispatching one of these
	// as an internal runtime error rather than silently misbehaving.

	// OpJump unconditionally jumps to operand.
	OpJump
	// OpJumpIfFalse pops a boolean and jumps to operand if it is false.
	OpJumpIfFalse
	// OpGetLocal pushes the local variable at slot operand.
	OpGetLocal
	// OpSetLocal overwrites the local variable at slot operand with peek(0).
	OpSetLocal
)

var opcodeNames = [...]string{
	OpConstant:     "OP_CONSTANT",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpNot:          "OP_NOT",
	OpNegate:       "OP_NEGATE",
	OpPrint:        "OP_PRINT",
	OpReturn:       "OP_RETURN",
	OpJump:         "OP_JUMP",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
}

// String returns the opcode's mnemonic, used by package debug and error
// messages. Unknown values (shouldn't occur on a well-formed chunk) format
// as "OP_UNKNOWN".
func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "OP_UNKNOWN"
}

// MaxConstants is the largest number of distinct constants a single chunk
// can address, since every constant-bearing instruction's operand is one
// unsigned byte.
const MaxConstants = 256

// Chunk is a compiled unit: bytecode plus its line table and constant pool.
type Chunk struct {
	Code      []byte      // opcodes and inline operand bytes
	Lines     []int       // Lines[i] is the source line that emitted Code[i]
	Constants []value.Value
}

// New returns an empty Chunk ready to be written into.
func New() *Chunk {
	return &Chunk{}
}

// Write appends a single byte (an opcode or an operand) to Code, recording
// line as the source line that produced it. Code and Lines always grow
// together, so len(Code) == len(Lines) is an invariant of every Chunk.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp is a convenience wrapper for Write that takes an Opcode.
func (c *Chunk) WriteOp(op Opcode, line int) {
	c.Write(byte(op), line)
}

// AddConstant appends v to the constant pool and returns its index. The
// caller (package compiler's makeConstant) is responsible for erroring out
// if the index would exceed MaxConstants-1, since the operand that
// addresses it is a single byte.
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// FindConstant linearly scans the constant pool for an entry equal to v
// (under value.Equal) and returns its index, or -1 if none matches. The
// compiler uses this to deduplicate repeated identifier constants so a
// chunk's 256 addressable slots go further (spec.md §4.E).
func (c *Chunk) FindConstant(v value.Value) int {
	for i, existing := range c.Constants {
		if value.Equal(existing, v) {
			return i
		}
	}
	return -1
}
