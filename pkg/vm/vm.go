// Package vm implements loxvm's stack-based bytecode interpreter: the
// fetch-decode-execute loop, the value stack, and the globals/string-intern
// tables a compiled chunk.Chunk runs against.
//
// A VM is not reused across unrelated programs the way the original source's
// process-global `vm` was -- spec.md §9 calls both conformant, and this
// implementation takes the explicit-handle route: callers own a *VM and pass
// it into Interpret, which makes the VM trivially safe to run more than once
// per process (the REPL in cmd/lox does exactly that, one VM across the
// whole session so that globals persist between lines).
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/kristofer/loxvm/pkg/chunk"
	"github.com/kristofer/loxvm/pkg/debug"
	"github.com/kristofer/loxvm/pkg/value"
)

// DefaultStackMax is the VM's value-stack capacity unless overridden.
// spec.md §3 leaves the limit an implementation choice ("fail on push past
// 256 or document a larger fixed limit"); this VM keeps clox's own 256 by
// default but, unlike a fixed C array, lets a host configure it (cmd/lox's
// --stack-max flag and internal/config's stackMax field) and reports
// overflow past whatever limit is in force as a checked runtime error
// rather than letting it corrupt memory.
const DefaultStackMax = 256

// InterpretResult reports how a call to Interpret finished. The driver
// (package main, cmd/lox) maps these to process exit codes.
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// VM executes compiled chunks against a value stack, a globals table, and
// a shared string-intern table. Zero value is not ready to use; call New.
type VM struct {
	chunk *chunk.Chunk
	ip    int

	stack    []value.Value
	stackTop int

	heap    value.Heap
	strings value.Table
	globals value.Table

	// TraceExecution prints the stack and disassembles each instruction
	// just before it dispatches (spec.md §6's DEBUG_TRACE_EXECUTION).
	TraceExecution bool
	// PrintCode disassembles a chunk once, right after it compiles
	// successfully (spec.md §6's DEBUG_PRINT_CODE), before Interpret runs it.
	PrintCode bool

	Stdout io.Writer
	Stderr io.Writer
}

// New returns a VM with the default stack capacity, ready to Interpret
// source. Its globals and string-intern tables start empty and persist
// across however many Interpret calls the caller makes with it.
func New() *VM {
	return NewWithStackMax(DefaultStackMax)
}

// NewWithStackMax returns a VM whose value stack holds at most max
// entries, for hosts that want spec.md §3's limit raised or lowered
// (cmd/lox's --stack-max flag and .loxrc's stackMax field).
func NewWithStackMax(max int) *VM {
	return &VM{stack: make([]value.Value, max), Stdout: os.Stdout, Stderr: os.Stderr}
}

// Heap exposes the VM's object heap, mainly so a host (cmd/lox, or a test)
// can report how many heap objects a session accumulated.
func (vm *VM) Heap() *value.Heap { return &vm.heap }

func (vm *VM) resetStack() {
	vm.stackTop = 0
}

// push reports false on overflow (having already raised the runtime
// error), so every call site can bail out of Run immediately instead of
// proceeding with an instruction that assumed the push succeeded.
func (vm *VM) push(v value.Value) bool {
	if vm.stackTop >= len(vm.stack) {
		vm.runtimeError("Stack overflow.")
		return false
	}
	vm.stack[vm.stackTop] = v
	vm.stackTop++
	return true
}

// pop implements spec.md §8's boundary behavior for an empty stack: rather
// than panic or read out of bounds, it reports the condition to stderr and
// hands back Nil so the caller can keep running.
func (vm *VM) pop() value.Value {
	if vm.stackTop == 0 {
		fmt.Fprintln(vm.Stderr, "Trying to pop from an empty stack")
		return value.Nil
	}
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

// runtimeError implements spec.md §7's runtime-error format: the message,
// then the line that produced the instruction about to run, then a stack
// reset so the VM is left usable for the next REPL line.
func (vm *VM) runtimeError(format string, args ...any) {
	fmt.Fprintf(vm.Stderr, format, args...)
	fmt.Fprintln(vm.Stderr)

	line := 0
	if vm.ip-1 >= 0 && vm.ip-1 < len(vm.chunk.Lines) {
		line = vm.chunk.Lines[vm.ip-1]
	}
	fmt.Fprintf(vm.Stderr, "[line %d] in script\n", line)

	vm.resetStack()
}

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readConstant() value.Value {
	return vm.chunk.Constants[vm.readByte()]
}

// Run executes chunk from its first instruction until OP_RETURN or a
// runtime error. It does not compile; Interpret is the usual entry point.
func (vm *VM) Run(c *chunk.Chunk) InterpretResult {
	vm.chunk = c
	vm.ip = 0

	for {
		if vm.TraceExecution {
			vm.traceInstruction()
		}

		op := chunk.Opcode(vm.readByte())
		switch op {
		case chunk.OpConstant:
			if !vm.push(vm.readConstant()) {
				return InterpretRuntimeError
			}

		case chunk.OpNil:
			if !vm.push(value.Nil) {
				return InterpretRuntimeError
			}
		case chunk.OpTrue:
			if !vm.push(value.Bool(true)) {
				return InterpretRuntimeError
			}
		case chunk.OpFalse:
			if !vm.push(value.Bool(false)) {
				return InterpretRuntimeError
			}

		case chunk.OpPop:
			vm.pop()

		case chunk.OpDefineGlobal:
			name := vm.readConstant().AsString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()

		case chunk.OpGetGlobal:
			name := vm.readConstant().AsString()
			v, ok := vm.globals.Get(name)
			if !ok {
				vm.runtimeError("Undefined variable '%s'.", name.Chars)
				return InterpretRuntimeError
			}
			if !vm.push(v) {
				return InterpretRuntimeError
			}

		case chunk.OpSetGlobal:
			name := vm.readConstant().AsString()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				vm.runtimeError("Undefined variable '%s'.", name.Chars)
				return InterpretRuntimeError
			}

		case chunk.OpEqual:
			b := vm.pop()
			a := vm.pop()
			if !vm.push(value.Bool(value.Equal(a, b))) {
				return InterpretRuntimeError
			}

		case chunk.OpGreater:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.Bool(a > b) }) {
				return InterpretRuntimeError
			}
		case chunk.OpLess:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.Bool(a < b) }) {
				return InterpretRuntimeError
			}

		case chunk.OpAdd:
			if !vm.add() {
				return InterpretRuntimeError
			}
		case chunk.OpSubtract:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.Number(a - b) }) {
				return InterpretRuntimeError
			}
		case chunk.OpMultiply:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.Number(a * b) }) {
				return InterpretRuntimeError
			}
		case chunk.OpDivide:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.Number(a / b) }) {
				return InterpretRuntimeError
			}

		case chunk.OpNot:
			if !vm.push(value.Bool(vm.pop().IsFalsey())) {
				return InterpretRuntimeError
			}

		case chunk.OpNegate:
			if !vm.peek(0).IsNumber() {
				vm.runtimeError("Operand must be a number.")
				return InterpretRuntimeError
			}
			vm.stack[vm.stackTop-1] = value.Number(-vm.peek(0).AsNumber())

		case chunk.OpPrint:
			fmt.Fprintln(vm.Stdout, value.Print(vm.pop()))

		case chunk.OpReturn:
			return InterpretOK

		case chunk.OpJump, chunk.OpJumpIfFalse, chunk.OpGetLocal, chunk.OpSetLocal:
			// Reserved encodings (spec.md §4.H, §9's open question): the
			// compiler never emits these, so reaching one means a
			// malformed chunk rather than a reachable language feature.
			vm.runtimeError("Unsupported opcode %s.", op)
			return InterpretRuntimeError

		default:
			vm.runtimeError("Unknown opcode %d.", op)
			return InterpretRuntimeError
		}
	}
}

// binaryNumeric pops b then a, requires both numeric, and pushes fn(a, b).
func (vm *VM) binaryNumeric(fn func(a, b float64) value.Value) bool {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		vm.runtimeError("Operands must be numbers.")
		return false
	}
	b := vm.pop()
	a := vm.pop()
	return vm.push(fn(a.AsNumber(), b.AsNumber()))
}

// add implements OP_ADD's dual numeric/string contract (spec.md §4.H):
// pops b then a, and depending on their shared type either sums or
// concatenates (interning the result) before pushing.
func (vm *VM) add() bool {
	bVal := vm.peek(0)
	aVal := vm.peek(1)

	switch {
	case aVal.IsNumber() && bVal.IsNumber():
		b := vm.pop()
		a := vm.pop()
		return vm.push(value.Number(a.AsNumber() + b.AsNumber()))
	case aVal.IsObjKind(value.ObjTypeString) && bVal.IsObjKind(value.ObjTypeString):
		b := vm.pop()
		a := vm.pop()
		result := value.Concatenate(&vm.heap, &vm.strings, a.AsString(), b.AsString())
		return vm.push(value.Obj(result))
	default:
		vm.runtimeError("Operands must be two numbers or two strings.")
		return false
	}
}

func (vm *VM) traceInstruction() {
	fmt.Fprint(vm.Stderr, "          ")
	for i := 0; i < vm.stackTop; i++ {
		fmt.Fprintf(vm.Stderr, "[ %s ]", value.Print(vm.stack[i]))
	}
	fmt.Fprintln(vm.Stderr)
	debug.DisassembleInstruction(vm.Stderr, vm.chunk, vm.ip)
}
