package vm

import (
	"github.com/kristofer/loxvm/pkg/compiler"
	"github.com/kristofer/loxvm/pkg/debug"
)

// Interpret compiles source against this VM's heap and string-intern
// table, optionally disassembles the result (PrintCode), and runs it.
// It is the entry point both cmd/lox's file runner and its REPL use; the
// REPL calls it once per complete buffered statement against the same VM
// so that globals defined in one statement are visible to the next.
func (vm *VM) Interpret(source string) InterpretResult {
	ch, ok := compiler.Compile(source, &vm.heap, &vm.strings)
	if !ok {
		return InterpretCompileError
	}

	if vm.PrintCode {
		debug.DisassembleChunk(vm.Stderr, ch, "code")
	}

	return vm.Run(ch)
}
