// Command lox is loxvm's driver: it wires the compiler and VM together
// behind a file runner and an interactive REPL, per spec.md §6's external
// interface and §4.J's REPL/file-runner split.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/kristofer/loxvm/internal/config"
	"github.com/kristofer/loxvm/pkg/vm"
)

const version = "0.1.0"

// Exit codes, per spec.md §6.
const (
	exitOK           = 0
	exitUsage        = 64
	exitCompileError = 65
	exitRuntimeError = 70
	exitIOError      = 74
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("lox", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	trace := flags.BoolP("trace", "t", false, "trace each instruction's execution")
	printCode := flags.BoolP("print-code", "c", false, "disassemble compiled chunks before running them")
	stackMax := flags.Int("stack-max", 0, "override the VM's value-stack capacity")
	configPath := flags.String("config", "", "path to a .loxrc config file")
	showHelp := flags.BoolP("help", "h", false, "show this help message")
	showVersion := flags.BoolP("version", "v", false, "show the version")

	if err := flags.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		printUsage(os.Stderr)
		return exitUsage
	}

	if *showHelp {
		printUsage(os.Stdout)
		return exitOK
	}
	if *showVersion {
		fmt.Printf("lox %s\n", version)
		return exitOK
	}

	positional := flags.Args()
	if len(positional) > 1 {
		fmt.Fprintln(os.Stderr, "Usage: lox [path]")
		return exitUsage
	}

	workDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lox: %v\n", err)
		return exitIOError
	}

	cfg, err := loadConfig(workDir, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lox: %v\n", err)
		return exitIOError
	}

	cfg.TraceExecution = cfg.TraceExecution || *trace
	cfg.PrintCode = cfg.PrintCode || *printCode
	if *stackMax != 0 {
		cfg.StackMax = *stackMax
	}

	var machine *vm.VM
	if cfg.StackMax > 0 {
		machine = vm.NewWithStackMax(cfg.StackMax)
	} else {
		machine = vm.New()
	}
	machine.TraceExecution = cfg.TraceExecution
	machine.PrintCode = cfg.PrintCode

	if len(positional) == 1 {
		return runFile(machine, positional[0])
	}
	return runPrompt(machine)
}

// loadConfig resolves .loxrc/config.json unless an explicit --config path
// was given, in which case that file alone is read (spec.md's ambient
// config layer doesn't change the exit-code contract: a missing explicit
// file is still an I/O error by the time main maps it to exitIOError).
func loadConfig(workDir, explicitPath string) (config.Config, error) {
	if explicitPath == "" {
		return config.Load(workDir)
	}
	return config.LoadFile(explicitPath)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: lox [path] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "With no path, lox starts an interactive REPL.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -t, --trace            trace each instruction's execution")
	fmt.Fprintln(w, "  -c, --print-code       disassemble compiled chunks before running them")
	fmt.Fprintln(w, "      --stack-max N      override the VM's value-stack capacity")
	fmt.Fprintln(w, "      --config PATH      path to a .loxrc config file")
	fmt.Fprintln(w, "  -v, --version          show the version")
	fmt.Fprintln(w, "  -h, --help             show this help message")
}

// runFile reads and interprets a single source file, mapping the result
// to spec.md §6's exit codes: 65 for a compile error, 70 for a runtime
// error, 74 if the file can't be read.
func runFile(machine *vm.VM, path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lox: %v\n", err)
		return exitIOError
	}

	switch machine.Interpret(string(data)) {
	case vm.InterpretCompileError:
		return exitCompileError
	case vm.InterpretRuntimeError:
		return exitRuntimeError
	default:
		return exitOK
	}
}

// historyPath returns where the REPL persists its line history, honoring
// $XDG_STATE_HOME the way the rest of the toolchain honors
// $XDG_CONFIG_HOME for config (see internal/config).
func historyPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "loxvm", "history")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".loxvm_history")
}

// runPrompt drives the REPL loop. A single VM persists across the whole
// session so that globals defined on one line stay visible to the next
// (spec.md §9's single-owning-VM note). Always exits 0 -- compile and
// runtime errors inside the REPL are reported to stderr but don't end the
// session.
//
// Input is buffered across lines the way cmd/smog's runREPL buffers
// against its own statement terminator ('.'): here the buffer is flushed
// to Interpret once it ends in Lox's statement terminator (';' or a
// block's closing '}') with every '{' it opened already closed, so a
// block statement typed across several lines compiles as one unit instead
// of failing on its first, incomplete line.
func runPrompt(machine *vm.VM) int {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if hist := historyPath(); hist != "" {
		if f, err := os.Open(hist); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	var buf strings.Builder
	braceDepth := 0

	for {
		prompt := "> "
		if buf.Len() > 0 {
			prompt = "... "
		}

		input, err := line.Prompt(prompt)
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				break
			}
			fmt.Fprintf(os.Stderr, "lox: %v\n", err)
			break
		}

		if buf.Len() == 0 && strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		braceDepth += strings.Count(input, "{") - strings.Count(input, "}")
		buf.WriteString(input)
		buf.WriteByte('\n')

		if braceDepth > 0 || !statementComplete(buf.String()) {
			continue
		}

		statement := buf.String()
		buf.Reset()
		braceDepth = 0

		machine.Interpret(statement)
	}

	saveHistory(line)
	return exitOK
}

// statementComplete reports whether the buffered REPL input ends in a Lox
// statement terminator -- ';' for ordinary statements, '}' for a block
// closed on its own line. It's the same trailing-terminator heuristic
// cmd/smog's runREPL applies for its own grammar, keyed off Lox's instead.
func statementComplete(buffered string) bool {
	trimmed := strings.TrimSpace(buffered)
	if trimmed == "" {
		return false
	}
	last := trimmed[len(trimmed)-1]
	return last == ';' || last == '}'
}

// saveHistory persists the REPL's line history atomically, so a crash or
// concurrent session mid-write can never leave a truncated history file
// behind (unlike a plain os.Create + Write).
func saveHistory(line *liner.State) {
	path := historyPath()
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}

	var buf bytes.Buffer
	if _, err := line.WriteHistory(&buf); err != nil {
		return
	}
	_ = atomic.WriteFile(path, &buf)
}
