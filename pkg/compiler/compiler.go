// Package compiler implements loxvm's single-pass compiler: a Pratt parser
// that drives package lexer directly and emits bytecode straight into a
// package chunk Chunk, with no intermediate syntax tree. Precedence,
// associativity, assignment-target checking, lexical scope, and constant
// pooling are all resolved in this one pass.
package compiler

import (
	"fmt"
	"os"
	"strconv"

	"github.com/kristofer/loxvm/pkg/chunk"
	"github.com/kristofer/loxvm/pkg/lexer"
	"github.com/kristofer/loxvm/pkg/value"
)

// Precedence levels, low to high. A Pratt rule's Precedence field is always
// the token's *infix* binding power; parsePrecedence consumes infix
// operators whose precedence is >= the level it was called at.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// local tracks one declared local variable's name and the scope depth at
// which it became usable. A depth of -1 marks a local that has been
// declared but not yet initialized (its own initializer is still being
// compiled); declareLocalVariable's duplicate-name check always scans such
// a local. Names are never resolved to locals (see namedVariable).
type local struct {
	name  lexer.Token
	depth int
}

// maxLocals bounds the locals array: OP_GET_LOCAL/OP_SET_LOCAL address a
// slot with a single unsigned byte, same as the constant pool.
const maxLocals = 256

// Compiler holds the single-pass compilation state: the token cursor, the
// error-recovery flags, the chunk being emitted into, and the lexical-scope
// tracker for locals. Every compile runs through exactly one Compiler.
type Compiler struct {
	lex *lexer.Lexer

	current  lexer.Token
	previous lexer.Token

	hadError  bool
	panicMode bool

	chunk *chunk.Chunk
	heap  *value.Heap
	strs  *value.Table

	locals     [maxLocals]local
	localCount int
	scopeDepth int

	stderr *os.File
}

// Compile compiles source into a fresh Chunk, interning any string
// constants into heap/strings. It reports ok == false if any compile
// error was encountered; the returned chunk should not be run in that
// case (spec.md §7's compile-error propagation rule).
func Compile(source string, heap *value.Heap, strs *value.Table) (ch *chunk.Chunk, ok bool) {
	c := &Compiler{
		lex:    lexer.New(source),
		chunk:  chunk.New(),
		heap:   heap,
		strs:   strs,
		stderr: os.Stderr,
	}

	c.advance()
	for !c.match(lexer.TokenEOF) {
		c.declaration()
	}
	c.endCompiler()

	return c.chunk, !c.hadError
}

func (c *Compiler) endCompiler() {
	c.emitReturn()
}

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lex.NextToken()
		if c.current.Kind != lexer.TokenError {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(kind lexer.TokenKind) bool {
	return c.current.Kind == kind
}

func (c *Compiler) match(kind lexer.TokenKind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(kind lexer.TokenKind, message string) {
	if c.current.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

// --- error reporting ----------------------------------------------------

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *Compiler) error(message string) {
	c.errorAt(c.previous, message)
}

// errorAt implements spec.md §7's parse-error format: "[line N] Error at
// '<lexeme>': <msg>." for ordinary tokens, "at end" at EOF, and no lexeme
// annotation for a token that is itself an ERROR (its message already
// explains the problem). Only the first error per panic-mode run is
// surfaced; the rest are swallowed until synchronize clears panicMode.
func (c *Compiler) errorAt(tok lexer.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true

	fmt.Fprintf(c.stderr, "[line %d] Error", tok.Line)
	switch tok.Kind {
	case lexer.TokenEOF:
		fmt.Fprint(c.stderr, " at end")
	case lexer.TokenError:
		// lexeme is the scanner's own diagnostic; nothing further to name.
	default:
		fmt.Fprintf(c.stderr, " at '%s'", tok.Lexeme)
	}
	fmt.Fprintf(c.stderr, ": %s\n", message)
	c.hadError = true
}

// synchronize skips tokens until it reaches a likely statement boundary,
// so a single malformed statement doesn't cascade into spurious errors
// for everything that follows it.
func (c *Compiler) synchronize() {
	c.panicMode = false

	for c.current.Kind != lexer.TokenEOF {
		if c.previous.Kind == lexer.TokenSemicolon {
			return
		}
		switch c.current.Kind {
		case lexer.TokenClass, lexer.TokenFun, lexer.TokenVar, lexer.TokenFor,
			lexer.TokenIf, lexer.TokenWhile, lexer.TokenPrint, lexer.TokenReturn:
			return
		}
		c.advance()
	}
}

// --- emission ------------------------------------------------------------

func (c *Compiler) emitByte(b byte) {
	c.chunk.Write(b, c.previous.Line)
}

func (c *Compiler) emitOp(op chunk.Opcode) {
	c.chunk.WriteOp(op, c.previous.Line)
}

func (c *Compiler) emitOps(op1, op2 chunk.Opcode) {
	c.emitOp(op1)
	c.emitOp(op2)
}

func (c *Compiler) emitOpByte(op chunk.Opcode, operand byte) {
	c.emitOp(op)
	c.emitByte(operand)
}

func (c *Compiler) emitReturn() {
	c.emitOp(chunk.OpReturn)
}

// makeConstant appends v to the chunk's constant pool and returns its
// index, reporting a compile error (and returning 0, per spec.md §8's
// boundary behavior) if the pool would overflow a single-byte operand.
func (c *Compiler) makeConstant(v value.Value) byte {
	idx := c.chunk.AddConstant(v)
	if idx > 255 {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitOpByte(chunk.OpConstant, c.makeConstant(v))
}

// --- scopes --------------------------------------------------------------

func (c *Compiler) beginScope() {
	c.scopeDepth++
}

// endScope pops every local declared in the scope just left. Each one
// gets its own OP_POP since the compiler has no bulk-pop opcode.
func (c *Compiler) endScope() {
	c.scopeDepth--
	for c.localCount > 0 && c.locals[c.localCount-1].depth > c.scopeDepth {
		c.emitOp(chunk.OpPop)
		c.localCount--
	}
}

// --- declarations and statements ------------------------------------------

func (c *Compiler) declaration() {
	if c.match(lexer.TokenVar) {
		c.varDeclaration()
	} else {
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(lexer.TokenEqual) {
		c.expression()
	} else {
		c.emitOp(chunk.OpNil)
	}
	c.consume(lexer.TokenSemicolon, "Expect ';' after variable declaration.")

	c.defineVariable(global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(lexer.TokenPrint):
		c.printStatement()
	case c.match(lexer.TokenLeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(lexer.TokenSemicolon, "Expect ';' after value.")
	c.emitOp(chunk.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(lexer.TokenSemicolon, "Expect ';' after expression.")
	c.emitOp(chunk.OpPop)
}

func (c *Compiler) block() {
	for !c.check(lexer.TokenRightBrace) && !c.check(lexer.TokenEOF) {
		c.declaration()
	}
	c.consume(lexer.TokenRightBrace, "Expect '}' after block.")
}

// --- variables -------------------------------------------------------------

// parseVariable consumes an identifier, declares it as a local if inside a
// scope, and otherwise returns its identifier-constant index so the caller
// can emit OP_DEFINE_GLOBAL with it.
func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(lexer.TokenIdentifier, errMsg)

	c.declareLocalVariable()
	if c.scopeDepth > 0 {
		return 0
	}

	return c.identifierConstant(c.previous)
}

// identifierConstant interns name's lexeme and looks it up in the current
// chunk's constant pool before appending, so repeated references to the
// same global name share one constant-pool slot (spec.md §4.G).
func (c *Compiler) identifierConstant(name lexer.Token) byte {
	str := value.Intern(c.heap, c.strs, name.Lexeme)
	v := value.Obj(str)
	if idx := c.chunk.FindConstant(v); idx != -1 {
		return byte(idx)
	}
	return c.makeConstant(v)
}

func identifiersEqual(a, b lexer.Token) bool {
	return a.Lexeme == b.Lexeme
}

// declareLocalVariable registers c.previous as a new local when inside a
// scope. Globals need no such bookkeeping; reads and assignments still
// target the global opcodes (see namedVariable), so the local slots only
// guard against re-declaring a name twice in the same block and tell
// endScope how many values to pop.
func (c *Compiler) declareLocalVariable() {
	if c.scopeDepth == 0 {
		return
	}

	name := c.previous
	for i := c.localCount - 1; i >= 0; i-- {
		l := &c.locals[i]
		if l.depth != -1 && l.depth < c.scopeDepth {
			break
		}
		if identifiersEqual(name, l.name) {
			c.error("Already a variable with this name in this scope.")
		}
	}

	c.addLocal(name)
}

func (c *Compiler) addLocal(name lexer.Token) {
	if c.localCount == maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.locals[c.localCount] = local{name: name, depth: -1}
	c.localCount++
}

// defineVariable marks the most recent local initialized once its
// initializer has fully compiled, or -- at global scope -- emits the
// opcode that binds it in the VM's globals table. Locals in this core
// still live on the value stack at runtime rather than through
// OP_GET_LOCAL/OP_SET_LOCAL (spec.md §4.H's reserved opcodes note); the
// slot bookkeeping above only catches re-declaration and too-many-locals
// errors at compile time and drives endScope's OP_POPs, so
// defineVariable's local branch has nothing further to emit.
func (c *Compiler) defineVariable(global byte) {
	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(chunk.OpDefineGlobal, global)
}

func (c *Compiler) markInitialized() {
	c.locals[c.localCount-1].depth = c.scopeDepth
}

// --- expressions -----------------------------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

// parsePrecedence is the Pratt engine's core loop: consume a prefix
// expression, then keep consuming infix operators whose precedence binds
// at least as tightly as p.
func (c *Compiler) parsePrecedence(p precedence) {
	c.advance()
	prefixRule := rules[c.previous.Kind].prefix
	if prefixRule == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := p <= precAssignment
	prefixRule(c, canAssign)

	for p <= rules[c.current.Kind].precedence {
		c.advance()
		infixRule := rules[c.previous.Kind].infix
		infixRule(c, canAssign)
	}

	if canAssign && c.match(lexer.TokenEqual) {
		c.error("Invalid assignment target.")
	}
}

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(lexer.TokenRightParen, "Expect ')' after expression.")
}

func number(c *Compiler, _ bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(value.Number(n))
}

// stringLiteral strips the surrounding quotes before interning; the
// lexeme includes them (lexer.go's string() consumes through the closing
// quote when making the token).
func stringLiteral(c *Compiler, _ bool) {
	lexeme := c.previous.Lexeme
	raw := lexeme[1 : len(lexeme)-1]
	str := value.Intern(c.heap, c.strs, raw)
	c.emitConstant(value.Obj(str))
}

func literal(c *Compiler, _ bool) {
	switch c.previous.Kind {
	case lexer.TokenFalse:
		c.emitOp(chunk.OpFalse)
	case lexer.TokenNil:
		c.emitOp(chunk.OpNil)
	case lexer.TokenTrue:
		c.emitOp(chunk.OpTrue)
	}
}

func unary(c *Compiler, _ bool) {
	opKind := c.previous.Kind

	c.parsePrecedence(precUnary)

	switch opKind {
	case lexer.TokenBang:
		c.emitOp(chunk.OpNot)
	case lexer.TokenMinus:
		c.emitOp(chunk.OpNegate)
	}
}

func binary(c *Compiler, _ bool) {
	opKind := c.previous.Kind
	rule := rules[opKind]
	c.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case lexer.TokenBangEqual:
		c.emitOps(chunk.OpEqual, chunk.OpNot)
	case lexer.TokenEqualEqual:
		c.emitOp(chunk.OpEqual)
	case lexer.TokenGreater:
		c.emitOp(chunk.OpGreater)
	case lexer.TokenGreaterEqual:
		c.emitOps(chunk.OpLess, chunk.OpNot)
	case lexer.TokenLess:
		c.emitOp(chunk.OpLess)
	case lexer.TokenLessEqual:
		c.emitOps(chunk.OpGreater, chunk.OpNot)
	case lexer.TokenPlus:
		c.emitOp(chunk.OpAdd)
	case lexer.TokenMinus:
		c.emitOp(chunk.OpSubtract)
	case lexer.TokenStar:
		c.emitOp(chunk.OpMultiply)
	case lexer.TokenSlash:
		c.emitOp(chunk.OpDivide)
	}
}

// namedVariable compiles a bare identifier: an assignment target if
// canAssign and a following '=' is present, otherwise a read. This core
// resolves every name to a global; see defineVariable's comment on why
// locals never reach OP_GET_LOCAL/OP_SET_LOCAL.
func namedVariable(c *Compiler, name lexer.Token, canAssign bool) {
	arg := c.identifierConstant(name)

	if canAssign && c.match(lexer.TokenEqual) {
		c.expression()
		c.emitOpByte(chunk.OpSetGlobal, arg)
	} else {
		c.emitOpByte(chunk.OpGetGlobal, arg)
	}
}

func variable(c *Compiler, canAssign bool) {
	namedVariable(c, c.previous, canAssign)
}

// rules is the Pratt table: one row per TokenKind naming its prefix
// parser, infix parser, and infix binding precedence. Rows left at the
// zero value (all nil, precNone) have no prefix or infix meaning.
var rules [lexer.TokenEOF + 1]parseRule

func init() {
	rules[lexer.TokenLeftParen] = parseRule{grouping, nil, precNone}
	rules[lexer.TokenMinus] = parseRule{unary, binary, precTerm}
	rules[lexer.TokenPlus] = parseRule{nil, binary, precTerm}
	rules[lexer.TokenSlash] = parseRule{nil, binary, precFactor}
	rules[lexer.TokenStar] = parseRule{nil, binary, precFactor}
	rules[lexer.TokenBang] = parseRule{unary, nil, precNone}
	rules[lexer.TokenBangEqual] = parseRule{nil, binary, precEquality}
	rules[lexer.TokenEqualEqual] = parseRule{nil, binary, precEquality}
	rules[lexer.TokenGreater] = parseRule{nil, binary, precComparison}
	rules[lexer.TokenGreaterEqual] = parseRule{nil, binary, precComparison}
	rules[lexer.TokenLess] = parseRule{nil, binary, precComparison}
	rules[lexer.TokenLessEqual] = parseRule{nil, binary, precComparison}
	rules[lexer.TokenIdentifier] = parseRule{variable, nil, precNone}
	rules[lexer.TokenString] = parseRule{stringLiteral, nil, precNone}
	rules[lexer.TokenNumber] = parseRule{number, nil, precNone}
	rules[lexer.TokenFalse] = parseRule{literal, nil, precNone}
	rules[lexer.TokenNil] = parseRule{literal, nil, precNone}
	rules[lexer.TokenTrue] = parseRule{literal, nil, precNone}
}
