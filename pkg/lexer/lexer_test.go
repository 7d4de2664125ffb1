package lexer

import "testing"

func collect(t *testing.T, src string) []Token {
	t.Helper()
	l := New(src)
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Kind == TokenEOF {
			break
		}
	}
	return toks
}

func TestNextToken_Punctuation(t *testing.T) {
	// The space keeps "/ *" from opening a block comment.
	toks := collect(t, "(){};,.-+/ *")
	want := []TokenKind{
		TokenLeftParen, TokenRightParen, TokenLeftBrace, TokenRightBrace,
		TokenSemicolon, TokenComma, TokenDot, TokenMinus, TokenPlus,
		TokenSlash, TokenStar, TokenEOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestNextToken_TwoCharOperators(t *testing.T) {
	tests := []struct {
		src  string
		want TokenKind
	}{
		{"!", TokenBang}, {"!=", TokenBangEqual},
		{"=", TokenEqual}, {"==", TokenEqualEqual},
		{"<", TokenLess}, {"<=", TokenLessEqual},
		{">", TokenGreater}, {">=", TokenGreaterEqual},
	}
	for _, tt := range tests {
		toks := collect(t, tt.src)
		if toks[0].Kind != tt.want {
			t.Errorf("scan(%q): got %s, want %s", tt.src, toks[0].Kind, tt.want)
		}
	}
}

func TestNextToken_Keywords(t *testing.T) {
	for word, kind := range keywords {
		toks := collect(t, word)
		if toks[0].Kind != kind {
			t.Errorf("scan(%q): got %s, want %s", word, toks[0].Kind, kind)
		}
	}
}

func TestNextToken_Identifier(t *testing.T) {
	toks := collect(t, "foo_Bar123")
	if toks[0].Kind != TokenIdentifier || toks[0].Lexeme != "foo_Bar123" {
		t.Errorf("got %+v", toks[0])
	}
}

func TestNextToken_Number(t *testing.T) {
	tests := []string{"123", "3.14", "0", "0.5"}
	for _, src := range tests {
		toks := collect(t, src)
		if toks[0].Kind != TokenNumber || toks[0].Lexeme != src {
			t.Errorf("scan(%q): got %+v", src, toks[0])
		}
	}
}

func TestNextToken_NumberTrailingDotNotConsumed(t *testing.T) {
	// "42." is a statement boundary candidate in the source grammar: the
	// trailing dot is not part of the number since no digit follows it.
	toks := collect(t, "42.")
	if toks[0].Kind != TokenNumber || toks[0].Lexeme != "42" {
		t.Fatalf("got %+v", toks[0])
	}
	if toks[1].Kind != TokenDot {
		t.Fatalf("got %+v", toks[1])
	}
}

func TestNextToken_String(t *testing.T) {
	toks := collect(t, `"hello world"`)
	if toks[0].Kind != TokenString || toks[0].Lexeme != `"hello world"` {
		t.Errorf("got %+v", toks[0])
	}
}

func TestNextToken_UnterminatedString(t *testing.T) {
	toks := collect(t, `"hello`)
	if toks[0].Kind != TokenError {
		t.Fatalf("got %+v, want ERROR", toks[0])
	}
}

func TestNextToken_StringSpansLines(t *testing.T) {
	toks := collect(t, "\"a\nb\"\nfoo")
	if toks[0].Kind != TokenString {
		t.Fatalf("got %+v", toks[0])
	}
	// One newline inside the string plus the one after it: foo is on line 3.
	if toks[1].Line != 3 {
		t.Errorf("expected identifier after the string to be on line 3, got %d", toks[1].Line)
	}
}

func TestNextToken_LineComment(t *testing.T) {
	toks := collect(t, "1 // this is ignored\n2")
	if toks[0].Lexeme != "1" || toks[1].Lexeme != "2" {
		t.Fatalf("got %+v", toks)
	}
	if toks[1].Line != 2 {
		t.Errorf("expected second token on line 2, got %d", toks[1].Line)
	}
}

func TestNextToken_BlockComment(t *testing.T) {
	toks := collect(t, "1 /* multi\nline\ncomment */ 2")
	if toks[0].Lexeme != "1" || toks[1].Lexeme != "2" {
		t.Fatalf("got %+v", toks)
	}
	if toks[1].Line != 3 {
		t.Errorf("expected second token on line 3, got %d", toks[1].Line)
	}
}

func TestNextToken_UnterminatedBlockCommentToleratedAtEOF(t *testing.T) {
	toks := collect(t, "1 /* never closed")
	if len(toks) != 2 || toks[0].Lexeme != "1" || toks[1].Kind != TokenEOF {
		t.Fatalf("got %+v", toks)
	}
}

func TestNextToken_UnexpectedCharacter(t *testing.T) {
	toks := collect(t, "@")
	if toks[0].Kind != TokenError || toks[0].Lexeme != "Unexpected character." {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestNextToken_LineTracking(t *testing.T) {
	toks := collect(t, "1\n2\n\n3")
	lines := []int{1, 2, 4}
	for i, want := range lines {
		if toks[i].Line != want {
			t.Errorf("token %d: got line %d, want %d", i, toks[i].Line, want)
		}
	}
}
