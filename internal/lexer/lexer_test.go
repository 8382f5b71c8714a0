package lexer

import "testing"

func TestNextToken(t *testing.T) {
	input := `BEGIN
  INT i := 3 + 4;
  REAL x := 1.5e10;
  STRING s := "it""s";
  CHAR c := 'a';
  BITS b := 2r1010;
  print((i, x > 4, s))
END # trailing comment #
`
	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{BEGIN, "BEGIN"},
		{INT_MODE, "INT"},
		{IDENT, "i"},
		{ASSIGN, ":="},
		{INT_DENOT, "3"},
		{PLUS, "+"},
		{INT_DENOT, "4"},
		{SEMICOLON, ";"},
		{REAL_MODE, "REAL"},
		{IDENT, "x"},
		{ASSIGN, ":="},
		{REAL_DENOT, "1.5e10"},
		{SEMICOLON, ";"},
		{STRING_MODE, "STRING"},
		{IDENT, "s"},
		{ASSIGN, ":="},
		{STRING_DENOT, `it"s`},
		{SEMICOLON, ";"},
		{CHAR_MODE, "CHAR"},
		{IDENT, "c"},
		{ASSIGN, ":="},
		{CHAR_DENOT, "a"},
		{SEMICOLON, ";"},
		{BITS_MODE, "BITS"},
		{IDENT, "b"},
		{ASSIGN, ":="},
		{BITS_DENOT, "2r1010"},
		{SEMICOLON, ";"},
		{IDENT, "print"},
		{LPAREN, "("},
		{LPAREN, "("},
		{IDENT, "i"},
		{COMMA, ","},
		{IDENT, "x"},
		{GT, ">"},
		{INT_DENOT, "4"},
		{COMMA, ","},
		{IDENT, "s"},
		{RPAREN, ")"},
		{RPAREN, ")"},
		{END, "END"},
		{EOF, ""},
	}

	l := New(input, "test.a68")
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("test[%d] - wrong type. expected=%s, got=%s (literal %q)", i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("test[%d] - wrong literal. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestLexerSkipsBracketedComment(t *testing.T) {
	l := New("CO this is ignored CO INT", "test.a68")
	tok := l.NextToken()
	if tok.Type != INT_MODE {
		t.Fatalf("expected INT after comment, got %s", tok.Type)
	}
}

func TestOperatorGlyphResolution(t *testing.T) {
	l := New("a +:= b /= c <> d", "test.a68")
	want := []TokenType{IDENT, PLUSAB, IDENT, NE, IDENT, OPSYM, IDENT}
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w {
			t.Fatalf("token %d: expected %s, got %s (%q)", i, w, tok.Type, tok.Literal)
		}
	}
}
