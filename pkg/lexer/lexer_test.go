package lexer

import "testing"

func allTokens(t *testing.T, src string) []Token {
	t.Helper()
	l := New("test", src)
	var out []Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("unexpected lex error: %v", err)
		}
		out = append(out, tok)
		if tok.Kind == EOF {
			return out
		}
	}
}

func TestScanKeywordsTypesAndIntrinsics(t *testing.T) {
	toks := allTokens(t, "if else int4 sqrt foo")
	want := []Kind{KwIf, KwElse, TypeName, Intrinsic, Ident, EOF}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestScanDigramsPreferOverUnigrams(t *testing.T) {
	toks := allTokens(t, "== != >= <= && || << >>")
	want := []Kind{Eq, Ne, Ge, Le, LAnd, LOr, LShift, RShift, EOF}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestScanDigramFallsBackToUnigram(t *testing.T) {
	toks := allTokens(t, "= ! > <")
	want := []Kind{Assign, Not, Gt, Lt, EOF}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestScanIntAndFloatLiterals(t *testing.T) {
	toks := allTokens(t, "123 4.5 2.")
	if toks[0].Kind != IntLit || toks[0].IVal != 123 {
		t.Errorf("got %+v", toks[0])
	}
	if toks[1].Kind != FloatLit || toks[1].FVal != 4.5 {
		t.Errorf("got %+v", toks[1])
	}
	if toks[2].Kind != FloatLit || toks[2].FVal != 2 {
		t.Errorf("got %+v", toks[2])
	}
}

func TestSkipLineAndBlockComments(t *testing.T) {
	toks := allTokens(t, "1 // trailing comment\n/* block\nspans lines */2")
	if len(toks) != 3 || toks[0].IVal != 1 || toks[1].IVal != 2 {
		t.Fatalf("comments were not skipped cleanly: %+v", toks)
	}
}

func TestPushAndPeek(t *testing.T) {
	l := New("test", "foo ;")
	tok, err := l.Next()
	if err != nil || tok.Kind != Ident {
		t.Fatalf("expected ident, got %+v err=%v", tok, err)
	}
	l.Push(tok)
	again, err := l.Next()
	if err != nil || again.Kind != Ident || again.Text != "foo" {
		t.Fatalf("pushed token did not come back unchanged: %+v", again)
	}
	ok, err := l.Peek(Semi)
	if err != nil || !ok {
		t.Fatalf("expected Peek(Semi) to consume the semicolon, got ok=%v err=%v", ok, err)
	}
}

func TestBadCharacterIsAnError(t *testing.T) {
	l := New("test", "@")
	if _, err := l.Next(); err == nil {
		t.Error("expected an error for an unrecognized character")
	}
}

func TestUnterminatedCommentIsAnError(t *testing.T) {
	l := New("test", "/* never closes")
	if _, err := l.Next(); err == nil {
		t.Error("expected an error for an unterminated block comment")
	}
}
