package lexer

import "github.com/oisee/minicc/pkg/diag"

// Kind identifies a lexical token class. Unlike the retrieved source,
// which represents every token, keyword, type name, and intrinsic as a
// distinct Python class compared by identity, this port collapses them
// into one closed enum: a keyword/type-name/intrinsic token still
// carries its spelling in Text, so the parser recovers the same
// information a class-identity check would have given it.
type Kind uint8

const (
	EOF Kind = iota
	Ident
	IntLit
	FloatLit

	// punctuation / operators, one entry per unigram or digram in kw.py's
	// token_list
	Assign    // =
	Eq        // ==
	Ne        // !=
	Gt        // >
	Ge        // >=
	Lt        // <
	Le        // <=
	LAnd      // &&
	LOr       // ||
	LShift    // <<
	RShift    // >>
	Not       // !
	Amp       // &
	Pipe      // |
	Caret     // ^
	Tilde     // ~
	Plus      // +
	Minus     // -
	Star      // *
	Slash     // /
	Percent   // %
	Dot       // .
	Comma     // ,
	Question  // ?
	Colon     // :
	Semi      // ;
	LBrace    // {
	RBrace    // }
	LParen    // (
	RParen    // )

	// keywords (kw.py's keyword_list)
	KwStatic
	KwExtern
	KwIf
	KwElse
	KwReturn
	KwGoto
	KwFor
	KwDo
	KwWhile
	KwBreak
	KwContinue

	TypeName  // Text names one of kw.py's type_names
	Intrinsic // Text names one of kw.py's intrinsic_names
)

var kindNames = map[Kind]string{
	EOF: "EOF", Ident: "identifier", IntLit: "int literal", FloatLit: "float literal",
	Assign: "=", Eq: "==", Ne: "!=", Gt: ">", Ge: ">=", Lt: "<", Le: "<=",
	LAnd: "&&", LOr: "||", LShift: "<<", RShift: ">>", Not: "!",
	Amp: "&", Pipe: "|", Caret: "^", Tilde: "~",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	Dot: ".", Comma: ",", Question: "?", Colon: ":", Semi: ";",
	LBrace: "{", RBrace: "}", LParen: "(", RParen: ")",
	KwStatic: "static", KwExtern: "extern", KwIf: "if", KwElse: "else",
	KwReturn: "return", KwGoto: "goto", KwFor: "for", KwDo: "do", KwWhile: "while",
	KwBreak: "break", KwContinue: "continue",
	TypeName: "type name", Intrinsic: "intrinsic",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "?"
}

// Token is one lexical unit. Text carries the spelling for Ident,
// TypeName, and Intrinsic tokens; IVal/FVal carry a literal's value.
type Token struct {
	Kind Kind
	Text string
	IVal int64
	FVal float64
	Pos  diag.Pos
}

var keywords = map[string]Kind{
	"static": KwStatic, "extern": KwExtern,
	"if": KwIf, "else": KwElse, "return": KwReturn, "goto": KwGoto,
	"for": KwFor, "do": KwDo, "while": KwWhile,
	"break": KwBreak, "continue": KwContinue,
}

// typeNames mirrors kw.py's type_names list.
var typeNames = map[string]bool{
	"void": true,
	"float4": true, "float8": true,
	"int8": true, "int4": true, "int2": true, "int1": true,
	"uint8": true, "uint4": true, "uint2": true, "uint1": true,
	"float8_2": true, "float4_4": true,
	"int8_2": true, "int4_4": true, "int2_8": true, "int1_16": true,
}

// intrinsicNames mirrors kw.py's intrinsic_names list.
var intrinsicNames = map[string]bool{
	"sqrt": true, "sum": true, "abs": true, "min": true, "max": true,
}
