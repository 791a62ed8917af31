package tdewolff

import (
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Declaration is one property of a declaration block.
type Declaration struct {
	Property string
	Values   []css.Token
}

// Value returns the declaration value with whitespace collapsed.
func (d Declaration) Value() string {
	var b strings.Builder
	for _, t := range d.Values {
		if t.TokenType == css.WhitespaceToken {
			b.WriteByte(' ')
			continue
		}
		b.Write(t.Data)
	}
	return strings.TrimSpace(b.String())
}

// Declarations parses the declarations of a style block body. Nested rules
// and malformed declarations are skipped.
func Declarations(body string) []Declaration {
	p := css.NewParser(parse.NewInputString(body), true)
	var decls []Declaration
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if !p.HasParseError() {
				return decls
			}
		case css.DeclarationGrammar:
			values := make([]css.Token, len(p.Values()))
			for i, v := range p.Values() {
				values[i] = css.Token{TokenType: v.TokenType, Data: append([]byte(nil), v.Data...)}
			}
			decls = append(decls, Declaration{
				Property: strings.ToLower(string(data)),
				Values:   values,
			})
		}
	}
}

// Unquote strips matching single or double quotes around s.
func Unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
