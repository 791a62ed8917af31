// Package tdewolff splits stylesheets into rules and minifies CSS using the
// tdewolff parse and minify libraries.
package tdewolff

import (
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// RuleKind identifies the shape of a Rule.
type RuleKind int

const (
	// StyleRule is a selector list with a declaration block.
	StyleRule RuleKind = iota
	// GroupRule is an at-rule whose block holds nested rules, like @media.
	GroupRule
	// BlockRule is an at-rule whose block is kept opaque, like @font-face.
	BlockRule
	// StatementRule is an at-rule terminated by a semicolon, like @import.
	StatementRule
)

// Rule is one node of a stylesheet.
type Rule struct {
	Kind RuleKind

	// Name is the lowercased at-keyword without "@". Empty for style rules.
	Name string

	// Prelude is the text before the block with whitespace collapsed. For
	// at-rules it includes the at-keyword.
	Prelude string

	// Selectors holds the comma separated parts of a style rule prelude.
	Selectors []string

	// Body is the trimmed block content of style and block rules.
	Body string

	// Rules holds the nested rules of a group rule.
	Rules []*Rule
}

// groupRules are at-rules whose blocks contain style rules.
var groupRules = map[string]bool{
	"media":          true,
	"supports":       true,
	"document":       true,
	"-moz-document":  true,
	"container":      true,
	"layer":          true,
	"scope":          true,
	"starting-style": true,
}

type token struct {
	tt   css.TokenType
	data string
}

// Parse splits css into rules. Comments between rules are discarded.
// An unterminated block or an unmatched closing brace is an error.
func Parse(text string) ([]*Rule, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &ruleParser{toks: toks}
	rules, err := p.rules(false)
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func tokenize(text string) ([]token, error) {
	l := css.NewLexer(parse.NewInputString(text))
	var toks []token
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			err := l.Err()
			if errors.Is(err, io.EOF) {
				return toks, nil
			}
			if err == nil {
				err = errors.New("unexpected character")
			}
			return nil, err
		}
		toks = append(toks, token{tt: tt, data: string(data)})
	}
}

type ruleParser struct {
	toks []token
	pos  int
}

func (p *ruleParser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

// rules parses rules until the end of input or, when nested, until the
// closing brace of the enclosing block, which is consumed.
func (p *ruleParser) rules(nested bool) ([]*Rule, error) {
	var rules []*Rule
	for {
		t, ok := p.peek()
		if !ok {
			if nested {
				return nil, errors.New("unclosed block")
			}
			return rules, nil
		}
		switch t.tt {
		case css.WhitespaceToken, css.CommentToken, css.CDOToken, css.CDCToken, css.SemicolonToken:
			p.pos++
		case css.RightBraceToken:
			p.pos++
			if !nested {
				return nil, errors.New("unexpected }")
			}
			return rules, nil
		case css.AtKeywordToken:
			r, err := p.atRule()
			if err != nil {
				return nil, err
			}
			rules = append(rules, r)
		default:
			r, err := p.styleRule()
			if err != nil {
				return nil, err
			}
			rules = append(rules, r)
		}
	}
}

func (p *ruleParser) atRule() (*Rule, error) {
	keyword := p.toks[p.pos].data
	p.pos++
	prelude, end, err := p.prelude()
	if err != nil {
		return nil, err
	}
	r := &Rule{
		Name:    strings.ToLower(strings.TrimPrefix(keyword, "@")),
		Prelude: strings.TrimSpace(keyword + " " + collapse(prelude)),
	}
	if end != css.LeftBraceToken {
		r.Kind = StatementRule
		return r, nil
	}
	if groupRules[r.Name] {
		r.Kind = GroupRule
		r.Rules, err = p.rules(true)
		return r, err
	}
	r.Kind = BlockRule
	r.Body, err = p.block()
	return r, err
}

func (p *ruleParser) styleRule() (*Rule, error) {
	prelude, end, err := p.prelude()
	if err != nil {
		return nil, err
	}
	if end != css.LeftBraceToken {
		return nil, fmt.Errorf("missing block after %q", collapse(prelude))
	}
	r := &Rule{
		Kind:      StyleRule,
		Prelude:   collapse(prelude),
		Selectors: splitSelectors(prelude),
	}
	r.Body, err = p.block()
	return r, err
}

// prelude consumes tokens up to and including the first "{" or ";" at
// nesting depth zero and returns the tokens before it.
func (p *ruleParser) prelude() ([]token, css.TokenType, error) {
	start := p.pos
	depth := 0
	for ; p.pos < len(p.toks); p.pos++ {
		switch t := p.toks[p.pos]; t.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.LeftBraceToken, css.SemicolonToken:
			if depth == 0 {
				toks := p.toks[start:p.pos]
				p.pos++
				return toks, t.tt, nil
			}
		case css.RightBraceToken:
			return nil, 0, errors.New("unexpected }")
		}
	}
	return p.toks[start:p.pos], css.ErrorToken, nil
}

// block consumes a block whose opening brace was already consumed and
// returns its trimmed raw content.
func (p *ruleParser) block() (string, error) {
	var b strings.Builder
	depth := 0
	for ; p.pos < len(p.toks); p.pos++ {
		t := p.toks[p.pos]
		switch t.tt {
		case css.LeftBraceToken:
			depth++
		case css.RightBraceToken:
			if depth == 0 {
				p.pos++
				return strings.TrimSpace(b.String()), nil
			}
			depth--
		}
		b.WriteString(t.data)
	}
	return "", errors.New("unclosed block")
}

// collapse joins tokens, replacing whitespace runs with one space and
// dropping comments.
func collapse(toks []token) string {
	var b strings.Builder
	space := false
	for _, t := range toks {
		switch t.tt {
		case css.WhitespaceToken, css.CommentToken:
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteString(t.data)
	}
	return b.String()
}

// splitSelectors splits a selector list on commas outside parentheses and
// brackets.
func splitSelectors(toks []token) []string {
	var out []string
	depth := 0
	start := 0
	for i, t := range toks {
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.CommaToken:
			if depth == 0 {
				if s := collapse(toks[start:i]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := collapse(toks[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// Render serializes rules without whitespace between them. Style rules
// print their current Selectors.
func Render(rules []*Rule) string {
	var b strings.Builder
	render(&b, rules)
	return b.String()
}

func render(b *strings.Builder, rules []*Rule) {
	for _, r := range rules {
		switch r.Kind {
		case StyleRule:
			b.WriteString(strings.Join(r.Selectors, ","))
			b.WriteString("{" + r.Body + "}")
		case GroupRule:
			b.WriteString(r.Prelude + "{")
			render(b, r.Rules)
			b.WriteString("}")
		case BlockRule:
			b.WriteString(r.Prelude + "{" + r.Body + "}")
		case StatementRule:
			b.WriteString(r.Prelude + ";")
		}
	}
}
