package cascadia

import (
	"strings"
)

// pseudoElements are the single-colon spellings of pseudo-elements.
var pseudoElements = map[string]bool{
	"before": true, "after": true, "first-line": true, "first-letter": true,
	"selection": true, "placeholder": true, "marker": true, "backdrop": true,
}

// dynamicPseudoClasses depend on user interaction or browser state and
// cannot be decided from markup.
var dynamicPseudoClasses = map[string]bool{
	"hover": true, "focus": true, "active": true, "visited": true,
	"focus-within": true, "focus-visible": true, "target": true,
	"target-within": true, "any-link": true, "default": true,
	"valid": true, "invalid": true, "in-range": true, "out-of-range": true,
	"required": true, "optional": true, "read-only": true, "read-write": true,
	"indeterminate": true, "autofill": true, "fullscreen": true,
	"playing": true, "paused": true, "placeholder-shown": true,
	"user-invalid": true, "user-valid": true, "modal": true, "open": true,
	"closed": true, "popover-open": true, "current": true, "past": true,
	"future": true, "defined": true, "host": true, "host-context": true,
	"link": true, "local-link": true, "scope": true, "dir": true,
	"state": true, "blank": true, "muted": true, "seeking": true,
	"buffering": true, "stalled": true, "picture-in-picture": true,
}

// matchableSelector rewrites sel into a selector that can be matched
// against static markup: pseudo-elements and state-dependent pseudo-classes
// are removed and :is() / :where() become a double :not(). An empty result
// matches any element.
func matchableSelector(sel string) string {
	out := strings.TrimSpace(stripPseudo(sel))
	if out == "" {
		return "*"
	}
	if strings.HasSuffix(out, ">") || strings.HasSuffix(out, "+") || strings.HasSuffix(out, "~") {
		out += " *"
	}
	if strings.HasPrefix(out, ">") || strings.HasPrefix(out, "+") || strings.HasPrefix(out, "~") {
		out = "* " + out
	}
	return out
}

func stripPseudo(sel string) string {
	var b strings.Builder
	bracket := 0
	var quote byte
	for i := 0; i < len(sel); i++ {
		c := sel[i]
		switch {
		case quote != 0:
			if c == '\\' && i+1 < len(sel) {
				b.WriteByte(c)
				i++
				c = sel[i]
			} else if c == quote {
				quote = 0
			}
		case c == '\\' && i+1 < len(sel):
			b.WriteByte(c)
			i++
			c = sel[i]
		case c == '"' || c == '\'':
			quote = c
		case c == '[':
			bracket++
		case c == ']':
			bracket--
		case c == ':' && bracket == 0:
			i = pseudo(&b, sel, i)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// pseudo handles the pseudo starting at sel[i] and returns the index of its
// last byte.
func pseudo(b *strings.Builder, sel string, i int) int {
	element := strings.HasPrefix(sel[i:], "::")
	start := i + 1
	if element {
		start++
	}
	end := start
	for end < len(sel) && isNameByte(sel[end]) {
		end++
	}
	name := strings.ToLower(sel[start:end])
	arg, hasArg := "", false
	last := end - 1
	if end < len(sel) && sel[end] == '(' {
		rp := matchingParen(sel, end)
		arg, hasArg = sel[end+1:min(rp, len(sel))], true
		last = min(rp, len(sel)-1)
	}

	switch {
	case element, pseudoElements[name], dynamicPseudoClasses[name], strings.HasPrefix(name, "-"):
		return last
	case hasArg && (name == "is" || name == "where" || name == "matches" || name == "any"):
		inner := stripList(arg)
		if inner == "" {
			return last
		}
		b.WriteString(":not(:not(" + inner + "))")
		return last
	case hasArg && (name == "not" || name == "has"):
		inner := stripList(arg)
		if inner == "" {
			return last
		}
		b.WriteString(":" + name + "(" + inner + ")")
		return last
	}
	b.WriteString(sel[i : last+1])
	return last
}

// stripList strips each selector of a comma separated list and drops those
// that become empty.
func stripList(list string) string {
	var parts []string
	for _, part := range splitTopLevel(list) {
		if s := strings.TrimSpace(stripPseudo(part)); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(s)
}

func isNameByte(c byte) bool {
	return c == '-' || c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}
