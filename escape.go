package critical

import (
	"regexp"
	"strconv"
	"strings"
)

// specialChars are the characters a selector tokenizer would misread when
// they appear escaped inside a class name. The index of a character is its
// placeholder number and must never change.
const specialChars = ":/?()!<>{}[]."

var (
	selectorEscaper  *strings.Replacer
	classEscaper     *strings.Replacer
	selectorRestorer *strings.Replacer

	classAttr = regexp.MustCompile(`(?i)((?:^|\s)class\s*=\s*)("[^"]*"|'[^']*')`)
)

func init() {
	var escape, classes, restore []string
	for i, c := range specialChars {
		token := placeholder(i)
		escape = append(escape, `\`+string(c), token)
		classes = append(classes, string(c), token)
		switch c {
		case '<':
			classes = append(classes, "&lt;", token)
		case '>':
			classes = append(classes, "&gt;", token)
		}
	}
	for i := len(specialChars) - 1; i >= 0; i-- {
		restore = append(restore, placeholder(i), `\`+string(specialChars[i]))
	}
	selectorEscaper = strings.NewReplacer(escape...)
	classEscaper = strings.NewReplacer(classes...)
	selectorRestorer = strings.NewReplacer(restore...)
}

// Placeholders are delimited by private-use code points, so no token can
// form across the boundary of an escaped character and its neighbors.
const (
	placeholderStart = "\uE000"
	placeholderEnd   = "\uE001"
)

func placeholder(i int) string {
	return placeholderStart + strconv.Itoa(i) + placeholderEnd
}

// EscapeSelectors replaces escaped special characters in CSS with
// placeholder tokens.
func EscapeSelectors(css string) string {
	return selectorEscaper.Replace(css)
}

// RestoreSelectors is the inverse of EscapeSelectors.
func RestoreSelectors(css string) string {
	return selectorRestorer.Replace(css)
}

// EscapeClasses replaces special characters inside class attribute values
// with the placeholder tokens EscapeSelectors produces for the same class
// names. Markup outside class values is left untouched.
func EscapeClasses(html string) string {
	return classAttr.ReplaceAllStringFunc(html, func(m string) string {
		sub := classAttr.FindStringSubmatch(m)
		value := sub[2]
		quote := value[:1]
		return sub[1] + quote + classEscaper.Replace(value[1:len(value)-1]) + quote
	})
}
