package conductor

import "regexp"

var tokenPattern = regexp.MustCompile(`\$\{([^${}]+)\}`)

// Substitute replaces every ${NAME} token in text with the value of NAME in
// the overrides. Tokens with no value are left verbatim.
func Substitute(text string, overrides Overrides) string {
	if len(text) < 4 {
		return text
	}
	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		name := token[2 : len(token)-1]
		if v, ok := overrides.Lookup(name); ok {
			return v
		}
		return token
	})
}
