// Package templating implements the small substitution contract used for
// entity display names and notification payloads: {key}-style placeholders
// replaced from a flat string map. Referencing an undefined key is an error.
package templating

import (
	"fmt"
	"strings"
)

// Render substitutes every {key} placeholder in tmpl with fields[key].
// A literal brace can be produced by doubling it ({{ or }}). An unterminated
// placeholder or a key missing from fields yields an error.
func Render(tmpl string, fields map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl))

	for i := 0; i < len(tmpl); i++ {
		switch tmpl[i] {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("unterminated placeholder at offset %d", i)
			}
			key := tmpl[i+1 : i+end]
			value, ok := fields[key]
			if !ok {
				return "", fmt.Errorf("undefined template key %q", key)
			}
			b.WriteString(value)
			i += end
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("unmatched '}' at offset %d", i)
		default:
			b.WriteByte(tmpl[i])
		}
	}
	return b.String(), nil
}

// MustRender is Render for templates known valid at compile time, such as
// built-in defaults.
func MustRender(tmpl string, fields map[string]string) string {
	out, err := Render(tmpl, fields)
	if err != nil {
		panic(err)
	}
	return out
}
