package compiler

import (
	"fmt"
	"strings"

	"github.com/v0xg/stepscript/internal/action"
)

// Placeholders recognised in statement templates
const (
	phSelector = "$SELECTOR" // quoted locator literal
	phValue    = "$VALUE"    // quoted value literal
	phRaw      = "$RAW"      // value emitted verbatim
	phURL      = "$URL"      // quoted target address literal
	phHeadless = "$HEADLESS" // target-specific boolean literal
)

// builder accumulates script lines with a fixed indent unit
type builder struct {
	unit  string
	lines []string
}

func newBuilder(unit string) *builder {
	return &builder{unit: unit}
}

// add appends each template line at the given depth after placeholder
// substitution. Empty template lines stay empty.
func (b *builder) add(depth int, r *strings.Replacer, tmpl ...string) {
	prefix := strings.Repeat(b.unit, depth)
	for _, t := range tmpl {
		if t == "" {
			b.lines = append(b.lines, "")
			continue
		}
		if r != nil {
			t = r.Replace(t)
		}
		b.lines = append(b.lines, prefix+t)
	}
}

func (b *builder) String() string {
	return strings.Join(b.lines, "\n") + "\n"
}

// actionReplacer binds an action's fields to the template placeholders
func actionReplacer(t *Target, a action.Action) *strings.Replacer {
	return strings.NewReplacer(
		phSelector, t.Quote(a.Selector),
		phValue, t.Quote(a.Value),
		phRaw, a.Value,
	)
}

// quoteSingle renders s as a single-quoted literal for languages that share
// C-style escapes (Python, JavaScript).
func quoteSingle(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\x%02x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}
