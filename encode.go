package yamlsplice

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// encoder renders Values back to YAML text fragments. It never reformats
// existing source; planners splice its output into the document.
type encoder struct {
	step int
	le   string
}

// encodeFlow renders v in flow style: [a, b], {k: v}, scalars inline.
func (e *encoder) encodeFlow(v *Value) string {
	switch v.kind {
	case SequenceValue:
		items := make([]string, 0, len(v.seq))
		for _, item := range v.seq {
			items = append(items, e.encodeFlow(item))
		}
		return "[" + strings.Join(items, ", ") + "]"
	case MappingValue:
		items := make([]string, 0, len(v.pairs))
		for _, p := range v.pairs {
			items = append(items, e.encodeFlow(p.Key)+": "+e.encodeFlow(p.Val))
		}
		return "{" + strings.Join(items, ", ") + "}"
	}
	return e.scalar(v, false, 0)
}

// encodeBlock renders v in block style at the given indent. Values pinned
// to flow defer to the flow encoder; empty collections are always flow
// ([] / {}) since an empty block collection cannot be written. The result
// carries no trailing line break.
func (e *encoder) encodeBlock(v *Value, indent int) string {
	pad := strings.Repeat(" ", indent)
	if !v.blockCapable() {
		return pad + e.encodeFlow(v)
	}
	switch v.kind {
	case SequenceValue:
		if len(v.seq) == 0 {
			return pad + "[]"
		}
		lines := make([]string, 0, len(v.seq))
		for _, item := range v.seq {
			lines = append(lines, pad+"- "+e.blockChild(item, indent))
		}
		return strings.Join(lines, e.le)
	case MappingValue:
		if len(v.pairs) == 0 {
			return pad + "{}"
		}
		lines := make([]string, 0, len(v.pairs))
		for _, p := range v.pairs {
			key := e.encodeFlow(p.Key)
			if p.Val.isCollection() && !p.Val.isEmptyCollection() && p.Val.blockCapable() {
				lines = append(lines, pad+key+":"+e.le+e.encodeBlock(p.Val, indent+e.step))
			} else {
				lines = append(lines, pad+key+": "+e.inline(p.Val, indent+e.step))
			}
		}
		return strings.Join(lines, e.le)
	}
	return pad + e.scalar(v, true, indent+e.step)
}

// blockChild renders a sequence element so it attaches directly to "- ":
// nested block collections are encoded one level deeper with the indent
// stripped from their first line. The nested level is the hyphen width,
// not the document step: follow-up lines must line up with the content
// that shares the hyphen's line.
func (e *encoder) blockChild(v *Value, indent int) string {
	if v.isCollection() && !v.isEmptyCollection() && v.blockCapable() {
		ci := indent + 2
		return e.encodeBlock(v, ci)[ci:]
	}
	return e.inline(v, indent+e.step)
}

// inline renders a non-block-collection value for the position after "- "
// or "key: "; contIndent places continuation lines of literal and folded
// scalars.
func (e *encoder) inline(v *Value, contIndent int) string {
	if v.isCollection() {
		if v.isEmptyCollection() && v.blockCapable() {
			if v.kind == SequenceValue {
				return "[]"
			}
			return "{}"
		}
		return e.encodeFlow(v)
	}
	return e.scalar(v, true, contIndent)
}

// scalar renders a scalar value, choosing the output style per the
// requested style with fallback to double quotes.
func (e *encoder) scalar(v *Value, blockCtx bool, contIndent int) string {
	switch v.kind {
	case NullValue:
		return "null"
	case BoolValue:
		return strconv.FormatBool(v.b)
	case IntValue:
		return strconv.FormatInt(v.i, 10)
	case FloatValue:
		return formatFloat(v.f)
	}

	s := v.s
	if hasUnprintable(s) {
		return quoteDouble(s)
	}
	style := v.style
	if !blockCtx && (style == StyleLiteral || style == StyleFolded) {
		style = StyleAny
	}
	switch style {
	case StylePlain, StyleAny:
		if !dangerousString(s) {
			return s
		}
		return quoteDouble(s)
	case StyleSingle:
		if !strings.Contains(s, "\n") {
			return "'" + strings.ReplaceAll(s, "'", "''") + "'"
		}
		return quoteDouble(s)
	case StyleLiteral:
		if s != "" && !leadingWhitespace(s) {
			return e.renderLiteral(s, contIndent)
		}
		return quoteDouble(s)
	case StyleFolded:
		if s != "" && !leadingWhitespace(s) {
			return e.renderFolded(s, contIndent)
		}
		return quoteDouble(s)
	}
	return quoteDouble(s)
}

func leadingWhitespace(s string) bool {
	return s[0] == ' ' || s[0] == '\t'
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// chompIndicator keeps trailing breaks and spaces when the value ends with
// one, and strips otherwise.
func chompIndicator(s string) string {
	if strings.HasSuffix(s, "\n") || strings.HasSuffix(s, " ") {
		return "+"
	}
	return "-"
}

// renderLiteral emits s as a literal ("|") block scalar with content lines
// at contIndent.
func (e *encoder) renderLiteral(s string, contIndent int) string {
	pad := strings.Repeat(" ", contIndent)
	body := strings.ReplaceAll(s, "\n", e.le+pad)
	return "|" + chompIndicator(s) + e.le + pad + body
}

// renderFolded emits s as a folded (">") block scalar. Adjacent non-empty
// unindented lines get an extra break injected between them so the fold
// reproduces the original "\n"; a trailing-whitespace tail is stripped
// before folding and re-appended indented.
func (e *encoder) renderFolded(s string, contIndent int) string {
	pad := strings.Repeat(" ", contIndent)
	core := strings.TrimRight(s, " \n")
	tail := s[len(core):]

	lines := strings.Split(core, "\n")
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			if line != "" && lines[i-1] != "" && !strings.HasPrefix(line, " ") {
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
		b.WriteString(line)
	}
	b.WriteString(tail)

	body := strings.ReplaceAll(b.String(), "\n", e.le+pad)
	return ">" + chompIndicator(s) + e.le + pad + body
}

// Unprintable code points always force double quoting. Beyond the YAML
// special escapes (NUL, BEL, BS, VT, FF, CR, ESC, NEL, NBSP, LS, PS) every
// remaining C0 control and DEL counts as unprintable.
func isUnprintable(r rune) bool {
	switch r {
	case 0, 7, 8, 11, 12, 13, 27, 133, 160, 8232, 8233:
		return true
	}
	return (r < 0x20 && r != '\t' && r != '\n') || r == 0x7f
}

func hasUnprintable(s string) bool {
	for _, r := range s {
		if isUnprintable(r) {
			return true
		}
	}
	return false
}

var doubleEscapes = map[rune]string{
	0:    `\0`,
	7:    `\a`,
	8:    `\b`,
	9:    `\t`,
	10:   `\n`,
	11:   `\v`,
	12:   `\f`,
	13:   `\r`,
	27:   `\e`,
	34:   `\"`,
	47:   `\/`,
	92:   `\\`,
	133:  `\N`,
	160:  `\_`,
	8232: `\L`,
	8233: `\P`,
}

func quoteDouble(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		if esc, ok := doubleEscapes[r]; ok {
			b.WriteString(esc)
			continue
		}
		if (r < 0x20) || r == 0x7f {
			b.WriteString(fmt.Sprintf(`\x%02X`, r))
			continue
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// sentinel characters that disqualify a string from plain emission even
// when a probe-parse would accept it.
const plainSentinels = "{}[],'"

// dangerousString reports whether s is unsafe to emit as a plain scalar: it
// contains a sentinel character, or parsing it as a one-scalar document
// fails or yields anything other than s itself.
func dangerousString(s string) bool {
	if strings.ContainsAny(s, plainSentinels) {
		return true
	}
	var probe any
	if err := yaml.Unmarshal([]byte(s), &probe); err != nil {
		return true
	}
	got, ok := probe.(string)
	return !ok || got != s
}
