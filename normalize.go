package yamlsplice

import "strings"

// normalizeBlock post-processes a block-encoded replacement so its trailing
// line breaks line up with the splice boundary. Without this, a replacement
// ending in a break spliced just past an existing "\n" would leave a blank
// line behind.
//
// Values whose terminal scalar is literal/folded, or a plain string that
// itself ends with a line break, pass through untouched: there the breaks
// are part of the value.
func normalizeBlock(src string, lineEnding string, spliceEnd int, v *Value, encoded string) string {
	term := v.terminalScalar()
	if term == nil {
		return encoded
	}
	if term.style == StyleLiteral || term.style == StyleFolded {
		return encoded
	}
	if term.kind == StringValue && (term.style == StylePlain || term.style == StyleAny) {
		if strings.HasSuffix(term.s, "\n") || strings.HasSuffix(term.s, "\r\n") {
			return encoded
		}
	}
	if spliceEnd > 0 && spliceEnd <= len(src) && src[spliceEnd-1] == '\n' {
		if strings.HasSuffix(encoded, "\r\n") {
			return encoded[:len(encoded)-2]
		}
		if strings.HasSuffix(encoded, "\n") {
			return encoded[:len(encoded)-1]
		}
		return encoded
	}
	return strings.TrimRight(encoded, " \t\r\n")
}
