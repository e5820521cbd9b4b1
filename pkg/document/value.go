package document

import (
	"fmt"
	"strconv"
	"strings"
)

// entry is one `key = value` assignment inside a block, addressed as a line
// span so a patch can replace exactly those lines.
type entry struct {
	key        string
	start, end int // [start, end) within block.lines
}

// entries scans the block for key-value assignments. Multiline basic strings
// and multiline arrays are folded into a single entry span; comments and blank
// lines are skipped and therefore preserved untouched by patches.
func (b *block) entries() []entry {
	var out []entry
	i := 0
	if b.header != "" {
		i = 1 // skip the [[...]] line
	}
	for i < len(b.lines) {
		line := b.lines[i]
		key, rest, ok := splitAssignment(line)
		if !ok {
			i++
			continue
		}
		end := i + 1
		switch {
		case strings.HasPrefix(rest, `"""`) && !closesTripleQuote(rest[3:]):
			for end < len(b.lines) && !closesTripleQuote(b.lines[end]) {
				end++
			}
			if end < len(b.lines) {
				end++ // include the closing line
			}
		case strings.HasPrefix(rest, `'''`) && !strings.Contains(rest[3:], `'''`):
			for end < len(b.lines) && !strings.Contains(b.lines[end], `'''`) {
				end++
			}
			if end < len(b.lines) {
				end++
			}
		case openBracketDepth(rest) > 0:
			depth := openBracketDepth(rest)
			for end < len(b.lines) && depth > 0 {
				depth += openBracketDepth(b.lines[end])
				end++
			}
		}
		out = append(out, entry{key: key, start: i, end: end})
		i = end
	}
	return out
}

func (b *block) findEntry(key string) (entry, bool) {
	for _, e := range b.entries() {
		if e.key == key {
			return e, true
		}
	}
	return entry{}, false
}

// entryValueText returns the raw value text of the entry (everything after the
// first '='), with continuation lines joined by newlines.
func (b *block) entryValueText(e entry) string {
	_, rest, _ := splitAssignment(b.lines[e.start])
	parts := []string{rest}
	parts = append(parts, b.lines[e.start+1:e.end]...)
	return strings.Join(parts, "\n")
}

// replaceEntry swaps the entry's line span for newLines.
func (b *block) replaceEntry(e entry, newLines []string) {
	out := make([]string, 0, len(b.lines)-(e.end-e.start)+len(newLines))
	out = append(out, b.lines[:e.start]...)
	out = append(out, newLines...)
	out = append(out, b.lines[e.end:]...)
	b.lines = out
}

// appendEntry inserts lines after the last assignment, before any trailing
// blank lines so block spacing stays stable.
func (b *block) appendEntry(lines []string) {
	insert := len(b.lines)
	for insert > 0 && strings.TrimSpace(b.lines[insert-1]) == "" {
		insert--
	}
	out := make([]string, 0, len(b.lines)+len(lines))
	out = append(out, b.lines[:insert]...)
	out = append(out, lines...)
	out = append(out, b.lines[insert:]...)
	b.lines = out
}

func splitAssignment(line string) (key, rest string, ok bool) {
	eq := strings.Index(line, "=")
	if eq < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:eq])
	if key == "" || strings.HasPrefix(key, "#") {
		return "", "", false
	}
	for _, r := range key {
		if !(r == '_' || r == '-' || r == '.' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return "", "", false
		}
	}
	return key, strings.TrimSpace(line[eq+1:]), true
}

// multilineOpener returns the delimiter of a multiline string the line opens
// without closing on the same line, or "" when the line leaves nothing open.
func multilineOpener(line string) string {
	_, rest, ok := splitAssignment(line)
	if !ok {
		return ""
	}
	switch {
	case strings.HasPrefix(rest, `"""`) && !closesTripleQuote(rest[3:]):
		return `"""`
	case strings.HasPrefix(rest, `'''`) && !strings.Contains(rest[3:], `'''`):
		return `'''`
	}
	return ""
}

func closesMultiline(line, delim string) bool {
	if delim == `"""` {
		return closesTripleQuote(line)
	}
	return strings.Contains(line, delim)
}

// closesTripleQuote reports whether the text contains an unescaped `"""`.
func closesTripleQuote(s string) bool {
	for i := 0; i+3 <= len(s); i++ {
		if s[i:i+3] == `"""` {
			if i > 0 && s[i-1] == '\\' {
				continue
			}
			return true
		}
	}
	return false
}

// openBracketDepth counts unclosed '[' on the line, ignoring brackets inside
// quoted strings.
func openBracketDepth(s string) int {
	depth := 0
	inStr := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr != 0 {
			if c == '\\' && inStr == '"' {
				i++
				continue
			}
			if c == inStr {
				inStr = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			inStr = c
		case '[':
			depth++
		case ']':
			depth--
		case '#':
			return depth
		}
	}
	return depth
}

// decodeStringValue turns a raw TOML string value into its text. Non-string
// scalars are returned as their raw token.
func decodeStringValue(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, `"""`):
		body := raw[3:]
		if idx := lastTriple(body); idx >= 0 {
			body = body[:idx]
		}
		body = strings.TrimPrefix(body, "\n")
		return unescapeBasic(body)
	case strings.HasPrefix(raw, `"`):
		body := strings.TrimSuffix(raw[1:], `"`)
		return unescapeBasic(body)
	case strings.HasPrefix(raw, "'''"):
		body := raw[3:]
		body = strings.TrimSuffix(body, "'''")
		return strings.TrimPrefix(body, "\n"), nil
	case strings.HasPrefix(raw, "'"):
		return strings.TrimSuffix(raw[1:], "'"), nil
	default:
		return raw, nil
	}
}

func lastTriple(s string) int {
	for i := len(s) - 3; i >= 0; i-- {
		if s[i:i+3] == `"""` && (i == 0 || s[i-1] != '\\') {
			return i
		}
	}
	return -1
}

func unescapeBasic(s string) (string, error) {
	if !strings.Contains(s, "\\") {
		return s, nil
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		case 'u':
			if i+4 < len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+5], 16, 32); err == nil {
					sb.WriteRune(rune(v))
					i += 4
					continue
				}
			}
			return "", fmt.Errorf("document: bad \\u escape")
		case '\n':
			// line-ending backslash: swallow following whitespace
			for i+1 < len(s) && (s[i+1] == ' ' || s[i+1] == '\t' || s[i+1] == '\n') {
				i++
			}
		default:
			return "", fmt.Errorf("document: unknown escape \\%c", s[i])
		}
	}
	return sb.String(), nil
}

// encodeBasicString renders a single-line basic string.
func encodeBasicString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)
	return `"` + r.Replace(s) + `"`
}

// encodeMultilineEntry renders `key = """ ... """` the way the publication
// repo stores paragraphs: opening delimiter on the key line, body verbatim,
// closing delimiter on its own line.
func encodeMultilineEntry(key, text string) []string {
	esc := strings.ReplaceAll(text, `\`, `\\`)
	esc = strings.ReplaceAll(esc, `"""`, `""\"`)
	if strings.HasSuffix(esc, `"`) {
		esc = esc[:len(esc)-1] + `\"`
	}
	lines := []string{key + ` = """`}
	lines = append(lines, strings.Split(esc, "\n")...)
	lines = append(lines, `"""`)
	return lines
}

// --- attribution (author) values ---

// decodeAuthors reads an author value: absent key yields nil, an inline table
// yields one entry, an array yields all of them.
func decodeAuthors(raw string) []Attribution {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "{") {
		if a, ok := decodeInlineAuthor(raw); ok {
			return []Attribution{a}
		}
		return nil
	}
	if !strings.HasPrefix(raw, "[") {
		return nil
	}
	var out []Attribution
	for _, part := range splitInlineTables(raw) {
		if a, ok := decodeInlineAuthor(part); ok {
			out = append(out, a)
		}
	}
	return out
}

func decodeInlineAuthor(raw string) (Attribution, bool) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") || !strings.HasSuffix(raw, "}") {
		return Attribution{}, false
	}
	var a Attribution
	for _, pair := range splitTopLevel(raw[1:len(raw)-1], ',') {
		key, rest, ok := splitAssignment(strings.TrimSpace(pair))
		if !ok {
			continue
		}
		v, err := decodeStringValue(rest)
		if err != nil {
			continue
		}
		switch key {
		case "name":
			a.Name = v
		case "link":
			a.Link = v
		case "date":
			a.Date = v
		}
	}
	return a, true
}

// splitInlineTables extracts every top-level {...} group from an array value.
func splitInlineTables(raw string) []string {
	var out []string
	depth := 0
	start := -1
	inStr := byte(0)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inStr != 0 {
			if c == '\\' && inStr == '"' {
				i++
				continue
			}
			if c == inStr {
				inStr = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			inStr = c
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start >= 0 {
				out = append(out, raw[start:i+1])
				start = -1
			}
		}
	}
	return out
}

func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	inStr := byte(0)
	last := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr != 0 {
			if c == '\\' && inStr == '"' {
				i++
				continue
			}
			if c == inStr {
				inStr = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			inStr = c
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		case sep:
			if depth == 0 {
				out = append(out, s[last:i])
				last = i + 1
			}
		}
	}
	out = append(out, s[last:])
	return out
}

func encodeInlineAuthor(a Attribution) string {
	return "{ name = " + encodeBasicString(a.Name) +
		", link = " + encodeBasicString(a.Link) +
		", date = " + encodeBasicString(a.Date) + " }"
}

// encodeAuthorEntry renders the author key: a single attribution stays an
// inline table, more than one becomes a multiline array.
func encodeAuthorEntry(authors []Attribution) []string {
	if len(authors) == 1 {
		return []string{"author = " + encodeInlineAuthor(authors[0])}
	}
	lines := []string{"author = ["}
	for _, a := range authors {
		lines = append(lines, "    "+encodeInlineAuthor(a)+",")
	}
	return append(lines, "]")
}
