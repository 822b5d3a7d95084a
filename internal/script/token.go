// Package script tokenizes and parses the attendance script language: one
// command per line, whitespace-separated tokens, single or double quotes
// preserving interior whitespace, '#' starting a comment outside quotes.
package script

import "strings"

// Tokenize splits one script line into tokens. Inside quotes, a doubled
// quote character stands for a literal quote. An unterminated quote yields
// the remainder of the line as the final token. Returns nil for blank and
// comment-only lines.
func Tokenize(line string) []string {
	var tokens []string
	var cur strings.Builder
	var inQuote bool
	var quote rune
	var hasCur bool

	flush := func() {
		if hasCur {
			tokens = append(tokens, cur.String())
			cur.Reset()
			hasCur = false
		}
	}

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if inQuote {
			if ch == quote {
				if i+1 < len(runes) && runes[i+1] == quote {
					cur.WriteRune(quote)
					i++
					continue
				}
				inQuote = false
				flush()
				continue
			}
			cur.WriteRune(ch)
			continue
		}
		switch {
		case ch == '\'' || ch == '"':
			inQuote = true
			quote = ch
			hasCur = true
		case ch == '#':
			flush()
			return tokens
		case ch == ' ' || ch == '\t' || ch == '\r':
			flush()
		default:
			cur.WriteRune(ch)
			hasCur = true
		}
	}
	flush()
	return tokens
}
