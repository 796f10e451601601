package query

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/doeshing/unigraph/internal/domain"
)

type segmentKind int

const (
	segCode segmentKind = iota
	segString
	segIRI
	segComment
)

type segment struct {
	kind segmentKind
	text string
}

// lex splits query text into code, string literal, IRI reference and comment
// segments. It never fails: unterminated literals run to the end of the text.
func lex(text string) []segment {
	var segs []segment
	start := 0
	flush := func(end int) {
		if end > start {
			segs = append(segs, segment{kind: segCode, text: text[start:end]})
		}
	}

	for i := 0; i < len(text); {
		switch c := text[i]; {
		case c == '#':
			flush(i)
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				end = len(text)
			} else {
				end += i
			}
			segs = append(segs, segment{kind: segComment, text: text[i:end]})
			i, start = end, end
		case c == '"' || c == '\'':
			flush(i)
			end := stringEnd(text, i)
			segs = append(segs, segment{kind: segString, text: text[i:end]})
			i, start = end, end
		case c == '<':
			end, ok := iriEnd(text, i)
			if !ok {
				i++
				continue
			}
			flush(i)
			segs = append(segs, segment{kind: segIRI, text: text[i:end]})
			i, start = end, end
		default:
			i++
		}
	}
	flush(len(text))
	return segs
}

func stringEnd(text string, i int) int {
	quote := text[i]
	delim := string([]byte{quote, quote, quote})
	if strings.HasPrefix(text[i:], delim) {
		for j := i + 3; j < len(text); j++ {
			if text[j] == '\\' {
				j++
				continue
			}
			if strings.HasPrefix(text[j:], delim) {
				return j + 3
			}
		}
		return len(text)
	}
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		case '\n':
			return j
		}
	}
	return len(text)
}

// iriEnd distinguishes <iri> from the less-than operator: an IRI reference
// contains no whitespace and is closed before the next delimiter.
func iriEnd(text string, i int) (int, bool) {
	if i+1 >= len(text) {
		return 0, false
	}
	if next := text[i+1]; next == '=' || isSpace(next) {
		return 0, false
	}
	for j := i + 1; j < len(text); j++ {
		switch c := text[j]; {
		case c == '>':
			return j + 1, true
		case isSpace(c) || c == '<' || c == '"' || c == '{' || c == '}' || c == '|' || c == '^' || c == '`' || c == '\\':
			return 0, false
		}
	}
	return 0, false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isWordByte(c byte) bool {
	return c == '_' || c < utf8RuneSelf && (unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c)))
}

const utf8RuneSelf = 0x80

type word struct {
	text  string
	depth int
	rest  string
	// seg is the index of the code segment holding the word.
	seg int
}

// words returns the bare keywords found in code segments together with the
// brace depth at which each appears. Variables (?x, $x), prefixed names
// (univ:limit, limit:x) and numbers are skipped. balanced reports whether braces
// in code segments close properly.
func words(segs []segment) (out []word, balanced bool) {
	depth := 0
	balanced = true
	for si, seg := range segs {
		if seg.kind != segCode {
			continue
		}
		s := seg.text
		for i := 0; i < len(s); {
			c := s[i]
			switch {
			case c == '{':
				depth++
				i++
			case c == '}':
				depth--
				if depth < 0 {
					balanced = false
					depth = 0
				}
				i++
			case isWordByte(c):
				j := i
				for j < len(s) && isWordByte(s[j]) {
					j++
				}
				prefixed := i > 0 && (s[i-1] == '?' || s[i-1] == '$' || s[i-1] == ':' || s[i-1] == '.' || s[i-1] == '-' || s[i-1] >= utf8RuneSelf)
				suffixed := j < len(s) && (s[j] == ':' || s[j] == '-' || s[j] >= utf8RuneSelf)
				if !prefixed && !suffixed && !unicode.IsDigit(rune(c)) {
					out = append(out, word{text: strings.ToUpper(s[i:j]), depth: depth, rest: s[j:], seg: si})
				}
				i = j
			default:
				i++
			}
		}
	}
	return out, balanced && depth == 0
}

// HasLimitClause reports whether text already ends its outermost query with a
// LIMIT clause. A LIMIT inside a sub-select, a string literal, an IRI, a comment,
// or a name such as ?limit does not count.
func HasLimitClause(text string) bool {
	segs := lex(text)
	ws, _ := words(segs)
	for _, w := range ws {
		if w.text != "LIMIT" || w.depth != 0 {
			continue
		}
		rest := followingCode(segs, w)
		if rest != "" && rest[0] >= '0' && rest[0] <= '9' {
			return true
		}
	}
	return false
}

// followingCode returns the code after w, skipping whitespace and comments.
// It is empty when the next token is a literal or IRI.
func followingCode(segs []segment, w word) string {
	if rest := strings.TrimLeftFunc(w.rest, unicode.IsSpace); rest != "" {
		return rest
	}
	for _, seg := range segs[w.seg+1:] {
		switch seg.kind {
		case segComment:
			continue
		case segCode:
			if rest := strings.TrimLeftFunc(seg.text, unicode.IsSpace); rest != "" {
				return rest
			}
		default:
			return ""
		}
	}
	return ""
}

// ApplyLimit appends a LIMIT clause unless one is already present.
func ApplyLimit(text string, limit int) string {
	if HasLimitClause(text) {
		return text
	}
	trimmed := strings.TrimRightFunc(text, unicode.IsSpace)
	trimmed = strings.TrimRight(trimmed, ";")
	trimmed = strings.TrimRightFunc(trimmed, unicode.IsSpace)

	sep := " "
	if segs := lex(trimmed); len(segs) > 0 && segs[len(segs)-1].kind == segComment {
		sep = "\n"
	}
	return trimmed + sep + "LIMIT " + strconv.Itoa(limit)
}

// Normalize strips comments and collapses whitespace runs outside string
// literals so that cosmetically different spellings of a query compare equal.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	write := func(s string) {
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteString(s)
	}

	for _, seg := range lex(text) {
		switch seg.kind {
		case segComment:
			pendingSpace = true
		case segString, segIRI:
			write(seg.text)
		default:
			for _, field := range splitKeepingEdges(seg.text) {
				if field == "" {
					pendingSpace = true
					continue
				}
				write(field)
			}
		}
	}
	return b.String()
}

// splitKeepingEdges splits on whitespace runs; each run becomes an empty string
// so callers can see where breaks occurred, including at the edges.
func splitKeepingEdges(s string) []string {
	var out []string
	start := -1
	inSpace := false
	for i := 0; i < len(s); i++ {
		if isSpace(s[i]) {
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			if !inSpace {
				out = append(out, "")
				inSpace = true
			}
			continue
		}
		inSpace = false
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// CacheKey hashes normalized query text into a fixed-width key.
func CacheKey(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Validate performs the lightweight syntax checks the console applies before
// sending a query: non-empty, a query form, a WHERE clause where one is
// required, and balanced braces.
func Validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return domain.ErrEmptyQuery
	}
	ws, balanced := words(lex(text))
	var form string
	hasWhere := false
	for _, w := range ws {
		switch w.text {
		case "SELECT", "ASK", "CONSTRUCT", "DESCRIBE":
			if form == "" {
				form = w.text
			}
		case "WHERE":
			hasWhere = true
		}
	}
	if form == "" {
		return fmt.Errorf("%w: query must contain SELECT, ASK, CONSTRUCT or DESCRIBE", domain.ErrInvalidQuery)
	}
	if !hasWhere && form != "ASK" && form != "DESCRIBE" {
		return fmt.Errorf("%w: %s query must contain WHERE", domain.ErrInvalidQuery, form)
	}
	if !balanced {
		return fmt.Errorf("%w: unbalanced braces", domain.ErrInvalidQuery)
	}
	return nil
}
