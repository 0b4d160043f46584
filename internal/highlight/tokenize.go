package highlight

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

type Kind int

const (
	Plain Kind = iota
	Key
	String
	Boolean
	Null
	Number
	Punct
)

type Token struct {
	Kind Kind
	Text string
}

type matcher struct {
	re   *regexp.Regexp
	kind func(m string) Kind
	// word matchers only start after a non-word character.
	word bool
}

// Matchers are tried in this order at every position; the first hit wins and
// the scanner moves past it, so a later matcher never sees text an earlier
// one consumed.
var matchers = []matcher{
	{
		re: regexp.MustCompile(`^"(\\u[a-zA-Z0-9]{4}|\\[^u]|[^\\"])*"(\s*:)?`),
		kind: func(m string) Kind {
			if m[len(m)-1] == ':' {
				return Key
			}
			return String
		},
	},
	{re: regexp.MustCompile(`^(true|false)\b`), kind: constKind(Boolean), word: true},
	{re: regexp.MustCompile(`^null\b`), kind: constKind(Null), word: true},
	{re: regexp.MustCompile(`^[,\[\]{}:]`), kind: constKind(Punct)},
	{re: regexp.MustCompile(`^-?\d+(\.\d+)?([eE][+-]?\d+)?`), kind: constKind(Number)},
}

func constKind(k Kind) func(string) Kind {
	return func(string) Kind { return k }
}

// Tokenize splits text into tokens whose concatenation is text.
func Tokenize(text string) []Token {
	var out []Token
	plainStart := -1
	flush := func(end int) {
		if plainStart >= 0 {
			out = append(out, Token{Kind: Plain, Text: text[plainStart:end]})
			plainStart = -1
		}
	}

	for i := 0; i < len(text); {
		m, kind := match(text, i)
		if m == "" {
			if plainStart < 0 {
				plainStart = i
			}
			_, size := utf8.DecodeRuneInString(text[i:])
			i += size
			continue
		}
		flush(i)
		out = append(out, Token{Kind: kind, Text: m})
		i += len(m)
	}
	flush(len(text))
	return out
}

func match(text string, i int) (string, Kind) {
	for _, m := range matchers {
		if m.word && i > 0 && isWord(text[:i]) {
			continue
		}
		if s := m.re.FindString(text[i:]); s != "" {
			return s, m.kind(s)
		}
	}
	return "", Plain
}

func isWord(before string) bool {
	r, _ := utf8.DecodeLastRuneInString(before)
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
