package highlight

import (
	"strings"
)

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

var htmlClass = map[Kind]string{
	Key:     "json-key",
	String:  "json-string",
	Boolean: "json-boolean",
	Null:    "json-null",
	Number:  "json-number",
}

// HTML pretty-prints text and wraps each token in a classed span. Invalid
// JSON comes back escaped inside a json-error span.
func HTML(text string) string {
	pretty, ok := Pretty(text)
	if !ok {
		return `<span class="json-error">` + htmlEscaper.Replace(text) + `</span>`
	}
	var b strings.Builder
	for _, tok := range Tokenize(pretty) {
		esc := htmlEscaper.Replace(tok.Text)
		cls, ok := htmlClass[tok.Kind]
		if !ok {
			b.WriteString(esc)
			continue
		}
		b.WriteString(`<span class="` + cls + `">` + esc + `</span>`)
	}
	return b.String()
}

// HTMLValue renders a dispatch result value.
func HTMLValue(v any) string {
	return HTML(Marshal(v))
}

const (
	colorReset   = "\033[0m"
	colorKey     = "\033[36m"
	colorString  = "\033[32m"
	colorNumber  = "\033[33m"
	colorBool    = "\033[35m"
	colorNull    = "\033[90m"
	colorBracket = "\033[37m"
	colorError   = "\033[31m"
)

var ansiColor = map[Kind]string{
	Key:     colorKey,
	String:  colorString,
	Boolean: colorBool,
	Null:    colorNull,
	Number:  colorNumber,
	Punct:   colorBracket,
}

// ANSI is HTML for terminals.
func ANSI(text string) string {
	pretty, ok := Pretty(text)
	if !ok {
		return colorError + text + colorReset
	}
	var b strings.Builder
	for _, tok := range Tokenize(pretty) {
		c, ok := ansiColor[tok.Kind]
		if !ok {
			b.WriteString(tok.Text)
			continue
		}
		b.WriteString(c + tok.Text + colorReset)
	}
	return b.String()
}

func ANSIValue(v any) string {
	return ANSI(Marshal(v))
}
