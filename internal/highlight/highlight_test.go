package highlight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPretty(t *testing.T) {
	got, ok := Pretty(`{"b":1,"a":[true,null,{}],"c":{"x":1.50}, "d": []}`)
	require.True(t, ok)
	assert.Equal(t, `{
  "b": 1,
  "a": [
    true,
    null,
    {}
  ],
  "c": {
    "x": 1.50
  },
  "d": []
}`, got)

	got, ok = Pretty(` "plain" `)
	require.True(t, ok)
	assert.Equal(t, `"plain"`, got)

	for _, bad := range []string{`{bad`, ``, `{"a":1} {}`, `[1,]`, `1 2`} {
		_, ok := Pretty(bad)
		assert.False(t, ok, bad)
	}
}

func TestTokenizeFixedOrder(t *testing.T) {
	toks := Tokenize(`{"a:b": "1,2", "n": 3.5}`)
	assert.Equal(t, []Token{
		{Punct, "{"},
		{Key, `"a:b":`},
		{Plain, " "},
		{String, `"1,2"`},
		{Punct, ","},
		{Plain, " "},
		{Key, `"n":`},
		{Plain, " "},
		{Number, "3.5"},
		{Punct, "}"},
	}, toks)
}

func TestTokenizeColonInsideValue(t *testing.T) {
	assert.Equal(t, []Token{
		{Punct, "["},
		{String, `"a:b"`},
		{Punct, "]"},
	}, Tokenize(`["a:b"]`))

	assert.Equal(t, []Token{
		{Punct, "{"},
		{Key, `"s":`},
		{String, `"a:b"`},
		{Punct, "}"},
	}, Tokenize(`{"s":"a:b"}`))
}

func TestTokenizeLiterals(t *testing.T) {
	toks := Tokenize(`[true, "true", nullable, null, -1e5]`)
	var kinds []Kind
	for _, tok := range toks {
		if tok.Kind != Plain {
			kinds = append(kinds, tok.Kind)
		}
	}
	assert.Equal(t, []Kind{Punct, Boolean, Punct, String, Punct, Punct, Null, Punct, Number, Punct}, kinds)

	var b strings.Builder
	for _, tok := range toks {
		b.WriteString(tok.Text)
	}
	assert.Equal(t, `[true, "true", nullable, null, -1e5]`, b.String())
}

func TestHTML(t *testing.T) {
	got := HTML(`{"a:b": "1,2", "n": 3.5}`)
	assert.Equal(t, `{
  <span class="json-key">"a:b":</span> <span class="json-string">"1,2"</span>,
  <span class="json-key">"n":</span> <span class="json-number">3.5</span>
}`, got)

	got = HTML(`{"tag": "<b>&"}`)
	assert.Contains(t, got, `<span class="json-string">"&lt;b&gt;&amp;"</span>`)

	assert.Equal(t, `<span class="json-error">{bad &lt;x&gt;</span>`, HTML(`{bad <x>`))
}

func TestValues(t *testing.T) {
	assert.Equal(t, `<span class="json-string">"line one\nline two"</span>`, HTMLValue("line one\nline two"))
	assert.Contains(t, HTMLValue(map[string]any{"ok": true}), `<span class="json-boolean">true</span>`)

	ansi := ANSIValue(map[string]any{"n": 1})
	assert.Contains(t, ansi, colorKey+`"n":`+colorReset)
	assert.Contains(t, ansi, colorNumber+"1"+colorReset)
	assert.Equal(t, colorError+"{bad"+colorReset, ANSI("{bad"))
}
