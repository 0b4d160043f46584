// Package highlight pretty-prints JSON and splits it into classed tokens for
// HTML and terminal rendering.
package highlight

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const indentUnit = "  "

type frame struct {
	object bool
	n      int
}

// Pretty re-indents one JSON value with two spaces. Object keys keep their
// order and numbers keep their literal form. ok is false for anything that is
// not exactly one valid JSON value.
func Pretty(text string) (string, bool) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var (
		b     strings.Builder
		stack []frame
		done  bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil || done {
			return "", false
		}

		if d, ok := tok.(json.Delim); ok && (d == '}' || d == ']') {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.n > 0 {
				b.WriteByte('\n')
				b.WriteString(strings.Repeat(indentUnit, len(stack)))
			}
			b.WriteRune(rune(d))
			done = len(stack) == 0
			continue
		}

		if len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.object && top.n%2 == 1 {
				b.WriteString(": ")
			} else {
				if top.n > 0 {
					b.WriteByte(',')
				}
				b.WriteByte('\n')
				b.WriteString(strings.Repeat(indentUnit, len(stack)))
			}
			top.n++
		}

		switch v := tok.(type) {
		case json.Delim:
			b.WriteRune(rune(v))
			stack = append(stack, frame{object: v == '{'})
		case string:
			s, err := quote(v)
			if err != nil {
				return "", false
			}
			b.WriteString(s)
		case json.Number:
			b.WriteString(v.String())
		case bool:
			fmt.Fprint(&b, v)
		case nil:
			b.WriteString("null")
		}
		if len(stack) == 0 {
			done = true
		}
	}
	if !done || len(stack) > 0 {
		return "", false
	}
	return b.String(), true
}

// Marshal renders an arbitrary result value as indented JSON text.
func Marshal(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indentUnit)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func quote(s string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
