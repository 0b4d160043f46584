package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"xconsole/internal/catalog"
	"xconsole/internal/form"
	"xconsole/internal/model"
)

func describeMarkdown(cat *catalog.Catalog, op model.Operation) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", op.Label())
	fmt.Fprintf(&b, "`%s %s`  \n", strings.ToUpper(op.Method), op.Path)
	fmt.Fprintf(&b, "id: `%s`, tag: %s\n\n", op.ID, op.Tag())
	if op.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", op.Description)
	}

	if len(op.Parameters) > 0 {
		b.WriteString("## Parameters\n\n")
		b.WriteString("| Name | In | Kind | Required | Default | Description |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, p := range op.Parameters {
			writeRow(&b, p.Name, string(p.In), p.Required, p.Schema)
		}
		b.WriteString("\n")
	}

	schema, ok, err := cat.BodySchema(op)
	if err != nil {
		return "", err
	}
	if ok {
		fmt.Fprintf(&b, "## Body: %s\n\n", schema.Name)
		if schema.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", schema.Description)
		}
		b.WriteString("| Name | In | Kind | Required | Default | Description |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, p := range schema.Properties {
			writeRow(&b, p.Name, form.BodyLocation, schema.IsRequired(p.Name), p.Schema)
		}
		b.WriteString("\n")
	}

	if len(op.Parameters) == 0 && !ok {
		b.WriteString("_No inputs._\n")
	}
	return b.String(), nil
}

func writeRow(b *strings.Builder, name, in string, required bool, f model.Fragment) {
	req := ""
	if required {
		req = "yes"
	}
	desc := f.Description
	if len(f.Enum) > 0 {
		desc = strings.TrimSpace(desc + " One of: " + strings.Join(f.Enum, ", ") + ".")
	}
	fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s |\n",
		name, in, form.Classify(f), req, cell(form.DefaultText(f)), cell(desc))
}

// cell keeps a value on one table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func renderMarkdown(w io.Writer, content string) {
	md, err := glamour.Render(content, "auto")
	if err != nil {
		fmt.Fprintln(w, content)
		return
	}
	fmt.Fprintln(w, md)
}
