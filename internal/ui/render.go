package ui

import (
	"fmt"
	"regexp"
	"strings"

	"xconsole/internal/catalog"
	"xconsole/internal/form"
	"xconsole/internal/highlight"
	"xconsole/internal/model"
)

const (
	colorDim     = "\033[90m"
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

// row is one line of the operation list. Group headings have op == -1.
type row struct {
	op    int
	group string
}

// buildRows lays out the operation list. Without a filter operations are
// shown under their tag headings in catalog order; with one they are ranked
// by match quality.
func buildRows(groups []catalog.Group, ops []model.Operation, filter string) []row {
	index := make(map[string]int, len(ops))
	for i, op := range ops {
		index[op.ID] = i
	}

	if strings.TrimSpace(filter) == "" {
		var rows []row
		for _, g := range groups {
			rows = append(rows, row{op: -1, group: g.Tag})
			for _, op := range g.Operations {
				rows = append(rows, row{op: index[op.ID]})
			}
		}
		return rows
	}

	var rows []row
	for _, i := range rankOperations(filter, ops) {
		rows = append(rows, row{op: i})
	}
	return rows
}

// firstSelectable walks from start in direction step and returns the first
// row that is an operation, or -1.
func firstSelectable(rows []row, start, step int) int {
	if step == 0 {
		step = 1
	}
	for i := start; i >= 0 && i < len(rows); i += step {
		if rows[i].op >= 0 {
			return i
		}
	}
	return -1
}

func (a *App) renderFooter() {
	v, err := a.g.View("footer")
	if err != nil {
		return
	}
	v.Clear()
	msg := a.errorMsg
	if msg != "" {
		msg = colorRed + msg + colorReset
	} else {
		switch a.scr {
		case screenOperations:
			msg = "type: filter   enter: select   ctrl+c: quit"
		case screenBuilder:
			msg = "tab: switch pane   enter: edit   space: toggle   d: reset   ctrl+r: run   esc: back"
			if a.pane == form.BodyLocation {
				msg = "tab: switch pane   enter: edit (json in $EDITOR)   space: toggle   d: reset   ctrl+r: run   esc: back"
			}
		case screenResponse:
			msg = "up/down: scroll   r: rerun   enter: operations   esc: back"
		}
	}
	if a.loading {
		msg = colorYellow + "loading... " + colorReset + msg
	}
	fmt.Fprint(v, msg)
}

func (a *App) renderFilter() {
	v, err := a.g.View("filter")
	if err != nil {
		return
	}
	v.Clear()
	fmt.Fprint(v, a.filter)
}

func (a *App) renderOperations() {
	v, err := a.g.View("operations")
	if err != nil {
		return
	}
	v.Clear()
	for _, r := range a.rows {
		if r.op < 0 {
			fmt.Fprintf(v, "%s%s%s\n", colorMagenta, r.group, colorReset)
			continue
		}
		fmt.Fprintln(v, operationLine(a.ops[r.op]))
	}
	if len(a.rows) == 0 {
		fmt.Fprintln(v, "(no match)")
		return
	}
	if a.selected >= 0 {
		scrollTo(v, a.selected)
	}
}

func operationLine(op model.Operation) string {
	label := ""
	if op.Summary != "" {
		label = " - " + op.Summary
	}
	return fmt.Sprintf("  %s  %s%s", colorizeMethod(op.Method), highlightPathParams(op.Path), label)
}

func (a *App) renderBuilder() {
	a.renderFooter()
	op, ok := a.console.Operation()
	if !ok {
		return
	}
	if v, err := a.g.View("selected"); err == nil {
		v.Clear()
		fmt.Fprintln(v, operationLine(op))
	}

	byPane := map[string][]form.Field{}
	for _, f := range a.console.Fields() {
		byPane[f.In] = append(byPane[f.In], f)
	}
	state := a.console.State()
	for _, p := range paneOrder {
		v, err := a.g.View(p)
		if err != nil {
			continue
		}
		v.Title = paneTitles[p]
		v.Clear()
		for _, f := range byPane[p] {
			_, set := state[f.Name]
			fmt.Fprintln(v, fieldLine(f, a.console.Value(f.Name), set))
		}
	}
	if v, err := a.g.View(emptyPane); err == nil {
		v.Title = "Inputs"
		v.Clear()
		fmt.Fprintln(v, "(no inputs)")
	}
}

// fieldLine renders "*name = value". Untouched fields show their default or
// a hint, dimmed.
func fieldLine(f form.Field, value string, set bool) string {
	req := ""
	if f.Required {
		req = "*"
	}
	if set {
		shown := value
		if f.Kind == model.KindJSONBlob {
			shown = compactLine(value)
		}
		return fmt.Sprintf("%s%s = %s%s%s", req, f.Name, colorGreen, shown, colorReset)
	}

	var hint []string
	if value != "" {
		hint = append(hint, value)
	}
	if len(f.Schema.Enum) > 0 {
		hint = append(hint, strings.Join(f.Schema.Enum, "|"))
	}
	if f.Kind == model.KindJSONBlob {
		hint = append(hint, "json")
	}
	if d := f.Schema.Description; d != "" && f.Kind != model.KindBoolean {
		hint = append(hint, d)
	}
	if len(hint) == 0 {
		return fmt.Sprintf("%s%s = ", req, f.Name)
	}
	return fmt.Sprintf("%s%s = %s%s%s", req, f.Name, colorDim, strings.Join(hint, ", "), colorReset)
}

// fieldName recovers the field name from a rendered field line.
func fieldName(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "(") {
		return ""
	}
	line = strings.TrimPrefix(line, "*")
	name, _, ok := strings.Cut(line, "=")
	if !ok {
		return ""
	}
	return strings.TrimSpace(name)
}

func compactLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (a *App) renderResponse() {
	a.renderFooter()
	v, err := a.g.View("response")
	if err != nil {
		return
	}
	v.Clear()

	res, ok := a.console.Result()
	if !ok {
		fmt.Fprintln(v, "(no response yet)")
		return
	}
	fmt.Fprintln(v, colorizeStatus(res))
	if res.Error != "" {
		fmt.Fprintf(v, "%s%s%s\n", colorRed, res.Error, colorReset)
	}
	fmt.Fprintln(v)
	fmt.Fprintln(v, highlight.ANSIValue(res.Data))
}

func colorizeStatus(res model.DispatchResult) string {
	var color string
	switch {
	case res.OK():
		color = colorGreen
	case res.Status >= 400 && res.Status < 500:
		color = colorYellow
	default:
		color = colorRed
	}
	return fmt.Sprintf("%s%d %s%s", color, res.Status, res.StatusText(), colorReset)
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

func colorizeMethod(method string) string {
	method = strings.ToUpper(method)
	var color string
	switch method {
	case "GET":
		color = colorBlue
	case "POST":
		color = colorGreen
	case "PUT":
		color = colorYellow
	case "DELETE":
		color = colorRed
	case "PATCH":
		color = colorCyan
	case "HEAD":
		color = colorMagenta
	default:
		color = colorReset
	}
	return color + padRight(method, 6) + colorReset
}

var pathParam = regexp.MustCompile(`\{([^}]+)\}`)

func highlightPathParams(path string) string {
	return pathParam.ReplaceAllString(path, colorCyan+"{$1}"+colorReset)
}
