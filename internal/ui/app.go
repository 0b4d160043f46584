package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jroimartin/gocui"
	log "github.com/sirupsen/logrus"

	"xconsole/internal/console"
	"xconsole/internal/form"
	"xconsole/internal/model"
)

type screen int

const (
	screenOperations screen = iota
	screenBuilder
	screenResponse
)

// Panes of the builder screen, in display order.
var paneOrder = []string{
	string(model.ParamInPath),
	string(model.ParamInQuery),
	string(model.ParamInHeader),
	form.BodyLocation,
}

var paneTitles = map[string]string{
	string(model.ParamInPath):   "Path Params",
	string(model.ParamInQuery):  "Query Params",
	string(model.ParamInHeader): "Headers",
	form.BodyLocation:           "Body",
}

const emptyPane = "inputs"

type Options struct {
	BaseURL string
	Timeout time.Duration
	Editor  string
}

type App struct {
	in  io.Reader
	out io.Writer

	g *gocui.Gui

	scr     screen
	console *console.Console
	opts    Options

	ops      []model.Operation
	filter   string
	rows     []row
	selected int

	pane string

	editing    bool
	editTarget string

	suspendEditorFile  string
	suspendEditorField string

	loading  bool
	errorMsg string
}

func NewApp(in io.Reader, out io.Writer, c *console.Console, opts Options) *App {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Editor == "" {
		opts.Editor = "vi"
	}
	a := &App{in: in, out: out, scr: screenOperations, console: c, opts: opts}
	a.ops = c.Catalog().Operations()
	a.recomputeFilter()
	return a
}

func (a *App) Run() error {
	// gocui has no suspend/resume, so editing a JSON field in $EDITOR exits
	// the main loop, runs the editor and builds a fresh GUI.
	for {
		g, err := gocui.NewGui(gocui.OutputNormal)
		if err != nil {
			return err
		}
		a.g = g

		g.BgColor = gocui.ColorBlack
		g.FgColor = gocui.ColorWhite
		g.Cursor = true
		g.InputEsc = true
		g.SetManagerFunc(a.layout)

		if err := a.bindKeys(); err != nil {
			g.Close()
			return err
		}

		err = g.MainLoop()
		g.Close()

		if a.suspendEditorFile != "" {
			file, field := a.suspendEditorFile, a.suspendEditorField
			a.suspendEditorFile, a.suspendEditorField = "", ""
			if err := a.runExternalEditor(file, field); err != nil {
				a.errorMsg = err.Error()
			}
			continue
		}

		if err != nil && err != gocui.ErrQuit {
			return err
		}
		return nil
	}
}

func (a *App) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()

	if v, err := g.SetView("header", 0, 0, maxX-1, 2); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Frame = false
		v.BgColor = gocui.ColorBlack
		v.FgColor = gocui.ColorWhite
		title := a.console.Catalog().Title
		if title == "" {
			title = "REST console"
		}
		fmt.Fprintf(v, "%sxconsole%s  -  %s  %s%s%s\n", colorGreen, colorReset, title, colorDim, a.opts.BaseURL, colorReset)
	}

	if v, err := g.SetView("footer", 0, maxY-2, maxX-1, maxY); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Frame = false
		v.BgColor = gocui.ColorBlack
		v.FgColor = gocui.ColorWhite
	}
	a.renderFooter()

	switch a.scr {
	case screenOperations:
		return a.layoutOperations(maxX, maxY)
	case screenBuilder:
		return a.layoutBuilder(maxX, maxY)
	case screenResponse:
		return a.layoutResponse(maxX, maxY)
	default:
		return nil
	}
}

func (a *App) layoutOperations(maxX, maxY int) error {
	a.clearMainViews([]string{"filter", "operations"})

	if v, err := a.g.SetView("filter", 0, 2, maxX-1, 4); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Filter"
	}
	if v, err := a.g.SetView("operations", 0, 4, maxX-1, maxY-3); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Operations"
		v.Highlight = true
		v.SelFgColor = gocui.ColorBlack
		v.SelBgColor = gocui.ColorGreen
	}
	a.renderFilter()
	a.renderOperations()
	_, err := a.g.SetCurrentView("operations")
	return err
}

// panes lists the builder panes that have at least one field.
func (a *App) panes() []string {
	present := map[string]bool{}
	for _, f := range a.console.Fields() {
		present[f.In] = true
	}
	var out []string
	for _, p := range paneOrder {
		if present[p] {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = []string{emptyPane}
	}
	return out
}

func (a *App) layoutBuilder(maxX, maxY int) error {
	panes := a.panes()

	keep := append([]string{"selected"}, panes...)
	if a.editing {
		keep = append(keep, "edit")
	}
	a.clearMainViews(keep)
	a.ensureValidPane(panes)

	if v, err := a.g.SetView("selected", 0, 2, maxX-1, 4); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Selected operation"
	}

	top, bottom := 4, maxY-3
	height := (bottom - top) / len(panes)
	for i, p := range panes {
		y0 := top + i*height
		y1 := top + (i+1)*height
		if i == len(panes)-1 {
			y1 = bottom
		}
		if v, err := a.g.SetView(p, 0, y0, maxX-1, y1); err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
			v.Highlight = true
		}
	}

	a.renderBuilder()
	a.updatePaneColors(panes)

	if a.editing {
		if _, err := a.g.View("edit"); err == nil {
			_, _ = a.g.SetViewOnTop("edit")
			_, _ = a.g.SetCurrentView("edit")
		}
		return nil
	}
	a.setBuilderFocus()
	return nil
}

func (a *App) ensureValidPane(panes []string) {
	for _, p := range panes {
		if p == a.pane {
			return
		}
	}
	a.pane = panes[0]
}

func (a *App) updatePaneColors(panes []string) {
	for _, p := range panes {
		v, err := a.g.View(p)
		if err != nil {
			continue
		}
		if a.pane == p && !a.editing {
			v.SelBgColor = gocui.ColorGreen
			v.SelFgColor = gocui.ColorBlack
			v.FgColor = gocui.ColorWhite
		} else {
			v.SelBgColor = gocui.ColorDefault
			v.SelFgColor = gocui.ColorDefault
			v.FgColor = gocui.ColorDefault
		}
	}
}

func (a *App) layoutResponse(maxX, maxY int) error {
	a.clearMainViews([]string{"response"})

	if v, err := a.g.SetView("response", 0, 2, maxX-1, maxY-3); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Response"
	}
	a.renderResponse()
	_, err := a.g.SetCurrentView("response")
	return err
}

func (a *App) clearMainViews(keep []string) {
	keepSet := map[string]bool{"header": true, "footer": true}
	for _, k := range keep {
		keepSet[k] = true
	}
	names := []string{"filter", "operations", "selected", "edit", "response", emptyPane}
	names = append(names, paneOrder...)
	for _, n := range names {
		if keepSet[n] {
			continue
		}
		if v, err := a.g.View(n); err == nil {
			v.Clear()
			_ = a.g.DeleteView(n)
		}
	}
}

func (a *App) bindKeys() error {
	g := a.g
	type binding struct {
		view string
		key  any
		fn   func(*gocui.Gui, *gocui.View) error
	}
	bindings := []binding{
		{"", gocui.KeyCtrlC, a.quit},
		{"", gocui.KeyEsc, a.back},
		{"", gocui.KeyTab, a.tabPane},
		{"", gocui.KeyCtrlR, a.dispatch},

		{"operations", gocui.KeyArrowDown, a.moveSel(1)},
		{"operations", gocui.KeyArrowUp, a.moveSel(-1)},
		{"operations", gocui.KeyEnter, a.openBuilder},
		{"operations", gocui.KeyBackspace, a.filterBackspace},
		{"operations", gocui.KeyBackspace2, a.filterBackspace},
		{"operations", gocui.KeySpace, a.appendFilterRune(' ')},

		{"edit", gocui.KeyEnter, a.confirmEdit},

		{"response", gocui.KeyArrowDown, a.scrollResponse(1)},
		{"response", gocui.KeyArrowUp, a.scrollResponse(-1)},
		{"response", 'r', a.dispatch},
		{"response", 'q', a.quit},
		{"response", gocui.KeyEnter, a.responseToOperations},
	}
	for _, p := range append([]string{emptyPane}, paneOrder...) {
		bindings = append(bindings,
			binding{p, gocui.KeyArrowDown, a.moveRow(1)},
			binding{p, gocui.KeyArrowUp, a.moveRow(-1)},
			binding{p, gocui.KeyEnter, a.editField},
			binding{p, gocui.KeySpace, a.toggleField},
			binding{p, 'd', a.resetField},
			binding{p, 'q', a.quit},
		)
	}
	// Typing on the list filters it.
	for r := rune(33); r <= rune(126); r++ {
		bindings = append(bindings, binding{"operations", r, a.appendFilterRune(r)})
	}

	for _, b := range bindings {
		if err := g.SetKeybinding(b.view, b.key, gocui.ModNone, b.fn); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) quit(*gocui.Gui, *gocui.View) error { return gocui.ErrQuit }

func (a *App) back(*gocui.Gui, *gocui.View) error {
	if a.editing {
		return a.closeEdit()
	}
	switch a.scr {
	case screenResponse:
		a.scr = screenBuilder
	case screenBuilder:
		a.scr = screenOperations
	}
	a.errorMsg = ""
	return nil
}

func (a *App) appendFilterRune(r rune) func(*gocui.Gui, *gocui.View) error {
	return func(*gocui.Gui, *gocui.View) error {
		if a.scr != screenOperations || a.editing {
			return nil
		}
		a.filter += string(r)
		a.recomputeFilter()
		a.renderFilter()
		a.renderOperations()
		return nil
	}
}

func (a *App) filterBackspace(*gocui.Gui, *gocui.View) error {
	if a.scr != screenOperations || a.filter == "" {
		return nil
	}
	a.filter = a.filter[:len(a.filter)-1]
	a.recomputeFilter()
	a.renderFilter()
	a.renderOperations()
	return nil
}

func (a *App) recomputeFilter() {
	a.rows = buildRows(a.console.Catalog().Groups(), a.ops, a.filter)
	a.selected = firstSelectable(a.rows, 0, 1)
}

func (a *App) moveSel(delta int) func(*gocui.Gui, *gocui.View) error {
	return func(*gocui.Gui, *gocui.View) error {
		if a.scr != screenOperations {
			return nil
		}
		next := firstSelectable(a.rows, a.selected+delta, delta)
		if next < 0 {
			return nil
		}
		a.selected = next
		if v, err := a.g.View("operations"); err == nil {
			scrollTo(v, a.selected)
		}
		return nil
	}
}

func (a *App) openBuilder(*gocui.Gui, *gocui.View) error {
	if a.scr != screenOperations || a.selected < 0 || a.selected >= len(a.rows) {
		return nil
	}
	r := a.rows[a.selected]
	if r.op < 0 {
		return nil
	}
	if err := a.console.Select(a.ops[r.op].ID); err != nil {
		a.errorMsg = err.Error()
		return nil
	}
	a.pane = ""
	a.scr = screenBuilder
	a.errorMsg = ""
	return nil
}

func (a *App) responseToOperations(*gocui.Gui, *gocui.View) error {
	if a.scr != screenResponse {
		return nil
	}
	a.scr = screenOperations
	a.errorMsg = ""
	return nil
}

func (a *App) tabPane(*gocui.Gui, *gocui.View) error {
	if a.scr != screenBuilder || a.editing {
		return nil
	}
	panes := a.panes()
	for i, p := range panes {
		if p == a.pane {
			a.pane = panes[(i+1)%len(panes)]
			break
		}
	}
	a.updatePaneColors(panes)
	a.setBuilderFocus()
	return nil
}

func (a *App) setBuilderFocus() {
	if a.scr != screenBuilder || a.editing || a.pane == "" {
		return
	}
	_, _ = a.g.SetCurrentView(a.pane)
}

func (a *App) moveRow(delta int) func(*gocui.Gui, *gocui.View) error {
	return func(_ *gocui.Gui, v *gocui.View) error {
		if a.scr != screenBuilder || a.editing || v == nil {
			return nil
		}
		ox, oy := v.Origin()
		cx, cy := v.Cursor()
		newY := cy + delta
		if newY < 0 {
			if oy > 0 {
				_ = v.SetOrigin(ox, oy-1)
			}
			return nil
		}
		if oy+newY >= len(viewLines(v)) {
			return nil
		}
		_ = v.SetCursor(cx, newY)
		return nil
	}
}

// selectedField is the form field under the cursor of the focused pane.
func (a *App) selectedField(v *gocui.View) (form.Field, bool) {
	if v == nil {
		return form.Field{}, false
	}
	lines := viewLines(v)
	_, cy := v.Cursor()
	_, oy := v.Origin()
	i := oy + cy
	if i < 0 || i >= len(lines) {
		return form.Field{}, false
	}
	name := fieldName(lines[i])
	if name == "" {
		return form.Field{}, false
	}
	for _, f := range a.console.Fields() {
		if f.Name == name && f.In == v.Name() {
			return f, true
		}
	}
	return form.Field{}, false
}

func (a *App) toggleField(_ *gocui.Gui, v *gocui.View) error {
	if a.scr != screenBuilder || a.editing {
		return nil
	}
	f, ok := a.selectedField(v)
	if !ok || f.Kind != model.KindBoolean {
		return nil
	}
	a.console.Toggle(f.Name)
	a.renderBuilder()
	return nil
}

func (a *App) resetField(_ *gocui.Gui, v *gocui.View) error {
	if a.scr != screenBuilder || a.editing {
		return nil
	}
	if f, ok := a.selectedField(v); ok {
		a.console.Unset(f.Name)
		a.renderBuilder()
	}
	return nil
}

func (a *App) dispatch(*gocui.Gui, *gocui.View) error {
	if a.editing {
		return nil
	}
	if a.scr != screenBuilder && a.scr != screenResponse {
		return nil
	}
	op, ok := a.console.Operation()
	if !ok {
		return nil
	}

	a.loading = true
	a.errorMsg = ""
	a.renderFooter()

	g := a.g
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.opts.Timeout)
		defer cancel()
		res, applied := a.console.Dispatch(ctx)
		log.WithFields(log.Fields{
			"operation": op.ID,
			"status":    res.Status,
			"applied":   applied,
		}).Debug("ui: dispatch finished")
		g.Update(func(*gocui.Gui) error {
			a.loading = a.console.Loading()
			if applied {
				a.scr = screenResponse
			}
			return nil
		})
	}()
	return nil
}

func (a *App) scrollResponse(delta int) func(*gocui.Gui, *gocui.View) error {
	return func(_ *gocui.Gui, v *gocui.View) error {
		if a.scr != screenResponse || v == nil {
			return nil
		}
		ox, oy := v.Origin()
		if delta > 0 {
			_ = v.SetOrigin(ox, oy+1)
		} else if oy > 0 {
			_ = v.SetOrigin(ox, oy-1)
		}
		return nil
	}
}

func viewText(v *gocui.View) string {
	return strings.TrimSuffix(v.Buffer(), "\n")
}

func viewLines(v *gocui.View) []string {
	buf := strings.TrimSuffix(v.Buffer(), "\n")
	if buf == "" {
		return nil
	}
	return strings.Split(buf, "\n")
}

// scrollTo moves the cursor to line, shifting the origin when the line is
// outside the visible area.
func scrollTo(v *gocui.View, line int) {
	_, h := v.Size()
	ox, oy := v.Origin()
	switch {
	case line < oy:
		oy = line
	case h > 0 && line >= oy+h:
		oy = line - h + 1
	}
	_ = v.SetOrigin(ox, oy)
	_ = v.SetCursor(0, line-oy)
}
