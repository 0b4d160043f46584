package ui

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/jroimartin/gocui"

	"xconsole/internal/form"
	"xconsole/internal/highlight"
	"xconsole/internal/model"
)

// singleLineEditor leaves Enter to the keybinding.
type singleLineEditor struct{}

func (e singleLineEditor) Edit(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) {
	switch {
	case key == gocui.KeyBackspace || key == gocui.KeyBackspace2:
		v.EditDelete(true)
	case key == gocui.KeyDelete:
		v.EditDelete(false)
	case key == gocui.KeyArrowLeft:
		v.MoveCursor(-1, 0, false)
	case key == gocui.KeyArrowRight:
		v.MoveCursor(1, 0, false)
	case key == gocui.KeyHome || key == gocui.KeyCtrlA:
		_ = v.SetCursor(0, 0)
	case key == gocui.KeyEnd || key == gocui.KeyCtrlE:
		_ = v.SetCursor(len(viewText(v)), 0)
	case key == gocui.KeySpace:
		v.EditWrite(' ')
	case key == gocui.KeyEnter:
	case ch != 0 && mod == 0:
		v.EditWrite(ch)
	}
}

// editField opens the input that fits the field: booleans toggle, JSON goes
// to $EDITOR, everything else gets the single-line modal.
func (a *App) editField(g *gocui.Gui, v *gocui.View) error {
	if a.scr != screenBuilder || a.editing {
		return nil
	}
	f, ok := a.selectedField(v)
	if !ok {
		return nil
	}
	switch f.Kind {
	case model.KindBoolean:
		a.console.Toggle(f.Name)
		a.renderBuilder()
		return nil
	case model.KindJSONBlob:
		return a.editInEditor(f)
	default:
		return a.openEditModal(g, f)
	}
}

func (a *App) openEditModal(g *gocui.Gui, f form.Field) error {
	a.editing = true
	a.editTarget = f.Name

	maxX, maxY := g.Size()
	width := 60
	if width > maxX-4 {
		width = maxX - 4
	}
	height := 2
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2
	if ev, err := g.SetView("edit", x0, y0, x0+width, y0+height); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		ev.Title = fmt.Sprintf(" %s (enter=ok, esc=cancel) ", f.Placeholder())
		ev.Editable = true
		ev.Editor = singleLineEditor{}
		ev.BgColor = gocui.ColorBlack
		ev.FgColor = gocui.ColorWhite
	}
	if ev, err := g.View("edit"); err == nil {
		ev.Clear()
		current := a.console.State()[f.Name]
		fmt.Fprint(ev, current)
		_ = ev.SetCursor(len(current), 0)
	}
	_, _ = g.SetCurrentView("edit")
	return nil
}

func (a *App) closeEdit() error {
	if !a.editing {
		return nil
	}
	if v, err := a.g.View("edit"); err == nil {
		v.Clear()
		_ = a.g.DeleteView("edit")
	}
	a.editing = false
	a.editTarget = ""
	a.setBuilderFocus()
	return nil
}

func (a *App) confirmEdit(_ *gocui.Gui, v *gocui.View) error {
	if !a.editing {
		return nil
	}
	val := strings.TrimSpace(viewText(v))
	if val == "" {
		a.console.Unset(a.editTarget)
	} else {
		a.console.Set(a.editTarget, val)
	}
	if err := a.closeEdit(); err != nil {
		return err
	}
	a.renderBuilder()
	return nil
}

// editInEditor writes the field's JSON to a temp file and asks Run to drop
// out of the GUI into the editor.
func (a *App) editInEditor(f form.Field) error {
	seed := a.console.State()[f.Name]
	if seed == "" {
		seed = f.Default
	}
	if pretty, ok := highlight.Pretty(seed); ok {
		seed = pretty
	}
	if strings.TrimSpace(seed) == "" {
		seed = "{}"
	}

	tmp, err := os.CreateTemp("", tempPattern(f.Name))
	if err != nil {
		a.errorMsg = err.Error()
		return nil
	}
	defer tmp.Close()
	if _, err := tmp.WriteString(seed + "\n"); err != nil {
		a.errorMsg = err.Error()
		return nil
	}
	a.suspendEditorFile = tmp.Name()
	a.suspendEditorField = f.Name
	return gocui.ErrQuit
}

func (a *App) runExternalEditor(file, field string) error {
	defer os.Remove(file)

	args := splitCommand(a.opts.Editor)
	cmd := exec.Command(args[0], append(args[1:], file)...)
	cmd.Stdin = a.in
	cmd.Stdout = a.out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return err
	}

	b, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	raw := strings.TrimSpace(string(b))
	if raw == "" {
		a.console.Unset(field)
		return nil
	}
	a.console.Set(field, raw)
	// Kept as typed; assembly reports the error with the field name.
	if _, ok := highlight.Pretty(raw); !ok {
		return fmt.Errorf("field '%s' does not hold valid JSON yet", field)
	}
	return nil
}

var nonWord = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// tempPattern names the editor file after the field. Field names may carry
// path separators, which CreateTemp rejects.
func tempPattern(field string) string {
	name := strings.Trim(nonWord.ReplaceAllString(field, "_"), "_")
	if name == "" {
		name = "field"
	}
	return "xconsole-" + name + "-*.json"
}

// splitCommand splits on whitespace only; quotes are not interpreted.
func splitCommand(s string) []string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return []string{"vi"}
	}
	return fields
}
