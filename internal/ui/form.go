package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldSecret
	fieldChoice
	fieldToggle
)

type choiceOption struct {
	value string
	label string
}

type formField struct {
	key   string
	label string
	kind  fieldKind
	hint  string

	input   textinput.Model
	options []choiceOption
	choice  int
	on      bool
}

func textField(key, label, value string, limit int) formField {
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = limit
	in.SetValue(value)
	return formField{key: key, label: label, kind: fieldText, input: in}
}

func secretField(key, label string) formField {
	f := textField(key, label, "", 128)
	f.kind = fieldSecret
	f.input.EchoMode = textinput.EchoPassword
	f.input.EchoCharacter = '•'
	return f
}

func choiceField(key, label string, options []choiceOption, value string) formField {
	f := formField{key: key, label: label, kind: fieldChoice, options: options}
	f.setChoice(value)
	return f
}

func toggleField(key, label string, on bool) formField {
	return formField{key: key, label: label, kind: fieldToggle, on: on}
}

func (f *formField) setChoice(value string) {
	for i, opt := range f.options {
		if opt.value == value {
			f.choice = i
			return
		}
	}
	f.choice = 0
}

func (f formField) value() string {
	switch f.kind {
	case fieldChoice:
		if len(f.options) == 0 {
			return ""
		}
		return f.options[f.choice].value
	case fieldToggle:
		return ternary(f.on, "true", "false")
	default:
		return f.input.Value()
	}
}

func (f formField) typing() bool {
	return f.kind == fieldText || f.kind == fieldSecret
}

// form is a vertical list of fields with per-field errors. tab and the arrow keys
// move between fields, left/right and space change choices and toggles, ctrl+s or
// enter on the last field submit.
type form struct {
	fields []formField
	focus  int
	errors map[string]string
}

func newForm(fields ...formField) *form {
	f := &form{fields: fields, errors: map[string]string{}}
	f.focusField(0)
	return f
}

func (f *form) field(key string) *formField {
	for i := range f.fields {
		if f.fields[i].key == key {
			return &f.fields[i]
		}
	}
	return nil
}

// Value returns the trimmed value of a text field, or the selected choice.
func (f *form) Value(key string) string {
	if fld := f.field(key); fld != nil {
		if fld.kind == fieldSecret {
			return fld.value()
		}
		return strings.TrimSpace(fld.value())
	}
	return ""
}

// Bool returns the state of a toggle field.
func (f *form) Bool(key string) bool {
	if fld := f.field(key); fld != nil {
		return fld.on
	}
	return false
}

// SetValue overwrites a text field or selects a choice.
func (f *form) SetValue(key, value string) {
	fld := f.field(key)
	if fld == nil {
		return
	}
	switch fld.kind {
	case fieldChoice:
		fld.setChoice(value)
	case fieldToggle:
		fld.on = value == "true"
	default:
		fld.input.SetValue(value)
	}
}

// SetOptions replaces the options of a choice field, keeping the selection when
// it is still offered.
func (f *form) SetOptions(key string, options []choiceOption) {
	fld := f.field(key)
	if fld == nil {
		return
	}
	current := fld.value()
	fld.options = options
	fld.setChoice(current)
}

func (f *form) SetErrors(errs map[string]string) {
	f.errors = map[string]string{}
	for k, v := range errs {
		f.errors[k] = v
	}
	// Jump to the first field that failed.
	for i, fld := range f.fields {
		if _, ok := f.errors[fld.key]; ok {
			f.focusField(i)
			return
		}
	}
}

func (f *form) ClearErrors() { f.errors = map[string]string{} }

func (f *form) focusField(i int) {
	if len(f.fields) == 0 {
		return
	}
	for j := range f.fields {
		f.fields[j].input.Blur()
	}
	f.focus = (i + len(f.fields)) % len(f.fields)
	if f.fields[f.focus].typing() {
		f.fields[f.focus].input.Focus()
	}
}

// Update handles one key. submit is true when the operator asked to submit.
func (f *form) Update(msg tea.KeyMsg) (submit bool, cmd tea.Cmd) {
	if len(f.fields) == 0 {
		return msg.String() == "enter" || msg.String() == "ctrl+s", nil
	}
	cur := &f.fields[f.focus]
	switch msg.String() {
	case "ctrl+s":
		return true, nil
	case "tab", "down":
		f.focusField(f.focus + 1)
		return false, nil
	case "shift+tab", "up":
		f.focusField(f.focus - 1)
		return false, nil
	case "enter":
		if f.focus == len(f.fields)-1 {
			return true, nil
		}
		f.focusField(f.focus + 1)
		return false, nil
	}

	switch cur.kind {
	case fieldChoice:
		if n := len(cur.options); n > 0 {
			switch msg.String() {
			case "left", "h":
				cur.choice = (cur.choice + n - 1) % n
			case "right", "l", " ":
				cur.choice = (cur.choice + 1) % n
			}
		}
		return false, nil
	case fieldToggle:
		if msg.String() == " " || msg.String() == "left" || msg.String() == "right" {
			cur.on = !cur.on
		}
		return false, nil
	}
	cur.input, cmd = cur.input.Update(msg)
	delete(f.errors, cur.key)
	return false, cmd
}

// View renders the fields with labels of labelWidth.
func (f *form) View(styles Styles, labelWidth, width int) []string {
	var lines []string
	for i, fld := range f.fields {
		focused := i == f.focus
		label := padRight(fld.label, labelWidth)
		if focused {
			label = styles.AccentText.Render("› " + label)
		} else {
			label = styles.MutedText.Render("  " + label)
		}

		var value string
		switch fld.kind {
		case fieldChoice:
			if len(fld.options) == 0 {
				value = styles.FaintText.Render("(none)")
			} else {
				value = "‹ " + styles.Text.Render(fld.options[fld.choice].label) + " ›"
			}
		case fieldToggle:
			value = ternary(fld.on, styles.SuccessText.Render("[x] on"), styles.MutedText.Render("[ ] off"))
		default:
			fld.input.Width = max(width-labelWidth-6, 10)
			value = fld.input.View()
		}
		lines = append(lines, label+" "+value)
		if msg, ok := f.errors[fld.key]; ok {
			lines = append(lines, strings.Repeat(" ", labelWidth+3)+styles.DangerText.Render(msg))
		} else if fld.hint != "" && focused {
			lines = append(lines, strings.Repeat(" ", labelWidth+3)+styles.FaintText.Render(fld.hint))
		}
	}
	return lines
}
