package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = 40
	in.Prompt = ""
	_ = in.Cursor.SetMode(cursor.CursorStatic)
	return in
}

// authForm is the username/password pair shared by the login and signup screens.
type authForm struct {
	username textinput.Model
	password textinput.Model
	focus    int
}

func newAuthForm() authForm {
	f := authForm{
		username: newInput("username", 64),
		password: newInput("password", 128),
	}
	f.password.EchoMode = textinput.EchoPassword
	f.password.EchoCharacter = '•'
	f.setFocus(0)
	return f
}

func (f *authForm) setFocus(i int) {
	f.focus = (i + 2) % 2
	f.username.Blur()
	f.password.Blur()
	if f.focus == 0 {
		f.username.Focus()
	} else {
		f.password.Focus()
	}
}

func (f *authForm) values() (string, string) {
	return f.username.Value(), f.password.Value()
}

func (f *authForm) reset() {
	f.username.Reset()
	f.password.Reset()
	f.setFocus(0)
}

func (f authForm) update(msg tea.Msg) (authForm, tea.Cmd) {
	var cmd tea.Cmd
	if f.focus == 0 {
		f.username, cmd = f.username.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return f, cmd
}

func (f authForm) view(title string, width int) string {
	bodyW := modalBodyWidth(width)
	label := styleMuted().Render
	content := strings.Join([]string{
		label("ユーザー名"),
		renderInputLine(bodyW, f.username.View()),
		"",
		label("パスワード"),
		renderInputLine(bodyW, f.password.View()),
		"",
		styleMuted().Width(bodyW).Render("tab: next field   enter: submit   ctrl+t: login/signup"),
	}, "\n")
	return renderModalBox(width, title, content)
}

// itemForm collects a new item. Price stays raw text; the controller parses it.
type itemForm struct {
	name        textinput.Model
	description textarea.Model
	price       textinput.Model
	focus       int
}

const itemFormFields = 3

func newItemForm() itemForm {
	desc := textarea.New()
	desc.Placeholder = "説明"
	desc.CharLimit = 0
	desc.ShowLineNumbers = false
	desc.SetWidth(40)
	desc.SetHeight(3)
	_ = desc.Cursor.SetMode(cursor.CursorStatic)

	f := itemForm{
		name:        newInput("商品名", 20),
		description: desc,
		price:       newInput("価格", 12),
	}
	f.setFocus(0)
	return f
}

func (f *itemForm) setFocus(i int) {
	f.focus = (i + itemFormFields) % itemFormFields
	f.name.Blur()
	f.description.Blur()
	f.price.Blur()
	switch f.focus {
	case 0:
		f.name.Focus()
	case 1:
		f.description.Focus()
	case 2:
		f.price.Focus()
	}
}

func (f *itemForm) reset() {
	f.name.Reset()
	f.description.Reset()
	f.price.Reset()
	f.setFocus(0)
}

func (f itemForm) update(msg tea.Msg) (itemForm, tea.Cmd) {
	var cmd tea.Cmd
	switch f.focus {
	case 0:
		f.name, cmd = f.name.Update(msg)
	case 1:
		f.description, cmd = f.description.Update(msg)
	case 2:
		f.price, cmd = f.price.Update(msg)
	}
	return f, cmd
}

func (f itemForm) view(width int) string {
	bodyW := modalBodyWidth(width)
	f.description.SetWidth(bodyW - 2)
	label := styleMuted().Render
	desc := lipgloss.NewStyle().Background(colorInputBg).Width(bodyW).Render(f.description.View())
	content := strings.Join([]string{
		label("商品名"),
		renderInputLine(bodyW, f.name.View()),
		"",
		label("説明"),
		desc,
		"",
		label("価格"),
		renderInputLine(bodyW, f.price.View()),
		"",
		styleMuted().Width(bodyW).Render("tab: next field   ctrl+s: save   esc: cancel"),
	}, "\n")
	return renderModalBox(width, "商品を追加", content)
}
