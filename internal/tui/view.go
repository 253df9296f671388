package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/tphummel/crowpanel/internal/models"
	"github.com/tphummel/crowpanel/internal/ui"
)

// rowPixels is how many layout pixels one terminal line stands for when the
// dialog viewport is scrolled.
const rowPixels = 20

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	addStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	disabledStyle = lipgloss.NewStyle().Faint(true)
	focusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	problemStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dialogStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
	keyboardStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
)

// View implements tea.Model.
func (m Model) View() string {
	switch m.screen.State() {
	case ui.StateList:
		return m.place(m.listView())
	case ui.StateEditDialog:
		return m.place(m.dialogView())
	}
	return ""
}

func (m Model) place(content string) string {
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) listView() string {
	lines := []string{
		titleStyle.Render(ui.Title),
		subtitleStyle.Render(ui.Subtitle),
		"",
	}
	for i, row := range m.screen.Rows() {
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
		}
		label := row.Label
		if !row.Configured {
			label = addStyle.Render(label)
		}
		lines = append(lines, prefix+label)
	}
	lines = append(lines, "", m.help.View(listKeys{m.keys}))
	return strings.Join(lines, "\n")
}

func (m Model) dialogView() string {
	e := m.screen.Editor()
	body := []string{titleStyle.Render(e.Title()), ""}

	body = append(body, m.inputLine(e, ctlName))
	body = append(body, m.connectionLine(e))
	body = append(body, m.inputLine(e, ctlSSID), m.inputLine(e, ctlPassword))
	body = append(body, m.inputLine(e, ctlHost), m.inputLine(e, ctlPort))
	body = append(body, "", m.buttons())

	if m.status != "" {
		body = append(body, "", problemStyle.Render(m.status))
	}

	vp := e.Viewport()
	if skip := vp.Scroll / rowPixels; vp.Scrollable && skip > 0 && skip < len(body) {
		body = body[skip:]
	}

	out := dialogStyle.Render(strings.Join(body, "\n"))
	if kb := e.Keyboard(); kb != nil {
		out = lipgloss.JoinVertical(lipgloss.Center, out, keyboardView(kb))
	}
	return lipgloss.JoinVertical(lipgloss.Left, out, m.help.View(dialogKeys{m.keys}))
}

func (m Model) marker(c control) string {
	if m.focus == c {
		return focusStyle.Render("▸ ")
	}
	return "  "
}

func (m Model) inputLine(e *ui.Editor, c control) string {
	f, _ := c.field()
	in := e.Input(f)
	focused := m.focus == c

	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = in.Max()
	ti.Width = 32
	if in.Secret {
		ti.EchoMode = textinput.EchoPassword
	}
	ti.SetValue(in.Value())
	if focused && e.Keyboard() != nil {
		ti.Focus()
	}

	label := labelStyle.Render(padRight(in.Label, 14))
	line := m.marker(c) + label + ti.View()
	if in.Disabled() {
		return disabledStyle.Render(line)
	}
	return line
}

func (m Model) connectionLine(e *ui.Editor) string {
	opts := []models.ConnectionType{models.Wireless, models.Wired}
	parts := make([]string, 0, len(opts))
	for _, t := range opts {
		name := "Wireless"
		if t == models.Wired {
			name = "Wired"
		}
		if e.Connection() == t {
			name = "[" + name + "]"
		} else {
			name = " " + name + " "
		}
		parts = append(parts, name)
	}
	return m.marker(ctlConnection) + labelStyle.Render(padRight("Connection:", 14)) + strings.Join(parts, " ")
}

func (m Model) buttons() string {
	save, cancel := " Save ", " Cancel "
	if m.focus == ctlSave {
		save = focusStyle.Render("[Save]")
	}
	if m.focus == ctlCancel {
		cancel = focusStyle.Render("[Cancel]")
	}
	return "  " + save + "   " + cancel
}

func keyboardView(kb *ui.Overlay) string {
	rows := kb.Layout().Rows()
	lines := make([]string, 0, len(rows)+1)
	for _, r := range rows {
		lines = append(lines, strings.Join(strings.Split(r, ""), " "))
	}
	lines = append(lines, subtitleStyle.Render("⌫ backspace  ⏎ done  esc cancel"))
	return keyboardStyle.Render(strings.Join(lines, "\n"))
}

func padRight(s string, n int) string {
	if w := lipgloss.Width(s); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}
