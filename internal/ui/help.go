package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const helpWidth = 52

type helpSection struct {
	title string
	items []hint
}

// helpSections lists the global bindings, the section keys and the active screen's
// own keys.
func (m Model) helpSections() []helpSection {
	var global []hint
	for _, group := range m.keys.FullHelp() {
		for _, b := range group {
			global = append(global, hint{b.Help().Key, b.Help().Desc})
		}
	}
	jumps := make([]hint, len(sections))
	for i, s := range sections {
		jumps[i] = hint{s.key, s.label}
	}
	out := []helpSection{
		{title: "Global", items: global},
		{title: "Sections", items: jumps},
		{title: "Lists", items: []hint{
			{"j/k g/G", "Move, top, bottom"},
			{"n/p < >", "Next, previous, first, last page"},
			{"/", "Search, enter commits now"},
			{"s z x", "Sort, page size, clear filters"},
			{"r", "Refresh in place"},
		}},
	}
	if m.screen != nil {
		out = append(out, helpSection{title: m.screen.Title(), items: m.screen.Hints()})
	}
	return out
}

func (m Model) helpContent() string {
	styles := m.theme.Styles()
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning)).Width(12)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	secs := m.helpSections()
	for i, section := range secs {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, item := range section.items {
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}
		if i < len(secs)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// openHelp fills the overlay viewport for the current screen.
func (m *Model) openHelp() {
	m.showHelp = true
	m.help.Width = helpWidth - 6
	m.help.Height = max(m.height-8, 5)
	m.help.SetContent(m.helpContent())
	m.help.GotoTop()
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(helpWidth)

	footer := m.theme.Styles().FaintText.Render("j/k scroll · esc or ? close")
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(m.help.View()+"\n\n"+footer),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
