package viz

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	menuTitle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ccff")).MarginBottom(1)
	menuSelected = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#66ffcc"))
	menuItem     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899"))
)

// Menu lets the user pick one of a list of presets before the live view
// starts.
type Menu struct {
	items    []string
	cursor   int
	chosen   string
	canceled bool
}

func NewMenu(items []string) Menu { return Menu{items: items} }

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.items) > 0 {
			m.chosen = m.items[m.cursor]
		}
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		m.canceled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Menu) View() string {
	var b strings.Builder
	b.WriteString(menuTitle.Render("CYLSIM · choose a preset") + "\n")
	for i, item := range m.items {
		if i == m.cursor {
			b.WriteString(menuSelected.Render("> "+item) + "\n")
		} else {
			b.WriteString(menuItem.Render("  "+item) + "\n")
		}
	}
	b.WriteString("\n" + menuItem.Render("↑↓ select · enter start · q quit"))
	return b.String()
}

// Choice returns the chosen item, or "" if the menu was canceled.
func (m Menu) Choice() string {
	if m.canceled {
		return ""
	}
	return m.chosen
}

// Pick runs the menu and returns the chosen item.
func Pick(items []string) (string, error) {
	final, err := tea.NewProgram(NewMenu(items)).Run()
	if err != nil {
		return "", err
	}
	return final.(Menu).Choice(), nil
}
