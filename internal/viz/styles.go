package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Canvas      lipgloss.Style
	Stats       lipgloss.Style
	Header      lipgloss.Style
	Label       lipgloss.Style
	Value       lipgloss.Style
	ActiveParam lipgloss.Style
	Graph       lipgloss.Style
	Help        lipgloss.Style
	Running     lipgloss.Style
	Paused      lipgloss.Style
	High        lipgloss.Style
	Mid         lipgloss.Style
	Low         lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Canvas: lipgloss.NewStyle().Padding(1, 2).Foreground(t.Primary),
		Stats: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(44),
		Header:      lipgloss.NewStyle().Foreground(t.Accent).Bold(true).MarginBottom(1),
		Label:       lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		Value:       lipgloss.NewStyle().Foreground(t.Text),
		ActiveParam: lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		Graph:       lipgloss.NewStyle().Foreground(t.Secondary).Padding(1, 0),
		Help:        lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		Running:     lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		Paused:      lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		High:        lipgloss.NewStyle().Foreground(t.Success),
		Mid:         lipgloss.NewStyle().Foreground(t.Warning),
		Low:         lipgloss.NewStyle().Foreground(t.Error),
	}
}

// ProgressBar renders fraction in [0, 1] as a bar width cells wide, colored
// by how full it is.
func (s Styles) ProgressBar(fraction float64, width int) string {
	filled := max(0, min(width, int(fraction*float64(width))))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case fraction > 0.8:
		return s.High.Render(bar)
	case fraction > 0.4:
		return s.Mid.Render(bar)
	}
	return s.Low.Render(bar)
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders the last width values as block characters scaled
// between their min and max.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	out := make([]rune, len(values))
	for i, v := range values {
		k := 0
		if hi > lo {
			k = int((v - lo) / (hi - lo) * float64(len(sparkLevels)-1))
		}
		out[i] = sparkLevels[k]
	}
	return string(out)
}
