// Package cli holds terminal presentation helpers shared by the command line
// and the console log encoder.
package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	brand   = lipgloss.Color("#0078FF")
	accent  = lipgloss.Color("#BD34EB")
	success = lipgloss.Color("#22C55E")
	failure = lipgloss.Color("#EF4444")
	muted   = lipgloss.Color("#6B7280")
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(brand)
	LabelStyle = lipgloss.NewStyle().Foreground(muted).Width(10)
	ValueStyle = lipgloss.NewStyle().Foreground(accent)
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(failure)
	OKStyle    = lipgloss.NewStyle().Foreground(success)
	BoxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(brand).
			Padding(0, 2)
)

// Enabled reports whether ANSI styling should be emitted.
// It honours NO_COLOR (https://no-color.org/).
func Enabled() bool {
	_, noColor := os.LookupEnv("NO_COLOR")
	return !noColor
}

func render(s lipgloss.Style, text string) string {
	if !Enabled() {
		return text
	}
	return s.Render(text)
}

func CheckMark() string { return render(OKStyle, "✔") }
func CrossMark() string { return render(ErrorStyle, "✘") }
func Arrow() string     { return render(TitleStyle, "➜") }

// KeyValue renders an aligned "label value" line.
func KeyValue(label, value string) string {
	return render(LabelStyle, label) + " " + render(ValueStyle, value)
}

// Banner renders the boxed header printed by the serve command.
func Banner(title, subtitle string) string {
	if !Enabled() {
		return title + "\n" + subtitle
	}
	return BoxStyle.Render(TitleStyle.Render(title) + "\n" + subtitle)
}
