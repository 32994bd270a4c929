package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2)

	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	fastStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	mediumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	slowStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

func printBanner(w io.Writer) {
	fmt.Fprintln(w, bannerStyle.Render("Armbian-NG "+Version))
}

// printNotice writes a quoted notice line, e.g. ">>> done".
func printNotice(w io.Writer, s string) {
	for line := range strings.Lines(s) {
		fmt.Fprintln(w, noticeStyle.Render("    >>> "+strings.TrimRight(line, "\n")))
	}
}

// buildTimeMessage describes a build duration in whole minutes.
func buildTimeMessage(d time.Duration) (string, lipgloss.Style) {
	minutes := int(d / time.Minute)
	switch {
	case minutes < 1:
		return "Build time: less than a minute", fastStyle
	case minutes < 2:
		return "Build time: less than a couple of minutes", mediumStyle
	default:
		return fmt.Sprintf("Build time: approximately %d minutes", minutes), slowStyle
	}
}

func printBuildTime(w io.Writer, d time.Duration) {
	msg, style := buildTimeMessage(d)
	fmt.Fprintln(w, style.Render("    >>> "+msg))
}
