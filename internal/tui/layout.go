package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// normalizePane forces s to be exactly width columns wide (ANSI-aware) and height
// lines tall, so stacked sections never shift each other.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i := range lines {
		lines[i] = padOrCutANSI(lines[i], width)
	}
	return strings.Join(lines, "\n")
}

func truncateToWidth(s string, w int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if w <= 0 {
		return ""
	}
	if xansi.StringWidth(s) <= w {
		return s
	}
	if w <= 1 {
		return "…"
	}
	return xansi.Cut(s, 0, w-1) + "…"
}

func padOrCutANSI(s string, w int) string {
	cur := xansi.StringWidth(s)
	switch {
	case cur < w:
		return s + strings.Repeat(" ", w-cur)
	case cur > w:
		if w <= 0 {
			return ""
		}
		return xansi.Cut(s, 0, w) + "\x1b[0m"
	default:
		return s
	}
}

func modalWidth(width int) int {
	w := width - 8
	if w > 72 {
		w = 72
	}
	if w < 30 {
		w = 30
	}
	return w
}

// modalBodyWidth is the usable content width inside renderModalBox.
func modalBodyWidth(width int) int {
	return modalWidth(width) - 4
}

func renderModalBox(width int, title string, content string) string {
	w := modalWidth(width)
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorSurfaceFg).
		Width(w - 4).
		Render(title)
	box := lipgloss.NewStyle().
		Width(w).
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Background(colorModalSurfaceBg)
	return box.Render(header + "\n\n" + content)
}

func renderInputLine(bodyW int, inputView string) string {
	if bodyW < 10 {
		bodyW = 10
	}

	// A newline in the view would wrap the modal row while typing.
	inputView = strings.ReplaceAll(inputView, "\n", " ")
	inputView = strings.ReplaceAll(inputView, "\r", " ")

	line := lipgloss.PlaceHorizontal(
		bodyW,
		lipgloss.Left,
		" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > bodyW {
		line = xansi.Cut(line, 0, bodyW) + "\x1b[0m"
	}
	return line
}
