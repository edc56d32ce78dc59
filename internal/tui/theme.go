package tui

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme/palette helpers.
//
// The TUI must stay readable on light and dark backgrounds, so colors are adaptive and
// "faint" is only applied on dark terminals.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted          = ac("240", "243")
	colorSurfaceFg      = ac("235", "252")
	colorControlBg      = ac("252", "235")
	colorInputBg        = ac("254", "234")
	colorSelectedBg     = ac("#e9e9e9", "#262626")
	colorSelectedFg     = ac("235", "255")
	colorAccent         = ac("27", "62")
	colorAccentFg       = ac("255", "235")
	colorCardMetaFg     = ac("238", "250")
	colorPriceFg        = ac("22", "114")
	colorSoldOutFg      = ac("160", "203")
	colorNoteSuccessBg  = ac("28", "29")
	colorNoteErrorBg    = ac("160", "124")
	colorNoteInfoBg     = ac("27", "25")
	colorModalSurfaceBg = ac("255", "235")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

// themeOverride is "light", "dark" or "" (auto). Markdown styling follows it.
var themeOverride string

// applyColorProfilePreference sets Lip Gloss's color profile for the TUI.
//
// termenv.EnvColorProfile honors CLICOLOR/CLICOLOR_FORCE, which can disable colors in a
// TUI; only NO_COLOR is honored here.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()

	// Trust TERM/COLORTERM when they claim more than the detector found.
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") && (profile == termenv.Ascii || profile == termenv.ANSI) {
		profile = termenv.ANSI256
	}

	lipgloss.SetColorProfile(profile)
}

// applyThemePreference configures background detection.
//
// Priority:
// 1) theme argument: light|dark|auto (from FREAMARKET_TUI_THEME or config tui.theme)
// 2) COLORFGBG heuristic ("fg;bg")
// 3) macOS appearance
func applyThemePreference(theme string) {
	switch strings.ToLower(strings.TrimSpace(theme)) {
	case "light":
		themeOverride = "light"
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		themeOverride = "dark"
		lipgloss.SetHasDarkBackground(true)
		return
	}
	themeOverride = ""

	if dark, ok := colorFGBGDark(); ok {
		lipgloss.SetHasDarkBackground(dark)
		return
	}

	if runtime.GOOS == "darwin" {
		if dark, ok := macOSHasDarkAppearance(); ok {
			lipgloss.SetHasDarkBackground(dark)
		}
	}
}

// colorFGBGDark reads COLORFGBG; xterm palette 0-6 are dark backgrounds.
func colorFGBGDark() (dark bool, ok bool) {
	v := strings.TrimSpace(os.Getenv("COLORFGBG"))
	if v == "" {
		return false, false
	}
	parts := strings.Split(v, ";")
	bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return false, false
	}
	return bg < 7, true
}

func macOSHasDarkAppearance() (dark bool, ok bool) {
	// Prints "Dark" in dark mode; exits 1 in light mode (key missing).
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	out, err := exec.CommandContext(ctx, "defaults", "read", "-g", "AppleInterfaceStyle").CombinedOutput()
	if ctx.Err() != nil {
		return false, false
	}
	if err == nil {
		return strings.Contains(strings.ToLower(string(out)), "dark"), true
	}
	if ee, ok := err.(*exec.ExitError); ok && ee.ExitCode() == 1 {
		return false, true
	}
	return false, false
}
