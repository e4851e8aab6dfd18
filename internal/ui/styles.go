package ui

import (
	"math/big"

	"github.com/Mohsinsiddi/ponzilab/internal/chain"
	"github.com/charmbracelet/lipgloss"
)

// Color palette.
var (
	ColorSuccess   = lipgloss.Color("#00D26A") // green: success
	ColorWarning   = lipgloss.Color("#FFB800") // yellow: warning, exploited
	ColorError     = lipgloss.Color("#FF4444") // red: error, revert
	ColorAddress   = lipgloss.Color("#00B4D8") // cyan: addresses, hashes
	ColorValue     = lipgloss.Color("#FFFFFF") // white bold: ETH values
	ColorMeta      = lipgloss.Color("#555555") // dim gray: metadata
	ColorBorder    = lipgloss.Color("#1E3A5F") // dark blue: UI chrome
	ColorMethod    = lipgloss.Color("#9B5DE5") // purple: contract methods
	ColorHighlight = lipgloss.Color("#F15BB5") // pink: selected rows
)

// Base styles.
var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleMethod  = lipgloss.NewStyle().Foreground(ColorMethod).Bold(true)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleSelected = lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorMethod).
			Bold(true).
			MarginBottom(1)
)

// Banner returns the one-line ponzilab banner.
func Banner() string {
	return StyleMethod.Render("ponzilab") + StyleMeta.Render("  PonziContract exploit lab on a simulated chain")
}

// Success formats a success message.
func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }

// Warn formats a warning message.
func Warn(msg string) string { return StyleWarning.Render("⚠ " + msg) }

// Err formats an error message.
func Err(msg string) string { return StyleError.Render("✗ " + msg) }

// Info formats an informational line.
func Info(msg string) string { return StyleAddress.Render("ℹ " + msg) }

// Hint formats a suggestion for what to run next.
func Hint(msg string) string { return StyleMeta.Render("→ " + msg) }

// Addr formats an address.
func Addr(a string) string { return StyleAddress.Render(a) }

// Val formats a value.
func Val(v string) string { return StyleValue.Render(v) }

// Meta formats metadata text.
func Meta(m string) string { return StyleMeta.Render(m) }

// Method formats a contract method name.
func Method(m string) string {
	if m == "" {
		m = "transfer"
	}
	return StyleMethod.Render(m)
}

// FormatETH renders wei as "1.5 ETH".
func FormatETH(wei *big.Int) string {
	return chain.WeiToETH(wei) + " ETH"
}

// Status renders a receipt status.
func Status(ok bool) string {
	if ok {
		return StyleSuccess.Render("success")
	}
	return StyleError.Render("reverted")
}

// Verdict renders a scenario outcome: whether the flaw could be exploited.
func Verdict(exploited bool) string {
	if exploited {
		return StyleWarning.Render("EXPLOITED")
	}
	return StyleSuccess.Render("held")
}

// TruncateAddr shortens an address for display: 0x1234…5678.
func TruncateAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
