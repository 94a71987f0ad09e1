package display

import (
	_ "embed"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

//go:embed banner.txt
var bannerRaw string

const tagline = "power naps, on the clock"

// RenderBanner returns the banner art and tagline centred for the current
// terminal width. Replace banner.txt to change the art.
func RenderBanner() string {
	return renderBanner(termWidth())
}

func renderBanner(width int) string {
	art := strings.Split(strings.TrimRight(bannerRaw, "\n"), "\n")

	var b strings.Builder
	writeCentred(&b, art, width, BannerStyle)
	writeCentred(&b, []string{tagline}, width, secondaryStyle)
	return b.String()
}

// writeCentred indents every line of block by the same amount, so
// multi-line art keeps its shape. Blocks wider than width are not indented.
func writeCentred(b *strings.Builder, block []string, width int, style lipgloss.Style) {
	blockW := 0
	for _, l := range block {
		blockW = max(blockW, lipgloss.Width(l))
	}

	indent := ""
	if width > blockW {
		indent = strings.Repeat(" ", (width-blockW)/2)
	}
	for _, l := range block {
		b.WriteString(indent)
		b.WriteString(style.Render(l))
		b.WriteByte('\n')
	}
}

// termWidth returns the current terminal column count, or 80 as fallback.
func termWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}
