package storefront

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const marqueeGap = "   "

// NeedsMarquee reports whether text overflows width display cells.
func NeedsMarquee(text string, width int) bool {
	if width <= 0 {
		return false
	}
	return runewidth.StringWidth(text) > width
}

// MarqueeFrame returns the width-cell window of text starting at offset,
// wrapping around with a gap so consecutive offsets scroll continuously.
// Text that fits is padded and returned unchanged.
func MarqueeFrame(text string, width, offset int) string {
	if width <= 0 {
		return ""
	}
	if !NeedsMarquee(text, width) {
		return runewidth.FillRight(text, width)
	}
	loop := []rune(text + marqueeGap)
	if offset < 0 {
		offset = len(loop) - (-offset % len(loop))
	}
	start := offset % len(loop)

	var b strings.Builder
	used := 0
	for i := 0; used < width; i++ {
		r := loop[(start+i)%len(loop)]
		w := runewidth.RuneWidth(r)
		if used+w > width {
			break
		}
		b.WriteRune(r)
		used += w
	}
	return runewidth.FillRight(b.String(), width)
}
