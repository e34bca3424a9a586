package viz

import "strings"

// Position describes where the viewport offset sits relative to the
// content. It is purely descriptive; the sticky-bottom policy in
// SetContent is the only consumer.
type Position int

const (
	AtTop Position = iota
	Scrolled
	AtBottom
)

// Viewport clips rendered content to a fixed pane, tracking a scroll
// offset in lines. It is encoding-agnostic: it only ever sees the string
// a View produced. The offset is clamped into [0, max(0, lines-height)]
// after every mutation, so shrinking content can never leave the offset
// past the end.
type Viewport struct {
	width  int
	height int
	lines  []string
	offset int
}

func NewViewport(width, height int) *Viewport {
	return &Viewport{width: width, height: height}
}

func (v *Viewport) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.clamp()
}

func (v *Viewport) Width() int  { return v.width }
func (v *Viewport) Height() int { return v.height }
func (v *Viewport) Offset() int { return v.offset }

// SetContent replaces the viewport content. If the offset was at the
// bottom of scrollable content before the update it follows to the new
// bottom; otherwise the absolute offset is preserved (and clamped). This
// keeps live-updating content from yanking the scroll position while
// still auto-following when the user is tailing. Content that fits the
// pane is AtTop, not AtBottom, so it never arms the follow.
func (v *Viewport) SetContent(content string) {
	follow := len(v.lines) > v.height && v.offset == v.maxOffset()

	if content == "" {
		v.lines = nil
	} else {
		v.lines = strings.Split(content, "\n")
	}

	if follow {
		v.offset = v.maxOffset()
	} else {
		v.clamp()
	}
}

// Reset clears content and returns the offset to the top. Used on
// selection change: scroll position never carries across targets.
func (v *Viewport) Reset() {
	v.lines = nil
	v.offset = 0
}

// Position reports AtTop when the whole content fits or the offset is 0,
// AtBottom when the offset sits at the last scrollable line.
func (v *Viewport) Position() Position {
	switch {
	case v.offset <= 0:
		return AtTop
	case v.offset >= v.maxOffset():
		return AtBottom
	default:
		return Scrolled
	}
}

func (v *Viewport) LineUp(n int)   { v.offset -= n; v.clamp() }
func (v *Viewport) LineDown(n int) { v.offset += n; v.clamp() }

func (v *Viewport) PageUp()   { v.LineUp(v.height) }
func (v *Viewport) PageDown() { v.LineDown(v.height) }

func (v *Viewport) GotoTop()    { v.offset = 0 }
func (v *Viewport) GotoBottom() { v.offset = v.maxOffset() }

func (v *Viewport) maxOffset() int {
	max := len(v.lines) - v.height
	if max < 0 {
		return 0
	}
	return max
}

func (v *Viewport) clamp() {
	if v.offset > v.maxOffset() {
		v.offset = v.maxOffset()
	}
	if v.offset < 0 {
		v.offset = 0
	}
}

// ContentLines returns the total line count of the current content.
func (v *Viewport) ContentLines() int {
	return len(v.lines)
}

// View returns the visible slice of content, padded with blank lines to
// exactly fill the viewport height.
func (v *Viewport) View() string {
	if v.height <= 0 {
		return ""
	}

	end := v.offset + v.height
	if end > len(v.lines) {
		end = len(v.lines)
	}
	start := v.offset
	if start > end {
		start = end
	}

	visible := make([]string, 0, v.height)
	visible = append(visible, v.lines[start:end]...)
	for len(visible) < v.height {
		visible = append(visible, "")
	}

	return strings.Join(visible, "\n")
}
