package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mcolombo/buslens/internal/decode"
)

const hexDumpLimit = 4096

// View is pure presentation: it turns its view model's latest snapshot
// into a string laid out for the given width. Views never mutate decoding
// state and each variant only ever reads its own view model type; the
// pairing is fixed at construction by the selector.
type View interface {
	Render(width int) string
}

var (
	noteStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
	fieldKeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	hexAddrStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C757D"))
	imageHdrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D")).Bold(true)
)

// TextView renders plain text as a wrapped paragraph. wrapWidth fixes the
// wrap column; 0 means "use the pane width passed to Render".
type TextView struct {
	vm        *TextViewModel
	wrapWidth int
}

func NewTextView(vm *TextViewModel, wrapWidth int) *TextView {
	return &TextView{vm: vm, wrapWidth: wrapWidth}
}

func (v *TextView) Render(width int) string {
	w := v.wrapWidth
	if w <= 0 || (width > 0 && w > width) {
		w = width
	}
	if w <= 0 {
		return v.vm.Message()
	}
	return lipgloss.NewStyle().Width(w).Render(v.vm.Message())
}

// RecordView renders a field tree with two-space indentation per level.
type RecordView struct {
	vm *RecordViewModel
}

func NewRecordView(vm *RecordViewModel) *RecordView {
	return &RecordView{vm: vm}
}

func (v *RecordView) Render(width int) string {
	var sb strings.Builder
	renderFields(&sb, v.vm.Fields(), 0)
	return strings.TrimRight(sb.String(), "\n")
}

func renderFields(sb *strings.Builder, fields []decode.Field, indent int) {
	prefix := strings.Repeat("  ", indent)
	for _, f := range fields {
		if len(f.Children) > 0 {
			sb.WriteString(prefix)
			sb.WriteString(fieldKeyStyle.Render(f.Name + ":"))
			sb.WriteString("\n")
			renderFields(sb, f.Children, indent+1)
			continue
		}
		sb.WriteString(prefix)
		sb.WriteString(fieldKeyStyle.Render(f.Name + ":"))
		sb.WriteString(" ")
		sb.WriteString(f.Value)
		sb.WriteString("\n")
	}
}

// BinaryView renders a classic hex dump: offset column, 16 bytes per row,
// ASCII gutter. A leading diagnostic line is added when the snapshot
// carries a note (decode failure, unknown encoding).
type BinaryView struct {
	vm *BinaryViewModel
}

func NewBinaryView(vm *BinaryViewModel) *BinaryView {
	return &BinaryView{vm: vm}
}

func (v *BinaryView) Render(width int) string {
	snap := v.vm.Snapshot()

	var sb strings.Builder
	if snap.Note != "" {
		sb.WriteString(noteStyle.Render("! " + snap.Note))
		sb.WriteString("\n\n")
	}
	sb.WriteString(hexDump(snap.Bytes))
	return strings.TrimRight(sb.String(), "\n")
}

func hexDump(data []byte) string {
	if len(data) == 0 {
		return hexAddrStyle.Render("(empty payload)")
	}

	truncated := false
	if len(data) > hexDumpLimit {
		data = data[:hexDumpLimit]
		truncated = true
	}

	var sb strings.Builder
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		row := data[off:end]

		sb.WriteString(hexAddrStyle.Render(fmt.Sprintf("%08x", off)))
		sb.WriteString("  ")

		for i := 0; i < 16; i++ {
			if i < len(row) {
				fmt.Fprintf(&sb, "%02x ", row[i])
			} else {
				sb.WriteString("   ")
			}
			if i == 7 {
				sb.WriteString(" ")
			}
		}

		sb.WriteString(" |")
		for _, b := range row {
			if b >= 32 && b < 127 {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|\n")
	}

	if truncated {
		sb.WriteString(hexAddrStyle.Render(fmt.Sprintf("... truncated at %d bytes", hexDumpLimit)))
		sb.WriteString("\n")
	}

	return sb.String()
}

// ImageView renders the decoded image header plus a short hex preview of
// the encoded bytes. Cell-grid pixel rendering is out of scope for a
// character terminal; dimensions and format are what an operator needs.
type ImageView struct {
	vm *ImageViewModel
}

func NewImageView(vm *ImageViewModel) *ImageView {
	return &ImageView{vm: vm}
}

func (v *ImageView) Render(width int) string {
	snap := v.vm.Snapshot()
	info := snap.Image

	var sb strings.Builder
	sb.WriteString(imageHdrStyle.Render(fmt.Sprintf("%s image", strings.ToUpper(info.Format))))
	sb.WriteString("\n")
	sb.WriteString(fieldKeyStyle.Render("dimensions:"))
	fmt.Fprintf(&sb, " %dx%d px\n", info.Width, info.Height)
	sb.WriteString(fieldKeyStyle.Render("encoded size:"))
	fmt.Fprintf(&sb, " %d bytes\n\n", len(snap.Bytes))

	preview := snap.Bytes
	if len(preview) > 64 {
		preview = preview[:64]
	}
	sb.WriteString(hexDump(preview))
	return strings.TrimRight(sb.String(), "\n")
}
