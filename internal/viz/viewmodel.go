package viz

import (
	"sync/atomic"

	"github.com/mcolombo/buslens/internal/decode"
)

// ViewModel holds the decoded state for the currently inspected selection.
// Update is called only from the ingest path; Snapshot is called from the
// render path every frame. The two never block each other: each Update
// publishes a fresh immutable Content via an atomic pointer swap, so a
// concurrent Snapshot sees either the previous or the new value, never a
// torn one.
type ViewModel interface {
	Kind() decode.Kind
	Update(decode.Content)
	Snapshot() decode.Content
}

// snapshotHolder is the shared atomic-swap mechanics embedded by every
// variant view model.
type snapshotHolder struct {
	snap atomic.Pointer[decode.Content]
}

func (h *snapshotHolder) Update(c decode.Content) {
	h.snap.Store(&c)
}

func (h *snapshotHolder) Snapshot() decode.Content {
	if p := h.snap.Load(); p != nil {
		return *p
	}
	return decode.Content{}
}

// TextViewModel holds plain-text content.
type TextViewModel struct {
	snapshotHolder
}

func NewTextViewModel() *TextViewModel { return &TextViewModel{} }

func (vm *TextViewModel) Kind() decode.Kind { return decode.KindText }

// Message returns the latest committed string value.
func (vm *TextViewModel) Message() string {
	return vm.Snapshot().Text
}

// RecordViewModel holds a decoded field tree.
type RecordViewModel struct {
	snapshotHolder
}

func NewRecordViewModel() *RecordViewModel { return &RecordViewModel{} }

func (vm *RecordViewModel) Kind() decode.Kind { return decode.KindRecord }

// Fields returns the latest committed field tree.
func (vm *RecordViewModel) Fields() []decode.Field {
	return vm.Snapshot().Fields
}

// BinaryViewModel holds raw bytes plus an optional diagnostic note. It is
// also the fallback target for undecodable payloads.
type BinaryViewModel struct {
	snapshotHolder
}

func NewBinaryViewModel() *BinaryViewModel { return &BinaryViewModel{} }

func (vm *BinaryViewModel) Kind() decode.Kind { return decode.KindBinary }

// Data returns the latest committed raw bytes.
func (vm *BinaryViewModel) Data() []byte {
	return vm.Snapshot().Bytes
}

// Note returns the diagnostic annotation, empty for clean payloads.
func (vm *BinaryViewModel) Note() string {
	return vm.Snapshot().Note
}

// ImageViewModel holds a decoded image header plus the raw bytes.
type ImageViewModel struct {
	snapshotHolder
}

func NewImageViewModel() *ImageViewModel { return &ImageViewModel{} }

func (vm *ImageViewModel) Kind() decode.Kind { return decode.KindImage }

// Info returns the latest committed image header.
func (vm *ImageViewModel) Info() decode.ImageInfo {
	return vm.Snapshot().Image
}
