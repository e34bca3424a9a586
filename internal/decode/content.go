package decode

import "time"

// Raw is a single captured payload as delivered by the transport:
// the topic it arrived on, its declared encoding and the raw bytes.
type Raw struct {
	Topic     string
	Encoding  string
	Body      []byte
	Timestamp time.Time
}

// Kind discriminates the decoded content variants. The set is closed:
// every encoding maps to exactly one of these, with KindBinary as the
// total fallback.
type Kind int

const (
	KindBinary Kind = iota
	KindText
	KindRecord
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindRecord:
		return "record"
	case KindImage:
		return "image"
	default:
		return "binary"
	}
}

// Field is one named entry of a record tree. Leaf fields carry a
// formatted Value; nested messages and arrays carry Children.
type Field struct {
	Name     string
	Value    string
	Children []Field
}

// ImageInfo describes a decoded image header.
type ImageInfo struct {
	Format string
	Width  int
	Height int
}

// Content is the decoded form of one payload. The Kind is fixed at
// construction and instances are never mutated after Decode returns;
// a new payload always produces a new Content.
type Content struct {
	Kind   Kind
	Text   string
	Fields []Field
	Bytes  []byte
	Image  ImageInfo

	// Note carries a diagnostic for fallback content (decode failure,
	// unknown encoding). Empty for clean decodes.
	Note string
}

// TextContent wraps a plain string.
func TextContent(s string) Content {
	return Content{Kind: KindText, Text: s}
}

// RecordContent wraps a tree of named fields.
func RecordContent(fields []Field) Content {
	return Content{Kind: KindRecord, Fields: fields}
}

// BinaryContent wraps raw bytes, optionally annotated with a diagnostic note.
func BinaryContent(data []byte, note string) Content {
	return Content{Kind: KindBinary, Bytes: data, Note: note}
}

// ImageContent wraps a decoded image header plus the raw bytes.
func ImageContent(info ImageInfo, data []byte) Content {
	return Content{Kind: KindImage, Image: info, Bytes: data}
}
