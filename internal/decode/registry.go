package decode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// DecoderFunc turns one raw payload into decoded content. Decoders must be
// side-effect-free: they may run on a worker goroutine concurrently with
// rendering. A returned error means "fall back to binary", never "abort".
type DecoderFunc func(raw Raw) (Content, error)

// Registry maps encoding identifiers to decoding strategies. Decode is
// total: any payload, malformed or of unknown encoding, yields a Content.
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]DecoderFunc
}

// NewRegistry returns a registry with the built-in decoders registered:
// text, json, png and jpeg. "image" covers both image formats via sniffing,
// for callers that don't know which one they have; "raw" maps to the binary
// fallback so callers can force a hex view.
func NewRegistry() *Registry {
	r := &Registry{decoders: make(map[string]DecoderFunc)}
	r.Register("text", decodeText)
	r.Register("utf-8", decodeText)
	r.Register("json", decodeJSON)
	r.Register("png", decodeImage)
	r.Register("jpeg", decodeImage)
	r.Register("image", decodeImage)
	r.Register("raw", decodeRaw)
	return r
}

// Register binds an encoding id to a decoder. Ids are matched
// case-insensitively. Later registrations replace earlier ones.
func (r *Registry) Register(encoding string, fn DecoderFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[strings.ToLower(encoding)] = fn
}

// Decode turns a raw payload into content according to its declared
// encoding. It never panics and never returns an error: unknown encodings
// and decode failures fall back to binary content with a diagnostic note.
func (r *Registry) Decode(raw Raw) (c Content) {
	defer func() {
		if p := recover(); p != nil {
			c = BinaryContent(raw.Body, fmt.Sprintf("decoder panic: %v", p))
		}
	}()

	r.mu.RLock()
	fn, ok := r.decoders[strings.ToLower(raw.Encoding)]
	r.mu.RUnlock()

	if !ok {
		return BinaryContent(raw.Body, fmt.Sprintf("unknown encoding %q", raw.Encoding))
	}

	content, err := fn(raw)
	if err != nil {
		return BinaryContent(raw.Body, fmt.Sprintf("decode %s: %v", raw.Encoding, err))
	}
	return content
}

func decodeRaw(raw Raw) (Content, error) {
	return BinaryContent(raw.Body, ""), nil
}

func decodeText(raw Raw) (Content, error) {
	if !utf8.Valid(raw.Body) {
		return Content{}, fmt.Errorf("payload is not valid UTF-8")
	}
	return TextContent(string(raw.Body)), nil
}

func decodeJSON(raw Raw) (Content, error) {
	dec := json.NewDecoder(bytes.NewReader(raw.Body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Content{}, err
	}
	return RecordContent(jsonFields(v)), nil
}

// jsonFields flattens a decoded JSON value into a field tree. Object keys
// are sorted for stable output.
func jsonFields(v any) []Field {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, jsonField(k, val[k]))
		}
		return fields
	case []any:
		fields := make([]Field, 0, len(val))
		for i, item := range val {
			fields = append(fields, jsonField(fmt.Sprintf("[%d]", i), item))
		}
		return fields
	default:
		return []Field{jsonField("value", v)}
	}
}

func jsonField(name string, v any) Field {
	switch val := v.(type) {
	case map[string]any, []any:
		return Field{Name: name, Children: jsonFields(val)}
	case string:
		return Field{Name: name, Value: fmt.Sprintf("%q", val)}
	case json.Number:
		return Field{Name: name, Value: val.String()}
	case bool:
		return Field{Name: name, Value: fmt.Sprintf("%v", val)}
	case nil:
		return Field{Name: name, Value: "null"}
	default:
		return Field{Name: name, Value: fmt.Sprintf("%v", val)}
	}
}

func decodeImage(raw Raw) (Content, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw.Body))
	if err != nil {
		return Content{}, err
	}
	return ImageContent(ImageInfo{
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, raw.Body), nil
}
