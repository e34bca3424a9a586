package decode

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"reflect"
	"strings"
	"testing"
)

func TestDecode_Text(t *testing.T) {
	r := NewRegistry()

	c := r.Decode(Raw{Topic: "chat", Encoding: "text", Body: []byte("hello world")})
	if c.Kind != KindText {
		t.Fatalf("Kind = %v, want text", c.Kind)
	}
	if c.Text != "hello world" {
		t.Errorf("Text = %q, want %q", c.Text, "hello world")
	}
	if c.Note != "" {
		t.Errorf("Note = %q, want empty", c.Note)
	}
}

func TestDecode_TextInvalidUTF8FallsBack(t *testing.T) {
	r := NewRegistry()

	body := []byte{0xFF, 0xFE, 0xFD}
	c := r.Decode(Raw{Encoding: "text", Body: body})
	if c.Kind != KindBinary {
		t.Fatalf("Kind = %v, want binary fallback", c.Kind)
	}
	if !bytes.Equal(c.Bytes, body) {
		t.Errorf("fallback should keep raw bytes, got %v", c.Bytes)
	}
	if c.Note == "" {
		t.Error("expected a diagnostic note on fallback")
	}
}

func TestDecode_UnknownEncoding(t *testing.T) {
	r := NewRegistry()

	body := []byte{0xFF, 0x00}
	c := r.Decode(Raw{Encoding: "99", Body: body})
	if c.Kind != KindBinary {
		t.Fatalf("Kind = %v, want binary fallback", c.Kind)
	}
	if !bytes.Equal(c.Bytes, body) {
		t.Errorf("Bytes = %v, want raw payload", c.Bytes)
	}
	if !strings.Contains(c.Note, "unknown encoding") {
		t.Errorf("Note = %q, want unknown-encoding diagnostic", c.Note)
	}
}

func TestDecode_JSON(t *testing.T) {
	r := NewRegistry()

	body := []byte(`{"name":"lidar-1","active":true,"reading":{"value":42.5,"unit":"C"},"tags":["a","b"]}`)
	c := r.Decode(Raw{Encoding: "json", Body: body})
	if c.Kind != KindRecord {
		t.Fatalf("Kind = %v, want record", c.Kind)
	}

	byName := make(map[string]Field)
	for _, f := range c.Fields {
		byName[f.Name] = f
	}

	if byName["name"].Value != `"lidar-1"` {
		t.Errorf("name = %q", byName["name"].Value)
	}
	if byName["active"].Value != "true" {
		t.Errorf("active = %q", byName["active"].Value)
	}
	reading := byName["reading"]
	if len(reading.Children) != 2 {
		t.Fatalf("reading children = %d, want 2", len(reading.Children))
	}
	if reading.Children[1].Name != "value" || reading.Children[1].Value != "42.5" {
		t.Errorf("reading.value = %+v", reading.Children[1])
	}
	tags := byName["tags"]
	if len(tags.Children) != 2 || tags.Children[0].Name != "[0]" {
		t.Errorf("tags = %+v", tags)
	}
}

func TestDecode_JSONScalarTopLevel(t *testing.T) {
	r := NewRegistry()

	c := r.Decode(Raw{Encoding: "json", Body: []byte(`"just a string"`)})
	if c.Kind != KindRecord {
		t.Fatalf("Kind = %v, want record", c.Kind)
	}
	if len(c.Fields) != 1 || c.Fields[0].Name != "value" {
		t.Fatalf("Fields = %+v", c.Fields)
	}
}

func TestDecode_MalformedJSONFallsBack(t *testing.T) {
	r := NewRegistry()

	c := r.Decode(Raw{Encoding: "json", Body: []byte(`{"broken":`)})
	if c.Kind != KindBinary {
		t.Fatalf("Kind = %v, want binary fallback", c.Kind)
	}
	if c.Note == "" {
		t.Error("expected diagnostic note")
	}
}

func TestDecode_PNG(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	c := r.Decode(Raw{Encoding: "png", Body: buf.Bytes()})
	if c.Kind != KindImage {
		t.Fatalf("Kind = %v, want image", c.Kind)
	}
	if c.Image.Format != "png" || c.Image.Width != 8 || c.Image.Height != 4 {
		t.Errorf("Image = %+v, want png 8x4", c.Image)
	}
}

func TestDecode_ImageSniffsFormat(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))

	var pngBuf, jpgBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(&jpgBuf, img, nil); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()

	// The generic "image" id reports the actual payload format.
	tests := []struct {
		body       []byte
		wantFormat string
	}{
		{pngBuf.Bytes(), "png"},
		{jpgBuf.Bytes(), "jpeg"},
	}
	for _, tt := range tests {
		c := r.Decode(Raw{Encoding: "image", Body: tt.body})
		if c.Kind != KindImage {
			t.Fatalf("Kind = %v, want image", c.Kind)
		}
		if c.Image.Format != tt.wantFormat {
			t.Errorf("Format = %q, want %q", c.Image.Format, tt.wantFormat)
		}
	}
}

func TestDecode_RawForcesBinary(t *testing.T) {
	r := NewRegistry()

	c := r.Decode(Raw{Encoding: "raw", Body: []byte("hello")})
	if c.Kind != KindBinary {
		t.Fatalf("Kind = %v, want binary", c.Kind)
	}
	if c.Note != "" {
		t.Errorf("forced raw view should carry no diagnostic, got %q", c.Note)
	}
}

func TestDecode_Deterministic(t *testing.T) {
	r := NewRegistry()
	raw := Raw{Encoding: "json", Body: []byte(`{"b":1,"a":{"y":2,"x":3}}`)}

	first := r.Decode(raw)
	for i := 0; i < 5; i++ {
		again := r.Decode(raw)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("decode not deterministic: %+v vs %+v", first, again)
		}
	}
}

func TestDecode_PanickingDecoderRecovered(t *testing.T) {
	r := NewRegistry()
	r.Register("boom", func(raw Raw) (Content, error) {
		panic("decoder bug")
	})

	body := []byte{1, 2, 3}
	c := r.Decode(Raw{Encoding: "boom", Body: body})
	if c.Kind != KindBinary {
		t.Fatalf("Kind = %v, want binary fallback", c.Kind)
	}
	if !strings.Contains(c.Note, "panic") {
		t.Errorf("Note = %q, want panic diagnostic", c.Note)
	}
	if !bytes.Equal(c.Bytes, body) {
		t.Errorf("fallback should keep raw bytes")
	}
}

func TestDecode_CaseInsensitiveEncoding(t *testing.T) {
	r := NewRegistry()

	c := r.Decode(Raw{Encoding: "JSON", Body: []byte(`{"k":1}`)})
	if c.Kind != KindRecord {
		t.Errorf("Kind = %v, want record for uppercase encoding id", c.Kind)
	}
}

func TestDecode_NeverPanicsOnGarbage(t *testing.T) {
	r := NewRegistry()

	encodings := []string{"text", "json", "png", "jpeg", "raw", "", "99", "protobuf"}
	bodies := [][]byte{nil, {}, {0xFF, 0x00}, []byte("plain"), bytes.Repeat([]byte{0xAB}, 4096)}

	for _, enc := range encodings {
		for i, body := range bodies {
			t.Run(fmt.Sprintf("%s/%d", enc, i), func(t *testing.T) {
				c := r.Decode(Raw{Encoding: enc, Body: body})
				if c.Kind < KindBinary || c.Kind > KindImage {
					t.Errorf("invalid kind %v", c.Kind)
				}
			})
		}
	}
}
