package decode

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProtoFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

const sensorProto = `syntax = "proto3";
package sensors;

message PoseUpdated {
  string frame = 1;
  double x = 2;
  double y = 3;
}

message StatusChanged {
  string node = 1;
  bool healthy = 2;
}
`

func TestLoadProtoSet(t *testing.T) {
	dir := t.TempDir()
	writeProtoFile(t, dir, "sensors.proto", sensorProto)

	ps, err := LoadProtoSet(dir)
	if err != nil {
		t.Fatalf("LoadProtoSet: %v", err)
	}

	names := ps.TypeNames()
	found := false
	for _, n := range names {
		if n == "PoseUpdated" {
			found = true
		}
	}
	if !found {
		t.Errorf("TypeNames = %v, want PoseUpdated present", names)
	}
}

func TestLoadProtoSet_EmptyDir(t *testing.T) {
	_, err := LoadProtoSet(t.TempDir())
	if err == nil {
		t.Fatal("expected error for directory with no .proto files")
	}
}

func TestProtoDecoder_InRegistry(t *testing.T) {
	dir := t.TempDir()
	writeProtoFile(t, dir, "sensors.proto", sensorProto)

	ps, err := LoadProtoSet(dir)
	if err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	r.Register("protobuf", ps.Decoder())

	// field 1 (frame) = "map", wire type 2, length 3
	payload := []byte{0x0A, 0x03, 'm', 'a', 'p'}
	c := r.Decode(Raw{Topic: "robot.1.pose.updated", Encoding: "protobuf", Body: payload})
	if c.Kind != KindRecord {
		t.Fatalf("Kind = %v, want record (note: %s)", c.Kind, c.Note)
	}

	var typeName, frame string
	for _, f := range c.Fields {
		switch f.Name {
		case "@type":
			typeName = f.Value
		case "frame":
			frame = f.Value
		}
	}
	if typeName != "PoseUpdated" {
		t.Errorf("@type = %q, want PoseUpdated (topic hint)", typeName)
	}
	if frame != `"map"` {
		t.Errorf("frame = %q, want \"map\"", frame)
	}
}

func TestProtoDecoder_GarbageFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeProtoFile(t, dir, "sensors.proto", sensorProto)

	ps, err := LoadProtoSet(dir)
	if err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	r.Register("protobuf", ps.Decoder())

	// wire type 7 is invalid, cannot unmarshal with any type
	c := r.Decode(Raw{Encoding: "protobuf", Body: []byte{0x0F, 0xFF, 0xFF}})
	if c.Kind != KindBinary {
		t.Fatalf("Kind = %v, want binary fallback", c.Kind)
	}
	if c.Note == "" {
		t.Error("expected diagnostic note")
	}
}

func TestProtoDecoder_HintNamesType(t *testing.T) {
	dir := t.TempDir()
	writeProtoFile(t, dir, "sensors.proto", sensorProto)

	ps, err := LoadProtoSet(dir)
	if err != nil {
		t.Fatal(err)
	}

	// An empty payload populates nothing, so scoring alone could pick any
	// type; a hint naming a known type must decode as that type.
	c, err := ps.decode(nil, "robot.1.pose.updated")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(c.Fields) == 0 || c.Fields[0].Name != "@type" || c.Fields[0].Value != "PoseUpdated" {
		t.Errorf("fields = %+v, want @type PoseUpdated first", c.Fields)
	}
}

func TestDecodeAs_UnknownType(t *testing.T) {
	dir := t.TempDir()
	writeProtoFile(t, dir, "sensors.proto", sensorProto)

	ps, err := LoadProtoSet(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ps.DecodeAs([]byte{}, "NoSuchType"); err == nil {
		t.Error("expected error for unknown type name")
	}
}

func TestTopicToTypeHint(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"telemetry.it.pose.updated", "PoseUpdated"},
		{"robot.status.changed", "StatusChanged"},
		{"a.administrative_area.updated", "AdministrativeAreaUpdated"},
		{"single", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			if got := topicToTypeHint(tt.topic); got != tt.want {
				t.Errorf("topicToTypeHint(%q) = %q, want %q", tt.topic, got, tt.want)
			}
		})
	}
}

func TestLoadProtoSet_BadFileSkipped(t *testing.T) {
	dir := t.TempDir()
	writeProtoFile(t, dir, "good.proto", sensorProto)
	writeProtoFile(t, dir, "bad.proto", "syntax = \"proto3\"\nthis is not valid")

	ps, err := LoadProtoSet(dir)
	if err != nil {
		t.Fatalf("LoadProtoSet should tolerate one bad file: %v", err)
	}
	if len(ps.ParseErrors) == 0 {
		t.Error("expected parse diagnostics for bad.proto")
	}
	hasBad := false
	for _, pe := range ps.ParseErrors {
		if strings.Contains(pe, "bad.proto") {
			hasBad = true
		}
	}
	if !hasBad {
		t.Errorf("ParseErrors = %v, want entry for bad.proto", ps.ParseErrors)
	}
}
