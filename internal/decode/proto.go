package decode

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
)

// ProtoSet holds message descriptors parsed from a directory of .proto
// files and decodes payloads against them.
type ProtoSet struct {
	messageTypes map[string]*desc.MessageDescriptor
	allMessages  []*desc.MessageDescriptor

	// ParseErrors collects per-file parse diagnostics; files that fail to
	// parse are skipped, not fatal.
	ParseErrors []string
}

// LoadProtoSet parses all .proto files under protoPath.
func LoadProtoSet(protoPath string) (*ProtoSet, error) {
	var protoFiles []string
	err := filepath.Walk(protoPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".proto") {
			relPath, err := filepath.Rel(protoPath, path)
			if err != nil {
				relPath = path
			}
			protoFiles = append(protoFiles, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk proto path: %w", err)
	}

	if len(protoFiles) == 0 {
		return nil, fmt.Errorf("no .proto files found in %s", protoPath)
	}

	parser := protoparse.Parser{
		ImportPaths:           []string{protoPath},
		IncludeSourceCodeInfo: true,
	}

	ps := &ProtoSet{messageTypes: make(map[string]*desc.MessageDescriptor)}

	for _, pf := range protoFiles {
		fds, err := parser.ParseFiles(pf)
		if err != nil {
			ps.ParseErrors = append(ps.ParseErrors, fmt.Sprintf("%s: %v", pf, err))
			continue
		}
		for _, fd := range fds {
			for _, md := range fd.GetMessageTypes() {
				ps.messageTypes[md.GetName()] = md
				ps.messageTypes[md.GetFullyQualifiedName()] = md
				ps.allMessages = append(ps.allMessages, md)
			}
		}
	}

	return ps, nil
}

// Decoder returns a DecoderFunc suitable for Registry.Register. The
// payload's topic is used as a type hint when several message types fit.
func (ps *ProtoSet) Decoder() DecoderFunc {
	return func(raw Raw) (Content, error) {
		return ps.decode(raw.Body, raw.Topic)
	}
}

// decode resolves the payload's message type. A topic-derived hint naming
// a known type decodes directly; otherwise every known type is tried and
// the best match kept: the one populating the most fields, with a strong
// boost when the type name matches the hint.
func (ps *ProtoSet) decode(data []byte, topic string) (Content, error) {
	if ps == nil || len(ps.allMessages) == 0 {
		return Content{}, fmt.Errorf("no message types loaded")
	}

	typeHint := topicToTypeHint(topic)

	if _, ok := ps.messageTypes[typeHint]; ok {
		if c, err := ps.DecodeAs(data, typeHint); err == nil {
			return c, nil
		}
	}

	var bestMatch *dynamic.Message
	var bestMatchName string
	bestScore := 0

	for _, md := range ps.allMessages {
		msg := dynamic.NewMessage(md)
		if err := msg.Unmarshal(data); err != nil {
			continue
		}

		score := countPopulatedFields(msg)

		name := md.GetName()
		if typeHint != "" && strings.EqualFold(name, typeHint) {
			score += 1000
		}

		if score > bestScore {
			bestScore = score
			bestMatch = msg
			bestMatchName = name
		}
	}

	if bestMatch == nil {
		return Content{}, fmt.Errorf("no known message type matches payload")
	}

	fields := messageFields(bestMatch)
	fields = append([]Field{{Name: "@type", Value: bestMatchName}}, fields...)
	return RecordContent(fields), nil
}

// DecodeAs decodes using a specific message type name, bypassing scoring.
func (ps *ProtoSet) DecodeAs(data []byte, typeName string) (Content, error) {
	md, ok := ps.messageTypes[typeName]
	if !ok {
		return Content{}, fmt.Errorf("unknown message type: %s", typeName)
	}

	msg := dynamic.NewMessage(md)
	if err := msg.Unmarshal(data); err != nil {
		return Content{}, fmt.Errorf("failed to unmarshal: %w", err)
	}

	fields := messageFields(msg)
	fields = append([]Field{{Name: "@type", Value: typeName}}, fields...)
	return RecordContent(fields), nil
}

// TypeNames returns all known message type names, sorted.
func (ps *ProtoSet) TypeNames() []string {
	names := make([]string, 0, len(ps.messageTypes))
	for name := range ps.messageTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// topicToTypeHint converts a dotted topic to an expected message type name,
// e.g. "telemetry.it.pose.updated" -> "PoseUpdated".
func topicToTypeHint(topic string) string {
	parts := strings.Split(topic, ".")
	if len(parts) < 2 {
		return ""
	}

	entity := pascalCase(parts[len(parts)-2])
	action := pascalCase(parts[len(parts)-1])
	return entity + action
}

// pascalCase converts a lower or snake_case word to PascalCase.
func pascalCase(s string) string {
	words := strings.Split(strings.ToLower(s), "_")
	var sb strings.Builder
	for _, w := range words {
		if w == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(w[:1]))
		sb.WriteString(w[1:])
	}
	return sb.String()
}

func countPopulatedFields(msg *dynamic.Message) int {
	count := 0
	for _, fd := range msg.GetKnownFields() {
		if msg.HasField(fd) {
			count++
		}
	}
	return count
}

// messageFields converts a decoded dynamic message to a field tree.
func messageFields(msg *dynamic.Message) []Field {
	var fields []Field
	for _, fd := range msg.GetKnownFields() {
		if !msg.HasField(fd) {
			continue
		}
		fields = append(fields, protoField(fd.GetName(), msg.GetField(fd)))
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields
}

func protoField(name string, val any) Field {
	switch v := val.(type) {
	case *dynamic.Message:
		return Field{Name: name, Children: messageFields(v)}
	case []byte:
		if printableBytes(v) {
			return Field{Name: name, Value: fmt.Sprintf("%q", string(v))}
		}
		return Field{Name: name, Value: fmt.Sprintf("0x%x", v)}
	case []any:
		children := make([]Field, 0, len(v))
		for i, item := range v {
			children = append(children, protoField(fmt.Sprintf("[%d]", i), item))
		}
		return Field{Name: name, Children: children}
	case string:
		return Field{Name: name, Value: fmt.Sprintf("%q", v)}
	default:
		return Field{Name: name, Value: fmt.Sprintf("%v", v)}
	}
}

func printableBytes(data []byte) bool {
	for _, b := range data {
		if b < 32 && b != '\n' && b != '\r' && b != '\t' {
			return false
		}
	}
	return true
}
