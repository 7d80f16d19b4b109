// Package protobuf renders resolved models into proto3 files. Files are
// assembled as descriptorpb.FileDescriptorProto values, validated with
// protodesc, then printed as .proto source.
package protobuf

import (
	"fmt"
	"sort"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/jxapi/jxgen/internal/codegen"
	"github.com/jxapi/jxgen/internal/model"
	"github.com/jxapi/jxgen/internal/naming"
)

const (
	timestampFile = "google/protobuf/timestamp.proto"
	emptyFile     = "google/protobuf/empty.proto"
	structFile    = "google/protobuf/struct.proto"
)

// wellKnown are the files generated protos may import
var wellKnown = []protoreflect.FileDescriptor{
	timestamppb.File_google_protobuf_timestamp_proto,
	emptypb.File_google_protobuf_empty_proto,
	structpb.File_google_protobuf_struct_proto,
}

// Generator generates protobuf definitions from a resolved model
type Generator struct{}

// NewGenerator creates a new protobuf generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Language returns the name of the target language
func (g *Generator) Language() string {
	return "proto"
}

// FileExtension returns the file extension for generated files
func (g *Generator) FileExtension() string {
	return ".proto"
}

// protoFile is a file under construction plus the comments to print with it
type protoFile struct {
	fd       *descriptorpb.FileDescriptorProto
	deps     map[string]bool
	comments map[string]string
	emit     bool
	origin   string
}

type build struct {
	g     *Generator
	mode  model.Mode
	files map[string]*protoFile
}

// Generate renders one file per package. In exchange mode, services and
// exchange-local messages go to a separate <package>_exchange.proto so the
// file never clashes with the one POJO generation writes for the same
// package. External entities are assembled for validation but not emitted.
func (g *Generator) Generate(m *model.Model, _ codegen.Options) ([]codegen.Unit, error) {
	b := &build{g: g, mode: m.Mode, files: make(map[string]*protoFile)}

	for _, e := range m.Entities {
		if err := b.addMessage(e); err != nil {
			return nil, err
		}
	}
	if m.Mode == model.ModeExchange {
		for _, x := range m.Exchanges {
			if err := b.addServices(x); err != nil {
				return nil, err
			}
		}
	}

	names := make([]string, 0, len(b.files))
	for name, f := range b.files {
		f.fd.Dependency = sortedKeys(f.deps)
		names = append(names, name)
	}
	sort.Strings(names)

	set := &descriptorpb.FileDescriptorSet{}
	for _, fd := range wellKnown {
		set.File = append(set.File, protodesc.ToFileDescriptorProto(fd))
	}
	for _, name := range names {
		set.File = append(set.File, b.files[name].fd)
	}
	if _, err := protodesc.NewFiles(set); err != nil {
		return nil, fmt.Errorf("invalid protobuf definitions: %w", err)
	}

	var units []codegen.Unit
	for _, name := range names {
		f := b.files[name]
		if !f.emit {
			continue
		}
		units = append(units, codegen.Unit{
			Path:    name,
			Root:    codegen.MainRoot,
			Content: render(f),
			Origin:  f.origin,
		})
	}
	codegen.SortUnits(units)
	return units, nil
}

func (b *build) fileName(pkg string, external bool) string {
	base := naming.Snake(naming.LastSegment(pkg))
	if b.mode == model.ModeExchange && !external {
		base += "_exchange"
	}
	return naming.PackagePath(pkg) + "/" + base + ".proto"
}

func (b *build) file(pkg string, external bool) *protoFile {
	name := b.fileName(pkg, external)
	if f, ok := b.files[name]; ok {
		return f
	}
	f := &protoFile{
		fd: &descriptorpb.FileDescriptorProto{
			Name:    proto.String(name),
			Package: proto.String(pkg),
			Syntax:  proto.String("proto3"),
			Options: &descriptorpb.FileOptions{
				JavaPackage:       proto.String(pkg),
				JavaMultipleFiles: proto.Bool(true),
			},
		},
		deps:     make(map[string]bool),
		comments: make(map[string]string),
		emit:     !external,
		origin:   pkg,
	}
	b.files[name] = f
	return f
}

func (b *build) addMessage(e *model.Entity) error {
	f := b.file(e.Package, e.External)
	msg := &descriptorpb.DescriptorProto{Name: proto.String(e.SimpleName)}
	f.comments[e.SimpleName] = e.Description

	seen := make(map[string]string)
	for i, p := range e.Properties {
		name := naming.Snake(p.Name)
		if prev, ok := seen[name]; ok {
			return b.unsupported(e, p, fmt.Sprintf("proto field name %s collides with field %s", name, prev))
		}
		seen[name] = p.Name

		field := &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(name),
			Number: proto.Int32(int32(i + 1)),
			Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		}
		f.comments[e.SimpleName+"."+name] = p.Description

		t := p.Type
		switch t.Kind {
		case model.KindList:
			if t.Elem.Kind == model.KindList || t.Elem.Kind == model.KindMap {
				return b.unsupported(e, p, "nested repeated fields")
			}
			field.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
			t = t.Elem
		case model.KindMap:
			if t.Elem.Kind == model.KindList || t.Elem.Kind == model.KindMap {
				return b.unsupported(e, p, "map values cannot be repeated or maps")
			}
			entry := mapEntryName(name)
			value := &descriptorpb.FieldDescriptorProto{
				Name:   proto.String("value"),
				Number: proto.Int32(2),
				Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			}
			b.setType(f, value, t.Elem)
			msg.NestedType = append(msg.NestedType, &descriptorpb.DescriptorProto{
				Name: proto.String(entry),
				Field: []*descriptorpb.FieldDescriptorProto{
					{
						Name:   proto.String("key"),
						Number: proto.Int32(1),
						Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
						Type:   descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
					},
					value,
				},
				Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
			})
			field.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
			field.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
			field.TypeName = proto.String("." + e.Package + "." + e.SimpleName + "." + entry)
			msg.Field = append(msg.Field, field)
			continue
		}

		b.setType(f, field, t)
		msg.Field = append(msg.Field, field)
	}

	f.fd.MessageType = append(f.fd.MessageType, msg)
	return nil
}

// setType fills in the scalar or message type of a field and records the
// imports it needs
func (b *build) setType(f *protoFile, field *descriptorpb.FieldDescriptorProto, t *model.Type) {
	if t.Kind == model.KindEntity {
		field.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
		field.TypeName = proto.String(b.messageRef(f, t.Entity))
		return
	}

	scalar := descriptorpb.FieldDescriptorProto_TYPE_STRING
	switch t.Scalar {
	case "Int":
		scalar = descriptorpb.FieldDescriptorProto_TYPE_INT32
	case "Long":
		scalar = descriptorpb.FieldDescriptorProto_TYPE_INT64
	case "Float":
		scalar = descriptorpb.FieldDescriptorProto_TYPE_FLOAT
	case "Double":
		scalar = descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
	case "Boolean":
		scalar = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	case "Bytes":
		scalar = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	case "Time":
		f.deps[timestampFile] = true
		field.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
		field.TypeName = proto.String(".google.protobuf.Timestamp")
		return
	case "Any":
		f.deps[structFile] = true
		field.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
		field.TypeName = proto.String(".google.protobuf.Value")
		return
	}
	// String and BigDecimal travel as strings
	field.Type = scalar.Enum()
}

// messageRef returns the fully-qualified reference to an entity message,
// importing its file when it lives elsewhere
func (b *build) messageRef(from *protoFile, e *model.Entity) string {
	target := b.fileName(e.Package, e.External)
	if target != from.fd.GetName() {
		from.deps[target] = true
	}
	return "." + e.Package + "." + e.SimpleName
}

func (b *build) addServices(x *model.Exchange) error {
	f := b.file(x.Package, false)
	f.origin = x.Name

	for _, api := range x.Apis {
		name := naming.Pascal(x.ID) + naming.Pascal(api.Name) + "Api"
		svc := &descriptorpb.ServiceDescriptorProto{Name: proto.String(name)}
		f.comments[name] = api.Description

		for _, ep := range api.Endpoints() {
			where := x.Name + "." + api.Name + "." + ep.Name

			if ep.Request != nil && ep.Request.Kind != model.KindEntity {
				return b.unsupportedRPC(where, "request", ep.Request)
			}

			streaming := ep.Kind == model.EndpointWebsocket
			response := ep.Response
			if response != nil && response.Kind == model.KindList && response.Elem.Kind == model.KindEntity {
				streaming = true
				response = response.Elem
			}
			if response != nil && response.Kind != model.KindEntity {
				return b.unsupportedRPC(where, "response", ep.Response)
			}

			method := naming.Pascal(ep.Name)
			if ep.Kind == model.EndpointWebsocket {
				method = "Subscribe" + method
			}
			svc.Method = append(svc.Method, &descriptorpb.MethodDescriptorProto{
				Name:            proto.String(method),
				InputType:       proto.String(b.rpcType(f, ep.Request)),
				OutputType:      proto.String(b.rpcType(f, response)),
				ServerStreaming: proto.Bool(streaming),
			})
			f.comments[name+"."+method] = ep.Description
		}
		f.fd.Service = append(f.fd.Service, svc)
	}
	return nil
}

// rpcType references an entity message, or google.protobuf.Empty when the
// endpoint declares no message
func (b *build) rpcType(f *protoFile, t *model.Type) string {
	if t == nil {
		f.deps[emptyFile] = true
		return ".google.protobuf.Empty"
	}
	return b.messageRef(f, t.Entity)
}

func (b *build) unsupported(e *model.Entity, p *model.Property, reason string) error {
	return &codegen.UnsupportedTypeError{
		Target: b.g.Language(),
		Entity: e.Name,
		Field:  p.Name,
		Type:   p.Type.String(),
		Reason: reason,
	}
}

func (b *build) unsupportedRPC(endpoint, slot string, t *model.Type) error {
	return &codegen.UnsupportedTypeError{
		Target: b.g.Language(),
		Entity: endpoint,
		Field:  slot,
		Type:   t.String(),
		Reason: "rpc messages must be entities or lists of entities",
	}
}

// mapEntryName follows protoc: the field name in CamelCase plus "Entry"
func mapEntryName(field string) string {
	var sb strings.Builder
	upperNext := true
	for _, c := range []byte(field) {
		switch {
		case c == '_':
			upperNext = true
		case upperNext && 'a' <= c && c <= 'z':
			sb.WriteByte(c - 'a' + 'A')
			upperNext = false
		default:
			sb.WriteByte(c)
			upperNext = false
		}
	}
	return sb.String() + "Entry"
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
