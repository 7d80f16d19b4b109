package protobuf

import (
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/jxapi/jxgen/internal/codegen/writer"
)

var scalarNames = map[descriptorpb.FieldDescriptorProto_Type]string{
	descriptorpb.FieldDescriptorProto_TYPE_STRING: "string",
	descriptorpb.FieldDescriptorProto_TYPE_INT32:  "int32",
	descriptorpb.FieldDescriptorProto_TYPE_INT64:  "int64",
	descriptorpb.FieldDescriptorProto_TYPE_FLOAT:  "float",
	descriptorpb.FieldDescriptorProto_TYPE_DOUBLE: "double",
	descriptorpb.FieldDescriptorProto_TYPE_BOOL:   "bool",
	descriptorpb.FieldDescriptorProto_TYPE_BYTES:  "bytes",
}

// render prints a validated file descriptor as proto3 source
func render(f *protoFile) []byte {
	fd := f.fd
	pkg := fd.GetPackage()

	w := writer.New("  ")
	w.Line("// Code generated by jxgen. DO NOT EDIT.")
	w.BlankLine()
	w.Linef("syntax = %q;", fd.GetSyntax())
	w.BlankLine()
	w.Linef("package %s;", pkg)
	w.BlankLine()

	if len(fd.Dependency) > 0 {
		for _, dep := range fd.Dependency {
			w.Linef("import %q;", dep)
		}
		w.BlankLine()
	}

	w.Line("option java_multiple_files = true;")
	w.Linef("option java_package = %s;", strconv.Quote(fd.GetOptions().GetJavaPackage()))

	for _, msg := range fd.MessageType {
		w.BlankLine()
		w.LineComment("//", f.comments[msg.GetName()])
		w.Block(fmt.Sprintf("message %s {", msg.GetName()), "}", func() {
			for _, field := range msg.Field {
				w.LineComment("//", f.comments[msg.GetName()+"."+field.GetName()])
				w.Linef("%s %s = %d;", fieldType(pkg, msg, field), field.GetName(), field.GetNumber())
			}
		})
	}

	for _, svc := range fd.Service {
		w.BlankLine()
		w.LineComment("//", f.comments[svc.GetName()])
		w.Block(fmt.Sprintf("service %s {", svc.GetName()), "}", func() {
			for _, m := range svc.Method {
				w.LineComment("//", f.comments[svc.GetName()+"."+m.GetName()])
				output := typeRef(pkg, m.GetOutputType())
				if m.GetServerStreaming() {
					output = "stream " + output
				}
				w.Linef("rpc %s(%s) returns (%s);", m.GetName(), typeRef(pkg, m.GetInputType()), output)
			}
		})
	}

	return w.Bytes()
}

// fieldType renders the type part of a field declaration, including the
// repeated label and map syntax
func fieldType(pkg string, msg *descriptorpb.DescriptorProto, field *descriptorpb.FieldDescriptorProto) string {
	if entry := mapEntry(msg, field); entry != nil {
		return "map<string, " + singularType(pkg, entry.Field[1]) + ">"
	}
	if field.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_REPEATED {
		return "repeated " + singularType(pkg, field)
	}
	return singularType(pkg, field)
}

func mapEntry(msg *descriptorpb.DescriptorProto, field *descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	if field.GetType() != descriptorpb.FieldDescriptorProto_TYPE_MESSAGE {
		return nil
	}
	for _, nested := range msg.NestedType {
		if nested.GetOptions().GetMapEntry() && strings.HasSuffix(field.GetTypeName(), "."+msg.GetName()+"."+nested.GetName()) {
			return nested
		}
	}
	return nil
}

func singularType(pkg string, field *descriptorpb.FieldDescriptorProto) string {
	if field.GetType() == descriptorpb.FieldDescriptorProto_TYPE_MESSAGE {
		return typeRef(pkg, field.GetTypeName())
	}
	return scalarNames[field.GetType()]
}

// typeRef shortens a fully-qualified message name: same-package messages
// by simple name, well-known types without the leading dot
func typeRef(pkg, name string) string {
	rest := strings.TrimPrefix(name, "."+pkg+".")
	if rest != name && !strings.Contains(rest, ".") {
		return rest
	}
	if strings.HasPrefix(name, ".google.protobuf.") {
		return strings.TrimPrefix(name, ".")
	}
	return name
}
