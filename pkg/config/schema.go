// The config file schema is a protobuf message whose fields mirror the command line flags: each field is named
// after the flag it sets. The schema is assembled at start-up from a descriptor, so adding a flag only needs a
// matching entry in configFields.

package config

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// configField declares one flag-backed field of the Config message.
type configField struct {
	flagName  string
	fieldType descriptorpb.FieldDescriptorProto_Type
}

// configFields lists every flag that can be set from the config file. Field numbers follow the order here, so
// new entries must be appended.
var configFields = []configField{
	{flagName: "log_handler_type", fieldType: descriptorpb.FieldDescriptorProto_TYPE_STRING},
	{flagName: "log_level", fieldType: descriptorpb.FieldDescriptorProto_TYPE_STRING},
	{flagName: "log_add_source", fieldType: descriptorpb.FieldDescriptorProto_TYPE_BOOL},
	{flagName: "address", fieldType: descriptorpb.FieldDescriptorProto_TYPE_STRING},
	{flagName: "metrics_address", fieldType: descriptorpb.FieldDescriptorProto_TYPE_STRING},
	{flagName: "keyspace_shard_count", fieldType: descriptorpb.FieldDescriptorProto_TYPE_INT32},
}

// skippedProtobufFlags is the list of command line flags on which the protobuf check is disabled.
var skippedProtobufFlags = []string{"print_version", "config_file"}

// buildConfigDescriptor assembles the Config message descriptor from `fields`.
func buildConfigDescriptor(fields []configField) (protoreflect.MessageDescriptor, error) {
	message := &descriptorpb.DescriptorProto{Name: proto.String("Config")}
	for i, field := range fields {
		message.Field = append(message.Field, &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(field.flagName),
			Number: proto.Int32(int32(i + 1)),
			Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:   field.fieldType.Enum(),
		})
	}
	file, err := protodesc.NewFile(&descriptorpb.FileDescriptorProto{
		Name:        proto.String("circle/config.proto"),
		Package:     proto.String("circle"),
		Syntax:      proto.String("proto2"), // Explicit presence; only fields written in the file are applied.
		MessageType: []*descriptorpb.DescriptorProto{message},
	}, new(protoregistry.Files))
	if err != nil {
		return nil, fmt.Errorf("invalid config schema: %w", err)
	}
	return file.Messages().ByName("Config"), nil
}

// protobufValueToString converts a protobuf field value to its string representation suitable for flag setting.
func protobufValueToString(fd protoreflect.FieldDescriptor, v protoreflect.Value) (string, error) {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return strconv.FormatBool(v.Bool()), nil
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return strconv.FormatInt(v.Int(), 10), nil
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return strconv.FormatUint(v.Uint(), 10), nil
	case protoreflect.FloatKind:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), nil
	case protoreflect.DoubleKind:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), nil
	case protoreflect.StringKind:
		return v.String(), nil
	case protoreflect.BytesKind:
		return base64.StdEncoding.EncodeToString(v.Bytes()), nil
	default:
		return "", fmt.Errorf("unsupported kind: %v", fd.Kind())
	}
}

// collectFlags returns the flag values set in the given config message, keyed by flag name.
func collectFlags(m protoreflect.Message) (map[ /*flagName*/ string] /*flagValue*/ string, error) {
	flags := make(map[string]string)
	var err error
	m.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		stringValue, convErr := protobufValueToString(fd, v)
		if convErr != nil {
			err = fmt.Errorf("failed to convert %s: %w", fd.FullName(), convErr)
			return false
		}
		flags[string(fd.Name())] = stringValue
		return true
	})
	return flags, err
}

// getDefinedFlags returns the set of flag names declared by the given config message schema.
func getDefinedFlags(md protoreflect.MessageDescriptor) map[ /*flagName*/ string]struct{} {
	flagSet := make(map[string]struct{}, md.Fields().Len())
	for fieldIdx := range md.Fields().Len() {
		flagSet[string(md.Fields().Get(fieldIdx).Name())] = struct{}{}
	}
	return flagSet
}
