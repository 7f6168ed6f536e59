package wire

import (
	"fmt"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
)

var typeNames = map[arrow.Type]string{
	arrow.NULL:              "NULL",
	arrow.BOOL:              "BOOL",
	arrow.INT8:              "INT8",
	arrow.INT16:             "INT16",
	arrow.INT32:             "INT32",
	arrow.INT64:             "INT64",
	arrow.UINT8:             "UINT8",
	arrow.UINT16:            "UINT16",
	arrow.UINT32:            "UINT32",
	arrow.UINT64:            "UINT64",
	arrow.FLOAT32:           "FLOAT32",
	arrow.FLOAT64:           "FLOAT64",
	arrow.STRING:            "UTF8",
	arrow.LARGE_STRING:      "LARGE_UTF8",
	arrow.BINARY:            "BINARY",
	arrow.LARGE_BINARY:      "LARGE_BINARY",
	arrow.FIXED_SIZE_BINARY: "FIXED_SIZE_BINARY",
	arrow.DATE32:            "DATE32",
	arrow.DATE64:            "DATE64",
	arrow.TIME32:            "TIME32",
	arrow.TIME64:            "TIME64",
	arrow.TIMESTAMP:         "TIMESTAMP",
	arrow.DURATION:          "DURATION",
	arrow.DECIMAL128:        "DECIMAL128",
	arrow.LIST:              "LIST",
	arrow.LARGE_LIST:        "LARGE_LIST",
	arrow.FIXED_SIZE_LIST:   "FIXED_SIZE_LIST",
	arrow.STRUCT:            "STRUCT",
	arrow.EXTENSION:         "EXTENSION",
}

var typeIDs = func() map[string]arrow.Type {
	m := make(map[string]arrow.Type, len(typeNames))
	for id, name := range typeNames {
		m[name] = id
	}
	return m
}()

var simpleTypes = map[arrow.Type]arrow.DataType{
	arrow.NULL:         arrow.Null,
	arrow.BOOL:         arrow.FixedWidthTypes.Boolean,
	arrow.INT8:         arrow.PrimitiveTypes.Int8,
	arrow.INT16:        arrow.PrimitiveTypes.Int16,
	arrow.INT32:        arrow.PrimitiveTypes.Int32,
	arrow.INT64:        arrow.PrimitiveTypes.Int64,
	arrow.UINT8:        arrow.PrimitiveTypes.Uint8,
	arrow.UINT16:       arrow.PrimitiveTypes.Uint16,
	arrow.UINT32:       arrow.PrimitiveTypes.Uint32,
	arrow.UINT64:       arrow.PrimitiveTypes.Uint64,
	arrow.FLOAT32:      arrow.PrimitiveTypes.Float32,
	arrow.FLOAT64:      arrow.PrimitiveTypes.Float64,
	arrow.STRING:       arrow.BinaryTypes.String,
	arrow.LARGE_STRING: arrow.BinaryTypes.LargeString,
	arrow.BINARY:       arrow.BinaryTypes.Binary,
	arrow.LARGE_BINARY: arrow.BinaryTypes.LargeBinary,
	arrow.DATE32:       arrow.FixedWidthTypes.Date32,
	arrow.DATE64:       arrow.FixedWidthTypes.Date64,
}

var timeUnits = map[arrow.TimeUnit]string{
	arrow.Second:      "s",
	arrow.Millisecond: "ms",
	arrow.Microsecond: "us",
	arrow.Nanosecond:  "ns",
}

func parseTimeUnit(s string) (arrow.TimeUnit, error) {
	for u, name := range timeUnits {
		if name == s {
			return u, nil
		}
	}
	return 0, malformed("invalid time unit %q", s)
}

// ToTypeNode converts an Arrow data type to its wire form.
func ToTypeNode(t arrow.DataType) (*ArrowTypeNode, error) {
	if t == nil {
		return nil, fmt.Errorf("data type is nil")
	}
	name, ok := typeNames[t.ID()]
	if !ok {
		return nil, fmt.Errorf("unsupported data type %s", t)
	}
	n := &ArrowTypeNode{ID: name}
	switch dt := t.(type) {
	case *arrow.FixedSizeBinaryType:
		n.ByteWidth = dt.ByteWidth
	case *arrow.Time32Type:
		n.Unit = timeUnits[dt.Unit]
	case *arrow.Time64Type:
		n.Unit = timeUnits[dt.Unit]
	case *arrow.TimestampType:
		n.Unit = timeUnits[dt.Unit]
		n.TimeZone = dt.TimeZone
	case *arrow.DurationType:
		n.Unit = timeUnits[dt.Unit]
	case *arrow.Decimal128Type:
		n.Precision = dt.Precision
		n.Scale = dt.Scale
	case *arrow.ListType:
		elem, err := ToFieldNode(dt.ElemField())
		if err != nil {
			return nil, err
		}
		n.Elem = elem
	case *arrow.LargeListType:
		elem, err := ToFieldNode(dt.ElemField())
		if err != nil {
			return nil, err
		}
		n.Elem = elem
	case *arrow.FixedSizeListType:
		elem, err := ToFieldNode(dt.ElemField())
		if err != nil {
			return nil, err
		}
		n.Elem = elem
		n.ListSize = dt.Len()
	case *arrow.StructType:
		fields, err := toFieldNodes(dt.Fields())
		if err != nil {
			return nil, err
		}
		n.Fields = fields
	case arrow.ExtensionType:
		storage, err := ToTypeNode(dt.StorageType())
		if err != nil {
			return nil, fmt.Errorf("extension %s: %w", dt.ExtensionName(), err)
		}
		n.Extension = &ExtensionTypeNode{
			Name:     dt.ExtensionName(),
			Storage:  storage,
			Metadata: dt.Serialize(),
		}
	}
	return n, nil
}

// FromTypeNode converts a wire type back to an Arrow data type.
// Extension types must be registered with arrow.RegisterExtensionType.
func FromTypeNode(n *ArrowTypeNode) (arrow.DataType, error) {
	if n == nil {
		return nil, malformed("missing data type")
	}
	id, ok := typeIDs[n.ID]
	if !ok {
		return nil, malformed("unknown data type %q", n.ID)
	}
	if t, ok := simpleTypes[id]; ok {
		return t, nil
	}

	switch id {
	case arrow.FIXED_SIZE_BINARY:
		if n.ByteWidth <= 0 {
			return nil, malformed("invalid fixed size binary width %d", n.ByteWidth)
		}
		return &arrow.FixedSizeBinaryType{ByteWidth: n.ByteWidth}, nil
	case arrow.TIME32:
		unit, err := parseTimeUnit(n.Unit)
		if err != nil {
			return nil, err
		}
		if unit != arrow.Second && unit != arrow.Millisecond {
			return nil, malformed("invalid time32 unit %q", n.Unit)
		}
		return &arrow.Time32Type{Unit: unit}, nil
	case arrow.TIME64:
		unit, err := parseTimeUnit(n.Unit)
		if err != nil {
			return nil, err
		}
		if unit != arrow.Microsecond && unit != arrow.Nanosecond {
			return nil, malformed("invalid time64 unit %q", n.Unit)
		}
		return &arrow.Time64Type{Unit: unit}, nil
	case arrow.TIMESTAMP:
		unit, err := parseTimeUnit(n.Unit)
		if err != nil {
			return nil, err
		}
		return &arrow.TimestampType{Unit: unit, TimeZone: n.TimeZone}, nil
	case arrow.DURATION:
		unit, err := parseTimeUnit(n.Unit)
		if err != nil {
			return nil, err
		}
		return &arrow.DurationType{Unit: unit}, nil
	case arrow.DECIMAL128:
		if n.Precision < 1 || n.Precision > 38 || n.Scale > n.Precision {
			return nil, malformed("invalid decimal128 precision %d scale %d", n.Precision, n.Scale)
		}
		return &arrow.Decimal128Type{Precision: n.Precision, Scale: n.Scale}, nil
	case arrow.LIST, arrow.LARGE_LIST, arrow.FIXED_SIZE_LIST:
		elem, err := FromFieldNode(n.Elem)
		if err != nil {
			return nil, err
		}
		switch id {
		case arrow.LIST:
			return arrow.ListOfField(elem), nil
		case arrow.LARGE_LIST:
			return arrow.LargeListOfField(elem), nil
		}
		if n.ListSize <= 0 {
			return nil, malformed("invalid fixed size list length %d", n.ListSize)
		}
		return arrow.FixedSizeListOfField(n.ListSize, elem), nil
	case arrow.STRUCT:
		fields, err := fromFieldNodes(n.Fields)
		if err != nil {
			return nil, err
		}
		return arrow.StructOf(fields...), nil
	case arrow.EXTENSION:
		return fromExtensionTypeNode(n.Extension)
	}
	return nil, malformed("unknown data type %q", n.ID)
}

func fromExtensionTypeNode(n *ExtensionTypeNode) (arrow.DataType, error) {
	if n == nil {
		return nil, malformed("extension type without description")
	}
	storage, err := FromTypeNode(n.Storage)
	if err != nil {
		return nil, err
	}
	ext := arrow.GetExtensionType(n.Name)
	if ext == nil {
		return nil, fmt.Errorf("%w: extension type %q is not registered", ErrUnsupportedExtension, n.Name)
	}
	t, err := ext.Deserialize(storage, n.Metadata)
	if err != nil {
		return nil, malformed("extension type %q: %v", n.Name, err)
	}
	return t, nil
}

// ToFieldNode converts an Arrow field to its wire form.
func ToFieldNode(f arrow.Field) (*FieldNode, error) {
	t, err := ToTypeNode(f.Type)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", f.Name, err)
	}
	return &FieldNode{
		Name:     f.Name,
		Type:     t,
		Nullable: f.Nullable,
		Metadata: toKeyValues(f.Metadata),
	}, nil
}

// FromFieldNode converts a wire field back to an Arrow field.
func FromFieldNode(n *FieldNode) (arrow.Field, error) {
	if n == nil {
		return arrow.Field{}, malformed("missing field")
	}
	t, err := FromTypeNode(n.Type)
	if err != nil {
		return arrow.Field{}, err
	}
	md, err := fromKeyValues(n.Metadata)
	if err != nil {
		return arrow.Field{}, err
	}
	return arrow.Field{Name: n.Name, Type: t, Nullable: n.Nullable, Metadata: md}, nil
}

func toFieldNodes(fields []arrow.Field) ([]*FieldNode, error) {
	out := make([]*FieldNode, len(fields))
	for i, f := range fields {
		n, err := ToFieldNode(f)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func fromFieldNodes(nodes []*FieldNode) ([]arrow.Field, error) {
	out := make([]arrow.Field, len(nodes))
	for i, n := range nodes {
		f, err := FromFieldNode(n)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// ToSchemaNode converts an Arrow schema to its wire form. A nil or empty
// schema encodes as nil.
func ToSchemaNode(s *arrow.Schema) (*SchemaNode, error) {
	if s == nil || (s.NumFields() == 0 && s.Metadata().Len() == 0) {
		return nil, nil
	}
	fields, err := toFieldNodes(s.Fields())
	if err != nil {
		return nil, err
	}
	return &SchemaNode{Fields: fields, Metadata: toKeyValues(s.Metadata())}, nil
}

// FromSchemaNode converts a wire schema back to an Arrow schema. A nil node
// decodes as an empty schema.
func FromSchemaNode(n *SchemaNode) (*arrow.Schema, error) {
	if n == nil {
		return arrow.NewSchema(nil, nil), nil
	}
	fields, err := fromFieldNodes(n.Fields)
	if err != nil {
		return nil, err
	}
	md, err := fromKeyValues(n.Metadata)
	if err != nil {
		return nil, err
	}
	if md.Len() == 0 {
		return arrow.NewSchema(fields, nil), nil
	}
	return arrow.NewSchema(fields, &md), nil
}

func toKeyValues(md arrow.Metadata) []KeyValue {
	if md.Len() == 0 {
		return nil
	}
	keys, values := md.Keys(), md.Values()
	kvs := make([]KeyValue, len(keys))
	for i := range keys {
		kvs[i] = KeyValue{Key: keys[i], Value: values[i]}
	}
	sort.Slice(kvs, func(i, j int) bool { return kvs[i].Key < kvs[j].Key })
	return kvs
}

func fromKeyValues(kvs []KeyValue) (arrow.Metadata, error) {
	if len(kvs) == 0 {
		return arrow.Metadata{}, nil
	}
	keys := make([]string, len(kvs))
	values := make([]string, len(kvs))
	seen := make(map[string]struct{}, len(kvs))
	for i, kv := range kvs {
		if _, dup := seen[kv.Key]; dup {
			return arrow.Metadata{}, malformed("duplicate metadata key %q", kv.Key)
		}
		seen[kv.Key] = struct{}{}
		keys[i], values[i] = kv.Key, kv.Value
	}
	return arrow.NewMetadata(keys, values), nil
}
