package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// ValueKind tags the variant held by a Value
type ValueKind int

const (
	LeafKind ValueKind = iota
	ListKind
	RecordKind
)

// Value is an evaluation payload of arbitrary shape: a string leaf, a list of
// values or a record of named values.
type Value struct {
	Kind   ValueKind
	Str    string
	Items  []Value
	Fields map[string]Value
}

// Leaf builds a string value
func Leaf(s string) Value {
	return Value{Kind: LeafKind, Str: s}
}

// List builds a list value
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Kind: ListKind, Items: items}
}

// Record builds a record value
func Record(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{Kind: RecordKind, Fields: fields}
}

// Get returns the field with the given key when v is a record
func (v Value) Get(key string) (Value, bool) {
	if v.Kind != RecordKind {
		return Value{}, false
	}
	f, ok := v.Fields[key]
	return f, ok
}

// Keys returns the record keys in sorted order
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String flattens a value into readable text
func (v Value) String() string {
	switch v.Kind {
	case ListKind:
		var buf bytes.Buffer
		for i, item := range v.Items {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(item.String())
		}
		return buf.String()
	case RecordKind:
		var buf bytes.Buffer
		for i, k := range v.Keys() {
			if i > 0 {
				buf.WriteString("; ")
			}
			fmt.Fprintf(&buf, "%s: %s", k, v.Fields[k].String())
		}
		return buf.String()
	default:
		return v.Str
	}
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ListKind:
		items := v.Items
		if items == nil {
			items = []Value{}
		}
		return json.Marshal(items)
	case RecordKind:
		fields := v.Fields
		if fields == nil {
			fields = map[string]Value{}
		}
		return json.Marshal(fields)
	default:
		return json.Marshal(v.Str)
	}
}

// UnmarshalJSON implements json.Unmarshaler. Numbers and booleans keep their
// literal text as a leaf, nested nulls become empty leaves.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode value: %w", err)
	}
	*v = fromInterface(raw)
	return nil
}

// ParseValue decodes a JSON document into a Value. A top-level null yields nil.
func ParseValue(data []byte) (*Value, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var v Value
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func fromInterface(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Leaf("")
	case string:
		return Leaf(t)
	case json.Number:
		return Leaf(t.String())
	case bool:
		if t {
			return Leaf("true")
		}
		return Leaf("false")
	case []interface{}:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			items = append(items, fromInterface(item))
		}
		return List(items...)
	case map[string]interface{}:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			fields[k] = fromInterface(item)
		}
		return Record(fields)
	default:
		return Leaf(fmt.Sprint(t))
	}
}
