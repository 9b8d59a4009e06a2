package domain

import "encoding/json"

// ValueKind tags the runtime type of a payload field
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueString
	ValueNumber
	ValueBool
	// ValueJSON covers nested objects and arrays. They are passed through as
	// raw JSON and left to the target table's own constraints to accept or
	// reject.
	ValueJSON
)

// FieldValue is a typed intermediate representation of one payload field,
// so the store receives tagged values instead of raw dynamic ones.
type FieldValue struct {
	Kind  ValueKind
	Value interface{}
}

// NewFieldValue classifies a value decoded by encoding/json
func NewFieldValue(v interface{}) FieldValue {
	switch val := v.(type) {
	case nil:
		return FieldValue{Kind: ValueNull, Value: nil}
	case string:
		return FieldValue{Kind: ValueString, Value: val}
	case float64:
		return FieldValue{Kind: ValueNumber, Value: val}
	case bool:
		return FieldValue{Kind: ValueBool, Value: val}
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return FieldValue{Kind: ValueNull, Value: nil}
		}
		return FieldValue{Kind: ValueJSON, Value: json.RawMessage(raw)}
	}
}

// Row is a filtered payload keyed by field name
type Row map[string]FieldValue

// Values flattens the row into the shape the store writes
func (r Row) Values() map[string]interface{} {
	values := make(map[string]interface{}, len(r))
	for name, fv := range r {
		values[name] = fv.Value
	}
	return values
}
