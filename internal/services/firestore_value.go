package services

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Value is a Firestore typed value. Exactly one of the variant types below
// implements it; a type switch over them is exhaustive.
type Value interface {
	isValue()
}

type (
	NullValue      struct{}
	StringValue    string
	IntegerValue   string // int64 in decimal, as the REST API encodes it
	DoubleValue    float64
	BooleanValue   bool
	TimestampValue string // RFC 3339
	ArrayValue     []Value
	MapValue       map[string]Value
)

func (NullValue) isValue()      {}
func (StringValue) isValue()    {}
func (IntegerValue) isValue()   {}
func (DoubleValue) isValue()    {}
func (BooleanValue) isValue()   {}
func (TimestampValue) isValue() {}
func (ArrayValue) isValue()     {}
func (MapValue) isValue()       {}

const (
	vectorTypeKey   = "__type__"
	vectorTypeValue = "__vector__"
	vectorValueKey  = "value"
)

// wireValue is the JSON envelope of a single value. Kinds this service does
// not model (geoPointValue, referenceValue, bytesValue) leave every field
// nil and decode to NullValue.
type wireValue struct {
	StringValue    *string          `json:"stringValue,omitempty"`
	IntegerValue   *json.RawMessage `json:"integerValue,omitempty"`
	DoubleValue    *json.RawMessage `json:"doubleValue,omitempty"`
	BooleanValue   *bool            `json:"booleanValue,omitempty"`
	TimestampValue *string          `json:"timestampValue,omitempty"`
	ArrayValue     *wireArray       `json:"arrayValue,omitempty"`
	MapValue       *wireMap         `json:"mapValue,omitempty"`
}

// Nested values stay raw so a malformed element only nulls itself.
type wireArray struct {
	Values []json.RawMessage `json:"values"`
}

type wireMap struct {
	Fields map[string]json.RawMessage `json:"fields"`
}

// decodeRaw decodes one value envelope. Shapes that do not match the
// envelope decode to NullValue.
func decodeRaw(raw json.RawMessage) Value {
	var w wireValue
	if err := json.Unmarshal(raw, &w); err != nil {
		return NullValue{}
	}
	return w.decode()
}

func (w wireValue) decode() Value {
	switch {
	case w.StringValue != nil:
		return StringValue(*w.StringValue)
	case w.IntegerValue != nil:
		return IntegerValue(unquote(*w.IntegerValue))
	case w.DoubleValue != nil:
		return decodeDouble(*w.DoubleValue)
	case w.BooleanValue != nil:
		return BooleanValue(*w.BooleanValue)
	case w.TimestampValue != nil:
		return TimestampValue(*w.TimestampValue)
	case w.ArrayValue != nil:
		out := make(ArrayValue, 0, len(w.ArrayValue.Values))
		for _, item := range w.ArrayValue.Values {
			out = append(out, decodeRaw(item))
		}
		return out
	case w.MapValue != nil:
		return decodeFields(w.MapValue.Fields)
	default:
		return NullValue{}
	}
}

func decodeFields(fields map[string]json.RawMessage) MapValue {
	out := make(MapValue, len(fields))
	for k, raw := range fields {
		out[k] = decodeRaw(raw)
	}
	return out
}

func unquote(raw json.RawMessage) string {
	return strings.Trim(strings.TrimSpace(string(raw)), `"`)
}

// decodeDouble accepts a JSON number or the "NaN"/"Infinity"/"-Infinity"
// strings. Anything else is NullValue.
func decodeDouble(raw json.RawMessage) Value {
	s := unquote(raw)
	switch s {
	case "NaN":
		return DoubleValue(math.NaN())
	case "Infinity":
		return DoubleValue(math.Inf(1))
	case "-Infinity":
		return DoubleValue(math.Inf(-1))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NullValue{}
	}
	return DoubleValue(f)
}

// Unwrap converts a typed value into plain Go data: string, int64, float64,
// bool, []interface{}, map[string]interface{} or nil.
func Unwrap(v Value) interface{} {
	switch val := v.(type) {
	case StringValue:
		return string(val)
	case IntegerValue:
		n, err := strconv.ParseInt(string(val), 10, 64)
		if err != nil {
			return nil
		}
		return n
	case DoubleValue:
		return float64(val)
	case BooleanValue:
		return bool(val)
	case TimestampValue:
		return string(val)
	case ArrayValue:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = Unwrap(item)
		}
		return out
	case MapValue:
		return UnwrapFields(val)
	default:
		return nil
	}
}

func UnwrapFields(fields MapValue) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = Unwrap(v)
	}
	return out
}

// ValueOf is the inverse of Unwrap for the types that can appear in a
// filter or a write. Unsupported types become NullValue.
func ValueOf(x interface{}) Value {
	switch v := x.(type) {
	case nil:
		return NullValue{}
	case Value:
		return v
	case string:
		return StringValue(v)
	case bool:
		return BooleanValue(v)
	case int:
		return IntegerValue(strconv.FormatInt(int64(v), 10))
	case int64:
		return IntegerValue(strconv.FormatInt(v, 10))
	case float32:
		return ValueOf(float64(v))
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return IntegerValue(strconv.FormatInt(int64(v), 10))
		}
		return DoubleValue(v)
	case []float32:
		return VectorValue(v)
	case []interface{}:
		out := make(ArrayValue, len(v))
		for i, item := range v {
			out[i] = ValueOf(item)
		}
		return out
	case map[string]interface{}:
		out := make(MapValue, len(v))
		for k, item := range v {
			out[k] = ValueOf(item)
		}
		return out
	default:
		return NullValue{}
	}
}

// VectorValue builds the map Firestore uses to store a vector embedding.
func VectorValue(vector []float32) Value {
	values := make(ArrayValue, len(vector))
	for i, x := range vector {
		values[i] = DoubleValue(x)
	}
	return MapValue{
		vectorTypeKey:  StringValue(vectorTypeValue),
		vectorValueKey: values,
	}
}

// encodeValue renders v in the REST JSON envelope.
func encodeValue(v Value) map[string]interface{} {
	switch val := v.(type) {
	case StringValue:
		return map[string]interface{}{"stringValue": string(val)}
	case IntegerValue:
		return map[string]interface{}{"integerValue": string(val)}
	case DoubleValue:
		f := float64(val)
		switch {
		case math.IsNaN(f):
			return map[string]interface{}{"doubleValue": "NaN"}
		case math.IsInf(f, 1):
			return map[string]interface{}{"doubleValue": "Infinity"}
		case math.IsInf(f, -1):
			return map[string]interface{}{"doubleValue": "-Infinity"}
		}
		return map[string]interface{}{"doubleValue": f}
	case BooleanValue:
		return map[string]interface{}{"booleanValue": bool(val)}
	case TimestampValue:
		return map[string]interface{}{"timestampValue": string(val)}
	case ArrayValue:
		values := make([]interface{}, len(val))
		for i, item := range val {
			values[i] = encodeValue(item)
		}
		return map[string]interface{}{"arrayValue": map[string]interface{}{"values": values}}
	case MapValue:
		return map[string]interface{}{"mapValue": map[string]interface{}{"fields": encodeFields(val)}}
	default:
		return map[string]interface{}{"nullValue": nil}
	}
}

func encodeFields(fields MapValue) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = encodeValue(v)
	}
	return out
}

// DecodeDocumentFields decodes the "fields" object of a REST document. Each
// field is decoded on its own; a malformed field becomes NullValue. Only a
// "fields" payload that is not a JSON object is an error.
func DecodeDocumentFields(raw json.RawMessage) (MapValue, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return decodeFields(fields), nil
}
