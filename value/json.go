package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// taggedForm is the wire shape `{type, value}` used by action value
// descriptors and scenario initial-value entries.
type taggedForm struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// DecodeTagged decodes the tagged `{type, value}` wire form into a Value.
func DecodeTagged(raw []byte) (Value, error) {
	var tf taggedForm
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&tf); err != nil {
		return nil, fmt.Errorf("value: decode tagged form: %w", err)
	}
	return decodeTyped(tf.Type, tf.Value)
}

func decodeTyped(typ string, raw json.RawMessage) (Value, error) {
	switch typ {
	case "null":
		return Null{}, nil
	case "string":
		var s string
		if err := unmarshalStrict(raw, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case "number":
		var n json.Number
		if err := unmarshalStrict(raw, &n); err != nil {
			return nil, err
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("value: decode number: %w", err)
		}
		return Number(f), nil
	case "integer":
		var n json.Number
		if err := unmarshalStrict(raw, &n); err != nil {
			return nil, err
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("value: decode integer: %w", err)
		}
		return Integer(i), nil
	case "bool":
		var b bool
		if err := unmarshalStrict(raw, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case "color":
		var s string
		if err := unmarshalStrict(raw, &s); err != nil {
			return nil, err
		}
		if !IsColorShape(s) {
			return nil, fmt.Errorf("value: %q is not a valid color", s)
		}
		return Color(s), nil
	case "url":
		var s string
		if err := unmarshalStrict(raw, &s); err != nil {
			return nil, err
		}
		return URL(s), nil
	case "array":
		var items []json.RawMessage
		if err := unmarshalStrict(raw, &items); err != nil {
			return nil, err
		}
		out := make(Array, len(items))
		for i, item := range items {
			v, err := DecodeBare(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case "object":
		var m map[string]json.RawMessage
		if err := unmarshalStrict(raw, &m); err != nil {
			return nil, err
		}
		out := make(Object, len(m))
		for k, item := range m {
			v, err := DecodeBare(item)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value: unknown tagged type %q", typ)
	}
}

func unmarshalStrict(raw json.RawMessage, x interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(x)
}

// DecodeBare decodes a bare JSON payload (the form used at rest in a
// backend and inside array/object elements) inferring the kind: a string
// matching the #RRGGBB(AA) shape becomes Color, a string parsing as a URL
// becomes URL, otherwise plain String. Numbers written without a fraction or
// exponent decode as Integer (or as Number if they overflow int64), all
// others as Number.
func DecodeBare(raw json.RawMessage) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return Null{}, nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := unmarshalStrict(raw, &s); err != nil {
			return nil, err
		}
		return inferStringKind(s), nil
	case '{':
		var m map[string]json.RawMessage
		if err := unmarshalStrict(raw, &m); err != nil {
			return nil, err
		}
		out := make(Object, len(m))
		for k, item := range m {
			v, err := DecodeBare(item)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	case '[':
		var items []json.RawMessage
		if err := unmarshalStrict(raw, &items); err != nil {
			return nil, err
		}
		out := make(Array, len(items))
		for i, item := range items {
			v, err := DecodeBare(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case 't', 'f':
		var b bool
		if err := unmarshalStrict(raw, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	default:
		var n json.Number
		if err := unmarshalStrict(raw, &n); err != nil {
			return nil, err
		}
		s := n.String()
		if strings.ContainsAny(s, ".eE") {
			f, err := n.Float64()
			if err != nil {
				return nil, err
			}
			return Number(f), nil
		}
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return nil, err
			}
			return Number(f), nil
		}
		return Integer(i), nil
	}
}

func inferStringKind(s string) Value {
	if IsColorShape(s) {
		return Color(s)
	}
	if IsURLShape(s) {
		return URL(s)
	}
	return String(s)
}

// EncodeTagged renders v in the tagged `{type, value}` wire form.
func EncodeTagged(v Value) ([]byte, error) {
	if v == nil {
		v = Null{}
	}
	inner, err := encodeInner(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}{Type: v.Kind().String(), Value: inner})
}

func encodeInner(v Value) (json.RawMessage, error) {
	switch t := v.(type) {
	case Null:
		return json.RawMessage("null"), nil
	case String:
		return marshalRaw(string(t))
	case Number:
		return marshalRaw(float64(t))
	case Integer:
		return marshalRaw(int64(t))
	case Bool:
		return marshalRaw(bool(t))
	case Color:
		return marshalRaw(string(t))
	case URL:
		return marshalRaw(string(t))
	case Array:
		items := make([]json.RawMessage, len(t))
		for i, el := range t {
			b, err := EncodeBare(el)
			if err != nil {
				return nil, err
			}
			items[i] = b
		}
		return json.Marshal(items)
	case Object:
		return encodeBareObject(t)
	default:
		return nil, errUnsupportedKind(v.Kind())
	}
}

func marshalRaw(x interface{}) (json.RawMessage, error) {
	b, err := json.Marshal(x)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

// EncodeBare renders v as bare JSON, the at-rest form used by storage
// backends. Encoding is deterministic: object keys are sorted. A whole-valued
// Number is written with a trailing ".0" so DecodeBare reads it back as a
// Number rather than an Integer.
func EncodeBare(v Value) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	switch t := v.(type) {
	case Null:
		return []byte("null"), nil
	case String:
		return json.Marshal(string(t))
	case Number:
		b, err := json.Marshal(float64(t))
		if err != nil {
			return nil, err
		}
		if !bytes.ContainsAny(b, ".eE") {
			b = append(b, ".0"...)
		}
		return b, nil
	case Integer:
		return json.Marshal(int64(t))
	case Bool:
		return json.Marshal(bool(t))
	case Color:
		return json.Marshal(string(t))
	case URL:
		return json.Marshal(string(t))
	case Array:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, el := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := EncodeBare(el)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case Object:
		b, err := encodeBareObject(t)
		return b, err
	default:
		return nil, errUnsupportedKind(v.Kind())
	}
}

func encodeBareObject(o Object) (json.RawMessage, error) {
	keys := SortedKeys(o)
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := EncodeBare(o[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
