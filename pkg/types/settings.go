package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Well-known recipe setting keys. Modules may stash any other key; unknown
// keys round-trip untouched.
const (
	SettingFullPrompt        = "full_prompt"
	SettingPromptHash        = "prompt_hash"
	SettingPromptOptions     = "prompt_options"
	SettingPromptGuardrails  = "prompt_guardrails"
	SettingExtraInstructions = "extra_instructions"
)

// ValueKind tags the content of a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindStrings
	KindRaw
)

// Value is one entry of a recipe's open settings bag. Strings, numbers,
// booleans and string lists are typed; any other JSON (objects, mixed
// arrays) is kept as raw bytes so it survives a load/save cycle.
type Value struct {
	kind ValueKind
	str  string
	num  json.Number
	b    bool
	strs []string
	raw  json.RawMessage
}

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue returns a numeric Value.
func NumberValue(f float64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatFloat(f, 'f', -1, 64))}
}

// IntValue returns an integral numeric Value.
func IntValue(n int64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatInt(n, 10))}
}

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// StringsValue returns a string-list Value. The slice is copied.
func StringsValue(ss []string) Value {
	cp := make([]string, len(ss))
	copy(cp, ss)
	return Value{kind: KindStrings, strs: cp}
}

// RawValue wraps arbitrary JSON. Invalid JSON is stored as null.
func RawValue(raw json.RawMessage) Value {
	if !json.Valid(raw) {
		return Value{}
	}
	cp := make(json.RawMessage, len(raw))
	copy(cp, raw)
	return Value{kind: KindRaw, raw: cp}
}

// Kind reports which variant the Value holds.
func (v Value) Kind() ValueKind { return v.kind }

// AsString returns the string content if the Value is a string.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsNumber returns the numeric content if the Value is a number.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	return f, err == nil
}

// AsBool returns the boolean content if the Value is a boolean.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsStrings returns a copy of the list content if the Value is a string list.
func (v Value) AsStrings() ([]string, bool) {
	if v.kind != KindStrings {
		return nil, false
	}
	cp := make([]string, len(v.strs))
	copy(cp, v.strs)
	return cp, true
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return []byte(v.num), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindStrings:
		if v.strs == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.strs)
	case KindRaw:
		return v.raw, nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("decoding setting value: empty input")
	}
	switch trimmed[0] {
	case 'n':
		*v = Value{}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decoding setting string: %w", err)
		}
		*v = StringValue(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return fmt.Errorf("decoding setting bool: %w", err)
		}
		*v = BoolValue(b)
		return nil
	case '[':
		if ss, ok := decodeStrings(trimmed); ok {
			*v = StringsValue(ss)
			return nil
		}
	case '{':
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("decoding setting number: %w", err)
		}
		*v = Value{kind: KindNumber, num: n}
		return nil
	}
	if !json.Valid(trimmed) {
		return fmt.Errorf("decoding setting value: invalid JSON")
	}
	*v = RawValue(trimmed)
	return nil
}

// decodeStrings decodes a JSON array whose elements are all strings.
// Arrays holding null or any other element type are rejected so they keep
// their exact encoding.
func decodeStrings(data []byte) ([]string, bool) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, false
	}
	ss := make([]string, len(elems))
	for i, elem := range elems {
		if len(elem) == 0 || elem[0] != '"' {
			return nil, false
		}
		if err := json.Unmarshal(elem, &ss[i]); err != nil {
			return nil, false
		}
	}
	return ss, true
}

// Settings is the open key/value bag attached to a recipe.
type Settings map[string]Value

// Clone returns a shallow copy. Values are immutable, so the copy is
// independent of the original.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge returns a copy of s with every key of patch written over it.
func (s Settings) Merge(patch Settings) Settings {
	out := s.Clone()
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// String returns the string stored under key, or "" if absent or not a string.
func (s Settings) String(key string) string {
	str, _ := s[key].AsString()
	return str
}

// Strings returns the list stored under key, or nil.
func (s Settings) Strings(key string) []string {
	ss, _ := s[key].AsStrings()
	return ss
}
