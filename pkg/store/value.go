package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind tags the runtime type of a setting value. The kind of a key is
// fixed when the chat state is created and never changes afterwards.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindInt
	KindFloat
	KindString
)

func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "null"
	}
}

// SettingValue is a tagged union over the value types a chat setting may
// hold: integer, float, string, or null.
type SettingValue struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
}

func IntValue(v int64) SettingValue     { return SettingValue{kind: KindInt, i: v} }
func FloatValue(v float64) SettingValue { return SettingValue{kind: KindFloat, f: v} }
func StringValue(v string) SettingValue { return SettingValue{kind: KindString, s: v} }
func NullValue() SettingValue           { return SettingValue{kind: KindNull} }

func (v SettingValue) Kind() ValueKind { return v.kind }
func (v SettingValue) IsNull() bool    { return v.kind == KindNull }

// Int returns the integer payload; zero for other kinds.
func (v SettingValue) Int() int64 { return v.i }

// Float returns the float payload. Integer values are widened so numeric
// settings can be read uniformly.
func (v SettingValue) Float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Str returns the string payload; empty for other kinds.
func (v SettingValue) Str() string { return v.s }

// Equal reports whether two values hold the same kind and payload.
func (v SettingValue) Equal(other SettingValue) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	default:
		return true
	}
}

// String renders the value the way the settings listing shows it.
func (v SettingValue) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	default:
		return "null"
	}
}

// SettingCoercionError indicates that a textual value could not be parsed
// into the existing kind of a setting key.
type SettingCoercionError struct {
	Key   string
	Value string
	Kind  ValueKind
}

func (e *SettingCoercionError) Error() string {
	return fmt.Sprintf("setting %q: cannot coerce %q to %s", e.Key, e.Value, e.Kind)
}

// Coerce parses text into a value of the same kind as v. The kind never
// changes across updates: a key that holds a number can never become a
// string. Null values accept nothing, since there is no type to parse into.
func (v SettingValue) Coerce(key, text string) (SettingValue, error) {
	switch v.kind {
	case KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return SettingValue{}, &SettingCoercionError{Key: key, Value: text, Kind: v.kind}
		}
		return IntValue(n), nil
	case KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return SettingValue{}, &SettingCoercionError{Key: key, Value: text, Kind: v.kind}
		}
		return FloatValue(f), nil
	case KindString:
		return StringValue(text), nil
	default:
		return SettingValue{}, &SettingCoercionError{Key: key, Value: text, Kind: v.kind}
	}
}

// MarshalJSON writes the value as its native JSON type so the persisted
// state file stays plain JSON.
func (v SettingValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON recovers the kind from the JSON token: integral numbers
// load as ints, other numbers as floats.
func (v *SettingValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = NullValue()
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	}
	if !strings.ContainsAny(trimmed, ".eE") {
		var n int64
		if err := json.Unmarshal(data, &n); err == nil {
			*v = IntValue(n)
			return nil
		}
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("setting value %s: %w", trimmed, err)
	}
	*v = FloatValue(f)
	return nil
}
