package recipe

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// The decoders below accept the loosely typed JSON found in structured data
// and model output. None of them ever return an error: a shape they do not
// understand decodes to the zero value.

// Text resolves a field that may be a scalar, a list or an object to a single
// string: one level of list is unwrapped (first element), then one level of
// object via its name, text or @value key.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text(ResolveText(data))
	return nil
}

func (t Text) String() string { return string(t) }

// ResolveText applies the Text resolution rules to raw JSON.
func ResolveText(data []byte) string {
	return resolveText(data, 0)
}

func resolveText(data []byte, depth int) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '[':
		if depth > 0 {
			return ""
		}
		var items []jsoniter.RawMessage
		if err := json.Unmarshal(data, &items); err != nil || len(items) == 0 {
			return ""
		}
		return resolveText(items[0], depth+1)
	case '{':
		if depth > 1 {
			return ""
		}
		var obj map[string]jsoniter.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return ""
		}
		for _, key := range []string{"name", "text", "@value"} {
			if raw, ok := obj[key]; ok {
				return resolveText(raw, 2)
			}
		}
		return ""
	case 'n', 't', 'f':
		return ""
	default:
		return string(data)
	}
}

// TextList decodes a string or a list of scalars/objects into non-empty strings.
type TextList []string

func (l *TextList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*l = nil
	if len(data) == 0 {
		return nil
	}
	if data[0] != '[' {
		if s := resolveText(data, 1); s != "" {
			*l = TextList{s}
		}
		return nil
	}
	var items []jsoniter.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	for _, it := range items {
		if s := resolveText(it, 1); s != "" {
			*l = append(*l, s)
		}
	}
	return nil
}

var leadingNumber = regexp.MustCompile(`\d+`)

// Minutes decodes a number, a numeric string ("15", "15 minutes") or an ISO
// duration into whole minutes.
type Minutes int

func (m *Minutes) UnmarshalJSON(data []byte) error {
	*m = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "PT") {
			*m = Minutes(ParseISODuration(s))
			return nil
		}
		if n, err := strconv.Atoi(leadingNumber.FindString(s)); err == nil {
			*m = Minutes(n)
		}
	case 'n', 't', 'f', '[', '{':
	default:
		if f, err := strconv.ParseFloat(string(data), 64); err == nil && f > 0 {
			*m = Minutes(int(f))
		}
	}
	return nil
}
