package servicenow

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Field is a single value from a ServiceNow record. With display-value
// expansion enabled the API wraps reference fields as
// {"display_value": ..., "value": ...}, but plain fields still arrive as
// bare scalars, and absent fields as null. All three shapes decode without
// error.
type Field struct {
	display string
	value   string
	present bool
}

func (f *Field) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "null" {
		return nil
	}

	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			DisplayValue json.RawMessage `json:"display_value"`
			Value        json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(b, &wrapped); err != nil {
			return err
		}
		f.display = scalarString(wrapped.DisplayValue)
		f.value = scalarString(wrapped.Value)
		f.present = true
		return nil
	}

	s := scalarString(json.RawMessage(b))
	f.display = s
	f.value = s
	f.present = true
	return nil
}

func (f Field) MarshalJSON() ([]byte, error) {
	if !f.present {
		return []byte("null"), nil
	}
	return json.Marshal(map[string]string{
		"display_value": f.display,
		"value":         f.value,
	})
}

// Display returns the human-readable rendering of the field, or "" when the
// field was absent or null.
func (f Field) Display() string {
	return f.display
}

// Value returns the raw value, which for reference fields is the sys_id of
// the referenced record.
func (f Field) Value() string {
	return f.value
}

// Bool is true iff the field unwraps to the string "true" (a JSON true
// scalar stringifies to the same).
func (f Field) Bool() bool {
	return f.display == "true"
}

// Date truncates a "date time" display value at the first space, leaving
// the date portion only.
func (f Field) Date() string {
	if f.display == "" {
		return ""
	}
	d, _, _ := strings.Cut(f.display, " ")
	return d
}

// Float parses the raw value as a number, preferring the unformatted value
// over the display rendering (which may carry currency symbols or commas).
// Malformed input degrades to zero.
func (f Field) Float() float64 {
	if n, err := strconv.ParseFloat(f.value, 64); err == nil {
		return n
	}
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, f.display)
	n, _ := strconv.ParseFloat(cleaned, 64)
	return n
}

// Int is Float truncated toward zero.
func (f Field) Int() int {
	return int(f.Float())
}

// scalarString renders a raw JSON scalar as its string form. Numbers keep
// their source formatting, strings lose their quotes.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	s := strings.TrimSpace(string(raw))
	if s == "null" {
		return ""
	}
	if strings.HasPrefix(s, `"`) {
		var out string
		if err := json.Unmarshal(raw, &out); err != nil {
			return ""
		}
		return out
	}
	return s
}

// Record is one row from a table query. Indexing a missing field yields the
// zero Field, which unwraps to "".
type Record map[string]Field

// SysID is the record's opaque unique identifier.
func (r Record) SysID() string {
	return r["sys_id"].Value()
}

type listResponse struct {
	Result []Record `json:"result"`
}

type recordResponse struct {
	Result Record `json:"result"`
}

// TokenResponse is the JSON body returned by the token exchange relay.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	ExpiresIn        int    `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
