package responses

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Data is a submission's field map that remembers key order as received on
// the wire. Values are whatever JSON decoded to: strings, []any for checkbox
// selections, json.Number, bool, nil or nested objects.
type Data struct {
	fields *orderedmap.OrderedMap[string, any]
}

// NewData builds Data from alternating key, value pairs. It panics on an odd
// argument count, which is always a programming error.
func NewData(pairs ...any) Data {
	if len(pairs)%2 != 0 {
		panic("responses: NewData requires key/value pairs")
	}
	var d Data
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("responses: NewData key %v is not a string", pairs[i]))
		}
		d.Set(key, pairs[i+1])
	}
	return d
}

// Set stores value under key. A new key is appended to the order; an existing
// key keeps its position.
func (d *Data) Set(key string, value any) {
	if d.fields == nil {
		d.fields = orderedmap.New[string, any]()
	}
	d.fields.Set(key, value)
}

// Keys returns the keys in wire order.
func (d Data) Keys() []string {
	if d.fields == nil {
		return nil
	}
	keys := make([]string, 0, d.fields.Len())
	for pair := d.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Get returns the value stored for key.
func (d Data) Get(key string) (any, bool) {
	if d.fields == nil {
		return nil, false
	}
	return d.fields.Get(key)
}

// Len returns the number of keys.
func (d Data) Len() int {
	if d.fields == nil {
		return 0
	}
	return d.fields.Len()
}

// Map returns an unordered copy.
func (d Data) Map() map[string]any {
	out := make(map[string]any, d.Len())
	if d.fields == nil {
		return out
	}
	for pair := d.fields.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}

// MarshalJSON writes the object in wire order.
func (d Data) MarshalJSON() ([]byte, error) {
	if d.fields == nil {
		return []byte("{}"), nil
	}
	return d.fields.MarshalJSON()
}

// UnmarshalJSON captures the top-level key order with an ordered map of raw
// values, then decodes each value with numbers kept as json.Number.
func (d *Data) UnmarshalJSON(raw []byte) error {
	*d = Data{}
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New("responses: data must be a JSON object")
	}

	fields := orderedmap.New[string, json.RawMessage]()
	if err := fields.UnmarshalJSON(trimmed); err != nil {
		return fmt.Errorf("responses: decode data: %w", err)
	}
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		dec := json.NewDecoder(bytes.NewReader(pair.Value))
		dec.UseNumber()
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("responses: decode data %q: %w", pair.Key, err)
		}
		d.Set(pair.Key, value)
	}
	return nil
}

// canonical returns the lower-cased JSON text the text filter searches:
// sorted keys, no HTML escaping.
func (d Data) canonical() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d.Map()); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSuffix(buf.String(), "\n"))
}
