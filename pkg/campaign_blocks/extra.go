package campaign_blocks

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// objectExtras holds the keys of a JSON object that the typed struct does not declare.
// They are written back untouched so documents survive a decode/encode cycle.
type objectExtras map[string]json.RawMessage

func (x objectExtras) clone() objectExtras {
	if x == nil {
		return nil
	}
	out := make(objectExtras, len(x))
	for k, v := range x {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

func (x *objectExtras) set(key string, raw json.RawMessage) {
	if *x == nil {
		*x = objectExtras{}
	}
	(*x)[key] = append(json.RawMessage(nil), raw...)
}

var fieldNameCache sync.Map

// jsonFieldNames returns the lower-cased JSON keys declared by struct type t.
func jsonFieldNames(t reflect.Type) map[string]bool {
	if cached, ok := fieldNameCache.Load(t); ok {
		return cached.(map[string]bool)
	}
	names := map[string]bool{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName := strings.Split(tag, ",")[0]
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		names[strings.ToLower(name)] = true
	}
	fieldNameCache.Store(t, names)
	return names
}

// decodeObject decodes data into the struct pointed to by v and returns the
// object keys v has no field for.
func decodeObject(data []byte, v interface{}) (objectExtras, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, nil
	}
	known := jsonFieldNames(reflect.TypeOf(v).Elem())
	var extra objectExtras
	for key, raw := range fields {
		if !known[strings.ToLower(key)] {
			extra.set(key, raw)
		}
	}
	return extra, nil
}

// encodeObject marshals v and adds back the extra keys v does not write itself.
func encodeObject(v interface{}, extra objectExtras) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for key, raw := range extra {
		if _, ok := fields[key]; !ok {
			fields[key] = raw
		}
	}
	return json.Marshal(fields)
}

// decodeID reads a block or section id. Numbers are accepted and reported as numeric.
// ok is false when the id is neither a string nor a number.
func decodeID(raw json.RawMessage) (id string, numeric bool, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false, true
	}
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", false, false
		}
		return id, false, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", false, false
	}
	return n.String(), true, true
}

func encodeID(id string, numeric bool) interface{} {
	if numeric {
		return json.Number(id)
	}
	return id
}

// jsonEqual compares two JSON fragments ignoring insignificant whitespace.
func jsonEqual(a, b json.RawMessage) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
