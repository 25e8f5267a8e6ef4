package core

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// FieldID is the reserved record key holding the row identifier.
const FieldID = "id"

// Field is one named value of a Record.
type Field struct {
	Name  string
	Value string
}

// Record is one normalized row: an identifier plus fields in first-insertion
// order. The zero value is an empty record without an id.
type Record struct {
	ID     string
	Fields []Field
}

// Set stores value under name. An existing field keeps its position and
// takes the new value. Empty names and the reserved id key are ignored and
// reported as false.
func (r *Record) Set(name, value string) bool {
	if name == "" || name == FieldID {
		return false
	}
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			r.Fields[i].Value = value
			return true
		}
	}
	r.Fields = append(r.Fields, Field{Name: name, Value: value})
	return true
}

// Get returns the value stored under name. The id key resolves to ID.
func (r Record) Get(name string) (string, bool) {
	if name == FieldID {
		return r.ID, r.ID != ""
	}
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Len returns the number of fields besides the id.
func (r Record) Len() int {
	return len(r.Fields)
}

// Names returns the field names in insertion order, without the id.
func (r Record) Names() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// Clone returns a copy that shares no memory with r.
func (r Record) Clone() Record {
	out := Record{ID: r.ID}
	if r.Fields != nil {
		out.Fields = append([]Field(nil), r.Fields...)
	}
	return out
}

// MarshalJSON encodes the record as a flat object with "id" first and the
// remaining fields in insertion order. An empty id is omitted.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	write := func(k, v string) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return nil
	}

	if r.ID != "" {
		if err := write(FieldID, r.ID); err != nil {
			return nil, err
		}
	}
	for _, f := range r.Fields {
		if err := write(f.Name, f.Value); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat object of string values, keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("record: expected a JSON object")
	}

	out := Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		var value string
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if key == FieldID {
			out.ID = value
			continue
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = out
	return nil
}
