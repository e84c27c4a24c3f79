// Package patch carries partial-field updates as small JSON documents so a
// persistence collaborator can update a subset of columns without the full
// entity.
package patch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Doc is a flat JSON object of field -> new value.
type Doc string

// Empty is a patch with no fields.
const Empty Doc = "{}"

// Builder accumulates fields; the first error sticks.
type Builder struct {
	doc string
	err error
}

func New() *Builder {
	return &Builder{doc: string(Empty)}
}

// Set records field = v. Field names must be plain identifiers.
func (b *Builder) Set(field string, v any) *Builder {
	if b.err != nil {
		return b
	}
	if field == "" || strings.ContainsAny(field, ".*?|#@") {
		b.err = fmt.Errorf("patch: invalid field name %q", field)
		return b
	}
	doc, err := sjson.Set(b.doc, field, v)
	if err != nil {
		b.err = fmt.Errorf("patch: setting %s: %w", field, err)
		return b
	}
	b.doc = doc
	return b
}

func (b *Builder) Doc() (Doc, error) {
	if b.err != nil {
		return "", b.err
	}
	return Doc(b.doc), nil
}

// Parse validates raw JSON as a flat patch object.
func Parse(raw string) (Doc, error) {
	if !gjson.Valid(raw) {
		return "", fmt.Errorf("patch: invalid JSON")
	}
	r := gjson.Parse(raw)
	if !r.IsObject() {
		return "", fmt.Errorf("patch: expected a JSON object")
	}
	var nested string
	r.ForEach(func(k, v gjson.Result) bool {
		if v.IsObject() || v.IsArray() {
			nested = k.String()
			return false
		}
		return true
	})
	if nested != "" {
		return "", fmt.Errorf("patch: field %q must be a scalar", nested)
	}
	return Doc(raw), nil
}

// Get returns the raw gjson value for field.
func (d Doc) Get(field string) gjson.Result {
	return gjson.Get(string(d), field)
}

// Has reports whether field is present.
func (d Doc) Has(field string) bool {
	return d.Get(field).Exists()
}

// Fields returns the field names in sorted order.
func (d Doc) Fields() []string {
	var out []string
	gjson.Parse(string(d)).ForEach(func(k, _ gjson.Result) bool {
		out = append(out, k.String())
		return true
	})
	sort.Strings(out)
	return out
}

// IsEmpty reports whether the patch has no fields.
func (d Doc) IsEmpty() bool {
	return len(d.Fields()) == 0
}

// SQLSet renders the patch as an UPDATE SET clause. columns maps patch
// fields to column names; unknown fields are rejected. Booleans become 0/1
// to match the SQLite schema.
func (d Doc) SQLSet(columns map[string]string) (string, []any, error) {
	fields := d.Fields()
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("patch: no fields to update")
	}
	parts := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		col, ok := columns[f]
		if !ok {
			return "", nil, fmt.Errorf("patch: unknown field %q", f)
		}
		parts = append(parts, col+" = ?")
		args = append(args, sqlValue(d.Get(f)))
	}
	return strings.Join(parts, ", "), args, nil
}

func sqlValue(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return 1
	case gjson.False:
		return 0
	case gjson.Number:
		if strings.ContainsAny(v.Raw, ".eE") {
			return v.Float()
		}
		return v.Int()
	default:
		return v.String()
	}
}
