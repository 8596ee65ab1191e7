package schema

import (
	"fmt"
	"sort"
	"time"
)

// Violation describes one field whose value does not match its declared type.
type Violation struct {
	Path     string
	Expected FieldType
	Actual   string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", v.Path, v.Expected, v.Actual)
}

// Conform checks a decoded JSON document against the shape of kind.
// Absent fields and fields unknown to the shape are not violations.
func (r *Registry) Conform(kind Kind, doc map[string]any) ([]Violation, error) {
	shape, err := r.ShapeOf(kind)
	if err != nil {
		return nil, err
	}
	var out []Violation
	conformObject("", shape, doc, &out)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func conformObject(prefix string, shape Shape, doc map[string]any, out *[]Violation) {
	for name, f := range shape {
		v, ok := doc[name]
		if !ok {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		conformValue(path, f, v, out)
	}
}

func conformValue(path string, f Field, v any, out *[]Violation) {
	if v == nil {
		if !f.Nullable && f.Type != TypeObject {
			*out = append(*out, Violation{Path: path, Expected: f.Type, Actual: "null"})
		}
		return
	}

	actual := jsonType(v)
	switch f.Type {
	case TypeDate:
		s, ok := v.(string)
		if !ok {
			*out = append(*out, Violation{Path: path, Expected: f.Type, Actual: actual})
			return
		}
		if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
			*out = append(*out, Violation{Path: path, Expected: f.Type, Actual: "string"})
		}
	case TypeObject:
		m, ok := v.(map[string]any)
		if !ok {
			*out = append(*out, Violation{Path: path, Expected: f.Type, Actual: actual})
			return
		}
		if f.Fields != nil {
			conformObject(path, f.Fields, m, out)
		}
	case TypeArray:
		items, ok := v.([]any)
		if !ok {
			*out = append(*out, Violation{Path: path, Expected: f.Type, Actual: actual})
			return
		}
		if f.Elem == nil {
			return
		}
		for i, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				*out = append(*out, Violation{Path: fmt.Sprintf("%s[%d]", path, i), Expected: TypeObject, Actual: jsonType(item)})
				continue
			}
			conformObject(fmt.Sprintf("%s[%d]", path, i), f.Elem, m, out)
		}
	default:
		if actual != string(f.Type) {
			*out = append(*out, Violation{Path: path, Expected: f.Type, Actual: actual})
		}
	}
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return string(TypeString)
	case bool:
		return string(TypeBoolean)
	case float64, float32, int, int64, int32:
		return string(TypeNumber)
	case []any:
		return string(TypeArray)
	case map[string]any:
		return string(TypeObject)
	default:
		return fmt.Sprintf("%T", v)
	}
}
