package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Patch is a partial document. Keys are field names as they appear in the
// JSON layout; nested objects are map[string]any.
//
// Applying a patch merges objects recursively and replaces everything else:
// arrays are replaced wholesale, never merged element by element.
type Patch map[string]any

// NewPatch returns an empty patch.
func NewPatch() Patch {
	return Patch{}
}

// Set assigns value at a dot-separated path, creating intermediate objects.
//
//	domain.NewPatch().Set("profile.firstName", "X")
func (p Patch) Set(path string, value any) Patch {
	parts := strings.Split(path, ".")
	cur := map[string]any(p)
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
	return p
}

// Has reports whether the dot-separated path is present in the patch.
func (p Patch) Has(path string) bool {
	_, ok := Lookup(map[string]any(p), path)
	return ok
}

// Paths returns the sorted dot-separated paths of every leaf in the patch.
func (p Patch) Paths() []string {
	var out []string
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			if child, ok := v.(map[string]any); ok && len(child) > 0 {
				walk(path, child)
				continue
			}
			out = append(out, path)
		}
	}
	walk("", p)
	sort.Strings(out)
	return out
}

// Normalize converts every value to its JSON tree form so typed values
// (structs, slices of structs, times) merge the same way decoded documents do.
func (p Patch) Normalize() (Patch, error) {
	data, err := json.Marshal(map[string]any(p))
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	return Patch(out), nil
}

// MergeDocuments returns a new document with src merged into dst.
// Neither input is modified. For every key in src: if both values are
// objects they are merged recursively, otherwise the src value replaces
// the dst value.
func MergeDocuments(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = deepCopy(v)
	}
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := out[k].(map[string]any)
		if srcIsMap && dstIsMap {
			out[k] = MergeDocuments(dstMap, srcMap)
			continue
		}
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = deepCopy(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = deepCopy(val)
		}
		return s
	default:
		return v
	}
}

// Lookup returns the value at a dot-separated path in a document.
func Lookup(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// ToDocument converts a record to its JSON tree form.
func ToDocument(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// FromDocument decodes a JSON tree into a record.
func FromDocument(doc map[string]any, out any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// immutableUserPaths cannot be changed by a patch once the record exists.
var immutableUserPaths = []string{"id", "email", "schemaVersion", "metadata.createdAt"}

// ApplyUserPatch merges a patch into a copy of the record.
// Patches touching immutable fields are rejected with a ValidationError.
func ApplyUserPatch(rec *UserRecord, patch Patch) (*UserRecord, error) {
	normalized, err := patch.Normalize()
	if err != nil {
		return nil, NewValidationError(err.Error())
	}

	var blocked []string
	for _, path := range immutableUserPaths {
		if normalized.Has(path) {
			blocked = append(blocked, path)
		}
	}
	if len(blocked) > 0 {
		return nil, NewValidationError("immutable fields", blocked...)
	}

	doc, err := ToDocument(rec)
	if err != nil {
		return nil, err
	}

	merged := MergeDocuments(doc, normalized)

	var out UserRecord
	if err := FromDocument(merged, &out); err != nil {
		return nil, NewValidationError(err.Error())
	}
	return &out, nil
}
