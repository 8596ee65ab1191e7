// Package schema describes the recognized field set of every document kind.
// Shapes are derived from the domain record types, so the registry always
// matches what the services persist.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/prn-tf/tradehub/internal/domain"
)

// ErrUnknownKind indicates no shape is registered for the kind.
var ErrUnknownKind = errors.New("unknown document kind")

// Kind names a document kind.
type Kind string

const (
	KindUser        Kind = "user"
	KindPosition    Kind = "position"
	KindOrder       Kind = "order"
	KindTransaction Kind = "transaction"
	KindWatchlist   Kind = "watchlist"
	KindAlert       Kind = "alert"
	KindAdmin       Kind = "admin"
	KindSetting     Kind = "setting"
	KindMarketData  Kind = "marketData"
)

// FieldType is the primitive type of a field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeDate    FieldType = "date"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
)

// Field describes one field of a shape.
type Field struct {
	Name     string
	Type     FieldType
	Nullable bool
	// Fields is set for objects.
	Fields Shape
	// Elem is set for arrays of objects.
	Elem Shape
}

// Shape maps field names to their description.
type Shape map[string]Field

// Types flattens the shape into dot-path to type.
func (s Shape) Types() map[string]FieldType {
	out := make(map[string]FieldType)
	var walk func(prefix string, shape Shape)
	walk = func(prefix string, shape Shape) {
		for name, f := range shape {
			path := name
			if prefix != "" {
				path = prefix + "." + name
			}
			out[path] = f.Type
			if f.Type == TypeObject {
				walk(path, f.Fields)
			}
		}
	}
	walk("", s)
	return out
}

// Registry holds the shape of every document kind.
type Registry struct {
	shapes map[Kind]Shape
}

// NewRegistry builds the registry from the domain record types.
func NewRegistry() *Registry {
	r := &Registry{shapes: make(map[Kind]Shape)}
	r.register(KindUser, domain.UserRecord{})
	r.register(KindPosition, domain.Position{})
	r.register(KindOrder, domain.Order{})
	r.register(KindTransaction, domain.Transaction{})
	r.register(KindWatchlist, domain.Watchlist{})
	r.register(KindAlert, domain.PriceAlert{})
	r.register(KindAdmin, domain.AdminRecord{})
	r.register(KindSetting, domain.SystemSetting{})
	r.register(KindMarketData, domain.MarketTick{})
	return r
}

func (r *Registry) register(kind Kind, sample any) {
	r.shapes[kind] = shapeOf(reflect.TypeOf(sample))
}

// ShapeOf returns the shape registered for kind.
func (r *Registry) ShapeOf(kind Kind) (Shape, error) {
	s, ok := r.shapes[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return s, nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.shapes))
	for k := range r.shapes {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

var timeType = reflect.TypeOf(time.Time{})

func shapeOf(t reflect.Type) Shape {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	shape := make(Shape)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := jsonName(sf)
		if name == "" {
			continue
		}
		f := fieldOf(sf.Type)
		f.Name = name
		shape[name] = f
	}
	return shape
}

func fieldOf(t reflect.Type) Field {
	nullable := false
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
		nullable = true
	}

	f := Field{Nullable: nullable}
	switch {
	case t == timeType:
		f.Type = TypeDate
	case t.Kind() == reflect.String:
		f.Type = TypeString
	case t.Kind() == reflect.Bool:
		f.Type = TypeBoolean
	case t.Kind() >= reflect.Int && t.Kind() <= reflect.Float64:
		f.Type = TypeNumber
	case t.Kind() == reflect.Slice || t.Kind() == reflect.Array:
		f.Type = TypeArray
		f.Nullable = true
		elem := t.Elem()
		if elem.Kind() == reflect.Struct && elem != timeType {
			f.Elem = shapeOf(elem)
		}
	case t.Kind() == reflect.Struct:
		f.Type = TypeObject
		f.Fields = shapeOf(t)
	case t.Kind() == reflect.Map:
		f.Type = TypeObject
	default:
		f.Type = TypeString
	}
	return f
}

func jsonName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return sf.Name
	}
	return name
}
