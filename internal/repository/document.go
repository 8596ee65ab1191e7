package repository

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/prn-tf/tradehub/internal/domain"
)

// Document is a decoded JSON object.
type Document = map[string]any

// Collection names.
const (
	CollectionUsers        = "users"
	CollectionPositions    = "positions"
	CollectionOrders       = "orders"
	CollectionTransactions = "transactions"
	CollectionWatchlists   = "watchlists"
	CollectionAlerts       = "alerts"
	CollectionAdmins       = "admins"
	CollectionSettings     = "settings"
	CollectionMarketData   = "marketData"
)

// Collections lists every collection in a stable order.
var Collections = []string{
	CollectionUsers,
	CollectionPositions,
	CollectionOrders,
	CollectionTransactions,
	CollectionWatchlists,
	CollectionAlerts,
	CollectionAdmins,
	CollectionSettings,
	CollectionMarketData,
}

// Filter matches documents whose value at the dot-path Field equals Value.
// A nil Value matches documents where the field is null or absent.
type Filter struct {
	Field string
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: NormalizeValue(value)}
}

// Query selects documents in a collection.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
	Offset  int
}

// NormalizeValue converts a Go value to the type it decodes to from JSON.
func NormalizeValue(v any) any {
	switch t := v.(type) {
	case nil, string, bool, float64:
		return v
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return v
		}
		var out any
		if err := json.Unmarshal(data, &out); err != nil {
			return v
		}
		return out
	}
}

// Matches reports whether doc satisfies every filter.
func Matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		got, ok := domain.Lookup(doc, f.Field)
		want := NormalizeValue(f.Value)
		if want == nil {
			if ok && got != nil {
				return false
			}
			continue
		}
		if !ok || compareValues(got, want) != 0 {
			return false
		}
	}
	return true
}

// SortDocuments orders docs in place by the value at orderBy.
// Timestamps compare chronologically, numbers numerically. Missing values sort first.
func SortDocuments(docs []Document, orderBy string, desc bool) {
	if orderBy == "" {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		a, _ := domain.Lookup(docs[i], orderBy)
		b, _ := domain.Lookup(docs[j], orderBy)
		c := compareValues(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// Paginate applies offset and limit. A limit of 0 means no limit.
func Paginate(docs []Document, offset, limit int) []Document {
	if offset > 0 {
		if offset >= len(docs) {
			return []Document{}
		}
		docs = docs[offset:]
	}
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}

// ApplyQuery filters, orders and paginates docs. The input slice is not modified.
func ApplyQuery(docs []Document, q Query) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if Matches(d, q.Filters) {
			out = append(out, d)
		}
	}
	SortDocuments(out, q.OrderBy, q.Desc)
	return Paginate(out, q.Offset, q.Limit)
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			return compareOrdered(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case string:
		if bv, ok := b.(string); ok {
			if at, err := time.Parse(time.RFC3339Nano, av); err == nil {
				if bt, err := time.Parse(time.RFC3339Nano, bv); err == nil {
					return at.Compare(bt)
				}
			}
			return strings.Compare(av, bv)
		}
	}

	// Mismatched or composite types compare by their JSON text.
	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	return strings.Compare(string(aj), string(bj))
}

func compareOrdered[T float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// EncodeDocument converts a typed record into a Document.
func EncodeDocument(v any) (Document, error) {
	return domain.ToDocument(v)
}

// DecodeDocument converts a Document into a typed record.
func DecodeDocument(doc Document, out any) error {
	return domain.FromDocument(doc, out)
}

// CloneDocument returns a deep copy of doc.
func CloneDocument(doc Document) Document {
	return domain.MergeDocuments(doc, nil)
}
