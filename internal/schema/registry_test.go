package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/tradehub/internal/domain"
)

func TestRegistry_Kinds(t *testing.T) {
	r := NewRegistry()
	require.Len(t, r.Kinds(), 9)

	_, err := r.ShapeOf("trade")
	require.True(t, errors.Is(err, ErrUnknownKind))
}

func TestRegistry_UserShape(t *testing.T) {
	r := NewRegistry()
	shape, err := r.ShapeOf(KindUser)
	require.NoError(t, err)

	types := shape.Types()
	require.Equal(t, TypeString, types["id"])
	require.Equal(t, TypeNumber, types["schemaVersion"])
	require.Equal(t, TypeObject, types["profile"])
	require.Equal(t, TypeString, types["profile.firstName"])
	require.Equal(t, TypeString, types["profile.address.zipCode"])
	require.Equal(t, TypeString, types["auth.password"])
	require.Equal(t, TypeNumber, types["auth.loginAttempts"])
	require.Equal(t, TypeDate, types["auth.lockUntil"])
	require.Equal(t, TypeArray, types["portfolio.positions"])
	require.Equal(t, TypeBoolean, types["preferences.notifications.priceAlerts"])
	require.Equal(t, TypeDate, types["metadata.createdAt"])

	require.NotNil(t, shape["portfolio"].Fields["positions"].Elem)
	require.Equal(t, TypeNumber, shape["portfolio"].Fields["positions"].Elem["quantity"].Type)
}

func TestRegistry_MarketDataShape(t *testing.T) {
	shape, err := NewRegistry().ShapeOf(KindMarketData)
	require.NoError(t, err)

	types := shape.Types()
	require.Equal(t, TypeString, types["symbol"])
	require.Equal(t, TypeNumber, types["price"])
	require.Equal(t, TypeBoolean, types["isMarketOpen"])
	require.True(t, shape["peRatio"].Nullable)
}

func TestRegistry_ConformAcceptsPersistedRecord(t *testing.T) {
	r := NewRegistry()
	rec := domain.NewUserRecord("u1", "a@example.com", time.Now().UTC())
	rec.Portfolio.Positions = []domain.Position{{ID: "p1", Symbol: "AAPL", Quantity: 2}}

	doc, err := domain.ToDocument(rec)
	require.NoError(t, err)

	violations, err := r.Conform(KindUser, doc)
	require.NoError(t, err)
	require.Empty(t, violations)
}

func TestRegistry_ConformReportsWrongTypes(t *testing.T) {
	r := NewRegistry()
	doc := map[string]any{
		"email":   42.0,
		"profile": map[string]any{"firstName": true},
		"metadata": map[string]any{
			"createdAt": "yesterday",
		},
		"portfolio": map[string]any{"positions": []any{"AAPL"}},
		"unknown":   "ignored",
	}

	violations, err := r.Conform(KindUser, doc)
	require.NoError(t, err)

	paths := make([]string, 0, len(violations))
	for _, v := range violations {
		paths = append(paths, v.Path)
	}
	require.Equal(t, []string{"email", "metadata.createdAt", "portfolio.positions[0]", "profile.firstName"}, paths)
}
