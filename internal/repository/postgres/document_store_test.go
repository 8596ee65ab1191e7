package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/tradehub/internal/repository"
)

func TestContainment(t *testing.T) {
	require.Equal(t, map[string]any{"status": "pending"}, containment("status", "pending"))
	require.Equal(t,
		map[string]any{"metadata": map[string]any{"accountStatus": "active"}},
		containment("metadata.accountStatus", "active"),
	)
}

func TestWhereClause(t *testing.T) {
	tests := []struct {
		name      string
		filters   []repository.Filter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "collection only",
			wantWhere: "collection = $1",
			wantArgs:  []any{"orders"},
		},
		{
			name:      "scalar filters",
			filters:   []repository.Filter{repository.Eq("userId", "u1"), repository.Eq("quantity", 2)},
			wantWhere: "collection = $1 AND data @> $2::jsonb AND data @> $3::jsonb",
			wantArgs:  []any{"orders", `{"userId":"u1"}`, `{"quantity":2}`},
		},
		{
			name:      "nil filter",
			filters:   []repository.Filter{repository.Eq("metadata.deletedAt", nil)},
			wantWhere: "collection = $1 AND COALESCE(data #> $2::text[], 'null'::jsonb) = 'null'::jsonb",
			wantArgs:  []any{"orders", []string{"metadata", "deletedAt"}},
		},
		{
			name:      "composite value stays in Go",
			filters:   []repository.Filter{repository.Eq("tags", []string{"a"})},
			wantWhere: "collection = $1",
			wantArgs:  []any{"orders"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args, err := whereClause("orders", tt.filters)
			require.NoError(t, err)
			require.Equal(t, tt.wantWhere, where)
			require.Equal(t, tt.wantArgs, args)
		})
	}

	require.False(t, allPushable([]repository.Filter{repository.Eq("tags", []string{"a"})}))
	require.True(t, allPushable([]repository.Filter{repository.Eq("active", true), repository.Eq("x", nil)}))
}
