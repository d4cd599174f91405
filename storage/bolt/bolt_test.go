package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Comcast/sweep/storage"

	"github.com/stretchr/testify/require"
)

func TestBoltRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Open())
	defer s.Close()

	require.NoError(t, s.MakeModule(ctx, "user"))

	pss, err := s.GetClauses(ctx, "user")
	require.NoError(t, err)
	require.Empty(t, pss)

	err = s.WriteClauses(ctx, "user", []*storage.PredicateState{
		{Name: "likes", Arity: 2, Clauses: []string{"likes(a,b).", "likes(b,c)."}},
		{Name: "count", Arity: 1, Clauses: []string{"count(3)."}},
	})
	require.NoError(t, err)

	pss, err = s.GetClauses(ctx, "user")
	require.NoError(t, err)
	require.Len(t, pss, 2)
	// Keys sort: count/1 before likes/2.
	require.Equal(t, "count", pss[0].Name)
	require.Equal(t, []string{"likes(a,b).", "likes(b,c)."}, pss[1].Clauses)

	err = s.WriteClauses(ctx, "user", []*storage.PredicateState{
		{Name: "count", Arity: 1, Deleted: true},
	})
	require.NoError(t, err)

	pss, err = s.GetClauses(ctx, "user")
	require.NoError(t, err)
	require.Len(t, pss, 1)
	require.Equal(t, 2, pss[0].Arity)

	require.NoError(t, s.RemModule(ctx, "user"))
	require.NoError(t, s.RemModule(ctx, "user"))
	pss, err = s.GetClauses(ctx, "user")
	require.NoError(t, err)
	require.Nil(t, pss)
}
