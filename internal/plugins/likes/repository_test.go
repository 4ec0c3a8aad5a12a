package likes

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResult is a sql.Result with a fixed rows-affected count.
type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }

func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestFindOrCreateQuery_UpsertIsNoOp(t *testing.T) {
	query, args, err := findOrCreateQuery(3, 7, TypeLike)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(query, "INSERT INTO post_likes (profile_id,post_id,like_type) VALUES (?,?,?)"), query)
	assert.True(t, strings.HasSuffix(query, "ON DUPLICATE KEY UPDATE id = id"), query)
	assert.Equal(t, []any{int64(3), int64(7), TypeLike}, args)
}

func TestWasInserted(t *testing.T) {
	tests := []struct {
		name string
		rows int64
		want bool
	}{
		{"fresh insert", 1, true},
		{"existing row untouched", 0, false},
		{"client found rows", 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := wasInserted(fakeResult{rows: tt.rows})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWasInserted_Error(t *testing.T) {
	_, err := wasInserted(fakeResult{err: errors.New("driver gone")})
	assert.Error(t, err)
}

func TestRecentLikersQuery_RanksPerPostNewestFirst(t *testing.T) {
	query, args, err := recentLikersQuery([]int64{1, 2}, 50)
	require.NoError(t, err)

	assert.Contains(t, query, "ROW_NUMBER() OVER (PARTITION BY l.post_id ORDER BY l.id DESC) AS rn")
	assert.Contains(t, query, "l.post_id IN (?,?)")
	assert.Contains(t, query, "WHERE rn <= ?")
	assert.True(t, strings.HasSuffix(query, "ORDER BY post_id, rn"), query)

	// Subquery args precede the outer cap.
	assert.Equal(t, []any{int64(1), int64(2), 50}, args)
}
