package posts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderBy(t *testing.T) {
	tests := []struct {
		ordering string
		want     []string
	}{
		{"", []string{"p.created_at DESC", "p.id DESC"}},
		{"title", []string{"p.title ASC", "p.id DESC"}},
		{"-likes_count,title", []string{"likes_count DESC", "p.title ASC", "p.id DESC"}},
		{"password", []string{"p.created_at DESC", "p.id DESC"}},
		{"updated_at; DROP TABLE posts", []string{"p.created_at DESC", "p.id DESC"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, orderBy(tt.ordering), "ordering %q", tt.ordering)
	}
}

func TestApplyFilter_SearchTermsAreAnded(t *testing.T) {
	b, err := applyFilter(baseQuery(), ListFilter{Search: "go 100%", AuthorID: 3})
	require.NoError(t, err)

	query, args, err := b.ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "p.author_id = ?")
	assert.Equal(t, 2, strings.Count(query, "p.title COLLATE utf8mb4_unicode_ci LIKE ?"))
	assert.Contains(t, args, `%100\%%`)
}

func TestApplyFilter_TagFilters(t *testing.T) {
	b, err := applyFilter(baseQuery(), ListFilter{TagIDs: []int64{1, 2}, TagName: "Django"})
	require.NoError(t, err)

	query, args, err := b.ToSql()
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(query, "EXISTS"))
	assert.Equal(t, []any{int64(1), int64(2), "Django"}, args)
}
