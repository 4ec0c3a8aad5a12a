package pagination

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestFromQuery(t *testing.T) {
	cases := map[string]int{
		"/?page=3":   3,
		"/?page=0":   1,
		"/?page=abc": 1,
		"/":          1,

		"/?page=9223372036854775807": MaxPage,
		"/?page=-4":                  1,
	}
	e := echo.New()
	for target, want := range cases {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		opts := FromQuery(c)
		assert.Equal(t, want, opts.Page, target)
		assert.Equal(t, DefaultPerPage, opts.PerPage)
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, ListOptions{Page: 1, PerPage: 10}.Offset())
	assert.Equal(t, 20, ListOptions{Page: 3, PerPage: 10}.Offset())
	assert.Equal(t, 0, ListOptions{}.Offset())
}

func TestNewPage_NilBecomesEmpty(t *testing.T) {
	p := NewPage[int](nil, 0, ListOptions{Page: 1})
	assert.NotNil(t, p.Results)
	assert.Empty(t, p.Results)
	assert.Equal(t, DefaultPerPage, p.PerPage)
}

func TestOffset_HugePageDoesNotOverflow(t *testing.T) {
	off := ListOptions{Page: math.MaxInt, PerPage: 10}.Offset()
	assert.Equal(t, (MaxPage-1)*10, off)
	assert.GreaterOrEqual(t, off, 0)
}
