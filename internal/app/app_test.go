package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/quillpad/internal/apperror"
)

func runErrorHandler(t *testing.T, err error) (*httptest.ResponseRecorder, errorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	rec := httptest.NewRecorder()
	errorHandler(err, e.NewContext(req, rec))

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestErrorHandler_FieldError(t *testing.T) {
	rec, body := runErrorHandler(t, apperror.NewFieldError("post", "This field is required."))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"This field is required."}, body.Fields["post"])
}

func TestErrorHandler_InternalCauseHidden(t *testing.T) {
	rec, body := runErrorHandler(t, apperror.NewInternal(errors.New("dial tcp 10.0.0.5:3306: refused")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Equal(t, "Internal Server Error", body.Error)
}

func TestErrorHandler_EchoError(t *testing.T) {
	rec, body := runErrorHandler(t, echo.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", body.Message)
}

func TestErrorHandler_UnknownError(t *testing.T) {
	rec, body := runErrorHandler(t, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "An unexpected error occurred.", body.Message)
}
