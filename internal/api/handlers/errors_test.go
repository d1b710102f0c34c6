package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/tripplanner/internal/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func respond(t *testing.T, err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, err)
	return rec
}

func TestRespondErrorStatusMapping(t *testing.T) {
	rec := respond(t, apperrors.Validationf("start_time", "must be before end_time"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "start_time")

	rec = respond(t, errors.Wrap(apperrors.ErrForbidden, "caller has no access"))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = respond(t, errors.Wrap(apperrors.ErrNotFound, "trip missing"))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = respond(t, errors.Wrap(apperrors.ErrItemsNotFound, "batch member missing"))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = respond(t, errors.New("database exploded"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
