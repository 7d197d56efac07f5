package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MapsWrappedDomainErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: circle", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: bad token", ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("%w: admins only", ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: name taken", ErrAlreadyExists), http.StatusConflict},
		{fmt.Errorf("%w: pending withdrawal", ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: title required", ErrBadRequest), http.StatusBadRequest},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		Error(rec, tt.err)

		assert.Equal(t, tt.status, rec.Code, tt.err.Error())

		var resp APIResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.False(t, resp.Success)
		assert.Equal(t, tt.err.Error(), resp.Error)
	}
}

func TestError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, errors.New("failed to scan row: disk I/O error"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "internal error", resp.Error)
}

func TestJSON_WrapsData(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"id": "c1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"data":{"id":"c1"}}`, rec.Body.String())
}
