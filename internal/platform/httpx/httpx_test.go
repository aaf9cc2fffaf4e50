package httpx

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

type sampleRequest struct {
	Name  string       `json:"name" validate:"required,max=10"`
	Lines []sampleLine `json:"lines" validate:"required,min=1,dive"`
}

type sampleLine struct {
	Qty int64 `json:"qty" validate:"gte=1"`
}

func TestValidateReturnsFieldErrors(t *testing.T) {
	err := Validate(sampleRequest{Lines: []sampleLine{{Qty: 0}}})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrValidation)

	var fields FieldErrors
	require.True(t, errors.As(err, &fields))
	assert.Equal(t, "wajib diisi", fields["name"])
	assert.Contains(t, fields, "lines[0].qty")
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{Conflict("item is referenced by invoices"), http.StatusConflict},
		{fmt.Errorf("delete: %w", NotFound("customer not found")), http.StatusNotFound},
		{FieldErrors{"name": "wajib diisi"}, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		assert.Equal(t, tc.status, rr.Code, tc.err.Error())

		var body ProblemDetail
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, tc.status, body.Status)
	}
}

func TestClassifiedSentinels(t *testing.T) {
	inUse := Conflict("item is referenced by invoices")
	assert.Equal(t, "item is referenced by invoices", inUse.Error())
	assert.ErrorIs(t, fmt.Errorf("delete item 3: %w", inUse), ErrConflict)
	assert.NotErrorIs(t, inUse, ErrNotFound)
	assert.NotErrorIs(t, inUse, Conflict("item is referenced by invoices"))

	rr := httptest.NewRecorder()
	RespondError(rr, NotFound("invoice not found"))
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, body.Status)
	assert.Equal(t, "invoice not found", body.Detail)
}
