package response

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hitrank/pkg/errors"
)

func render(t *testing.T, err error) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, Error(c, err))

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestError(t *testing.T) {
	type payload struct {
		Vote string `validate:"required,oneof=up down"`
	}
	validationErr := validator.New().Struct(payload{Vote: "sideways"})

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"app error", errors.AlreadyVoted(), http.StatusConflict, errors.CodeAlreadyVoted},
		{"wrapped app error", stderrors.Join(stderrors.New("ctx"), errors.NotFound("Pin", nil)), http.StatusNotFound, errors.CodeNotFound},
		{"contention", errors.Contention("cast_vote", nil), http.StatusConflict, errors.CodeContention},
		{"validation", validationErr, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"echo error", echo.NewHTTPError(http.StatusUnauthorized, "nope"), http.StatusUnauthorized, errors.CodeBadRequest},
		{"unknown", stderrors.New("boom"), http.StatusInternalServerError, errors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := render(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, Created(c, map[string]string{"id": "p1"}))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Timestamp)
}
