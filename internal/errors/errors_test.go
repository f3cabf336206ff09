package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := fmt.Errorf("no such sheet")
	err := NewParsingError("failed to open workbook", cause).WithContext("sheet", "Addresses")

	assert.Equal(t, "[PARSING] failed to open workbook: no such sheet", err.Error())
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "Addresses", err.Context["sheet"])

	plain := NewNotFoundError("sheet Addresses")
	assert.Equal(t, "[NOT_FOUND] sheet Addresses not found", plain.Error())
	assert.Nil(t, plain.Unwrap())

	var appErr *AppError
	wrapped := fmt.Errorf("load: %w", NewConfigError("bad port", nil))
	require.True(t, stderrors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeConfig, appErr.Type)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrValidation("group_by", "required"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "VALIDATION_FAILED", body.Error.ErrorCode)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "", "/api/pivot").
		WithExtension("column", "Name")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeValidation, body["type"])
	assert.Equal(t, float64(400), body["status"])
	assert.Equal(t, "Name", body["column"])
	assert.NotContains(t, body, "detail")
}

func TestSummarizeRequestBody(t *testing.T) {
	body := []byte(`{"agg":"sum","rows":[{"a":1},{"a":2}]}`)
	assert.JSONEq(t, `{"agg":"sum","rows":2}`, summarizeRequestBody(body))

	long := make([]byte, 800)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, summarizeRequestBody(long), maxLoggedBody+3)
}
