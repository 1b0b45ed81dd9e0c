package write_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagepass/stagepass/internal/api/write"
	"github.com/stagepass/stagepass/internal/apierrors"
	appcontext "github.com/stagepass/stagepass/utils/context"
)

func TestWriteErrorResponse(t *testing.T) {
	t.Run("should write error with request id", func(t *testing.T) {
		ctx := appcontext.InjectRequestID(t.Context())
		w := httptest.NewRecorder()
		errorResponse := apierrors.ErrorMessage{
			Error: apierrors.DetailedError{
				Code:    "TEST_ERROR",
				Message: "This is a test error",
				Status:  http.StatusBadRequest,
			},
		}

		write.ErrorResponse(ctx, w, errorResponse)

		requestID, err := appcontext.GetRequestID(ctx)
		require.NoError(t, err)

		var body apierrors.ErrorMessage

		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, body.Error.RequestID)
		assert.Equal(t, requestID, *body.Error.RequestID)
		assert.Equal(t, "TEST_ERROR", body.Error.Code)
	})
}

func TestWriteResponse(t *testing.T) {
	t.Run("should write json body with status", func(t *testing.T) {
		w := httptest.NewRecorder()

		write.Response(t.Context(), w, http.StatusOK, map[string]string{"hello": "world"})

		var body map[string]string

		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "world", body["hello"])
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	})
}
