package write

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/stagepass/stagepass/internal/apierrors"
	"github.com/stagepass/stagepass/internal/log"
	appcontext "github.com/stagepass/stagepass/utils/context"
)

// ErrorResponse writes an error response to the client and logs the error
func ErrorResponse(ctx context.Context, w http.ResponseWriter, errorResponse apierrors.ErrorMessage) {
	requestID, _ := appcontext.GetRequestID(ctx)

	errorResponse.Error.RequestID = &requestID

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errorResponse.Error.Status)

	enc := json.NewEncoder(w)

	err := enc.Encode(&errorResponse)
	if err != nil {
		log.Error(ctx, "Failed to encode error response", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)

		return
	}
}

// Response writes a JSON body with the given status code.
func Response(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)

	err := enc.Encode(body)
	if err != nil {
		log.Error(ctx, "Failed to encode response", err)
	}
}
