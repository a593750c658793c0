package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"go-channel-identity/internal/model"
	"go-channel-identity/pkg/apierror"
)

func writeError(w http.ResponseWriter, err error) {
	apiErr := apierror.Internal("unexpected server error")
	_ = errors.As(err, &apiErr)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		},
	})
}
