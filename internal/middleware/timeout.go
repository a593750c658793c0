package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"go-channel-identity/internal/model"
	"go-channel-identity/pkg/apierror"
)

const defaultRequestTimeout = 30 * time.Second

// Timeout bounds handler time with a 503 in the usual error envelope.
// Multipart uploads are spooled to disk inside the handler, so the limit
// covers the upload body as well as the service call.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	body := timeoutBody(timeout)

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, body)
	}
}

func timeoutBody(timeout time.Duration) string {
	payload, err := json.Marshal(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    apierror.CodeTimeout,
			Message: "request timed out",
			Details: "limit " + timeout.String(),
		},
	})
	if err != nil {
		return `{"success":false,"error":{"code":"REQUEST_TIMEOUT","message":"request timed out"}}`
	}
	return string(payload)
}
