package service

import (
	"log/slog"

	"go-channel-identity/pkg/apierror"
)

// internalError logs the cause and returns a generic Internal error so
// collaborator failures never reach the caller verbatim.
func internalError(message string, err error, attrs ...any) *apierror.APIError {
	slog.Error(message, append(attrs, "error", err)...)
	return apierror.Internal(message)
}
