package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ebogdum/hotfs/auth"
	"github.com/ebogdum/hotfs/backends"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errHotfolderNotFound = errors.New("hotfolder not found")

// SendErrorResponse sends a standardized JSON error response
func SendErrorResponse(w http.ResponseWriter, logger *zap.Logger, err error, defaultStatusCode int) {
	statusCode, errorCode := classify(err, defaultStatusCode)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Code:    errorCode,
		Message: err.Error(),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Failed to encode error response", zap.Error(err))
	}

	logger.Info("Error response sent",
		zap.String("error_code", errorCode),
		zap.Int("status_code", statusCode),
		zap.Error(err))
}

func classify(err error, defaultStatusCode int) (int, string) {
	switch {
	case errors.Is(err, errHotfolderNotFound):
		return http.StatusNotFound, "HOTFOLDER_NOT_FOUND"
	case errors.Is(err, backends.ErrNotFound):
		return http.StatusNotFound, "FILE_NOT_FOUND"
	case errors.Is(err, backends.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, backends.ErrUnsupportedScheme):
		return http.StatusBadRequest, "UNSUPPORTED_SCHEME"
	case errors.Is(err, backends.ErrNotSupported):
		return http.StatusNotImplemented, "NOT_SUPPORTED"
	case errors.Is(err, auth.ErrAuthenticationFailed), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "AUTHENTICATION_FAILED"
	case errors.Is(err, backends.ErrBackendIO):
		return http.StatusBadGateway, "BACKEND_ERROR"
	default:
		return defaultStatusCode, "INTERNAL_ERROR"
	}
}

// SendJSONResponse sends a JSON response with any data structure
func SendJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, `{"code":"INTERNAL_ERROR","message":"failed to encode response"}`)
	}
}
