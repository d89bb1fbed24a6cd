package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"disable-help/internal/usecase"
	"disable-help/pkg/apperror"
	"disable-help/pkg/utils"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	Auth *AuthHandler
	User *UserHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth: NewAuthHandler(service.Auth, log),
		User: NewUserHandler(service.User, log),
	}
}

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "Invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		utils.ResponseBadRequest(w, msg, nil)
		return false
	}
	return true
}

// writeServiceError maps usecase errors onto the envelope. Untyped errors are
// logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	if appErr, ok := apperror.As(err); ok {
		if appErr.Err != nil {
			log.Debug("Request failed", zap.String("operation", operation), zap.Error(appErr.Err))
		}
		utils.ResponseJSON(w, appErr.Status, appErr.Message, nil, appErr.Details)
		return
	}

	log.Error("Unexpected service error", zap.String("operation", operation), zap.Error(err))
	utils.ResponseInternalError(w, "Internal server error")
}
