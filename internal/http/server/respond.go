package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexMickh/speak-messenger/internal/service"
	"github.com/AlexMickh/speak-messenger/pkg/logger"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the service error kinds onto HTTP status codes so
// the client can render a specific message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthenticated"})
	case errors.Is(err, service.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case service.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, service.ErrBlobStore):
		logger.GetFromCtx(ctx).Error(ctx, "blob store failure", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "blob store failure"})
	default:
		logger.GetFromCtx(ctx).Error(ctx, "internal error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
