package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func traceIDOf(c *gin.Context) string {
	return c.GetString("trace_id")
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	RespondWithCode(c, http.StatusOK, data, message)
}

func RespondWithCode(c *gin.Context, code int, data interface{}, message string) {
	c.JSON(code, APIResponse{
		Status:  "success",
		Code:    code,
		Message: message,
		TraceID: traceIDOf(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceIDOf(c),
	})
}

func HandleServiceError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, ErrInvalidTripID):
		RespondError(c, http.StatusBadRequest, "Trip ID is required")
	case errors.Is(err, ErrInvalidPlacesOperation):
		RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSnapshotNotFound):
		RespondError(c, http.StatusNotFound, "Plan snapshot not found")
	case errors.Is(err, ErrPlacesUnavailable):
		RespondError(c, http.StatusServiceUnavailable, "Places API key is not configured")
	case errors.Is(err, ErrDatabaseError):
		logger.Error("database error", zap.Error(err), zap.String("trace_id", traceIDOf(c)))
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	default:
		logger.Error("unhandled service error", zap.Error(err), zap.String("trace_id", traceIDOf(c)))
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
