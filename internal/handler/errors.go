package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drivepool/drivepool-backend-go/internal/service"
	"github.com/drivepool/drivepool-backend-go/pkg/response"
)

// respondError maps the service error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		response.Error(c, http.StatusBadRequest, message, err)
	case errors.Is(err, service.ErrNotFound):
		response.Error(c, http.StatusNotFound, message, err)
	case errors.Is(err, service.ErrPrecondition):
		response.Error(c, http.StatusConflict, message, err)
	case errors.Is(err, service.ErrConflict):
		response.Error(c, http.StatusServiceUnavailable, message, err)
	default:
		response.Error(c, http.StatusInternalServerError, message, err)
	}
}

func driverID(c *gin.Context) string {
	return c.GetString("driverID")
}
