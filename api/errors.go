package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/aeroclub/internal/domain"
	"github.com/Domenick1991/aeroclub/internal/logging"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
	Reason string            `json:"reason,omitempty"`
}

func writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	var uerr *domain.UnavailableError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, errorResponse{Error: domain.ErrValidation.Error(), Fields: verr.FieldErrors})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &uerr):
		c.JSON(http.StatusConflict, errorResponse{Error: domain.ErrResourceUnavailable.Error(), Reason: uerr.Reason})
	case errors.Is(err, domain.ErrResourceUnavailable):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, errorResponse{Error: domain.ErrForbidden.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: domain.ErrNotFound.Error()})
	case errors.Is(err, domain.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, errorResponse{Error: "reservation changed concurrently, retry"})
	default:
		logging.FromContext(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func badRequest(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Error:  domain.ErrValidation.Error(),
		Fields: map[string]string{field: message},
	})
}
