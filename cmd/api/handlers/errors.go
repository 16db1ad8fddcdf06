package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"folio/cmd/api/auth"
	"folio/cmd/api/dto"
	apiservices "folio/cmd/api/services"
	"folio/logger"
	"folio/services"
	"folio/trace"
	"folio/validation"
)

// respondError 는 서비스 에러를 HTTP 상태 코드와 ErrorResponseDTO 로 변환한다.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	var serr *auth.SignInError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{
			Error:   "validation_failed",
			Message: firstMessage(verr.Fields),
			Fields:  fieldDTOs(verr.Fields),
		})
	case errors.As(err, &serr):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponseDTO{Error: string(serr.Kind), Message: serr.Error()})
	case errors.Is(err, services.ErrNotInitialized), errors.Is(err, apiservices.ErrAuthNotConfigured):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponseDTO{Error: "not_initialized", Message: err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponseDTO{Error: "not_found", Message: "Post not found"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, dto.ErrorResponseDTO{Error: "conflict", Message: err.Error()})
	case errors.Is(err, apiservices.ErrInvalidSession):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponseDTO{Error: apiservices.ErrInvalidSession.Error()})
	default:
		logger.ErrorWithFields("request failed", logger.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"error":      err.Error(),
			"request_id": trace.RequestIDFromContext(c.Request.Context()),
		})
		c.JSON(http.StatusInternalServerError, dto.ErrorResponseDTO{Error: "internal_error", Message: "Something went wrong"})
	}
}

func respondInvalidBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_request", Message: err.Error()})
}

func fieldDTOs(fields []validation.FieldError) []dto.FieldErrorDTO {
	out := make([]dto.FieldErrorDTO, 0, len(fields))
	for _, f := range fields {
		out = append(out, dto.FieldErrorDTO{Path: f.Path, Message: f.Message})
	}
	return out
}

func firstMessage(fields []validation.FieldError) string {
	if len(fields) == 0 {
		return ""
	}
	return fields[0].Message
}
