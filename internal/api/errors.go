package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/pharmaguard-dashboard/internal/middleware"
)

// respondError writes the APIError envelope matching err.
func (s *Server) respondError(c *gin.Context, err error) {
	requestID := c.GetString(middleware.CorrelationIDKey)

	var (
		validationErr *domain.ValidationError
		serviceErr    *domain.ServiceError
		maxBytesErr   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, domain.NewAPIError(domain.ErrCodeValidation, validationErr.Message, validationErr.Field, requestID))
	case errors.As(err, &maxBytesErr):
		c.JSON(http.StatusBadRequest, domain.NewAPIError(domain.ErrCodeValidation, "File exceeds the maximum upload size", "file", requestID))
	case errors.Is(err, domain.ErrAnalysisInProgress):
		c.JSON(http.StatusConflict, domain.NewAPIError(domain.ErrCodeConflict, err.Error(), "", requestID))
	case errors.As(err, &serviceErr):
		c.JSON(http.StatusBadGateway, domain.NewAPIError(domain.ErrCodeAnalysisService, serviceErr.Message, "", requestID))
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, domain.NewAPIError(domain.ErrCodeNotFound, "resource not found", "", requestID))
	default:
		s.log.WithFields(logrus.Fields{
			"correlation_id": requestID,
			"path":           c.Request.URL.Path,
		}).WithError(err).Error("Unhandled request error")
		c.JSON(http.StatusInternalServerError, domain.NewAPIError(domain.ErrCodeInternalServer, "internal server error", "", requestID))
	}
}

func (s *Server) respondUnavailable(c *gin.Context, feature string) {
	c.JSON(http.StatusServiceUnavailable, domain.NewAPIError(
		domain.ErrCodeFeatureUnavailable,
		feature+" is not configured",
		"",
		c.GetString(middleware.CorrelationIDKey),
	))
}
