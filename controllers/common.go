package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ctsr-api/config"
	"ctsr-api/services"
)

// respondError maps a service error onto the HTTP error envelope. Unexpected
// errors are logged and returned as a generic 500.
func respondError(c *gin.Context, err error) {
	if svcErr, ok := services.AsServiceError(err); ok {
		body := gin.H{
			"error":   svcErr.Code,
			"message": svcErr.Message,
		}
		if svcErr.Details != nil {
			body["details"] = svcErr.Details
		}
		c.JSON(svcErr.HTTPStatus(), body)
		return
	}

	config.GetLogger().WithError(err).WithField("path", c.FullPath()).Error("Unhandled error")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   services.CodeInternal,
		"message": "An internal error occurred",
	})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":   services.CodeValidation,
		"message": err.Error(),
	})
}

// parsePagination reads limit/offset query parameters; the service clamps
// them to the allowed range.
func parsePagination(c *gin.Context) services.Pagination {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return services.Pagination{Limit: limit, Offset: offset}
}

// parseBoolQuery returns nil when the parameter is absent or malformed.
func parseBoolQuery(c *gin.Context, name string) *bool {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// actorEmail is the caller identity stamped by the auth middleware.
func actorEmail(c *gin.Context) string {
	if email, exists := c.Get("email"); exists {
		if s, ok := email.(string); ok {
			return s
		}
	}
	return "unknown"
}
