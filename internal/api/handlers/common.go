package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoosight/internal/models"
	"github.com/yoockh/yoosight/internal/services"
	"github.com/yoockh/yoosight/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

type SessionController interface {
	Trigger(ctx context.Context, languageCode string) (models.CaptureSession, error)
	Toggle(ctx context.Context, languageCode string) (services.ToggleResult, error)
	Interrupt() bool
	Status() (models.CaptureSession, bool)
	OnPermissionResult(sessionID string, granted bool, payload string)
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

// clientID is the JWT subject when auth is on, else empty.
func clientID(c *gin.Context) string {
	if v, ok := c.Get("client_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
