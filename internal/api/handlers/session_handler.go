package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoosight/internal/models"
	"github.com/yoockh/yoosight/internal/services"
	"github.com/yoockh/yoosight/internal/utils"
)

type SessionHandler struct {
	ctrl    SessionController
	history services.HistoryService
}

func NewSessionHandler(ctrl SessionController, history services.HistoryService) *SessionHandler {
	return &SessionHandler{ctrl: ctrl, history: history}
}

type TriggerRequest struct {
	Language string `json:"language"` // optional, ex: EN|PL
}

type SessionResponse struct {
	SessionID     string `json:"session_id"`
	State         string `json:"state"`
	Language      string `json:"language"`
	Text          string `json:"text,omitempty"`
	Chunks        int    `json:"chunks"`
	FailureCode   string `json:"failure_code,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
	EndedAt       string `json:"ended_at,omitempty"`
}

type PermissionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Granted   bool   `json:"granted"`
	Payload   string `json:"payload"`
}

func toResponse(s models.CaptureSession) SessionResponse {
	out := SessionResponse{
		SessionID:     s.ID,
		State:         string(s.State),
		Language:      s.LanguageCode,
		Text:          s.AccumulatedText,
		Chunks:        s.Chunks,
		FailureCode:   s.FailureCode,
		FailureReason: s.FailureReason,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
	}
	if s.EndedAt != nil {
		out.EndedAt = s.EndedAt.Format(time.RFC3339)
	}
	return out
}

// bindOptional accepts an empty body.
func bindOptional(c *gin.Context, dst any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(dst)
}

func (h *SessionHandler) Trigger(c *gin.Context) {
	var req TriggerRequest
	if err := bindOptional(c, &req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Trigger", "invalid request body", err))
		return
	}

	sess, err := h.ctrl.Trigger(c.Request.Context(), req.Language)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, toResponse(sess))
}

func (h *SessionHandler) Toggle(c *gin.Context) {
	var req TriggerRequest
	if err := bindOptional(c, &req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Toggle", "invalid request body", err))
		return
	}

	res, err := h.ctrl.Toggle(c.Request.Context(), req.Language)
	if err != nil {
		writeError(c, err)
		return
	}
	if res.Interrupted {
		c.JSON(http.StatusOK, gin.H{"interrupted": true})
		return
	}
	c.JSON(http.StatusAccepted, toResponse(res.Session))
}

func (h *SessionHandler) Interrupt(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"interrupted": h.ctrl.Interrupt()})
}

func (h *SessionHandler) Current(c *gin.Context) {
	sess, ok := h.ctrl.Status()
	if !ok {
		writeError(c, utils.E(utils.CodeNotFound, "SessionHandler.Current", "no session yet", nil))
		return
	}
	c.JSON(http.StatusOK, toResponse(sess))
}

func (h *SessionHandler) Permission(c *gin.Context) {
	var req PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Permission", "invalid request body", err))
		return
	}

	h.ctrl.OnPermissionResult(req.SessionID, req.Granted, req.Payload)
	c.JSON(http.StatusAccepted, gin.H{"session_id": req.SessionID})
}

func (h *SessionHandler) Get(c *gin.Context) {
	sessionID := c.Param("session_id")

	// the active session is not in history yet
	if cur, ok := h.ctrl.Status(); ok && cur.ID == sessionID {
		c.JSON(http.StatusOK, toResponse(cur))
		return
	}

	rec, err := h.history.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
