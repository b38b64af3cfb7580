package chat

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"healthmate-backend/internal/llm"
	"healthmate-backend/internal/shared/server/middleware"
	"healthmate-backend/internal/shared/server/respond"
	"healthmate-backend/internal/shared/telemetry"
)

// ContextStateHeader carries whether document retrieval resolved or
// degraded for this turn.
const ContextStateHeader = "X-Context-State"

// Handler exposes the streaming chat endpoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.turn)
}

func (h *Handler) turn(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	turn, err := h.Svc.Prepare(c.Request.Context(), TurnInput{
		UserID:    userID,
		Message:   req.Message,
		History:   req.Messages,
		Embedding: req.Embedding,
		Health:    req.UserData.toHealthContext(),
	})
	if err != nil {
		if errors.Is(err, ErrEmptyMessage) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "message is required", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to prepare chat", nil)
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header(ContextStateHeader, string(turn.State))

	// The status line goes out with the first token, so a completion that
	// fails before producing anything can still return a proper error.
	flusher, canFlush := c.Writer.(http.Flusher)
	streamErr := h.Svc.Stream(c.Request.Context(), turn, func(token string) error {
		if _, err := c.Writer.WriteString(token); err != nil {
			return err
		}
		if canFlush {
			flusher.Flush()
		}
		return nil
	})
	if streamErr != nil {
		telemetry.Error("chat.stream_failed", map[string]any{
			"user_id":    userID,
			"state":      string(turn.State),
			"request_id": c.GetString("requestId"),
			"error":      streamErr.Error(),
		})
		var compErr *llm.CompletionError
		if errors.As(streamErr, &compErr) {
			if !c.Writer.Written() {
				respond.Error(c, http.StatusBadGateway, "completion_failed", "chat completion failed", nil)
				return
			}
			// Tokens already went out with a 200 status line. Abort the
			// connection so the client sees a truncated body instead of a
			// clean end of stream.
			panic(http.ErrAbortHandler)
		}
		return
	}

	if !c.Writer.Written() {
		c.Status(http.StatusOK)
	}
}
