package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xiaomckedou233/XiaoLive/internal/core/ports"
	apperrors "github.com/Xiaomckedou233/XiaoLive/pkg/errors"
)

// DanmakuHandler serves the overlay-facing API: polling stored timed
// comments and pushing new ones. Responses keep the {code, data/msg} shape
// the external renderer expects.
type DanmakuHandler struct {
	chat      ports.ChatService
	streamURL string
	logger    *zap.SugaredLogger
}

func NewDanmakuHandler(chat ports.ChatService, streamURL string, logger *zap.SugaredLogger) *DanmakuHandler {
	return &DanmakuHandler{
		chat:      chat,
		streamURL: streamURL,
		logger:    logger,
	}
}

func (h *DanmakuHandler) SetupRoutes(router *gin.Engine) {
	// The renderer polls with a trailing slash and pushes without one.
	router.GET("/api/v3/", h.ListDanmaku)
	router.GET("/api/v3", h.ListDanmaku)
	router.POST("/api/v3", h.SubmitDanmaku)
	router.GET("/api/stream-config", h.StreamConfig)
}

func (h *DanmakuHandler) ListDanmaku(c *gin.Context) {
	entries, err := h.chat.ListDanmaku(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to list danmaku", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1, "msg": "Failed to fetch danmaku messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": entries,
	})
}

func (h *DanmakuHandler) SubmitDanmaku(c *gin.Context) {
	var req struct {
		ID     string  `json:"id"`
		Author string  `json:"author"`
		Time   *string `json:"time"`
		Text   string  `json:"text"`
		Color  *string `json:"color"`
		Type   *string `json:"type"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "msg": "invalid request body"})
		return
	}

	sub := ports.DanmakuSubmission{
		ID:     req.ID,
		Author: req.Author,
		Time:   req.Time,
		Text:   req.Text,
		Color:  req.Color,
		Type:   req.Type,
	}

	if _, err := h.chat.SubmitDanmaku(c.Request.Context(), sub, c.ClientIP()); err != nil {
		if appErr := apperrors.GetAppError(err); appErr != nil {
			c.JSON(appErr.HTTPStatus, gin.H{"code": 1, "msg": appErr.Message})
			return
		}
		h.logger.Errorw("failed to submit danmaku", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1, "msg": "Failed to send danmaku"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": gin.H{"message": "Danmaku sent successfully"},
	})
}

func (h *DanmakuHandler) StreamConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"url": h.streamURL})
}
