package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/followgraph/internal/api/middleware"
	"github.com/d60-Lab/followgraph/pkg/logger"
)

// Stream 实时事件流（SSE）。连接期间把该账户的事件推给客户端；
// 断线期间的事件不补发，客户端应从通知列表重新拉取。
// @Summary 实时事件流
// @Tags 实时
// @Produce text/event-stream
// @Security BearerAuth
// @Param access_token query string false "EventSource 无法设置请求头时使用"
// @Success 200 {string} string "event stream"
// @Router /api/v1/realtime/stream [get]
func (h *Handler) Stream(c *gin.Context) {
	account := middleware.AccountID(c)
	sub := h.channel.Subscribe(account)
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("ready", gin.H{"accountId": account})
	c.Writer.Flush()
	logger.Debug("realtime session opened", zap.String("account", account))
	defer logger.Debug("realtime session closed", zap.String("account", account))

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	done := c.Request.Context().Done()

	c.Stream(func(io.Writer) bool {
		select {
		case <-done:
			return false
		case ev, ok := <-sub.Events():
			if !ok {
				return false
			}
			if sub.Resync() {
				c.SSEvent("resync", gin.H{})
			}
			c.SSEvent(ev.Name, ev.Data)
			return true
		case now := <-ticker.C:
			if sub.Resync() {
				c.SSEvent("resync", gin.H{})
			}
			c.SSEvent("heartbeat", now.Unix())
			return true
		}
	})
}
