package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/followgraph/internal/api/middleware"
	"github.com/d60-Lab/followgraph/internal/model"
	"github.com/d60-Lab/followgraph/pkg/response"
)

type notificationQuery struct {
	pageQuery
	Status string `form:"status" binding:"omitempty,oneof=unread read all"`
}

type notificationURI struct {
	ID uint `uri:"id" binding:"required,min=1"`
}

// NotificationList 通知列表
type NotificationList struct {
	Notifications []*model.Notification `json:"notifications"`
	Pagination    Pagination            `json:"pagination"`
	UnreadCount   int64                 `json:"unreadCount"`
}

// ListNotifications 当前账户的通知，最新在前
// @Summary 通知列表
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Param status query string false "unread | read | all"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=NotificationList}
// @Router /api/v1/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	var q notificationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.notifs.List(c.Request.Context(), middleware.AccountID(c), q.Status, q.Page, q.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, NotificationList{
		Notifications: page.Items,
		Pagination:    paginationOf(&page.Page),
		UnreadCount:   page.UnreadCount,
	})
}

// MarkRead 标记单条已读（幂等）
// @Summary 标记已读
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Param id path int true "通知 ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/notifications/read/{id} [post]
func (h *Handler) MarkRead(c *gin.Context) {
	var uri notificationURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.notifs.MarkRead(c.Request.Context(), uri.ID, middleware.AccountID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// MarkAllRead 全部标记已读
// @Summary 全部已读
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/notifications/read-all [post]
func (h *Handler) MarkAllRead(c *gin.Context) {
	n, err := h.notifs.MarkAllRead(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"updated": n})
}

// DeleteNotification 删除通知
// @Summary 删除通知
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Param id path int true "通知 ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/notifications/{id} [delete]
func (h *Handler) DeleteNotification(c *gin.Context) {
	var uri notificationURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.notifs.Delete(c.Request.Context(), uri.ID, middleware.AccountID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// UnreadCount 未读数
// @Summary 未读数
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/notifications/unread-count [get]
func (h *Handler) UnreadCount(c *gin.Context) {
	n, err := h.notifs.UnreadCount(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"unreadCount": n})
}
