package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/followgraph/internal/api/middleware"
	"github.com/d60-Lab/followgraph/pkg/response"
)

type requestFollowBody struct {
	ReceiverID string `json:"receiverId" binding:"required,accountid"`
}

type unfollowBody struct {
	TargetID string `json:"targetId" binding:"required,accountid"`
}

type edgeURI struct {
	EdgeID string `uri:"edgeId" binding:"required,uuid"`
}

type statusQuery struct {
	UserID string `form:"userId" binding:"required,accountid"`
}

// RequestFollow 发起关注请求
// @Summary 发起关注请求
// @Tags 关注
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body requestFollowBody true "接收者"
// @Success 200 {object} response.Response{data=service.FollowResult}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/follow/request [post]
func (h *Handler) RequestFollow(c *gin.Context) {
	var req requestFollowBody
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.follows.RequestFollow(c.Request.Context(), middleware.AccountID(c), req.ReceiverID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// AcceptRequest 接受关注请求（仅接收者）
// @Summary 接受关注请求
// @Tags 关注
// @Produce json
// @Security BearerAuth
// @Param edgeId path string true "请求 ID"
// @Success 200 {object} response.Response{data=service.FollowResult}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/follow/accept/{edgeId} [post]
func (h *Handler) AcceptRequest(c *gin.Context) {
	var uri edgeURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.follows.AcceptRequest(c.Request.Context(), uri.EdgeID, middleware.AccountID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// RejectRequest 拒绝关注请求（仅接收者）
// @Summary 拒绝关注请求
// @Tags 关注
// @Produce json
// @Security BearerAuth
// @Param edgeId path string true "请求 ID"
// @Success 200 {object} response.Response{data=service.FollowResult}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/follow/reject/{edgeId} [post]
func (h *Handler) RejectRequest(c *gin.Context) {
	var uri edgeURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.follows.RejectRequest(c.Request.Context(), uri.EdgeID, middleware.AccountID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Unfollow 取消关注
// @Summary 取消关注
// @Tags 关注
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body unfollowBody true "被关注者"
// @Success 200 {object} response.Response{data=service.FollowResult}
// @Failure 404 {object} response.Response
// @Router /api/v1/follow/unfollow [post]
func (h *Handler) Unfollow(c *gin.Context) {
	var req unfollowBody
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.follows.Unfollow(c.Request.Context(), middleware.AccountID(c), req.TargetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Status 当前账户对目标账户的关注状态
// @Summary 查询关注状态
// @Tags 关注
// @Produce json
// @Security BearerAuth
// @Param userId query string true "目标账户"
// @Success 200 {object} response.Response
// @Router /api/v1/follow/status [get]
func (h *Handler) Status(c *gin.Context) {
	var q statusQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.follows.GetStatus(c.Request.Context(), middleware.AccountID(c), q.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"status": res.Status, "edgeId": res.EdgeID})
}

// Counts 粉丝数与关注数
// @Summary 粉丝数与关注数
// @Tags 关注
// @Produce json
// @Param userId path string true "账户 ID"
// @Success 200 {object} response.Response{data=service.Counts}
// @Router /api/v1/follow/counts/{userId} [get]
func (h *Handler) Counts(c *gin.Context) {
	var uri accountURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	counts, err := h.follows.GetCounts(c.Request.Context(), uri.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, counts)
}

// ListFollowers 粉丝列表
// @Summary 粉丝列表
// @Tags 关注
// @Produce json
// @Param userId path string true "账户 ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=ListResponse[service.Connection]}
// @Router /api/v1/follow/followers/{userId} [get]
func (h *Handler) ListFollowers(c *gin.Context) {
	var uri accountURI
	var q pageQuery
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.follows.ListFollowers(c.Request.Context(), uri.UserID, q.Page, q.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, listOf(page))
}

// ListFollowing 关注列表
// @Summary 关注列表
// @Tags 关注
// @Produce json
// @Param userId path string true "账户 ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=ListResponse[service.Connection]}
// @Router /api/v1/follow/following/{userId} [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	var uri accountURI
	var q pageQuery
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.follows.ListFollowing(c.Request.Context(), uri.UserID, q.Page, q.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, listOf(page))
}

// ListIncomingRequests 待我处理的关注请求
// @Summary 收到的关注请求
// @Tags 关注
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=ListResponse[service.PendingRequest]}
// @Router /api/v1/follow/requests [get]
func (h *Handler) ListIncomingRequests(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.follows.ListIncomingRequests(c.Request.Context(), middleware.AccountID(c), q.Page, q.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, listOf(page))
}

// ListOutgoingRequests 我发出且未处理的关注请求
// @Summary 发出的关注请求
// @Tags 关注
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=ListResponse[service.PendingRequest]}
// @Router /api/v1/follow/requests/sent [get]
func (h *Handler) ListOutgoingRequests(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.follows.ListOutgoingRequests(c.Request.Context(), middleware.AccountID(c), q.Page, q.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, listOf(page))
}
