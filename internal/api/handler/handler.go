package handler

import (
	"context"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/followgraph/internal/realtime"
	"github.com/d60-Lab/followgraph/internal/service"
	"github.com/d60-Lab/followgraph/pkg/response"
)

const defaultHeartbeat = 25 * time.Second

// HealthCheck 依赖探活，例如数据库或 redis ping
type HealthCheck func(ctx context.Context) error

type Handler struct {
	follows   service.FollowService
	notifs    service.NotificationService
	channel   realtime.Channel
	heartbeat time.Duration
	checks    map[string]HealthCheck
}

type Options struct {
	Heartbeat time.Duration
	Checks    map[string]HealthCheck
}

func New(follows service.FollowService, notifs service.NotificationService, channel realtime.Channel, opts Options) *Handler {
	if channel == nil {
		channel = realtime.Discard
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = defaultHeartbeat
	}
	return &Handler{
		follows:   follows,
		notifs:    notifs,
		channel:   channel,
		heartbeat: opts.Heartbeat,
		checks:    opts.Checks,
	}
}

var (
	accountIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	registerOnce     sync.Once
)

// RegisterValidators 注册自定义校验 tag：accountid
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("accountid", func(fl validator.FieldLevel) bool {
				return accountIDPattern.MatchString(fl.Field().String())
			})
		}
	})
}

type pageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1,max=10000"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type accountURI struct {
	UserID string `uri:"userId" binding:"required,accountid"`
}

// Pagination 列表分页信息
type Pagination struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
}

type ListResponse[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

func paginationOf[T any](p *service.Page[T]) Pagination {
	return Pagination{
		Page:        p.Page,
		Limit:       p.PageSize,
		Total:       p.Total,
		TotalPages:  p.TotalPages(),
		HasNextPage: p.HasNext(),
	}
}

func listOf[T any](p *service.Page[T]) ListResponse[T] {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Pagination: paginationOf(p)}
}

// Health 存活与依赖检查
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}
	if status != http.StatusOK {
		c.JSON(status, response.Response{Code: status, Message: "unhealthy", Data: results})
		return
	}
	response.Success(c, results)
}
