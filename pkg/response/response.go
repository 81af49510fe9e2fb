package response

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/followgraph/pkg/errcode"
	"github.com/d60-Lab/followgraph/pkg/logger"
)

// Response 统一响应体
type Response struct {
	Code    int         `json:"code"`
	Reason  string      `json:"reason,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{
		Code:    http.StatusBadRequest,
		Reason:  string(errcode.CodeInvalidArgument),
		Message: message,
	})
}

func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
		Code:    http.StatusUnauthorized,
		Reason:  string(errcode.CodeUnauthenticated),
		Message: message,
	})
}

func TooManyRequests(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{
		Code:    http.StatusTooManyRequests,
		Message: message,
	})
}

func InternalError(c *gin.Context, err error) {
	Error(c, errcode.Wrap(errcode.CodeInternal, "internal server error", err))
}

// HTTPStatus 错误码到 HTTP 状态码的唯一映射
func HTTPStatus(code errcode.Code) int {
	switch code {
	case errcode.CodeInvalidArgument:
		return http.StatusBadRequest
	case errcode.CodeUnauthenticated:
		return http.StatusUnauthorized
	case errcode.CodePermissionDenied:
		return http.StatusForbidden
	case errcode.CodeNotFound:
		return http.StatusNotFound
	case errcode.CodeConflict:
		return http.StatusConflict
	case errcode.CodeUnavailable:
		return http.StatusServiceUnavailable
	case errcode.CodeDeadlineExceeded:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// Error 按错误码写响应；5xx 记录日志并上报 Sentry，且不向客户端暴露底层原因
func Error(c *gin.Context, err error) {
	code := errcode.CodeOf(err)
	status := HTTPStatus(code)
	message := err.Error()
	var appErr *errcode.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("reason", string(code)),
			zap.Error(err))
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("reason", string(code))
				hub.CaptureException(err)
			})
		}
		if code == errcode.CodeUnavailable {
			c.Header("Retry-After", "1")
		}
	}

	c.AbortWithStatusJSON(status, Response{Code: status, Reason: string(code), Message: message})
}
