// Package middleware 提供 HTTP 中间件
package middleware

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"storyforge-ai-api/internal/interfaces/http/dto"
	"storyforge-ai-api/pkg/errors"
	"storyforge-ai-api/pkg/logger"
	"storyforge-ai-api/pkg/tracer"
)

// Recovery 捕获 handler panic，记录堆栈并返回统一的 500 响应
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// 客户端断开时 net/http 约定的中止信号，交回 server 处理
			if e, ok := rec.(error); ok && stderrors.Is(e, http.ErrAbortHandler) {
				panic(rec)
			}

			err := fmt.Errorf("panic: %v", rec)
			ctx := c.Request.Context()
			tracer.Fail(trace.SpanFromContext(ctx), err)
			logger.Error(ctx, "panic recovered", err,
				"method", c.Request.Method,
				"route", c.FullPath(),
				"stack", string(debug.Stack()),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			dto.AbortWithAppError(c, errors.ErrInternalError)
		}()

		c.Next()
	}
}
