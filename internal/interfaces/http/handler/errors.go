package handler

import (
	stderrors "errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"storyforge-ai-api/internal/application/quota"
	"storyforge-ai-api/internal/application/story"
	"storyforge-ai-api/internal/application/subscription"
	"storyforge-ai-api/internal/infrastructure/payment/razorpay"
	"storyforge-ai-api/internal/interfaces/http/dto"
	"storyforge-ai-api/pkg/errors"
	"storyforge-ai-api/pkg/logger"
)

// toAppError 将领域错误映射为对外错误码
func toAppError(err error) *errors.AppError {
	var exceeded *quota.ExceededError
	switch {
	case stderrors.As(err, &exceeded):
		if exceeded.Resource == quota.ResourceImages {
			return errors.ErrImageQuotaExceeded.WithDetail(
				fmt.Sprintf("used %d of %d images this month", exceeded.Used, exceeded.Limit))
		}
		return errors.ErrQuotaExceeded.WithDetail(
			fmt.Sprintf("used %d of %d tokens this month, request needs %d", exceeded.Used, exceeded.Limit, exceeded.Requested))
	case stderrors.Is(err, quota.ErrQuotaExceeded):
		return errors.ErrQuotaExceeded
	case stderrors.Is(err, story.ErrProjectLimitReached):
		return errors.ErrProjectLimitReached
	case stderrors.Is(err, story.ErrProjectNotFound):
		return errors.ErrProjectNotFound
	case stderrors.Is(err, quota.ErrUserNotFound):
		return errors.ErrUserNotFound
	case stderrors.Is(err, story.ErrInvalidProject),
		stderrors.Is(err, story.ErrInvalidKind),
		stderrors.Is(err, story.ErrEmptyMessage),
		stderrors.Is(err, quota.ErrInvalidDelta):
		return errors.ErrInvalidParam.WithDetail(err.Error())
	case stderrors.Is(err, subscription.ErrUnknownPlan),
		stderrors.Is(err, subscription.ErrInvalidBillingPeriod):
		return errors.ErrSubscriptionInvalid.WithDetail(err.Error())
	case stderrors.Is(err, razorpay.ErrInvalidSignature),
		stderrors.Is(err, subscription.ErrPaymentReplayed),
		stderrors.Is(err, subscription.ErrOrderNotFound),
		stderrors.Is(err, subscription.ErrOrderMismatch):
		return errors.ErrPaymentVerificationFailed.WithDetail(err.Error())
	case stderrors.Is(err, razorpay.ErrNotConfigured):
		return errors.ErrServiceUnavailable.WithDetail("payments are not configured")
	case stderrors.Is(err, story.ErrGenerationFailed):
		return errors.ErrLLMProvider
	case errors.IsAppError(err):
		return errors.AsAppError(err)
	default:
		return errors.ErrInternalError
	}
}

// writeError 记录并输出错误，5xx 记 ERROR，其余记 WARN
func writeError(c *gin.Context, err error, msg string) {
	appErr := toAppError(err)
	ctx := c.Request.Context()
	if appErr.HTTPStatus >= 500 {
		logger.Error(ctx, msg, err, "code", appErr.Code)
	} else {
		logger.Warn(ctx, msg, "code", appErr.Code, "error", err.Error())
	}
	dto.AppError(c, appErr)
}
