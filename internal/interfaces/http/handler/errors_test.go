package handler

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"storyforge-ai-api/internal/application/quota"
	"storyforge-ai-api/internal/application/story"
	"storyforge-ai-api/internal/application/subscription"
	"storyforge-ai-api/internal/infrastructure/payment/razorpay"
	"storyforge-ai-api/pkg/errors"
)

func TestToAppError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   errors.ErrorCode
		status int
	}{
		{"token quota", &quota.ExceededError{Resource: quota.ResourceTokens, Used: 9500, Requested: 600, Limit: 10000}, errors.CodeQuotaExceeded, http.StatusForbidden},
		{"image quota", &quota.ExceededError{Resource: quota.ResourceImages, Used: 5, Requested: 1, Limit: 5}, errors.CodeImageQuotaExceeded, http.StatusForbidden},
		{"project limit", fmt.Errorf("%w: 3 of 3", story.ErrProjectLimitReached), errors.CodeProjectLimitReached, http.StatusForbidden},
		{"project missing", story.ErrProjectNotFound, errors.CodeProjectNotFound, http.StatusNotFound},
		{"invalid kind", fmt.Errorf("%w: poem", story.ErrInvalidKind), errors.CodeInvalidParam, http.StatusBadRequest},
		{"unknown plan", subscription.ErrUnknownPlan, errors.CodeSubscriptionInvalid, http.StatusBadRequest},
		{"bad signature", razorpay.ErrInvalidSignature, errors.CodePaymentVerificationFailed, http.StatusBadRequest},
		{"replay", subscription.ErrPaymentReplayed, errors.CodePaymentVerificationFailed, http.StatusBadRequest},
		{"order mismatch", fmt.Errorf("%w: plan \"pro\", ordered \"hobby\"", subscription.ErrOrderMismatch), errors.CodePaymentVerificationFailed, http.StatusBadRequest},
		{"unknown order", subscription.ErrOrderNotFound, errors.CodePaymentVerificationFailed, http.StatusBadRequest},
		{"provider", fmt.Errorf("%w: upstream 503", story.ErrGenerationFailed), errors.CodeLLMProviderError, http.StatusInternalServerError},
		{"unknown", stderrors.New("boom"), errors.CodeInternalError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := toAppError(tc.err)
			assert.Equal(t, tc.code, got.Code)
			assert.Equal(t, tc.status, got.HTTPStatus)
		})
	}
}

func TestToAppErrorDoesNotMutateSentinels(t *testing.T) {
	_ = toAppError(&quota.ExceededError{Resource: quota.ResourceTokens, Limit: 10})
	assert.Empty(t, errors.ErrQuotaExceeded.Detail)
}
