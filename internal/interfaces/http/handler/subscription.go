package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"storyforge-ai-api/internal/application/subscription"
	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/interfaces/http/dto"
	"storyforge-ai-api/internal/interfaces/http/middleware"
)

// SubscriptionService 订阅用例
type SubscriptionService interface {
	Plans() []entity.Plan
	CreateOrder(ctx context.Context, in subscription.OrderInput) (*subscription.CreatedOrder, error)
	Upgrade(ctx context.Context, in subscription.UpgradeInput) (entity.Limits, error)
}

// SubscriptionHandler 订阅处理器
type SubscriptionHandler struct {
	svc SubscriptionService
}

// NewSubscriptionHandler 创建订阅处理器
func NewSubscriptionHandler(svc SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc}
}

// Plans 公开计划列表
// @Summary 订阅计划
// @Tags Subscription
// @Produce json
// @Success 200 {object} dto.Response[dto.PlanListResponse]
// @Router /v1/subscription/plans [get]
func (h *SubscriptionHandler) Plans(c *gin.Context) {
	dto.Success(c, &dto.PlanListResponse{Plans: h.svc.Plans()})
}

// CreateOrder 为所选计划创建支付订单
// @Summary 创建订单
// @Description 按计划价格创建 Razorpay 订单，计划与周期绑定到订单
// @Tags Subscription
// @Accept json
// @Produce json
// @Param body body dto.CreateOrderRequest true "计划"
// @Success 200 {object} dto.Response[dto.OrderResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/subscription/orders [post]
func (h *SubscriptionHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	created, err := h.svc.CreateOrder(c.Request.Context(), subscription.OrderInput{
		UserID:        middleware.GetUserIDFromGin(c),
		PlanID:        req.PlanID,
		BillingPeriod: req.BillingPeriod,
	})
	if err != nil {
		writeError(c, err, "create payment order failed")
		return
	}
	o := created.Order
	dto.Success(c, &dto.OrderResponse{
		OrderID:       o.OrderID,
		KeyID:         created.KeyID,
		Amount:        o.Amount,
		Currency:      o.Currency,
		PlanID:        o.PlanID,
		BillingPeriod: o.BillingPeriod,
	})
}

// Verify 校验支付并升级计划
// @Summary 支付校验
// @Description 校验 Razorpay 签名后将订单绑定的计划写入当前用户
// @Tags Subscription
// @Accept json
// @Produce json
// @Param body body dto.VerifyPaymentRequest true "支付回调"
// @Success 200 {object} dto.Response[dto.SubscriptionResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/subscription/verify [post]
func (h *SubscriptionHandler) Verify(c *gin.Context) {
	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	limits, err := h.svc.Upgrade(c.Request.Context(), subscription.UpgradeInput{
		UserID:        middleware.GetUserIDFromGin(c),
		OrderID:       req.OrderID,
		PaymentID:     req.PaymentID,
		Signature:     req.Signature,
		PlanID:        req.PlanID,
		BillingPeriod: req.BillingPeriod,
	})
	if err != nil {
		writeError(c, err, "subscription upgrade failed")
		return
	}
	dto.Success(c, &dto.SubscriptionResponse{Tier: limits.Tier, Limits: limits})
}
