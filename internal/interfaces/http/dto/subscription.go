package dto

import (
	"storyforge-ai-api/internal/domain/entity"
)

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	PlanID        string `json:"plan_id" binding:"required"`
	BillingPeriod string `json:"billing_period" binding:"omitempty,oneof=monthly yearly"`
}

// OrderResponse 前端拉起 Razorpay 收银台所需字段
type OrderResponse struct {
	OrderID       string               `json:"order_id"`
	KeyID         string               `json:"key_id"`
	Amount        int64                `json:"amount"`
	Currency      string               `json:"currency"`
	PlanID        entity.Tier          `json:"plan_id"`
	BillingPeriod entity.BillingPeriod `json:"billing_period"`
}

// VerifyPaymentRequest Razorpay 支付成功回调，plan_id/billing_period 以订单为准
type VerifyPaymentRequest struct {
	OrderID       string `json:"razorpay_order_id" binding:"required"`
	PaymentID     string `json:"razorpay_payment_id" binding:"required"`
	Signature     string `json:"razorpay_signature" binding:"required"`
	PlanID        string `json:"plan_id"`
	BillingPeriod string `json:"billing_period" binding:"omitempty,oneof=monthly yearly"`
}

// SubscriptionResponse 升级后的额度
type SubscriptionResponse struct {
	Tier   entity.Tier   `json:"tier"`
	Limits entity.Limits `json:"limits"`
}

// PlanListResponse 计划列表
type PlanListResponse struct {
	Plans []entity.Plan `json:"plans"`
}
