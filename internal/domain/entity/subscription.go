package entity

import "time"

// Tier 订阅等级
type Tier string

const (
	TierFree  Tier = "free"
	TierHobby Tier = "hobby"
	TierPro   Tier = "pro"
	TierAdmin Tier = "admin"
)

// Unlimited 表示该项额度不限
const Unlimited int64 = -1

// Limits 某个等级对应的额度集合
type Limits struct {
	Tier        Tier  `json:"tier"`
	TokenLimit  int64 `json:"token_limit"`
	ImageLimit  int64 `json:"image_limit"`
	MaxProjects int64 `json:"max_projects"`
	IsPro       bool  `json:"is_pro"`
	IsPaid      bool  `json:"is_paid"`
}

// Fits 判断 used+delta 是否仍在 limit 之内
func Fits(used, delta, limit int64) bool {
	return limit < 0 || used+delta <= limit
}

// Remaining 剩余额度，不限时返回 Unlimited
func Remaining(used, limit int64) int64 {
	if limit < 0 {
		return Unlimited
	}
	if used >= limit {
		return 0
	}
	return limit - used
}

// BillingPeriod 计费周期
type BillingPeriod string

const (
	BillingMonthly BillingPeriod = "monthly"
	BillingYearly  BillingPeriod = "yearly"
)

// Plan 可购买的订阅计划
type Plan struct {
	ID           Tier    `json:"id"`
	Name         string  `json:"name"`
	TokenLimit   int64   `json:"token_limit"`
	ImageLimit   int64   `json:"image_limit"`
	MaxProjects  int64   `json:"max_projects"`
	MonthlyPrice float64 `json:"monthly_price"`
	YearlyPrice  float64 `json:"yearly_price"`
	Currency     string  `json:"currency"`
}

// PaymentOrder 服务端创建的支付订单，计划与周期在下单时绑定
type PaymentOrder struct {
	OrderID       string        `json:"order_id"`
	UserID        string        `json:"user_id"`
	PlanID        Tier          `json:"plan_id"`
	BillingPeriod BillingPeriod `json:"billing_period"`
	// Amount 以最小货币单位计 (INR 为 paise)
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// Price 返回计划在给定周期的价格
func (p Plan) Price(period BillingPeriod) float64 {
	if period == BillingYearly {
		return p.YearlyPrice
	}
	return p.MonthlyPrice
}
