// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"
)

// User 用户实体，订阅字段与当月用量计数同行存储
type User struct {
	ID        string `json:"id" gorm:"type:varchar(36);primaryKey"`
	Email     string `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Name      string `json:"name" gorm:"type:varchar(255)"`
	AvatarURL string `json:"avatar_url,omitempty" gorm:"type:text"`

	// SubscriptionStatus 取值 free/hobby/pro/admin，历史数据可能为空或带后缀
	SubscriptionStatus    string     `json:"subscription_status" gorm:"type:varchar(32);index"`
	SubscriptionPlan      string     `json:"subscription_plan,omitempty" gorm:"type:varchar(64)"`
	SubscriptionStartDate *time.Time `json:"subscription_start_date,omitempty"`
	SubscriptionEndDate   *time.Time `json:"subscription_end_date,omitempty"`

	TokenUsageThisMonth int64      `json:"token_usage_this_month" gorm:"not null;default:0"`
	ImageUsageThisMonth int64      `json:"image_usage_this_month" gorm:"not null;default:0"`
	UsageResetDate      *time.Time `json:"usage_reset_date,omitempty" gorm:"index"`
	// UsageCycle 每次月度重置加一，用于识别跨周期的退款
	UsageCycle int64 `json:"-" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// NewUser 创建免费用户，首个重置日为下月一日
func NewUser(id, email, name string, now time.Time) *User {
	reset := NextResetDate(now)
	return &User{
		ID:                 id,
		Email:              strings.ToLower(strings.TrimSpace(email)),
		Name:               name,
		SubscriptionStatus: string(TierFree),
		UsageResetDate:     &reset,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// SubscriptionActive 结束日期为空 (永久/历史数据) 或晚于 now 时订阅有效
func (u *User) SubscriptionActive(now time.Time) bool {
	return u.SubscriptionEndDate == nil || u.SubscriptionEndDate.After(now)
}

// NextResetDate 返回 now 之后的下一个自然月一日 (UTC)
func NextResetDate(now time.Time) time.Time {
	y, m, _ := now.UTC().Date()
	return time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC)
}
