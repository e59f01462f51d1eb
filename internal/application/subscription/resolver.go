package subscription

import (
	"strings"
	"time"

	"storyforge-ai-api/internal/domain/entity"
)

// Resolver 将用户行上的订阅字段映射为等级与额度，无副作用
type Resolver struct {
	catalog *Catalog
}

func NewResolver(catalog *Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve 解析用户在 now 时刻的有效等级。
// 过期的付费订阅直接按 free 处理，不产生降级事件。
func (r *Resolver) Resolve(user *entity.User, now time.Time) entity.Limits {
	if user == nil {
		return r.catalog.limits(entity.TierFree)
	}
	return r.catalog.limits(ResolveTier(user.SubscriptionStatus, user.SubscriptionActive(now)))
}

// ResolveTier 按 admin > pro > hobby > free 的顺序匹配状态字符串
func ResolveTier(status string, active bool) entity.Tier {
	s := strings.ToLower(strings.TrimSpace(status))
	switch {
	case s == string(entity.TierAdmin):
		return entity.TierAdmin
	case active && strings.Contains(s, string(entity.TierPro)):
		return entity.TierPro
	case active && strings.Contains(s, string(entity.TierHobby)):
		return entity.TierHobby
	default:
		return entity.TierFree
	}
}
