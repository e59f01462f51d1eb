// Package subscription 提供订阅等级解析与升级能力
package subscription

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"storyforge-ai-api/internal/config"
	"storyforge-ai-api/internal/domain/entity"
)

// ErrUnknownPlan 请求的计划不存在或不可购买
var ErrUnknownPlan = errors.New("unknown subscription plan")

// Catalog 唯一的计划额度表，来自 quota.plans 配置
type Catalog struct {
	plans map[entity.Tier]entity.Plan
}

// NewCatalog 从配置构建计划表，free/hobby/pro/admin 必须齐全
func NewCatalog(plans map[string]config.PlanConfig) (*Catalog, error) {
	c := &Catalog{plans: make(map[entity.Tier]entity.Plan, len(plans))}
	for id, p := range plans {
		tier := entity.Tier(strings.ToLower(strings.TrimSpace(id)))
		c.plans[tier] = entity.Plan{
			ID:           tier,
			Name:         p.Name,
			TokenLimit:   normalizeLimit(p.TokenLimit),
			ImageLimit:   normalizeLimit(p.ImageLimit),
			MaxProjects:  normalizeLimit(p.MaxProjects),
			MonthlyPrice: p.MonthlyPrice,
			YearlyPrice:  p.YearlyPrice,
			Currency:     p.Currency,
		}
	}
	for _, tier := range []entity.Tier{entity.TierFree, entity.TierHobby, entity.TierPro, entity.TierAdmin} {
		if _, ok := c.plans[tier]; !ok {
			return nil, fmt.Errorf("quota.plans.%s is not configured", tier)
		}
	}
	return c, nil
}

func normalizeLimit(v int64) int64 {
	if v < 0 {
		return entity.Unlimited
	}
	return v
}

// Plan 按 ID 查找计划
func (c *Catalog) Plan(tier entity.Tier) (entity.Plan, bool) {
	p, ok := c.plans[tier]
	return p, ok
}

// Purchasable 返回可购买的付费计划
func (c *Catalog) Purchasable(id string) (entity.Plan, error) {
	tier := entity.Tier(strings.ToLower(strings.TrimSpace(id)))
	if tier != entity.TierHobby && tier != entity.TierPro {
		return entity.Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, id)
	}
	p, ok := c.plans[tier]
	if !ok {
		return entity.Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, id)
	}
	return p, nil
}

// Public 返回对外展示的计划列表 (不含 admin)，按 token 额度升序
func (c *Catalog) Public() []entity.Plan {
	out := make([]entity.Plan, 0, len(c.plans))
	for tier, p := range c.plans {
		if tier == entity.TierAdmin {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TokenLimit < out[j].TokenLimit
	})
	return out
}

func (c *Catalog) limits(tier entity.Tier) entity.Limits {
	p := c.plans[tier]
	return entity.Limits{
		Tier:        tier,
		TokenLimit:  p.TokenLimit,
		ImageLimit:  p.ImageLimit,
		MaxProjects: p.MaxProjects,
		IsPro:       tier == entity.TierPro || tier == entity.TierAdmin,
		IsPaid:      tier != entity.TierFree,
	}
}
