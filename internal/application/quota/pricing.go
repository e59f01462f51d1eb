package quota

import (
	"sort"
	"strings"

	"storyforge-ai-api/internal/config"
)

// DefaultPricingModel 未知模型使用的价格行
const DefaultPricingModel = "default"

// Rate 每 1K tokens 的单价 (美元)
type Rate struct {
	Input  float64
	Output float64
}

// Pricing 模型价格表
type Pricing struct {
	rates    map[string]Rate
	prefixes []string
	fallback Rate
}

// NewPricing 构建价格表，模型名大小写不敏感
func NewPricing(rows []config.PricingConfig) *Pricing {
	p := &Pricing{rates: make(map[string]Rate, len(rows))}
	for _, row := range rows {
		model := strings.ToLower(strings.TrimSpace(row.Model))
		if model == "" {
			continue
		}
		rate := Rate{Input: row.Input, Output: row.Output}
		if model == DefaultPricingModel {
			p.fallback = rate
			continue
		}
		p.rates[model] = rate
		p.prefixes = append(p.prefixes, model)
	}
	// 长前缀优先，避免 gpt-4o 抢先匹配 gpt-4o-mini
	sort.Slice(p.prefixes, func(i, j int) bool {
		return len(p.prefixes[i]) > len(p.prefixes[j])
	})
	return p
}

// RateFor 精确匹配，其次按最长前缀匹配带版本后缀的模型名，最后回退到 default
func (p *Pricing) RateFor(model string) Rate {
	m := strings.ToLower(strings.TrimSpace(model))
	m = strings.TrimPrefix(m, "models/")
	if r, ok := p.rates[m]; ok {
		return r
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(m, prefix) {
			return p.rates[prefix]
		}
	}
	return p.fallback
}

// Cost 按 input_rate*prompt/1000 + output_rate*completion/1000 计算费用
func (p *Pricing) Cost(model string, promptTokens, completionTokens int64) float64 {
	r := p.RateFor(model)
	return r.Input*float64(promptTokens)/1000 + r.Output*float64(completionTokens)/1000
}
