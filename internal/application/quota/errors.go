package quota

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded 月度 token 或图片额度不足
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrInvalidDelta 预占量为负
	ErrInvalidDelta = errors.New("usage delta must not be negative")
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
)

// Resource 被限额的资源
type Resource string

const (
	ResourceTokens Resource = "tokens"
	ResourceImages Resource = "images"
)

// ExceededError 记录被拒绝时的用量快照
type ExceededError struct {
	UserID    string
	Tier      string
	Resource  Resource
	Used      int64
	Requested int64
	Limit     int64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("%s quota exceeded: user=%s tier=%s used=%d requested=%d limit=%d",
		e.Resource, e.UserID, e.Tier, e.Used, e.Requested, e.Limit)
}

// Is 使 errors.Is(err, ErrQuotaExceeded) 成立
func (e *ExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
