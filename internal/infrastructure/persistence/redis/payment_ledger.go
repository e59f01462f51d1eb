package redis

import (
	"context"
	"time"
)

// PaymentLedger 记录已处理的支付，阻止同一笔支付回调被重复应用
type PaymentLedger struct {
	client *Client
	ttl    time.Duration
}

func NewPaymentLedger(client *Client, ttl time.Duration) *PaymentLedger {
	if ttl <= 0 {
		ttl = 400 * 24 * time.Hour
	}
	return &PaymentLedger{client: client, ttl: ttl}
}

// Claim 首次出现的 paymentID 返回 true
func (l *PaymentLedger) Claim(ctx context.Context, paymentID, userID string) (bool, error) {
	return l.client.SetNX(ctx, "payment:processed:"+paymentID, userID, l.ttl)
}

// Forget 应用失败时撤销占位，允许重试
func (l *PaymentLedger) Forget(ctx context.Context, paymentID string) error {
	return l.client.Del(ctx, "payment:processed:"+paymentID)
}
