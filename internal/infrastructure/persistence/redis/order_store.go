package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storyforge-ai-api/internal/domain/entity"
)

const orderKeyPrefix = "payment:order:"

// OrderStore 保存待支付订单与其绑定的计划、周期、金额
type OrderStore struct {
	client *Client
	ttl    time.Duration
}

func NewOrderStore(client *Client, ttl time.Duration) *OrderStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &OrderStore{client: client, ttl: ttl}
}

// Save 写入订单，同一 order_id 只接受第一次写入
func (s *OrderStore) Save(ctx context.Context, order *entity.PaymentOrder) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	ok, err := s.client.SetNX(ctx, orderKeyPrefix+order.OrderID, data, s.ttl)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("order %s already exists", order.OrderID)
	}
	return nil
}

// Load 订单不存在或已过期时返回 nil
func (s *OrderStore) Load(ctx context.Context, orderID string) (*entity.PaymentOrder, error) {
	raw, err := s.client.Redis().Get(ctx, orderKeyPrefix+orderID).Bytes()
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	var order entity.PaymentOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}
	return &order, nil
}

// Delete 订单兑现后移除
func (s *OrderStore) Delete(ctx context.Context, orderID string) error {
	return s.client.Del(ctx, orderKeyPrefix+orderID)
}
