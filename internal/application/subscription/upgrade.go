package subscription

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/domain/repository"
	"storyforge-ai-api/internal/infrastructure/payment/razorpay"
	"storyforge-ai-api/pkg/logger"
	"storyforge-ai-api/pkg/metrics"
)

var (
	// ErrInvalidBillingPeriod 计费周期不是 monthly/yearly
	ErrInvalidBillingPeriod = errors.New("invalid billing period")
	// ErrPaymentReplayed 同一笔支付已被应用
	ErrPaymentReplayed = errors.New("payment already processed")
	// ErrOrderNotFound 订单不是本服务创建或已过期
	ErrOrderNotFound = errors.New("payment order not found")
	// ErrOrderMismatch 回调中的用户、计划或周期与下单时不一致
	ErrOrderMismatch = errors.New("payment order does not match request")
)

// PaymentVerifier 支付回调签名校验
type PaymentVerifier interface {
	Verify(orderID, paymentID, signature string) error
}

// PaymentLedger 已处理支付的幂等记录
type PaymentLedger interface {
	Claim(ctx context.Context, paymentID, userID string) (bool, error)
	Forget(ctx context.Context, paymentID string) error
}

// OrderCreator 在支付网关创建订单
type OrderCreator interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*razorpay.Order, error)
	KeyID() string
}

// OrderStore 待支付订单，记录下单时绑定的计划与周期
type OrderStore interface {
	Save(ctx context.Context, order *entity.PaymentOrder) error
	Load(ctx context.Context, orderID string) (*entity.PaymentOrder, error)
	Delete(ctx context.Context, orderID string) error
}

// OrderInput 下单请求
type OrderInput struct {
	UserID        string
	PlanID        string
	BillingPeriod string
}

// CreatedOrder 下单结果
type CreatedOrder struct {
	Order *entity.PaymentOrder
	KeyID string
}

// UpgradeInput 支付成功回调，PlanID/BillingPeriod 可省略，填写时须与订单一致
type UpgradeInput struct {
	UserID        string
	OrderID       string
	PaymentID     string
	Signature     string
	PlanID        string
	BillingPeriod string
}

// Service 订阅升级服务
type Service struct {
	catalog  *Catalog
	resolver *Resolver
	users    repository.UserRepository
	verifier PaymentVerifier
	ledger   PaymentLedger
	gateway  OrderCreator
	orders   OrderStore
	now      func() time.Time
}

func NewService(catalog *Catalog, resolver *Resolver, users repository.UserRepository, verifier PaymentVerifier, ledger PaymentLedger, gateway OrderCreator, orders OrderStore) *Service {
	return &Service{
		catalog:  catalog,
		resolver: resolver,
		users:    users,
		verifier: verifier,
		ledger:   ledger,
		gateway:  gateway,
		orders:   orders,
		now:      time.Now,
	}
}

// Plans 返回公开计划列表
func (s *Service) Plans() []entity.Plan {
	return s.catalog.Public()
}

// CreateOrder 按计划价格在支付网关下单，并记录订单绑定的计划与周期
func (s *Service) CreateOrder(ctx context.Context, in OrderInput) (*CreatedOrder, error) {
	plan, err := s.catalog.Purchasable(in.PlanID)
	if err != nil {
		return nil, err
	}
	period, err := parsePeriod(in.BillingPeriod)
	if err != nil {
		return nil, err
	}
	amount := int64(math.Round(plan.Price(period) * 100))
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %s has no %s price", ErrUnknownPlan, plan.ID, period)
	}
	currency := plan.Currency
	if currency == "" {
		currency = "INR"
	}

	order, err := s.gateway.CreateOrder(ctx, amount, currency, in.UserID, map[string]string{
		"user_id":        in.UserID,
		"plan_id":        string(plan.ID),
		"billing_period": string(period),
	})
	if err != nil {
		return nil, fmt.Errorf("create payment order: %w", err)
	}

	pending := &entity.PaymentOrder{
		OrderID:       order.ID,
		UserID:        in.UserID,
		PlanID:        plan.ID,
		BillingPeriod: period,
		Amount:        order.Amount,
		Currency:      order.Currency,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.orders.Save(ctx, pending); err != nil {
		return nil, fmt.Errorf("save payment order: %w", err)
	}

	logger.Info(ctx, "payment order created",
		"order_id", order.ID,
		"plan", plan.ID,
		"billing_period", period,
		"amount", order.Amount,
	)
	return &CreatedOrder{Order: pending, KeyID: s.gateway.KeyID()}, nil
}

// Upgrade 校验支付签名后将订单绑定的计划写入用户行，返回新的额度
func (s *Service) Upgrade(ctx context.Context, in UpgradeInput) (entity.Limits, error) {
	order, err := s.orders.Load(ctx, in.OrderID)
	if err != nil {
		return entity.Limits{}, fmt.Errorf("load payment order: %w", err)
	}
	if order == nil {
		logger.Warn(ctx, "unknown payment order", "order_id", in.OrderID)
		return entity.Limits{}, ErrOrderNotFound
	}
	if err := matchOrder(order, in); err != nil {
		logger.Warn(ctx, "payment order mismatch", "order_id", in.OrderID, "error", err.Error())
		return entity.Limits{}, err
	}

	plan, err := s.catalog.Purchasable(string(order.PlanID))
	if err != nil {
		return entity.Limits{}, err
	}
	period := order.BillingPeriod

	if err := s.verifier.Verify(in.OrderID, in.PaymentID, in.Signature); err != nil {
		logger.Warn(ctx, "payment signature rejected", "order_id", in.OrderID, "plan", plan.ID)
		return entity.Limits{}, err
	}

	if s.ledger != nil {
		first, err := s.ledger.Claim(ctx, in.PaymentID, in.UserID)
		if err != nil {
			return entity.Limits{}, fmt.Errorf("claim payment: %w", err)
		}
		if !first {
			return entity.Limits{}, ErrPaymentReplayed
		}
	}

	start := s.now().UTC()
	end := PeriodEnd(start, period)
	update := repository.SubscriptionUpdate{
		Status:    string(plan.ID),
		Plan:      fmt.Sprintf("%s_%s", plan.ID, period),
		StartDate: start,
		EndDate:   end,
	}
	if err := s.users.ApplySubscription(ctx, in.UserID, update); err != nil {
		if s.ledger != nil {
			if ferr := s.ledger.Forget(ctx, in.PaymentID); ferr != nil {
				logger.Error(ctx, "failed to release payment claim", ferr, "payment_id", in.PaymentID)
			}
		}
		return entity.Limits{}, err
	}

	if err := s.orders.Delete(ctx, in.OrderID); err != nil {
		logger.Warn(ctx, "failed to remove redeemed order", "order_id", in.OrderID, "error", err.Error())
	}

	metrics.SubscriptionUpgrades.WithLabelValues(string(plan.ID), string(period)).Inc()
	logger.Info(ctx, "subscription upgraded",
		"plan", plan.ID,
		"billing_period", period,
		"order_id", in.OrderID,
		"payment_id", in.PaymentID,
		"ends_at", end,
	)

	user := &entity.User{SubscriptionStatus: update.Status, SubscriptionEndDate: &end}
	return s.resolver.Resolve(user, start), nil
}

func parsePeriod(raw string) (entity.BillingPeriod, error) {
	period := entity.BillingPeriod(strings.ToLower(strings.TrimSpace(raw)))
	if period == "" {
		return entity.BillingMonthly, nil
	}
	if period != entity.BillingMonthly && period != entity.BillingYearly {
		return "", fmt.Errorf("%w: %q", ErrInvalidBillingPeriod, raw)
	}
	return period, nil
}

// matchOrder 订单只能由下单用户兑现，请求携带的计划与周期不得改写订单
func matchOrder(order *entity.PaymentOrder, in UpgradeInput) error {
	if order.UserID != in.UserID {
		return fmt.Errorf("%w: order belongs to another user", ErrOrderMismatch)
	}
	if plan := strings.ToLower(strings.TrimSpace(in.PlanID)); plan != "" && entity.Tier(plan) != order.PlanID {
		return fmt.Errorf("%w: plan %q, ordered %q", ErrOrderMismatch, plan, order.PlanID)
	}
	if strings.TrimSpace(in.BillingPeriod) != "" {
		period, err := parsePeriod(in.BillingPeriod)
		if err != nil {
			return err
		}
		if period != order.BillingPeriod {
			return fmt.Errorf("%w: period %q, ordered %q", ErrOrderMismatch, period, order.BillingPeriod)
		}
	}
	return nil
}

// PeriodEnd 计算订阅结束时间
func PeriodEnd(start time.Time, period entity.BillingPeriod) time.Time {
	if period == entity.BillingYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}
