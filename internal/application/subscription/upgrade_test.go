package subscription

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/domain/repository"
	"storyforge-ai-api/internal/infrastructure/payment/razorpay"
)

var errBadSignature = errors.New("bad signature")

type stubVerifier struct{ err error }

func (v stubVerifier) Verify(orderID, paymentID, signature string) error { return v.err }

type recordingUsers struct {
	repository.UserRepository
	userID string
	update *repository.SubscriptionUpdate
}

func (r *recordingUsers) ApplySubscription(_ context.Context, id string, update repository.SubscriptionUpdate) error {
	r.userID = id
	r.update = &update
	return nil
}

type memLedger struct {
	claimed map[string]string
}

func (l *memLedger) Claim(_ context.Context, paymentID, userID string) (bool, error) {
	if _, ok := l.claimed[paymentID]; ok {
		return false, nil
	}
	l.claimed[paymentID] = userID
	return true, nil
}

func (l *memLedger) Forget(_ context.Context, paymentID string) error {
	delete(l.claimed, paymentID)
	return nil
}

type fakeGateway struct {
	seq    int
	amount int64
	notes  map[string]string
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, _ string, notes map[string]string) (*razorpay.Order, error) {
	g.seq++
	g.amount = amount
	g.notes = notes
	return &razorpay.Order{ID: fmt.Sprintf("order_%d", g.seq), Amount: amount, Currency: currency, Status: "created"}, nil
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

type memOrders struct {
	orders map[string]entity.PaymentOrder
}

func (m *memOrders) Save(_ context.Context, order *entity.PaymentOrder) error {
	m.orders[order.OrderID] = *order
	return nil
}

func (m *memOrders) Load(_ context.Context, orderID string) (*entity.PaymentOrder, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *memOrders) Delete(_ context.Context, orderID string) error {
	delete(m.orders, orderID)
	return nil
}

type testEnv struct {
	svc     *Service
	users   *recordingUsers
	gateway *fakeGateway
	orders  *memOrders
}

func newTestService(t *testing.T, verifyErr error) *testEnv {
	t.Helper()
	catalog, err := NewCatalog(testPlans())
	require.NoError(t, err)
	env := &testEnv{
		users:   &recordingUsers{},
		gateway: &fakeGateway{},
		orders:  &memOrders{orders: map[string]entity.PaymentOrder{}},
	}
	ledger := &memLedger{claimed: map[string]string{}}
	env.svc = NewService(catalog, NewResolver(catalog), env.users, stubVerifier{err: verifyErr}, ledger, env.gateway, env.orders)
	env.svc.now = func() time.Time { return time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC) }
	return env
}

func (e *testEnv) order(t *testing.T, userID, plan, period string) string {
	t.Helper()
	created, err := e.svc.CreateOrder(context.Background(), OrderInput{UserID: userID, PlanID: plan, BillingPeriod: period})
	require.NoError(t, err)
	return created.Order.OrderID
}

func TestCreateOrderBindsPlanAndPrice(t *testing.T) {
	env := newTestService(t, nil)

	created, err := env.svc.CreateOrder(context.Background(), OrderInput{UserID: "u1", PlanID: " Pro ", BillingPeriod: "yearly"})
	require.NoError(t, err)

	assert.Equal(t, "rzp_test_key", created.KeyID)
	assert.Equal(t, int64(1499000), env.gateway.amount)
	assert.Equal(t, "pro", env.gateway.notes["plan_id"])

	stored, ok := env.orders.orders[created.Order.OrderID]
	require.True(t, ok)
	assert.Equal(t, "u1", stored.UserID)
	assert.Equal(t, entity.TierPro, stored.PlanID)
	assert.Equal(t, entity.BillingYearly, stored.BillingPeriod)
	assert.Equal(t, int64(1499000), stored.Amount)
	assert.Equal(t, "INR", stored.Currency)
}

func TestCreateOrderRejections(t *testing.T) {
	env := newTestService(t, nil)

	_, err := env.svc.CreateOrder(context.Background(), OrderInput{UserID: "u1", PlanID: "admin"})
	assert.ErrorIs(t, err, ErrUnknownPlan)

	_, err = env.svc.CreateOrder(context.Background(), OrderInput{UserID: "u1", PlanID: "pro", BillingPeriod: "weekly"})
	assert.ErrorIs(t, err, ErrInvalidBillingPeriod)

	assert.Empty(t, env.orders.orders)
	assert.Zero(t, env.gateway.seq)
}

func TestUpgradeAppliesPlan(t *testing.T) {
	env := newTestService(t, nil)
	orderID := env.order(t, "u1", "pro", "yearly")

	limits, err := env.svc.Upgrade(context.Background(), UpgradeInput{
		UserID:        "u1",
		OrderID:       orderID,
		PaymentID:     "pay_1",
		Signature:     "sig",
		PlanID:        "pro",
		BillingPeriod: "yearly",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TierPro, limits.Tier)
	assert.EqualValues(t, 500000, limits.TokenLimit)

	require.NotNil(t, env.users.update)
	assert.Equal(t, "u1", env.users.userID)
	assert.Equal(t, "pro", env.users.update.Status)
	assert.Equal(t, "pro_yearly", env.users.update.Plan)
	assert.Equal(t, time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC), env.users.update.EndDate)
	assert.NotContains(t, env.orders.orders, orderID, "redeemed order is removed")
}

func TestUpgradeUsesOrderedPlanWhenOmitted(t *testing.T) {
	env := newTestService(t, nil)
	orderID := env.order(t, "u1", "hobby", "")

	_, err := env.svc.Upgrade(context.Background(), UpgradeInput{UserID: "u1", OrderID: orderID, PaymentID: "pay_2"})
	require.NoError(t, err)
	assert.Equal(t, "hobby_monthly", env.users.update.Plan)
	assert.Equal(t, time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC), env.users.update.EndDate)
}

func TestUpgradeRejectsPlanNotBoundToOrder(t *testing.T) {
	env := newTestService(t, nil)
	orderID := env.order(t, "u1", "hobby", "monthly")

	tests := []struct {
		name string
		in   UpgradeInput
	}{
		{"cheaper order redeemed as pro", UpgradeInput{UserID: "u1", OrderID: orderID, PaymentID: "pay_1", PlanID: "pro"}},
		{"monthly order redeemed as yearly", UpgradeInput{UserID: "u1", OrderID: orderID, PaymentID: "pay_1", PlanID: "hobby", BillingPeriod: "yearly"}},
		{"order redeemed by another user", UpgradeInput{UserID: "u2", OrderID: orderID, PaymentID: "pay_1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Upgrade(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrOrderMismatch)
			assert.Nil(t, env.users.update)
		})
	}
	assert.Contains(t, env.orders.orders, orderID, "a rejected redemption keeps the order")
}

func TestUpgradeRejections(t *testing.T) {
	t.Run("bad signature", func(t *testing.T) {
		env := newTestService(t, errBadSignature)
		orderID := env.order(t, "u1", "pro", "")
		_, err := env.svc.Upgrade(context.Background(), UpgradeInput{UserID: "u1", OrderID: orderID})
		assert.ErrorIs(t, err, errBadSignature)
		assert.Nil(t, env.users.update)
	})

	t.Run("unknown order", func(t *testing.T) {
		env := newTestService(t, nil)
		_, err := env.svc.Upgrade(context.Background(), UpgradeInput{UserID: "u1", OrderID: "order_forged", PaymentID: "pay_1", PlanID: "pro"})
		assert.ErrorIs(t, err, ErrOrderNotFound)
		assert.Nil(t, env.users.update)
	})

	t.Run("bad billing period", func(t *testing.T) {
		env := newTestService(t, nil)
		orderID := env.order(t, "u1", "pro", "")
		_, err := env.svc.Upgrade(context.Background(), UpgradeInput{UserID: "u1", OrderID: orderID, BillingPeriod: "weekly"})
		assert.ErrorIs(t, err, ErrInvalidBillingPeriod)
		assert.Nil(t, env.users.update)
	})
}

func TestUpgradeRejectsReplayedPayment(t *testing.T) {
	env := newTestService(t, nil)
	first := env.order(t, "u1", "pro", "")
	second := env.order(t, "u1", "pro", "")

	_, err := env.svc.Upgrade(context.Background(), UpgradeInput{UserID: "u1", OrderID: first, PaymentID: "pay_1"})
	require.NoError(t, err)
	env.users.update = nil

	_, err = env.svc.Upgrade(context.Background(), UpgradeInput{UserID: "u1", OrderID: second, PaymentID: "pay_1"})
	assert.ErrorIs(t, err, ErrPaymentReplayed)
	assert.Nil(t, env.users.update)

	_, err = env.svc.Upgrade(context.Background(), UpgradeInput{UserID: "u1", OrderID: first, PaymentID: "pay_1"})
	assert.ErrorIs(t, err, ErrOrderNotFound, "a redeemed order cannot be reused")
}
