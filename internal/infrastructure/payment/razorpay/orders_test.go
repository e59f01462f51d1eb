package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge-ai-api/internal/config"
)

func TestCreateOrder(t *testing.T) {
	var got createOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "test_secret", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_IluGWxBm9U8zJ8","amount":99900,"currency":"INR","receipt":"u1","status":"created"}`))
	}))
	defer srv.Close()

	c := NewOrderClient(&config.RazorpayConfig{KeyID: "rzp_test_key", KeySecret: "test_secret", BaseURL: srv.URL + "/"})
	order, err := c.CreateOrder(context.Background(), 99900, "INR", "u1", map[string]string{"plan_id": "pro"})
	require.NoError(t, err)

	assert.Equal(t, "order_IluGWxBm9U8zJ8", order.ID)
	assert.Equal(t, int64(99900), order.Amount)
	assert.Equal(t, int64(99900), got.Amount)
	assert.Equal(t, "INR", got.Currency)
	assert.Equal(t, "pro", got.Notes["plan_id"])
	assert.Equal(t, "rzp_test_key", c.KeyID())
}

func TestCreateOrderUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The amount must be atleast INR 1.00"}}`))
	}))
	defer srv.Close()

	c := NewOrderClient(&config.RazorpayConfig{KeyID: "k", KeySecret: "s", BaseURL: srv.URL})
	_, err := c.CreateOrder(context.Background(), 50, "INR", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")
	assert.Contains(t, err.Error(), "BAD_REQUEST_ERROR")
}

func TestCreateOrderNotConfigured(t *testing.T) {
	c := NewOrderClient(&config.RazorpayConfig{})
	_, err := c.CreateOrder(context.Background(), 100, "INR", "", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, defaultBaseURL, c.baseURL)
}
