// Package razorpay 创建 Razorpay 订单并校验支付成功回调
package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	// ErrInvalidSignature 签名与订单/支付不匹配
	ErrInvalidSignature = errors.New("invalid payment signature")
	// ErrNotConfigured 未配置 key_secret
	ErrNotConfigured = errors.New("razorpay key secret is not configured")
)

// Verifier 校验 hex(HMAC-SHA256(key_secret, order_id + "|" + payment_id))
type Verifier struct {
	secret []byte
}

func NewVerifier(keySecret string) *Verifier {
	return &Verifier{secret: []byte(keySecret)}
}

// Verify 比较回调中的签名，使用常量时间比较
func (v *Verifier) Verify(orderID, paymentID, signature string) error {
	if len(v.secret) == 0 {
		return ErrNotConfigured
	}
	if orderID == "" || paymentID == "" || signature == "" {
		return ErrInvalidSignature
	}
	expected := Sign(v.secret, orderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign 计算签名
func Sign(secret []byte, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
