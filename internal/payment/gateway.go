package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// GatewayOrder is the gateway-side order minted for a checkout.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Gateway abstracts the payment provider. Amounts are integer minor
// currency units. Calls are not retried here; retry policy, if any,
// belongs to the SDK.
type Gateway interface {
	CreateOrder(amountMinor int64, currency, receipt string) (GatewayOrder, error)
	Refund(paymentID string, amountMinor int64) (string, error)
}

// RazorpayGateway is the production Gateway backed by the Razorpay SDK.
type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

func (g *RazorpayGateway) CreateOrder(amountMinor int64, currency, receipt string) (GatewayOrder, error) {
	data := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}
	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return GatewayOrder{}, fmt.Errorf("razorpay create order: %w", err)
	}

	id, ok := body["id"].(string)
	if !ok {
		return GatewayOrder{}, errors.New("razorpay create order: response missing id")
	}
	return GatewayOrder{ID: id, Amount: amountMinor, Currency: currency}, nil
}

func (g *RazorpayGateway) Refund(paymentID string, amountMinor int64) (string, error) {
	body, err := g.client.Payment.Refund(paymentID, int(amountMinor), nil, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay refund: %w", err)
	}

	id, ok := body["id"].(string)
	if !ok {
		return "", errors.New("razorpay refund: response missing id")
	}
	return id, nil
}

// VerifySignature checks the signature of the browser-redirect payment
// confirmation: HMAC-SHA256 over "<gatewayOrderID>|<paymentID>" keyed by
// the gateway key secret, hex encoded, compared in constant time.
func VerifySignature(gatewayOrderID, paymentID, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks a webhook delivery: HMAC-SHA256 over the
// exact raw request body, keyed by the webhook secret.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
