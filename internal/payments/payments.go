package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// CheckoutData is what the client needs to complete an online payment.
type CheckoutData struct {
	GatewayOrderID string  `json:"gatewayOrderId"`
	CheckoutURL    string  `json:"checkoutUrl,omitempty"`
	KeyID          string  `json:"keyId,omitempty"`
	Amount         float64 `json:"amount"`
}

// VerifyPayload is the provider callback the client posts back after paying.
type VerifyPayload struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	Signature        string `json:"signature"`
}

// Gateway is the payment collaborator contract. Cash-on-delivery and the
// online provider are interchangeable behind it.
type Gateway interface {
	CreateCharge(ctx context.Context, orderID string, amount float64, contact string) (CheckoutData, error)
	Verify(ctx context.Context, payload VerifyPayload) bool
	Cancel(ctx context.Context, gatewayOrderID string) error
}

// CashOnDelivery is the no-op gateway: nothing to charge, always verified.
type CashOnDelivery struct{}

func (CashOnDelivery) CreateCharge(_ context.Context, orderID string, amount float64, _ string) (CheckoutData, error) {
	return CheckoutData{GatewayOrderID: orderID, Amount: amount}, nil
}

func (CashOnDelivery) Verify(context.Context, VerifyPayload) bool { return true }

func (CashOnDelivery) Cancel(context.Context, string) error { return nil }

// RestGateway wraps an HMAC-signed REST payment provider. Charge creation is a
// POST to /orders; verification checks the provider signature locally.
type RestGateway struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
}

func NewRestGateway(baseURL, keyID, keySecret string) *RestGateway {
	return &RestGateway{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type createChargeRequest struct {
	Receipt string `json:"receipt"`
	Amount  int64  `json:"amount"`
	Contact string `json:"contact,omitempty"`
}

type createChargeResponse struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

func (g *RestGateway) CreateCharge(ctx context.Context, orderID string, amount float64, contact string) (CheckoutData, error) {
	// Providers bill in minor currency units.
	payload := createChargeRequest{
		Receipt: orderID,
		Amount:  int64(amount * 100),
		Contact: contact,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return CheckoutData{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return CheckoutData{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return CheckoutData{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return CheckoutData{}, fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var created createChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return CheckoutData{}, err
	}

	return CheckoutData{
		GatewayOrderID: created.ID,
		CheckoutURL:    created.CheckoutURL,
		KeyID:          g.keyID,
		Amount:         amount,
	}, nil
}

// Verify checks the provider's HMAC-SHA256 signature over
// "<gatewayOrderId>|<gatewayPaymentId>".
func (g *RestGateway) Verify(_ context.Context, payload VerifyPayload) bool {
	if payload.GatewayOrderID == "" || payload.GatewayPaymentID == "" || payload.Signature == "" {
		return false
	}
	expected := signPayload(g.keySecret, payload.GatewayOrderID+"|"+payload.GatewayPaymentID)
	return hmac.Equal([]byte(expected), []byte(payload.Signature))
}

func (g *RestGateway) Cancel(ctx context.Context, gatewayOrderID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders/"+gatewayOrderID+"/cancel", nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("payment gateway cancel returned status %d", resp.StatusCode)
	}
	return nil
}

func signPayload(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
