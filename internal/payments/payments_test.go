package payments

import (
	"context"
	"testing"
)

func TestCashOnDeliveryAlwaysVerifies(t *testing.T) {
	gw := CashOnDelivery{}
	if !gw.Verify(context.Background(), VerifyPayload{}) {
		t.Fatal("expected cash-on-delivery to verify unconditionally")
	}

	data, err := gw.CreateCharge(context.Background(), "order-1", 250, "")
	if err != nil {
		t.Fatalf("CreateCharge returned error: %v", err)
	}
	if data.GatewayOrderID != "order-1" || data.Amount != 250 {
		t.Fatalf("unexpected checkout data: %+v", data)
	}
}

func TestRestGatewayVerifySignature(t *testing.T) {
	gw := NewRestGateway("https://pay.example", "key", "secret")

	good := VerifyPayload{
		GatewayOrderID:   "ord_123",
		GatewayPaymentID: "pay_456",
		Signature:        signPayload("secret", "ord_123|pay_456"),
	}
	if !gw.Verify(context.Background(), good) {
		t.Fatal("expected valid signature to verify")
	}

	bad := good
	bad.Signature = signPayload("wrong-secret", "ord_123|pay_456")
	if gw.Verify(context.Background(), bad) {
		t.Fatal("expected signature from wrong secret to fail")
	}

	if gw.Verify(context.Background(), VerifyPayload{}) {
		t.Fatal("expected empty payload to fail verification")
	}
}
