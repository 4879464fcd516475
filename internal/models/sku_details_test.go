package models

import (
	"errors"
	"testing"
)

func TestNewSkuDetails_Subscription(t *testing.T) {
	raw := `{"productId":"com.foo.package.sku","type":"subs","price":"$4.99","price_amount_micros":"4990000","price_currency_code":"USD","title":"Foo","description":"So much Foo","subscriptionPeriod":"P1W","freeTrialPeriod":"P1W"}`

	d, err := NewSkuDetails(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.SKU != "com.foo.package.sku" || d.Type != SkuTypeSubs {
		t.Errorf("unexpected identity: %q %q", d.SKU, d.Type)
	}
	if d.Price != "$4.99" || d.PriceAmountMicros != 4990000 || d.PriceCurrencyCode != "USD" {
		t.Errorf("unexpected price: %+v", d)
	}
	if d.SubscriptionPeriod != "P1W" || d.FreeTrialPeriod != "P1W" {
		t.Errorf("unexpected periods: %q %q", d.SubscriptionPeriod, d.FreeTrialPeriod)
	}
}

func TestNewSkuDetails_NumericMicros(t *testing.T) {
	d, err := NewSkuDetails(`{"productId":"x","type":"inapp","price_amount_micros":14990000}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.PriceAmountMicros != 14990000 {
		t.Fatalf("micros mismatch: %d", d.PriceAmountMicros)
	}
	if d.SubscriptionPeriod != "" {
		t.Fatalf("in-app product should have no period")
	}
}

func TestNewSkuDetails_Invalid(t *testing.T) {
	if _, err := NewSkuDetails(`[]`); !errors.Is(err, ErrInvalidSkuDetailsJSON) {
		t.Fatalf("expected ErrInvalidSkuDetailsJSON, got %v", err)
	}
	if _, err := NewSkuDetails(`{"productId":"x","price_amount_micros":"1.5"}`); !errors.Is(err, ErrInvalidSkuDetailsJSON) {
		t.Fatalf("expected ErrInvalidSkuDetailsJSON, got %v", err)
	}
	if _, err := NewSkuDetails(`null`); !errors.Is(err, ErrInvalidSkuDetailsJSON) {
		t.Fatalf("null details must be rejected, got %v", err)
	}
}

func TestParseSkuType(t *testing.T) {
	for _, raw := range []string{"inapp", "subs"} {
		if _, err := ParseSkuType(raw); err != nil {
			t.Errorf("%q: unexpected error %v", raw, err)
		}
	}
	if _, err := ParseSkuType("com.foo"); !errors.Is(err, ErrUnknownSkuType) {
		t.Fatalf("expected ErrUnknownSkuType, got %v", err)
	}
}

func TestResponseCodeString(t *testing.T) {
	if ServiceDisconnected.String() != "SERVICE_DISCONNECTED" {
		t.Errorf("unexpected name %q", ServiceDisconnected.String())
	}
	if ResponseCode(42).String() != "RESPONSE_CODE(42)" {
		t.Errorf("unexpected fallback %q", ResponseCode(42).String())
	}
}
