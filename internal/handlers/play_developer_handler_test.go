package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bmizerany/pat"
	"google.golang.org/api/googleapi"

	"billingx/internal/models"
	"billingx/internal/repositories"
	"billingx/internal/services"
)

const playPrefix = "/androidpublisher/v3/applications/:packageName/purchases"

// purchaseTime of the default fixtures.
var seededAt = time.UnixMilli(1514764800000)

func newPlayServer(t *testing.T, now time.Time) *httptest.Server {
	t.Helper()
	svc, err := services.NewPlayDeveloperService(
		repositories.NewMemoryStore(repositories.DefaultSeed()),
		func() time.Time { return now },
	)
	if err != nil {
		t.Fatalf("new play service: %v", err)
	}
	h := NewPlayDeveloperHandler(svc)

	mux := pat.New()
	mux.Get(playPrefix+"/products/:productId/tokens/:token", http.HandlerFunc(h.GetProduct))
	mux.Post(playPrefix+"/products/:productId/tokens/:token", http.HandlerFunc(h.PostProduct))
	mux.Get(playPrefix+"/subscriptions/:subscriptionId/tokens/:token", http.HandlerFunc(h.GetSubscription))
	mux.Post(playPrefix+"/subscriptions/:subscriptionId/tokens/:token", http.HandlerFunc(h.PostSubscription))

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newVerifier(t *testing.T, ts *httptest.Server, packageName string, now time.Time) *services.PlayVerifier {
	t.Helper()
	v, err := services.NewPlayVerifier(context.Background(), services.PlayVerifierConfig{
		PackageName: packageName,
		Endpoint:    ts.URL + "/",
		HTTPClient:  ts.Client(),
		Now:         func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return v
}

func expectNotFound(t *testing.T, err error) {
	t.Helper()
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected googleapi error, got %v", err)
	}
	if gerr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (%s)", gerr.Code, gerr.Message)
	}
}

func TestPlayDeveloperHandler_Products(t *testing.T) {
	now := seededAt.Add(24 * time.Hour)
	ts := newPlayServer(t, now)
	ctx := context.Background()
	foo := newVerifier(t, ts, "com.foo.package", now)

	t.Run("get", func(t *testing.T) {
		p, err := foo.Verify(ctx, models.SkuTypeInApp, "com.foo.package.sku", "1234567890")
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if p.OrderID != "foo-1234" || p.PurchaseState != 0 || p.Status != models.StatusActive || p.Consumed || p.Acknowledged {
			t.Fatalf("unexpected purchase: %+v", p)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := foo.Verify(ctx, models.SkuTypeInApp, "com.foo.package.sku", "missing")
		expectNotFound(t, err)
	})

	t.Run("other package", func(t *testing.T) {
		_, err := foo.Verify(ctx, models.SkuTypeInApp, "com.bar.package.sku", "0987654321")
		expectNotFound(t, err)
	})

	t.Run("acknowledge", func(t *testing.T) {
		if err := foo.Acknowledge(ctx, models.SkuTypeInApp, "com.foo.package.sku", "1234567890"); err != nil {
			t.Fatalf("acknowledge: %v", err)
		}
		expectNotFound(t, foo.Acknowledge(ctx, models.SkuTypeInApp, "com.foo.package.sku", "missing"))

		p, err := foo.Verify(ctx, models.SkuTypeInApp, "com.foo.package.sku", "1234567890")
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if !p.Acknowledged || p.Consumed {
			t.Fatalf("expected acknowledged, unconsumed purchase: %+v", p)
		}
	})

	t.Run("consume", func(t *testing.T) {
		if err := foo.Consume(ctx, "com.foo.package.sku", "1234567890"); err != nil {
			t.Fatalf("consume: %v", err)
		}
		expectNotFound(t, foo.Consume(ctx, "com.foo.package.sku", "missing"))

		p, err := foo.Verify(ctx, models.SkuTypeInApp, "com.foo.package.sku", "1234567890")
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if !p.Consumed {
			t.Fatalf("expected consumed purchase: %+v", p)
		}
	})
}

func TestPlayDeveloperHandler_Subscriptions(t *testing.T) {
	now := seededAt.Add(10 * 24 * time.Hour)
	ts := newPlayServer(t, now)
	ctx := context.Background()

	t.Run("auto renewing weekly", func(t *testing.T) {
		v := newVerifier(t, ts, "com.foo.package", now)
		p, err := v.Verify(ctx, models.SkuTypeSubs, "com.foo.package.sku", "1234567890")
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if p.Status != models.StatusActive || !p.AutoRenewing {
			t.Fatalf("expected active renewing subscription, got %+v", p)
		}
		if want := seededAt.AddDate(0, 0, 14).UnixMilli(); p.ExpiryTimeMillis != want {
			t.Fatalf("expiry: want %d, got %d", want, p.ExpiryTimeMillis)
		}
		if p.PaymentState == nil || *p.PaymentState != 1 {
			t.Fatalf("expected payment received, got %v", p.PaymentState)
		}
		if err := v.Acknowledge(ctx, models.SkuTypeSubs, "com.foo.package.sku", "1234567890"); err != nil {
			t.Fatalf("acknowledge: %v", err)
		}
	})

	t.Run("cancelled monthly", func(t *testing.T) {
		v := newVerifier(t, ts, "com.bar.package", now)
		p, err := v.Verify(ctx, models.SkuTypeSubs, "com.bar.package.sku", "0987654321")
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if p.Status != models.StatusCanceled || p.AutoRenewing || !p.Entitled() {
			t.Fatalf("expected cancelled subscription, got %+v", p)
		}
		if want := seededAt.AddDate(0, 1, 0).UnixMilli(); p.ExpiryTimeMillis != want {
			t.Fatalf("expiry: want %d, got %d", want, p.ExpiryTimeMillis)
		}
	})

	t.Run("expired", func(t *testing.T) {
		later := seededAt.AddDate(1, 0, 0)
		v := newVerifier(t, newPlayServer(t, later), "com.bar.package", later)
		p, err := v.Verify(ctx, models.SkuTypeSubs, "com.bar.package.sku", "0987654321")
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if p.Status != models.StatusExpired || p.PurchaseState != 1 || p.Entitled() {
			t.Fatalf("expected expired subscription, got %+v", p)
		}
	})

	t.Run("in-app token is not a subscription", func(t *testing.T) {
		v := newVerifier(t, ts, "com.foo.package", now)
		_, err := v.Verify(ctx, models.SkuTypeSubs, "com.baz.package.sku", "1234567890")
		expectNotFound(t, err)
	})
}

func TestPlayDeveloperHandler_UnknownMethod(t *testing.T) {
	ts := newPlayServer(t, seededAt)
	resp, err := ts.Client().Post(ts.URL+"/androidpublisher/v3/applications/com.foo.package/purchases/products/com.foo.package.sku/tokens/1234567890:refund", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPlayDeveloperHandler_SubscriptionsCannotBeConsumed(t *testing.T) {
	ts := newPlayServer(t, seededAt)
	resp, err := ts.Client().Post(ts.URL+"/androidpublisher/v3/applications/com.foo.package/purchases/subscriptions/com.foo.package.sku/tokens/1234567890:consume", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestSplitCustomMethod(t *testing.T) {
	cases := []struct {
		raw, token, method string
	}{
		{"abc:acknowledge", "abc", "acknowledge"},
		{"abc:consume", "abc", "consume"},
		{"abc", "abc", ""},
		{"a:b:consume", "a:b", "consume"},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			token, method := splitCustomMethod(tc.raw)
			if token != tc.token || method != tc.method {
				t.Fatalf("expected %q %q, got %q %q", tc.token, tc.method, token, method)
			}
		})
	}
}

func TestPlayVerifier_Redeem(t *testing.T) {
	now := seededAt.Add(24 * time.Hour)
	ctx := context.Background()

	t.Run("acknowledges once", func(t *testing.T) {
		v := newVerifier(t, newPlayServer(t, now), "com.foo.package", now)
		p, err := v.Redeem(ctx, models.SkuTypeInApp, "com.foo.package.sku", "1234567890", false)
		if err != nil {
			t.Fatalf("redeem: %v", err)
		}
		if !p.Acknowledged || p.Consumed {
			t.Fatalf("unexpected purchase: %+v", p)
		}
		again, err := v.Verify(ctx, models.SkuTypeInApp, "com.foo.package.sku", "1234567890")
		if err != nil || !again.Acknowledged {
			t.Fatalf("acknowledgement not stored: %+v %v", again, err)
		}
	})

	t.Run("consumes in-app", func(t *testing.T) {
		v := newVerifier(t, newPlayServer(t, now), "com.foo.package", now)
		p, err := v.Redeem(ctx, models.SkuTypeInApp, "com.foo.package.sku", "1234567890", true)
		if err != nil {
			t.Fatalf("redeem: %v", err)
		}
		if !p.Consumed || !p.Acknowledged {
			t.Fatalf("unexpected purchase: %+v", p)
		}
		if _, err := v.Redeem(ctx, models.SkuTypeInApp, "com.foo.package.sku", "1234567890", true); err != nil {
			t.Fatalf("second redeem: %v", err)
		}
	})

	t.Run("subscriptions are not consumable", func(t *testing.T) {
		v := newVerifier(t, newPlayServer(t, now), "com.foo.package", now)
		_, err := v.Redeem(ctx, models.SkuTypeSubs, "com.foo.package.sku", "1234567890", true)
		if !errors.Is(err, services.ErrNotConsumable) {
			t.Fatalf("expected ErrNotConsumable, got %v", err)
		}
	})

	t.Run("expired subscription is left alone", func(t *testing.T) {
		later := seededAt.AddDate(1, 0, 0)
		v := newVerifier(t, newPlayServer(t, later), "com.bar.package", later)
		p, err := v.Redeem(ctx, models.SkuTypeSubs, "com.bar.package.sku", "0987654321", false)
		if !errors.Is(err, services.ErrNotEntitled) {
			t.Fatalf("expected ErrNotEntitled, got %v", err)
		}
		if p.Acknowledged {
			t.Fatalf("expired receipt must not be acknowledged: %+v", p)
		}
	})

	t.Run("unknown sku type", func(t *testing.T) {
		v := newVerifier(t, newPlayServer(t, now), "com.foo.package", now)
		if _, err := v.Verify(ctx, models.SkuType("gift"), "com.foo.package.sku", "1234567890"); !errors.Is(err, models.ErrUnknownSkuType) {
			t.Fatalf("expected ErrUnknownSkuType, got %v", err)
		}
	})
}
