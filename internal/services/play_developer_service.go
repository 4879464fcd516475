package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	androidpublisher "google.golang.org/api/androidpublisher/v3"

	"billingx/internal/models"
	"billingx/internal/repositories"
)

// PlayDeveloperService answers Play Developer API purchase lookups from the
// same store the debug client uses, so server-side verification code can be
// exercised against fake receipts.
type PlayDeveloperService struct {
	store repositories.BillingStore
	now   func() time.Time

	mu      sync.Mutex
	settled map[receiptKey]settlement
}

type receiptKey struct {
	skuType models.SkuType
	token   string
}

type settlement struct {
	acknowledged bool
	consumed     bool
}

func NewPlayDeveloperService(store repositories.BillingStore, now func() time.Time) (*PlayDeveloperService, error) {
	if store == nil {
		return nil, errors.New("billing store is required")
	}
	if now == nil {
		now = time.Now
	}
	return &PlayDeveloperService{store: store, now: now, settled: make(map[receiptKey]settlement)}, nil
}

// ProductPurchase mirrors purchases.products.get. Every seeded one-time
// purchase reports as purchased; acknowledgement and consumption follow the
// calls made against this service.
func (s *PlayDeveloperService) ProductPurchase(packageName, productID, token string) (*androidpublisher.ProductPurchase, error) {
	p, err := s.lookup(models.SkuTypeInApp, packageName, productID, token)
	if err != nil {
		return nil, err
	}
	st := s.settlement(models.SkuTypeInApp, p.PurchaseToken)
	return &androidpublisher.ProductPurchase{
		Kind:                 "androidpublisher#productPurchase",
		OrderId:              p.OrderID,
		ProductId:            p.SKU,
		PurchaseToken:        p.PurchaseToken,
		PurchaseTimeMillis:   p.PurchaseTime,
		PurchaseState:        0,
		ConsumptionState:     boolState(st.consumed),
		AcknowledgementState: boolState(st.acknowledged),
		Quantity:             1,
	}, nil
}

// SubscriptionPurchase mirrors purchases.subscriptions.get. Expiry is the
// purchase time plus the product's subscription period; auto-renewing
// subscriptions keep renewing until the expiry lies in the future.
func (s *PlayDeveloperService) SubscriptionPurchase(packageName, subscriptionID, token string) (*androidpublisher.SubscriptionPurchase, error) {
	p, err := s.lookup(models.SkuTypeSubs, packageName, subscriptionID, token)
	if err != nil {
		return nil, err
	}

	resp := &androidpublisher.SubscriptionPurchase{
		Kind:                 "androidpublisher#subscriptionPurchase",
		OrderId:              p.OrderID,
		AutoRenewing:         p.AutoRenewing,
		StartTimeMillis:      p.PurchaseTime,
		AcknowledgementState: boolState(s.settlement(models.SkuTypeSubs, p.PurchaseToken).acknowledged),
	}

	period := defaultSubscriptionPeriod
	details, err := s.store.SkuDetails(models.SkuDetailsParams{SkuType: models.SkuTypeSubs, SkusList: []string{p.SKU}})
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		d := details[0]
		resp.PriceAmountMicros = d.PriceAmountMicros
		resp.PriceCurrencyCode = d.PriceCurrencyCode
		if parsed, err := parseBillingPeriod(d.SubscriptionPeriod); err == nil {
			period = parsed
		}
	}

	now := s.now()
	expiry := period.addTo(p.PurchasedAt())
	for p.AutoRenewing && !expiry.After(now) {
		expiry = period.addTo(expiry)
	}
	resp.ExpiryTimeMillis = expiry.UnixMilli()

	received := int64(1)
	resp.PaymentState = &received
	return resp, nil
}

// Acknowledge records acknowledgement of a known purchase. Repeating it is
// harmless.
func (s *PlayDeveloperService) Acknowledge(skuType models.SkuType, packageName, productID, token string) error {
	p, err := s.lookup(skuType, packageName, productID, token)
	if err != nil {
		return err
	}
	s.settle(skuType, p.PurchaseToken, func(st *settlement) { st.acknowledged = true })
	return nil
}

// Consume mirrors purchases.products.consume. Consumption implies
// acknowledgement.
func (s *PlayDeveloperService) Consume(packageName, productID, token string) error {
	p, err := s.lookup(models.SkuTypeInApp, packageName, productID, token)
	if err != nil {
		return err
	}
	s.settle(models.SkuTypeInApp, p.PurchaseToken, func(st *settlement) {
		st.acknowledged = true
		st.consumed = true
	})
	return nil
}

func (s *PlayDeveloperService) settlement(skuType models.SkuType, token string) settlement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settled[receiptKey{skuType, token}]
}

func (s *PlayDeveloperService) settle(skuType models.SkuType, token string, apply func(*settlement)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := receiptKey{skuType, token}
	st := s.settled[key]
	apply(&st)
	s.settled[key] = st
}

func boolState(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (s *PlayDeveloperService) lookup(skuType models.SkuType, packageName, productID, token string) (models.Purchase, error) {
	productID = strings.TrimSpace(productID)
	token = strings.TrimSpace(token)
	if productID == "" || token == "" {
		return models.Purchase{}, fmt.Errorf("product id and token are required: %w", repositories.ErrNotFound)
	}
	p, err := s.store.PurchaseByToken(skuType, productID, token)
	if err != nil {
		return models.Purchase{}, err
	}
	if p.PackageName != "" && packageName != p.PackageName {
		return models.Purchase{}, fmt.Errorf("package %s: %w", packageName, repositories.ErrNotFound)
	}
	return p, nil
}

// billingPeriod is an ISO 8601 period restricted to the units the billing
// API uses (years, months, weeks, days).
type billingPeriod struct {
	years, months, days int
}

var defaultSubscriptionPeriod = billingPeriod{months: 1}

var periodPattern = regexp.MustCompile(`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?$`)

func parseBillingPeriod(raw string) (billingPeriod, error) {
	m := periodPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return billingPeriod{}, fmt.Errorf("invalid billing period %q", raw)
	}
	var units [4]int
	for i, s := range m[1:] {
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return billingPeriod{}, fmt.Errorf("billing period %q: %w", raw, err)
		}
		units[i] = v
	}
	p := billingPeriod{years: units[0], months: units[1], days: units[2]*7 + units[3]}
	if p == (billingPeriod{}) {
		return billingPeriod{}, fmt.Errorf("empty billing period %q", raw)
	}
	return p, nil
}

func (p billingPeriod) addTo(t time.Time) time.Time {
	return t.AddDate(p.years, p.months, p.days)
}
