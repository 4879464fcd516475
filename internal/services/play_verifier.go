package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	androidpublisher "google.golang.org/api/androidpublisher/v3"
	"google.golang.org/api/option"

	"billingx/internal/models"
)

var (
	// ErrNotEntitled is returned by Redeem for receipts that are pending,
	// canceled or expired.
	ErrNotEntitled = errors.New("purchase does not grant its product")
	// ErrNotConsumable is returned when consumption is asked for a subscription.
	ErrNotConsumable = errors.New("only in-app purchases can be consumed")
)

type PlayVerifierConfig struct {
	PackageName string
	// Endpoint is the androidpublisher base URL, usually this server's own.
	Endpoint   string
	HTTPClient *http.Client
	Now        func() time.Time
}

// PlayVerifier redeems receipts the way an app backend does: it looks them
// up through the official androidpublisher client and settles the ones that
// grant their product.
type PlayVerifier struct {
	packageName string
	now         func() time.Time
	purchases   *androidpublisher.PurchasesService
}

func NewPlayVerifier(ctx context.Context, cfg PlayVerifierConfig) (*PlayVerifier, error) {
	pkg := strings.TrimSpace(cfg.PackageName)
	if pkg == "" {
		return nil, errors.New("package name is empty")
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("play endpoint is empty")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	opts := []option.ClientOption{option.WithEndpoint(endpoint)}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	} else {
		opts = append(opts, option.WithoutAuthentication())
	}
	svc, err := androidpublisher.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("androidpublisher.NewService: %w", err)
	}
	return &PlayVerifier{packageName: pkg, now: cfg.Now, purchases: svc.Purchases}, nil
}

// Redeem verifies the receipt and settles it: in-app purchases are consumed
// when consume is set, everything else is acknowledged. Receipts that do not
// grant their product are returned unsettled with ErrNotEntitled.
func (v *PlayVerifier) Redeem(ctx context.Context, skuType models.SkuType, sku, token string, consume bool) (models.VerifiedPurchase, error) {
	if consume && skuType == models.SkuTypeSubs {
		return models.VerifiedPurchase{}, ErrNotConsumable
	}
	p, err := v.Verify(ctx, skuType, sku, token)
	if err != nil {
		return models.VerifiedPurchase{}, err
	}
	if !p.Entitled() {
		return p, fmt.Errorf("%w: %s", ErrNotEntitled, p.Status)
	}

	switch {
	case consume && p.Consumed:
	case consume:
		if err := v.Consume(ctx, p.SKU, p.PurchaseToken); err != nil {
			return p, err
		}
		p.Consumed, p.Acknowledged = true, true
	case !p.Acknowledged:
		if err := v.Acknowledge(ctx, skuType, p.SKU, p.PurchaseToken); err != nil {
			return p, err
		}
		p.Acknowledged = true
	}
	return p, nil
}

// Verify looks the receipt up as a skuType purchase of the configured package.
func (v *PlayVerifier) Verify(ctx context.Context, skuType models.SkuType, sku, token string) (models.VerifiedPurchase, error) {
	sku, token, err := receiptIDs(sku, token)
	if err != nil {
		return models.VerifiedPurchase{}, err
	}
	out := models.VerifiedPurchase{
		Type:          skuType,
		SKU:           sku,
		PurchaseToken: token,
		PackageName:   v.packageName,
	}

	var resp any
	switch skuType {
	case models.SkuTypeInApp:
		r, err := v.purchases.Products.Get(v.packageName, sku, token).Context(ctx).Do()
		if err != nil {
			return models.VerifiedPurchase{}, fmt.Errorf("products.get %s: %w", sku, err)
		}
		out.OrderID = r.OrderId
		out.PurchaseState = r.PurchaseState
		out.Status = productStatus(r.PurchaseState)
		out.Acknowledged = r.AcknowledgementState == 1
		out.Consumed = r.ConsumptionState == 1
		resp = r
	case models.SkuTypeSubs:
		r, err := v.purchases.Subscriptions.Get(v.packageName, sku, token).Context(ctx).Do()
		if err != nil {
			return models.VerifiedPurchase{}, fmt.Errorf("subscriptions.get %s: %w", sku, err)
		}
		out.OrderID = r.OrderId
		out.ExpiryTimeMillis = r.ExpiryTimeMillis
		out.AutoRenewing = r.AutoRenewing
		out.PaymentState = r.PaymentState
		out.PurchaseState, out.Status = subscriptionStatus(r, v.now().UnixMilli())
		out.Acknowledged = r.AcknowledgementState == 1
		resp = r
	default:
		return models.VerifiedPurchase{}, fmt.Errorf("%w: %q", models.ErrUnknownSkuType, skuType)
	}

	if out.Raw, err = json.Marshal(resp); err != nil {
		return models.VerifiedPurchase{}, fmt.Errorf("encode %s receipt: %w", skuType, err)
	}
	return out, nil
}

// Acknowledge calls the acknowledge method matching skuType.
func (v *PlayVerifier) Acknowledge(ctx context.Context, skuType models.SkuType, sku, token string) error {
	sku, token, err := receiptIDs(sku, token)
	if err != nil {
		return err
	}
	switch skuType {
	case models.SkuTypeInApp:
		err = v.purchases.Products.
			Acknowledge(v.packageName, sku, token, &androidpublisher.ProductPurchasesAcknowledgeRequest{}).
			Context(ctx).Do()
	case models.SkuTypeSubs:
		err = v.purchases.Subscriptions.
			Acknowledge(v.packageName, sku, token, &androidpublisher.SubscriptionPurchasesAcknowledgeRequest{}).
			Context(ctx).Do()
	default:
		return fmt.Errorf("%w: %q", models.ErrUnknownSkuType, skuType)
	}
	if err != nil {
		return fmt.Errorf("%s.acknowledge %s: %w", skuType, sku, err)
	}
	return nil
}

// Consume marks an in-app purchase consumed so it can be bought again.
func (v *PlayVerifier) Consume(ctx context.Context, sku, token string) error {
	sku, token, err := receiptIDs(sku, token)
	if err != nil {
		return err
	}
	if err := v.purchases.Products.Consume(v.packageName, sku, token).Context(ctx).Do(); err != nil {
		return fmt.Errorf("products.consume %s: %w", sku, err)
	}
	return nil
}

func receiptIDs(sku, token string) (string, string, error) {
	sku, token = strings.TrimSpace(sku), strings.TrimSpace(token)
	if sku == "" || token == "" {
		return "", "", errors.New("sku and purchase_token are required")
	}
	return sku, token, nil
}

func productStatus(state int64) models.VerificationStatus {
	switch state {
	case 0:
		return models.StatusActive
	case 1:
		return models.StatusCanceled
	case 2:
		return models.StatusPending
	default:
		return models.StatusUnknown
	}
}

// subscriptionStatus derives a product-style purchase state from payment
// and expiry. A canceled subscription keeps state 0 until it expires.
func subscriptionStatus(r *androidpublisher.SubscriptionPurchase, nowMillis int64) (int64, models.VerificationStatus) {
	if r.PaymentState != nil && *r.PaymentState == 0 {
		return 2, models.StatusPending
	}
	switch {
	case r.ExpiryTimeMillis > nowMillis && r.AutoRenewing:
		return 0, models.StatusActive
	case r.ExpiryTimeMillis > nowMillis:
		return 0, models.StatusCanceled
	case r.ExpiryTimeMillis > 0:
		return 1, models.StatusExpired
	default:
		return 2, models.StatusUnknown
	}
}
