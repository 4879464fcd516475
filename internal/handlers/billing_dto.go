package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"billingx/internal/models"
)

type purchaseDTO struct {
	OrderID       string `json:"order_id"`
	PackageName   string `json:"package_name"`
	ProductID     string `json:"product_id"`
	AutoRenewing  bool   `json:"auto_renewing"`
	PurchaseTime  int64  `json:"purchase_time"`
	PurchaseToken string `json:"purchase_token"`
	OriginalJSON  string `json:"original_json"`
	Signature     string `json:"signature"`
}

type skuDetailsDTO struct {
	ProductID          string `json:"product_id"`
	Type               string `json:"type"`
	Price              string `json:"price"`
	PriceAmountMicros  int64  `json:"price_amount_micros"`
	PriceCurrencyCode  string `json:"price_currency_code"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	SubscriptionPeriod string `json:"subscription_period,omitempty"`
	FreeTrialPeriod    string `json:"free_trial_period,omitempty"`
	OriginalJSON       string `json:"original_json"`
}

// billingResponse is the envelope every billing endpoint answers with.
// List fields stay null when the client reported no list.
type billingResponse struct {
	ResponseCode  int              `json:"response_code"`
	Response      string           `json:"response"`
	Purchases     *[]purchaseDTO   `json:"purchases,omitempty"`
	SkuDetails    *[]skuDetailsDTO `json:"sku_details,omitempty"`
	PurchaseToken string           `json:"purchase_token,omitempty"`
	Ready         *bool            `json:"ready,omitempty"`
}

func newBillingResponse(code models.ResponseCode) billingResponse {
	return billingResponse{ResponseCode: int(code), Response: code.String()}
}

func toPurchaseDTOs(purchases []models.Purchase) *[]purchaseDTO {
	if purchases == nil {
		return nil
	}
	out := make([]purchaseDTO, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, purchaseDTO{
			OrderID:       p.OrderID,
			PackageName:   p.PackageName,
			ProductID:     p.SKU,
			AutoRenewing:  p.AutoRenewing,
			PurchaseTime:  p.PurchaseTime,
			PurchaseToken: p.PurchaseToken,
			OriginalJSON:  p.OriginalJSON,
			Signature:     p.Signature,
		})
	}
	return &out
}

func toSkuDetailsDTOs(details []models.SkuDetails) *[]skuDetailsDTO {
	if details == nil {
		return nil
	}
	out := make([]skuDetailsDTO, 0, len(details))
	for _, d := range details {
		out = append(out, skuDetailsDTO{
			ProductID:          d.SKU,
			Type:               string(d.Type),
			Price:              d.Price,
			PriceAmountMicros:  d.PriceAmountMicros,
			PriceCurrencyCode:  d.PriceCurrencyCode,
			Title:              d.Title,
			Description:        d.Description,
			SubscriptionPeriod: d.SubscriptionPeriod,
			FreeTrialPeriod:    d.FreeTrialPeriod,
			OriginalJSON:       d.OriginalJSON,
		})
	}
	return &out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func skuTypeParam(r *http.Request) (models.SkuType, error) {
	return models.ParseSkuType(strings.TrimSpace(r.URL.Query().Get("type")))
}

var errNoResult = errors.New("billing client did not answer")

// awaitResult waits for a listener result. Listeners may run later when the
// client is configured with a queued executor.
func awaitResult[T any](ctx context.Context, timeout time.Duration, results chan T) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	select {
	case v := <-results:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, errNoResult
	}
}
