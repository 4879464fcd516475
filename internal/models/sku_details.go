package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SkuDetails describes a purchasable product and its price metadata.
type SkuDetails struct {
	SKU                string
	Type               SkuType
	Price              string
	PriceAmountMicros  int64
	PriceCurrencyCode  string
	Title              string
	Description        string
	SubscriptionPeriod string // ISO 8601, subs only
	FreeTrialPeriod    string

	OriginalJSON string
}

func NewSkuDetails(originalJSON string) (SkuDetails, error) {
	var raw struct {
		ProductID          string          `json:"productId"`
		Type               string          `json:"type"`
		Price              string          `json:"price"`
		PriceAmountMicros  json.RawMessage `json:"price_amount_micros"`
		PriceCurrencyCode  string          `json:"price_currency_code"`
		Title              string          `json:"title"`
		Description        string          `json:"description"`
		SubscriptionPeriod string          `json:"subscriptionPeriod"`
		FreeTrialPeriod    string          `json:"freeTrialPeriod"`
	}
	if err := json.Unmarshal([]byte(originalJSON), &raw); err != nil {
		return SkuDetails{}, fmt.Errorf("%w: %v", ErrInvalidSkuDetailsJSON, err)
	}
	if strings.TrimSpace(raw.ProductID) == "" {
		return SkuDetails{}, fmt.Errorf("%w: missing productId", ErrInvalidSkuDetailsJSON)
	}

	micros, err := parseInt64Field(raw.PriceAmountMicros)
	if err != nil {
		return SkuDetails{}, fmt.Errorf("%w: price_amount_micros: %v", ErrInvalidSkuDetailsJSON, err)
	}

	return SkuDetails{
		SKU:                raw.ProductID,
		Type:               SkuType(raw.Type),
		Price:              raw.Price,
		PriceAmountMicros:  micros,
		PriceCurrencyCode:  raw.PriceCurrencyCode,
		Title:              raw.Title,
		Description:        raw.Description,
		SubscriptionPeriod: raw.SubscriptionPeriod,
		FreeTrialPeriod:    raw.FreeTrialPeriod,
		OriginalJSON:       originalJSON,
	}, nil
}

func (d SkuDetails) Equal(other SkuDetails) bool {
	return d.OriginalJSON == other.OriginalJSON
}
