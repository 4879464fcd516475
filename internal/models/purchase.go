package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Purchase is one completed transaction as reported by the billing client.
// OriginalJSON and Signature are kept verbatim for downstream verification.
type Purchase struct {
	OrderID       string
	PackageName   string
	SKU           string
	AutoRenewing  bool
	PurchaseTime  int64 // millis since epoch
	PurchaseToken string

	OriginalJSON string
	Signature    string
}

// NewPurchase parses the purchase textual encoding. Both "purchaseToken" and
// the legacy "token" key are accepted.
func NewPurchase(originalJSON, signature string) (Purchase, error) {
	var raw struct {
		OrderID       string          `json:"orderId"`
		PackageName   string          `json:"packageName"`
		ProductID     string          `json:"productId"`
		AutoRenewing  bool            `json:"autoRenewing"`
		PurchaseTime  json.RawMessage `json:"purchaseTime"`
		PurchaseToken string          `json:"purchaseToken"`
		Token         string          `json:"token"`
	}
	if err := json.Unmarshal([]byte(originalJSON), &raw); err != nil {
		return Purchase{}, fmt.Errorf("%w: %v", ErrInvalidPurchaseJSON, err)
	}
	if strings.TrimSpace(raw.ProductID) == "" {
		return Purchase{}, fmt.Errorf("%w: missing productId", ErrInvalidPurchaseJSON)
	}

	purchaseTime, err := parseInt64Field(raw.PurchaseTime)
	if err != nil {
		return Purchase{}, fmt.Errorf("%w: purchaseTime: %v", ErrInvalidPurchaseJSON, err)
	}

	token := strings.TrimSpace(raw.PurchaseToken)
	if token == "" {
		token = strings.TrimSpace(raw.Token)
	}

	return Purchase{
		OrderID:       raw.OrderID,
		PackageName:   raw.PackageName,
		SKU:           raw.ProductID,
		AutoRenewing:  raw.AutoRenewing,
		PurchaseTime:  purchaseTime,
		PurchaseToken: token,
		OriginalJSON:  originalJSON,
		Signature:     signature,
	}, nil
}

// Equal matches the billing client's notion of equality: same receipt and
// same signature.
func (p Purchase) Equal(other Purchase) bool {
	return p.OriginalJSON == other.OriginalJSON && p.Signature == other.Signature
}

// Key returns the purchase identity.
func (p Purchase) Key() PurchaseKey {
	return PurchaseKey{SKU: p.SKU, PurchaseToken: p.PurchaseToken}
}

func (p Purchase) PurchasedAt() time.Time {
	return time.UnixMilli(p.PurchaseTime)
}

type PurchaseKey struct {
	SKU           string
	PurchaseToken string
}

// purchaseJSON is the encoding produced for purchases created by the fake.
type purchaseJSON struct {
	OrderID       string `json:"orderId"`
	PackageName   string `json:"packageName"`
	ProductID     string `json:"productId"`
	AutoRenewing  bool   `json:"autoRenewing"`
	PurchaseTime  int64  `json:"purchaseTime"`
	PurchaseToken string `json:"purchaseToken"`
}

// BuildPurchase encodes the fields into the purchase wire shape and returns
// the resulting record.
func BuildPurchase(orderID, packageName, sku string, autoRenewing bool, purchaseTime time.Time, token, signature string) (Purchase, error) {
	data, err := json.Marshal(purchaseJSON{
		OrderID:       orderID,
		PackageName:   packageName,
		ProductID:     sku,
		AutoRenewing:  autoRenewing,
		PurchaseTime:  purchaseTime.UnixMilli(),
		PurchaseToken: token,
	})
	if err != nil {
		return Purchase{}, err
	}
	return NewPurchase(string(data), signature)
}

// parseInt64Field accepts a JSON number or a quoted decimal string.
func parseInt64Field(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
