package models

import "encoding/json"

// VerificationStatus summarises where a verified receipt stands.
type VerificationStatus string

const (
	StatusActive   VerificationStatus = "ACTIVE"
	StatusCanceled VerificationStatus = "CANCELED"
	StatusExpired  VerificationStatus = "EXPIRED"
	StatusPending  VerificationStatus = "PENDING"
	StatusUnknown  VerificationStatus = "UNKNOWN"
)

// VerifiedPurchase is a receipt as reported back by the Play Developer API.
type VerifiedPurchase struct {
	Type          SkuType `json:"type"`
	SKU           string  `json:"sku"`
	PurchaseToken string  `json:"purchase_token"`
	OrderID       string  `json:"order_id"`
	PackageName   string  `json:"package_name"`

	// 0 purchased, 1 canceled or expired, 2 pending.
	PurchaseState int64              `json:"purchase_state"`
	Status        VerificationStatus `json:"status"`
	Acknowledged  bool               `json:"acknowledged"`
	Consumed      bool               `json:"consumed"`

	ExpiryTimeMillis int64  `json:"expiry_time_millis,omitempty"`
	AutoRenewing     bool   `json:"auto_renewing,omitempty"`
	PaymentState     *int64 `json:"payment_state,omitempty"`

	Raw json.RawMessage `json:"raw,omitempty"`
}

// Entitled reports whether the receipt currently grants its product.
// Canceled subscriptions stay entitled until they expire.
func (v VerifiedPurchase) Entitled() bool {
	return v.PurchaseState == 0 && v.Status != StatusPending
}
