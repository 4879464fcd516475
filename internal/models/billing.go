package models

import (
	"fmt"
)

// ResponseCode mirrors the billing client's BillingResponse values.
type ResponseCode int

const (
	FeatureNotSupported ResponseCode = -2
	ServiceDisconnected ResponseCode = -1
	OK                  ResponseCode = 0
	UserCanceled        ResponseCode = 1
	ServiceUnavailable  ResponseCode = 2
	BillingUnavailable  ResponseCode = 3
	ItemUnavailable     ResponseCode = 4
	DeveloperError      ResponseCode = 5
	Error               ResponseCode = 6
	ItemAlreadyOwned    ResponseCode = 7
	ItemNotOwned        ResponseCode = 8
)

var responseCodeNames = map[ResponseCode]string{
	FeatureNotSupported: "FEATURE_NOT_SUPPORTED",
	ServiceDisconnected: "SERVICE_DISCONNECTED",
	OK:                  "OK",
	UserCanceled:        "USER_CANCELED",
	ServiceUnavailable:  "SERVICE_UNAVAILABLE",
	BillingUnavailable:  "BILLING_UNAVAILABLE",
	ItemUnavailable:     "ITEM_UNAVAILABLE",
	DeveloperError:      "DEVELOPER_ERROR",
	Error:               "ERROR",
	ItemAlreadyOwned:    "ITEM_ALREADY_OWNED",
	ItemNotOwned:        "ITEM_NOT_OWNED",
}

func (c ResponseCode) String() string {
	if name, ok := responseCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("RESPONSE_CODE(%d)", int(c))
}

// SkuType is the product type tag used on the wire.
type SkuType string

const (
	SkuTypeInApp SkuType = "inapp"
	SkuTypeSubs  SkuType = "subs"
)

func (t SkuType) Valid() bool {
	return t == SkuTypeInApp || t == SkuTypeSubs
}

// ParseSkuType validates a raw type tag.
func ParseSkuType(raw string) (SkuType, error) {
	t := SkuType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSkuType, raw)
	}
	return t, nil
}

// FeatureType names an optional billing capability.
type FeatureType string

const (
	FeatureSubscriptions           FeatureType = "subscriptions"
	FeatureSubscriptionsUpdate     FeatureType = "subscriptionsUpdate"
	FeatureInAppItemsOnVr          FeatureType = "inAppItemsOnVr"
	FeatureSubscriptionsOnVr       FeatureType = "subsOnVr"
	FeaturePriceChangeConfirmation FeatureType = "priceChangeConfirmation"
)
