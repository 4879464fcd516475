package models

import (
	"errors"
)

var (
	// ErrUnknownSkuType is returned (or raised) when a lookup names a type
	// other than inapp or subs.
	ErrUnknownSkuType        = errors.New("models: unknown sku type")
	ErrInvalidPurchaseJSON   = errors.New("models: invalid purchase json")
	ErrInvalidSkuDetailsJSON = errors.New("models: invalid sku details json")
)
