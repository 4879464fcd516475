package models

// SkuDetailsParams selects product details by type and SKU ids.
type SkuDetailsParams struct {
	SkuType  SkuType
	SkusList []string
}

// PurchasesResult is the direct-return shape of a purchases query.
// Purchases is nil unless ResponseCode is OK.
type PurchasesResult struct {
	ResponseCode ResponseCode
	Purchases    []Purchase
}

// BillingFlowParams names the product a billing flow is started for.
type BillingFlowParams struct {
	SKU     string
	SkuType SkuType
}

// PurchasesUpdate is what a completed billing flow reports back to the client.
type PurchasesUpdate struct {
	ResponseCode ResponseCode
	Purchases    []Purchase
}
