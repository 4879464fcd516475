package repositories

import (
	"errors"
	"fmt"
	"slices"

	"billingx/internal/models"
)

// ErrNotFound is returned when a purchase lookup has no match.
var ErrNotFound = errors.New("not found")

// BillingStore is the canned backend the debug client answers from.
type BillingStore interface {
	Purchases(skuType models.SkuType) (models.PurchasesResult, error)
	SkuDetails(params models.SkuDetailsParams) ([]models.SkuDetails, error)
	PurchaseByToken(skuType models.SkuType, sku, token string) (models.Purchase, error)
}

// MemoryStore holds purchases and product details seeded at construction.
// It is never mutated afterwards, so one instance can back many clients.
type MemoryStore struct {
	purchases map[models.SkuType][]models.Purchase
	details   map[models.SkuType][]models.SkuDetails
}

var _ BillingStore = (*MemoryStore)(nil)

func NewMemoryStore(seed Seed) *MemoryStore {
	s := &MemoryStore{
		purchases: make(map[models.SkuType][]models.Purchase, 2),
		details:   make(map[models.SkuType][]models.SkuDetails, 2),
	}
	for _, t := range []models.SkuType{models.SkuTypeInApp, models.SkuTypeSubs} {
		s.purchases[t] = slices.Clone(seed.Purchases[t])
		s.details[t] = slices.Clone(seed.SkuDetails[t])
	}
	return s
}

// Purchases returns every seeded purchase of the given type in seed order.
func (s *MemoryStore) Purchases(skuType models.SkuType) (models.PurchasesResult, error) {
	if !skuType.Valid() {
		return models.PurchasesResult{}, fmt.Errorf("purchases: %w: %q", models.ErrUnknownSkuType, skuType)
	}
	list := make([]models.Purchase, len(s.purchases[skuType]))
	copy(list, s.purchases[skuType])
	return models.PurchasesResult{ResponseCode: models.OK, Purchases: list}, nil
}

// SkuDetails returns the details of params.SkuType whose SKU is listed in
// params.SkusList, in store order. Unknown SKUs are skipped.
func (s *MemoryStore) SkuDetails(params models.SkuDetailsParams) ([]models.SkuDetails, error) {
	if !params.SkuType.Valid() {
		return nil, fmt.Errorf("sku details: %w: %q", models.ErrUnknownSkuType, params.SkuType)
	}
	wanted := make(map[string]struct{}, len(params.SkusList))
	for _, sku := range params.SkusList {
		wanted[sku] = struct{}{}
	}
	out := make([]models.SkuDetails, 0, len(params.SkusList))
	for _, d := range s.details[params.SkuType] {
		if _, ok := wanted[d.SKU]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// PurchaseByToken finds a seeded purchase. An empty sku matches any product.
func (s *MemoryStore) PurchaseByToken(skuType models.SkuType, sku, token string) (models.Purchase, error) {
	if !skuType.Valid() {
		return models.Purchase{}, fmt.Errorf("purchase by token: %w: %q", models.ErrUnknownSkuType, skuType)
	}
	for _, p := range s.purchases[skuType] {
		if p.PurchaseToken != token {
			continue
		}
		if sku == "" || p.SKU == sku {
			return p, nil
		}
	}
	return models.Purchase{}, ErrNotFound
}
