package services

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"

	"billingx/internal/models"
)

// newOrderID returns an id shaped like a Play order number:
// GPA.dddd-dddd-dddd-ddddd.
func newOrderID() string {
	return fmt.Sprintf("GPA.%04d-%04d-%04d-%05d",
		rand.Intn(10000), rand.Intn(10000), rand.Intn(10000), rand.Intn(100000))
}

func newPurchaseToken() string {
	return uuid.New().String()
}

// debugSignature is the placeholder signature attached to fake receipts.
func debugSignature(sku string, skuType models.SkuType) string {
	return fmt.Sprintf("debug-signature-%s-%s", sku, skuType)
}
