package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"

	"billingx/internal/models"
	"billingx/internal/services"
)

// ReceiptRedeemer checks a receipt against the Play Developer API and
// settles it.
type ReceiptRedeemer interface {
	Redeem(ctx context.Context, skuType models.SkuType, sku, token string, consume bool) (models.VerifiedPurchase, error)
}

type PurchaseVerifyHandler struct {
	Redeemer ReceiptRedeemer
	Logger   services.Logger
}

func NewPurchaseVerifyHandler(redeemer ReceiptRedeemer, logger services.Logger) *PurchaseVerifyHandler {
	return &PurchaseVerifyHandler{Redeemer: redeemer, Logger: logger}
}

// Verify: POST /billing/verify {"sku": "...", "type": "subs", "purchase_token": "...", "consume": false}
func (h *PurchaseVerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if h.Redeemer == nil {
		http.Error(w, "play verification is not configured", http.StatusNotImplemented)
		return
	}

	var req struct {
		SKU           string `json:"sku"`
		Type          string `json:"type"`
		PurchaseToken string `json:"purchase_token"`
		Consume       bool   `json:"consume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.SKU = strings.TrimSpace(req.SKU)
	req.PurchaseToken = strings.TrimSpace(req.PurchaseToken)
	if req.SKU == "" || req.PurchaseToken == "" {
		http.Error(w, "sku and purchase_token are required", http.StatusBadRequest)
		return
	}
	skuType, err := models.ParseSkuType(strings.TrimSpace(req.Type))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.Redeemer.Redeem(r.Context(), skuType, req.SKU, req.PurchaseToken, req.Consume)
	var gerr *googleapi.Error
	switch {
	case err == nil:
	case errors.As(err, &gerr) && gerr.Code == http.StatusNotFound:
		http.Error(w, "purchase not found", http.StatusNotFound)
		return
	case errors.Is(err, services.ErrNotEntitled), errors.Is(err, services.ErrNotConsumable):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	default:
		h.errorf("verify %s %q token_len=%d: %v", skuType, req.SKU, len(req.PurchaseToken), err)
		http.Error(w, "google verify: "+err.Error(), http.StatusBadGateway)
		return
	}

	if h.Logger != nil {
		h.Logger.Infof("verify ok type=%s sku=%q order_id=%q status=%s consumed=%v", p.Type, p.SKU, p.OrderID, p.Status, p.Consumed)
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PurchaseVerifyHandler) errorf(format string, args ...interface{}) {
	if h.Logger != nil {
		h.Logger.Errorf(format, args...)
	}
}
