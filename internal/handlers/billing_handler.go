package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"billingx/internal/models"
	"billingx/internal/services"
)

// BillingClient is the client surface exposed over HTTP.
type BillingClient interface {
	StartConnection(listener services.BillingClientStateListener)
	EndConnection()
	IsReady() bool
	IsFeatureSupported(feature models.FeatureType) models.ResponseCode
	QueryPurchases(skuType models.SkuType) models.PurchasesResult
	QueryPurchaseHistoryAsync(skuType models.SkuType, listener services.PurchaseHistoryResponseListener)
	QuerySkuDetailsAsync(params models.SkuDetailsParams, listener services.SkuDetailsResponseListener)
	LaunchBillingFlow(params models.BillingFlowParams) models.ResponseCode
	ConsumeAsync(purchaseToken string, listener services.ConsumeResponseListener)
}

var _ BillingClient = (*services.DebugBillingClient)(nil)

type BillingHandler struct {
	Client BillingClient
	// ResultTimeout bounds how long a request waits for a listener callback.
	ResultTimeout time.Duration
}

func NewBillingHandler(client BillingClient, resultTimeout time.Duration) *BillingHandler {
	if resultTimeout <= 0 {
		resultTimeout = 5 * time.Second
	}
	return &BillingHandler{Client: client, ResultTimeout: resultTimeout}
}

// StartConnection connects the shared client and reports the setup result.
func (h *BillingHandler) StartConnection(w http.ResponseWriter, r *http.Request) {
	setup := make(chan models.ResponseCode, 1)
	h.Client.StartConnection(services.StateListenerFuncs{
		SetupFinished: func(code models.ResponseCode) { setup <- code },
	})
	code, err := awaitResult(r.Context(), h.ResultTimeout, setup)
	if err != nil {
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
		return
	}
	resp := newBillingResponse(code)
	ready := h.Client.IsReady()
	resp.Ready = &ready
	writeJSON(w, http.StatusOK, resp)
}

func (h *BillingHandler) EndConnection(w http.ResponseWriter, r *http.Request) {
	h.Client.EndConnection()
	ready := h.Client.IsReady()
	resp := newBillingResponse(models.OK)
	resp.Ready = &ready
	writeJSON(w, http.StatusOK, resp)
}

func (h *BillingHandler) GetConnection(w http.ResponseWriter, r *http.Request) {
	ready := h.Client.IsReady()
	code := models.OK
	if !ready {
		code = models.ServiceDisconnected
	}
	resp := newBillingResponse(code)
	resp.Ready = &ready
	writeJSON(w, http.StatusOK, resp)
}

func (h *BillingHandler) IsFeatureSupported(w http.ResponseWriter, r *http.Request) {
	feature := strings.TrimSpace(r.URL.Query().Get(":feature"))
	if feature == "" {
		http.Error(w, "feature is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, newBillingResponse(h.Client.IsFeatureSupported(models.FeatureType(feature))))
}

// QueryPurchases: GET /billing/purchases?type=subs
func (h *BillingHandler) QueryPurchases(w http.ResponseWriter, r *http.Request) {
	skuType, err := skuTypeParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res := h.Client.QueryPurchases(skuType)
	resp := newBillingResponse(res.ResponseCode)
	resp.Purchases = toPurchaseDTOs(res.Purchases)
	writeJSON(w, http.StatusOK, resp)
}

// QueryPurchaseHistory: GET /billing/purchases/history?type=subs
func (h *BillingHandler) QueryPurchaseHistory(w http.ResponseWriter, r *http.Request) {
	skuType, err := skuTypeParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	results := make(chan billingResponse, 1)
	h.Client.QueryPurchaseHistoryAsync(skuType, func(code models.ResponseCode, purchases []models.Purchase) {
		resp := newBillingResponse(code)
		resp.Purchases = toPurchaseDTOs(purchases)
		results <- resp
	})
	h.respond(w, r, results)
}

// QuerySkuDetails: GET /billing/skus?type=subs&sku=a&sku=b
func (h *BillingHandler) QuerySkuDetails(w http.ResponseWriter, r *http.Request) {
	skuType, err := skuTypeParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var skus []string
	for _, raw := range r.URL.Query()["sku"] {
		for _, sku := range strings.Split(raw, ",") {
			if sku = strings.TrimSpace(sku); sku != "" {
				skus = append(skus, sku)
			}
		}
	}

	results := make(chan billingResponse, 1)
	h.Client.QuerySkuDetailsAsync(models.SkuDetailsParams{SkuType: skuType, SkusList: skus}, func(code models.ResponseCode, details []models.SkuDetails) {
		resp := newBillingResponse(code)
		resp.SkuDetails = toSkuDetailsDTOs(details)
		results <- resp
	})
	h.respond(w, r, results)
}

// LaunchBillingFlow: POST /billing/flows {"sku": "...", "type": "subs"}
func (h *BillingHandler) LaunchBillingFlow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SKU  string `json:"sku"`
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.SKU = strings.TrimSpace(req.SKU)
	if req.SKU == "" {
		http.Error(w, "sku is required", http.StatusBadRequest)
		return
	}
	skuType, err := models.ParseSkuType(strings.TrimSpace(req.Type))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	code := h.Client.LaunchBillingFlow(models.BillingFlowParams{SKU: req.SKU, SkuType: skuType})
	writeJSON(w, http.StatusOK, newBillingResponse(code))
}

// Consume: POST /billing/consume/:token
func (h *BillingHandler) Consume(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get(":token")
	results := make(chan billingResponse, 1)
	h.Client.ConsumeAsync(token, func(code models.ResponseCode, purchaseToken string) {
		resp := newBillingResponse(code)
		resp.PurchaseToken = purchaseToken
		results <- resp
	})
	h.respond(w, r, results)
}

func (h *BillingHandler) respond(w http.ResponseWriter, r *http.Request, results chan billingResponse) {
	resp, err := awaitResult(r.Context(), h.ResultTimeout, results)
	if err != nil {
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
