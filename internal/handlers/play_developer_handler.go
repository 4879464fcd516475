package handlers

import (
	"errors"
	"net/http"
	"strings"

	androidpublisher "google.golang.org/api/androidpublisher/v3"

	"billingx/internal/models"
	"billingx/internal/repositories"
)

// PlayDeveloper is the purchase lookup surface served under /androidpublisher/v3.
type PlayDeveloper interface {
	ProductPurchase(packageName, productID, token string) (*androidpublisher.ProductPurchase, error)
	SubscriptionPurchase(packageName, subscriptionID, token string) (*androidpublisher.SubscriptionPurchase, error)
	Acknowledge(skuType models.SkuType, packageName, productID, token string) error
	Consume(packageName, productID, token string) error
}

type PlayDeveloperHandler struct {
	Service PlayDeveloper
}

func NewPlayDeveloperHandler(service PlayDeveloper) *PlayDeveloperHandler {
	return &PlayDeveloperHandler{Service: service}
}

type googleErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

// GetProduct: GET /androidpublisher/v3/applications/:packageName/purchases/products/:productId/tokens/:token
func (h *PlayDeveloperHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.Service.ProductPurchase(q.Get(":packageName"), q.Get(":productId"), q.Get(":token"))
	if err != nil {
		writeGoogleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSubscription: GET /androidpublisher/v3/applications/:packageName/purchases/subscriptions/:subscriptionId/tokens/:token
func (h *PlayDeveloperHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.Service.SubscriptionPurchase(q.Get(":packageName"), q.Get(":subscriptionId"), q.Get(":token"))
	if err != nil {
		writeGoogleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// PostProduct: POST .../purchases/products/:productId/tokens/:token:{acknowledge|consume}
func (h *PlayDeveloperHandler) PostProduct(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pkg, id := q.Get(":packageName"), q.Get(":productId")
	token, method := splitCustomMethod(q.Get(":token"))

	var err error
	switch method {
	case "acknowledge":
		err = h.Service.Acknowledge(models.SkuTypeInApp, pkg, id, token)
	case "consume":
		err = h.Service.Consume(pkg, id, token)
	default:
		writeGoogleStatus(w, http.StatusNotFound, "unknown method on purchase token")
		return
	}
	writeMethodResult(w, err)
}

// PostSubscription: POST .../purchases/subscriptions/:subscriptionId/tokens/:token:acknowledge
func (h *PlayDeveloperHandler) PostSubscription(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token, method := splitCustomMethod(q.Get(":token"))
	if method != "acknowledge" {
		writeGoogleStatus(w, http.StatusNotFound, "unknown method on purchase token")
		return
	}
	writeMethodResult(w, h.Service.Acknowledge(models.SkuTypeSubs, q.Get(":packageName"), q.Get(":subscriptionId"), token))
}

// splitCustomMethod separates "token:method". pat only stops a parameter at
// '/', so the method arrives inside the token.
func splitCustomMethod(raw string) (token, method string) {
	i := strings.LastIndexByte(raw, ':')
	if i < 0 {
		return raw, ""
	}
	return raw[:i], raw[i+1:]
}

func writeMethodResult(w http.ResponseWriter, err error) {
	if err != nil {
		writeGoogleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeGoogleError(w http.ResponseWriter, err error) {
	if errors.Is(err, repositories.ErrNotFound) {
		writeGoogleStatus(w, http.StatusNotFound, "The purchase token was not found.")
		return
	}
	writeGoogleStatus(w, http.StatusInternalServerError, err.Error())
}

func writeGoogleStatus(w http.ResponseWriter, status int, message string) {
	var body googleErrorBody
	body.Error.Code = status
	body.Error.Message = message
	if status == http.StatusNotFound {
		body.Error.Status = "NOT_FOUND"
	}
	writeJSON(w, status, body)
}
