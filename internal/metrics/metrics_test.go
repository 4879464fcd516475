package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"billingx/internal/models"
)

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestObserveResponse(t *testing.T) {
	r := New()
	r.ObserveResponse("query_purchases", models.OK)
	r.ObserveResponse("query_purchases", models.OK)
	r.ObserveResponse("query_purchases", models.ServiceDisconnected)

	body := scrape(t, r)
	for _, want := range []string{
		`billingx_queries_total{operation="query_purchases",response="OK"} 2`,
		`billingx_queries_total{operation="query_purchases",response="SERVICE_DISCONNECTED"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in:\n%s", want, body)
		}
	}
}

func TestHubCounters(t *testing.T) {
	r := New()
	r.ObserveResponse("consume", models.ItemNotOwned)
	r.PurchasesUpdatedInc()
	r.WSClientsSet(3)

	body := scrape(t, r)
	for _, want := range []string{
		`billingx_queries_total{operation="consume",response="ITEM_NOT_OWNED"} 1`,
		`billingx_purchases_updated_total 1`,
		`billingx_ws_clients 3`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in:\n%s", want, body)
		}
	}
}
