package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"billingx/internal/models"
)

type Registry struct {
	reg              *prometheus.Registry
	Responses        *prometheus.CounterVec
	PurchasesUpdated prometheus.Counter
	WSClients        prometheus.Gauge
}

func New() *Registry {
	r := prometheus.NewRegistry()
	responses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billingx_queries_total",
		Help: "Billing client operations by response code.",
	}, []string{"operation", "response"})
	updated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "billingx_purchases_updated_total",
		Help: "Purchase updates delivered to the purchases-updated listener.",
	})
	wsClients := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "billingx_ws_clients",
		Help: "Open /ws/purchases connections.",
	})

	r.MustRegister(responses, updated, wsClients)
	return &Registry{
		reg:              r,
		Responses:        responses,
		PurchasesUpdated: updated,
		WSClients:        wsClients,
	}
}

// ObserveResponse counts one client operation outcome.
func (r *Registry) ObserveResponse(operation string, code models.ResponseCode) {
	r.Responses.WithLabelValues(operation, code.String()).Inc()
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func (r *Registry) PurchasesUpdatedInc() { r.PurchasesUpdated.Inc() }

func (r *Registry) WSClientsSet(n int) { r.WSClients.Set(float64(n)) }
