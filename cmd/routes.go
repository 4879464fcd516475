package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

const playPurchases = "/androidpublisher/v3/applications/:packageName/purchases"

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	streamMiddleware := alice.New(app.recoverPanic, app.logRequest)

	mux := pat.New()

	// Billing client
	mux.Post("/billing/connection", standardMiddleware.ThenFunc(app.billingHandler.StartConnection))
	mux.Del("/billing/connection", standardMiddleware.ThenFunc(app.billingHandler.EndConnection))
	mux.Get("/billing/connection", standardMiddleware.ThenFunc(app.billingHandler.GetConnection))
	mux.Get("/billing/features/:feature", standardMiddleware.ThenFunc(app.billingHandler.IsFeatureSupported))
	mux.Get("/billing/purchases/history", standardMiddleware.ThenFunc(app.billingHandler.QueryPurchaseHistory))
	mux.Get("/billing/purchases", standardMiddleware.ThenFunc(app.billingHandler.QueryPurchases))
	mux.Get("/billing/skus", standardMiddleware.ThenFunc(app.billingHandler.QuerySkuDetails))
	mux.Post("/billing/flows", standardMiddleware.ThenFunc(app.billingHandler.LaunchBillingFlow))
	mux.Post("/billing/consume/:token", standardMiddleware.ThenFunc(app.billingHandler.Consume))
	mux.Post("/billing/verify", standardMiddleware.ThenFunc(app.verifyHandler.Verify))

	// Play Developer API
	mux.Get(playPurchases+"/products/:productId/tokens/:token", standardMiddleware.ThenFunc(app.playHandler.GetProduct))
	mux.Post(playPurchases+"/products/:productId/tokens/:token", standardMiddleware.ThenFunc(app.playHandler.PostProduct))
	mux.Get(playPurchases+"/subscriptions/:subscriptionId/tokens/:token", standardMiddleware.ThenFunc(app.playHandler.GetSubscription))
	mux.Post(playPurchases+"/subscriptions/:subscriptionId/tokens/:token", standardMiddleware.ThenFunc(app.playHandler.PostSubscription))

	// Streams and metrics
	mux.Get("/ws/purchases", streamMiddleware.ThenFunc(app.purchaseHub.ServeWS))
	mux.Get("/metrics", streamMiddleware.Then(app.metrics.Handler()))

	mux.NotFound = standardMiddleware.ThenFunc(func(w http.ResponseWriter, r *http.Request) {
		app.notFound(w)
	})

	return mux
}
