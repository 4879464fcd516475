package services

import "billingx/internal/models"

// BillingClientStateListener is told about connection setup and loss.
type BillingClientStateListener interface {
	OnBillingSetupFinished(code models.ResponseCode)
	OnBillingServiceDisconnected()
}

// StateListenerFuncs adapts optional functions to BillingClientStateListener.
type StateListenerFuncs struct {
	SetupFinished func(code models.ResponseCode)
	Disconnected  func()
}

func (f StateListenerFuncs) OnBillingSetupFinished(code models.ResponseCode) {
	if f.SetupFinished != nil {
		f.SetupFinished(code)
	}
}

func (f StateListenerFuncs) OnBillingServiceDisconnected() {
	if f.Disconnected != nil {
		f.Disconnected()
	}
}

// PurchasesUpdatedListener is held for the client's lifetime and receives
// the result of every billing flow.
type PurchasesUpdatedListener func(code models.ResponseCode, purchases []models.Purchase)

// SkuDetailsResponseListener receives one QuerySkuDetailsAsync result.
type SkuDetailsResponseListener func(code models.ResponseCode, details []models.SkuDetails)

// PurchaseHistoryResponseListener receives one QueryPurchaseHistoryAsync result.
type PurchaseHistoryResponseListener func(code models.ResponseCode, purchases []models.Purchase)

// ConsumeResponseListener receives one ConsumeAsync result.
type ConsumeResponseListener func(code models.ResponseCode, purchaseToken string)
