package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"billingx/internal/models"
	"billingx/internal/repositories"
)

// Logger is the minimal logging surface used by services.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Recorder observes the response code of every client operation.
type Recorder interface {
	ObserveResponse(operation string, code models.ResponseCode)
}

// Operation names reported to Recorder.
const (
	OpQueryPurchases       = "query_purchases"
	OpQueryPurchaseHistory = "query_purchase_history"
	OpQuerySkuDetails      = "query_sku_details"
	OpLaunchBillingFlow    = "launch_billing_flow"
	OpConsume              = "consume"
	OpPurchasesUpdated     = "purchases_updated"
	OpIsFeatureSupported   = "is_feature_supported"
)

type connectionState int

const (
	stateDisconnected connectionState = iota
	stateReady
)

func (s connectionState) String() string {
	if s == stateReady {
		return "ready"
	}
	return "disconnected"
}

// DebugBillingClientDeps groups the collaborators of a DebugBillingClient.
// Store is required; everything else has a usable default.
type DebugBillingClientDeps struct {
	Store       repositories.BillingStore
	Listener    PurchasesUpdatedListener
	Executor    Executor
	Broadcaster LocalBroadcaster
	PackageName string
	Logger      Logger
	Recorder    Recorder
	Now         func() time.Time
}

// Validate ensures required collaborators are present.
func (d DebugBillingClientDeps) Validate() error {
	if d.Store == nil {
		return errors.New("billing store is required")
	}
	return nil
}

// DebugBillingClient answers billing client calls from a BillingStore.
// Every query is gated on the connection state; listeners are always run
// through the configured Executor and invoked exactly once per call.
type DebugBillingClient struct {
	id          string
	store       repositories.BillingStore
	listener    PurchasesUpdatedListener
	executor    Executor
	broadcaster LocalBroadcaster
	packageName string
	logger      Logger
	recorder    Recorder
	now         func() time.Time

	// connMu serializes StartConnection and EndConnection so the state and
	// the broadcaster registration always change together.
	connMu sync.Mutex
	mu     sync.RWMutex
	state  connectionState
}

func NewDebugBillingClient(deps DebugBillingClientDeps) (*DebugBillingClient, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	c := &DebugBillingClient{
		id:          uuid.New().String(),
		store:       deps.Store,
		listener:    deps.Listener,
		executor:    deps.Executor,
		broadcaster: deps.Broadcaster,
		packageName: strings.TrimSpace(deps.PackageName),
		logger:      deps.Logger,
		recorder:    deps.Recorder,
		now:         deps.Now,
		state:       stateDisconnected,
	}
	if c.listener == nil {
		c.listener = func(models.ResponseCode, []models.Purchase) {}
	}
	if c.executor == nil {
		c.executor = ImmediateExecutor{}
	}
	if c.broadcaster == nil {
		c.broadcaster = NoopBroadcaster{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// StartConnection moves the client to READY and reports OK to listener
// before returning. It never fails.
func (c *DebugBillingClient) StartConnection(listener BillingClientStateListener) {
	c.connMu.Lock()
	c.setState(stateReady)
	c.broadcaster.RegisterReceiver(c.id, c.onPurchasesBroadcast)
	c.connMu.Unlock()
	if listener != nil {
		listener.OnBillingSetupFinished(models.OK)
	}
}

// EndConnection moves the client back to DISCONNECTED. Calling it on a
// disconnected client is a no-op.
func (c *DebugBillingClient) EndConnection() {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	c.broadcaster.UnregisterReceiver(c.id)
	c.setState(stateDisconnected)
}

func (c *DebugBillingClient) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == stateReady
}

// IsFeatureSupported declares every feature supported once connected.
func (c *DebugBillingClient) IsFeatureSupported(feature models.FeatureType) models.ResponseCode {
	code := models.OK
	if !c.IsReady() {
		code = models.ServiceDisconnected
	}
	c.record(OpIsFeatureSupported, code)
	return code
}

// QueryPurchases returns the owned purchases of skuType. It panics with an
// error wrapping models.ErrUnknownSkuType if skuType is not inapp or subs
// while connected.
func (c *DebugBillingClient) QueryPurchases(skuType models.SkuType) models.PurchasesResult {
	var out models.PurchasesResult
	c.queryPurchases(ImmediateExecutor{}, OpQueryPurchases, skuType, func(code models.ResponseCode, purchases []models.Purchase) {
		out = models.PurchasesResult{ResponseCode: code, Purchases: purchases}
	})
	return out
}

// QueryPurchaseHistoryAsync delivers the full purchase history of skuType
// to listener. Same contract as QueryPurchases.
func (c *DebugBillingClient) QueryPurchaseHistoryAsync(skuType models.SkuType, listener PurchaseHistoryResponseListener) {
	c.queryPurchases(c.executor, OpQueryPurchaseHistory, skuType, listener)
}

// QuerySkuDetailsAsync delivers the details of the requested SKUs that the
// store knows for params.SkuType.
func (c *DebugBillingClient) QuerySkuDetailsAsync(params models.SkuDetailsParams, listener SkuDetailsResponseListener) {
	if !c.IsReady() {
		c.deliver(c.executor, OpQuerySkuDetails, models.ServiceDisconnected, func() {
			listener(models.ServiceDisconnected, nil)
		})
		return
	}
	details, err := c.store.SkuDetails(params)
	if err != nil {
		c.contractViolation(OpQuerySkuDetails, err)
	}
	c.deliver(c.executor, OpQuerySkuDetails, models.OK, func() {
		listener(models.OK, details)
	})
}

// LaunchBillingFlow simulates a successful purchase of params.SKU. The new
// receipt reaches the PurchasesUpdatedListener through the broadcaster.
func (c *DebugBillingClient) LaunchBillingFlow(params models.BillingFlowParams) models.ResponseCode {
	if !c.IsReady() {
		c.record(OpLaunchBillingFlow, models.ServiceDisconnected)
		return models.ServiceDisconnected
	}
	details, err := c.store.SkuDetails(models.SkuDetailsParams{SkuType: params.SkuType, SkusList: []string{params.SKU}})
	if err != nil {
		c.contractViolation(OpLaunchBillingFlow, err)
	}
	if len(details) == 0 {
		c.record(OpLaunchBillingFlow, models.ItemUnavailable)
		return models.ItemUnavailable
	}

	purchase, err := models.BuildPurchase(
		newOrderID(),
		c.packageName,
		params.SKU,
		params.SkuType == models.SkuTypeSubs,
		c.now(),
		newPurchaseToken(),
		debugSignature(params.SKU, params.SkuType),
	)
	if err != nil {
		c.errorf("billing flow %s: build purchase: %v", params.SKU, err)
		c.record(OpLaunchBillingFlow, models.Error)
		return models.Error
	}

	c.infof("billing flow completed sku=%s type=%s order=%s", params.SKU, params.SkuType, purchase.OrderID)
	c.broadcaster.SendBroadcast(models.PurchasesUpdate{
		ResponseCode: models.OK,
		Purchases:    []models.Purchase{purchase},
	})
	c.record(OpLaunchBillingFlow, models.OK)
	return models.OK
}

// ConsumeAsync reports OK for the token of an owned one-time purchase and
// ITEM_NOT_OWNED otherwise. The store is not modified.
func (c *DebugBillingClient) ConsumeAsync(purchaseToken string, listener ConsumeResponseListener) {
	code := models.OK
	switch {
	case !c.IsReady():
		code = models.ServiceDisconnected
	case strings.TrimSpace(purchaseToken) == "":
		code = models.DeveloperError
	default:
		_, err := c.store.PurchaseByToken(models.SkuTypeInApp, "", purchaseToken)
		if errors.Is(err, repositories.ErrNotFound) {
			code = models.ItemNotOwned
		} else if err != nil {
			c.errorf("consume %s: %v", purchaseToken, err)
			code = models.Error
		}
	}
	c.deliver(c.executor, OpConsume, code, func() {
		listener(code, purchaseToken)
	})
}

// queryPurchases is the single delivery path behind both the direct-return
// and the listener call shapes.
func (c *DebugBillingClient) queryPurchases(exec Executor, op string, skuType models.SkuType, listener PurchaseHistoryResponseListener) {
	if !c.IsReady() {
		c.deliver(exec, op, models.ServiceDisconnected, func() {
			listener(models.ServiceDisconnected, nil)
		})
		return
	}
	res, err := c.store.Purchases(skuType)
	if err != nil {
		c.contractViolation(op, err)
	}
	c.deliver(exec, op, res.ResponseCode, func() {
		listener(res.ResponseCode, res.Purchases)
	})
}

func (c *DebugBillingClient) onPurchasesBroadcast(update models.PurchasesUpdate) {
	if !c.IsReady() {
		return
	}
	c.deliver(c.executor, OpPurchasesUpdated, update.ResponseCode, func() {
		c.listener(update.ResponseCode, update.Purchases)
	})
}

func (c *DebugBillingClient) deliver(exec Executor, op string, code models.ResponseCode, callback func()) {
	c.record(op, code)
	exec.Execute(callback)
}

// contractViolation aborts the call. Store errors only arise from caller
// bugs such as an unknown sku type.
func (c *DebugBillingClient) contractViolation(op string, err error) {
	c.errorf("%s: %v", op, err)
	panic(fmt.Errorf("billingx: %s: %w", op, err))
}

func (c *DebugBillingClient) setState(next connectionState) {
	c.mu.Lock()
	prev := c.state
	c.state = next
	c.mu.Unlock()
	if prev != next {
		c.infof("billing client %s: %s -> %s", c.id, prev, next)
	}
}

func (c *DebugBillingClient) record(op string, code models.ResponseCode) {
	if c.recorder != nil {
		c.recorder.ObserveResponse(op, code)
	}
}

func (c *DebugBillingClient) infof(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Infof(format, args...)
	}
}

func (c *DebugBillingClient) errorf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Errorf(format, args...)
	}
}
