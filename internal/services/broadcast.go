package services

import (
	"sync"

	"billingx/internal/models"
)

// PurchaseReceiver consumes broadcast purchase results.
type PurchaseReceiver func(update models.PurchasesUpdate)

// LocalBroadcaster carries billing flow results from whoever completes the
// flow back to the clients that registered for them.
type LocalBroadcaster interface {
	RegisterReceiver(id string, receiver PurchaseReceiver)
	UnregisterReceiver(id string)
	SendBroadcast(update models.PurchasesUpdate)
}

// NoopBroadcaster drops everything.
type NoopBroadcaster struct{}

func (NoopBroadcaster) RegisterReceiver(string, PurchaseReceiver) {}
func (NoopBroadcaster) UnregisterReceiver(string)                 {}
func (NoopBroadcaster) SendBroadcast(models.PurchasesUpdate)      {}

type registeredReceiver struct {
	id       string
	receiver PurchaseReceiver
}

// InProcessBroadcaster delivers synchronously to every registered receiver
// in registration order.
type InProcessBroadcaster struct {
	mu        sync.RWMutex
	receivers []registeredReceiver
}

func NewInProcessBroadcaster() *InProcessBroadcaster {
	return &InProcessBroadcaster{}
}

// RegisterReceiver adds or replaces the receiver stored under id.
func (b *InProcessBroadcaster) RegisterReceiver(id string, receiver PurchaseReceiver) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.receivers {
		if b.receivers[i].id == id {
			b.receivers[i].receiver = receiver
			return
		}
	}
	b.receivers = append(b.receivers, registeredReceiver{id: id, receiver: receiver})
}

func (b *InProcessBroadcaster) UnregisterReceiver(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.receivers {
		if b.receivers[i].id == id {
			b.receivers = append(b.receivers[:i], b.receivers[i+1:]...)
			return
		}
	}
}

func (b *InProcessBroadcaster) SendBroadcast(update models.PurchasesUpdate) {
	b.mu.RLock()
	targets := make([]PurchaseReceiver, 0, len(b.receivers))
	for _, r := range b.receivers {
		targets = append(targets, r.receiver)
	}
	b.mu.RUnlock()

	for _, receiver := range targets {
		receiver(update)
	}
}

// Receivers reports how many receivers are registered.
func (b *InProcessBroadcaster) Receivers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.receivers)
}
