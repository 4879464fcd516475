package services

import (
	"sync"

	"github.com/eapache/queue"
)

// Executor runs listener callbacks on behalf of the billing client.
type Executor interface {
	Execute(command func())
}

// ExecutorFunc adapts a plain function to Executor.
type ExecutorFunc func(command func())

func (f ExecutorFunc) Execute(command func()) { f(command) }

// ImmediateExecutor runs every command inline, before Execute returns.
type ImmediateExecutor struct{}

func (ImmediateExecutor) Execute(command func()) { command() }

// QueuedExecutor holds commands in FIFO order until Drain is called, which
// lets a caller decide when "asynchronous" responses arrive.
type QueuedExecutor struct {
	mu      sync.Mutex
	pending *queue.Queue
}

func NewQueuedExecutor() *QueuedExecutor {
	return &QueuedExecutor{pending: queue.New()}
}

func (e *QueuedExecutor) Execute(command func()) {
	e.mu.Lock()
	e.pending.Add(command)
	e.mu.Unlock()
}

// Pending reports how many commands are waiting.
func (e *QueuedExecutor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending.Length()
}

// Drain runs queued commands until the queue is empty, including commands
// enqueued while draining, and returns how many ran.
func (e *QueuedExecutor) Drain() int {
	ran := 0
	for {
		e.mu.Lock()
		if e.pending.Length() == 0 {
			e.mu.Unlock()
			return ran
		}
		command := e.pending.Remove().(func())
		e.mu.Unlock()

		command()
		ran++
	}
}
