package main

import (
	"context"
	"log"
	"time"

	"billingx/internal/services"
)

const executorDrainInterval = 10 * time.Millisecond

// startExecutorDrainer runs queued listener callbacks off the request path.
func startExecutorDrainer(ctx context.Context, queue *services.QueuedExecutor, infoLog, errorLog *log.Logger) {
	if queue == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(executorDrainInterval)
		defer ticker.Stop()

		runOnce := func() {
			defer func() {
				if err := recover(); err != nil && errorLog != nil {
					errorLog.Printf("executor drainer: listener panicked: %v", err)
				}
			}()
			queue.Drain()
		}

		if infoLog != nil {
			infoLog.Printf("executor drainer: draining queued callbacks every %s", executorDrainInterval)
		}
		for {
			select {
			case <-ctx.Done():
				runOnce()
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()
}
