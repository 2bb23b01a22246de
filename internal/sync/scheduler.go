package sync

import (
	gosync "sync"
	"time"
)

// Handle cancels a repeating task registered with a Scheduler.
type Handle interface {
	Stop()
}

// Scheduler runs fn every interval until the returned Handle is stopped.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Handle
}

// TickerScheduler is a Scheduler backed by time.Ticker. Each task runs on
// its own goroutine; a tick that arrives while fn is still running is
// dropped.
type TickerScheduler struct{}

// Every starts a goroutine that calls fn on every tick.
func (TickerScheduler) Every(interval time.Duration, fn func()) Handle {
	h := &tickerHandle{
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	ticker := time.NewTicker(interval)

	go func() {
		defer close(h.doneCh)
		defer ticker.Stop()
		for {
			select {
			case <-h.stopCh:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	return h
}

type tickerHandle struct {
	once   gosync.Once
	stopCh chan struct{}
	doneCh chan struct{}
}

// Stop halts the ticker and waits for a running fn to return.
func (h *tickerHandle) Stop() {
	h.once.Do(func() { close(h.stopCh) })
	<-h.doneCh
}
