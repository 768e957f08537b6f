package game

import (
	"log"
	"time"
)

// Janitor periodically sweeps idle per-session lock entries so the in-memory
// lock table does not grow with every session ever played.
type Janitor struct {
	coordinator *Coordinator
	interval    time.Duration
	maxIdle     time.Duration
	stop        chan struct{}
}

func NewJanitor(coordinator *Coordinator, interval, maxIdle time.Duration) *Janitor {
	return &Janitor{
		coordinator: coordinator,
		interval:    interval,
		maxIdle:     maxIdle,
		stop:        make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called. Meant to run as a goroutine.
func (j *Janitor) Start() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := j.coordinator.sweepLocks(j.maxIdle); removed > 0 {
				log.Printf("[GAME] Memory cleanup: removed %d stale session locks", removed)
			}
		case <-j.stop:
			return
		}
	}
}

func (j *Janitor) Stop() {
	close(j.stop)
}
