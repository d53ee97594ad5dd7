package service

import (
	"context"
	"log"
	"time"
)

// Reaper periodically releases reservations that outlived their stored
// duration. It is opt-in: with the reaper disabled the system behaves like
// the original deployment, where an expired reservation holds its slot
// until an explicit cancel.
type Reaper struct {
	svc      *ReservationService
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewReaper builds a reaper sweeping at the given interval.
func NewReaper(svc *ReservationService, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{
		svc:      svc,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.
func (r *Reaper) Start() {
	go r.run()
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (r *Reaper) Stop() {
	close(r.stop)
	<-r.done
}

func (r *Reaper) run() {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.interval)
			n, err := r.svc.ExpireOverdue(ctx)
			cancel()
			if err != nil {
				log.Printf("reaper: sweep failed after %d releases: %v", n, err)
				continue
			}
			if n > 0 {
				log.Printf("reaper: released %d expired reservation(s)", n)
			}
		}
	}
}
