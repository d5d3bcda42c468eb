package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"siaga-desk/core/utils"
)

// Reconciler periodically reloads the view so rows changed while the feed
// was disconnected (or dropped from a full subscriber buffer) are picked up.
type Reconciler struct {
	view     *View
	interval time.Duration
	logger   *utils.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewReconciler(view *View, interval time.Duration, logger *utils.Logger) *Reconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Reconciler{view: view, interval: interval, logger: logger}
}

func (r *Reconciler) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", r.interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := r.view.Load(ctx); err != nil && r.logger != nil {
			r.logger.Warnf("reconcile reload failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	r.cron = c
	r.running = true
	if r.logger != nil {
		r.logger.Printf("reconciler started interval=%s", r.interval)
	}
	return nil
}

func (r *Reconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	wasRunning := r.running
	r.running = false
	r.mu.Unlock()
	if !wasRunning || c == nil {
		return nil
	}
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
