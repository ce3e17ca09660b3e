package session

import (
	"context"
	"time"
)

// Rotator periodically renews the codes of active sessions so a code
// shown on screen never outlives its validity window.
type Rotator struct {
	svc     *Service
	cadence time.Duration
}

func NewRotator(svc *Service, cadence time.Duration) *Rotator {
	return &Rotator{svc: svc, cadence: cadence}
}

// Run blocks until ctx is canceled. A zero (or negative) cadence disables rotation.
func (r *Rotator) Run(ctx context.Context) {
	if r.cadence <= 0 {
		return
	}
	ticker := time.NewTicker(r.cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Rotator) runOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.cadence)
	defer cancel()

	n, err := r.svc.RefreshActive(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.svc.logger.Error("rotating session codes", err)
		}
		return
	}
	if n > 0 {
		r.svc.logger.Debug("session codes rotated", map[string]interface{}{"sessions": n})
	}
}
