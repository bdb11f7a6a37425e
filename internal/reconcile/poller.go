package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Poller runs reconciliation passes sequentially. The interval is measured
// from the end of one pass to the start of the next, so a slow cycle never
// overlaps the following one. A failed cycle is logged and the loop goes on.
type Poller struct {
	reconciler *Reconciler
	logger     *slog.Logger
	interval   time.Duration
}

func NewPoller(reconciler *Reconciler, logger *slog.Logger, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		reconciler: reconciler,
		logger:     logger,
		interval:   interval,
	}
}

func (p *Poller) Run(ctx context.Context) {
	timer := time.NewTimer(0) // first cycle starts immediately
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		p.runCycle(ctx)

		timer.Reset(p.interval)
	}
}

func (p *Poller) runCycle(ctx context.Context) {
	cycleID := uuid.NewString()
	cycleCtx, span := otel.Tracer("reconcile").Start(ctx, "reconcile.cycle",
		trace.WithAttributes(attribute.String("cycle.id", cycleID)),
	)
	defer span.End()

	start := time.Now()
	if err := p.reconciler.RunOnce(cycleCtx); err != nil {
		span.RecordError(err)
		p.logger.Error("reconciliation cycle failed", "cycle_id", cycleID, "err", err)
		return
	}
	p.logger.Info("reconciliation cycle finished", "cycle_id", cycleID, "duration_ms", time.Since(start).Milliseconds())
}
