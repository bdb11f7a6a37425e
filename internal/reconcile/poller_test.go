package reconcile

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mesto-barbershop/notifybot/internal/yclients"
)

type countingSource struct {
	calls atomic.Int64
}

func (s *countingSource) UpcomingRecords(context.Context, time.Time) ([]yclients.Record, error) {
	s.calls.Add(1)
	return nil, nil
}

// One fetch equals one completed cycle: an empty fetch still finishes
// the pass.
func TestPollerRunsImmediatelyAndStopsOnCancel(t *testing.T) {
	src := &countingSource{}
	logger := slog.New(slog.DiscardHandler)
	rec := New(src, newFakeTracked(), newFakeDedup(),
		&fakeClients{byPhoneSuffix: map[string]int64{}},
		&fakeStaff{byRemoteID: map[int64]int64{}},
		&fakeNotifier{}, nil, logger, Config{})

	p := NewPoller(rec, logger, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for src.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("poller did not complete two cycles in time")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancellation")
	}
}
