package outbox

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestPublisherDisabledWithoutBrokers(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	p := NewPublisher(nil, nil, logger, PublisherConfig{Brokers: ""})

	// Without brokers Run must return immediately instead of ticking, and
	// it must not touch the database.
	done := make(chan struct{})
	go func() {
		p.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return with no brokers configured")
	}
}

func TestPublisherConfigDefaults(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	p := NewPublisher(nil, nil, logger, PublisherConfig{Brokers: "kafka-1:9092, kafka-2:9092"})

	if len(p.brokers) != 2 || p.brokers[0] != "kafka-1:9092" || p.brokers[1] != "kafka-2:9092" {
		t.Fatalf("broker list not parsed: %v", p.brokers)
	}
	if p.pollEvery != 2*time.Second {
		t.Fatalf("pollEvery default = %v", p.pollEvery)
	}
	if p.batchSize != 50 {
		t.Fatalf("batchSize default = %v", p.batchSize)
	}
}
