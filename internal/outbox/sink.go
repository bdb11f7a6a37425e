package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"
)

// Sink records delivered notifications as outbox events. A failed
// insert only loses the audit event, never the notification itself, so
// errors are logged and swallowed.
type Sink struct {
	repo   *Repository
	logger *slog.Logger
}

func NewSink(repo *Repository, logger *slog.Logger) *Sink {
	return &Sink{repo: repo, logger: logger}
}

type notificationSentPayload struct {
	RecordID int64     `json:"record_id"`
	Kind     string    `json:"kind"`
	ChatID   int64     `json:"chat_id"`
	SentAt   time.Time `json:"sent_at"`
}

func (s *Sink) NotificationSent(ctx context.Context, recordID int64, kind string, chatID int64) {
	payload, err := json.Marshal(notificationSentPayload{
		RecordID: recordID,
		Kind:     kind,
		ChatID:   chatID,
		SentAt:   time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("encode outbox payload", "err", err)
		return
	}
	evt := Event{
		AggregateType: "record",
		AggregateID:   strconv.FormatInt(recordID, 10),
		EventType:     EventNotificationSent,
		Payload:       payload,
	}
	if err := s.repo.Insert(ctx, evt); err != nil {
		s.logger.Error("insert outbox event", "err", err, "record_id", recordID, "kind", kind)
	}
}
