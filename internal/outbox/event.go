package outbox

// Event is the notification-lifecycle envelope written to the outbox table.
// The Kafka topic name equals EventType (event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	EventNotificationSent = "notifier.sent.v1"
)
