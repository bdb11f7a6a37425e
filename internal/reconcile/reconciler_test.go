package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mesto-barbershop/notifybot/internal/phone"
	"github.com/mesto-barbershop/notifybot/internal/storage"
	"github.com/mesto-barbershop/notifybot/internal/yclients"
)

// ---- fakes ----

type fakeSource struct {
	records []yclients.Record
	err     error
}

func (s *fakeSource) UpcomingRecords(context.Context, time.Time) ([]yclients.Record, error) {
	return s.records, s.err
}

type fakeTracked struct {
	records map[int64]storage.TrackedRecord
}

func newFakeTracked() *fakeTracked {
	return &fakeTracked{records: make(map[int64]storage.TrackedRecord)}
}

func (t *fakeTracked) Get(_ context.Context, id int64) (storage.TrackedRecord, bool, error) {
	tr, ok := t.records[id]
	return tr, ok, nil
}

func (t *fakeTracked) Upsert(_ context.Context, tr storage.TrackedRecord) error {
	if tr.Status == "" {
		tr.Status = storage.StatusActive
	}
	t.records[tr.RecordID] = tr
	return nil
}

func (t *fakeTracked) ListActive(context.Context) (map[int64]string, error) {
	active := make(map[int64]string)
	for id, tr := range t.records {
		if tr.Status == storage.StatusActive {
			active[id] = tr.StartAt
		}
	}
	return active, nil
}

func (t *fakeTracked) MarkCancelled(_ context.Context, id int64) error {
	tr, ok := t.records[id]
	if !ok || tr.Status == storage.StatusCancelled {
		return nil
	}
	tr.Status = storage.StatusCancelled
	t.records[id] = tr
	return nil
}

type fakeDedup struct {
	sent     map[string]bool
	arrivals map[int64]bool
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{sent: make(map[string]bool), arrivals: make(map[int64]bool)}
}

func (d *fakeDedup) key(id int64, kind string) string { return fmt.Sprintf("%d|%s", id, kind) }

func (d *fakeDedup) Sent(_ context.Context, id int64, kind string) (bool, error) {
	return d.sent[d.key(id, kind)], nil
}

func (d *fakeDedup) MarkSent(_ context.Context, id int64, kind string) error {
	d.sent[d.key(id, kind)] = true
	return nil
}

func (d *fakeDedup) ArrivalNotified(_ context.Context, id int64) (bool, error) {
	return d.arrivals[id], nil
}

func (d *fakeDedup) MarkArrival(_ context.Context, id int64) error {
	d.arrivals[id] = true
	return nil
}

type fakeClients struct {
	byPhoneSuffix map[string]int64
}

func (c *fakeClients) ResolveByPhone(_ context.Context, raw string) (int64, bool, error) {
	id, ok := c.byPhoneSuffix[phone.SuffixKey(raw)]
	return id, ok, nil
}

type fakeStaff struct {
	byRemoteID map[int64]int64
}

func (s *fakeStaff) ResolveByRemoteID(_ context.Context, remoteID int64) (int64, bool, error) {
	id, ok := s.byRemoteID[remoteID]
	return id, ok, nil
}

type sentMessage struct {
	kind   string
	chatID int64
	record int64
}

type fakeNotifier struct {
	messages []sentMessage
	failKind string // force send failure for this kind
}

func (n *fakeNotifier) record(kind string, chatID int64, recordID int64) error {
	if kind == n.failKind {
		return errors.New("telegram unavailable")
	}
	n.messages = append(n.messages, sentMessage{kind: kind, chatID: chatID, record: recordID})
	return nil
}

func (n *fakeNotifier) NewRecord(_ context.Context, chatID int64, rec yclients.Record) error {
	return n.record("new", chatID, rec.ID)
}

func (n *fakeNotifier) Rescheduled(_ context.Context, chatID int64, rec yclients.Record) error {
	return n.record("changed", chatID, rec.ID)
}

func (n *fakeNotifier) Reminder24h(_ context.Context, chatID int64, rec yclients.Record) error {
	return n.record("reminder", chatID, rec.ID)
}

func (n *fakeNotifier) Cancelled(_ context.Context, chatID int64) error {
	return n.record("cancelled", chatID, 0)
}

func (n *fakeNotifier) StaffArrival(_ context.Context, chatID int64, rec yclients.Record) error {
	return n.record("arrived", chatID, rec.ID)
}

func (n *fakeNotifier) countKind(kind string) int {
	c := 0
	for _, m := range n.messages {
		if m.kind == kind {
			c++
		}
	}
	return c
}

// ---- harness ----

type harness struct {
	source   *fakeSource
	tracked  *fakeTracked
	dedup    *fakeDedup
	clients  *fakeClients
	staff    *fakeStaff
	notifier *fakeNotifier
	rec      *Reconciler
	now      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		source:   &fakeSource{},
		tracked:  newFakeTracked(),
		dedup:    newFakeDedup(),
		clients:  &fakeClients{byPhoneSuffix: map[string]int64{"9001234567": 555}},
		staff:    &fakeStaff{byRemoteID: map[int64]int64{7: 777}},
		notifier: &fakeNotifier{},
		now:      time.Date(2026, 2, 4, 12, 0, 0, 0, time.Local),
	}
	logger := slog.New(slog.DiscardHandler)
	h.rec = New(h.source, h.tracked, h.dedup, h.clients, h.staff, h.notifier, nil, logger, Config{}).
		WithClock(func() time.Time { return h.now })
	return h
}

func (h *harness) cycle(t *testing.T) {
	t.Helper()
	if err := h.rec.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
}

func apptAt(id int64, start string) yclients.Record {
	return yclients.Record{
		ID:       id,
		Datetime: start,
		Services: []yclients.Service{{Title: "Стрижка", Length: 45}},
		Staff:    &yclients.StaffRef{ID: 7, Name: "Иван"},
		Client:   &yclients.ClientRef{Phone: "+7 (900) 123-45-67", Name: "Пётр"},
	}
}

// ---- tests ----

func TestNewRecordNotifiedExactlyOnce(t *testing.T) {
	h := newHarness(t)
	h.source.records = []yclients.Record{apptAt(101, "2026-02-05 13:30:00")}

	for i := 0; i < 3; i++ {
		h.cycle(t)
	}

	if got := h.notifier.countKind("new"); got != 1 {
		t.Fatalf("expected exactly one new-record notification, got %d", got)
	}
	tr, ok := h.tracked.records[101]
	if !ok || tr.Status != storage.StatusActive || tr.StartAt != "2026-02-05 13:30:00" {
		t.Fatalf("snapshot not created correctly: %+v", tr)
	}
}

func TestUnregisteredClientGetsNoMessageButIsTracked(t *testing.T) {
	h := newHarness(t)
	rec := apptAt(101, "2026-02-05 13:30:00")
	rec.Client.Phone = "+79995554433" // not registered
	h.source.records = []yclients.Record{rec}

	h.cycle(t)

	if len(h.notifier.messages) != 0 {
		t.Fatalf("expected no messages, got %+v", h.notifier.messages)
	}
	if _, ok := h.tracked.records[101]; !ok {
		t.Fatal("record should be tracked even without a registered client")
	}
}

func TestRescheduleNotifiesPerTargetTime(t *testing.T) {
	h := newHarness(t)
	h.source.records = []yclients.Record{apptAt(101, "2026-02-05 13:30:00")}
	h.cycle(t)

	// Shift under the threshold: silent, but snapshot updates.
	h.source.records = []yclients.Record{apptAt(101, "2026-02-05 13:40:00")}
	h.cycle(t)
	if got := h.notifier.countKind("changed"); got != 0 {
		t.Fatalf("sub-threshold shift should not notify, got %d", got)
	}
	if h.tracked.records[101].StartAt != "2026-02-05 13:40:00" {
		t.Fatal("snapshot should follow the latest observed start")
	}

	// First real reschedule.
	h.source.records = []yclients.Record{apptAt(101, "2026-02-05 16:00:00")}
	h.cycle(t)
	h.cycle(t)
	if got := h.notifier.countKind("changed"); got != 1 {
		t.Fatalf("expected one reschedule notification, got %d", got)
	}

	// Second reschedule to a different target gets its own dedup key.
	h.source.records = []yclients.Record{apptAt(101, "2026-02-06 11:00:00")}
	h.cycle(t)
	h.cycle(t)
	if got := h.notifier.countKind("changed"); got != 2 {
		t.Fatalf("expected a second distinct reschedule notification, got %d", got)
	}
}

func TestReminderWindowFiresOnce(t *testing.T) {
	h := newHarness(t)
	// Appointment exactly 24h out.
	h.source.records = []yclients.Record{apptAt(101, "2026-02-05 12:00:00")}
	h.cycle(t)
	if got := h.notifier.countKind("reminder"); got != 1 {
		t.Fatalf("expected reminder inside the window, got %d", got)
	}
	h.cycle(t)
	if got := h.notifier.countKind("reminder"); got != 1 {
		t.Fatalf("reminder must not repeat, got %d", got)
	}
}

func TestReminderOutsideWindowDoesNotFire(t *testing.T) {
	h := newHarness(t)
	// 48h out: too early.
	h.source.records = []yclients.Record{apptAt(101, "2026-02-06 12:00:00")}
	h.cycle(t)
	// 2h out: too late.
	h.source.records = []yclients.Record{apptAt(102, "2026-02-04 14:00:00")}
	h.cycle(t)
	if got := h.notifier.countKind("reminder"); got != 0 {
		t.Fatalf("expected no reminders, got %d", got)
	}
}

func TestDisappearanceCancelsOnce(t *testing.T) {
	h := newHarness(t)
	h.source.records = []yclients.Record{
		apptAt(101, "2026-02-05 13:30:00"),
		apptAt(102, "2026-02-05 15:00:00"),
	}
	h.cycle(t)

	// 101 vanishes from the window.
	h.source.records = []yclients.Record{apptAt(102, "2026-02-05 15:00:00")}
	h.cycle(t)
	h.cycle(t)

	if got := h.notifier.countKind("cancelled"); got != 1 {
		t.Fatalf("expected one cancellation notification, got %d", got)
	}
	if h.tracked.records[101].Status != storage.StatusCancelled {
		t.Fatal("record 101 should be cancelled")
	}
	if h.tracked.records[102].Status != storage.StatusActive {
		t.Fatal("record 102 should stay active")
	}
}

func TestEmptyFetchDoesNotMassCancel(t *testing.T) {
	h := newHarness(t)
	h.source.records = []yclients.Record{apptAt(101, "2026-02-05 13:30:00")}
	h.cycle(t)

	h.source.records = nil
	h.cycle(t)

	if got := h.notifier.countKind("cancelled"); got != 0 {
		t.Fatalf("empty fetch must not cancel, got %d cancellations", got)
	}
	if h.tracked.records[101].Status != storage.StatusActive {
		t.Fatal("record should remain active after empty fetch")
	}
}

func TestFetchErrorAbortsCycle(t *testing.T) {
	h := newHarness(t)
	h.source.err = errors.New("timeout")
	if err := h.rec.RunOnce(context.Background()); err == nil {
		t.Fatal("expected fetch error to surface")
	}
	if len(h.notifier.messages) != 0 {
		t.Fatal("no messages on failed fetch")
	}
}

func TestFailedSendIsRetriedNextCycle(t *testing.T) {
	h := newHarness(t)
	h.source.records = []yclients.Record{apptAt(101, "2026-02-05 13:30:00")}

	h.notifier.failKind = "new"
	h.cycle(t)
	if got := h.notifier.countKind("new"); got != 0 {
		t.Fatalf("send should have failed, got %d", got)
	}
	// The snapshot must not be written yet, or the record would count as
	// known next cycle and the announcement would never be retried.
	if _, tracked := h.tracked.records[101]; tracked {
		t.Fatal("record must stay untracked while its announcement is owed")
	}

	// Outage over; the unmarked dedup key allows a retry.
	h.notifier.failKind = ""
	h.cycle(t)
	h.cycle(t)
	if got := h.notifier.countKind("new"); got != 1 {
		t.Fatalf("expected exactly one notification after retry, got %d", got)
	}
	if tr, ok := h.tracked.records[101]; !ok || tr.Status != storage.StatusActive {
		t.Fatalf("record should be tracked active after the retry: %+v", tr)
	}
}

func TestFailedRescheduleSendIsRetriedNextCycle(t *testing.T) {
	h := newHarness(t)
	h.source.records = []yclients.Record{apptAt(101, "2026-02-05 13:30:00")}
	h.cycle(t)

	h.notifier.failKind = "changed"
	h.source.records = []yclients.Record{apptAt(101, "2026-02-05 16:00:00")}
	h.cycle(t)
	if got := h.notifier.countKind("changed"); got != 0 {
		t.Fatalf("send should have failed, got %d", got)
	}
	// The old start must survive in the snapshot so the shift is still
	// detected on the next cycle.
	if h.tracked.records[101].StartAt != "2026-02-05 13:30:00" {
		t.Fatalf("snapshot advanced past an unannounced shift: %+v", h.tracked.records[101])
	}

	h.notifier.failKind = ""
	h.cycle(t)
	h.cycle(t)
	if got := h.notifier.countKind("changed"); got != 1 {
		t.Fatalf("expected exactly one reschedule notification after retry, got %d", got)
	}
	if h.tracked.records[101].StartAt != "2026-02-05 16:00:00" {
		t.Fatalf("snapshot should follow the announced shift: %+v", h.tracked.records[101])
	}
}

func TestArrivalNotifiesAssignedMaster(t *testing.T) {
	h := newHarness(t)
	rec := apptAt(101, "2026-02-04 12:30:00")
	rec.Attendance = 1
	h.source.records = []yclients.Record{rec}

	h.cycle(t)
	h.cycle(t)

	if got := h.notifier.countKind("arrived"); got != 1 {
		t.Fatalf("expected one arrival notification, got %d", got)
	}
	if h.notifier.messages[len(h.notifier.messages)-1].chatID != 777 {
		t.Fatal("arrival should go to the master's chat")
	}
}

func TestArrivalForUnregisteredMasterStaysUnmarked(t *testing.T) {
	h := newHarness(t)
	rec := apptAt(101, "2026-02-04 12:30:00")
	rec.Attendance = 1
	rec.Staff.ID = 99 // nobody registered under this id
	h.source.records = []yclients.Record{rec}

	h.cycle(t)
	if h.dedup.arrivals[101] {
		t.Fatal("arrival must not be marked while the master is unresolvable")
	}

	// The master registers; the still-visible attendance flag now delivers.
	h.staff.byRemoteID[99] = 888
	h.cycle(t)
	if got := h.notifier.countKind("arrived"); got != 1 {
		t.Fatalf("expected arrival after registration, got %d", got)
	}
	if !h.dedup.arrivals[101] {
		t.Fatal("arrival should be marked after a successful send")
	}
}

func TestDedupMarkIsIdempotent(t *testing.T) {
	d := newFakeDedup()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := d.MarkSent(ctx, 1, "new"); err != nil {
			t.Fatalf("MarkSent: %v", err)
		}
	}
	sent, err := d.Sent(ctx, 1, "new")
	if err != nil || !sent {
		t.Fatalf("Sent after MarkSent = %v, %v", sent, err)
	}
}

func TestFullLifecycleScenario(t *testing.T) {
	h := newHarness(t)

	// Cycle 1: new appointment appears.
	h.source.records = []yclients.Record{apptAt(101, "2026-02-05 18:00:00")}
	h.cycle(t)
	if got := len(h.notifier.messages); got != 1 || h.notifier.messages[0].kind != "new" {
		t.Fatalf("cycle 1: expected single new notification, got %+v", h.notifier.messages)
	}

	// Cycle 2: unchanged.
	h.cycle(t)
	if got := len(h.notifier.messages); got != 1 {
		t.Fatalf("cycle 2: expected no further messages, got %+v", h.notifier.messages)
	}

	// Cycle 3: gone from the window.
	h.source.records = []yclients.Record{apptAt(999, "2026-02-05 10:00:00")}
	h.cycle(t)
	if got := h.notifier.countKind("cancelled"); got != 1 {
		t.Fatalf("cycle 3: expected one cancellation, got %d", got)
	}
	if h.tracked.records[101].Status != storage.StatusCancelled {
		t.Fatal("cycle 3: status should flip to cancelled")
	}
}
