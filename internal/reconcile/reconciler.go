// Package reconcile diffs the booking system's upcoming window against the
// locally tracked snapshot and decides which notifications to send. The dedup
// ledger guarantees each notification kind fires at most once per record no
// matter how many cycles re-observe the same condition.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/mesto-barbershop/notifybot/internal/storage"
	"github.com/mesto-barbershop/notifybot/internal/yclients"
)

type Source interface {
	UpcomingRecords(ctx context.Context, now time.Time) ([]yclients.Record, error)
}

type TrackedStore interface {
	Get(ctx context.Context, recordID int64) (storage.TrackedRecord, bool, error)
	Upsert(ctx context.Context, tr storage.TrackedRecord) error
	ListActive(ctx context.Context) (map[int64]string, error)
	MarkCancelled(ctx context.Context, recordID int64) error
}

type DedupStore interface {
	Sent(ctx context.Context, recordID int64, kind string) (bool, error)
	MarkSent(ctx context.Context, recordID int64, kind string) error
	ArrivalNotified(ctx context.Context, recordID int64) (bool, error)
	MarkArrival(ctx context.Context, recordID int64) error
}

type ClientResolver interface {
	ResolveByPhone(ctx context.Context, rawPhone string) (int64, bool, error)
}

type StaffResolver interface {
	ResolveByRemoteID(ctx context.Context, remoteID int64) (int64, bool, error)
}

// Notifier delivers rendered messages. A returned error means "not sent";
// the reconciler leaves the dedup key unmarked so the send is retried on the
// next applicable cycle.
type Notifier interface {
	NewRecord(ctx context.Context, chatID int64, rec yclients.Record) error
	Rescheduled(ctx context.Context, chatID int64, rec yclients.Record) error
	Reminder24h(ctx context.Context, chatID int64, rec yclients.Record) error
	Cancelled(ctx context.Context, chatID int64) error
	StaffArrival(ctx context.Context, chatID int64, rec yclients.Record) error
}

// EventSink receives an audit event after each successful send. Best-effort:
// implementations log their own failures.
type EventSink interface {
	NotificationSent(ctx context.Context, recordID int64, kind string, chatID int64)
}

type Config struct {
	// RescheduleThreshold is the minimum start-time shift that counts as a
	// reschedule worth announcing.
	RescheduleThreshold time.Duration
	// ReminderAfter / ReminderBefore bound the 24h reminder window, measured
	// as time until the appointment start. The window must be wider than the
	// poll interval or a reminder can be skipped entirely.
	ReminderAfter  time.Duration
	ReminderBefore time.Duration
}

func (c *Config) applyDefaults() {
	if c.RescheduleThreshold <= 0 {
		c.RescheduleThreshold = 15 * time.Minute
	}
	if c.ReminderAfter <= 0 {
		c.ReminderAfter = 23 * time.Hour
	}
	if c.ReminderBefore <= 0 {
		c.ReminderBefore = 25 * time.Hour
	}
}

type Reconciler struct {
	source   Source
	tracked  TrackedStore
	dedup    DedupStore
	clients  ClientResolver
	staff    StaffResolver
	notifier Notifier
	events   EventSink
	logger   *slog.Logger
	cfg      Config
	now      func() time.Time
}

func New(source Source, tracked TrackedStore, dedup DedupStore, clients ClientResolver, staff StaffResolver, notifier Notifier, events EventSink, logger *slog.Logger, cfg Config) *Reconciler {
	cfg.applyDefaults()
	return &Reconciler{
		source:   source,
		tracked:  tracked,
		dedup:    dedup,
		clients:  clients,
		staff:    staff,
		notifier: notifier,
		events:   events,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock overrides the time source, used by tests.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// RunOnce performs one full fetch-diff-notify pass. Transport failures abort
// the pass without touching local state; per-record failures skip only the
// affected record's remaining steps.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	now := r.now()

	// Pre-cycle snapshot of active ids, consulted for disappearance after
	// the fetched records are processed.
	activeBefore, err := r.tracked.ListActive(ctx)
	if err != nil {
		return err
	}

	records, err := r.source.UpcomingRecords(ctx, now)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		// An empty window is indistinguishable from a degraded fetch, so it
		// never triggers mass cancellation.
		r.logger.Info("no upcoming records")
		return nil
	}
	r.logger.Info("processing upcoming records", "count", len(records))

	seen := make(map[int64]bool, len(records))
	for _, rec := range records {
		if rec.ID == 0 {
			continue
		}
		seen[rec.ID] = true
		if err := r.processRecord(ctx, rec, now); err != nil {
			r.logger.Error("record processing failed", "record_id", rec.ID, "err", err)
		}
	}

	for recordID := range activeBefore {
		if seen[recordID] {
			continue
		}
		if err := r.processDisappeared(ctx, recordID); err != nil {
			r.logger.Error("cancellation processing failed", "record_id", recordID, "err", err)
		}
	}
	return nil
}

func (r *Reconciler) processRecord(ctx context.Context, rec yclients.Record, now time.Time) error {
	chatID, resolvable := r.resolveClient(ctx, rec)

	tracked, known, err := r.tracked.Get(ctx, rec.ID)
	if err != nil {
		return err
	}

	if !known {
		if resolvable {
			announced, err := r.notifyOnce(ctx, rec.ID, storage.KindNew, chatID, func() error {
				return r.notifier.NewRecord(ctx, chatID, rec)
			})
			if err != nil {
				return err
			}
			if !announced {
				// The snapshot is deferred: the record stays unknown so the
				// announcement is attempted again next cycle.
				return nil
			}
		} else {
			r.logger.Info("new record for unregistered client", "record_id", rec.ID)
		}
	} else if tracked.Status == storage.StatusActive && resolvable {
		if r.isReschedule(tracked.StartAt, rec.Datetime) {
			kind := storage.KindChanged(rec.Datetime)
			announced, err := r.notifyOnce(ctx, rec.ID, kind, chatID, func() error {
				return r.notifier.Rescheduled(ctx, chatID, rec)
			})
			if err != nil {
				return err
			}
			if !announced {
				// Keep the old start in the snapshot so the shift is still
				// detected next cycle.
				return nil
			}
		}
	}

	// The snapshot always reflects the latest observed truth, whether or not
	// anything was announced.
	if err := r.tracked.Upsert(ctx, storage.TrackedRecord{
		RecordID:    rec.ID,
		ClientPhone: rec.ClientPhone(),
		StartAt:     rec.Datetime,
		Services:    rec.ServicesSummary(),
		StaffName:   rec.StaffName(),
		Status:      storage.StatusActive,
	}); err != nil {
		return err
	}

	if err := r.checkReminder(ctx, rec, now, chatID, resolvable); err != nil {
		return err
	}
	return r.checkArrival(ctx, rec)
}

func (r *Reconciler) resolveClient(ctx context.Context, rec yclients.Record) (int64, bool) {
	phone := rec.ClientPhone()
	if phone == "" {
		return 0, false
	}
	chatID, ok, err := r.clients.ResolveByPhone(ctx, phone)
	if err != nil {
		r.logger.Error("client lookup failed", "record_id", rec.ID, "err", err)
		return 0, false
	}
	return chatID, ok
}

// isReschedule reports whether the start moved by at least the threshold.
// Unparsable timestamps skip the check rather than abort the record.
func (r *Reconciler) isReschedule(oldStart, newStart string) bool {
	if oldStart == "" || newStart == "" || oldStart == newStart {
		return false
	}
	oldT, okOld := yclients.ParseStartTime(oldStart)
	newT, okNew := yclients.ParseStartTime(newStart)
	if !okOld || !okNew {
		return false
	}
	diff := newT.Sub(oldT)
	if diff < 0 {
		diff = -diff
	}
	return diff >= r.cfg.RescheduleThreshold
}

// checkReminder runs every cycle for every record until the window closes or
// the reminder is sent.
func (r *Reconciler) checkReminder(ctx context.Context, rec yclients.Record, now time.Time, chatID int64, resolvable bool) error {
	if !resolvable {
		return nil
	}
	start, ok := rec.StartTime()
	if !ok {
		return nil
	}
	until := start.Sub(now)
	if until < r.cfg.ReminderAfter || until > r.cfg.ReminderBefore {
		return nil
	}
	_, err := r.notifyOnce(ctx, rec.ID, storage.KindReminder24, chatID, func() error {
		return r.notifier.Reminder24h(ctx, chatID, rec)
	})
	return err
}

// checkArrival notifies the assigned master once the attendance flag flips.
// The dedup mark is written only after a resolved, successful send, so a
// master who registers later still gets the notice while the record remains
// in the fetch window.
func (r *Reconciler) checkArrival(ctx context.Context, rec yclients.Record) error {
	if !rec.Arrived() {
		return nil
	}
	notified, err := r.dedup.ArrivalNotified(ctx, rec.ID)
	if err != nil {
		return err
	}
	if notified {
		return nil
	}

	staffChatID, ok, err := r.staff.ResolveByRemoteID(ctx, rec.StaffID())
	if err != nil {
		return err
	}
	if !ok {
		r.logger.Info("arrival for unregistered master", "record_id", rec.ID, "staff_id", rec.StaffID())
		return nil
	}

	if err := r.notifier.StaffArrival(ctx, staffChatID, rec); err != nil {
		r.logger.Error("arrival notification failed", "record_id", rec.ID, "err", err)
		return nil
	}
	if err := r.dedup.MarkArrival(ctx, rec.ID); err != nil {
		return err
	}
	r.emit(ctx, rec.ID, "arrived", staffChatID)
	return nil
}

// processDisappeared treats a tracked-active record missing from the fetch as
// cancelled. The status flip happens even when nobody can be notified.
func (r *Reconciler) processDisappeared(ctx context.Context, recordID int64) error {
	tracked, ok, err := r.tracked.Get(ctx, recordID)
	if err != nil {
		return err
	}
	if ok && tracked.ClientPhone != "" {
		chatID, resolvable, err := r.clients.ResolveByPhone(ctx, tracked.ClientPhone)
		if err != nil {
			r.logger.Error("client lookup failed", "record_id", recordID, "err", err)
		} else if resolvable {
			if _, err := r.notifyOnce(ctx, recordID, storage.KindCancelled, chatID, func() error {
				return r.notifier.Cancelled(ctx, chatID)
			}); err != nil {
				return err
			}
		}
	}
	return r.tracked.MarkCancelled(ctx, recordID)
}

// notifyOnce is the send discipline from the dedup contract: check the ledger
// immediately before sending, mark immediately after a successful send and
// never before. A failed send stays unmarked and is retried next cycle,
// biasing a crash toward notify-twice over notify-never. The returned bool
// reports whether the ledger holds the mark afterwards; false means the send
// failed and the notification is still owed.
func (r *Reconciler) notifyOnce(ctx context.Context, recordID int64, kind string, chatID int64, send func() error) (bool, error) {
	sent, err := r.dedup.Sent(ctx, recordID, kind)
	if err != nil {
		return false, err
	}
	if sent {
		return true, nil
	}
	if err := send(); err != nil {
		r.logger.Error("send failed", "record_id", recordID, "kind", kind, "chat_id", chatID, "err", err)
		return false, nil
	}
	if err := r.dedup.MarkSent(ctx, recordID, kind); err != nil {
		return false, err
	}
	r.logger.Info("notification sent", "record_id", recordID, "kind", kind, "chat_id", chatID)
	r.emit(ctx, recordID, kind, chatID)
	return true, nil
}

func (r *Reconciler) emit(ctx context.Context, recordID int64, kind string, chatID int64) {
	if r.events == nil {
		return
	}
	r.events.NotificationSent(ctx, recordID, kind, chatID)
}
