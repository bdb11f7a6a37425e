// Package ics builds calendar files for appointments.
package ics

import (
	"fmt"
	"strings"
	"time"

	"github.com/mesto-barbershop/notifybot/internal/yclients"
)

// Event carries the shop details stamped into every calendar entry.
type Event struct {
	ShopSlug string // UID domain part, e.g. "mesto-barbershop"
	Phone    string
	Address  string
}

const stamp = "20060102T150405"

// Render produces an RFC 5545 calendar with a single VEVENT and two
// display alarms, 1 hour and 15 minutes before the start. The times
// are floating (no TZID), matching the zone-naive times the booking
// API hands out.
func (e Event) Render(rec yclients.Record, now time.Time) []byte {
	start, ok := rec.StartTime()
	if !ok {
		start = now.Add(24 * time.Hour)
	}
	end := start.Add(time.Duration(rec.DurationMinutes()) * time.Minute)
	summary := rec.ServicesSummary()

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteString("\r\n")
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:-//%s//RU", e.ShopSlug)
	line("CALSCALE:GREGORIAN")
	line("METHOD:PUBLISH")
	line("BEGIN:VEVENT")
	line("UID:%d@%s", rec.ID, e.ShopSlug)
	line("DTSTAMP:%s", now.Format(stamp))
	line("DTSTART:%s", start.Format(stamp))
	line("DTEND:%s", end.Format(stamp))
	line("SUMMARY:%s", escape(summary))
	line("DESCRIPTION:%s", escape("Мастер: "+rec.StaffName()+"\nТелефон: "+e.Phone))
	line("LOCATION:%s", escape(e.Address))
	for _, alarm := range []struct {
		trigger string
		label   string
	}{
		{"-PT1H", "через 1 час"},
		{"-PT15M", "через 15 минут"},
	} {
		line("BEGIN:VALARM")
		line("TRIGGER:%s", alarm.trigger)
		line("ACTION:DISPLAY")
		line("DESCRIPTION:%s", escape("Напоминание: "+summary+" "+alarm.label))
		line("END:VALARM")
	}
	line("END:VEVENT")
	line("END:VCALENDAR")

	return []byte(b.String())
}

// escape quotes the characters RFC 5545 treats specially in text values.
func escape(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		"\n", "\\n",
		";", "\\;",
		",", "\\,",
	)
	return r.Replace(s)
}

// Filename suggests a document name for the exported event.
func Filename(shopName string, rec yclients.Record) string {
	service := "Запись"
	if len(rec.Services) > 0 && rec.Services[0].Title != "" {
		service = rec.Services[0].Title
	}
	return shopName + "_" + strings.ReplaceAll(service, " ", "_") + ".ics"
}
