package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/mesto-barbershop/notifybot/internal/yclients"
)

func TestRender(t *testing.T) {
	ev := Event{
		ShopSlug: "mesto-barbershop",
		Phone:    "+7 (4832) 377-888",
		Address:  "ул. Войстроченко, 10",
	}
	rec := yclients.Record{
		ID:       4242,
		Datetime: "2026-02-05 13:30:00",
		Services: []yclients.Service{{Title: "Мужская стрижка", Length: 45}},
		Staff:    &yclients.StaffRef{Name: "Иван"},
	}
	now := time.Date(2026, 2, 4, 10, 0, 0, 0, time.Local)

	out := string(ev.Render(rec, now))

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"UID:4242@mesto-barbershop",
		"DTSTART:20260205T133000",
		"DTEND:20260205T141500",
		"SUMMARY:Мужская стрижка",
		"TRIGGER:-PT1H",
		"TRIGGER:-PT15M",
		"LOCATION:ул. Войстроченко\\, 10",
		"END:VCALENDAR",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("calendar missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "\r\n") {
		t.Error("lines must be CRLF terminated")
	}
}

func TestRenderFallbackStart(t *testing.T) {
	ev := Event{ShopSlug: "mesto-barbershop"}
	rec := yclients.Record{ID: 1, Datetime: "garbage"}
	now := time.Date(2026, 2, 4, 10, 0, 0, 0, time.Local)

	out := string(ev.Render(rec, now))
	// Unparseable start lands the event a day out instead of failing.
	if !strings.Contains(out, "DTSTART:20260205T100000") {
		t.Fatalf("expected fallback start in:\n%s", out)
	}
}

func TestFilename(t *testing.T) {
	rec := yclients.Record{Services: []yclients.Service{{Title: "Мужская стрижка"}}}
	if got := Filename("Место", rec); got != "Место_Мужская_стрижка.ics" {
		t.Fatalf("Filename = %q", got)
	}
	if got := Filename("Место", yclients.Record{}); got != "Место_Запись.ics" {
		t.Fatalf("empty services Filename = %q", got)
	}
}
