package notify

import (
	"strings"
	"testing"

	"github.com/mesto-barbershop/notifybot/internal/yclients"
)

var testShop = Shop{
	Name:       "Место",
	Address:    "ул. Войстроченко, 10",
	Phone:      "+7 (4832) 377-888",
	BookingURL: "https://n1729941.yclients.com",
}

func testRecord() yclients.Record {
	return yclients.Record{
		ID:       4242,
		VisitID:  9001,
		Datetime: "2026-02-05 13:30:00",
		Services: []yclients.Service{{Title: "Мужская стрижка", Length: 45}},
		Staff:    &yclients.StaffRef{ID: 7, Name: "Иван", Specialization: "барбер"},
		Client:   &yclients.ClientRef{Phone: "+79001234567", Name: "Пётр"},
	}
}

func TestFormatDatetime(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2026-02-05 13:30:00", "5 февраля (четверг) в 13:30"},
		{"2026-02-05T13:30:00", "5 февраля (четверг) в 13:30"},
		{"2026-12-31 09:05:00", "31 декабря (четверг) в 09:05"},
		{"", ""},
		{"not-a-date", "not-a-date"},
	}
	for _, c := range cases {
		if got := FormatDatetime(c.in); got != c.want {
			t.Errorf("FormatDatetime(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNewRecordMessage(t *testing.T) {
	r := NewRenderer(testShop)
	text := r.NewRecord(testRecord())

	for _, want := range []string{
		"Вы записаны в Место!",
		"Мужская стрижка",
		"Иван, барбер",
		"5 февраля (четверг) в 13:30",
		"ул. Войстроченко, 10",
		"https://n1729941.yclients.com/loyalty/record/9001",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("new record message missing %q:\n%s", want, text)
		}
	}
}

func TestStaffArrivalMasksPhone(t *testing.T) {
	r := NewRenderer(testShop)
	text := r.StaffArrival(testRecord())

	if strings.Contains(text, "+79001234567") {
		t.Fatal("arrival message must not expose the full phone number")
	}
	if !strings.Contains(text, "+790 *** ** 67") {
		t.Fatalf("expected masked phone in message:\n%s", text)
	}
	if !strings.Contains(text, "Пётр") {
		t.Fatalf("expected client name in message:\n%s", text)
	}
}

func TestGoogleCalendarURL(t *testing.T) {
	r := NewRenderer(testShop)
	u := r.GoogleCalendarURL(testRecord())

	if !strings.HasPrefix(u, "https://calendar.google.com/calendar/render?") {
		t.Fatalf("unexpected base url: %s", u)
	}
	// 45 minute service: 13:30 through 14:15.
	if !strings.Contains(u, "20260205T133000%2F20260205T141500") {
		t.Fatalf("expected encoded date range in url: %s", u)
	}
}

func TestGoogleCalendarURLUnparseableStart(t *testing.T) {
	r := NewRenderer(testShop)
	rec := testRecord()
	rec.Datetime = "???"
	if u := r.GoogleCalendarURL(rec); u != "" {
		t.Fatalf("expected empty url, got %s", u)
	}
}

func TestRecordCardKeyboardCarriesRecordID(t *testing.T) {
	r := NewRenderer(testShop)
	kb := r.RecordCardKeyboard(testRecord())

	found := false
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil && *btn.CallbackData == "calendar_4242" {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected a calendar_4242 callback button")
	}
}
