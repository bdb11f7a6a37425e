package yclients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const recordsFixture = `{
  "success": true,
  "data": [
    {
      "id": 101,
      "visit_id": 9001,
      "datetime": "2026-02-05T13:30:00+03:00",
      "services": [{"title": "Стрижка", "length": 45}],
      "staff": {"id": 7, "name": "Иван", "specialization": "барбер"},
      "client": {"phone": "+79001234567", "name": "Пётр"},
      "attendance": 0,
      "short_link": "https://n123.yclients.com/r/abc"
    },
    {
      "id": 102,
      "datetime": "2026-02-06 10:00:00",
      "services": [],
      "staff": null,
      "client": null,
      "attendance": 1
    }
  ]
}`

func TestRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/records/1540716" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer ptoken, User utoken" {
			t.Errorf("unexpected auth header %q", got)
		}
		if r.URL.Query().Get("count") != "500" {
			t.Errorf("missing count param")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(recordsFixture))
	}))
	defer srv.Close()

	c := New("ptoken", "utoken", "1540716", WithBaseURL(srv.URL))
	recs, err := c.Records(context.Background(), "2026-02-05", "2026-02-12")
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}

	r := recs[0]
	if r.ID != 101 || r.ServicesSummary() != "Стрижка" || r.StaffName() != "Иван" {
		t.Errorf("unexpected first record: %+v", r)
	}
	start, ok := r.StartTime()
	if !ok {
		t.Fatal("first record start time should parse")
	}
	if start.Hour() != 13 || start.Minute() != 30 {
		t.Errorf("wall clock lost: %s", start)
	}
	if r.StaffInfo() != "Иван, барбер" {
		t.Errorf("StaffInfo = %q", r.StaffInfo())
	}

	// Second record has null staff/client and a space-separated datetime.
	r2 := recs[1]
	if !r2.Arrived() {
		t.Error("attendance=1 should report arrived")
	}
	if r2.ClientPhone() != "" || r2.StaffID() != 0 {
		t.Error("nil staff/client should read as zero values")
	}
	if _, ok := r2.StartTime(); !ok {
		t.Error("space-separated datetime should parse")
	}
	if r2.DurationMinutes() != 60 {
		t.Errorf("empty services should default to 60 minutes, got %d", r2.DurationMinutes())
	}
}

func TestRecordsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("p", "u", "1", WithBaseURL(srv.URL))
	if _, err := c.UpcomingRecords(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestStaffList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/company/1/staff" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":7,"name":"Иван"},{"id":8,"name":"Олег"}]}`))
	}))
	defer srv.Close()

	c := New("p", "u", "1", WithBaseURL(srv.URL))
	staff, err := c.StaffList(context.Background())
	if err != nil {
		t.Fatalf("StaffList: %v", err)
	}
	if len(staff) != 2 || staff[1].Name != "Олег" {
		t.Fatalf("unexpected roster: %+v", staff)
	}
}
