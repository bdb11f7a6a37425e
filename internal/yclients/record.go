package yclients

import (
	"encoding/json"
	"strings"
	"time"
)

// Record is one appointment as returned by GET /records/{company}.
// The API is the source of truth; we only observe.
type Record struct {
	ID              int64           `json:"id"`
	VisitID         int64           `json:"visit_id"`
	Datetime        string          `json:"datetime"`
	Services        []Service       `json:"services"`
	Staff           *StaffRef       `json:"staff"`
	Client          *ClientRef      `json:"client"`
	Attendance      int             `json:"attendance"`
	VisitAttendance int             `json:"visit_attendance"`
	VisitURL        string          `json:"visit_url"`
	ClientLink      string          `json:"client_link"`
	ShortLink       string          `json:"short_link"`
	RecordLink      string          `json:"record_link"`
	// link and links come back as a string, an object or an array depending
	// on the endpoint; decoded lazily by the link extractor rules.
	Link  json.RawMessage `json:"link"`
	Links json.RawMessage `json:"links"`
	Visit json.RawMessage `json:"visit"`
}

type Service struct {
	Title  string `json:"title"`
	Length int    `json:"length"` // minutes
}

type StaffRef struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Position       *struct {
		Title string `json:"title"`
	} `json:"position"`
}

type ClientRef struct {
	Phone string `json:"phone"`
	Name  string `json:"name"`
}

type StaffMember struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// StartTime parses the record's datetime, which YClients emits either as
// ISO-8601 ("2026-02-05T13:30:00+03:00", sometimes with a Z suffix) or as
// "2026-02-05 13:30:00". The wall-clock value is taken as shop-local time.
func (r Record) StartTime() (time.Time, bool) {
	return ParseStartTime(r.Datetime)
}

func ParseStartTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if strings.Contains(s, "T") {
		if t, err := time.Parse(time.RFC3339, strings.Replace(s, "Z", "+00:00", 1)); err == nil {
			return stripZone(t), true
		}
		if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
			return t, true
		}
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// stripZone keeps the wall-clock reading and drops the offset, matching how
// the rest of the system treats times (shop-local, zone-naive).
func stripZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local)
}

// Arrived reports the attendance flag the API sets once the client shows up.
func (r Record) Arrived() bool {
	return r.Attendance == 1 || r.VisitAttendance == 1
}

// ServicesSummary joins service titles for snapshots and messages.
func (r Record) ServicesSummary() string {
	titles := make([]string, 0, len(r.Services))
	for _, s := range r.Services {
		if s.Title != "" {
			titles = append(titles, s.Title)
		}
	}
	return strings.Join(titles, ", ")
}

// DurationMinutes returns the first service length, defaulting to an hour.
func (r Record) DurationMinutes() int {
	for _, s := range r.Services {
		if s.Length > 0 {
			return s.Length
		}
	}
	return 60
}

func (r Record) StaffName() string {
	if r.Staff == nil {
		return ""
	}
	return r.Staff.Name
}

func (r Record) StaffID() int64 {
	if r.Staff == nil {
		return 0
	}
	return r.Staff.ID
}

// StaffInfo renders "Name, specialization" when a specialization or position
// title is present.
func (r Record) StaffInfo() string {
	if r.Staff == nil {
		return ""
	}
	pos := r.Staff.Specialization
	if pos == "" && r.Staff.Position != nil {
		pos = r.Staff.Position.Title
	}
	if pos == "" {
		return r.Staff.Name
	}
	return r.Staff.Name + ", " + pos
}

func (r Record) ClientPhone() string {
	if r.Client == nil {
		return ""
	}
	return r.Client.Phone
}

func (r Record) ClientName() string {
	if r.Client == nil || r.Client.Name == "" {
		return "Клиент"
	}
	return r.Client.Name
}
