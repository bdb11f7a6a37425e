package yclients

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The records payload carries the client-facing visit link under a different
// field depending on API version and endpoint. Extraction is an ordered rule
// table, first match wins; every rule is a pure function of the record.
type linkRule struct {
	name    string
	extract func(Record) string
}

var linkRules = []linkRule{
	{"visit_url", func(r Record) string { return r.VisitURL }},
	{"client_link", func(r Record) string { return r.ClientLink }},
	{"short_link", func(r Record) string { return r.ShortLink }},
	{"record_link", func(r Record) string { return r.RecordLink }},
	{"link", func(r Record) string { return stringOrClientField(r.Link) }},
	{"links", func(r Record) string { return stringOrClientField(r.Links) }},
	{"visit.url", func(r Record) string { return objectField(r.Visit, "url") }},
	{"visit.link", func(r Record) string { return objectField(r.Visit, "link") }},
	{"visit.short_link", func(r Record) string { return objectField(r.Visit, "short_link") }},
}

// RecordLink returns the personal change/cancel URL for a record, falling
// back to the shop's booking page (mobile loyalty path when an id exists).
func RecordLink(r Record, bookingURL string) string {
	for _, rule := range linkRules {
		if v := rule.extract(r); isHTTPURL(v) {
			return v
		}
	}
	base := strings.TrimRight(bookingURL, "/")
	switch {
	case r.VisitID != 0:
		return fmt.Sprintf("%s/loyalty/record/%d", base, r.VisitID)
	case r.ID != 0:
		return fmt.Sprintf("%s/loyalty/record/%d", base, r.ID)
	}
	return bookingURL
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// stringOrClientField handles the polymorphic link fields: either a bare
// string or an object with a "client" member.
func stringOrClientField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return objectField(raw, "client")
}

func objectField(raw json.RawMessage, key string) string {
	if len(raw) == 0 {
		return ""
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(m[key], &s); err != nil {
		return ""
	}
	return s
}
