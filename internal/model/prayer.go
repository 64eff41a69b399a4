package model

import (
	"fmt"
	"time"
)

// Date is a calendar day formatted as YYYY-MM-DD.
type Date string

const DateLayout = "2006-01-02"

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

func (d Date) String() string { return string(d) }

// Valid reports whether d parses as a calendar day.
func (d Date) Valid() bool {
	_, err := time.Parse(DateLayout, string(d))
	return err == nil
}

type PrayerName string

const (
	Fajr    PrayerName = "fajr"
	Dhuhr   PrayerName = "dhuhr"
	Asr     PrayerName = "asr"
	Maghrib PrayerName = "maghrib"
	Isha    PrayerName = "isha"
)

// Prayers lists the five daily prayers in order; Fajr opens the prayer day.
var Prayers = []PrayerName{Fajr, Dhuhr, Asr, Maghrib, Isha}

func ParsePrayerName(s string) (PrayerName, error) {
	for _, p := range Prayers {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown prayer %q", s)
}

type PrayerStatus string

const (
	Upcoming PrayerStatus = "upcoming"
	Prayed   PrayerStatus = "prayed"
	Unprayed PrayerStatus = "unprayed"
	Later    PrayerStatus = "later"
)

func ParsePrayerStatus(s string) (PrayerStatus, error) {
	switch PrayerStatus(s) {
	case Upcoming, Prayed, Unprayed, Later:
		return PrayerStatus(s), nil
	}
	return "", fmt.Errorf("unknown prayer status %q", s)
}

// DailyPrayerState is the single authoritative record for the current
// prayer day.
type DailyPrayerState struct {
	Date      Date         `db:"date"       json:"date"`
	Fajr      PrayerStatus `db:"fajr"       json:"fajr"`
	Dhuhr     PrayerStatus `db:"dhuhr"      json:"dhuhr"`
	Asr       PrayerStatus `db:"asr"        json:"asr"`
	Maghrib   PrayerStatus `db:"maghrib"    json:"maghrib"`
	Isha      PrayerStatus `db:"isha"       json:"isha"`
	UpdatedAt time.Time    `db:"-"          json:"updated_at"`
}

// NewDailyPrayerState returns a record with every prayer Upcoming.
func NewDailyPrayerState(date Date, now time.Time) DailyPrayerState {
	return DailyPrayerState{
		Date:      date,
		Fajr:      Upcoming,
		Dhuhr:     Upcoming,
		Asr:       Upcoming,
		Maghrib:   Upcoming,
		Isha:      Upcoming,
		UpdatedAt: now,
	}
}

// Status returns the status recorded for p.
func (s DailyPrayerState) Status(p PrayerName) PrayerStatus {
	switch p {
	case Fajr:
		return s.Fajr
	case Dhuhr:
		return s.Dhuhr
	case Asr:
		return s.Asr
	case Maghrib:
		return s.Maghrib
	case Isha:
		return s.Isha
	}
	return ""
}

// Set records status for p.
func (s *DailyPrayerState) Set(p PrayerName, status PrayerStatus) {
	switch p {
	case Fajr:
		s.Fajr = status
	case Dhuhr:
		s.Dhuhr = status
	case Asr:
		s.Asr = status
	case Maghrib:
		s.Maghrib = status
	case Isha:
		s.Isha = status
	}
}

// Payload freezes the record into the booleans uploaded for the day.
func (s DailyPrayerState) Payload() PrayerPayload {
	return PrayerPayload{
		Fajr:    s.Fajr == Prayed,
		Dhuhr:   s.Dhuhr == Prayed,
		Asr:     s.Asr == Prayed,
		Maghrib: s.Maghrib == Prayed,
		Isha:    s.Isha == Prayed,
	}
}

// PrayerPayload is the flat JSON object stored in the sync queue and sent
// to the remote endpoint.
type PrayerPayload struct {
	Fajr    bool `json:"fajr"`
	Dhuhr   bool `json:"dhuhr"`
	Asr     bool `json:"asr"`
	Maghrib bool `json:"maghrib"`
	Isha    bool `json:"isha"`
}

// SyncQueueItem is a frozen day waiting for upload.
type SyncQueueItem struct {
	ID        int64         `json:"id"`
	Date      Date          `json:"date"`
	Payload   PrayerPayload `json:"payload"`
	CreatedAt time.Time     `json:"created_at"`
}
