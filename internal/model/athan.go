package model

// Prayer is one row of the display timetable.
type Prayer struct {
	Name   string `json:"name"`   // "FAJR", "DHUHR", …
	Time   string `json:"time"`   // "05:12"
	Period string `json:"period"` // "AM" or "PM"
}

// PrayerTimes holds a day's clock times as "HH:mm" strings. Imsak may be
// empty when the provider did not return it.
type PrayerTimes struct {
	Date    Date   `json:"date"`
	Imsak   string `json:"imsak"`
	Fajr    string `json:"fajr"`
	Sunrise string `json:"sunrise"`
	Dhuhr   string `json:"dhuhr"`
	Asr     string `json:"asr"`
	Maghrib string `json:"maghrib"`
	Isha    string `json:"isha"`
}

// For returns the clock time of p.
func (t PrayerTimes) For(p PrayerName) string {
	switch p {
	case Fajr:
		return t.Fajr
	case Dhuhr:
		return t.Dhuhr
	case Asr:
		return t.Asr
	case Maghrib:
		return t.Maghrib
	case Isha:
		return t.Isha
	}
	return ""
}
