package packets

import (
	"time"

	"github.com/Nixie-Tech-LLC/sajda/internal/model"
)

type DayResponse struct {
	Date      model.Date          `json:"date"`
	Statuses  map[string]string   `json:"statuses"`
	Payload   model.PrayerPayload `json:"payload"`
	UpdatedAt string              `json:"updated_at"`
}

func NewDayResponse(s model.DailyPrayerState) DayResponse {
	statuses := make(map[string]string, len(model.Prayers))
	for _, p := range model.Prayers {
		statuses[string(p)] = string(s.Status(p))
	}
	return DayResponse{
		Date:      s.Date,
		Statuses:  statuses,
		Payload:   s.Payload(),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
}

type InitializeResponse struct {
	RolledOver    bool       `json:"rolled_over"`
	LastResetDate model.Date `json:"last_reset_date"`
	ImsakUsed     bool       `json:"imsak_used"`
}

type PrayerTimesResponse struct {
	Times   model.PrayerTimes `json:"times"`
	Display []model.Prayer    `json:"display"`
}
