package packets

import (
	"time"

	"github.com/Nixie-Tech-LLC/sajda/internal/model"
	"github.com/Nixie-Tech-LLC/sajda/internal/qibla"
)

type BearingResponse struct {
	Origin     model.GeoPoint `json:"origin"`
	Target     model.GeoPoint `json:"target"`
	Bearing    float64        `json:"bearing"`
	DistanceKm float64        `json:"distance_km"`
}

type SessionResponse struct {
	ID         string         `json:"id"`
	DeviceID   string         `json:"device_id,omitempty"`
	Origin     model.GeoPoint `json:"origin"`
	Bearing    float64        `json:"bearing"`
	DistanceKm float64        `json:"distance_km"`
	Feedback   model.Feedback `json:"feedback"`
	StartedAt  string         `json:"started_at"`
}

func NewSessionResponse(s *qibla.Session) SessionResponse {
	return SessionResponse{
		ID:         s.ID,
		DeviceID:   s.DeviceID,
		Origin:     s.Origin,
		Bearing:    s.Bearing,
		DistanceKm: s.DistanceKm,
		Feedback:   s.Last(),
		StartedAt:  s.StartedAt.Format(time.RFC3339),
	}
}
