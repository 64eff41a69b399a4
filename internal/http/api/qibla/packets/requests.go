package packets

import (
	"github.com/Nixie-Tech-LLC/sajda/internal/model"
)

type LocationRequest struct {
	Latitude  *float64 `json:"latitude"  binding:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"required,min=-180,max=180"`
}

func (r LocationRequest) Point() model.GeoPoint {
	return model.GeoPoint{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

type StartSessionRequest struct {
	DeviceID string `json:"device_id"`
	LocationRequest
}
