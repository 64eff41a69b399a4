package packets

type MarkPrayerRequest struct {
	Status string `json:"status" binding:"required"`
}

// InitializeRequest carries the device location used to look up today's
// Imsak. Both fields may be omitted to use the configured home location.
type InitializeRequest struct {
	Latitude  *float64 `json:"latitude"  binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
}
