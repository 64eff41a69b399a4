package model

// GeoPoint is a WGS84 position in degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Kaaba is the fixed Qibla target.
var Kaaba = GeoPoint{Latitude: 21.422487, Longitude: 39.826206}

// HeadingSample is one reading from the device compass. Heading is nil when
// the sensor has no fix; Accuracy is nil when the platform cannot report it.
type HeadingSample struct {
	Heading  *float64 `json:"heading"`
	Accuracy *float64 `json:"accuracy"`
}

// FeedbackLevel is how close the device heading is to the Qibla bearing.
type FeedbackLevel string

const (
	Far     FeedbackLevel = "far"
	Near    FeedbackLevel = "near"
	Aligned FeedbackLevel = "aligned"
)

// Feedback is what the UI renders for one heading tick.
type Feedback struct {
	AngleDiff     float64       `json:"angle_diff"`
	FeedbackLevel FeedbackLevel `json:"feedback_level"`
}
