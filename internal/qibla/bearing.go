// Package qibla computes the direction to the Kaaba and turns live compass
// headings into a debounced alignment signal.
package qibla

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/Nixie-Tech-LLC/sajda/internal/model"
)

const earthRadiusKm = 6371.0

// BearingTo returns the initial great-circle bearing from origin to target in
// degrees clockwise from true north, normalized to [0, 360).
func BearingTo(origin, target model.GeoPoint) float64 {
	from := s2.LatLngFromDegrees(origin.Latitude, origin.Longitude)
	to := s2.LatLngFromDegrees(target.Latitude, target.Longitude)

	phi1, phi2 := from.Lat.Radians(), to.Lat.Radians()
	deltaLambda := to.Lng.Radians() - from.Lng.Radians()

	y := math.Sin(deltaLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLambda)
	theta := math.Atan2(y, x)

	bearing := math.Mod(theta*180/math.Pi+360, 360)
	if bearing >= 360 {
		bearing = 0
	}
	return bearing
}

// QiblaBearing is BearingTo with the Kaaba as target.
func QiblaBearing(origin model.GeoPoint) float64 {
	return BearingTo(origin, model.Kaaba)
}

// DistanceKm returns the great-circle distance between two points.
func DistanceKm(a, b model.GeoPoint) float64 {
	p1 := s2.PointFromLatLng(s2.LatLngFromDegrees(a.Latitude, a.Longitude))
	p2 := s2.PointFromLatLng(s2.LatLngFromDegrees(b.Latitude, b.Longitude))
	return s2.ChordAngleBetweenPoints(p1, p2).Angle().Radians() * earthRadiusKm
}
