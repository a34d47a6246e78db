package hidroweb

import (
	"math"
	"sort"
)

const earthRadiusKM = 6371

// StationDistance represents a station annotated with its distance from a
// reference point
type StationDistance struct {
	Station
	DistanceKM float64
}

// FilterStationsByDistance returns the stations within maxKM kilometers of
// the given point, sorted by distance (ascending).
// Stations without coordinates are skipped.
func FilterStationsByDistance(stations []Station, lat, lon, maxKM float64) []StationDistance {
	filtered := []StationDistance{}
	for _, station := range stations {
		if station.Latitude == nil || station.Longitude == nil {
			continue
		}
		distance := haversine(lat, lon, *station.Latitude, *station.Longitude)
		if distance <= maxKM {
			filtered = append(filtered, StationDistance{
				Station:    station,
				DistanceKM: math.Round(distance*100) / 100,
			})
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].DistanceKM < filtered[j].DistanceKM
	})
	return filtered
}

// haversine computes the great-circle distance between two points in kilometers
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Pow(math.Sin(dLon/2), 2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}
