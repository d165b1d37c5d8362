// Package coord converts points between the GCJ02 and WGS84 geographic
// coordinate reference systems using the published empirical transform.
package coord

import "math"

const (
	// Krasovsky 1940 ellipsoid parameters used by the GCJ02 transform.
	semiMajorAxis = 6378245.0
	eccSquared    = 0.00669342162296594323

	pi = 3.1415926535897932384626
)

// GCJ02ToWGS84 converts a GCJ02 (Mars) coordinate to WGS84. The offset only
// applies inside mainland China's bounding box; points outside it are
// returned unchanged.
func GCJ02ToWGS84(lng, lat float64) (float64, float64) {
	if outOfChina(lng, lat) {
		return lng, lat
	}

	dlat := transformLat(lng-105.0, lat-35.0)
	dlng := transformLng(lng-105.0, lat-35.0)

	radLat := lat / 180.0 * pi
	magic := math.Sin(radLat)
	magic = 1 - eccSquared*magic*magic
	sqrtMagic := math.Sqrt(magic)

	dlat = (dlat * 180.0) / ((semiMajorAxis * (1 - eccSquared)) / (magic * sqrtMagic) * pi)
	dlng = (dlng * 180.0) / (semiMajorAxis / sqrtMagic * math.Cos(radLat) * pi)

	return lng*2 - (lng + dlng), lat*2 - (lat + dlat)
}

// outOfChina reports whether the point lies outside the region the GCJ02
// offset is defined for.
func outOfChina(lng, lat float64) bool {
	return !(lng > 73.66 && lng < 135.05 && lat > 3.86 && lat < 53.55)
}

func transformLat(lng, lat float64) float64 {
	ret := -100.0 + 2.0*lng + 3.0*lat + 0.2*lat*lat + 0.1*lng*lat + 0.2*math.Sqrt(math.Abs(lng))
	ret += (20.0*math.Sin(6.0*lng*pi) + 20.0*math.Sin(2.0*lng*pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(lat*pi) + 40.0*math.Sin(lat/3.0*pi)) * 2.0 / 3.0
	ret += (160.0*math.Sin(lat/12.0*pi) + 320*math.Sin(lat*pi/30.0)) * 2.0 / 3.0
	return ret
}

func transformLng(lng, lat float64) float64 {
	ret := 300.0 + lng + 2.0*lat + 0.1*lng*lng + 0.1*lng*lat + 0.1*math.Sqrt(math.Abs(lng))
	ret += (20.0*math.Sin(6.0*lng*pi) + 20.0*math.Sin(2.0*lng*pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(lng*pi) + 40.0*math.Sin(lng/3.0*pi)) * 2.0 / 3.0
	ret += (150.0*math.Sin(lng/12.0*pi) + 300.0*math.Sin(lng/30.0*pi)) * 2.0 / 3.0
	return ret
}
