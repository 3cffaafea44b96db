// Package geo содержит геометрию привязки водителя к маршруту:
// расстояния по большому кругу, уплотнение полилинии, поиск ближайшего
// сегмента и проверку прибытия в точку.
package geo

import (
	"math"

	"partner-tracker/internal/models"
)

// EarthRadius радиус Земли в метрах
const EarthRadius = 6371000.0

// DefaultArrivalRadius радиус "на точке" в метрах
const DefaultArrivalRadius = 120.0

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// Distance возвращает расстояние между точками по формуле гаверсинусов, в метрах
func Distance(a, b models.Point) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	deltaLat := toRad(b.Lat - a.Lat)
	deltaLon := toRad(b.Lon - a.Lon)

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	if h > 1 {
		h = 1
	}
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadius * c
}

// OnPoint сообщает, что позиция находится в радиусе radius метров от цели
func OnPoint(pos, target models.Point, radius float64) bool {
	return Distance(pos, target) <= radius
}

// Bearing возвращает начальный азимут от a к b в градусах [0, 360)
func Bearing(a, b models.Point) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	deltaLon := toRad(b.Lon - a.Lon)

	y := math.Sin(deltaLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(deltaLon)

	return normalizeBearing(toDeg(math.Atan2(y, x)))
}

// Offset возвращает точку на расстоянии distance метров от p по азимуту bearing
func Offset(p models.Point, bearing, distance float64) models.Point {
	if distance == 0 {
		return p
	}
	lat1 := toRad(p.Lat)
	lon1 := toRad(p.Lon)
	brng := toRad(bearing)
	ang := distance / EarthRadius

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(ang) + math.Cos(lat1)*math.Sin(ang)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(math.Sin(brng)*math.Sin(ang)*math.Cos(lat1),
		math.Cos(ang)-math.Sin(lat1)*math.Sin(lat2))

	return models.Point{Lat: toDeg(lat2), Lon: normalizeLon(toDeg(lon2))}
}

// Midpoint возвращает середину отрезка в координатах; для коротких
// сегментов маршрута этого достаточно
func Midpoint(a, b models.Point) models.Point {
	return models.Point{Lat: (a.Lat + b.Lat) / 2, Lon: (a.Lon + b.Lon) / 2}
}

// BoundsOf возвращает ограничивающий прямоугольник полилинии
func BoundsOf(poly []models.Point) models.Bounds {
	if len(poly) == 0 {
		return models.Bounds{}
	}
	b := models.Bounds{
		MinLat: poly[0].Lat, MaxLat: poly[0].Lat,
		MinLon: poly[0].Lon, MaxLon: poly[0].Lon,
	}
	for _, p := range poly[1:] {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}
	return b
}

// Length возвращает длину полилинии в метрах
func Length(poly []models.Point) float64 {
	var total float64
	for i := 1; i < len(poly); i++ {
		total += Distance(poly[i-1], poly[i])
	}
	return total
}

func normalizeBearing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func normalizeLon(deg float64) float64 {
	return math.Mod(deg+540, 360) - 180
}
