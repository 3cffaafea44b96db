package models

import "time"

// Point представляет координату WGS 84
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Position представляет фикс геолокации водителя
type Position struct {
	Lat      float64   `json:"lat"`
	Lon      float64   `json:"lon"`
	Bearing  float64   `json:"bearing"`
	Accuracy float64   `json:"accuracy,omitempty"`
	Speed    float64   `json:"speed,omitempty"`
	Time     time.Time `json:"time"`
}

// Point возвращает координату фикса
func (p Position) Point() Point {
	return Point{Lat: p.Lat, Lon: p.Lon}
}

// RouteLeg представляет участок заказа, для которого построен маршрут
type RouteLeg string

const (
	LegPickup      RouteLeg = "pickup"
	LegDestination RouteLeg = "destination"
)

// Bounds представляет ограничивающий прямоугольник
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Route представляет маршрут активного участка заказа
type Route struct {
	Leg             RouteLeg `json:"leg"`
	Polyline        []Point  `json:"polyline"`
	Path            []Point  `json:"-"` // уплотненная полилиния
	VertexIndex     []int    `json:"-"` // индекс вершины Polyline внутри Path
	Bounds          Bounds   `json:"bounds"`
	DistanceMeters  float64  `json:"distance_meters"`
	DurationSeconds float64  `json:"duration_seconds"`
}

// Empty сообщает, что маршрутом нельзя пользоваться для привязки
func (r *Route) Empty() bool {
	return r == nil || len(r.Polyline) == 0
}
