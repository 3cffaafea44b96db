package geo

import (
	"math"

	"partner-tracker/internal/models"
)

// EdgeTolerances допуски в метрах, по которым ищется ближайший сегмент
var EdgeTolerances = []float64{1, 2, 6, 10, 15}

// EdgeIndex возвращает индекс начала первого сегмента полилинии, лежащего
// не дальше допуска от p, и сам допуск. Допуски перебираются по возрастанию.
// Если совпадения нет ни при одном допуске, возвращается -1.
func EdgeIndex(poly []models.Point, p models.Point) (int, float64) {
	for _, tol := range EdgeTolerances {
		if idx := IndexOnPath(poly, p, tol); idx >= 0 {
			return idx, tol
		}
	}
	return -1, 0
}

// IndexOnPath возвращает индекс начала первого сегмента в пределах tolerance метров
func IndexOnPath(poly []models.Point, p models.Point, tolerance float64) int {
	switch len(poly) {
	case 0:
		return -1
	case 1:
		if Distance(poly[0], p) <= tolerance {
			return 0
		}
		return -1
	}

	for i := 0; i < len(poly)-1; i++ {
		if DistanceToSegment(p, poly[i], poly[i+1]) <= tolerance {
			return i
		}
	}
	return -1
}

// DistanceToSegment возвращает расстояние в метрах от p до отрезка ab.
// Используется локальная равнопромежуточная проекция вокруг p.
func DistanceToSegment(p, a, b models.Point) float64 {
	ax, ay := project(p, a)
	bx, by := project(p, b)

	dx := bx - ax
	dy := by - ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(ax, ay)
	}

	// проекция начала координат (точки p) на отрезок
	t := -(ax*dx + ay*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	return math.Hypot(ax+t*dx, ay+t*dy)
}

func project(origin, q models.Point) (float64, float64) {
	x := toRad(q.Lon-origin.Lon) * math.Cos(toRad(origin.Lat)) * EarthRadius
	y := toRad(q.Lat-origin.Lat) * EarthRadius
	return x, y
}
