package geo

import "partner-tracker/internal/models"

// maxBisectDepth ограничивает рекурсию на вырожденных входах (NaN и т.п.)
const maxBisectDepth = 40

// Densify рекурсивно вставляет середины между соседними точками, пока
// расстояние между любыми соседями не станет не больше maxSpacing метров.
// Второй результат содержит индекс каждой исходной вершины в новой полилинии.
func Densify(poly []models.Point, maxSpacing float64) ([]models.Point, []int) {
	if len(poly) == 0 {
		return nil, nil
	}

	out := make([]models.Point, 0, len(poly))
	index := make([]int, 0, len(poly))

	out = append(out, poly[0])
	index = append(index, 0)

	for i := 1; i < len(poly); i++ {
		if maxSpacing > 0 {
			out = bisect(out, poly[i-1], poly[i], maxSpacing, 0)
		}
		out = append(out, poly[i])
		index = append(index, len(out)-1)
	}

	return out, index
}

// bisect добавляет в out внутренние точки отрезка (a, b), не включая концы
func bisect(out []models.Point, a, b models.Point, maxSpacing float64, depth int) []models.Point {
	if depth >= maxBisectDepth || !(Distance(a, b) > maxSpacing) {
		return out
	}
	m := Midpoint(a, b)
	out = bisect(out, a, m, maxSpacing, depth+1)
	out = append(out, m)
	return bisect(out, m, b, maxSpacing, depth+1)
}
