package geo

import "partner-tracker/internal/models"

// DefaultConfirmCount число подряд идущих сравнений без улучшения минимума,
// после которого индекс привязки считается найденным
const DefaultConfirmCount = 5

// Snapper привязывает фикс к вершине полилинии
type Snapper struct {
	ConfirmCount int
}

// Snap идет по path начиная с from и ведет текущий минимум расстояния до fix.
// Индекс принимается, когда минимум не улучшался ConfirmCount сравнений
// подряд или path закончился. Возвращает -1 для пустого path.
// Результат индексирует вершину уплотненного path, это может быть
// вставленная середина отрезка, а не вершина исходной полилинии.
func (s Snapper) Snap(path []models.Point, fix models.Point, from int) int {
	if len(path) == 0 {
		return -1
	}
	if from < 0 {
		from = 0
	}
	if from >= len(path) {
		from = len(path) - 1
	}

	confirm := s.ConfirmCount
	if confirm < 1 {
		confirm = DefaultConfirmCount
	}

	best := from
	minDist := Distance(path[from], fix)
	stable := 0

	for i := from + 1; i < len(path); i++ {
		d := Distance(path[i], fix)
		if d < minDist {
			minDist = d
			best = i
			stable = 0
			continue
		}
		stable++
		if stable >= confirm {
			break
		}
	}

	return best
}
