package geo

import "partner-tracker/internal/models"

// Reconciler превращает сырой фикс в стабилизированную позицию на маршруте
type Reconciler struct {
	Snapper   Snapper
	RenderLag float64 // метры позади привязанной точки для отрисовки
}

// Result представляет результат привязки
type Result struct {
	Snapped   models.Position
	Display   models.Position
	OnRoute   bool
	Index     int     // индекс вершины в Route.Path
	Segment   int     // индекс сегмента Route.Polyline
	Tolerance float64 // допуск, при котором найден сегмент
}

// Reconcile привязывает fix к маршруту. Пустой маршрут или фикс дальше
// всех допусков возвращают сырую позицию без изменений.
func (r Reconciler) Reconcile(route *models.Route, fix models.Position) Result {
	raw := Result{Snapped: fix, Display: fix, Index: -1, Segment: -1}
	if route.Empty() {
		return raw
	}

	seg, tol := EdgeIndex(route.Polyline, fix.Point())
	if seg < 0 {
		return raw
	}

	path := route.Path
	start := seg
	if len(path) == 0 {
		path = route.Polyline
	} else if seg < len(route.VertexIndex) {
		start = route.VertexIndex[seg]
	} else {
		start = 0
	}

	idx := r.Snapper.Snap(path, fix.Point(), start)
	if idx < 0 {
		return raw
	}

	bearing := fix.Bearing
	switch {
	case idx+1 < len(path):
		bearing = Bearing(path[idx], path[idx+1])
	case idx > 0:
		bearing = Bearing(path[idx-1], path[idx])
	}

	snapped := fix
	snapped.Lat = path[idx].Lat
	snapped.Lon = path[idx].Lon
	snapped.Bearing = bearing

	display := snapped
	if r.RenderLag > 0 {
		behind := Offset(path[idx], bearing+180, r.RenderLag)
		display.Lat = behind.Lat
		display.Lon = behind.Lon
	}

	return Result{
		Snapped:   snapped,
		Display:   display,
		OnRoute:   true,
		Index:     idx,
		Segment:   seg,
		Tolerance: tol,
	}
}

// PrepareRoute уплотняет полилинию маршрута и считает границы
func PrepareRoute(route *models.Route, maxSpacing float64) {
	if route == nil {
		return
	}
	route.Path, route.VertexIndex = Densify(route.Polyline, maxSpacing)
	route.Bounds = BoundsOf(route.Polyline)
	if route.DistanceMeters == 0 {
		route.DistanceMeters = Length(route.Polyline)
	}
}
