package location

import (
	"context"
	"sync"
	"time"

	"partner-tracker/internal/geo"
	"partner-tracker/internal/models"
)

// Feed представляет источник геолокации внутри процесса. Фиксы приходят
// от устройства через HTTP или Kafka и раздаются подписчикам с учетом
// интервала и минимального смещения запроса.
type Feed struct {
	mu          sync.Mutex
	enabled     bool
	permitted   bool
	subscribers map[chan struct{}]struct{}
	latest      *models.Position
	seq         uint64
}

// NewFeed создает источник, считая службы включенными и разрешение выданным
func NewFeed() *Feed {
	return &Feed{
		enabled:     true,
		permitted:   true,
		subscribers: make(map[chan struct{}]struct{}),
	}
}

// Publish принимает новый фикс от устройства
func (f *Feed) Publish(pos models.Position) {
	if pos.Time.IsZero() {
		pos.Time = time.Now()
	}

	f.mu.Lock()
	f.latest = &pos
	f.seq++
	f.notifyLocked()
	f.mu.Unlock()
}

// SetAvailability обновляет состояние служб геолокации устройства
func (f *Feed) SetAvailability(update models.AvailabilityUpdate) {
	f.mu.Lock()
	f.enabled = update.ServiceEnabled
	f.permitted = update.PermissionGranted
	f.notifyLocked()
	f.mu.Unlock()
}

// Latest возвращает последний принятый фикс
func (f *Feed) Latest() (models.Position, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest == nil {
		return models.Position{}, false
	}
	return *f.latest, true
}

func (f *Feed) notifyLocked() {
	for ch := range f.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (f *Feed) statusLocked() error {
	if !f.enabled {
		return ErrServiceDisabled
	}
	if !f.permitted {
		return ErrPermissionDenied
	}
	return nil
}

// Subscribe реализует Source
func (f *Feed) Subscribe(ctx context.Context, req Request, fn func(models.Position)) error {
	wake := make(chan struct{}, 1)

	f.mu.Lock()
	if err := f.statusLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	f.subscribers[wake] = struct{}{}
	seen := f.seq
	if f.latest != nil {
		// последний известный фикс выдается сразу
		wake <- struct{}{}
		seen--
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.subscribers, wake)
		f.mu.Unlock()
	}()

	var (
		lastSent *models.Position
		lastAt   time.Time
		timer    *time.Timer
		timerC   <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-wake:
		case <-timerC:
			timerC = nil
		}

		f.mu.Lock()
		if err := f.statusLocked(); err != nil {
			f.mu.Unlock()
			return err
		}
		if f.latest == nil || f.seq == seen {
			f.mu.Unlock()
			continue
		}
		pos := *f.latest
		seq := f.seq
		f.mu.Unlock()

		if lastSent != nil {
			if wait := req.Interval - time.Since(lastAt); wait > 0 {
				// слишком рано: отдадим свежий фикс по таймеру
				if timerC == nil {
					timer = time.NewTimer(wait)
					timerC = timer.C
				}
				continue
			}
			if req.MinDisplacement > 0 && geo.Distance(lastSent.Point(), pos.Point()) < req.MinDisplacement {
				seen = seq
				continue
			}
		}

		seen = seq
		lastSent = &pos
		lastAt = time.Now()
		fn(pos)
	}
}
