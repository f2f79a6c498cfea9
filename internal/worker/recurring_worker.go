package worker

import (
	"context"
	"fmt"
	"listKeeper/internal/logger"
	"listKeeper/internal/models/list"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ключ минуты, в которую шаблон уже сработал
const minuteLayout = "2006-01-02 15:04"

type ScheduledListCreator interface {
	TemplateLists() []*list.List
	CreateScheduledList(ctx context.Context, templateID int64) (*list.List, error)
}

type RecurringWorker struct {
	store    ScheduledListCreator
	interval time.Duration
	now      func() time.Time

	mtx   sync.Mutex
	fired map[int64]string
}

func NewRecurringWorker(store ScheduledListCreator, interval *time.Duration, now func() time.Time) *RecurringWorker {
	var intervalToSet time.Duration
	if interval == nil || *interval <= 0 {
		intervalToSet = time.Minute
	} else {
		intervalToSet = *interval
	}

	if now == nil {
		now = time.Now
	}
	return &RecurringWorker{
		store:    store,
		interval: intervalToSet,
		now:      now,
		fired:    make(map[int64]string),
	}
}

func (w *RecurringWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Проверка расписаний запущена", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Проверка расписаний останавливается")
			return
		}
	}
}

func (w *RecurringWorker) Check(ctx context.Context) {
	w.CheckAt(ctx, w.now())
}

// CheckAt создаёт списки для всех включённых шаблонов, чьё время совпадает
// с минутой at. Каждый шаблон срабатывает не более раза за минуту.
func (w *RecurringWorker) CheckAt(ctx context.Context, at time.Time) int {
	start := time.Now()
	minute := at.Format(minuteLayout)

	w.mtx.Lock()
	defer w.mtx.Unlock()

	for id, key := range w.fired {
		if key != minute {
			delete(w.fired, id)
		}
	}

	templates := w.store.TemplateLists()
	created := 0
	for _, tpl := range templates {
		if ctx.Err() != nil {
			break
		}
		if !tpl.RecurringSchedule.Due(at) || w.fired[tpl.ID] == minute {
			continue
		}

		if err := w.instantiate(ctx, tpl); err != nil {
			logger.Warn("Worker: Ошибка создания списка по расписанию", zap.Int64("template_id", tpl.ID), zap.Error(err))
			continue
		}
		w.fired[tpl.ID] = minute
		created++
	}

	logger.Info(
		"Worker: Завершение проверки расписаний",
		zap.Duration("ms", time.Since(start)),
		zap.String("minute", minute),
		zap.Int("checked", len(templates)),
		zap.Int("created", created),
	)
	return created
}

func (w *RecurringWorker) instantiate(ctx context.Context, tpl *list.List) error {
	l, err := w.store.CreateScheduledList(ctx, tpl.ID)
	if err != nil {
		return fmt.Errorf("создание списка из шаблона: %w", err)
	}
	logger.Info("Worker: Создан список по расписанию",
		zap.Int64("template_id", tpl.ID),
		zap.Int64("list_id", l.ID),
		zap.String("name", l.Name))
	return nil
}
