package worker_test

import (
	"context"
	"errors"
	"listKeeper/internal/models/list"
	"listKeeper/internal/repository/kv/inmemory"
	"listKeeper/internal/service"
	"listKeeper/internal/worker"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCreator - мок хранилища списков для воркера
type MockCreator struct {
	mock.Mock
}

func (m *MockCreator) TemplateLists() []*list.List {
	args := m.Called()
	return args.Get(0).([]*list.List)
}

func (m *MockCreator) CreateScheduledList(ctx context.Context, templateID int64) (*list.List, error) {
	args := m.Called(ctx, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*list.List), args.Error(1)
}

var _ worker.ScheduledListCreator = (*MockCreator)(nil)
var _ worker.ScheduledListCreator = (*service.ListStore)(nil)

func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2026-03-14 "+hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func newScheduledStore(t *testing.T, schedule *list.RecurringSchedule) (*service.ListStore, *list.List) {
	t.Helper()
	ctx := context.Background()
	clock := at("08:00")
	store := service.NewListStore(ctx, inmemory.NewKVStorage(), service.WithClock(func() time.Time { return clock }))

	l, err := store.AddList(ctx, "Groceries", list.KindTasks)
	require.NoError(t, err)
	tpl, err := store.SaveAsTemplate(ctx, l.ID)
	require.NoError(t, err)
	require.NoError(t, store.DeleteList(ctx, l.ID))
	_, err = store.UpdateTemplateSchedule(ctx, tpl.ID, schedule)
	require.NoError(t, err)
	return store, tpl
}

// TestRecurringWorker_CheckAt тестирует срабатывание расписания по минутам
func TestRecurringWorker_CheckAt(t *testing.T) {
	tests := []struct {
		name     string
		schedule *list.RecurringSchedule
		at       string
		want     int
	}{
		{name: "matching minute", schedule: &list.RecurringSchedule{Enabled: true, Time: "09:00"}, at: "09:00", want: 1},
		{name: "next minute", schedule: &list.RecurringSchedule{Enabled: true, Time: "09:00"}, at: "09:01", want: 0},
		{name: "previous minute", schedule: &list.RecurringSchedule{Enabled: true, Time: "09:00"}, at: "08:59", want: 0},
		{name: "disabled", schedule: &list.RecurringSchedule{Enabled: false, Time: "09:00"}, at: "09:00", want: 0},
		{name: "no schedule", schedule: nil, at: "09:00", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newScheduledStore(t, tt.schedule)
			w := worker.NewRecurringWorker(store, nil, nil)

			created := w.CheckAt(context.Background(), at(tt.at))

			assert.Equal(t, tt.want, created)
			lists := store.Lists()
			require.Len(t, lists, tt.want)
			if tt.want == 1 {
				assert.Equal(t, "Groceries", lists[0].Name)
				assert.Nil(t, lists[0].RecurringSchedule)
				assert.Empty(t, lists[0].DeletedTodos)
			}
		})
	}
}

// TestRecurringWorker_OncePerMinute тестирует, что повторные тики в ту же минуту не создают дубликатов
func TestRecurringWorker_OncePerMinute(t *testing.T) {
	ctx := context.Background()
	store, tpl := newScheduledStore(t, &list.RecurringSchedule{Enabled: true, Time: "09:00"})
	w := worker.NewRecurringWorker(store, nil, nil)

	assert.Equal(t, 1, w.CheckAt(ctx, at("09:00")))
	assert.Equal(t, 0, w.CheckAt(ctx, at("09:00").Add(30*time.Second)))
	assert.Len(t, store.Lists(), 1)

	assert.Equal(t, 0, w.CheckAt(ctx, at("09:01")))
	next := at("09:00").AddDate(0, 0, 1)
	assert.Equal(t, 1, w.CheckAt(ctx, next), "на следующий день шаблон срабатывает снова")

	lists := store.Lists()
	require.Len(t, lists, 1, "вчерашний список заменён")
	assert.Equal(t, "Groceries", lists[0].Name)
	assert.Len(t, store.TemplateLists(), 1)
	assert.Equal(t, tpl.ID, store.TemplateLists()[0].ID)
}

// TestRecurringWorker_SeveralTemplates тестирует несколько шаблонов в одну минуту
func TestRecurringWorker_SeveralTemplates(t *testing.T) {
	ctx := context.Background()
	m := new(MockCreator)
	schedule := &list.RecurringSchedule{Enabled: true, Time: "07:15"}
	m.On("TemplateLists").Return([]*list.List{
		{ID: 1, Name: "A Template", RecurringSchedule: schedule},
		{ID: 2, Name: "B Template", RecurringSchedule: schedule},
		{ID: 3, Name: "C Template", RecurringSchedule: &list.RecurringSchedule{Enabled: true, Time: "07:16"}},
	})
	m.On("CreateScheduledList", mock.Anything, int64(1)).Return(nil, errors.New("storage busy")).Once()
	m.On("CreateScheduledList", mock.Anything, int64(2)).Return(&list.List{ID: 20, Name: "B"}, nil).Once()

	w := worker.NewRecurringWorker(m, nil, nil)
	assert.Equal(t, 1, w.CheckAt(ctx, at("07:15")))

	m.On("CreateScheduledList", mock.Anything, int64(1)).Return(&list.List{ID: 10, Name: "A"}, nil).Once()
	assert.Equal(t, 1, w.CheckAt(ctx, at("07:15")), "неудачный шаблон повторяется в ту же минуту")

	m.AssertExpectations(t)
	m.AssertNotCalled(t, "CreateScheduledList", mock.Anything, int64(3))
}

// TestRecurringWorker_Start тестирует тики по таймеру и остановку
func TestRecurringWorker_Start(t *testing.T) {
	m := new(MockCreator)
	var calls atomic.Int32
	m.On("TemplateLists").Return([]*list.List{}).Run(func(mock.Arguments) { calls.Add(1) })

	interval := 5 * time.Millisecond
	w := worker.NewRecurringWorker(m, &interval, func() time.Time { return at("12:00") })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("воркер не остановился")
	}
}
