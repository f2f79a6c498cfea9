package service_test

import (
	"context"
	"listKeeper/internal/models/list"
	"listKeeper/internal/repository/kv/inmemory"
	"listKeeper/internal/service"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock - управляемые часы для детерминированных id и расписаний
type fakeClock struct {
	mtx sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.now = c.now.Add(d)
}

// recorder запоминает все уведомления
type recorder struct {
	mtx   sync.Mutex
	notes []service.Notification
}

func (r *recorder) Notify(n service.Notification) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) Events() []service.Event {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	res := make([]service.Event, 0, len(r.notes))
	for _, n := range r.notes {
		res = append(res, n.Event)
	}
	return res
}

func (r *recorder) Last() service.Notification {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if len(r.notes) == 0 {
		return service.Notification{}
	}
	return r.notes[len(r.notes)-1]
}

func (r *recorder) Reset() {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.notes = nil
}

type fixture struct {
	store   *service.ListStore
	storage *inmemory.KVStorage
	clock   *fakeClock
	notes   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, inmemory.NewKVStorage())
}

func newFixtureWith(t *testing.T, storage *inmemory.KVStorage) *fixture {
	t.Helper()
	f := &fixture{
		storage: storage,
		clock:   newFakeClock(),
		notes:   &recorder{},
	}
	f.store = service.NewListStore(context.Background(), storage,
		service.WithClock(f.clock.Now),
		service.WithNotifier(f.notes))
	return f
}

func (f *fixture) addList(t *testing.T, name string, kind list.Kind) *list.List {
	t.Helper()
	l, err := f.store.AddList(context.Background(), name, kind)
	require.NoError(t, err)
	return l
}

func (f *fixture) addTodo(t *testing.T, listID int64, text string, priority list.Priority) *list.Todo {
	t.Helper()
	todo, err := f.store.AddTodoToList(context.Background(), listID, list.Todo{Text: text, Priority: priority})
	require.NoError(t, err)
	return todo
}

func (f *fixture) list(t *testing.T, id int64) *list.List {
	t.Helper()
	l, _, err := f.store.GetList(id)
	require.NoError(t, err)
	return l
}

func ids(lists []*list.List) []int64 {
	res := make([]int64, 0, len(lists))
	for _, l := range lists {
		res = append(res, l.ID)
	}
	return res
}

func names(lists []*list.List) []string {
	res := make([]string, 0, len(lists))
	for _, l := range lists {
		res = append(res, l.Name)
	}
	return res
}

func todoTexts(todos []list.Todo) []string {
	res := make([]string, 0, len(todos))
	for _, t := range todos {
		res = append(res, t.Text)
	}
	return res
}
