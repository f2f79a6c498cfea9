package service

import (
	"context"
	"encoding/json"
	"fmt"
	"listKeeper/internal/logger"
	"listKeeper/internal/models/list"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ListStore - единственный источник истины по спискам.
// Все изменения выполняются под одной блокировкой и не перемежаются.
type ListStore struct {
	mtx          *sync.RWMutex
	lists        []*list.List
	deleted      []*list.List
	templates    []*list.List
	activeListID *int64

	ids      *idGenerator
	now      func() time.Time
	notifier Notifier
	persist  *persister
}

type StoreOption func(*ListStore)

func WithClock(now func() time.Time) StoreOption {
	if now == nil {
		return nil
	}
	return func(s *ListStore) {
		s.now = now
	}
}

func WithNotifier(notifier Notifier) StoreOption {
	if notifier == nil {
		return nil
	}
	return func(s *ListStore) {
		s.notifier = notifier
	}
}

func NewListStore(ctx context.Context, storage Storage, options ...StoreOption) *ListStore {
	s := &ListStore{
		mtx:      &sync.RWMutex{},
		now:      time.Now,
		notifier: LogNotifier{},
		persist:  newPersister(storage),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	snap := loadSnapshot(ctx, storage)
	s.lists = snap.lists
	s.deleted = snap.deleted
	s.templates = snap.templates
	s.activeListID = snap.activeListID
	s.ids = &idGenerator{now: s.now}
	s.ids.observe(snap.maxID(s.ids.accepts))

	logger.Info("Service: Состояние загружено",
		zap.Int("lists", len(s.lists)),
		zap.Int("deleted", len(s.deleted)),
		zap.Int("templates", len(s.templates)))
	return s
}

// Run пишет изменения в хранилище в фоне до отмены ctx
func (s *ListStore) Run(ctx context.Context) {
	logger.Info("Service: Фоновое сохранение запущено")
	s.persist.run(ctx)
	logger.Info("Service: Фоновое сохранение остановлено")
}

// Flush синхронно записывает все несохранённые коллекции
func (s *ListStore) Flush(ctx context.Context) error {
	return s.persist.flush(ctx)
}

// Pending - сколько ключей ждут записи
func (s *ListStore) Pending() int {
	return s.persist.pendingKeys()
}

// mutation собирает побочные эффекты одной операции
type mutation struct {
	keys  []string
	notes []Notification
}

func (m *mutation) touch(keys ...string) {
	for _, key := range keys {
		if !slices.Contains(m.keys, key) {
			m.keys = append(m.keys, key)
		}
	}
}

func (m *mutation) notify(event Event, level Level, message string, l *list.List) {
	n := Notification{Event: event, Level: level, Message: message}
	if l != nil {
		n.ListID = l.ID
		n.Name = l.Name
	}
	m.notes = append(m.notes, n)
}

// mutate выполняет fn под блокировкой, ставит затронутые коллекции в очередь
// на сохранение и после снятия блокировки рассылает уведомления
func (s *ListStore) mutate(ctx context.Context, operation string, fn func(m *mutation) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := &mutation{}
	s.mtx.Lock()
	err := fn(m)
	if err == nil {
		s.persistLocked(m.keys)
	}
	s.mtx.Unlock()

	if err != nil {
		logger.Warn("Service: Операция отклонена", zap.String("operation", operation), zap.String("code", CodeOf(err)), zap.Error(err))
		return err
	}

	at := s.now()
	for _, n := range m.notes {
		n.At = at
		s.notifier.Notify(n)
	}
	return nil
}

func (s *ListStore) persistLocked(keys []string) {
	for _, key := range keys {
		var value any
		switch key {
		case KeyLists:
			value = s.lists
		case KeyDeletedLists:
			value = s.deleted
		case KeyTemplateLists:
			value = s.templates
		case KeyActiveListID:
			value = s.activeListID
		default:
			continue
		}

		data, err := json.Marshal(value)
		if err != nil {
			logger.Error("Service: Не удалось сериализовать коллекцию", err, zap.String("key", key))
			continue
		}
		s.persist.enqueue(key, data)
	}
}

func (s *ListStore) Lists() []*list.List {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return cloneAll(s.lists)
}

func (s *ListStore) DeletedLists() []*list.List {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return cloneAll(s.deleted)
}

func (s *ListStore) TemplateLists() []*list.List {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return cloneAll(s.templates)
}

func (s *ListStore) Collection(view View) []*list.List {
	switch view {
	case ViewTrash:
		return s.DeletedLists()
	case ViewTemplates:
		return s.TemplateLists()
	default:
		return s.Lists()
	}
}

func (s *ListStore) ActiveListID() *int64 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.activeListID == nil {
		return nil
	}
	id := *s.activeListID
	return &id
}

// GetList ищет список во всех трёх коллекциях и сообщает, в какой
func (s *ListStore) GetList(id int64) (*list.List, View, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if i := indexOf(s.lists, id); i >= 0 {
		return s.lists[i].Clone(), ViewActive, nil
	}
	if i := indexOf(s.deleted, id); i >= 0 {
		return s.deleted[i].Clone(), ViewTrash, nil
	}
	if i := indexOf(s.templates, id); i >= 0 {
		return s.templates[i].Clone(), ViewTemplates, nil
	}
	return nil, "", NewNotFound(ResourceList, id)
}

func (s *ListStore) AddList(ctx context.Context, name string, kind list.Kind) (*list.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "название не может быть пустым")
	}
	if kind == "" {
		kind = list.KindTasks
	}
	if !kind.Valid() {
		return nil, NewValidationError("type", fmt.Sprintf("неизвестный тип списка %q", kind))
	}

	var created *list.List
	err := s.mutate(ctx, "add_list", func(m *mutation) error {
		l := &list.List{
			ID:        s.ids.next(),
			Name:      name,
			Kind:      kind,
			CreatedAt: s.now(),
		}
		l.Normalize()

		s.lists = prepend(s.lists, l)
		id := l.ID
		s.activeListID = &id

		created = l.Clone()
		m.touch(KeyLists, KeyActiveListID)
		m.notify(EventListCreated, LevelSuccess, fmt.Sprintf("Создан новый список \"%s\"", name), l)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Service: Список создан", zap.Int64("list_id", created.ID), zap.String("type", string(kind)))
	return created, nil
}

// UpdateList применяет опции к активному списку; тип списка не меняется
func (s *ListStore) UpdateList(ctx context.Context, id int64, options ...list.ListOption) (*list.List, error) {
	var updated *list.List
	err := s.mutate(ctx, "update_list", func(m *mutation) error {
		i := indexOf(s.lists, id)
		if i < 0 {
			return NewNotFound(ResourceList, id)
		}

		candidate := s.lists[i].Clone()
		kind := candidate.Kind
		if candidate.Apply(options...) == 0 {
			return NewValidationError("options", "нет изменений для применения")
		}
		candidate.Kind = kind

		s.lists[i] = candidate
		updated = candidate.Clone()
		m.touch(KeyLists)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetActiveList устанавливает указатель активного списка, nil сбрасывает его
func (s *ListStore) SetActiveList(ctx context.Context, id *int64) error {
	return s.mutate(ctx, "set_active_list", func(m *mutation) error {
		if id == nil {
			s.activeListID = nil
			m.touch(KeyActiveListID)
			return nil
		}
		if indexOf(s.lists, *id) < 0 {
			return NewNotFound(ResourceList, *id)
		}
		active := *id
		s.activeListID = &active
		m.touch(KeyActiveListID)
		return nil
	})
}

func (s *ListStore) DeleteList(ctx context.Context, id int64) error {
	err := s.mutate(ctx, "delete_list", func(m *mutation) error {
		i := indexOf(s.lists, id)
		if i < 0 {
			return NewNotFound(ResourceList, id)
		}

		l := s.lists[i]
		s.lists = slices.Delete(s.lists, i, i+1)
		deletedAt := s.now()
		l.DeletedAt = &deletedAt
		s.deleted = prepend(s.deleted, l)
		m.touch(KeyLists, KeyDeletedLists)

		if s.activeListID != nil && *s.activeListID == id {
			s.activeListID = nil
			m.touch(KeyActiveListID)
		}

		m.notify(EventListTrashed, LevelSuccess, fmt.Sprintf("Список \"%s\" перемещён в корзину", l.Name), l)
		return nil
	})
	if err == nil {
		logger.Info("Service: Список перемещён в корзину", zap.Int64("list_id", id))
	}
	return err
}

func (s *ListStore) RestoreList(ctx context.Context, id int64) error {
	err := s.mutate(ctx, "restore_list", func(m *mutation) error {
		i := indexOf(s.deleted, id)
		if i < 0 {
			return NewNotFound(ResourceList, id)
		}

		l := s.deleted[i]
		s.deleted = slices.Delete(s.deleted, i, i+1)
		l.DeletedAt = nil
		s.lists = prepend(s.lists, l)

		m.touch(KeyLists, KeyDeletedLists)
		m.notify(EventListRestored, LevelSuccess, fmt.Sprintf("Список \"%s\" восстановлен", l.Name), l)
		return nil
	})
	if err == nil {
		logger.Info("Service: Список восстановлен", zap.Int64("list_id", id))
	}
	return err
}

func (s *ListStore) PermanentlyDeleteList(ctx context.Context, id int64) error {
	err := s.mutate(ctx, "purge_list", func(m *mutation) error {
		i := indexOf(s.deleted, id)
		if i < 0 {
			return NewNotFound(ResourceList, id)
		}

		l := s.deleted[i]
		s.deleted = slices.Delete(s.deleted, i, i+1)

		m.touch(KeyDeletedLists)
		m.notify(EventListPurged, LevelSuccess, fmt.Sprintf("Список \"%s\" удалён навсегда", l.Name), l)
		return nil
	})
	if err == nil {
		logger.Info("Service: Список удалён навсегда", zap.Int64("list_id", id))
	}
	return err
}

// ReorderLists заменяет порядок коллекции перестановкой тех же id
func (s *ListStore) ReorderLists(ctx context.Context, view View, order []int64) error {
	return s.mutate(ctx, "reorder_lists", func(m *mutation) error {
		var target *[]*list.List
		var key string
		switch view {
		case ViewActive:
			target, key = &s.lists, KeyLists
		case ViewTrash:
			target, key = &s.deleted, KeyDeletedLists
		case ViewTemplates:
			target, key = &s.templates, KeyTemplateLists
		default:
			return NewValidationError("view", fmt.Sprintf("неизвестная коллекция %q", view))
		}

		current := *target
		if len(order) != len(current) {
			return NewInvalidReorder(view, fmt.Sprintf("ожидалось %d id, получено %d", len(current), len(order)))
		}

		byID := make(map[int64]*list.List, len(current))
		for _, l := range current {
			byID[l.ID] = l
		}

		reordered := make([]*list.List, 0, len(order))
		for _, id := range order {
			l, ok := byID[id]
			if !ok {
				return NewInvalidReorder(view, fmt.Sprintf("id %d отсутствует или повторяется", id))
			}
			delete(byID, id)
			reordered = append(reordered, l)
		}

		*target = reordered
		m.touch(key)
		return nil
	})
}

// activeListLocked ищет список среди активных; вызывать под блокировкой
func (s *ListStore) activeListLocked(id int64) (*list.List, error) {
	i := indexOf(s.lists, id)
	if i < 0 {
		return nil, NewNotFound(ResourceList, id)
	}
	return s.lists[i], nil
}

func indexOf(lists []*list.List, id int64) int {
	return slices.IndexFunc(lists, func(l *list.List) bool { return l.ID == id })
}

func prepend(lists []*list.List, l *list.List) []*list.List {
	return append([]*list.List{l}, lists...)
}

func cloneAll(lists []*list.List) []*list.List {
	res := make([]*list.List, 0, len(lists))
	for _, l := range lists {
		res = append(res, l.Clone())
	}
	return res
}
