package service

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"listKeeper/internal/logger"
	"listKeeper/internal/models/list"
	repo "listKeeper/internal/repository"
	"slices"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

//go:embed schema/lists.schema.json
var listsSchemaJSON string

var listsSchema = jsonschema.MustCompileString("lists.schema.json", listsSchemaJSON)

type snapshot struct {
	lists        []*list.List
	deleted      []*list.List
	templates    []*list.List
	activeListID *int64
}

// loadSnapshot никогда не падает: битые или отсутствующие данные
// превращаются в пустые коллекции
func loadSnapshot(ctx context.Context, storage Storage) snapshot {
	snap := snapshot{
		lists:     loadCollection(ctx, storage, KeyLists),
		deleted:   loadCollection(ctx, storage, KeyDeletedLists),
		templates: loadCollection(ctx, storage, KeyTemplateLists),
	}

	if data, ok := readKey(ctx, storage, KeyActiveListID); ok {
		var id *int64
		if err := json.Unmarshal(data, &id); err != nil {
			logger.Warn("Service: Повреждён activeListId, сбрасываем", zap.Error(err))
		} else {
			snap.activeListID = id
		}
	}

	snap.repair()
	return snap
}

func readKey(ctx context.Context, storage Storage, key string) ([]byte, bool) {
	data, err := storage.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			logger.Warn("Service: Ошибка чтения из хранилища", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return data, true
}

func loadCollection(ctx context.Context, storage Storage, key string) []*list.List {
	data, ok := readKey(ctx, storage, key)
	if !ok {
		return []*list.List{}
	}

	lists, err := decodeCollection(data)
	if err != nil {
		logger.Warn("Service: Повреждённая коллекция, начинаем с пустой", zap.String("key", key), zap.Error(err))
		return []*list.List{}
	}
	return lists
}

func decodeCollection(data []byte) ([]*list.List, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("разбор json: %w", err)
	}
	if raw == nil {
		return []*list.List{}, nil
	}
	if err := listsSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("проверка схемы: %w", err)
	}

	var lists []*list.List
	if err := json.Unmarshal(data, &lists); err != nil {
		return nil, fmt.Errorf("разбор списков: %w", err)
	}
	return lists, nil
}

// repair восстанавливает инварианты после загрузки
func (s *snapshot) repair() {
	seen := make(map[int64]struct{})
	dedupe := func(key string, lists []*list.List, trashed bool) []*list.List {
		res := make([]*list.List, 0, len(lists))
		for _, l := range lists {
			if l == nil {
				continue
			}
			if _, dup := seen[l.ID]; dup {
				logger.Warn("Service: Дубликат id списка при загрузке", zap.String("key", key), zap.Int64("list_id", l.ID))
				continue
			}
			seen[l.ID] = struct{}{}
			if !trashed {
				l.DeletedAt = nil
			}
			repairItems(key, l)
			for i := range l.Todos {
				if l.Todos[i].Priority == "" {
					l.Todos[i].Priority = list.PriorityLow
				}
			}
			l.Normalize()
			res = append(res, l)
		}
		return res
	}

	s.lists = dedupe(KeyLists, s.lists, false)
	s.deleted = dedupe(KeyDeletedLists, s.deleted, true)
	s.templates = dedupe(KeyTemplateLists, s.templates, false)

	if s.activeListID != nil && indexOf(s.lists, *s.activeListID) < 0 {
		logger.Warn("Service: activeListId указывает на отсутствующий список", zap.Int64("list_id", *s.activeListID))
		s.activeListID = nil
	}
}

// repairItems оставляет только элементы, подходящие под тип списка,
// и убирает повторы id внутри списка (первое вхождение остаётся)
func repairItems(key string, l *list.List) {
	switch l.Kind {
	case list.KindText:
		if len(l.Todos)+len(l.DeletedTodos) > 0 {
			logger.Warn("Service: Задачи в текстовом списке отброшены", zap.String("key", key), zap.Int64("list_id", l.ID))
		}
		l.Todos, l.DeletedTodos = []list.Todo{}, []list.Todo{}
	default:
		if len(l.TextItems)+len(l.DeletedTextItems) > 0 {
			logger.Warn("Service: Записи в списке задач отброшены", zap.String("key", key), zap.Int64("list_id", l.ID))
		}
		l.TextItems, l.DeletedTextItems = []list.TextItem{}, []list.TextItem{}
	}

	seen := make(map[int64]struct{})
	duplicate := func(id int64) bool {
		if _, dup := seen[id]; dup {
			logger.Warn("Service: Дубликат id элемента при загрузке", zap.String("key", key), zap.Int64("list_id", l.ID), zap.Int64("item_id", id))
			return true
		}
		seen[id] = struct{}{}
		return false
	}
	l.Todos = slices.DeleteFunc(l.Todos, func(t list.Todo) bool { return duplicate(t.ID) })
	l.DeletedTodos = slices.DeleteFunc(l.DeletedTodos, func(t list.Todo) bool { return duplicate(t.ID) })
	l.TextItems = slices.DeleteFunc(l.TextItems, func(t list.TextItem) bool { return duplicate(t.ID) })
	l.DeletedTextItems = slices.DeleteFunc(l.DeletedTextItems, func(t list.TextItem) bool { return duplicate(t.ID) })
}

// maxID - наибольший id среди списков и их элементов из тех, что принимает accepts
func (s *snapshot) maxID(accepts func(int64) bool) int64 {
	var highest int64
	observe := func(id int64) {
		if !accepts(id) {
			logger.Warn("Service: id вне допустимого диапазона не учитывается генератором", zap.Int64("id", id))
			return
		}
		if id > highest {
			highest = id
		}
	}
	for _, collection := range [][]*list.List{s.lists, s.deleted, s.templates} {
		for _, l := range collection {
			observe(l.ID)
			for _, t := range l.Todos {
				observe(t.ID)
			}
			for _, t := range l.DeletedTodos {
				observe(t.ID)
			}
			for _, t := range l.TextItems {
				observe(t.ID)
			}
			for _, t := range l.DeletedTextItems {
				observe(t.ID)
			}
		}
	}
	return highest
}

// maxIDLead - насколько id может опережать текущее время.
// Дальше генератор не сдвигается, иначе last+1 переполнит int64.
const maxIDLead = 24 * time.Hour

// idGenerator выдаёт id на основе времени в миллисекундах,
// строго возрастающие даже при нескольких вызовах в одну миллисекунду
type idGenerator struct {
	last int64
	now  func() time.Time
}

func (g *idGenerator) next() int64 {
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// accepts - id положительный и не дальше maxIDLead от текущего времени
func (g *idGenerator) accepts(id int64) bool {
	return id > 0 && id <= g.now().Add(maxIDLead).UnixMilli()
}

func (g *idGenerator) observe(id int64) {
	if g.accepts(id) && id > g.last {
		g.last = id
	}
}
