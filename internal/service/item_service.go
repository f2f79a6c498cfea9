package service

import (
	"context"
	"fmt"
	"listKeeper/internal/logger"
	"listKeeper/internal/models/list"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// listOfKindLocked ищет активный список нужного типа; вызывать под блокировкой
func (s *ListStore) listOfKindLocked(id int64, kind list.Kind) (*list.List, error) {
	l, err := s.activeListLocked(id)
	if err != nil {
		return nil, err
	}
	if l.Kind != kind {
		return nil, NewKindMismatch(id, string(kind), string(l.Kind))
	}
	return l, nil
}

// itemIDLocked возвращает id нового элемента: выданный генератором
// или переданный вызывающим, если он свободен
func (s *ListStore) itemIDLocked(l *list.List, requested int64) (int64, error) {
	if requested == 0 {
		return s.ids.next(), nil
	}
	if !s.ids.accepts(requested) {
		return 0, NewValidationError("id", fmt.Sprintf("id %d должен быть положительным и не опережать текущее время больше чем на %s", requested, maxIDLead))
	}
	if l.HasItem(requested) {
		return 0, NewValidationError("id", fmt.Sprintf("id %d уже занят в списке %d", requested, l.ID))
	}
	s.ids.observe(requested)
	return requested, nil
}

func (s *ListStore) AddTodoToList(ctx context.Context, listID int64, todo list.Todo) (*list.Todo, error) {
	todo.Text = strings.TrimSpace(todo.Text)
	if todo.Text == "" {
		return nil, NewValidationError("text", "текст задачи не может быть пустым")
	}
	if todo.Priority == "" {
		todo.Priority = list.PriorityLow
	}
	if !todo.Priority.Valid() {
		return nil, NewValidationError("priority", fmt.Sprintf("неизвестный приоритет %q", todo.Priority))
	}

	var created list.Todo
	err := s.mutate(ctx, "add_todo", func(m *mutation) error {
		l, err := s.listOfKindLocked(listID, list.KindTasks)
		if err != nil {
			return err
		}
		id, err := s.itemIDLocked(l, todo.ID)
		if err != nil {
			return err
		}

		todo.ID = id
		todo.DeletedAt = nil
		todo.IsRemoving = false
		todo.IsCompleting = false
		l.Todos = append(l.Todos, todo)
		list.SortTodos(l.Todos)

		created = todo
		m.touch(KeyLists)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Service: Задача добавлена", zap.Int64("list_id", listID), zap.Int64("todo_id", created.ID))
	return &created, nil
}

func (s *ListStore) AddTextItemToList(ctx context.Context, listID int64, item list.TextItem) (*list.TextItem, error) {
	item.Text = strings.TrimSpace(item.Text)
	if item.Text == "" {
		return nil, NewValidationError("text", "текст записи не может быть пустым")
	}

	var created list.TextItem
	err := s.mutate(ctx, "add_text_item", func(m *mutation) error {
		l, err := s.listOfKindLocked(listID, list.KindText)
		if err != nil {
			return err
		}
		id, err := s.itemIDLocked(l, item.ID)
		if err != nil {
			return err
		}

		item.ID = id
		item.IsRemoving = false
		l.TextItems = append([]list.TextItem{item}, l.TextItems...)

		created = item
		m.touch(KeyLists)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Service: Запись добавлена", zap.Int64("list_id", listID), zap.Int64("item_id", created.ID))
	return &created, nil
}

// ToggleTodo меняет отметку выполнения; задача остаётся в списке
func (s *ListStore) ToggleTodo(ctx context.Context, listID, todoID int64) (*list.Todo, error) {
	var toggled list.Todo
	err := s.mutate(ctx, "toggle_todo", func(m *mutation) error {
		l, err := s.listOfKindLocked(listID, list.KindTasks)
		if err != nil {
			return err
		}
		i := l.FindTodo(todoID)
		if i < 0 {
			return NewNotFound(ResourceTodo, todoID)
		}

		l.Todos[i].Completed = !l.Todos[i].Completed
		l.Todos[i].IsCompleting = l.Todos[i].Completed

		toggled = l.Todos[i]
		m.touch(KeyLists)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &toggled, nil
}

// UpdateTodoPriority переводит приоритет по кругу low -> medium -> high -> low
func (s *ListStore) UpdateTodoPriority(ctx context.Context, listID, todoID int64) (*list.Todo, error) {
	var updated list.Todo
	err := s.mutate(ctx, "update_todo_priority", func(m *mutation) error {
		l, err := s.listOfKindLocked(listID, list.KindTasks)
		if err != nil {
			return err
		}
		i := l.FindTodo(todoID)
		if i < 0 {
			return NewNotFound(ResourceTodo, todoID)
		}

		l.Todos[i].Priority = l.Todos[i].Priority.Next()
		updated = l.Todos[i]
		list.SortTodos(l.Todos)

		m.touch(KeyLists)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *ListStore) DeleteTodoFromList(ctx context.Context, listID, todoID int64) error {
	return s.mutate(ctx, "delete_todo", func(m *mutation) error {
		l, err := s.listOfKindLocked(listID, list.KindTasks)
		if err != nil {
			return err
		}
		i := l.FindTodo(todoID)
		if i < 0 {
			return NewNotFound(ResourceTodo, todoID)
		}

		todo := l.Todos[i]
		l.Todos = slices.Delete(l.Todos, i, i+1)
		deletedAt := s.now()
		todo.DeletedAt = &deletedAt
		todo.IsRemoving = false
		todo.IsCompleting = false
		l.DeletedTodos = append([]list.Todo{todo}, l.DeletedTodos...)

		m.touch(KeyLists)
		return nil
	})
}

// RestoreTodoInList возвращает задачу невыполненной
func (s *ListStore) RestoreTodoInList(ctx context.Context, listID, todoID int64) error {
	return s.mutate(ctx, "restore_todo", func(m *mutation) error {
		l, err := s.listOfKindLocked(listID, list.KindTasks)
		if err != nil {
			return err
		}
		i := l.FindDeletedTodo(todoID)
		if i < 0 {
			return NewNotFound(ResourceTodo, todoID)
		}

		todo := l.DeletedTodos[i]
		l.DeletedTodos = slices.Delete(l.DeletedTodos, i, i+1)
		todo.DeletedAt = nil
		todo.Completed = false
		todo.IsCompleting = false
		todo.IsRemoving = false
		l.Todos = append([]list.Todo{todo}, l.Todos...)
		list.SortTodos(l.Todos)

		m.touch(KeyLists)
		return nil
	})
}

func (s *ListStore) PermanentlyDeleteTodo(ctx context.Context, listID, todoID int64) error {
	return s.mutate(ctx, "purge_todo", func(m *mutation) error {
		l, err := s.listOfKindLocked(listID, list.KindTasks)
		if err != nil {
			return err
		}
		i := l.FindDeletedTodo(todoID)
		if i < 0 {
			return NewNotFound(ResourceTodo, todoID)
		}

		l.DeletedTodos = slices.Delete(l.DeletedTodos, i, i+1)
		m.touch(KeyLists)
		return nil
	})
}

func (s *ListStore) DeleteTextItemFromList(ctx context.Context, listID, itemID int64) error {
	return s.mutate(ctx, "delete_text_item", func(m *mutation) error {
		l, err := s.listOfKindLocked(listID, list.KindText)
		if err != nil {
			return err
		}
		i := l.FindTextItem(itemID)
		if i < 0 {
			return NewNotFound(ResourceTextItem, itemID)
		}

		item := l.TextItems[i]
		l.TextItems = slices.Delete(l.TextItems, i, i+1)
		item.IsRemoving = false
		l.DeletedTextItems = append([]list.TextItem{item}, l.DeletedTextItems...)

		m.touch(KeyLists)
		return nil
	})
}

func (s *ListStore) RestoreTextItemInList(ctx context.Context, listID, itemID int64) error {
	return s.mutate(ctx, "restore_text_item", func(m *mutation) error {
		l, err := s.listOfKindLocked(listID, list.KindText)
		if err != nil {
			return err
		}
		i := l.FindDeletedTextItem(itemID)
		if i < 0 {
			return NewNotFound(ResourceTextItem, itemID)
		}

		item := l.DeletedTextItems[i]
		l.DeletedTextItems = slices.Delete(l.DeletedTextItems, i, i+1)
		item.IsRemoving = false
		l.TextItems = append([]list.TextItem{item}, l.TextItems...)

		m.touch(KeyLists)
		return nil
	})
}

func (s *ListStore) PermanentlyDeleteTextItem(ctx context.Context, listID, itemID int64) error {
	return s.mutate(ctx, "purge_text_item", func(m *mutation) error {
		l, err := s.listOfKindLocked(listID, list.KindText)
		if err != nil {
			return err
		}
		i := l.FindDeletedTextItem(itemID)
		if i < 0 {
			return NewNotFound(ResourceTextItem, itemID)
		}

		l.DeletedTextItems = slices.Delete(l.DeletedTextItems, i, i+1)
		m.touch(KeyLists)
		return nil
	})
}
